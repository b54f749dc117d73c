package fetch

import (
	"rfetch/internal/record"
	"rfetch/internal/reddit"
	"rfetch/internal/store"
)

type queued struct {
	node  reddit.CommentNode
	depth int
}

// flatten stores a comment forest breadth-first. Depth comes from the
// worklist alone: roots are 0 and each reply is one deeper than the comment
// it was queued from. A comment that is already stored is skipped without
// touching its replies, unless Backfill is set.
func (f *Fetcher) flatten(partition, submissionID string, roots []reddit.CommentNode) Counts {
	var counts Counts
	queue := make([]queued, 0, len(roots))
	for _, root := range roots {
		queue = append(queue, queued{node: root, depth: 0})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		c := item.node.Data()

		exists, err := f.Store.Exists(store.Comments, partition, c.ID)
		if err != nil {
			counts.Failed++
			f.logf("  failed to check comment %s: %v", c.ID, err)
			continue
		}
		if exists {
			counts.Skipped++
			if !f.Backfill {
				continue
			}
		} else {
			rec := record.FromComment(c, submissionID, item.depth)
			if err := f.Store.Put(store.Comments, partition, c.ID, rec); err != nil {
				counts.Failed++
				f.logf("  failed to store comment %s: %v", c.ID, err)
				continue
			}
			counts.Downloaded++
		}

		for _, reply := range item.node.Replies() {
			queue = append(queue, queued{node: reply, depth: item.depth + 1})
		}
	}
	return counts
}
