package fetch

import "rfetch/internal/store"

// ResolveTargets returns the submissions whose comments should be fetched:
// the explicit id if given, otherwise every id stored in fromDir.
func ResolveTargets(submissionID, fromDir string) ([]string, error) {
	if submissionID != "" {
		return []string{submissionID}, nil
	}
	if fromDir == "" {
		return nil, &ConfigError{
			Field:   "submission-id",
			Message: "must specify either --submission-id or --from-dir",
		}
	}
	ids, err := store.ReadIDs(fromDir)
	if err != nil {
		return nil, &ConfigError{Field: "from-dir", Message: err.Error()}
	}
	return ids, nil
}
