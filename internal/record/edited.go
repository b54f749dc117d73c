package record

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Edited is either "never edited" or "edited at" a time. Reddit reports some
// old edits as a bare true; those carry no timestamp.
type Edited struct {
	edited bool
	at     int64
}

// NeverEdited is the zero value.
func NeverEdited() Edited { return Edited{} }

// EditedAt marks an edit at unix seconds ts. A zero ts means the time is unknown.
func EditedAt(ts int64) Edited { return Edited{edited: true, at: ts} }

// IsEdited reports whether the item was ever edited.
func (e Edited) IsEdited() bool { return e.edited }

// Time returns the edit time, if known.
func (e Edited) Time() (int64, bool) {
	return e.at, e.edited && e.at != 0
}

// MarshalJSON encodes false, true, or the epoch seconds of the edit.
func (e Edited) MarshalJSON() ([]byte, error) {
	switch {
	case !e.edited:
		return []byte("false"), nil
	case e.at == 0:
		return []byte("true"), nil
	default:
		return strconv.AppendInt(nil, e.at, 10), nil
	}
}

func (e *Edited) UnmarshalJSON(data []byte) error {
	*e = NormalizeEdited(data)
	return nil
}

// NormalizeEdited resolves reddit's boolean-or-timestamp "edited" field.
// Absent, null, false and zero all mean never edited.
func NormalizeEdited(raw json.RawMessage) Edited {
	s := string(bytes.TrimSpace(raw))
	switch s {
	case "", "null", "false":
		return NeverEdited()
	case "true":
		return EditedAt(0)
	}
	f, err := strconv.ParseFloat(strings.Trim(s, `"`), 64)
	if err != nil || f <= 0 {
		return NeverEdited()
	}
	return EditedAt(int64(f))
}
