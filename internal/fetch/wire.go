package fetch

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// createdAtLayouts are tried in order for string timestamps.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// wireID is an opaque backend identifier sent as a JSON string or number.
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = wireID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = wireID(n.String())
	return nil
}

// wireTime is a creation timestamp. Values that do not parse decode to the
// zero time, which ranks as the oldest possible item.
type wireTime time.Time

func (t *wireTime) UnmarshalJSON(b []byte) error {
	*t = wireTime(parseCreatedAt(bytes.TrimSpace(b)))
	return nil
}

func parseCreatedAt(b []byte) time.Time {
	if len(b) == 0 {
		return time.Time{}
	}
	if b[0] == '"' {
		var s string
		if json.Unmarshal(b, &s) != nil {
			return time.Time{}
		}
		s = strings.TrimSpace(s)
		for _, layout := range createdAtLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
		return time.Time{}
	}
	// Numbers are Unix milliseconds.
	var ms json.Number
	if json.Unmarshal(b, &ms) != nil {
		return time.Time{}
	}
	v, err := ms.Int64()
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(v).UTC()
}
