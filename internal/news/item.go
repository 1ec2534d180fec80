// Package news holds the ticker's item model and age-based prioritization.
package news

import "time"

// Item is a single headline in a digest. Items are values; a refresh
// replaces the whole slice instead of patching entries.
type Item struct {
	ID        string    // backend identifier, opaque
	Title     string    // headline text
	CreatedAt time.Time // creation timestamp reported by the backend
	Category  string    // backend category slug, e.g. "politics"
	Priority  Priority  // derived from age, see Prioritize
	URL       string    // optional external link
}

// Clone returns a copy of items so callers can't alias cached slices.
func Clone(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
