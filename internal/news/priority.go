package news

import "time"

// Priority is the display priority of an item.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

const (
	highWindow   = 2 * time.Hour
	mediumWindow = 12 * time.Hour
)

// Prioritize derives a priority from the age of an item at now.
// Anything created in the future counts as fresh.
func Prioritize(now, createdAt time.Time) Priority {
	age := now.Sub(createdAt)
	if age < highWindow {
		return PriorityHigh
	}
	if age < mediumWindow {
		return PriorityMedium
	}
	return PriorityLow
}

// WithPriorities returns a new slice with every item's priority derived at now.
// The input slice is left untouched.
func WithPriorities(items []Item, now time.Time) []Item {
	out := Clone(items)
	for i := range out {
		out[i].Priority = Prioritize(now, out[i].CreatedAt)
	}
	return out
}

// Rank orders priorities for display weight; higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}
