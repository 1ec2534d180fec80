package news

import (
	"strconv"
	"time"
)

// Placeholder is shown when a digest has no items at all.
const Placeholder = "అభయ న్యూస్‌కు స్వాగతం - తాజా వార్తల కోసం మమ్మల్ని అనుసరించండి"

var instantTitles = []string{
	"తెలంగాణ రాష్ట్రంలో కొత్త పథకం ప్రారంభం - ప్రభుత్వం ప్రకటన",
	"హైదరాబాద్‌లో మెట్రో రైలు కొత్త మార్గం - ప్రయాణికులకు సంతోషం",
	"ఆంధ్రప్రదేశ్‌లో వర్షాలు - రైతులకు ఊరట",
	"విజయవాడలో కొత్త ఆసుపత్రి ప్రారంభం - ప్రజలకు మెరుగైన వైద్య సేవలు",
}

// Instant returns the built-in headlines shown before any network result.
func Instant(now time.Time) []Item {
	items := make([]Item, 0, len(instantTitles))
	for i, title := range instantTitles {
		items = append(items, Item{
			ID:        "temp-" + strconv.Itoa(i),
			Title:     title,
			CreatedAt: now,
			Priority:  PriorityHigh,
		})
	}
	return items
}

// Fallback returns the fixed set displayed when a cycle fails with nothing
// better on screen.
func Fallback(now time.Time) []Item {
	return []Item{
		{
			ID:        "fallback-1",
			Title:     instantTitles[0],
			CreatedAt: now,
			Category:  "politics",
			Priority:  PriorityHigh,
		},
		{
			ID:        "fallback-2",
			Title:     instantTitles[1],
			CreatedAt: now,
			Category:  "transport",
			Priority:  PriorityMedium,
		},
	}
}
