package render

import (
	"encoding/json"
	"io"
	"time"
)

type jsonFrame struct {
	RenderedAt  string        `json:"rendered_at"`
	Placeholder string        `json:"placeholder,omitempty"`
	Items       []jsonElement `json:"items"`
}

type jsonElement struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Priority  string `json:"priority"`
	Category  string `json:"category,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	URL       string `json:"url,omitempty"`
}

// JSONFormatter writes frames as JSON.
type JSONFormatter struct{}

// NewJSON creates a JSON formatter.
func NewJSON() *JSONFormatter {
	return &JSONFormatter{}
}

// Encode writes the frame as indented JSON to w.
func (f *JSONFormatter) Encode(w io.Writer, fr Frame) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSONFrame(fr))
}

func toJSONFrame(fr Frame) jsonFrame {
	out := jsonFrame{
		RenderedAt:  fr.RenderedAt.UTC().Format(time.RFC3339),
		Placeholder: fr.Placeholder,
		Items:       make([]jsonElement, 0, len(fr.Elements)),
	}
	for _, el := range fr.Elements {
		je := jsonElement{
			ID:       el.ID,
			Title:    el.Title,
			Priority: string(el.Priority),
			Category: el.Category,
			URL:      el.URL,
		}
		if !el.CreatedAt.IsZero() {
			je.CreatedAt = el.CreatedAt.UTC().Format(time.RFC3339)
		}
		out.Items = append(out.Items, je)
	}
	return out
}
