// Package render turns digest items into frames and commits them to a
// display surface.
package render

import (
	"io"
	"time"

	"github.com/ppiankov/abhaya/internal/news"
)

// Element is one activatable entry on the surface. Activating it dispatches
// "open item" with ID.
type Element struct {
	ID        string
	Title     string
	Priority  news.Priority
	Category  string
	CreatedAt time.Time
	URL       string
}

// Frame is the complete content of the surface after one render.
type Frame struct {
	Elements []Element
	// Placeholder is the localized message shown instead of an empty surface.
	// Set only when Elements is empty.
	Placeholder string
	RenderedAt  time.Time
}

// Empty reports whether the frame shows the placeholder.
func (f Frame) Empty() bool {
	return len(f.Elements) == 0
}

// Find returns the element with id.
func (f Frame) Find(id string) (Element, bool) {
	for _, el := range f.Elements {
		if el.ID == id {
			return el, true
		}
	}
	return Element{}, false
}

// Surface is the display the ticker draws on. Replace swaps out the whole
// content; surfaces never merge frames.
type Surface interface {
	Replace(f Frame) error
}

// Encoder writes a frame in a concrete output format.
type Encoder interface {
	Encode(w io.Writer, f Frame) error
}

// Renderer commits items to a surface.
type Renderer struct {
	surface Surface
	now     func() time.Time
}

// New creates a renderer drawing on s.
func New(s Surface) *Renderer {
	return &Renderer{surface: s, now: time.Now}
}

// WithClock replaces the time source stamped on frames.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	r.now = now
	return r
}

// Render replaces the surface content with items, in the order given.
func (r *Renderer) Render(items []news.Item) error {
	return r.surface.Replace(BuildFrame(items, r.now()))
}

// BuildFrame converts items into a frame rendered at now.
func BuildFrame(items []news.Item, now time.Time) Frame {
	f := Frame{RenderedAt: now}
	if len(items) == 0 {
		f.Placeholder = news.Placeholder
		return f
	}
	f.Elements = make([]Element, 0, len(items))
	for _, it := range items {
		f.Elements = append(f.Elements, Element{
			ID:        it.ID,
			Title:     it.Title,
			Priority:  it.Priority,
			Category:  it.Category,
			CreatedAt: it.CreatedAt,
			URL:       it.URL,
		})
	}
	return f
}

// ByName returns the encoder for a format name.
func ByName(format string, color bool) (Encoder, bool) {
	switch format {
	case "terminal", "":
		return NewTerminal(color), true
	case "json":
		return NewJSON(), true
	case "html":
		return NewHTML(), true
	default:
		return nil, false
	}
}
