package render

import (
	"fmt"
	"html"
	"io"
)

// HTMLFormatter writes frames as a ticker markup fragment for the page.
type HTMLFormatter struct{}

// NewHTML creates an HTML fragment formatter.
func NewHTML() *HTMLFormatter {
	return &HTMLFormatter{}
}

// Encode writes one span per element. Every span carries data-news-id and
// data-url so the page can dispatch "open item".
func (f *HTMLFormatter) Encode(w io.Writer, fr Frame) error {
	if fr.Empty() {
		_, err := fmt.Fprintf(w, "<span class=\"breaking-news-item\">%s</span>\n", html.EscapeString(fr.Placeholder))
		return err
	}

	for _, el := range fr.Elements {
		_, err := fmt.Fprintf(w,
			"<span class=\"breaking-news-item priority-%s\" data-news-id=\"%s\" data-url=\"%s\" data-category=\"%s\" title=\"Click to read full article\">%s</span>\n",
			html.EscapeString(string(el.Priority)),
			html.EscapeString(el.ID),
			html.EscapeString(el.URL),
			html.EscapeString(el.Category),
			html.EscapeString(el.Title),
		)
		if err != nil {
			return err
		}
	}
	return nil
}
