package render

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/ppiankov/abhaya/internal/news"
)

// TerminalFormatter writes frames for a terminal.
type TerminalFormatter struct {
	color bool
}

// NewTerminal creates a terminal formatter. Set color=true for ANSI colors.
func NewTerminal(color bool) *TerminalFormatter {
	return &TerminalFormatter{color: color}
}

// Encode writes one line per element, or the placeholder.
func (f *TerminalFormatter) Encode(w io.Writer, fr Frame) error {
	header := fmt.Sprintf("Breaking news (%s)", fr.RenderedAt.Format("15:04:05"))
	if _, err := fmt.Fprintln(w, f.bold(header)); err != nil {
		return err
	}

	if fr.Empty() {
		_, err := fmt.Fprintf(w, "  %s\n", fr.Placeholder)
		return err
	}

	for _, el := range fr.Elements {
		if err := f.writeElement(w, el, fr); err != nil {
			return err
		}
	}
	return nil
}

func (f *TerminalFormatter) writeElement(w io.Writer, el Element, fr Frame) error {
	meta := ""
	if el.Category != "" {
		meta = el.Category
	}
	if !el.CreatedAt.IsZero() {
		age := humanize.RelTime(el.CreatedAt, fr.RenderedAt, "ago", "from now")
		if meta != "" {
			meta += " · "
		}
		meta += age
	}
	if meta != "" {
		meta = " " + f.dim("("+meta+")")
	}

	_, err := fmt.Fprintf(w, "  %s %s%s\n", f.badge(el.Priority), el.Title, meta)
	return err
}

func (f *TerminalFormatter) badge(p news.Priority) string {
	label := fmt.Sprintf("[%-6s]", p)
	switch p {
	case news.PriorityHigh:
		return f.red(f.bold(label))
	case news.PriorityMedium:
		return f.yellow(label)
	default:
		return f.dim(label)
	}
}

// ANSI helpers, no-op when color=false.

func (f *TerminalFormatter) bold(s string) string {
	if !f.color {
		return s
	}
	return "\033[1m" + s + "\033[0m"
}

func (f *TerminalFormatter) red(s string) string {
	if !f.color {
		return s
	}
	return "\033[31m" + s + "\033[0m"
}

func (f *TerminalFormatter) yellow(s string) string {
	if !f.color {
		return s
	}
	return "\033[33m" + s + "\033[0m"
}

func (f *TerminalFormatter) dim(s string) string {
	if !f.color {
		return s
	}
	return "\033[2m" + s + "\033[0m"
}
