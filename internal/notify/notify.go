// Package notify is the toast sink for user-visible, non-fatal errors.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind is the toast flavour.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
	Warning Kind = "warning"
)

// DefaultDuration is how long a toast stays visible.
const DefaultDuration = 3 * time.Second

// Toast is one notification.
type Toast struct {
	Kind     Kind
	Message  string
	Duration time.Duration
}

// Notifier receives toasts.
type Notifier interface {
	Notify(t Toast)
}

// New builds a toast with the default duration.
func New(kind Kind, message string) Toast {
	return Toast{Kind: kind, Message: message, Duration: DefaultDuration}
}

// Log writes toasts to a zap logger. Errors log at warn, the rest at info.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a logging notifier. A nil logger discards toasts.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger.Named("toast")}
}

func (l *Log) Notify(t Toast) {
	fields := []zap.Field{zap.String("kind", string(t.Kind)), zap.Duration("duration", t.Duration)}
	switch t.Kind {
	case Error, Warning:
		l.logger.Warn(t.Message, fields...)
	default:
		l.logger.Info(t.Message, fields...)
	}
}

// Recorder keeps toasts in memory.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Notify(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

// Toasts returns a copy of everything received so far.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}

// Discard drops every toast.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Toast) {}

// Writer prints toasts as "[kind] message" lines, for CLI use.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a notifier printing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (p *Writer) Notify(t Toast) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, "[%s] %s\n", t.Kind, t.Message)
}
