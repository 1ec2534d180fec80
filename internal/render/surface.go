package render

import (
	"fmt"
	"io"
	"sync"
)

// Memory keeps the most recent frame. It backs the HTTP surface and tests.
type Memory struct {
	mu     sync.RWMutex
	last   Frame
	has    bool
	frames int
}

// NewMemory creates an empty memory surface.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Replace(f Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = f
	m.has = true
	m.frames++
	return nil
}

// Last returns the current frame. ok is false before the first render.
func (m *Memory) Last() (f Frame, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.has
}

// Frames counts how many times the surface was replaced.
func (m *Memory) Frames() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frames
}

// Writer re-encodes every frame to an io.Writer.
type Writer struct {
	mu    sync.Mutex
	w     io.Writer
	enc   Encoder
	clear bool
}

// NewWriter creates a surface writing frames to w with enc. When clear is
// set each frame is preceded by an ANSI clear-screen sequence.
func NewWriter(w io.Writer, enc Encoder, clear bool) *Writer {
	return &Writer{w: w, enc: enc, clear: clear}
}

func (s *Writer) Replace(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clear {
		if _, err := io.WriteString(s.w, "\033[H\033[2J"); err != nil {
			return fmt.Errorf("clear surface: %w", err)
		}
	}
	return s.enc.Encode(s.w, f)
}

// Tee replaces every surface in order and returns the first error.
type Tee []Surface

func (t Tee) Replace(f Frame) error {
	var first error
	for _, s := range t {
		if err := s.Replace(f); err != nil && first == nil {
			first = err
		}
	}
	return first
}
