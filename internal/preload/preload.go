// Package preload starts a speculative digest fetch at bootstrap and hands
// its result to the first consumer that asks for it.
package preload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ppiankov/abhaya/internal/fetch"
	"github.com/ppiankov/abhaya/internal/news"
)

// ErrNoData is returned when the handle has been consumed, or the preload
// fetch failed or came back empty.
var ErrNoData = errors.New("preload: no data")

type result struct {
	items []news.Item
	err   error
}

// Handle is a one-shot carrier for a fetch started before any consumer exists.
// A nil *Handle behaves like an already consumed one.
type Handle struct {
	done chan struct{}
	res  result

	mu       sync.Mutex
	consumed bool
}

// Start begins one fetch in the background and returns immediately. The
// fetch runs under ctx, so cancelling ctx abandons it.
func Start(ctx context.Context, f fetch.Fetcher) *Handle {
	h := &Handle{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		items, err := f.Fetch(ctx)
		h.res = result{items: items, err: err}
	}()
	return h
}

// Take waits for the preload and returns its items. Only the first call can
// receive data; every later call returns ErrNoData without waiting.
func (h *Handle) Take(ctx context.Context) ([]news.Item, error) {
	if h == nil {
		return nil, ErrNoData
	}

	h.mu.Lock()
	if h.consumed {
		h.mu.Unlock()
		return nil, ErrNoData
	}
	h.consumed = true
	h.mu.Unlock()

	select {
	case <-h.done:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrNoData, ctx.Err())
	}

	if h.res.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoData, h.res.err)
	}
	if len(h.res.items) == 0 {
		return nil, ErrNoData
	}
	return news.Clone(h.res.items), nil
}

// Consumed reports whether Take has been called.
func (h *Handle) Consumed() bool {
	if h == nil {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.consumed
}
