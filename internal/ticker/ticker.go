// Package ticker runs the breaking-news widget: it shows instant content,
// refreshes the digest on a cadence and never leaves the surface empty.
//
// A refresh cycle takes the first usable digest from, in order: the cache
// (while fresh), the bootstrap preload (once), and a direct fetch. When all
// of them fail the previously shown network content stays up, or the fixed
// fallback set is drawn if there is none. Errors from these steps never
// reach the user.
package ticker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/abhaya/internal/cache"
	"github.com/ppiankov/abhaya/internal/fetch"
	"github.com/ppiankov/abhaya/internal/news"
	"github.com/ppiankov/abhaya/internal/notify"
	"github.com/ppiankov/abhaya/internal/preload"
	"github.com/ppiankov/abhaya/internal/render"
)

// DefaultInterval is the time between periodic refreshes.
const DefaultInterval = 5 * time.Minute

// recordTimeout bounds writing one cycle to the recorder.
const recordTimeout = 5 * time.Second

var (
	// ErrBusy is returned by Refresh while another cycle is loading.
	ErrBusy = errors.New("ticker: refresh already in progress")
	// ErrInvalidID is returned by Open for a blank item id.
	ErrInvalidID = errors.New("ticker: invalid news id")
	// ErrStopped is returned by Refresh and Trigger once Run has returned.
	ErrStopped = errors.New("ticker: stopped")
)

// State is the scheduler state.
type State int32

const (
	Idle State = iota
	Loading
	Displayed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Displayed:
		return "displayed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Origin says where the content shown by a cycle came from.
type Origin string

const (
	OriginInstant  Origin = "instant"
	OriginCache    Origin = "cache"
	OriginPreload  Origin = "preload"
	OriginNetwork  Origin = "network"
	OriginFallback Origin = "fallback"
	// OriginKept means the cycle failed and the previous content stayed up.
	OriginKept Origin = "kept"
)

// Cycle describes one completed refresh.
type Cycle struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Origin   Origin
	Items    []news.Item
	Err      error // fetch failure behind a fallback or kept cycle
}

// Recorder persists completed cycles.
type Recorder interface {
	RecordCycle(ctx context.Context, c Cycle) error
}

// DetailFunc shows an item's detail in the host. It is the preferred
// "open item" path.
type DetailFunc func(ctx context.Context, id string) error

// NavigateFunc sends the user to a URL. Used when no DetailFunc is set.
type NavigateFunc func(url string) error

// Options wires a Ticker. Fetcher and Renderer are required.
type Options struct {
	Fetcher  fetch.Fetcher
	Renderer *render.Renderer
	Cache    *cache.Cache    // nil: a fresh cache with the default window
	Preload  *preload.Handle // nil: no preload
	Notifier notify.Notifier // nil: discard
	Recorder Recorder        // nil: cycles are not persisted
	Logger   *zap.Logger     // nil: no logging
	Interval time.Duration   // zero: DefaultInterval

	// BaseURL roots detail links ("<base>/api/news/<id>").
	BaseURL  string
	Detail   DetailFunc
	Navigate NavigateFunc

	Now func() time.Time
}

// Ticker owns one widget's cache, preload handle and refresh state.
type Ticker struct {
	fetcher  fetch.Fetcher
	renderer *render.Renderer
	cache    *cache.Cache
	preload  *preload.Handle
	notifier notify.Notifier
	recorder Recorder
	logger   *zap.Logger
	interval time.Duration
	baseURL  string
	detail   DetailFunc
	navigate NavigateFunc
	now      func() time.Time

	loading atomic.Bool
	state   atomic.Int32

	// flightMu orders inflight.Add against the Wait in stop.
	flightMu sync.Mutex
	stopped  bool
	inflight sync.WaitGroup

	mu        sync.Mutex
	current   []news.Item // items on the surface
	hasReal   bool        // current came from backend data
	last      Cycle
	hasCycle  bool
	fetchHits int
}

// New validates opts and creates an idle ticker.
func New(opts Options) (*Ticker, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("ticker: fetcher is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("ticker: renderer is required")
	}
	if opts.Interval < 0 {
		return nil, errors.New("ticker: interval must not be negative")
	}

	t := &Ticker{
		fetcher:  opts.Fetcher,
		renderer: opts.Renderer,
		cache:    opts.Cache,
		preload:  opts.Preload,
		notifier: opts.Notifier,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		interval: opts.Interval,
		baseURL:  opts.BaseURL,
		detail:   opts.Detail,
		navigate: opts.Navigate,
		now:      opts.Now,
	}
	if t.cache == nil {
		t.cache = cache.New(cache.DefaultTTL)
	}
	if t.notifier == nil {
		t.notifier = notify.Discard
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	t.logger = t.logger.Named("ticker")
	if t.interval == 0 {
		t.interval = DefaultInterval
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t, nil
}

// State returns the current scheduler state.
func (t *Ticker) State() State {
	return State(t.state.Load())
}

// Last returns the most recent cycle. ok is false before the instant render.
func (t *Ticker) Last() (c Cycle, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.hasCycle
}

// Interval returns the refresh cadence.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Run shows the instant content, starts the first cycle in the background
// and then refreshes every interval until ctx is done. Before returning it
// waits for the in-flight cycle, including one started by Trigger, and
// rejects new ones with ErrStopped.
func (t *Ticker) Run(ctx context.Context) error {
	t.flightMu.Lock()
	t.stopped = false
	t.flightMu.Unlock()

	t.ShowInstant()

	refresh := func() {
		if err := t.Trigger(ctx); errors.Is(err, ErrBusy) {
			t.logger.Debug("tick skipped, cycle in progress")
		}
	}

	refresh()

	tick := time.NewTicker(t.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			t.stop()
			return nil
		case <-tick.C:
			refresh()
		}
	}
}

// begin takes the loading guard and registers the cycle as in flight.
func (t *Ticker) begin() error {
	t.flightMu.Lock()
	defer t.flightMu.Unlock()
	if t.stopped {
		return ErrStopped
	}
	if !t.loading.CompareAndSwap(false, true) {
		return ErrBusy
	}
	t.inflight.Add(1)
	return nil
}

func (t *Ticker) end() {
	t.loading.Store(false)
	t.inflight.Done()
}

// stop rejects new cycles and waits for the one in flight.
func (t *Ticker) stop() {
	t.flightMu.Lock()
	t.stopped = true
	t.flightMu.Unlock()
	t.inflight.Wait()
}

// ShowInstant draws the built-in headlines. It covers the gap before the
// first cycle finishes.
func (t *Ticker) ShowInstant() {
	now := t.now()
	items := news.Instant(now)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.renderer.Render(items); err != nil {
		t.logger.Warn("render instant content", zap.Error(err))
	}
	t.current = items
	t.last = Cycle{ID: uuid.NewString(), Started: now, Origin: OriginInstant, Items: items}
	t.hasCycle = true
	t.state.CompareAndSwap(int32(Idle), int32(Displayed))
}

// Refresh runs one cycle now. It returns ErrBusy without doing anything
// when a cycle is already loading, and ErrStopped once Run has returned.
func (t *Ticker) Refresh(ctx context.Context) (Cycle, error) {
	if err := t.begin(); err != nil {
		return Cycle{}, err
	}
	defer t.end()
	return t.cycle(ctx), nil
}

// Trigger starts a cycle in the background and returns at once. It returns
// ErrBusy when a cycle is already loading.
func (t *Ticker) Trigger(ctx context.Context) error {
	if err := t.begin(); err != nil {
		return err
	}
	go func() {
		defer t.end()
		t.cycle(ctx)
	}()
	return nil
}

// cycle must be called with the loading guard held.
func (t *Ticker) cycle(ctx context.Context) Cycle {
	t.state.Store(int32(Loading))
	c := t.load(ctx)
	t.state.Store(int32(Displayed))

	t.record(ctx, c)
	return c
}

func (t *Ticker) load(ctx context.Context) Cycle {
	started := t.now()
	c := Cycle{ID: uuid.NewString(), Started: started}

	items, origin, err := t.acquire(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case err == nil:
		items = news.WithPriorities(items, t.now())
		t.show(items)
		t.hasReal = true
		c.Origin = origin
		c.Items = items
		t.logger.Debug("digest displayed", zap.String("origin", string(origin)), zap.Int("items", len(items)))
	case t.hasReal || ctx.Err() != nil:
		c.Origin = OriginKept
		c.Items = news.Clone(t.current)
		c.Err = err
		t.logger.Warn("digest refresh failed, keeping current content", zap.Error(err))
	default:
		fb := news.Fallback(t.now())
		t.show(fb)
		c.Origin = OriginFallback
		c.Items = fb
		c.Err = err
		t.logger.Warn("digest refresh failed, showing fallback", zap.Error(err))
	}

	c.Duration = t.now().Sub(started)
	t.last = c
	t.hasCycle = true
	return c
}

// show must be called with t.mu held.
func (t *Ticker) show(items []news.Item) {
	if err := t.renderer.Render(items); err != nil {
		t.logger.Warn("render digest", zap.Error(err))
	}
	t.current = items
}

// acquire walks cache, preload and fetcher in order.
func (t *Ticker) acquire(ctx context.Context) ([]news.Item, Origin, error) {
	if items, err := t.cache.Read(); err == nil {
		return items, OriginCache, nil
	}

	if t.preload != nil && !t.preload.Consumed() {
		items, err := t.preload.Take(ctx)
		if err == nil {
			t.cache.Write(items)
			return items, OriginPreload, nil
		}
		t.logger.Debug("preload unavailable", zap.Error(err))
	}

	items, err := t.fetcher.Fetch(ctx)
	t.mu.Lock()
	t.fetchHits++
	t.mu.Unlock()
	if err != nil {
		return nil, "", err
	}
	t.cache.Write(items)
	return items, OriginNetwork, nil
}

// FetchCount reports how many direct fetches this ticker has made.
func (t *Ticker) FetchCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fetchHits
}

func (t *Ticker) record(ctx context.Context, c Cycle) {
	if t.recorder == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := t.recorder.RecordCycle(rctx, c); err != nil {
		t.logger.Warn("record cycle", zap.String("cycle", c.ID), zap.Error(err))
	}
}

// Current returns the items on the surface.
func (t *Ticker) Current() []news.Item {
	t.mu.Lock()
	defer t.mu.Unlock()
	return news.Clone(t.current)
}

// DetailTarget is the URL "open item" navigates to for id: the item's own
// link when it has one, otherwise the backend detail endpoint.
func (t *Ticker) DetailTarget(id string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, it := range t.current {
		if it.ID == id && it.URL != "" {
			return it.URL
		}
	}
	return fetch.DetailURL(t.baseURL, id)
}

// Open dispatches "open item" for id. Failures are reported to the
// notifier and returned.
func (t *Ticker) Open(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		t.notifier.Notify(notify.New(notify.Error, "Invalid news ID"))
		return ErrInvalidID
	}

	t.logger.Info("opening article", zap.String("id", id))

	if t.detail != nil {
		if err := t.detail(ctx, id); err != nil {
			t.notifier.Notify(notify.New(notify.Error, detailMessage(err)))
			return fmt.Errorf("open %s: %w", id, err)
		}
		return nil
	}

	if t.navigate == nil {
		return fmt.Errorf("open %s: no detail or navigation capability", id)
	}
	target := t.DetailTarget(id)
	if err := t.navigate(target); err != nil {
		t.notifier.Notify(notify.New(notify.Error, "Could not open "+target))
		return fmt.Errorf("open %s: %w", id, err)
	}
	return nil
}

func detailMessage(err error) string {
	var apiErr *fetch.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.As(err, &apiErr) {
		return "Failed to fetch news detail"
	}
	return "An error occurred while fetching news detail"
}
