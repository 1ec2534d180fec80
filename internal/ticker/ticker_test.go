package ticker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/abhaya/internal/cache"
	"github.com/ppiankov/abhaya/internal/fetch"
	"github.com/ppiankov/abhaya/internal/news"
	"github.com/ppiankov/abhaya/internal/notify"
	"github.com/ppiankov/abhaya/internal/preload"
	"github.com/ppiankov/abhaya/internal/render"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubFetcher struct {
	mu      sync.Mutex
	calls   int
	items   []news.Item
	err     error
	release chan struct{} // when set, Fetch blocks until closed or ctx done
	started chan struct{}
}

func (s *stubFetcher) Name() string { return "stub" }

func (s *stubFetcher) Fetch(ctx context.Context) ([]news.Item, error) {
	s.mu.Lock()
	s.calls++
	release, started := s.release, s.started
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: stub: %w", fetch.ErrFetchFailed, ctx.Err())
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return news.Clone(s.items), nil
}

func (s *stubFetcher) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// frameLog keeps every frame so tests can inspect the sequence.
type frameLog struct {
	mu     sync.Mutex
	frames []render.Frame
}

func (l *frameLog) Replace(f render.Frame) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = append(l.frames, f)
	return nil
}

func (l *frameLog) All() []render.Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]render.Frame(nil), l.frames...)
}

func (l *frameLog) Last(t *testing.T) render.Frame {
	t.Helper()
	all := l.All()
	if len(all) == 0 {
		t.Fatal("no frame rendered")
	}
	return all[len(all)-1]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ticker *Ticker
	frames *frameLog
	clock  *clock
	toasts *notify.Recorder
}

func newFixture(t *testing.T, f fetch.Fetcher, mutate func(*Options)) fixture {
	t.Helper()
	clk := &clock{now: testNow}
	frames := &frameLog{}
	toasts := &notify.Recorder{}
	opts := Options{
		Fetcher:  f,
		Renderer: render.New(frames).WithClock(clk.Now),
		Cache:    cache.New(cache.DefaultTTL).WithClock(clk.Now),
		Notifier: toasts,
		BaseURL:  "http://backend.test",
		Now:      clk.Now,
	}
	if mutate != nil {
		mutate(&opts)
	}
	tk, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return fixture{ticker: tk, frames: frames, clock: clk, toasts: toasts}
}

func digest() []news.Item {
	return []news.Item{
		{ID: "a", Title: "Fresh", CreatedAt: testNow.Add(-30 * time.Minute), Category: "politics"},
		{ID: "b", Title: "Earlier", CreatedAt: testNow.Add(-6 * time.Hour), Category: "sports"},
		{ID: "c", Title: "Yesterday", CreatedAt: testNow.Add(-20 * time.Hour), Category: "business", URL: "http://portal.test/c"},
	}
}

func frameIDs(f render.Frame) []string {
	ids := make([]string, 0, len(f.Elements))
	for _, el := range f.Elements {
		ids = append(ids, el.ID)
	}
	return ids
}

func equalIDs(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestNew_Validation(t *testing.T) {
	r := render.New(render.NewMemory())
	f := &stubFetcher{}

	tests := []struct {
		name string
		opts Options
	}{
		{"no fetcher", Options{Renderer: r}},
		{"no renderer", Options{Fetcher: f}},
		{"negative interval", Options{Fetcher: f, Renderer: r, Interval: -time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	tk, err := New(Options{Fetcher: f, Renderer: r})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tk.Interval() != DefaultInterval {
		t.Errorf("interval = %v, want %v", tk.Interval(), DefaultInterval)
	}
	if tk.State() != Idle {
		t.Errorf("state = %v, want idle", tk.State())
	}
	if _, ok := tk.Last(); ok {
		t.Error("Last should be empty before any render")
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Loading: "loading", Displayed: "displayed", State(9): "state(9)"} {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
}

func TestShowInstant(t *testing.T) {
	fx := newFixture(t, &stubFetcher{}, nil)
	fx.ticker.ShowInstant()

	got := frameIDs(fx.frames.Last(t))
	if !equalIDs(got, "temp-0", "temp-1", "temp-2", "temp-3") {
		t.Fatalf("instant ids = %v", got)
	}
	if fx.ticker.State() != Displayed {
		t.Errorf("state = %v, want displayed", fx.ticker.State())
	}
	last, ok := fx.ticker.Last()
	if !ok || last.Origin != OriginInstant {
		t.Errorf("last = %+v, want instant origin", last)
	}
}

func TestRefresh_NetworkThenCache(t *testing.T) {
	f := &stubFetcher{items: digest()}
	fx := newFixture(t, f, nil)
	ctx := context.Background()

	c, err := fx.ticker.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if c.Origin != OriginNetwork || f.Calls() != 1 {
		t.Fatalf("first cycle origin=%s calls=%d, want network/1", c.Origin, f.Calls())
	}
	if c.ID == "" {
		t.Error("cycle should carry an id")
	}

	fx.clock.Advance(time.Minute)
	c, _ = fx.ticker.Refresh(ctx)
	if c.Origin != OriginCache || f.Calls() != 1 {
		t.Fatalf("second cycle origin=%s calls=%d, want cache/1", c.Origin, f.Calls())
	}

	fx.clock.Advance(2 * time.Minute)
	c, _ = fx.ticker.Refresh(ctx)
	if c.Origin != OriginNetwork || f.Calls() != 2 {
		t.Fatalf("expired cycle origin=%s calls=%d, want network/2", c.Origin, f.Calls())
	}
	if fx.ticker.FetchCount() != 2 {
		t.Errorf("FetchCount = %d, want 2", fx.ticker.FetchCount())
	}
}

func TestRefresh_DerivesPriorities(t *testing.T) {
	fx := newFixture(t, &stubFetcher{items: digest()}, nil)
	if _, err := fx.ticker.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	frame := fx.frames.Last(t)
	if !equalIDs(frameIDs(frame), "a", "b", "c") {
		t.Fatalf("order = %v, want backend order", frameIDs(frame))
	}
	want := []news.Priority{news.PriorityHigh, news.PriorityMedium, news.PriorityLow}
	for i, el := range frame.Elements {
		if el.Priority != want[i] {
			t.Errorf("%s priority = %s, want %s", el.ID, el.Priority, want[i])
		}
	}
}

func TestRefresh_EmptyDigestShowsPlaceholder(t *testing.T) {
	fx := newFixture(t, &stubFetcher{items: []news.Item{}}, nil)
	c, _ := fx.ticker.Refresh(context.Background())
	if c.Origin != OriginNetwork {
		t.Fatalf("origin = %s, want network", c.Origin)
	}
	frame := fx.frames.Last(t)
	if !frame.Empty() || frame.Placeholder != news.Placeholder {
		t.Fatalf("frame = %+v, want placeholder", frame)
	}
}

func TestRefresh_FailureShowsFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()
	rest, err := fetch.NewREST(ts.URL, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	fx := newFixture(t, rest, nil)
	c, _ := fx.ticker.Refresh(context.Background())

	if c.Origin != OriginFallback {
		t.Fatalf("origin = %s, want fallback", c.Origin)
	}
	if !errors.Is(c.Err, fetch.ErrFetchFailed) {
		t.Errorf("cycle err = %v, want ErrFetchFailed", c.Err)
	}
	if got := frameIDs(fx.frames.Last(t)); !equalIDs(got, "fallback-1", "fallback-2") {
		t.Errorf("frame ids = %v, want fallback set", got)
	}
	if len(fx.toasts.Toasts()) != 0 {
		t.Error("fetch failures must not be toasted")
	}
}

func TestRefresh_TimeoutShowsFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()
	rest, _ := fetch.NewREST(ts.URL, 0, 50*time.Millisecond)

	fx := newFixture(t, rest, nil)
	c, _ := fx.ticker.Refresh(context.Background())
	if c.Origin != OriginFallback {
		t.Fatalf("origin = %s, want fallback", c.Origin)
	}
	if !errors.Is(c.Err, context.DeadlineExceeded) {
		t.Errorf("cycle err = %v, want deadline exceeded", c.Err)
	}
}

func TestRefresh_FailureKeepsNetworkContent(t *testing.T) {
	f := &stubFetcher{items: digest()}
	fx := newFixture(t, f, nil)
	ctx := context.Background()
	if _, err := fx.ticker.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	rendered := len(fx.frames.All())

	f.mu.Lock()
	f.err = fmt.Errorf("%w: stub: offline", fetch.ErrFetchFailed)
	f.mu.Unlock()
	fx.clock.Advance(5 * time.Minute)

	c, _ := fx.ticker.Refresh(ctx)
	if c.Origin != OriginKept {
		t.Fatalf("origin = %s, want kept", c.Origin)
	}
	if len(fx.frames.All()) != rendered {
		t.Error("failed cycle should not redraw the surface")
	}
	if got := frameIDs(fx.frames.Last(t)); !equalIDs(got, "a", "b", "c") {
		t.Errorf("surface = %v, want previous digest", got)
	}
}

func TestRefresh_PreloadConsumedOnce(t *testing.T) {
	pre := &stubFetcher{items: []news.Item{{ID: "p1", Title: "Preloaded", CreatedAt: testNow}}}
	main := &stubFetcher{items: digest()}
	h := preload.Start(context.Background(), pre)

	fx := newFixture(t, main, func(o *Options) { o.Preload = h })
	ctx := context.Background()

	c, _ := fx.ticker.Refresh(ctx)
	if c.Origin != OriginPreload {
		t.Fatalf("origin = %s, want preload", c.Origin)
	}
	if main.Calls() != 0 {
		t.Errorf("fetcher called %d times, want 0", main.Calls())
	}
	if !h.Consumed() {
		t.Error("handle should be consumed")
	}

	// The preload result was cached.
	c, _ = fx.ticker.Refresh(ctx)
	if c.Origin != OriginCache {
		t.Fatalf("origin = %s, want cache", c.Origin)
	}

	fx.clock.Advance(3 * time.Minute)
	c, _ = fx.ticker.Refresh(ctx)
	if c.Origin != OriginNetwork || main.Calls() != 1 {
		t.Fatalf("origin=%s calls=%d, want network/1", c.Origin, main.Calls())
	}
	if pre.Calls() != 1 {
		t.Errorf("preload fetched %d times, want 1", pre.Calls())
	}
}

func TestRefresh_PreloadFailureFallsThrough(t *testing.T) {
	pre := &stubFetcher{err: errors.New("preload down")}
	main := &stubFetcher{items: digest()}
	h := preload.Start(context.Background(), pre)

	fx := newFixture(t, main, func(o *Options) { o.Preload = h })
	c, _ := fx.ticker.Refresh(context.Background())
	if c.Origin != OriginNetwork || main.Calls() != 1 {
		t.Fatalf("origin=%s calls=%d, want network/1", c.Origin, main.Calls())
	}
}

func TestRefresh_SingleFlight(t *testing.T) {
	f := &stubFetcher{
		items:   digest(),
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	fx := newFixture(t, f, nil)
	ctx := context.Background()

	done := make(chan Cycle)
	go func() {
		c, _ := fx.ticker.Refresh(ctx)
		done <- c
	}()
	<-f.started

	if fx.ticker.State() != Loading {
		t.Errorf("state = %v, want loading", fx.ticker.State())
	}
	if _, err := fx.ticker.Refresh(ctx); !errors.Is(err, ErrBusy) {
		t.Fatalf("second refresh err = %v, want ErrBusy", err)
	}

	close(f.release)
	c := <-done
	if c.Origin != OriginNetwork {
		t.Errorf("origin = %s, want network", c.Origin)
	}
	if f.Calls() != 1 {
		t.Errorf("network calls = %d, want 1", f.Calls())
	}
	if fx.ticker.State() != Displayed {
		t.Errorf("state = %v, want displayed", fx.ticker.State())
	}
}

func TestRun_InstantThenCycle(t *testing.T) {
	f := &stubFetcher{items: digest()}
	fx := newFixture(t, f, func(o *Options) { o.Interval = time.Hour })

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- fx.ticker.Run(ctx) }()

	waitFor(t, "network cycle", func() bool {
		c, ok := fx.ticker.Last()
		return ok && c.Origin == OriginNetwork
	})
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run: %v", err)
	}

	frames := fx.frames.All()
	if len(frames) < 2 {
		t.Fatalf("frames = %d, want instant plus digest", len(frames))
	}
	if got := frameIDs(frames[0]); !equalIDs(got, "temp-0", "temp-1", "temp-2", "temp-3") {
		t.Errorf("first frame = %v, want instant content", got)
	}
	if got := frameIDs(frames[len(frames)-1]); !equalIDs(got, "a", "b", "c") {
		t.Errorf("last frame = %v, want digest", got)
	}
}

func TestRun_PeriodicRefresh(t *testing.T) {
	f := &stubFetcher{items: digest()}
	fx := newFixture(t, f, func(o *Options) {
		o.Interval = 5 * time.Millisecond
		o.Cache = cache.New(time.Nanosecond)
		o.Now = time.Now
		o.Renderer = render.New(&frameLog{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- fx.ticker.Run(ctx) }()

	waitFor(t, "three fetches", func() bool { return f.Calls() >= 3 })
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRun_TickDuringLoadingIsNoop(t *testing.T) {
	f := &stubFetcher{items: digest(), release: make(chan struct{})}
	fx := newFixture(t, f, func(o *Options) { o.Interval = 2 * time.Millisecond })

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- fx.ticker.Run(ctx) }()

	waitFor(t, "first fetch", func() bool { return f.Calls() == 1 })
	time.Sleep(30 * time.Millisecond)
	if got := f.Calls(); got != 1 {
		t.Errorf("network calls during loading = %d, want 1", got)
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The cancelled cycle keeps the instant content instead of drawing fallback.
	if got := frameIDs(fx.frames.Last(t)); !equalIDs(got, "temp-0", "temp-1", "temp-2", "temp-3") {
		t.Errorf("surface after shutdown = %v, want instant content", got)
	}
}

type cycleLog struct {
	mu     sync.Mutex
	cycles []Cycle
	err    error
}

func (l *cycleLog) RecordCycle(_ context.Context, c Cycle) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cycles = append(l.cycles, c)
	return l.err
}

func (l *cycleLog) All() []Cycle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Cycle(nil), l.cycles...)
}

func TestRefresh_Records(t *testing.T) {
	rec := &cycleLog{}
	fx := newFixture(t, &stubFetcher{items: digest()}, func(o *Options) { o.Recorder = rec })
	ctx := context.Background()

	fx.ticker.ShowInstant()
	_, _ = fx.ticker.Refresh(ctx)
	_, _ = fx.ticker.Refresh(ctx)

	if len(rec.cycles) != 2 {
		t.Fatalf("recorded %d cycles, want 2", len(rec.cycles))
	}
	if rec.cycles[0].Origin != OriginNetwork || rec.cycles[1].Origin != OriginCache {
		t.Errorf("origins = %s, %s", rec.cycles[0].Origin, rec.cycles[1].Origin)
	}
	if len(rec.cycles[0].Items) != 3 {
		t.Errorf("items = %d, want 3", len(rec.cycles[0].Items))
	}

	rec.err = errors.New("disk full")
	if _, err := fx.ticker.Refresh(ctx); err != nil {
		t.Errorf("recorder failure leaked: %v", err)
	}
}

func TestOpen_Detail(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		detailErr error
		wantErr   bool
		wantToast string
	}{
		{name: "ok", id: "a"},
		{name: "blank id", id: "  ", wantErr: true, wantToast: "Invalid news ID"},
		{name: "backend message", id: "a", detailErr: &fetch.APIError{Status: 404, Message: "News not found"}, wantErr: true, wantToast: "News not found"},
		{name: "backend no message", id: "a", detailErr: &fetch.APIError{Status: 500}, wantErr: true, wantToast: "Failed to fetch news detail"},
		{name: "transport", id: "a", detailErr: errors.New("dial tcp: refused"), wantErr: true, wantToast: "An error occurred while fetching news detail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opened []string
			fx := newFixture(t, &stubFetcher{}, func(o *Options) {
				o.Detail = func(_ context.Context, id string) error {
					opened = append(opened, id)
					return tt.detailErr
				}
			})

			err := fx.ticker.Open(context.Background(), tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			toasts := fx.toasts.Toasts()
			if tt.wantToast == "" {
				if len(toasts) != 0 {
					t.Errorf("unexpected toasts %+v", toasts)
				}
				if len(opened) != 1 || opened[0] != tt.id {
					t.Errorf("opened = %v", opened)
				}
				return
			}
			if len(toasts) != 1 || toasts[0].Message != tt.wantToast || toasts[0].Kind != notify.Error {
				t.Errorf("toasts = %+v, want %q", toasts, tt.wantToast)
			}
		})
	}
}

func TestOpen_Navigate(t *testing.T) {
	var visited []string
	fx := newFixture(t, &stubFetcher{items: digest()}, func(o *Options) {
		o.Navigate = func(url string) error {
			visited = append(visited, url)
			return nil
		}
	})
	ctx := context.Background()
	if _, err := fx.ticker.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"c", "a", "unknown id"} {
		if err := fx.ticker.Open(ctx, id); err != nil {
			t.Fatalf("Open(%q): %v", id, err)
		}
	}
	want := []string{
		"http://portal.test/c",
		"http://backend.test/api/news/a",
		"http://backend.test/api/news/unknown%20id",
	}
	if len(visited) != len(want) {
		t.Fatalf("visited = %v", visited)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %q, want %q", i, visited[i], want[i])
		}
	}
}

func TestOpen_NavigateFailure(t *testing.T) {
	fx := newFixture(t, &stubFetcher{}, func(o *Options) {
		o.Navigate = func(string) error { return errors.New("no browser") }
	})
	if err := fx.ticker.Open(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if toasts := fx.toasts.Toasts(); len(toasts) != 1 {
		t.Errorf("toasts = %+v, want one", toasts)
	}
}

func TestOpen_NoCapability(t *testing.T) {
	fx := newFixture(t, &stubFetcher{}, nil)
	if err := fx.ticker.Open(context.Background(), "x"); err == nil {
		t.Fatal("expected error without detail or navigation")
	}
}

func TestTrigger(t *testing.T) {
	f := &stubFetcher{items: digest(), release: make(chan struct{})}
	fx := newFixture(t, f, nil)
	ctx := context.Background()

	if err := fx.ticker.Trigger(ctx); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	waitFor(t, "fetch start", func() bool { return f.Calls() == 1 })

	if err := fx.ticker.Trigger(ctx); !errors.Is(err, ErrBusy) {
		t.Fatalf("second Trigger err = %v, want ErrBusy", err)
	}
	if _, err := fx.ticker.Refresh(ctx); !errors.Is(err, ErrBusy) {
		t.Fatalf("Refresh during Trigger err = %v, want ErrBusy", err)
	}

	close(f.release)
	waitFor(t, "cycle end", func() bool {
		c, ok := fx.ticker.Last()
		return ok && c.Origin == OriginNetwork && fx.ticker.State() == Displayed
	})
	waitFor(t, "guard release", func() bool { return fx.ticker.Trigger(ctx) == nil })
}

func TestRun_WaitsForTriggeredCycle(t *testing.T) {
	f := &stubFetcher{items: digest()}
	rec := &cycleLog{}
	fx := newFixture(t, f, func(o *Options) {
		o.Interval = time.Hour
		o.Recorder = rec
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- fx.ticker.Run(ctx) }()

	waitFor(t, "first cycle", func() bool { return len(rec.All()) == 1 })

	release := make(chan struct{})
	f.mu.Lock()
	f.release = release
	f.mu.Unlock()
	fx.clock.Advance(cache.DefaultTTL + time.Second)

	if err := fx.ticker.Trigger(context.WithoutCancel(ctx)); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	waitFor(t, "triggered fetch", func() bool { return f.Calls() == 2 })
	cancel()

	select {
	case err := <-errCh:
		t.Fatalf("Run returned with a cycle in flight: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if err := <-errCh; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(rec.All()); got != 2 {
		t.Fatalf("recorded cycles = %d, want 2", got)
	}
	if c := rec.All()[1]; c.Origin != OriginNetwork {
		t.Errorf("triggered cycle origin = %q, want network", c.Origin)
	}

	if err := fx.ticker.Trigger(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Trigger after Run err = %v, want ErrStopped", err)
	}
	if _, err := fx.ticker.Refresh(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Refresh after Run err = %v, want ErrStopped", err)
	}
}
