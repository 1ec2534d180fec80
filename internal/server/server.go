// Package server exposes the ticker's current frame over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ppiankov/abhaya/internal/render"
	"github.com/ppiankov/abhaya/internal/ticker"
)

const shutdownTimeout = 10 * time.Second

// Ticker is the part of *ticker.Ticker the server drives.
type Ticker interface {
	State() ticker.State
	Last() (ticker.Cycle, bool)
	Trigger(ctx context.Context) error
	DetailTarget(id string) string
}

// Options configures a Server. Ticker and Frames are required.
type Options struct {
	Ticker Ticker
	Frames *render.Memory
	Logger *zap.Logger
	// RefreshRate caps manual refreshes per second. Zero disables the cap.
	RefreshRate float64
	// CORSOrigins lists allowed origins. Empty allows any origin.
	CORSOrigins []string
	// Health is an extra readiness probe, for example a store ping.
	Health func(ctx context.Context) error
	Now    func() time.Time
}

type Server struct {
	ticker  Ticker
	frames  *render.Memory
	logger  *zap.Logger
	limiter *rate.Limiter
	health  func(ctx context.Context) error
	now     func() time.Time
	engine  *gin.Engine

	mu      sync.Mutex
	baseCtx context.Context
}

// New builds the router.
func New(opts Options) (*Server, error) {
	if opts.Ticker == nil {
		return nil, errors.New("server: ticker is required")
	}
	if opts.Frames == nil {
		return nil, errors.New("server: frame surface is required")
	}

	s := &Server{
		ticker:  opts.Ticker,
		frames:  opts.Frames,
		logger:  opts.Logger,
		health:  opts.Health,
		now:     opts.Now,
		baseCtx: context.Background(),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("http")
	if s.now == nil {
		s.now = time.Now
	}

	limit := rate.Inf
	if opts.RefreshRate > 0 {
		limit = rate.Limit(opts.RefreshRate)
	}
	s.limiter = rate.NewLimiter(limit, 1)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.Use(securityHeaders())

	r.GET("/healthz", s.handleHealth)
	r.GET("/ticker", s.handleHTML)
	r.GET("/ticker.json", s.handleJSON)
	r.POST("/ticker/refresh", s.handleRefresh)
	r.GET("/ticker/open/:id", s.handleOpen)

	s.engine = r
	return s, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
// Refreshes started over HTTP run under ctx.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) cycleCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

func (s *Server) currentFrame() render.Frame {
	if f, ok := s.frames.Last(); ok {
		return f
	}
	return render.BuildFrame(nil, s.now())
}

func (s *Server) handleHTML(c *gin.Context) {
	var buf bytes.Buffer
	if err := render.NewHTML().Encode(&buf, s.currentFrame()); err != nil {
		s.logger.Error("encode html frame", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

type cycleView struct {
	ID         string `json:"id"`
	Origin     string `json:"origin"`
	StartedAt  string `json:"started_at"`
	DurationMS int64  `json:"duration_ms"`
	Items      int    `json:"items"`
	Error      string `json:"error,omitempty"`
}

type tickerView struct {
	State     string          `json:"state"`
	Frame     json.RawMessage `json:"frame"`
	LastCycle *cycleView      `json:"last_cycle,omitempty"`
}

func (s *Server) handleJSON(c *gin.Context) {
	var buf bytes.Buffer
	if err := render.NewJSON().Encode(&buf, s.currentFrame()); err != nil {
		s.logger.Error("encode json frame", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}

	view := tickerView{
		State: s.ticker.State().String(),
		Frame: json.RawMessage(bytes.TrimSpace(buf.Bytes())),
	}
	if last, ok := s.ticker.Last(); ok {
		cv := &cycleView{
			ID:         last.ID,
			Origin:     string(last.Origin),
			StartedAt:  last.Started.UTC().Format(time.RFC3339),
			DurationMS: last.Duration.Milliseconds(),
			Items:      len(last.Items),
		}
		if last.Err != nil {
			cv.Error = last.Err.Error()
		}
		view.LastCycle = cv
	}

	c.Header("Cache-Control", "no-cache")
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleRefresh(c *gin.Context) {
	if !s.limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "refresh rate limit exceeded"})
		return
	}

	err := s.ticker.Trigger(context.WithoutCancel(s.cycleCtx()))
	switch {
	case errors.Is(err, ticker.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "refresh already in progress"})
	case errors.Is(err, ticker.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ticker is shutting down"})
	case err != nil:
		s.logger.Error("trigger refresh", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
	default:
		c.JSON(http.StatusAccepted, gin.H{"status": "refreshing"})
	}
}

func (s *Server) handleOpen(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid news ID"})
		return
	}
	c.Redirect(http.StatusFound, s.ticker.DetailTarget(id))
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{"status": "ok", "state": s.ticker.State().String()}
	if last, ok := s.ticker.Last(); ok {
		body["last_origin"] = string(last.Origin)
	}
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			body["status"] = "degraded"
			body["error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}
	c.JSON(http.StatusOK, body)
}
