package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/abhaya/internal/notify"
	"github.com/ppiankov/abhaya/internal/render"
	"github.com/ppiankov/abhaya/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ticker and serve its frame over HTTP",
	RunE:  serveAction,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides server.listen)")
	rootCmd.AddCommand(serveCmd)
}

func serveAction(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{preload: true, store: true})
	if err != nil {
		return err
	}
	defer a.Close()

	frames := render.NewMemory()
	tk, err := a.newTicker(frames, notify.NewLog(a.logger), nil)
	if err != nil {
		return fmt.Errorf("create ticker: %w", err)
	}

	opts := server.Options{
		Ticker:      tk,
		Frames:      frames,
		Logger:      a.logger,
		RefreshRate: a.cfg.Server.RefreshRate,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}
	if a.store != nil {
		opts.Health = a.store.Ping
	}
	srv, err := server.New(opts)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	listen := a.cfg.Server.Listen
	if serveListen != "" {
		listen = serveListen
	}

	a.logger.Info("starting",
		zap.String("version", Version),
		zap.String("source", a.fetcher.Name()),
		zap.String("listen", listen),
		zap.Duration("refresh_every", tk.Interval()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return tk.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx, listen) })

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("stopped")
	return nil
}
