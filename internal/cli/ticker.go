package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/abhaya/internal/notify"
	"github.com/ppiankov/abhaya/internal/render"
	"github.com/ppiankov/abhaya/internal/ticker"
)

var (
	tickerOnce    bool
	tickerFormat  string
	tickerNoColor bool
	tickerEvery   string
)

var tickerCmd = &cobra.Command{
	Use:   "ticker",
	Short: "Show the breaking-news ticker in the terminal",
	Long: "ticker draws instant headlines at once, then the latest digest, and redraws on every refresh. " +
		"With --once it prints a single digest and exits.",
	RunE: tickerAction,
}

func init() {
	tickerCmd.Flags().BoolVar(&tickerOnce, "once", false, "print one digest and exit")
	tickerCmd.Flags().StringVar(&tickerFormat, "format", "terminal", "output format: terminal, json, html")
	tickerCmd.Flags().BoolVar(&tickerNoColor, "no-color", false, "disable ANSI colors")
	tickerCmd.Flags().StringVar(&tickerEvery, "every", "", "override the refresh interval (e.g. 1m)")
	rootCmd.AddCommand(tickerCmd)
}

func tickerAction(cmd *cobra.Command, _ []string) error {
	every, err := parseRunEvery(tickerEvery)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tty := isTerminal(out)
	enc, ok := render.ByName(tickerFormat, tty && !tickerNoColor)
	if !ok {
		return fmt.Errorf("unknown format %q (want terminal, json or html)", tickerFormat)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{preload: !tickerOnce, store: true})
	if err != nil {
		return err
	}
	defer a.Close()

	clear := !tickerOnce && tty && (tickerFormat == "terminal" || tickerFormat == "")
	surface := render.NewWriter(out, enc, clear)

	tk, err := a.newTicker(surface, notify.NewLog(a.logger), func(o *ticker.Options) {
		if every > 0 {
			o.Interval = every
		}
	})
	if err != nil {
		return fmt.Errorf("create ticker: %w", err)
	}

	if tickerOnce {
		if _, err := tk.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		return nil
	}
	return tk.Run(ctx)
}

// parseRunEvery parses --every. Empty means "use config".
func parseRunEvery(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	interval, err := parseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse --every: %w", err)
	}
	if interval <= 0 {
		return 0, errors.New("--every must be greater than zero")
	}
	return interval, nil
}
