package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/abhaya/internal/config"
	"github.com/ppiankov/abhaya/internal/fetch"
	"github.com/ppiankov/abhaya/internal/store"
)

// degradedWarnPct flags a backend that fails in more than this share of cycles.
const degradedWarnPct = 20

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, storage and backend reachability",
	RunE:  doctorAction,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func doctorAction(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	ctx := commandContext(cmd)
	ok := true

	// Config dir
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		printInfo(out, "config directory %s missing, using defaults (run 'abhaya init')", configDir)
	} else {
		printCheck(out, true, "config directory %s", configDir)
	}

	// Config file
	cfg, err := config.Load(configDir)
	if err != nil {
		printCheck(out, false, "config: %v", err)
		return fmt.Errorf("some checks failed")
	}
	printCheck(out, true, "config (source %s, refresh every %s, timeout %s)",
		cfg.Ticker.Source, cfg.Ticker.RefreshEvery.Duration, cfg.Ticker.Timeout.Duration)

	// Database
	var db *store.Store
	if cfg.Storage.Disabled {
		printInfo(out, "history storage disabled")
	} else {
		db, err = store.Open(cfg.Storage.Path)
		if err != nil {
			printCheck(out, false, "database: %v", err)
			ok = false
		} else {
			defer func() { _ = db.Close() }()
			printCheck(out, true, "database %s", cfg.Storage.Path)
		}
	}

	// Digest endpoint
	f, err := newFetcher(cfg)
	if err != nil {
		printCheck(out, false, "fetcher: %v", err)
		ok = false
	} else if !checkDigest(ctx, out, f, cfg) {
		ok = false
	}

	// History health (info-level, non-fatal)
	if db != nil {
		checkHistoryHealth(ctx, out, db)
	}

	if !ok {
		return fmt.Errorf("some checks failed")
	}
	fmt.Fprintln(out, "\nAll checks passed.")
	return nil
}

func checkDigest(ctx context.Context, out io.Writer, f fetch.Fetcher, cfg *config.Config) bool {
	target := cfg.Backend.DigestURL()
	if cfg.Ticker.Source == "rss" {
		target = cfg.Ticker.FeedURL
	}

	start := time.Now()
	items, err := f.Fetch(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		printCheck(out, false, "%s digest %s: %v", f.Name(), target, err)
		return false
	}
	printCheck(out, true, "%s digest %s (%d items in %s)", f.Name(), target, len(items), elapsed)
	if len(items) == 0 {
		printInfo(out, "digest is empty, the ticker will show the welcome placeholder")
	}
	return true
}

func checkHistoryHealth(ctx context.Context, out io.Writer, db *store.Store) {
	stats, err := db.OriginStats(ctx, time.Now().Add(-24*time.Hour))
	if err != nil || len(stats) == 0 {
		return // no data yet, skip
	}

	fmt.Fprintln(out)
	if p := degradedPct(stats); p > degradedWarnPct {
		printInfo(out, "degraded: %.0f%% of cycles in the last 24h showed fallback or stale content", p)
	}
	for _, s := range stats {
		if s.AvgDuration > fetch.DefaultTimeout/2 && s.Failures > 0 {
			printInfo(out, "slow %s cycles: average %s", s.Origin, s.AvgDuration.Round(time.Millisecond))
		}
	}
}

func printCheck(w io.Writer, pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Fprintf(w, "[%s] %s\n", mark, fmt.Sprintf(format, args...))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "[INFO] %s\n", fmt.Sprintf(format, args...))
}
