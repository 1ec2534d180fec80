package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ppiankov/abhaya/internal/store"
	"github.com/ppiankov/abhaya/internal/ticker"
)

var (
	historySince  string
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show refresh cycles and headlines the ticker displayed",
	RunE:  historyAction,
}

func init() {
	historyCmd.Flags().StringVar(&historySince, "since", "7d", "time window (e.g. 7d, 48h)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "max headlines to list")
	historyCmd.Flags().StringVar(&historyFormat, "format", "terminal", "output format: terminal, json")
	rootCmd.AddCommand(historyCmd)
}

// history is everything one report shows.
type history struct {
	Since  time.Duration
	Stats  []store.OriginStats
	Items  []store.Item
	Cycles []store.CycleRecord
}

func historyAction(cmd *cobra.Command, _ []string) error {
	sinceDur, err := parseDuration(historySince)
	if err != nil {
		return fmt.Errorf("parse --since: %w", err)
	}
	if historyFormat != "terminal" && historyFormat != "" && historyFormat != "json" {
		return fmt.Errorf("unknown format %q (want terminal or json)", historyFormat)
	}

	ctx := commandContext(cmd)
	a, err := newApp(ctx, appOptions{store: true})
	if err != nil {
		return err
	}
	defer a.Close()
	if a.store == nil {
		return errors.New("history storage is disabled (storage.disabled: true)")
	}

	sinceTime := time.Now().Add(-sinceDur)
	h := history{Since: sinceDur}

	if h.Stats, err = a.store.OriginStats(ctx, sinceTime); err != nil {
		return fmt.Errorf("get origin stats: %w", err)
	}
	if h.Items, err = a.store.RecentItems(ctx, sinceTime, historyLimit); err != nil {
		return fmt.Errorf("get recent items: %w", err)
	}
	if h.Cycles, err = a.store.RecentCycles(ctx, 5); err != nil {
		return fmt.Errorf("get recent cycles: %w", err)
	}

	out := cmd.OutOrStdout()
	if historyFormat == "json" {
		return printHistoryJSON(out, h)
	}
	printHistory(out, h)
	return nil
}

type jsonHistory struct {
	SinceHours   float64           `json:"since_hours"`
	Origins      []jsonOriginStats `json:"origins"`
	FallbackRate float64           `json:"fallback_pct"`
	Items        []jsonHistoryItem `json:"items"`
}

type jsonOriginStats struct {
	Origin        string `json:"origin"`
	Cycles        int    `json:"cycles"`
	Failures      int    `json:"failures"`
	Items         int    `json:"items"`
	AvgDurationMS int64  `json:"avg_duration_ms"`
	LastSeen      string `json:"last_seen"`
}

type jsonHistoryItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category,omitempty"`
	Priority  string `json:"priority"`
	FirstSeen string `json:"first_seen"`
	LastSeen  string `json:"last_seen"`
	SeenCount int    `json:"seen_count"`
}

func printHistoryJSON(w io.Writer, h history) error {
	out := jsonHistory{
		SinceHours:   h.Since.Hours(),
		Origins:      make([]jsonOriginStats, 0, len(h.Stats)),
		FallbackRate: degradedPct(h.Stats),
		Items:        make([]jsonHistoryItem, 0, len(h.Items)),
	}
	for _, s := range h.Stats {
		out.Origins = append(out.Origins, jsonOriginStats{
			Origin:        string(s.Origin),
			Cycles:        s.Cycles,
			Failures:      s.Failures,
			Items:         s.Items,
			AvgDurationMS: s.AvgDuration.Milliseconds(),
			LastSeen:      s.LastSeen.UTC().Format(time.RFC3339),
		})
	}
	for _, it := range h.Items {
		out.Items = append(out.Items, jsonHistoryItem{
			ID:        it.ID,
			Title:     it.Title,
			Category:  it.Category,
			Priority:  string(it.Priority),
			FirstSeen: it.FirstSeen.UTC().Format(time.RFC3339),
			LastSeen:  it.LastSeen.UTC().Format(time.RFC3339),
			SeenCount: it.SeenCount,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printHistory(w io.Writer, h history) {
	total := 0
	for _, s := range h.Stats {
		total += s.Cycles
	}

	if total == 0 && len(h.Items) == 0 {
		fmt.Fprintln(w, "No history yet. Run 'abhaya ticker' or 'abhaya serve' first.")
		return
	}

	fmt.Fprintf(w, "abhaya history: %s, %d cycles, %d headlines\n\n", formatStatsDuration(h.Since), total, len(h.Items))

	fmt.Fprintln(w, "--- Cycles by Origin ---")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-8s  %6s  %8s  %6s  %8s  %s\n", "Origin", "Cycles", "Failures", "Items", "Avg", "Last")
	for _, s := range h.Stats {
		fmt.Fprintf(w, "  %-8s  %6d  %8d  %6d  %8s  %s\n",
			s.Origin, s.Cycles, s.Failures, s.Items, s.AvgDuration.Round(time.Millisecond), humanize.Time(s.LastSeen))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Degraded:  %.1f%% of cycles showed fallback or stale content\n", degradedPct(h.Stats))
	fmt.Fprintln(w)

	if len(h.Cycles) > 0 {
		fmt.Fprintln(w, "--- Latest Cycles ---")
		fmt.Fprintln(w)
		for _, c := range h.Cycles {
			line := fmt.Sprintf("  %s  %-8s  %d items  %s", c.StartedAt.Local().Format("2006-01-02 15:04:05"), c.Origin, c.ItemCount, c.Duration.Round(time.Millisecond))
			if c.Error != "" {
				line += "  error: " + c.Error
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
	}

	if len(h.Items) > 0 {
		fmt.Fprintln(w, "--- Recent Headlines ---")
		fmt.Fprintln(w)
		for _, it := range h.Items {
			meta := fmt.Sprintf("seen %dx, last %s", it.SeenCount, humanize.Time(it.LastSeen))
			if it.Category != "" {
				meta = it.Category + ", " + meta
			}
			fmt.Fprintf(w, "  [%-6s] %s (%s)\n", it.Priority, it.Title, meta)
		}
		fmt.Fprintln(w)
	}
}

// degradedPct is the share of cycles that did not show fresh backend data.
func degradedPct(stats []store.OriginStats) float64 {
	total, degraded := 0, 0
	for _, s := range stats {
		total += s.Cycles
		if s.Origin == ticker.OriginFallback || s.Origin == ticker.OriginKept {
			degraded += s.Cycles
		}
	}
	return pct(degraded, total)
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// parseDuration handles both Go durations and "Nd" day notation.
func parseDuration(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func formatStatsDuration(d time.Duration) string {
	hours := int(d.Hours())
	if hours >= 24 && hours%24 == 0 {
		return fmt.Sprintf("%d days", hours/24)
	}
	return fmt.Sprintf("%dh", hours)
}
