package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ppiankov/abhaya/internal/browser"
	"github.com/ppiankov/abhaya/internal/fetch"
	"github.com/ppiankov/abhaya/internal/notify"
	"github.com/ppiankov/abhaya/internal/render"
	"github.com/ppiankov/abhaya/internal/ticker"
)

var openInBrowser bool

// openURL is swapped in tests.
var openURL = browser.Open

var openCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Show the full article behind a ticker item",
	Args:  cobra.ExactArgs(1),
	RunE:  openAction,
}

func init() {
	openCmd.Flags().BoolVar(&openInBrowser, "browser", false, "open the article link in a browser instead of printing it")
	rootCmd.AddCommand(openCmd)
}

func openAction(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	backend := a.cfg.Backend.URL

	tk, err := a.newTicker(render.NewMemory(), notify.NewWriter(cmd.ErrOrStderr()), func(o *ticker.Options) {
		if openInBrowser {
			o.Navigate = openURL
			return
		}
		o.Detail = func(ctx context.Context, id string) error {
			art, err := fetch.Detail(ctx, backend, id)
			if err != nil {
				return err
			}
			printArticle(out, art)
			return nil
		}
	})
	if err != nil {
		return fmt.Errorf("create ticker: %w", err)
	}

	if openInBrowser {
		// A current digest lets items with their own link resolve to it.
		if _, err := tk.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
	}
	return tk.Open(ctx, args[0])
}

func printArticle(w io.Writer, art *fetch.Article) {
	fmt.Fprintln(w, art.Title)

	var meta []string
	if art.Category != "" {
		meta = append(meta, art.Category)
	}
	if !art.CreatedAt.IsZero() {
		meta = append(meta, humanize.Time(art.CreatedAt))
	}
	meta = append(meta, fmt.Sprintf("%d min read", int(art.ReadingTime().Minutes())))
	fmt.Fprintln(w, strings.Join(meta, " · "))

	if art.Image != "" {
		fmt.Fprintf(w, "image: %s\n", art.Image)
	}
	if body := strings.TrimSpace(art.Body); body != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, body)
	}
}
