package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/abhaya/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config directory with example files",
	RunE:  initAction,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func initAction(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	created := 0
	files := []struct {
		name string
		data string
	}{
		{config.DefaultConfigFile, exampleConfig},
		{config.DefaultEnvFile + ".example", exampleEnv},
	}
	for _, f := range files {
		wrote, err := writeIfNotExists(out, filepath.Join(configDir, f.name), []byte(f.data))
		if err != nil {
			return err
		}
		if wrote {
			created++
		}
	}

	if created == 0 {
		fmt.Fprintf(out, "Config directory %s already initialized.\n", configDir)
	} else {
		fmt.Fprintf(out, "Initialized %s with %d config files.\n", configDir, created)
	}
	return nil
}

// writeIfNotExists writes data to path if the file does not exist.
// Returns true if the file was created.
func writeIfNotExists(out io.Writer, path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "  exists: %s\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(out, "  created: %s\n", path)
	return true, nil
}

const exampleConfig = `# abhaya configuration

backend:
  url: http://localhost:5000
  digest_path: /api/news

ticker:
  source: rest            # rest or rss
  # feed_url: https://example.com/feed.xml
  limit: 8
  timeout: 2s
  cache_ttl: 2m
  refresh_every: 5m
  preload: true

storage:
  path: .abhaya/abhaya.db
  retain_days: 30

server:
  listen: ":3000"
  refresh_rate: 0.1       # manual refreshes per second
  cors_origins: []

log:
  level: info             # debug, info, warn, error
  format: json            # json or console
`

const exampleEnv = `# Copy to .env to override config.yaml.
# ABHAYA_BACKEND_URL=http://localhost:5000
# ABHAYA_LISTEN=:3000
# ABHAYA_LOG_LEVEL=debug
# PORT=3000
`
