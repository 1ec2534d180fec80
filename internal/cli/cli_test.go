package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newBackend serves a digest and article details the way the portal API does.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	created := time.Now().Add(-30 * time.Minute).UTC().Format(time.RFC3339)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/news", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"news": []map[string]any{
				{"_id": "a1", "title": "Assembly session opens", "createdAt": created, "category": "politics"},
				{"_id": "a2", "title": "Metro line extended", "createdAt": created, "category": "transport", "url": "https://portal.test/metro"},
			},
		})
	})
	mux.HandleFunc("/api/news/a1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"_id":       "a1",
			"title":     "Assembly session opens",
			"body":      "The winter session began on Monday with a debate on irrigation.",
			"category":  "politics",
			"createdAt": created,
		})
	})
	mux.HandleFunc("/api/news/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"News not found"}`))
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

// setupConfig points configDir at a fresh directory configured for backendURL.
func setupConfig(t *testing.T, backendURL string, extra string) string {
	t.Helper()
	for _, name := range []string{"ABHAYA_BACKEND_URL", "BACKEND_URL", "ABHAYA_LISTEN", "PORT", "ABHAYA_LOG_LEVEL"} {
		t.Setenv(name, "")
	}

	dir := t.TempDir()
	cfg := "backend:\n  url: " + backendURL + "\n" +
		"storage:\n  path: " + filepath.Join(dir, "abhaya.db") + "\n" +
		"log:\n  level: error\n" + extra
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	old := configDir
	t.Cleanup(func() { configDir = old })
	configDir = dir
	return dir
}

// execute runs the root command with args and captures stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(args, "--config", configDir))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// resetFlags restores command flags; cobra keeps values between executions.
func resetFlags() {
	tickerOnce, tickerFormat, tickerNoColor, tickerEvery = false, "terminal", false, ""
	historySince, historyLimit, historyFormat = "7d", 20, "terminal"
	openInBrowser = false
	serveListen = ""
}
