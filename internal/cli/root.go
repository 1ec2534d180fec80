// Package cli provides the command-line interface for abhaya.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

// DefaultConfigDir holds config.yaml, .env and the history database.
const DefaultConfigDir = ".abhaya"

var configDir string

var rootCmd = &cobra.Command{
	Use:   "abhaya",
	Short: "Breaking-news ticker for the Abhaya portal",
	Long: "abhaya keeps a small digest of the latest portal news on a terminal or over HTTP. " +
		"It polls the news backend on a cadence, derives priority from age, and falls back to fixed content when the backend is down.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "abhaya %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", DefaultConfigDir, "config directory")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
