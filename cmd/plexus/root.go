package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

// Flags shared by every subcommand.
var (
	flagSchema    string
	flagStore     string
	flagLogLevel  string
	flagLogFormat string
	flagWorkers   int
)

var rootCmd = &cobra.Command{
	Use:   "plexus",
	Short: "Graph-based pipeline execution engine",
	Long: "Plexus assembles processing components into a directed acyclic pipeline,\n" +
		"executes them in dependency order, and caches every artifact by fingerprint\n" +
		"so later runs reuse prior work instead of recomputing it.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagSchema, "schema", "s", "pipeline.hcl", "pipeline schema document (.hcl, .yaml, .yml)")
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", ".plexus-store", "artifact store directory")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "concurrent node workers (0 = default)")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
