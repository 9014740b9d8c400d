package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"raven/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "raven",
	Short: "Cross-file analysis for R workspaces",
	Long: `raven follows source() calls and @lsp directives across R files to
resolve what is in scope at every position. It runs as a language server
or from the command line.`,
	PersistentPreRunE:  setupRun,
	PersistentPostRunE: finishRun,
	SilenceUsage:       true,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(scopeCmd)
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error), overrides the config")
	rootCmd.PersistentFlags().String("log-file", "", "log to a rotated file instead of stderr")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().String("cpuprofile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("memprofile", "", "write a heap profile to this file")
	rootCmd.PersistentFlags().String("trace", "", "write a runtime trace to this file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
