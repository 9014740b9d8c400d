package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"raven/internal/lsp"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the raven language server over stdio",
	RunE:  runLSP,
}

func init() {
	lspCmd.Flags().Duration("debounce", 0, "override the revalidation debounce")
	lspCmd.Flags().String("store", "", "persist the closed-file index in this SQLite file")
	lspCmd.Flags().Bool("no-index", false, "skip the initial workspace scan")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return fmt.Errorf("failed to get debounce flag: %w", err)
	}
	store, err := cmd.Flags().GetString("store")
	if err != nil {
		return fmt.Errorf("failed to get store flag: %w", err)
	}
	noIndex, err := cmd.Flags().GetBool("no-index")
	if err != nil {
		return fmt.Errorf("failed to get no-index flag: %w", err)
	}

	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Logger:    run.log,
		Debounce:  debounce,
		StorePath: store,
		SkipIndex: noIndex,
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
