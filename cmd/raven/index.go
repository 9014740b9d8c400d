package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"raven/internal/pathres"
	"raven/internal/ui"
	"raven/internal/workspace"
)

var indexCmd = &cobra.Command{
	Use:   "index [directory]",
	Short: "Index a workspace, optionally into a persistent store",
	Long: `Discover and index every R file under the directory. With --store the
extracted metadata is written to a SQLite file the language server can start
from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().String("ui", "auto", "progress display (auto|on|off)")
	indexCmd.Flags().String("store", "", "write the index to this SQLite file")
}

func runIndex(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	storePath, err := cmd.Flags().GetString("store")
	if err != nil {
		return fmt.Errorf("failed to get store flag: %w", err)
	}
	root, err := workspaceRoot(target)
	if err != nil {
		return err
	}
	discoverIdx := run.timer.Begin("discover")
	paths, err := workspace.Discover(root)
	if err != nil {
		return fmt.Errorf("failed to discover files in %s: %w", root, err)
	}
	total := len(paths)
	run.timer.End(discoverIdx, fmt.Sprintf("%d files", total))

	var (
		sess   *session
		failed int
	)
	if shouldUseTUI(mode) {
		sess, failed, err = indexWithTUI(cmd.Context(), root, storePath, total)
	} else {
		var mu sync.Mutex
		sess, err = openSession(cmd.Context(), root, storePath, func(_, _ int, uri string, err error) {
			if err == nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %s: %v\n", pathres.URIToPath(uri), err)
		})
	}
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	n := sess.state.Index().Len()
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d files in %s", n, root)
	if failed > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " (%d failed)", failed)
	}
	if sess.store != nil {
		fmt.Fprintf(cmd.OutOrStdout(), ", store %s", filepath.Clean(sess.store.Path()))
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

// indexWithTUI runs indexing in the background and draws its progress
// until the event channel closes. Quitting the display cancels indexing.
func indexWithTUI(ctx context.Context, root, storePath string, total int) (*session, int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan ui.Event, 64)
	var (
		sess   *session
		err    error
		failed atomic.Int64
	)
	go func() {
		defer close(events)
		sess, err = openSession(ctx, root, storePath, func(done, total int, uri string, ierr error) {
			if ierr != nil {
				failed.Add(1)
			}
			events <- ui.Event{File: pathres.Base(uri), Done: done, Total: total, Err: ierr}
		})
	}()
	program := tea.NewProgram(ui.NewProgressModel("indexing "+filepath.Base(root), total, events),
		tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	_, runErr := program.Run()
	cancel()
	// дренируем канал, чтобы индексатор завершился
	for range events {
	}
	if runErr != nil && err == nil {
		if sess != nil {
			_ = sess.Close()
		}
		return nil, int(failed.Load()), runErr
	}
	return sess, int(failed.Load()), err
}
