package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"raven/internal/diag"
	"raven/internal/diagfmt"
	"raven/internal/pathres"
	"raven/internal/source"
	"raven/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file.R|directory]",
	Short: "Report cross-file diagnostics for a workspace or a single file",
	Long: `Index the workspace and print the cross-file diagnostics of every R file,
or of the one file given. Exits with status 1 when any error is reported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

// errDiagnostics makes the command fail without printing anything more.
var errDiagnostics = errors.New("errors reported")

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif)")
	checkCmd.Flags().Bool("no-warnings", false, "only report errors")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Int("max-diagnostics", 0, "stop after this many diagnostics (0 = all)")
	checkCmd.Flags().String("store", "", "reuse the persistent index in this SQLite file")
}

func runCheck(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	noWarnings, err := cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	maxDiagnostics, err := cmd.Flags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	storePath, err := cmd.Flags().GetString("store")
	if err != nil {
		return fmt.Errorf("failed to get store flag: %w", err)
	}
	switch format {
	case "pretty", "short", "json", "sarif":
	default:
		return fmt.Errorf("unknown format %q (expected pretty|short|json|sarif)", format)
	}

	root, err := workspaceRoot(target)
	if err != nil {
		return err
	}
	sess, err := openSession(cmd.Context(), root, storePath, nil)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	uris := sess.state.Index().URIs()
	slices.Sort(uris)
	if abs, err := filepath.Abs(target); err == nil {
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			uris = []string{pathres.PathToURI(abs)}
		}
	}

	var items []diag.Diagnostic
	files := make(map[string]*source.File)
	idx := run.timer.Begin("diagnose")
	for _, uri := range uris {
		report, ok := sess.state.Diagnostics(cmd.Context(), uri)
		if !ok {
			continue
		}
		for _, d := range report.Diagnostics {
			if noWarnings && d.Severity != diag.SevError {
				continue
			}
			items = append(items, d)
		}
	}
	run.timer.End(idx, fmt.Sprintf("%d files", len(uris)))
	if err := cmd.Context().Err(); err != nil {
		return err
	}
	if maxDiagnostics > 0 && len(items) > maxDiagnostics {
		items = items[:maxDiagnostics]
	}

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = diagfmt.JSON(out, items, diagfmt.JSONOpts{PathMode: pathMode, Base: root, IncludeNotes: withNotes})
	case "sarif":
		err = diagfmt.Sarif(out, items, diagfmt.SarifRunMeta{
			ToolName:       "raven",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
			Base:           root,
		})
	case "short":
		if len(items) > 0 {
			_, err = fmt.Fprintln(out, diag.FormatShort(items, root))
		}
	default:
		err = diagfmt.Pretty(out, items, diagfmt.PrettyOpts{
			Color:     !color.NoColor,
			PathMode:  pathMode,
			Base:      root,
			ShowNotes: withNotes,
			Sources: func(uri string) *source.File {
				if f, ok := files[uri]; ok {
					return f
				}
				f, err := source.Load(pathres.URIToPath(uri))
				if err != nil {
					f = nil
				}
				files[uri] = f
				return f
			},
		})
		if err == nil && len(items) > 0 {
			_, err = fmt.Fprintln(cmd.ErrOrStderr(), summary(items))
		}
	}
	if err != nil {
		return err
	}

	for _, d := range items {
		if d.Severity == diag.SevError {
			cmd.SilenceErrors = true
			return errDiagnostics
		}
	}
	return nil
}

func summary(items []diag.Diagnostic) string {
	var errs, warns int
	for _, d := range items {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	return fmt.Sprintf("%d errors, %d warnings, %d total", errs, warns, len(items))
}
