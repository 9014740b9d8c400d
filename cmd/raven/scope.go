package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"raven/internal/pathres"
	"raven/internal/scope"
)

var scopeCmd = &cobra.Command{
	Use:   "scope <file.R:line:col>",
	Short: "List the symbols visible at a position",
	Long: `Resolve the scope at a one-based line and column of an R file, following
source() calls and backward directives through the workspace.`,
	Args: cobra.ExactArgs(1),
	RunE: runScope,
}

func init() {
	scopeCmd.Flags().String("format", "table", "output format (table|json)")
}

// parseLocation splits "path:line:col"; the column may be omitted.
func parseLocation(arg string) (string, uint32, uint32, error) {
	parts := strings.Split(arg, ":")
	nums := make([]uint32, 0, 2)
	for len(parts) > 1 && len(nums) < 2 {
		n, err := strconv.ParseUint(parts[len(parts)-1], 10, 32)
		if err != nil {
			break
		}
		nums = append(nums, uint32(n))
		parts = parts[:len(parts)-1]
	}
	path := strings.Join(parts, ":")
	slices.Reverse(nums)
	switch len(nums) {
	case 1:
		nums = append(nums, 1)
	case 2:
	default:
		return "", 0, 0, fmt.Errorf("expected file:line[:col], got %q", arg)
	}
	if nums[0] == 0 || nums[1] == 0 {
		return "", 0, 0, fmt.Errorf("line and column are one-based in %q", arg)
	}
	return path, nums[0] - 1, nums[1] - 1, nil
}

type scopeSymbolJSON struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	File      string `json:"file"`
	Line      uint32 `json:"line"`
	Signature string `json:"signature,omitempty"`
}

type scopeJSON struct {
	Symbols []scopeSymbolJSON `json:"symbols"`
	Chain   []string          `json:"chain"`
	Errors  []string          `json:"errors,omitempty"`
}

func runScope(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	path, line, col, err := parseLocation(args[0])
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	root, err := workspaceRoot(abs)
	if err != nil {
		return err
	}
	sess, err := openSession(cmd.Context(), root, "", nil)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	uri := pathres.PathToURI(abs)
	if !sess.state.Known(uri) {
		return fmt.Errorf("%s is not an R file of the workspace %s", path, root)
	}
	res := sess.state.ScopeAt(uri, line, col)
	display := func(u string) string { return sess.relPath(pathres.URIToPath(u)) }

	out := scopeJSON{Symbols: []scopeSymbolJSON{}}
	for _, name := range slices.Sorted(maps.Keys(res.Symbols)) {
		sym := res.Symbols[name]
		out.Symbols = append(out.Symbols, scopeSymbolJSON{
			Name:      sym.Name,
			Kind:      sym.Kind.String(),
			File:      display(sym.URI),
			Line:      sym.Pos.Line + 1,
			Signature: sym.Signature,
		})
	}
	for _, u := range res.Chain {
		out.Chain = append(out.Chain, display(u))
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, describeScopeError(e, display))
	}

	w := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if format != "table" {
		return fmt.Errorf("unknown format %q (expected table|json)", format)
	}
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Name", "Kind", "Defined", "Signature"})
	for _, s := range out.Symbols {
		table.Append([]string{s.Name, s.Kind, fmt.Sprintf("%s:%d", s.File, s.Line), s.Signature})
	}
	table.Render()
	fmt.Fprintf(w, "\nchain: %s\n", strings.Join(out.Chain, " -> "))
	for _, e := range out.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
	return nil
}

func describeScopeError(e scope.Error, display func(string) string) string {
	site := e.Site()
	return fmt.Sprintf("%s:%d: %v", display(site.URI), site.Pos.Line+1, e)
}
