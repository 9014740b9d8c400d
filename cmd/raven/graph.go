package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"raven/internal/depgraph"
	"raven/internal/pathres"
)

var graphCmd = &cobra.Command{
	Use:   "graph [directory]",
	Short: "Print the include graph of a workspace",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGraph,
}

func init() {
	graphCmd.Flags().Bool("cycles", false, "only list files that take part in a cycle")
}

func runGraph(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	onlyCycles, err := cmd.Flags().GetBool("cycles")
	if err != nil {
		return fmt.Errorf("failed to get cycles flag: %w", err)
	}
	root, err := workspaceRoot(target)
	if err != nil {
		return err
	}
	sess, err := openSession(cmd.Context(), root, "", nil)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	graph := sess.state.Graph()
	uris := sess.state.Index().URIs()
	slices.Sort(uris)
	display := func(uri string) string {
		if p := pathres.URIToPath(uri); p != "" {
			return sess.relPath(p)
		}
		return uri
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	if onlyCycles {
		table.SetHeader([]string{"File", "Cycle"})
		for _, uri := range uris {
			if _, cycle, ok := graph.DetectCycle(uri); ok {
				parts := make([]string, len(cycle))
				for i, c := range cycle {
					parts[i] = display(c)
				}
				table.Append([]string{display(uri), strings.Join(parts, " -> ")})
			}
		}
		table.Render()
		return nil
	}

	table.SetHeader([]string{"From", "Line", "To", "Kind", "Flags"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})
	edges := 0
	for _, uri := range uris {
		for _, e := range graph.Dependencies(uri) {
			table.Append([]string{display(e.From), edgeLine(e), display(e.To), edgeKind(e), edgeFlags(e)})
			edges++
		}
	}
	table.SetFooter([]string{fmt.Sprintf("%d files", len(uris)), "", fmt.Sprintf("%d edges", edges), "", ""})
	table.Render()
	return nil
}

func edgeLine(e depgraph.Edge) string {
	if pos, ok := e.CallSite(); ok {
		return strconv.FormatUint(uint64(pos.Line)+1, 10)
	}
	return "-"
}

func edgeKind(e depgraph.Edge) string {
	switch {
	case e.IsDirective:
		return "directive"
	case e.IsSysSource:
		return "sys.source"
	default:
		return "source"
	}
}

func edgeFlags(e depgraph.Edge) string {
	var flags []string
	if e.Local {
		flags = append(flags, "local")
	}
	if e.Chdir {
		flags = append(flags, "chdir")
	}
	if e.IsSysSource && e.SysSourceGlobalEnv {
		flags = append(flags, "globalenv")
	}
	return strings.Join(flags, ",")
}
