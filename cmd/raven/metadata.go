package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"raven/internal/extract"
	"raven/internal/metadata"
	"raven/internal/source"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata <file.R>",
	Short: "Print the include metadata extracted from one file",
	Long: `Print the source() calls, backward directives, working directory and
ignored lines raven extracts from a file, without following any of them.`,
	Args: cobra.ExactArgs(1),
	RunE: runMetadata,
}

func init() {
	metadataCmd.Flags().String("format", "yaml", "output format (json|yaml)")
}

func runMetadata(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	file, err := source.Load(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	meta := extract.NewR(run.log).Extract(file, nil)
	out, err := metadata.Marshal(meta, format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
