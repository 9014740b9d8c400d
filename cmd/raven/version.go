package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"raven/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the raven version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}
