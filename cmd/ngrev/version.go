package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ngrev/internal/version"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		output, err := FormatResponse(version.Current(), OutputFormat(versionFormat))
		exitOnError("formatting output", err)
		fmt.Fprintln(cmd.OutOrStdout(), output)
	},
}

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(versionCmd)
}
