package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ngrev/internal/slogutil"
)

var symbolsFormat string

var symbolsCmd = &cobra.Command{
	Use:   "symbols <project>",
	Short: "List every navigable symbol",
	Long: `List the modules, components, directives, pipes and providers that can be
navigated to directly, with their node ids.

Examples:
  ngrev symbols ./demo
  ngrev symbols ./demo --format=human`,
	Args: cobra.ExactArgs(1),
	Run:  runSymbols,
}

func init() {
	symbolsCmd.Flags().StringVar(&symbolsFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(symbolsCmd)
}

func runSymbols(cmd *cobra.Command, args []string) {
	start := time.Now()
	projectPath := args[0]
	s := loadSettings(projectPath)
	defer s.close()

	ctx, cancel := newContext()
	defer cancel()

	e := s.newEngine()
	defer e.Close()
	mustLoad(ctx, e, projectPath)

	symbols := e.Symbols()
	output, err := FormatResponse(&SymbolsResponseCLI{
		Project: projectPath,
		Total:   len(symbols),
		Symbols: symbols,
	}, OutputFormat(symbolsFormat))
	exitOnError("formatting output", err)
	fmt.Println(output)

	s.logger(slogutil.SubsystemEngine).Debug("Symbols listed",
		"project", projectPath,
		"symbols", len(symbols),
		"duration", time.Since(start).Milliseconds(),
	)
}
