package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ngrev/internal/engine"
	"ngrev/internal/slogutil"
)

var (
	searchLimit  int
	searchFormat string
)

var searchCmd = &cobra.Command{
	Use:   "search <project> <query>",
	Short: "Search for symbols",
	Long: `Search the project's symbols by name or file path.

Search semantics:
  - Prefix match on every word of the query, case-insensitive
  - Ranking: exact name, then name prefix, then any other match

Examples:
  ngrev search ./demo hero
  ngrev search ./demo HeroService --limit=5`,
	Args: cobra.ExactArgs(2),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", engine.DefaultSearchLimit, "Maximum number of results")
	searchCmd.Flags().StringVar(&searchFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	start := time.Now()
	projectPath, query := args[0], args[1]
	s := loadSettings(projectPath)
	defer s.close()

	ctx, cancel := newContext()
	defer cancel()

	e := s.newEngine()
	defer e.Close()
	mustLoad(ctx, e, projectPath)

	results, err := e.Search(ctx, query, searchLimit)
	exitOnError("searching symbols", err)

	output, err := FormatResponse(&SearchResponseCLI{
		Query:        query,
		TotalMatches: len(results),
		Results:      results,
	}, OutputFormat(searchFormat))
	exitOnError("formatting output", err)
	fmt.Println(output)

	s.logger(slogutil.SubsystemEngine).Debug("Search query completed",
		"query", query,
		"results", len(results),
		"duration", time.Since(start).Milliseconds(),
	)
}
