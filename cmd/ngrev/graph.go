package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ngrev/internal/engine"
	"ngrev/internal/states"
)

var (
	graphNavigate    []string
	graphApp         bool
	graphLibs        bool
	graphModulesOnly bool
	graphMetadata    string
	graphFormat      string
)

var graphCmd = &cobra.Command{
	Use:   "graph <project>",
	Short: "Print a graph of the project",
	Long: `Load a project and print its initial graph, the module tree of the
bootstrap module. Node ids given with --navigate are followed in order, the
same way a click in the viewer would.

Examples:
  ngrev graph ./demo
  ngrev graph ./demo/ngrev.yaml --format=human
  ngrev graph ./demo --navigate 'src/app/app.module.ts#AppModule'
  ngrev graph ./demo --app --modules-only`,
	Args: cobra.ExactArgs(1),
	Run:  runGraph,
}

func init() {
	graphCmd.Flags().StringSliceVar(&graphNavigate, "navigate", nil, "Node ids to navigate to, in order")
	graphCmd.Flags().BoolVar(&graphApp, "app", false, "Start from the application view")
	graphCmd.Flags().BoolVar(&graphLibs, "libs", false, "Show library modules in the application view")
	graphCmd.Flags().BoolVar(&graphModulesOnly, "modules-only", false, "Show only modules in the application view")
	graphCmd.Flags().StringVar(&graphMetadata, "metadata", "", "Print the metadata of this node instead of the graph")
	graphCmd.Flags().StringVar(&graphFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) {
	projectPath := args[0]
	s := loadSettings(projectPath)
	defer s.close()

	ctx, cancel := newContext()
	defer cancel()

	e := s.newEngine()
	defer e.Close()
	mustLoad(ctx, e, projectPath)

	if graphApp {
		exitOnError("showing application", e.ShowApplication())
	}
	// the view flags override config only when given
	if cmd.Flags().Changed("libs") && graphLibs != e.View().ShowLibs {
		e.ToggleLibs()
	}
	if cmd.Flags().Changed("modules-only") && graphModulesOnly != e.View().ModulesOnly {
		e.ToggleModulesOnly()
	}

	for _, id := range graphNavigate {
		out, err := e.DirectTransition(id)
		exitOnError("navigating", err)
		if out != states.Resolved {
			fmt.Fprintf(os.Stderr, "Error: cannot navigate to %s (%s)\n", id, out)
			os.Exit(1)
		}
	}

	var resp interface{}
	if graphMetadata != "" {
		resp = &MetadataResponseCLI{ID: graphMetadata, Metadata: e.Metadata(graphMetadata)}
	} else {
		resp = graphResponse(e)
	}

	output, err := FormatResponse(resp, OutputFormat(graphFormat))
	exitOnError("formatting output", err)
	fmt.Println(output)
}

func graphResponse(e *engine.Engine) *GraphResponseCLI {
	return &GraphResponseCLI{
		Project:    e.Project(),
		HistoryLen: e.HistoryLen(),
		Config:     e.Data(),
	}
}
