package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"ngrev/internal/graph"
	"ngrev/internal/identity"
	"ngrev/internal/index"
	"ngrev/internal/storage"
	"ngrev/internal/version"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// GraphResponseCLI is the output of graph and of browse's show.
type GraphResponseCLI struct {
	Project     string                     `json:"project"`
	HistoryLen  int                        `json:"historyLen"`
	Breadcrumbs []string                   `json:"breadcrumbs,omitempty"`
	Config      *graph.VisualizationConfig `json:"config"`
}

// SymbolsResponseCLI lists every navigable symbol.
type SymbolsResponseCLI struct {
	Project string             `json:"project"`
	Total   int                `json:"total"`
	Symbols []index.SymbolInfo `json:"symbols"`
}

// SearchResponseCLI contains search results for CLI output
type SearchResponseCLI struct {
	Query        string                 `json:"query"`
	TotalMatches int                    `json:"totalMatches"`
	Results      []storage.SearchResult `json:"results"`
}

// MetadataResponseCLI is the metadata of one node.
type MetadataResponseCLI struct {
	ID       string             `json:"id"`
	Metadata *identity.Metadata `json:"metadata"`
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *GraphResponseCLI:
		return formatGraphHuman(v), nil
	case *SymbolsResponseCLI:
		return formatSymbolsHuman(v), nil
	case *SearchResponseCLI:
		return formatSearchHuman(v), nil
	case *MetadataResponseCLI:
		return formatMetadataHuman(v), nil
	case version.BuildInfo:
		return v.String(), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatGraphHuman(resp *GraphResponseCLI) string {
	var b strings.Builder
	if resp.Config == nil {
		b.WriteString("No project loaded.\n")
		return b.String()
	}

	cfg := resp.Config
	b.WriteString(fmt.Sprintf("%s  (%s)\n", cfg.Title, cfg.Layout))
	b.WriteString(strings.Repeat("=", 60) + "\n")
	if len(resp.Breadcrumbs) > 0 {
		b.WriteString(strings.Join(resp.Breadcrumbs, " > ") + "\n")
	}
	b.WriteString("\n")

	stats := cfg.Graph.Stats()
	b.WriteString(fmt.Sprintf("Nodes (%d):\n", stats.TotalNodes))
	for _, n := range cfg.Graph.Nodes {
		kind := ""
		if n.Type != nil {
			kind = string(n.Type.Kind)
			if n.Type.IsFrameworkSymbol {
				kind += ", framework"
			}
		}
		b.WriteString(fmt.Sprintf("  %-40s %s [%s]\n", n.ID, n.Label, kind))
	}

	if stats.TotalEdges > 0 {
		b.WriteString(fmt.Sprintf("\nEdges (%d, %d dashed):\n", stats.TotalEdges, stats.Dashed))
		for _, e := range cfg.Graph.Edges {
			arrow := "->"
			switch e.Direction {
			case graph.DirectionFrom:
				arrow = "<-"
			case graph.DirectionBoth:
				arrow = "<->"
			case graph.DirectionNone:
				arrow = "--"
			}
			if e.Dashes {
				arrow = strings.ReplaceAll(arrow, "-", ".")
			}
			b.WriteString(fmt.Sprintf("  %s %s %s\n", e.From, arrow, e.To))
		}
	}
	return b.String()
}

func formatSymbolsHuman(resp *SymbolsResponseCLI) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Symbols in %s (%d)\n\n", resp.Project, resp.Total))
	for _, s := range resp.Symbols {
		external := ""
		if s.External {
			external = " (external)"
		}
		b.WriteString(fmt.Sprintf("  %-10s %-30s %s%s\n", s.Kind, s.Name, s.Path, external))
	}
	return b.String()
}

func formatSearchHuman(resp *SearchResponseCLI) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Search results for %q (%d matches)\n\n", resp.Query, resp.TotalMatches))
	if len(resp.Results) == 0 {
		b.WriteString("  No matches.\n")
		return b.String()
	}
	for i, r := range resp.Results {
		b.WriteString(fmt.Sprintf("%d. %s [%s] (%s, %.2f)\n", i+1, r.Name, r.Kind, r.MatchType, r.Rank))
		b.WriteString(fmt.Sprintf("   %s\n", r.ID))
	}
	return b.String()
}

func formatMetadataHuman(resp *MetadataResponseCLI) string {
	var b strings.Builder
	b.WriteString(resp.ID + "\n")
	if resp.Metadata == nil {
		b.WriteString("  No metadata.\n")
		return b.String()
	}
	if resp.Metadata.FilePath != "" {
		b.WriteString(fmt.Sprintf("  %-18s %s\n", "file", resp.Metadata.FilePath))
	}
	for _, p := range resp.Metadata.Properties {
		b.WriteString(fmt.Sprintf("  %-18s %s\n", p.Key, p.Value))
	}
	return b.String()
}
