package main

import (
	"encoding/json"
	"strings"
	"testing"

	"ngrev/internal/graph"
	"ngrev/internal/identity"
	"ngrev/internal/storage"
	"ngrev/internal/version"
)

func sampleGraph() *GraphResponseCLI {
	return &GraphResponseCLI{
		Project:     "demo",
		HistoryLen:  2,
		Breadcrumbs: []string{"AppModule", "SharedModule"},
		Config: &graph.VisualizationConfig{
			Title:  "SharedModule",
			Layout: graph.LayoutHierarchicalLR,
			Graph: graph.Graph{
				Nodes: []graph.Node{
					{ID: "a", Label: "SharedModule", Type: &graph.NodeType{Kind: identity.KindModule}},
					{ID: "b", Label: "HeroComponent", Type: &graph.NodeType{Kind: identity.KindComponentOrDirective}},
				},
				Edges: []graph.Edge{
					{From: "a", To: "b", Direction: graph.DirectionTo},
					{From: "a", To: "b", Direction: graph.DirectionTo, Dashes: true},
				},
			},
		},
	}
}

func TestFormatResponse_JSON(t *testing.T) {
	out, err := FormatResponse(sampleGraph(), FormatJSON)
	if err != nil {
		t.Fatalf("FormatResponse() error = %v", err)
	}
	var decoded struct {
		Project string `json:"project"`
		Config  struct {
			Title string `json:"title"`
		} `json:"config"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded.Project != "demo" || decoded.Config.Title != "SharedModule" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestFormatResponse_Human(t *testing.T) {
	tests := []struct {
		name string
		resp interface{}
		want []string
	}{
		{
			name: "graph",
			resp: sampleGraph(),
			want: []string{"SharedModule  (hierarchical-lr)", "AppModule > SharedModule", "Nodes (2):", "Edges (2, 1 dashed):", "a -> b", "a .> b"},
		},
		{
			name: "empty graph",
			resp: &GraphResponseCLI{},
			want: []string{"No project loaded."},
		},
		{
			name: "search",
			resp: &SearchResponseCLI{Query: "hero", TotalMatches: 1, Results: []storage.SearchResult{{
				SymbolRecord: storage.SymbolRecord{ID: "x#HeroComponent", Name: "HeroComponent", Kind: "component"},
				Rank:         0.8,
				MatchType:    "prefix",
			}}},
			want: []string{`"hero" (1 matches)`, "1. HeroComponent [component] (prefix, 0.80)", "x#HeroComponent"},
		},
		{
			name: "no results",
			resp: &SearchResponseCLI{Query: "zzz"},
			want: []string{"No matches."},
		},
		{
			name: "metadata",
			resp: &MetadataResponseCLI{ID: "x", Metadata: &identity.Metadata{
				FilePath:   "src/x.ts",
				Properties: []identity.Property{{Key: "selector", Value: "app-x"}},
			}},
			want: []string{"src/x.ts", "selector", "app-x"},
		},
		{
			name: "version",
			resp: version.Current(),
			want: []string{"ngrev version " + version.Version},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := FormatResponse(tt.resp, FormatHuman)
			if err != nil {
				t.Fatalf("FormatResponse() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output = %q, want it to contain %q", out, want)
				}
			}
		})
	}
}

func TestFormatResponse_Unsupported(t *testing.T) {
	if _, err := FormatResponse(sampleGraph(), OutputFormat("xml")); err == nil {
		t.Error("FormatResponse(xml) should fail")
	}
}
