package states

import "testing"

func TestModuleTreeState_Data(t *testing.T) {
	f := newFixture(t)
	s := NewModuleTreeState(f.context(), f.app)
	cfg := s.Data()

	if cfg.Title != "AppModule" {
		t.Errorf("Title = %q, want AppModule", cfg.Title)
	}
	root := "src/app/app.module.ts#AppModule"
	for _, id := range []string{
		root,
		"node_modules/@angular/common/index.d.ts#CommonModule",
		"src/app/shared/shared.module.ts#SharedModule",
	} {
		if !hasNode(cfg.Graph, id) {
			t.Errorf("missing node %s", id)
		}
	}
	node, _ := cfg.Graph.Node("node_modules/@angular/common/index.d.ts#CommonModule")
	if node.Type == nil || !node.Type.IsFrameworkSymbol {
		t.Error("CommonModule should be tinted as a framework symbol")
	}
}

func TestModuleTreeState_LazyModules(t *testing.T) {
	f := newFixture(t)
	s := NewModuleTreeState(f.context(), f.app)
	g := s.Data().Graph

	admin := "src/app/admin/admin.module.ts#AdminModule"
	if n := countNodes(g, admin); n != 1 {
		t.Fatalf("AdminModule nodes = %d, want 1", n)
	}
	in := edgesTo(g, admin)
	if len(in) != 1 {
		t.Fatalf("edges into AdminModule = %d, want 1", len(in))
	}
	if !in[0].Dashes {
		t.Error("lazy edge should be dashed")
	}
	for _, e := range g.Edges {
		if e.To != admin && e.Dashes {
			t.Errorf("eager edge %s -> %s is dashed", e.From, e.To)
		}
	}
	if len(g.Nodes) != 4 {
		t.Errorf("len(Nodes) = %d, want 4 (unresolved lazy route skipped)", len(g.Nodes))
	}
}

func TestModuleTreeState_Transition(t *testing.T) {
	f := newFixture(t)
	s := NewModuleTreeState(f.context(), f.app)
	s.Data()

	tests := []struct {
		name    string
		id      string
		outcome Outcome
		kind    Kind
		symbol  string
	}{
		{"root opens detail", "src/app/app.module.ts#AppModule", Resolved, KindModule, "src/app/app.module.ts#AppModule"},
		{"import pivots tree", "src/app/shared/shared.module.ts#SharedModule", Resolved, KindModuleTree, "src/app/shared/shared.module.ts#SharedModule"},
		{"lazy module pivots tree", "src/app/admin/admin.module.ts#AdminModule", Resolved, KindModuleTree, "src/app/admin/admin.module.ts#AdminModule"},
		{"library module", "node_modules/@angular/common/index.d.ts#CommonModule", NonIntrospectable, "", ""},
		{"unknown id", "el-0", NotFound, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := s.Transition(tt.id)
			if tr.Outcome != tt.outcome {
				t.Fatalf("Outcome = %v, want %v", tr.Outcome, tt.outcome)
			}
			if tt.outcome != Resolved {
				if tr.State != nil {
					t.Error("State set for unresolved transition")
				}
				return
			}
			if tr.State.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", tr.State.Kind(), tt.kind)
			}
			if tr.State.SymbolID() != tt.symbol {
				t.Errorf("SymbolID() = %q, want %q", tr.State.SymbolID(), tt.symbol)
			}
		})
	}
}
