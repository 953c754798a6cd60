package project

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ngrev/internal/engine"
	"ngrev/internal/model"
	"ngrev/internal/states"
)

const heroesManifest = `name: heroes
sources:
  - "src/**/*.ts"
modules:
  - name: AppModule
    path: src/app/app.module.ts
    imports: [SharedModule, "@angular/common#CommonModule"]
    declarations: [AppComponent]
    bootstrap: [AppComponent]
    providers:
      - HeroService
      - provide: API_URL
        useValue: https://api.example.com
    routes:
      - path: heroes
        loadChildren: ./heroes/heroes.module#HeroesModule
  - name: SharedModule
    path: src/app/shared.module.ts
    declarations: [HeroComponent, HighlightDirective, UpperPipe]
    exports: [HeroComponent, HighlightDirective, UpperPipe]
  - name: HeroesModule
    path: src/app/heroes/heroes.module.ts
components:
  - name: AppComponent
    path: src/app/app.component.ts
    selector: app-root
    templateUrl: ./app.component.html
  - name: HeroComponent
    path: src/app/hero.component.ts
    selector: app-hero
    inputs: [hero]
    template: "<span appHighlight>{{ hero.name | upper }}</span>"
    deps: [HeroService]
directives:
  - name: HighlightDirective
    path: src/app/highlight.directive.ts
    selector: "[appHighlight]"
pipes:
  - name: UpperPipe
    path: src/app/upper.pipe.ts
    pipeName: upper
injectables:
  - name: HeroService
    path: src/app/hero.service.ts
    deps: [API_URL]
`

const appTemplate = `<h1>Heroes</h1>
<app-hero *ngFor="let h of heroes" [hero]="h" appHighlight></app-hero>
`

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	file := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func heroesProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "ngrev.yaml", heroesManifest)
	writeFile(t, root, "src/app/app.component.html", appTemplate)
	writeFile(t, root, "src/app/app.module.ts", "export class AppModule {}\n")
	writeFile(t, root, "src/app/hero.service.ts", "export class HeroService {}\n")
	return root
}

func loadWorkspace(t *testing.T, path string) *Workspace {
	t.Helper()
	ws, err := NewLoader(nil).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return ws.(*Workspace)
}

func directiveNamed(ws *Workspace, name string) model.Directive {
	for _, d := range ws.Directives() {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

func TestDetectManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ngrev.toml", "name = 'x'\n")
	writeFile(t, root, "ngrev.yaml", "name: x\n")

	got, err := DetectManifest(root)
	if err != nil {
		t.Fatalf("DetectManifest() error = %v", err)
	}
	if filepath.Base(got) != "ngrev.yaml" {
		t.Errorf("DetectManifest() = %s, want ngrev.yaml", got)
	}

	file := filepath.Join(root, "ngrev.toml")
	if got, _ := DetectManifest(file); got != file {
		t.Errorf("DetectManifest(file) = %s, want %s", got, file)
	}

	if _, err := DetectManifest(t.TempDir()); err == nil {
		t.Error("DetectManifest(empty dir) should fail")
	}
}

func TestDecodeManifest(t *testing.T) {
	formats := map[string]string{
		"ngrev.yaml": `name: demo
modules:
  - name: AppModule
    path: app.module.ts
    providers:
      - HeroService
      - {provide: API_URL, useValue: 42, multi: true}
`,
		"ngrev.toml": `name = "demo"

[[modules]]
name = "AppModule"
path = "app.module.ts"
providers = ["HeroService", { provide = "API_URL", useValue = 42, multi = true }]
`,
		"ngrev.json": `{"name": "demo", "modules": [{"name": "AppModule", "path": "app.module.ts",
  "providers": ["HeroService", {"provide": "API_URL", "useValue": 42, "multi": true}]}]}`,
	}

	for name, src := range formats {
		t.Run(name, func(t *testing.T) {
			m, err := DecodeManifest(name, []byte(src))
			if err != nil {
				t.Fatalf("DecodeManifest() error = %v", err)
			}
			if m.Name != "demo" || len(m.Modules) != 1 {
				t.Fatalf("DecodeManifest() = %+v", m)
			}
			providers := m.Modules[0].Providers
			if len(providers) != 2 {
				t.Fatalf("len(providers) = %d, want 2", len(providers))
			}
			if providers[0].Class != "HeroService" {
				t.Errorf("providers[0].Class = %q, want HeroService", providers[0].Class)
			}
			if providers[1].Provide != "API_URL" || !providers[1].Multi || valueString(providers[1].UseValue) != "42" {
				t.Errorf("providers[1] = %+v", providers[1])
			}
		})
	}

	t.Run("syntax error", func(t *testing.T) {
		_, err := DecodeManifest("broken/ngrev.json", []byte(`{"name": `))
		if err == nil || !strings.HasPrefix(err.Error(), "broken/ngrev.json: ") {
			t.Errorf("DecodeManifest() error = %v, want it prefixed with the file", err)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		if _, err := DecodeManifest("ngrev.ini", nil); err == nil {
			t.Error("DecodeManifest(.ini) should fail")
		}
	})
}

func TestLoad_Links(t *testing.T) {
	ws := loadWorkspace(t, heroesProject(t))

	if len(ws.Modules()) != 3 || len(ws.Directives()) != 3 || len(ws.Pipes()) != 1 {
		t.Fatalf("workspace = %d modules, %d directives, %d pipes",
			len(ws.Modules()), len(ws.Directives()), len(ws.Pipes()))
	}

	app := ws.Modules()[0]
	if len(app.Bootstrap()) != 1 || app.Bootstrap()[0].Name() != "AppComponent" {
		t.Errorf("Bootstrap() = %v, want AppComponent", app.Bootstrap())
	}
	imports := app.Imports()
	if len(imports) != 2 || imports[1].Introspectable() || imports[1].Path() != "@angular/common" {
		t.Errorf("Imports() = %v, want SharedModule and an external CommonModule", imports)
	}
	if got := model.LazyReferences(app.Routes()); len(got) != 1 || got[0] != "./heroes/heroes.module#HeroesModule" {
		t.Errorf("LazyReferences() = %v", got)
	}

	providers := app.Providers()
	if len(providers) != 2 {
		t.Fatalf("len(Providers()) = %d, want 2", len(providers))
	}
	service := providers[0]
	if service.Provider().Token.Ref == nil || service.Provider().Token.Ref.Name != "HeroService" {
		t.Errorf("service token = %+v, want a HeroService ref", service.Provider().Token)
	}
	apiURL := providers[1]
	if apiURL.Provider().Token.Value != "API_URL" || apiURL.Provider().UseValue != "https://api.example.com" {
		t.Errorf("API_URL provider = %+v", apiURL.Provider())
	}
	if deps := service.Dependencies(); len(deps) != 1 || deps[0] != apiURL {
		t.Errorf("HeroService deps = %v, want the API_URL provider", deps)
	}

	shared := ws.Modules()[1]
	if len(shared.Exports()) != 3 {
		t.Errorf("len(Exports()) = %d, want 3", len(shared.Exports()))
	}
	if _, ok := shared.Declarations()[2].(model.PipeRef); !ok {
		t.Errorf("Declarations()[2] = %T, want model.PipeRef", shared.Declarations()[2])
	}

	hero := directiveNamed(ws, "HeroComponent")
	if deps := hero.Dependencies(); len(deps) != 1 || deps[0] != service {
		t.Errorf("HeroComponent deps = %v, want HeroService", deps)
	}
	if md := hero.Metadata(); md == nil || md.Selector != "app-hero" || len(md.Inputs) != 1 {
		t.Errorf("HeroComponent metadata = %+v", md)
	}
}

func TestLoad_Templates(t *testing.T) {
	ws := loadWorkspace(t, heroesProject(t))

	root := directiveNamed(ws, "AppComponent").TemplateAST()
	if root.Failed() {
		t.Fatalf("AppComponent template errors: %s", root.ErrorText())
	}
	if len(root.Roots) != 2 {
		t.Fatalf("len(Roots) = %d, want 2", len(root.Roots))
	}
	el := root.Roots[1]
	var names []string
	for _, ref := range el.Directives {
		names = append(names, ref.Name)
	}
	if got := strings.Join(names, ","); got != "HeroComponent,HighlightDirective" {
		t.Errorf("<app-hero> directives = %s, want HeroComponent,HighlightDirective", got)
	}
	if el.Directives[0].Path != "src/app/hero.component.ts" {
		t.Errorf("Directives[0].Path = %q", el.Directives[0].Path)
	}

	hero := directiveNamed(ws, "HeroComponent").TemplateAST()
	if hero.Failed() {
		t.Fatalf("HeroComponent template errors: %s", hero.ErrorText())
	}
	// HeroComponent is declared in SharedModule, which sees its own highlight directive
	if len(hero.Roots) != 1 || len(hero.Roots[0].Directives) != 1 {
		t.Errorf("HeroComponent template = %+v, want a highlighted span", hero.Roots)
	}

	if directiveNamed(ws, "HighlightDirective").TemplateAST() != nil {
		t.Error("plain directives have no template")
	}
	if directiveNamed(ws, "AppComponent").TemplateAST() != root {
		t.Error("TemplateAST() should be compiled once")
	}
}

func TestLoad_TemplateErrors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		kind     model.TemplateErrorKind
		contains string
	}{
		{"unknown element", "<div>\n  <app-villain></app-villain>\n</div>", model.BindingError, "'app-villain' is not a known element"},
		{"framework element", "<ng-container></ng-container>", "", ""},
		{"stray closing tag", "<div>\n</span>\n</div>", model.ParseError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Manifest{
				Modules: []ModuleSpec{{
					SymbolSpec:   SymbolSpec{Name: "AppModule", Path: "app.module.ts"},
					Declarations: []string{"AppComponent"},
				}},
				Components: []DirectiveSpec{{
					SymbolSpec: SymbolSpec{Name: "AppComponent", Path: "app.component.ts"},
					Selector:   "app-root",
					Template:   tt.template,
				}},
			}
			ws, err := Build(t.TempDir(), m, nil)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			tpl := ws.Directives()[0].TemplateAST()
			if tt.kind == "" {
				if tpl.Failed() {
					t.Errorf("template errors: %s", tpl.ErrorText())
				}
				return
			}
			if !tpl.Failed() {
				t.Fatal("template should fail")
			}
			if tpl.Errors[0].Kind != tt.kind || tpl.Errors[0].Line != 2 {
				t.Errorf("Errors[0] = %+v, want %s at line 2", tpl.Errors[0], tt.kind)
			}
			if !strings.Contains(tpl.ErrorText(), tt.contains) {
				t.Errorf("ErrorText() = %q, want it to contain %q", tpl.ErrorText(), tt.contains)
			}
		})
	}

	t.Run("missing templateUrl file", func(t *testing.T) {
		m := &Manifest{Components: []DirectiveSpec{{
			SymbolSpec:  SymbolSpec{Name: "AppComponent", Path: "app.component.ts"},
			TemplateURL: "./missing.html",
		}}}
		ws, err := Build(t.TempDir(), m, nil)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if tpl := ws.Directives()[0].TemplateAST(); !tpl.Failed() {
			t.Error("a missing template file should fail the template")
		}
	})
}

func TestBuild_Errors(t *testing.T) {
	component := DirectiveSpec{SymbolSpec: SymbolSpec{Name: "AppComponent", Path: "app.component.ts"}}
	directive := DirectiveSpec{SymbolSpec: SymbolSpec{Name: "Tooltip", Path: "tooltip.ts"}}

	tests := []struct {
		name     string
		manifest Manifest
		contains string
	}{
		{
			name: "unknown symbol",
			manifest: Manifest{Modules: []ModuleSpec{{
				SymbolSpec: SymbolSpec{Name: "AppModule", Path: "app.module.ts"},
				Imports:    []string{"SharedModule"},
			}}},
			contains: `unknown symbol "SharedModule"`,
		},
		{
			name: "duplicate symbol",
			manifest: Manifest{
				Components: []DirectiveSpec{component},
				Directives: []DirectiveSpec{{SymbolSpec: component.SymbolSpec}},
			},
			contains: "duplicate symbol app.component.ts#AppComponent",
		},
		{
			name: "bootstrap of a directive",
			manifest: Manifest{
				Modules: []ModuleSpec{{
					SymbolSpec: SymbolSpec{Name: "AppModule", Path: "app.module.ts"},
					Bootstrap:  []string{"Tooltip"},
				}},
				Directives: []DirectiveSpec{directive},
			},
			contains: "Tooltip is not a component",
		},
		{
			name: "missing name",
			manifest: Manifest{Modules: []ModuleSpec{{
				SymbolSpec: SymbolSpec{Path: "app.module.ts"},
			}}},
			contains: "module without a name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(t.TempDir(), &tt.manifest, nil)
			if err == nil || !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Build() error = %v, want it to contain %q", err, tt.contains)
			}
		})
	}
}

func TestRevision(t *testing.T) {
	root := heroesProject(t)
	first := loadWorkspace(t, root).Revision()
	if len(first) != 64 {
		t.Fatalf("Revision() = %q, want 64 hex chars", first)
	}
	if again := loadWorkspace(t, root).Revision(); again != first {
		t.Errorf("Revision() changed without edits: %s != %s", again, first)
	}

	writeFile(t, root, "src/app/app.component.html", appTemplate+"<footer></footer>\n")
	second := loadWorkspace(t, root).Revision()
	if second == first {
		t.Error("Revision() should change when a template changes")
	}

	writeFile(t, root, "src/app/heroes/heroes.module.ts", "export class HeroesModule {}\n")
	if third := loadWorkspace(t, root).Revision(); third == second {
		t.Error("Revision() should change when a source file is added")
	}
}

func TestEngineIntegration(t *testing.T) {
	root := heroesProject(t)
	e := engine.New(engine.Options{Loader: NewLoader(nil)})
	defer e.Close()

	if err := e.Load(context.Background(), root); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg := e.Data()
	if cfg == nil || cfg.Title != "AppModule" {
		t.Fatalf("Data() = %+v, want the AppModule tree", cfg)
	}

	out, err := e.DirectTransition("src/app/app.component.ts#AppComponent")
	if err != nil || out != states.Resolved {
		t.Fatalf("DirectTransition(AppComponent) = %v, %v", out, err)
	}
	out, err = e.DirectTransition("src/app/app.component.ts#AppComponent-template")
	if err != nil || out != states.Resolved {
		t.Fatalf("DirectTransition(template) = %v, %v", out, err)
	}
	if _, ok := e.Data().Graph.Node("el-1"); !ok {
		t.Error("template graph misses the <app-hero> element")
	}

	if err := e.Load(context.Background(), filepath.Join(root, "missing")); err == nil {
		t.Error("Load(missing) should fail")
	}
}
