package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ngrev/internal/channel"
	"ngrev/internal/client"
	"ngrev/internal/engine"
	"ngrev/internal/model"
	"ngrev/internal/model/modeltest"
	"ngrev/internal/project"
	"ngrev/internal/watcher"
	"ngrev/internal/worker"
)

const (
	demoProject = "demo/ngrev.yaml"
	sharedID    = "src/app/shared.module.ts#SharedModule"
)

func newBrowser(t *testing.T) (*browser, *bytes.Buffer) {
	t.Helper()

	hero := modeltest.NewComponent("HeroComponent", "src/app/hero.component.ts", "app-hero")
	root := modeltest.NewComponent("AppComponent", "src/app/app.component.ts", "app-root")
	shared := modeltest.NewModule("SharedModule", "src/app/shared.module.ts")
	shared.DeclarationList = []model.SymbolRef{model.ComponentRef{Component: hero}}
	app := modeltest.NewModule("AppModule", "src/app/app.module.ts")
	app.ImportList = []model.Module{shared}
	app.DeclarationList = []model.SymbolRef{model.ComponentRef{Component: root}}
	app.BootstrapList = []model.Directive{root}
	ws := &modeltest.Workspace{
		ModuleList:    []model.Module{app, shared},
		DirectiveList: []model.Directive{root, hero},
	}

	e := engine.New(engine.Options{
		Loader: modeltest.Loader(map[string]model.Workspace{demoProject: ws}, nil),
	})
	ch := channel.NewLocal(worker.NewMux(e, nil), nil)
	t.Cleanup(func() {
		_ = ch.Close()
		e.Close()
	})

	sm, err := client.NewStateManager(ch, client.Options{})
	if err != nil {
		t.Fatalf("NewStateManager() error = %v", err)
	}
	var out bytes.Buffer
	return &browser{sm: sm, out: &out, format: FormatHuman}, &out
}

func TestBrowser_Session(t *testing.T) {
	b, out := newBrowser(t)
	ctx := context.Background()

	steps := []struct {
		line string
		want string
	}{
		{"load " + demoProject, "AppModule"},
		{"go " + sharedID, "AppModule > SharedModule"},
		{"crumbs", "  2. SharedModule"},
		{"back", "AppModule"},
		{"go nowhere", "nowhere cannot be opened from here"},
		{"search hero", "HeroComponent [directive]"},
		{"meta " + sharedID, "src/app/shared.module.ts"},
		{"modules", "modulesOnly=true"},
		{"help", "restore <n>"},
	}
	for _, step := range steps {
		out.Reset()
		quit, err := b.exec(ctx, step.line)
		if err != nil {
			t.Fatalf("exec(%q) error = %v", step.line, err)
		}
		if quit {
			t.Fatalf("exec(%q) ended the session", step.line)
		}
		if !strings.Contains(out.String(), step.want) {
			t.Errorf("exec(%q) output = %q, want it to contain %q", step.line, out.String(), step.want)
		}
	}
}

func TestBrowser_Restore(t *testing.T) {
	b, _ := newBrowser(t)
	ctx := context.Background()
	for _, line := range []string{"load " + demoProject, "go " + sharedID, "app"} {
		if _, err := b.exec(ctx, line); err != nil {
			t.Fatalf("exec(%q) error = %v", line, err)
		}
	}
	if got := b.sm.Len(); got != 3 {
		t.Fatalf("history = %d, want 3", got)
	}

	if _, err := b.exec(ctx, "restore 1"); err != nil {
		t.Fatalf("restore error = %v", err)
	}
	if got := b.sm.Len(); got != 1 {
		t.Errorf("history after restore = %d, want 1", got)
	}
	if _, err := b.exec(ctx, "restore 7"); err == nil {
		t.Error("restore out of range should fail")
	}
}

func TestBrowser_Errors(t *testing.T) {
	b, _ := newBrowser(t)
	ctx := context.Background()

	tests := []struct {
		line    string
		wantErr bool
		quit    bool
	}{
		{"", false, false},
		{"dance", true, false},
		{"load", true, false},
		{"load missing.yaml", true, false},
		{"go", true, false},
		{"quit", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			quit, err := b.exec(ctx, tt.line)
			if (err != nil) != tt.wantErr {
				t.Errorf("exec(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if quit != tt.quit {
				t.Errorf("exec(%q) quit = %v, want %v", tt.line, quit, tt.quit)
			}
		})
	}
}

const watchedManifest = `name: watched
modules:
  - name: AppModule
    path: src/app/app.module.ts
    declarations: [AppComponent]
    bootstrap: [AppComponent]
components:
  - name: AppComponent
    path: src/app/app.component.ts
    selector: app-root
    template: "<h1>Heroes</h1>"
`

const watchedManifestShared = `name: watched
modules:
  - name: AppModule
    path: src/app/app.module.ts
    imports: [SharedModule]
    declarations: [AppComponent]
    bootstrap: [AppComponent]
  - name: SharedModule
    path: src/app/shared.module.ts
components:
  - name: AppComponent
    path: src/app/app.component.ts
    selector: app-root
    template: "<h1>Heroes</h1>"
`

func TestBrowser_WatchReload(t *testing.T) {
	root := t.TempDir()
	manifest := filepath.Join(root, "ngrev.yaml")
	if err := os.WriteFile(manifest, []byte(watchedManifest), 0644); err != nil {
		t.Fatal(err)
	}

	e := engine.New(engine.Options{Loader: project.NewLoader(nil)})
	ch := channel.NewLocal(worker.NewMux(e, nil), nil)
	sm, err := client.NewStateManager(ch, client.Options{})
	if err != nil {
		t.Fatalf("NewStateManager() error = %v", err)
	}
	var out bytes.Buffer
	b := &browser{sm: sm, out: &out, format: FormatHuman}
	ctx := context.Background()
	b.watcher = watcher.New(watcher.Config{
		DebounceMs:   20,
		PollInterval: 10 * time.Millisecond,
	}, nil, func(root string, events []watcher.Event) {
		b.reload(ctx, root, events)
	})
	t.Cleanup(func() {
		b.watcher.Stop()
		_ = ch.Close()
		e.Close()
	})

	b.mu.Lock()
	for _, line := range []string{"load " + root, "go src/app/app.component.ts#AppComponent"} {
		if _, err := b.exec(ctx, line); err != nil {
			b.mu.Unlock()
			t.Fatalf("exec(%q) error = %v", line, err)
		}
	}
	if b.watchedRoot == "" {
		t.Error("load did not start watching the project")
	}
	if got := b.sm.Len(); got != 2 {
		t.Errorf("history = %d, want 2", got)
	}
	out.Reset()
	b.mu.Unlock()

	if err := os.WriteFile(manifest, []byte(watchedManifestShared), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		b.mu.Lock()
		text := out.String()
		b.mu.Unlock()
		if strings.Contains(text, "SharedModule") {
			if !strings.Contains(text, "reloading "+root) {
				t.Errorf("output = %q, want a reload notice", text)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no reload after the manifest changed, output = %q", text)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := b.sm.Len(); got != 1 {
		t.Errorf("history after reload = %d, want 1", got)
	}
}
