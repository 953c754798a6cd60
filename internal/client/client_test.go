package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"ngrev/internal/channel"
	"ngrev/internal/engine"
	"ngrev/internal/errors"
	"ngrev/internal/model"
	"ngrev/internal/model/modeltest"
	"ngrev/internal/worker"
)

const (
	project  = "demo/tsconfig.json"
	appID    = "src/app/app.module.ts#AppModule"
	sharedID = "src/app/shared.module.ts#SharedModule"
	rootID   = "src/app/app.component.ts#AppComponent"
	heroID   = "src/app/hero.component.ts#HeroComponent"
)

// gatedChannel holds direct-state-transition requests until released. A
// transition to lose reaches the worker but its reply is dropped.
type gatedChannel struct {
	channel.Channel
	entered chan string
	release chan struct{}
	lose    string
	// beforeMetadata runs once before the next get-metadata request.
	beforeMetadata func()
}

func (g *gatedChannel) Send(ctx context.Context, topic string, payload interface{}) (*channel.Response, error) {
	if topic == worker.TopicDirectTransition && g.release != nil {
		g.entered <- payload.(worker.NodeRequest).ID
		<-g.release
	}
	if topic == worker.TopicGetMetadata && g.beforeMetadata != nil {
		hook := g.beforeMetadata
		g.beforeMetadata = nil
		hook()
	}
	resp, err := g.Channel.Send(ctx, topic, payload)
	if err == nil && topic == worker.TopicDirectTransition && payload.(worker.NodeRequest).ID == g.lose {
		return nil, context.DeadlineExceeded
	}
	return resp, err
}

func newWorkspace() model.Workspace {
	hero := modeltest.NewComponent("HeroComponent", "src/app/hero.component.ts", "app-hero")
	root := modeltest.NewComponent("AppComponent", "src/app/app.component.ts", "app-root")

	shared := modeltest.NewModule("SharedModule", "src/app/shared.module.ts")
	shared.DeclarationList = []model.SymbolRef{model.ComponentRef{Component: hero}}

	app := modeltest.NewModule("AppModule", "src/app/app.module.ts")
	app.ImportList = []model.Module{shared}
	app.DeclarationList = []model.SymbolRef{model.ComponentRef{Component: root}}
	app.BootstrapList = []model.Directive{root}

	return &modeltest.Workspace{
		ModuleList:    []model.Module{app, shared},
		DirectiveList: []model.Directive{root, hero},
	}
}

type harness struct {
	engine *engine.Engine
	gate   *gatedChannel
	sm     *StateManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	e := engine.New(engine.Options{
		Loader: modeltest.Loader(map[string]model.Workspace{project: newWorkspace()}, nil),
	})
	local := channel.NewLocal(worker.NewMux(e, nil), nil)
	gate := &gatedChannel{Channel: local}
	sm, err := NewStateManager(gate, Options{MetadataEntries: 16})
	if err != nil {
		t.Fatalf("NewStateManager() error = %v", err)
	}
	t.Cleanup(func() {
		_ = local.Close()
		e.Close()
	})
	if _, err := sm.Load(context.Background(), project); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return &harness{engine: e, gate: gate, sm: sm}
}

func (h *harness) mustNavigate(t *testing.T, id string) *Memento {
	t.Helper()
	mem, err := h.sm.Navigate(context.Background(), id)
	if err != nil {
		t.Fatalf("Navigate(%s) error = %v", id, err)
	}
	if mem == nil {
		t.Fatalf("Navigate(%s) = nil, want a memento", id)
	}
	return mem
}

func (h *harness) assertMirrored(t *testing.T, want int) {
	t.Helper()
	if got := h.sm.Len(); got != want {
		t.Errorf("client history = %d, want %d", got, want)
	}
	if got := h.engine.HistoryLen(); got != want {
		t.Errorf("engine history = %d, want %d", got, want)
	}
}

func (h *harness) waiters() int {
	h.sm.mu.Lock()
	defer h.sm.mu.Unlock()
	if h.sm.pending == nil {
		return -1
	}
	return h.sm.pending.waiters
}

func TestLoad(t *testing.T) {
	h := newHarness(t)
	h.assertMirrored(t, 1)
	if got := h.sm.Current().Title(); got != "AppModule" {
		t.Errorf("Current().Title() = %q, want AppModule", got)
	}

	_, err := h.sm.Load(context.Background(), "missing.json")
	if !errors.Is(err, errors.LoadFailed) {
		t.Fatalf("Load(missing) error = %v, want %v", err, errors.LoadFailed)
	}
	h.assertMirrored(t, 0)
}

func TestNavigate_SingleFlight(t *testing.T) {
	h := newHarness(t)
	h.gate.entered = make(chan string, 1)
	h.gate.release = make(chan struct{})
	ctx := context.Background()

	type result struct {
		mem *Memento
		err error
	}
	results := make(chan result, 2)
	var wg sync.WaitGroup
	navigate := func() {
		defer wg.Done()
		mem, err := h.sm.Navigate(ctx, sharedID)
		results <- result{mem, err}
	}

	wg.Add(1)
	go navigate()
	if id := <-h.gate.entered; id != sharedID {
		t.Fatalf("in-flight id = %s, want %s", id, sharedID)
	}

	wg.Add(1)
	go navigate()
	deadline := time.Now().Add(2 * time.Second)
	for h.waiters() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("second request never joined the transition")
		}
		time.Sleep(time.Millisecond)
	}

	// a different target is rejected right away
	if _, err := h.sm.Navigate(ctx, rootID); !errors.Is(err, errors.TransitionPending) {
		t.Errorf("Navigate(other) error = %v, want %v", err, errors.TransitionPending)
	}
	if _, err := h.sm.Back(ctx); !errors.Is(err, errors.TransitionPending) {
		t.Errorf("Back() error = %v, want %v", err, errors.TransitionPending)
	}

	close(h.gate.release)
	wg.Wait()
	close(results)

	var mems []*Memento
	for r := range results {
		if r.err != nil {
			t.Fatalf("Navigate() error = %v", r.err)
		}
		mems = append(mems, r.mem)
	}
	if len(mems) != 2 || mems[0] == nil || mems[0] != mems[1] {
		t.Fatalf("joined requests got %v, want the same memento", mems)
	}
	if mems[0].Title() != "SharedModule" {
		t.Errorf("Title() = %q, want SharedModule", mems[0].Title())
	}
	h.assertMirrored(t, 2)
}

func TestNavigate_Unavailable(t *testing.T) {
	h := newHarness(t)

	mem, err := h.sm.Navigate(context.Background(), appID+"-declarations")
	if err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	if mem != nil {
		t.Errorf("Navigate(placeholder) = %v, want nil", mem)
	}
	h.assertMirrored(t, 1)
}

func TestBack(t *testing.T) {
	h := newHarness(t)
	first := h.sm.Current()
	h.mustNavigate(t, sharedID)

	mem, err := h.sm.Back(context.Background())
	if err != nil {
		t.Fatalf("Back() error = %v", err)
	}
	if mem != first {
		t.Error("Back() did not return the first memento")
	}
	h.assertMirrored(t, 1)

	mem, err = h.sm.Back(context.Background())
	if err != nil || mem != nil {
		t.Errorf("Back() at root = %v, %v, want nil, nil", mem, err)
	}
	h.assertMirrored(t, 1)
}

func TestNavigate_LostReply(t *testing.T) {
	ctx := context.Background()

	t.Run("next push pads history", func(t *testing.T) {
		h := newHarness(t)
		h.gate.lose = sharedID
		if _, err := h.sm.Navigate(ctx, sharedID); err == nil {
			t.Fatal("Navigate() error = nil, want the dropped reply")
		}
		h.gate.lose = ""

		h.mustNavigate(t, heroID)
		h.assertMirrored(t, 3)
		if got := h.sm.History()[1]; !got.Dirty {
			t.Error("the state behind the lost reply should be dirty")
		}

		mem, err := h.sm.Back(ctx)
		if err != nil {
			t.Fatalf("Back() error = %v", err)
		}
		if mem.Dirty || mem.Title() != "SharedModule" {
			t.Errorf("Back() = %q (dirty %v), want a refreshed SharedModule", mem.Title(), mem.Dirty)
		}
		h.assertMirrored(t, 2)
	})

	t.Run("back follows the engine", func(t *testing.T) {
		h := newHarness(t)
		first := h.sm.Current()
		h.gate.lose = sharedID
		if _, err := h.sm.Navigate(ctx, sharedID); err == nil {
			t.Fatal("Navigate() error = nil, want the dropped reply")
		}
		h.gate.lose = ""

		mem, err := h.sm.Back(ctx)
		if err != nil {
			t.Fatalf("Back() error = %v", err)
		}
		if mem != first {
			t.Errorf("Back() = %q, want the first memento", mem.Title())
		}
		h.assertMirrored(t, 1)
	})
}

func TestRestoreMemento(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.sm.Current()
	second := h.mustNavigate(t, sharedID)
	h.mustNavigate(t, heroID)
	h.assertMirrored(t, 3)

	t.Run("foreign memento", func(t *testing.T) {
		err := h.sm.RestoreMemento(ctx, &Memento{})
		if !errors.Is(err, errors.HistoryDesync) {
			t.Errorf("RestoreMemento() error = %v, want %v", err, errors.HistoryDesync)
		}
		h.assertMirrored(t, 3)
	})

	t.Run("breadcrumbs", func(t *testing.T) {
		got := h.sm.Breadcrumbs()
		want := []string{"AppModule", "SharedModule", "HeroComponent"}
		if len(got) != len(want) {
			t.Fatalf("Breadcrumbs() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Breadcrumbs()[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("top is a no-op", func(t *testing.T) {
		if err := h.sm.RestoreMemento(ctx, h.sm.Current()); err != nil {
			t.Fatalf("RestoreMemento() error = %v", err)
		}
		h.assertMirrored(t, 3)
	})

	t.Run("lockstep pops", func(t *testing.T) {
		if err := h.sm.RestoreMemento(ctx, second); err != nil {
			t.Fatalf("RestoreMemento() error = %v", err)
		}
		h.assertMirrored(t, 2)
		if err := h.sm.RestoreMemento(ctx, first); err != nil {
			t.Fatalf("RestoreMemento() error = %v", err)
		}
		h.assertMirrored(t, 1)
		if h.sm.Current() != first {
			t.Error("Current() is not the restored memento")
		}
	})
}

func TestToggleMarksDirty(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	app, err := h.sm.ShowApplication(ctx)
	if err != nil {
		t.Fatalf("ShowApplication() error = %v", err)
	}
	h.assertMirrored(t, 2)
	full := app.Config.Graph.Stats().TotalNodes

	view, err := h.sm.ToggleModulesOnly(ctx)
	if err != nil {
		t.Fatalf("ToggleModulesOnly() error = %v", err)
	}
	if !view.ModulesOnly {
		t.Fatal("ModulesOnly = false after toggle")
	}
	if app.Dirty {
		t.Error("top memento should be refreshed after a toggle")
	}
	if got := app.Config.Graph.Stats().TotalNodes; got >= full {
		t.Errorf("modules-only nodes = %d, want fewer than %d", got, full)
	}

	history := h.sm.History()
	if !history[0].Dirty {
		t.Error("older mementos should be marked dirty")
	}
	mem, err := h.sm.Back(ctx)
	if err != nil {
		t.Fatalf("Back() error = %v", err)
	}
	if mem.Dirty {
		t.Error("Back() should refresh a dirty memento")
	}
}

func TestMetadataCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	md, err := h.sm.Metadata(ctx, appID)
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if md == nil || md.FilePath != "src/app/app.module.ts" {
		t.Fatalf("Metadata() = %+v, want AppModule metadata", md)
	}
	if _, ok := h.sm.metadata.Get(appID); !ok {
		t.Error("metadata was not cached")
	}

	h.mustNavigate(t, sharedID)
	if h.sm.metadata.Len() != 0 {
		t.Errorf("cache entries after navigation = %d, want 0", h.sm.metadata.Len())
	}
}

func TestMetadataCache_HistoryChangedInFlight(t *testing.T) {
	h := newHarness(t)
	h.gate.beforeMetadata = func() { h.mustNavigate(t, sharedID) }

	if _, err := h.sm.Metadata(context.Background(), appID); err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	h.assertMirrored(t, 2)
	if _, ok := h.sm.metadata.Get(appID); ok {
		t.Error("metadata requested for the previous graph was cached")
	}
}

func TestSymbolsAndSearch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	symbols, err := h.sm.Symbols(ctx)
	if err != nil {
		t.Fatalf("Symbols() error = %v", err)
	}
	if len(symbols) != 4 {
		t.Errorf("len(Symbols()) = %d, want 4", len(symbols))
	}

	results, err := h.sm.Search(ctx, "hero", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].ID != heroID {
		t.Errorf("Search(hero) = %+v, want %s", results, heroID)
	}
}
