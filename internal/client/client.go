// Package client is the UI side of the worker channel. StateManager keeps a
// history of mementos that mirrors the engine's history, lets at most one
// navigation run at a time, and caches node metadata for the current graph.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/golang-lru/v2"

	"ngrev/internal/channel"
	"ngrev/internal/errors"
	"ngrev/internal/graph"
	"ngrev/internal/identity"
	"ngrev/internal/index"
	"ngrev/internal/slogutil"
	"ngrev/internal/states"
	"ngrev/internal/storage"
	"ngrev/internal/worker"
)

// DefaultMetadataEntries is the metadata cache size used when Options leave
// it unset.
const DefaultMetadataEntries = 512

// Memento is a rendered graph from history. Dirty means the graph must be
// fetched again before it is shown.
type Memento struct {
	Config graph.VisualizationConfig `json:"config"`
	Dirty  bool                      `json:"dirty"`
}

// Title is the breadcrumb label of the memento.
func (m *Memento) Title() string {
	if m == nil {
		return ""
	}
	return m.Config.Title
}

// Options configures a StateManager.
type Options struct {
	Logger          *slog.Logger
	MetadataEntries int
}

// flight is the mutating request in progress.
type flight struct {
	key      string
	joinable bool
	waiters  int
	done     chan struct{}
	memento  *Memento
	err      error
}

// StateManager drives navigation over a channel.
type StateManager struct {
	ch     channel.Channel
	logger *slog.Logger

	mu       sync.Mutex
	history  []*Memento
	pending  *flight
	metadata *lru.Cache[string, *identity.Metadata]
	// gen counts metadata purges; replies from an older generation are
	// not cached.
	gen uint64
}

// NewStateManager creates a manager with an empty history.
func NewStateManager(ch channel.Channel, opts Options) (*StateManager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	size := opts.MetadataEntries
	if size <= 0 {
		size = DefaultMetadataEntries
	}
	cache, err := lru.New[string, *identity.Metadata](size)
	if err != nil {
		return nil, err
	}
	return &StateManager{ch: ch, logger: logger, metadata: cache}, nil
}

// begin claims the flight slot for key. A joinable flight with the same key
// is shared; anything else in flight is a rejection.
func (m *StateManager) begin(key string, joinable bool) (f *flight, leader bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p := m.pending; p != nil {
		if joinable && p.joinable && p.key == key {
			p.waiters++
			return p, false, nil
		}
		return nil, false, errors.Newf(errors.TransitionPending, "%s is pending", p.key)
	}
	f = &flight{key: key, joinable: joinable, done: make(chan struct{})}
	m.pending = f
	return f, true, nil
}

func (m *StateManager) finish(f *flight, mem *Memento, err error) {
	m.mu.Lock()
	f.memento, f.err = mem, err
	m.pending = nil
	m.mu.Unlock()
	close(f.done)

	if f.waiters > 0 {
		m.logger.Debug("Shared navigation result",
			"key", f.key,
			"waiters", f.waiters,
		)
	}
}

func wait(ctx context.Context, f *flight) (*Memento, error) {
	select {
	case <-f.done:
		return f.memento, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *StateManager) call(ctx context.Context, topic string, payload, out interface{}) error {
	resp, err := m.ch.Send(ctx, topic, payload)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// fetch asks the engine for the current graph.
func (m *StateManager) fetch(ctx context.Context) (*Memento, error) {
	var cfg *graph.VisualizationConfig
	if err := m.call(ctx, worker.TopicGetData, nil, &cfg); err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errors.New(errors.ProjectNotLoaded, "no graph to show", nil)
	}
	return &Memento{Config: *cfg}, nil
}

// Load loads a project and resets history to its initial graph.
func (m *StateManager) Load(ctx context.Context, path string) (*Memento, error) {
	f, _, err := m.begin("load "+path, false)
	if err != nil {
		return nil, err
	}
	mem, err := m.load(ctx, path)
	m.finish(f, mem, err)
	return mem, err
}

func (m *StateManager) load(ctx context.Context, path string) (*Memento, error) {
	m.reset(nil)
	if err := m.call(ctx, worker.TopicLoadProject, worker.LoadProjectRequest{Path: path}, nil); err != nil {
		return nil, err
	}
	mem, err := m.fetch(ctx)
	if err != nil {
		return nil, err
	}
	m.reset(mem)
	return mem, nil
}

func (m *StateManager) reset(first *Memento) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = nil
	if first != nil {
		m.history = append(m.history, first)
	}
	m.purgeLocked()
}

// Navigate transitions to the state behind node id. Concurrent calls for the
// same id share one transition and its result; a call for another id while
// one is in flight fails with TRANSITION_PENDING. A nil memento with a nil
// error means the node leads nowhere.
func (m *StateManager) Navigate(ctx context.Context, id string) (*Memento, error) {
	f, leader, err := m.begin(id, true)
	if err != nil {
		return nil, err
	}
	if !leader {
		return wait(ctx, f)
	}
	mem, err := m.navigate(ctx, id)
	m.finish(f, mem, err)
	return mem, err
}

func (m *StateManager) navigate(ctx context.Context, id string) (*Memento, error) {
	var nav worker.NavigationResult
	if err := m.call(ctx, worker.TopicDirectTransition, worker.NodeRequest{ID: id}, &nav); err != nil {
		return nil, err
	}
	if !nav.Available {
		m.logger.Debug("Transition unavailable", "id", id, "outcome", nav.Outcome)
		return nil, nil
	}

	mem, err := m.fetch(ctx)
	if err != nil {
		// The engine moved; keep the lengths in step and refetch later.
		m.push(&Memento{Dirty: true}, nav.HistoryLen)
		return nil, err
	}
	m.push(mem, nav.HistoryLen)
	return mem, nil
}

func (m *StateManager) push(mem *Memento, engineLen int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked()
	if lost := engineLen - len(m.history) - 1; lost > 0 {
		// The engine moved on requests whose replies never arrived; those
		// states sit below mem and are fetched when revisited.
		m.logger.Warn("Client history behind engine",
			"client", len(m.history),
			"engine", engineLen,
		)
		for i := 0; i < lost; i++ {
			m.history = append(m.history, &Memento{Dirty: true})
		}
	}
	m.history = append(m.history, mem)
	if engineLen != len(m.history) {
		m.logger.Warn("History length differs from engine",
			"client", len(m.history),
			"engine", engineLen,
		)
	}
}

// align trims or pads history to the engine's length after a pop and
// returns the new top. A padded top is dirty.
func (m *StateManager) align(engineLen int) *Memento {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked()
	for len(m.history) > engineLen {
		m.history[len(m.history)-1] = nil
		m.history = m.history[:len(m.history)-1]
	}
	for len(m.history) < engineLen {
		m.history = append(m.history, &Memento{Dirty: true})
	}
	if len(m.history) == 0 {
		return nil
	}
	return m.history[len(m.history)-1]
}

func (m *StateManager) purgeLocked() {
	m.metadata.Purge()
	m.gen++
}

// pop drops the top memento and returns the new top.
func (m *StateManager) pop() *Memento {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) > 0 {
		m.history[len(m.history)-1] = nil
		m.history = m.history[:len(m.history)-1]
	}
	m.purgeLocked()
	if len(m.history) == 0 {
		return nil
	}
	return m.history[len(m.history)-1]
}

// Back goes to the previous memento. It returns nil at the root of history.
func (m *StateManager) Back(ctx context.Context) (*Memento, error) {
	f, _, err := m.begin("back", false)
	if err != nil {
		return nil, err
	}
	mem, err := m.back(ctx)
	m.finish(f, mem, err)
	return mem, err
}

func (m *StateManager) back(ctx context.Context) (*Memento, error) {
	var nav worker.NavigationResult
	if err := m.call(ctx, worker.TopicPrevState, nil, &nav); err != nil {
		return nil, err
	}
	if !nav.Available {
		return nil, nil
	}
	top := m.align(nav.HistoryLen)
	if top == nil {
		return nil, errors.New(errors.HistoryDesync, "engine went back past the client history", nil)
	}
	return m.refreshIfDirty(ctx, top)
}

// RestoreMemento pops client and engine history together until target is on
// top. Target must be in history.
func (m *StateManager) RestoreMemento(ctx context.Context, target *Memento) error {
	f, _, err := m.begin("restore", false)
	if err != nil {
		return err
	}
	mem, err := m.restore(ctx, target)
	m.finish(f, mem, err)
	return err
}

func (m *StateManager) restore(ctx context.Context, target *Memento) (*Memento, error) {
	m.mu.Lock()
	depth := -1
	for i, mem := range m.history {
		if mem == target {
			depth = i
			break
		}
	}
	pops := len(m.history) - 1 - depth
	m.mu.Unlock()

	if depth < 0 {
		return nil, errors.New(errors.HistoryDesync, "memento is not in history", nil).
			WithDetails(map[string]string{"title": target.Title()})
	}

	for i := 0; i < pops; i++ {
		var nav worker.NavigationResult
		if err := m.call(ctx, worker.TopicPrevState, nil, &nav); err != nil {
			return nil, err
		}
		if !nav.Available {
			return nil, errors.Newf(errors.HistoryDesync, "engine history ended %d states early", pops-i)
		}
		m.pop()
	}
	return m.refreshIfDirty(ctx, target)
}

func (m *StateManager) refreshIfDirty(ctx context.Context, mem *Memento) (*Memento, error) {
	m.mu.Lock()
	dirty := mem.Dirty
	m.mu.Unlock()
	if !dirty {
		return mem, nil
	}
	fresh, err := m.fetch(ctx)
	if err != nil {
		return mem, err
	}
	m.mu.Lock()
	mem.Config = fresh.Config
	mem.Dirty = false
	m.mu.Unlock()
	return mem, nil
}

// ShowApplication opens the application view.
func (m *StateManager) ShowApplication(ctx context.Context) (*Memento, error) {
	f, _, err := m.begin("show-application", false)
	if err != nil {
		return nil, err
	}
	mem, err := m.showApplication(ctx)
	m.finish(f, mem, err)
	return mem, err
}

func (m *StateManager) showApplication(ctx context.Context) (*Memento, error) {
	var res worker.ViewResult
	if err := m.call(ctx, worker.TopicShowApplication, nil, &res); err != nil {
		return nil, err
	}
	mem, err := m.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if res.HistoryLen == m.Len() {
		// already on top
		m.mu.Lock()
		top := m.history[len(m.history)-1]
		top.Config, top.Dirty = mem.Config, false
		m.mu.Unlock()
		return top, nil
	}
	m.push(mem, res.HistoryLen)
	return mem, nil
}

// ToggleLibs flips the third-party filter of the application view.
func (m *StateManager) ToggleLibs(ctx context.Context) (states.AppOptions, error) {
	return m.toggle(ctx, worker.TopicToggleLibs)
}

// ToggleModulesOnly flips the modules-only filter of the application view.
func (m *StateManager) ToggleModulesOnly(ctx context.Context) (states.AppOptions, error) {
	return m.toggle(ctx, worker.TopicToggleModulesOnly)
}

// toggle marks every memento dirty, since any of them may show the
// application view, and refreshes the top one.
func (m *StateManager) toggle(ctx context.Context, topic string) (states.AppOptions, error) {
	f, _, err := m.begin(topic, false)
	if err != nil {
		return states.AppOptions{}, err
	}
	var res worker.ViewResult
	err = m.call(ctx, topic, nil, &res)
	var top *Memento
	if err == nil {
		m.mu.Lock()
		for _, mem := range m.history {
			mem.Dirty = true
		}
		m.purgeLocked()
		m.mu.Unlock()
		if cur := m.Current(); cur != nil {
			top, err = m.refreshIfDirty(ctx, cur)
		}
	}
	m.finish(f, top, err)
	return res.View, err
}

// Metadata describes a node of the current graph. Results are cached until
// history changes.
func (m *StateManager) Metadata(ctx context.Context, id string) (*identity.Metadata, error) {
	if md, ok := m.metadata.Get(id); ok {
		return md, nil
	}
	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()

	var md *identity.Metadata
	if err := m.call(ctx, worker.TopicGetMetadata, worker.NodeRequest{ID: id}, &md); err != nil {
		return nil, err
	}
	m.mu.Lock()
	if m.gen == gen {
		m.metadata.Add(id, md)
	}
	m.mu.Unlock()
	return md, nil
}

// Symbols lists every indexed symbol of the loaded project.
func (m *StateManager) Symbols(ctx context.Context) ([]index.SymbolInfo, error) {
	var out []index.SymbolInfo
	if err := m.call(ctx, worker.TopicGetSymbols, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search finds symbols for a deep-link jump.
func (m *StateManager) Search(ctx context.Context, query string, limit int) ([]storage.SearchResult, error) {
	var out []storage.SearchResult
	if err := m.call(ctx, worker.TopicSearchSymbols, worker.SearchRequest{Query: query, Limit: limit}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Refresh refetches the top memento if it is dirty.
func (m *StateManager) Refresh(ctx context.Context) (*Memento, error) {
	cur := m.Current()
	if cur == nil {
		return nil, nil
	}
	return m.refreshIfDirty(ctx, cur)
}

// Current returns the top memento, or nil before a load.
func (m *StateManager) Current() *Memento {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return nil
	}
	return m.history[len(m.history)-1]
}

// History returns the mementos from the initial graph to the current one.
func (m *StateManager) History() []*Memento {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Memento, len(m.history))
	copy(out, m.history)
	return out
}

// Len returns the history length.
func (m *StateManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// Breadcrumbs returns the titles of the history, oldest first.
func (m *StateManager) Breadcrumbs() []string {
	history := m.History()
	out := make([]string, len(history))
	for i, mem := range history {
		out[i] = mem.Title()
		if out[i] == "" {
			out[i] = fmt.Sprintf("#%d", i+1)
		}
	}
	return out
}
