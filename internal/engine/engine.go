// Package engine is the navigation engine. It owns the loaded project, the
// symbol index and the history of states, and answers every request the
// worker forwards to it.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"ngrev/internal/errors"
	"ngrev/internal/graph"
	"ngrev/internal/identity"
	"ngrev/internal/index"
	"ngrev/internal/model"
	"ngrev/internal/slogutil"
	"ngrev/internal/states"
	"ngrev/internal/storage"
)

// DefaultSearchLimit caps search results when the caller passes no limit.
const DefaultSearchLimit = 20

// Options configures an Engine.
type Options struct {
	Loader model.Loader
	Logger *slog.Logger
	// View is the initial application view filter.
	View states.AppOptions
	// SearchDir is the root of the search caches. Empty disables the cache;
	// Search then scans the symbol index in memory.
	SearchDir string
}

// Engine is the navigation coordinator. All methods are safe for concurrent
// use and are serialized.
type Engine struct {
	mu        sync.Mutex
	loader    model.Loader
	logger    *slog.Logger
	view      *states.AppOptions
	searchDir string

	project string
	ctx     *states.Context
	index   *index.Index
	history []states.State
	search  *storage.SearchIndex

	// fresh is true once the top state has built the graph its arena
	// describes.
	fresh bool
}

// New creates an engine with no project loaded.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	view := opts.View
	return &Engine{
		loader:    opts.Loader,
		logger:    logger,
		view:      &view,
		searchDir: opts.SearchDir,
		index:     index.New(nil, logger),
	}
}

// Load tears down the current project and loads the one at path. On any
// failure the history is left empty.
func (e *Engine) Load(ctx context.Context, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.teardownLocked()

	if err := e.loadLocked(ctx, path); err != nil {
		e.teardownLocked()
		e.logger.Warn("Project load failed",
			"project", path,
			"code", string(errors.CodeOf(err)),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (e *Engine) loadLocked(ctx context.Context, path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.LoadFailed, "loading %s: %v", path, r)
		}
	}()

	if e.loader == nil {
		return errors.New(errors.LoadFailed, "no compiler model configured", nil)
	}

	start := time.Now()
	ws, err := e.loader.Load(ctx, path)
	if err != nil {
		return errors.New(errors.LoadFailed, "loading "+path, err)
	}
	if ws == nil {
		return errors.Newf(errors.LoadFailed, "loading %s: empty workspace", path)
	}

	var root model.Module
	for _, m := range ws.Modules() {
		if len(m.Bootstrap()) > 0 {
			root = m
			break
		}
	}
	if root == nil {
		return errors.Newf(errors.NoBootstrapModule, "no module in %s declares a bootstrap component", path)
	}

	sctx := states.NewContext(ws, e.logger, e.view)
	e.ctx = sctx
	e.project = path
	e.index.Reset(sctx)
	e.history = append(e.history, states.NewModuleTreeState(sctx, root))

	e.logger.Info("Project loaded",
		"project", path,
		"root", identity.ID(root),
		"modules", sctx.IndexedModules(),
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)

	e.syncSearchLocked(ctx, ws)
	return nil
}

// syncSearchLocked refreshes the search cache. Cache failures only disable it.
func (e *Engine) syncSearchLocked(ctx context.Context, ws model.Workspace) {
	if e.searchDir == "" {
		return
	}
	si, err := storage.OpenSearchIndex(e.searchDir, e.project, e.logger)
	if err != nil {
		e.logger.Warn("Search cache unavailable", "error", err.Error())
		return
	}

	var revision string
	if rv, ok := ws.(model.Revisioned); ok {
		revision = rv.Revision()
	}
	symbols := e.index.Symbols()
	records := make([]storage.SymbolRecord, 0, len(symbols))
	for _, s := range symbols {
		records = append(records, storage.SymbolRecord{
			ID:       s.ID,
			Name:     s.Name,
			Kind:     string(s.Kind),
			FilePath: s.Path,
		})
	}
	if err := si.Sync(ctx, revision, records); err != nil {
		e.logger.Warn("Search cache sync failed", "error", err.Error())
		_ = si.Close()
		return
	}
	e.search = si
}

// teardownLocked destroys every state, drops the index and closes the
// project context.
func (e *Engine) teardownLocked() {
	for i := len(e.history) - 1; i >= 0; i-- {
		e.history[i].Destroy()
	}
	e.history = nil
	e.fresh = false
	e.index.Reset(nil)
	if e.ctx != nil {
		e.ctx.Close()
		e.ctx = nil
	}
	if e.search != nil {
		if err := e.search.Close(); err != nil {
			e.logger.Warn("Closing search cache", "error", err.Error())
		}
		e.search = nil
	}
	e.project = ""
}

// Close releases the loaded project.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.teardownLocked()
}

// Project returns the path of the loaded project.
func (e *Engine) Project() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.project
}

// HistoryLen returns the number of states in history.
func (e *Engine) HistoryLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.history)
}

func (e *Engine) topLocked() states.State {
	if len(e.history) == 0 {
		return nil
	}
	return e.history[len(e.history)-1]
}

func (e *Engine) pushLocked(s states.State) {
	e.history = append(e.history, s)
	e.fresh = false
}

// renderLocked makes sure the top state's arena matches its graph, so ids
// taken from that graph resolve.
func (e *Engine) renderLocked() states.State {
	top := e.topLocked()
	if top != nil && !e.fresh {
		top.Data()
		e.fresh = true
	}
	return top
}

// Previous pops the history. It returns false at the root, which is not an
// error.
func (e *Engine) Previous() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.history) <= 1 {
		return false
	}
	last := len(e.history) - 1
	e.history[last].Destroy()
	e.history[last] = nil
	e.history = e.history[:last]
	e.fresh = false
	return true
}

// DirectTransition navigates to the state behind id. Indexed ids jump
// straight to their symbol's state unless the current state is already
// rooted at the same symbol, in which case it decides. Other ids are only
// meaningful within the current graph and go to the current state.
func (e *Engine) DirectTransition(id string) (states.Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.renderLocked()
	if current == nil {
		return states.NotFound, errors.New(errors.ProjectNotLoaded, "no project loaded", nil)
	}

	var t states.Transition
	if entry, ok := e.index.Lookup(id); ok {
		if sym := model.SymbolOf(entry.Ref); sym != nil && !sym.Introspectable() {
			e.logger.Debug("Transition unavailable",
				"id", id,
				"from", string(current.Kind()),
				"outcome", states.NonIntrospectable.String(),
			)
			return states.NonIntrospectable, nil
		}
		candidate := entry.Build()
		if candidate.Kind() == current.Kind() && candidate.SymbolID() == current.SymbolID() {
			candidate.Destroy()
			t = current.Transition(id)
		} else {
			t = states.Transition{Outcome: states.Resolved, State: candidate}
		}
	} else {
		t = current.Transition(id)
	}

	if t.Outcome != states.Resolved || t.State == nil {
		e.logger.Debug("Transition unavailable",
			"id", id,
			"from", string(current.Kind()),
			"outcome", t.Outcome.String(),
		)
		return t.Outcome, nil
	}

	e.pushLocked(t.State)
	e.logger.Debug("Transition",
		"id", id,
		"to", string(t.State.Kind()),
		"depth", len(e.history),
	)
	return states.Resolved, nil
}

// ShowApplication pushes the application view unless it is already on top.
func (e *Engine) ShowApplication() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	top := e.topLocked()
	if top == nil {
		return errors.New(errors.ProjectNotLoaded, "no project loaded", nil)
	}
	if top.Kind() == states.KindApp {
		return nil
	}
	e.pushLocked(states.NewAppState(e.ctx))
	return nil
}

// ToggleLibs flips whether the application view shows third-party symbols.
func (e *Engine) ToggleLibs() states.AppOptions {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.ShowLibs = !e.view.ShowLibs
	e.fresh = false
	return *e.view
}

// ToggleModulesOnly flips whether the application view shows only modules.
func (e *Engine) ToggleModulesOnly() states.AppOptions {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.ModulesOnly = !e.view.ModulesOnly
	e.fresh = false
	return *e.view
}

// View returns the application view filters.
func (e *Engine) View() states.AppOptions {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.view
}

// Data builds the current graph. It returns nil when no project is loaded.
func (e *Engine) Data() *graph.VisualizationConfig {
	e.mu.Lock()
	defer e.mu.Unlock()

	top := e.topLocked()
	if top == nil {
		return nil
	}
	cfg := top.Data()
	e.fresh = true
	return &cfg
}

// Metadata describes a node of the current graph.
func (e *Engine) Metadata(id string) *identity.Metadata {
	e.mu.Lock()
	defer e.mu.Unlock()

	top := e.renderLocked()
	if top == nil {
		return nil
	}
	return top.Metadata(id)
}

// Symbols returns every indexed symbol.
func (e *Engine) Symbols() []index.SymbolInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.history) == 0 {
		return nil
	}
	return e.index.Symbols()
}

// Search finds indexed symbols by name or file path.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]storage.SearchResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.history) == 0 {
		return nil, errors.New(errors.ProjectNotLoaded, "no project loaded", nil)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if e.search != nil {
		results, err := e.search.Search(ctx, query, limit)
		if err == nil {
			return results, nil
		}
		e.logger.Warn("Search cache query failed, scanning index", "error", err.Error())
	}
	return e.scanLocked(query, limit), nil
}

// scanLocked is the in-memory search: case-insensitive substring over names
// and paths.
func (e *Engine) scanLocked(query string, limit int) []storage.SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []storage.SearchResult
	for _, s := range e.index.Symbols() {
		name := strings.ToLower(s.Name)
		matchType, rank := "", 0.0
		switch {
		case name == q:
			matchType, rank = "exact", 1.0
		case strings.HasPrefix(name, q):
			matchType, rank = "prefix", 0.8
		case strings.Contains(name, q) || strings.Contains(strings.ToLower(s.Path), q):
			matchType, rank = "substring", 0.5
		default:
			continue
		}
		out = append(out, storage.SearchResult{
			SymbolRecord: storage.SymbolRecord{
				ID:       s.ID,
				Name:     s.Name,
				Kind:     string(s.Kind),
				FilePath: s.Path,
			},
			Rank:      rank,
			MatchType: matchType,
		})
	}
	sortResults(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// sortResults orders by rank; equal ranks keep id order.
func sortResults(results []storage.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Rank > results[j].Rank
	})
}

// Describe returns a one-line summary of the current state for logs.
func (e *Engine) Describe() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	top := e.topLocked()
	if top == nil {
		return "no project loaded"
	}
	return fmt.Sprintf("%s %s (depth %d)", top.Kind(), top.SymbolID(), len(e.history))
}
