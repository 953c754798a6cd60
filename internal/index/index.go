// Package index is the global symbol index of a loaded project. It maps
// every stable id to the symbol behind it and a factory for the state that
// shows it, and backs deep-link navigation.
package index

import (
	"log/slog"
	"sort"
	"sync"

	"ngrev/internal/identity"
	"ngrev/internal/model"
	"ngrev/internal/states"
)

// Entry is one indexed symbol.
type Entry struct {
	Ref   model.SymbolRef
	Kind  states.Kind
	Build func() states.State
}

// SymbolInfo is the serializable view of an entry.
type SymbolInfo struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Kind     states.Kind `json:"kind"`
	External bool        `json:"external,omitempty"`
}

// Index is built on first use and memoized until Clear.
type Index struct {
	mu      sync.Mutex
	ctx     *states.Context
	logger  *slog.Logger
	entries map[string]Entry
	order   []string
	skipped int
}

// New returns an empty index over ctx.
func New(ctx *states.Context, logger *slog.Logger) *Index {
	return &Index{ctx: ctx, logger: logger}
}

// Reset points the index at a new context and drops the memoized map.
func (x *Index) Reset(ctx *states.Context) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.ctx = ctx
	x.clearLocked()
}

// Clear drops the memoized map; the next Get rebuilds it.
func (x *Index) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.clearLocked()
}

func (x *Index) clearLocked() {
	x.entries = nil
	x.order = nil
	x.skipped = 0
}

// Get returns the index, building it if needed. The returned map must not be
// modified.
func (x *Index) Get() map[string]Entry {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.buildLocked()
	return x.entries
}

// Lookup returns the entry for id.
func (x *Index) Lookup(id string) (Entry, bool) {
	e, ok := x.Get()[id]
	return e, ok
}

// Skipped reports how many providers were left out for lack of an id during
// the last build.
func (x *Index) Skipped() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.skipped
}

// Order returns ids in insertion order: pipes, modules, directives and
// components, then providers.
func (x *Index) Order() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.buildLocked()
	out := make([]string, len(x.order))
	copy(out, x.order)
	return out
}

func (x *Index) buildLocked() {
	if x.entries != nil || x.ctx == nil {
		return
	}
	ctx := x.ctx
	ws := ctx.Workspace
	x.entries = make(map[string]Entry)

	for _, p := range ws.Pipes() {
		x.put(identity.ID(p), Entry{
			Ref:   model.PipeRef{Pipe: p},
			Kind:  states.KindPipe,
			Build: func() states.State { return states.NewPipeState(ctx, p) },
		})
	}
	for _, m := range ws.Modules() {
		x.put(identity.ID(m), Entry{
			Ref:   model.ModuleRef{Module: m},
			Kind:  states.KindModuleTree,
			Build: func() states.State { return states.NewModuleTreeState(ctx, m) },
		})
	}
	for _, d := range ws.Directives() {
		x.put(identity.ID(d), Entry{
			Ref:   model.RefOfDirective(d),
			Kind:  states.KindDirective,
			Build: func() states.State { return states.NewDirectiveState(ctx, d) },
		})
	}
	for _, inj := range ws.Injectables() {
		id, ok := identity.ProviderID(inj)
		if !ok {
			x.skipped++
			continue
		}
		x.put(id, Entry{
			Ref:   model.InjectableRef{Injectable: inj},
			Kind:  states.KindProvider,
			Build: func() states.State { return states.NewProviderState(ctx, inj) },
		})
	}

	if x.skipped > 0 && x.logger != nil {
		x.logger.Debug("Providers without a token left out of the symbol index",
			"count", x.skipped,
		)
	}
}

// put keeps the first entry for an id.
func (x *Index) put(id string, e Entry) {
	if _, ok := x.entries[id]; ok {
		return
	}
	x.entries[id] = e
	x.order = append(x.order, id)
}

// Symbols returns every indexed symbol sorted by id.
func (x *Index) Symbols() []SymbolInfo {
	entries := x.Get()
	out := make([]SymbolInfo, 0, len(entries))
	for id, e := range entries {
		sym := model.SymbolOf(e.Ref)
		info := SymbolInfo{ID: id, Kind: e.Kind}
		if sym != nil {
			info.Name = sym.Name()
			info.Path = sym.Path()
			info.External = !sym.Introspectable()
		}
		if inj, ok := e.Ref.(model.InjectableRef); ok {
			if name, ok := identity.ProviderName(inj.Injectable); ok {
				info.Name = name
			}
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
