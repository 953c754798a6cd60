package states

import (
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"ngrev/internal/identity"
	"ngrev/internal/model"
	"ngrev/internal/slogutil"
	"ngrev/internal/trie"
)

// AppOptions are the application view filters. They are shared by pointer
// and may change between Data calls.
type AppOptions struct {
	ShowLibs    bool `json:"showLibs"`
	ModulesOnly bool `json:"modulesOnly"`
}

// Context is what every state of one loaded project shares. It is built once
// per load by the engine; states only read from it.
type Context struct {
	Workspace model.Workspace
	Logger    *slog.Logger
	Options   *AppOptions

	modules    *trie.Trie[model.Module]
	directives map[string]model.Directive
}

// NewContext indexes the modules and directives of ws.
func NewContext(ws model.Workspace, logger *slog.Logger, opts *AppOptions) *Context {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	if opts == nil {
		opts = &AppOptions{}
	}
	c := &Context{
		Workspace:  ws,
		Logger:     logger,
		Options:    opts,
		modules:    trie.New[model.Module](trie.SplitPath),
		directives: make(map[string]model.Directive),
	}
	for _, m := range ws.Modules() {
		c.modules.Insert(moduleKey(m.Path(), m.Name()), m)
	}
	for _, d := range ws.Directives() {
		c.directives[identity.ID(d)] = d
	}
	return c
}

// Close drops the module and directive indexes. Only the engine calls it,
// after every state built on the context is destroyed.
func (c *Context) Close() {
	c.modules.Clear()
	c.directives = nil
}

// IndexedModules reports how many modules were inserted into the module trie.
func (c *Context) IndexedModules() int {
	return c.modules.Size()
}

// Directive looks up a directive or component by type reference.
func (c *Context) Directive(ref model.TypeRef) (model.Directive, bool) {
	d, ok := c.directives[identity.IDOf(ref.Path, ref.Name)]
	return d, ok
}

// ResolveLazy finds the module a loadChildren reference points to. Relative
// references are resolved against the directory of from; other references
// are tried against every ancestor directory of from, deepest first.
func (c *Context) ResolveLazy(from model.Module, ref string) (model.Module, bool) {
	target, name, ok := strings.Cut(ref, "#")
	if !ok || target == "" || name == "" {
		return nil, false
	}
	target = trimSourceExt(target)
	dir := path.Dir(filepath.ToSlash(from.Path()))

	if strings.HasPrefix(target, "./") || strings.HasPrefix(target, "../") {
		return c.modules.Get(path.Join(dir, target) + "#" + name)
	}
	for d := dir; ; d = path.Dir(d) {
		if m, ok := c.modules.Get(path.Join(d, target) + "#" + name); ok {
			return m, true
		}
		if d == "." || d == "/" {
			return nil, false
		}
	}
}

func moduleKey(file, name string) string {
	return trimSourceExt(path.Clean(filepath.ToSlash(file))) + "#" + name
}

func trimSourceExt(p string) string {
	for _, ext := range []string{".d.ts", ".ts", ".js"} {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}
