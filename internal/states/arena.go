package states

import (
	"fmt"

	"ngrev/internal/graph"
	"ngrev/internal/identity"
	"ngrev/internal/model"
)

// arena maps the node ids of the last graph to the symbols behind them.
// Entries in opaque only answer metadata queries and never lead anywhere.
type arena struct {
	ctx     *Context
	symbols map[string]model.SymbolRef
	opaque  map[string]model.SymbolRef
}

func newArena(ctx *Context) arena {
	return arena{ctx: ctx}
}

func (a *arena) reset() {
	a.symbols = make(map[string]model.SymbolRef)
	a.opaque = make(map[string]model.SymbolRef)
}

func (a *arena) remember(id string, ref model.SymbolRef) {
	a.symbols[id] = ref
}

// Metadata implements State.
func (a *arena) Metadata(id string) *identity.Metadata {
	if ref, ok := a.symbols[id]; ok {
		return metadataOf(ref)
	}
	if ref, ok := a.opaque[id]; ok {
		return metadataOf(ref)
	}
	return nil
}

// Destroy implements State.
func (a *arena) Destroy() {
	a.symbols = nil
	a.opaque = nil
}

// follow resolves a node id of the last graph other than the root.
func (a *arena) follow(id string) Transition {
	ref, ok := a.symbols[id]
	if !ok {
		return outcome(NotFound)
	}
	return transitionTo(a.ctx, ref)
}

func metadataOf(ref model.SymbolRef) *identity.Metadata {
	switch r := ref.(type) {
	case model.ModuleRef:
		return identity.FormatModuleMetadata(r.Module)
	case model.DirectiveRef:
		return identity.FormatDirectiveMetadata(r.Directive)
	case model.ComponentRef:
		return identity.FormatDirectiveMetadata(r.Component)
	case model.PipeRef:
		return identity.FormatPipeMetadata(r.Pipe)
	case model.InjectableRef:
		return identity.FormatProviderMetadata(r.Injectable)
	case model.ElementRef:
		return identity.FormatElementMetadata(r)
	case model.TemplateRef:
		return nil
	default:
		return nil
	}
}

// transitionTo picks the state a symbol opens in when reached from a graph
// other than its own.
func transitionTo(ctx *Context, ref model.SymbolRef) Transition {
	switch r := ref.(type) {
	case model.ModuleRef:
		if !r.Module.Introspectable() {
			return outcome(NonIntrospectable)
		}
		return resolved(NewModuleTreeState(ctx, r.Module))
	case model.DirectiveRef:
		return directiveTransition(ctx, r.Directive)
	case model.ComponentRef:
		return directiveTransition(ctx, r.Component)
	case model.PipeRef:
		if !r.Pipe.Introspectable() {
			return outcome(NonIntrospectable)
		}
		return resolved(NewPipeState(ctx, r.Pipe))
	case model.InjectableRef:
		if !r.Injectable.Introspectable() {
			return outcome(NonIntrospectable)
		}
		return resolved(NewProviderState(ctx, r.Injectable))
	case model.ElementRef:
		if r.Component == nil {
			return outcome(NotFound)
		}
		return directiveTransition(ctx, r.Component)
	case model.TemplateRef:
		if !r.Component.Introspectable() {
			return outcome(NonIntrospectable)
		}
		return resolved(NewTemplateState(ctx, r.Component))
	default:
		return outcome(NotFound)
	}
}

func directiveTransition(ctx *Context, d model.Directive) Transition {
	if !d.Introspectable() {
		return outcome(NonIntrospectable)
	}
	return resolved(NewDirectiveState(ctx, d))
}

func symbolNode(id string, sym model.Symbol, kind identity.SymbolKind, ref model.SymbolRef) graph.Node {
	return graph.Node{
		ID:    id,
		Label: sym.Name(),
		Type: &graph.NodeType{
			IsFrameworkSymbol: identity.IsFrameworkSymbol(sym),
			Kind:              kind,
		},
		Data: ref,
	}
}

func metaNode(id, label string) graph.Node {
	return graph.Node{
		ID:    id,
		Label: label,
		Type:  &graph.NodeType{Kind: identity.KindMeta},
	}
}

func placeholderID(owner, group string) string {
	return owner + "-" + group
}

// anonymousID keys a provider that has no id of its own by its position so
// distinct unresolvable providers never collapse into one node.
func anonymousID(owner, group string, pos int) string {
	return fmt.Sprintf("%s-%s-anonymous-%d", owner, group, pos)
}

// addProvider adds a provider node and returns its id. Providers without an
// id get an anonymous, non-navigable node.
func (a *arena) addProvider(b *graph.Builder, owner, group string, pos int, inj model.Injectable) string {
	ref := model.InjectableRef{Injectable: inj}
	id, ok := identity.ProviderID(inj)
	if !ok {
		id = anonymousID(owner, group, pos)
		a.ctx.Logger.Debug("Provider has no resolvable token",
			"owner", owner,
			"group", group,
			"position", pos,
		)
		a.opaque[id] = ref
		n := symbolNode(id, inj, identity.KindProvider, ref)
		if n.Label == "" {
			n.Label = "(anonymous)"
		}
		b.AddNode(n)
		return id
	}
	n := symbolNode(id, inj, identity.KindProvider, ref)
	n.Label, _ = identity.ProviderName(inj)
	if b.AddNode(n) {
		a.remember(id, ref)
	}
	return id
}

// addRef adds the node for a declaration or export and returns its id.
func (a *arena) addRef(b *graph.Builder, ref model.SymbolRef) (string, bool) {
	var (
		id   string
		node graph.Node
	)
	switch r := ref.(type) {
	case model.ModuleRef:
		id = identity.ID(r.Module)
		node = symbolNode(id, r.Module, identity.KindModule, r)
	case model.DirectiveRef:
		id = identity.ID(r.Directive)
		node = symbolNode(id, r.Directive, identity.KindComponentOrDirective, r)
	case model.ComponentRef:
		id = identity.ID(r.Component)
		node = symbolNode(id, r.Component, identity.KindComponentOrDirective, r)
	case model.PipeRef:
		id = identity.ID(r.Pipe)
		node = symbolNode(id, r.Pipe, identity.KindPipe, r)
	case model.InjectableRef:
		pid, ok := identity.ProviderID(r.Injectable)
		if !ok {
			return "", false
		}
		id = pid
		node = symbolNode(id, r.Injectable, identity.KindProvider, r)
	case model.ElementRef, model.TemplateRef:
		return "", false
	default:
		return "", false
	}
	if b.AddNode(node) {
		a.remember(id, ref)
	}
	return id, true
}
