// Package identity derives stable ids for compiler symbols and providers and
// formats symbol metadata for display.
package identity

import (
	"strings"

	"ngrev/internal/model"
)

// SymbolKind classifies graph nodes for the renderer.
type SymbolKind string

const (
	KindModule                   SymbolKind = "module"
	KindComponentOrDirective     SymbolKind = "component-or-directive"
	KindComponentWithDirective   SymbolKind = "component-with-directive"
	KindHTMLElement              SymbolKind = "html-element"
	KindHTMLElementWithDirective SymbolKind = "html-element-with-directive"
	KindProvider                 SymbolKind = "provider"
	KindPipe                     SymbolKind = "pipe"
	KindMeta                     SymbolKind = "meta"
)

const (
	// frameworkSegment marks sources shipped by the framework itself.
	frameworkSegment = "node_modules/@angular/"
	// thirdPartyMarker marks sources outside the user's project.
	thirdPartyMarker = "node_modules"
)

// IDOf builds the stable id for a symbol declared as name in path.
func IDOf(path, name string) string {
	return path + "#" + name
}

// ID returns the stable id of sym.
func ID(sym model.Symbol) string {
	return IDOf(sym.Path(), sym.Name())
}

// ProviderID returns the id an injectable is addressed by. A token backed by a
// static class reference yields that class's id, a primitive token yields its
// literal value; anything else is not addressable and ok is false.
func ProviderID(inj model.Injectable) (id string, ok bool) {
	tok := inj.Provider().Token
	switch {
	case tok.Ref != nil:
		return IDOf(tok.Ref.Path, tok.Ref.Name), true
	case tok.Value != "":
		return tok.Value, true
	default:
		return "", false
	}
}

// ProviderName mirrors ProviderID for display.
func ProviderName(inj model.Injectable) (name string, ok bool) {
	tok := inj.Provider().Token
	switch {
	case tok.Ref != nil:
		return tok.Ref.Name, true
	case tok.Value != "":
		return tok.Value, true
	default:
		return "", false
	}
}

// IsFrameworkSymbol reports whether sym ships with the framework. It only
// affects how a node is tinted.
func IsFrameworkSymbol(sym model.Symbol) bool {
	return sym != nil && strings.Contains(sym.Path(), frameworkSegment)
}

// IsThirdPartyID reports whether id points into an installed dependency.
func IsThirdPartyID(id string) bool {
	return strings.Contains(id, thirdPartyMarker)
}
