package model

import (
	"fmt"
	"strings"
)

// TypeRef is a static reference to a class symbol.
type TypeRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Token identifies what a provider provides: a static class reference, a
// literal value (string injection tokens), or neither when unresolvable.
type Token struct {
	Ref   *TypeRef `json:"ref,omitempty"`
	Value string   `json:"value,omitempty"`
}

// ProviderMeta describes how a provider is configured.
type ProviderMeta struct {
	Token       Token  `json:"token"`
	UseClass    string `json:"useClass,omitempty"`
	UseValue    string `json:"useValue,omitempty"`
	UseFactory  string `json:"useFactory,omitempty"`
	UseExisting string `json:"useExisting,omitempty"`
	Multi       bool   `json:"multi,omitempty"`
}

// DirectiveMetadata is the decorator metadata of a directive or component.
type DirectiveMetadata struct {
	Selector        string   `json:"selector"`
	ExportAs        string   `json:"exportAs,omitempty"`
	Inputs          []string `json:"inputs,omitempty"`
	Outputs         []string `json:"outputs,omitempty"`
	ChangeDetection string   `json:"changeDetection,omitempty"`
	Encapsulation   string   `json:"encapsulation,omitempty"`
	TemplateURL     string   `json:"templateUrl,omitempty"`
}

// PipeMetadata is the decorator metadata of a pipe.
type PipeMetadata struct {
	PipeName string `json:"name"`
	Pure     bool   `json:"pure"`
}

// Route is one entry of a module's route configuration.
type Route struct {
	Path         string  `json:"path"`
	LoadChildren string  `json:"loadChildren,omitempty"`
	Children     []Route `json:"children,omitempty"`
}

// LazyReferences collects every loadChildren string in routes, depth first.
func LazyReferences(routes []Route) []string {
	var refs []string
	var walk func([]Route)
	walk = func(rs []Route) {
		for _, r := range rs {
			if r.LoadChildren != "" {
				refs = append(refs, r.LoadChildren)
			}
			walk(r.Children)
		}
	}
	walk(routes)
	return refs
}

// Template is the result of compiling a component template: either a tree of
// elements or, when Errors is non-empty, a diagnostic sentinel.
type Template struct {
	Roots  []*TemplateElement `json:"roots,omitempty"`
	Errors []TemplateError    `json:"errors,omitempty"`
}

// Failed reports whether the template carries parse or binding errors.
func (t *Template) Failed() bool {
	return t != nil && len(t.Errors) > 0
}

// ErrorText concatenates every error message, one per line.
func (t *Template) ErrorText() string {
	if t == nil {
		return ""
	}
	msgs := make([]string, 0, len(t.Errors))
	for _, e := range t.Errors {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "\n")
}

// TemplateErrorKind distinguishes parse from binding failures.
type TemplateErrorKind string

const (
	ParseError   TemplateErrorKind = "parse"
	BindingError TemplateErrorKind = "binding"
)

// TemplateError is one template diagnostic.
type TemplateError struct {
	Kind    TemplateErrorKind `json:"kind"`
	Message string            `json:"message"`
	Line    int               `json:"line,omitempty"`
	Column  int               `json:"column,omitempty"`
}

func (e TemplateError) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s error (%d:%d): %s", e.Kind, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// TemplateElement is one element of a component template.
type TemplateElement struct {
	Name       string             `json:"name"`
	Attributes []Attribute        `json:"attributes,omitempty"`
	Directives []TypeRef          `json:"directives,omitempty"`
	Children   []*TemplateElement `json:"children,omitempty"`
	Line       int                `json:"line,omitempty"`
}

// Attribute is a raw element attribute, bindings included ("[value]", "(click)").
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}
