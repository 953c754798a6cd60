// Package template parses component templates into element trees. The cgo
// build parses with tree-sitter's HTML grammar; other builds fall back to the
// x/net/html tokenizer. Both report malformed markup as parse errors with
// 1-based line numbers instead of failing.
package template

import (
	"strings"

	"ngrev/internal/model"
)

// voidElements never have children or a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// IsVoid reports whether name is an HTML void element.
func IsVoid(name string) bool {
	return voidElements[strings.ToLower(name)]
}

// Parse builds the element tree of src. Parse problems are returned in the
// template's Errors; a template with errors may still carry partial roots.
func Parse(src []byte) *model.Template {
	roots, errs := parse(src)
	return &model.Template{Roots: roots, Errors: errs}
}

func parseError(line, col int, msg string) model.TemplateError {
	return model.TemplateError{Kind: model.ParseError, Message: msg, Line: line, Column: col}
}
