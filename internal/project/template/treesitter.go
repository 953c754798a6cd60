//go:build cgo

package template

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/html"

	"ngrev/internal/model"
)

// Backend names the parser behind Parse.
const Backend = "tree-sitter"

func parse(src []byte) ([]*model.TemplateElement, []model.TemplateError) {
	parser := sitter.NewParser()
	parser.SetLanguage(html.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, []model.TemplateError{parseError(0, 0, err.Error())}
	}

	w := &walker{src: src}
	roots := w.children(tree.RootNode())
	return roots, w.errs
}

type walker struct {
	src  []byte
	errs []model.TemplateError
}

func (w *walker) fail(node *sitter.Node, msg string) {
	p := node.StartPoint()
	w.errs = append(w.errs, parseError(int(p.Row)+1, int(p.Column)+1, msg))
}

// children collects the elements directly under node.
func (w *walker) children(node *sitter.Node) []*model.TemplateElement {
	var out []*model.TemplateElement
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.IsMissing() {
			w.fail(child, fmt.Sprintf("missing %s", child.Type()))
			continue
		}
		switch child.Type() {
		case "element", "script_element", "style_element":
			if el := w.element(child); el != nil {
				out = append(out, el)
			}
		case "erroneous_end_tag":
			w.fail(child, fmt.Sprintf("unexpected closing tag %s", strings.TrimSpace(child.Content(w.src))))
		case "ERROR":
			w.fail(child, fmt.Sprintf("unexpected %q", firstLine(child.Content(w.src))))
			out = append(out, w.children(child)...)
		}
	}
	return out
}

func (w *walker) element(node *sitter.Node) *model.TemplateElement {
	el := &model.TemplateElement{Line: int(node.StartPoint().Row) + 1}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "start_tag", "self_closing_tag":
			w.tag(child, el)
		}
	}
	if el.Name == "" {
		return nil
	}
	el.Children = w.children(node)
	return el
}

func (w *walker) tag(node *sitter.Node, el *model.TemplateElement) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "tag_name":
			el.Name = strings.ToLower(child.Content(w.src))
		case "attribute":
			el.Attributes = append(el.Attributes, w.attribute(child))
		}
	}
}

func (w *walker) attribute(node *sitter.Node) model.Attribute {
	var attr model.Attribute
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "attribute_name":
			attr.Name = child.Content(w.src)
		case "attribute_value":
			attr.Value = child.Content(w.src)
		case "quoted_attribute_value":
			attr.Value = strings.Trim(child.Content(w.src), `"'`)
		}
	}
	return attr
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
