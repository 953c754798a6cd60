//go:build !cgo

package template

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"ngrev/internal/model"
)

// Backend names the parser behind Parse.
const Backend = "html-tokenizer"

func parse(src []byte) ([]*model.TemplateElement, []model.TemplateError) {
	z := html.NewTokenizer(bytes.NewReader(src))

	var (
		roots []*model.TemplateElement
		stack []*model.TemplateElement
		errs  []model.TemplateError
		line  = 1
	)
	appendEl := func(el *model.TemplateElement) {
		if len(stack) == 0 {
			roots = append(roots, el)
			return
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, el)
	}

	for {
		tt := z.Next()
		start := line
		line += bytes.Count(z.Raw(), []byte("\n"))

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				errs = append(errs, parseError(start, 0, err.Error()))
			}
			for i := len(stack) - 1; i >= 0; i-- {
				errs = append(errs, parseError(stack[i].Line, 0, fmt.Sprintf("unclosed element <%s>", stack[i].Name)))
			}
			return roots, errs

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			el := &model.TemplateElement{Name: strings.ToLower(tok.Data), Line: start}
			for _, a := range tok.Attr {
				el.Attributes = append(el.Attributes, model.Attribute{Name: a.Key, Value: a.Val})
			}
			appendEl(el)
			if tt == html.StartTagToken && !IsVoid(el.Name) {
				stack = append(stack, el)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))
			if IsVoid(tag) {
				continue
			}
			if len(stack) == 0 || stack[len(stack)-1].Name != tag {
				errs = append(errs, parseError(start, 0, fmt.Sprintf("unexpected closing tag </%s>", tag)))
				continue
			}
			stack = stack[:len(stack)-1]
		}
	}
}
