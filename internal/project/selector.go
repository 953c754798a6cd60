package project

import (
	"strings"

	"ngrev/internal/model"
)

// selector is one compound CSS selector of a directive: an optional element
// name plus attribute and class constraints. ":not(...)" parts are ignored.
type selector struct {
	element string
	attrs   []attrSelector
	classes []string
}

type attrSelector struct {
	name     string
	value    string
	hasValue bool
}

// parseSelectors splits a comma separated selector list.
func parseSelectors(list string) []selector {
	var out []selector
	for _, part := range strings.Split(list, ",") {
		if s, ok := parseSelector(strings.TrimSpace(part)); ok {
			out = append(out, s)
		}
	}
	return out
}

func parseSelector(src string) (selector, bool) {
	var s selector
	if src == "" {
		return s, false
	}
	i := 0
	readName := func() string {
		start := i
		for i < len(src) && !strings.ContainsRune("[.:", rune(src[i])) {
			i++
		}
		return strings.ToLower(src[start:i])
	}

	s.element = readName()
	for i < len(src) {
		switch src[i] {
		case '[':
			end := strings.IndexByte(src[i:], ']')
			if end < 0 {
				return s, false
			}
			body := src[i+1 : i+end]
			i += end + 1
			name, value, hasValue := strings.Cut(body, "=")
			s.attrs = append(s.attrs, attrSelector{
				name:     strings.ToLower(strings.TrimSpace(name)),
				value:    strings.Trim(strings.TrimSpace(value), `"'`),
				hasValue: hasValue,
			})
		case '.':
			i++
			if class := readName(); class != "" {
				s.classes = append(s.classes, class)
			}
		case ':':
			depth := 0
			for ; i < len(src); i++ {
				if src[i] == '(' {
					depth++
				} else if src[i] == ')' {
					depth--
					if depth == 0 {
						i++
						break
					}
				}
			}
		default:
			i++
		}
	}
	return s, s.element != "" || len(s.attrs) > 0 || len(s.classes) > 0
}

// matches reports whether el satisfies every constraint of s.
func (s selector) matches(el *model.TemplateElement) bool {
	if s.element != "" && s.element != "*" && s.element != strings.ToLower(el.Name) {
		return false
	}
	attrs := elementAttributes(el)
	for _, a := range s.attrs {
		v, ok := attrs[a.name]
		if !ok || (a.hasValue && v != a.value) {
			return false
		}
	}
	if len(s.classes) > 0 {
		have := make(map[string]bool)
		for _, c := range strings.Fields(attrs["class"]) {
			have[strings.ToLower(c)] = true
		}
		for _, c := range s.classes {
			if !have[c] {
				return false
			}
		}
	}
	return true
}

// elementAttributes maps the attribute names a selector can see to their
// values. Property bindings ("[x]", "[(x)]", "bind-x") and structural
// shorthands ("*x") expose x; event bindings are not visible.
func elementAttributes(el *model.TemplateElement) map[string]string {
	out := make(map[string]string, len(el.Attributes))
	for _, a := range el.Attributes {
		name := strings.ToLower(a.Name)
		switch {
		case strings.HasPrefix(name, "[(") && strings.HasSuffix(name, ")]"):
			name = name[2 : len(name)-2]
		case strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]"):
			name = name[1 : len(name)-1]
		case strings.HasPrefix(name, "*"):
			name = name[1:]
		case strings.HasPrefix(name, "bind-"):
			name = strings.TrimPrefix(name, "bind-")
		case strings.HasPrefix(name, "("), strings.HasPrefix(name, "on-"):
			continue
		}
		if _, ok := out[name]; !ok {
			out[name] = a.Value
		}
	}
	return out
}
