package identity

import (
	"strconv"
	"strings"

	"ngrev/internal/model"
)

// Property is one key/value row of displayed metadata.
type Property struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Metadata is the uniform display shape for every node kind.
type Metadata struct {
	FilePath   string     `json:"filePath,omitempty"`
	Properties []Property `json:"properties"`
}

func (m *Metadata) add(key, value string) {
	if value == "" {
		return
	}
	m.Properties = append(m.Properties, Property{Key: key, Value: value})
}

func join(values []string) string {
	return strings.Join(values, ", ")
}

// FormatModuleMetadata describes a module.
func FormatModuleMetadata(m model.Module) *Metadata {
	md := &Metadata{FilePath: m.Path()}
	md.add("Name", m.Name())
	md.add("Imports", strconv.Itoa(len(m.Imports())))
	md.add("Declarations", strconv.Itoa(len(m.Declarations())))
	md.add("Exports", strconv.Itoa(len(m.Exports())))
	md.add("Providers", strconv.Itoa(len(m.Providers())))
	if lazy := model.LazyReferences(m.Routes()); len(lazy) > 0 {
		md.add("Lazy routes", join(lazy))
	}
	return md
}

// FormatDirectiveMetadata describes a directive or component. Directives the
// model cannot introspect only carry their name and location.
func FormatDirectiveMetadata(d model.Directive) *Metadata {
	md := &Metadata{FilePath: d.Path()}
	md.add("Name", d.Name())
	meta := d.Metadata()
	if meta == nil {
		return md
	}
	md.add("Selector", meta.Selector)
	md.add("Export as", meta.ExportAs)
	md.add("Inputs", join(meta.Inputs))
	md.add("Outputs", join(meta.Outputs))
	if d.IsComponent() {
		md.add("Change detection", meta.ChangeDetection)
		md.add("Encapsulation", meta.Encapsulation)
		md.add("Template URL", meta.TemplateURL)
	}
	return md
}

// FormatProviderMetadata describes an injectable and how it is provided.
func FormatProviderMetadata(inj model.Injectable) *Metadata {
	md := &Metadata{FilePath: inj.Path()}
	if name, ok := ProviderName(inj); ok {
		md.add("Token", name)
	} else {
		md.add("Token", "unresolved")
	}
	p := inj.Provider()
	md.add("Class", p.UseClass)
	md.add("Value", p.UseValue)
	md.add("Factory", p.UseFactory)
	md.add("Existing", p.UseExisting)
	if p.Multi {
		md.add("Multi", "true")
	}
	if deps := inj.Dependencies(); len(deps) > 0 {
		names := make([]string, 0, len(deps))
		for _, dep := range deps {
			names = append(names, dep.Name())
		}
		md.add("Dependencies", join(names))
	}
	return md
}

// FormatPipeMetadata describes a pipe.
func FormatPipeMetadata(p model.Pipe) *Metadata {
	md := &Metadata{FilePath: p.Path()}
	md.add("Class", p.Name())
	if meta := p.Metadata(); meta != nil {
		md.add("Name", meta.PipeName)
		md.add("Pure", strconv.FormatBool(meta.Pure))
	}
	return md
}

// FormatElementMetadata describes a template element and the directives
// matched on it.
func FormatElementMetadata(el model.ElementRef) *Metadata {
	md := &Metadata{}
	if el.Element == nil {
		return md
	}
	md.add("Name", el.Element.Name)
	if el.Component != nil {
		md.FilePath = el.Component.Path()
		md.add("Component", el.Component.Name())
	}
	if len(el.Directives) > 0 {
		names := make([]string, 0, len(el.Directives))
		for _, d := range el.Directives {
			names = append(names, d.Name())
		}
		md.add("Directives", join(names))
	}
	for _, attr := range el.Element.Attributes {
		md.add(attr.Name, attr.Value)
	}
	return md
}
