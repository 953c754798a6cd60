// Package project is the manifest-backed compiler model. A project is
// described by an ngrev manifest (YAML, TOML or JSON) listing its modules,
// components, directives, pipes and injectables; templates are parsed from
// inline markup or templateUrl files.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ngrev/internal/model"
)

// ManifestNames are the manifest file names looked up in a project
// directory, in priority order.
var ManifestNames = []string{"ngrev.yaml", "ngrev.yml", "ngrev.toml", "ngrev.json"}

// Manifest is the decoded project description.
type Manifest struct {
	Name string `json:"name"`
	// Sources are doublestar globs of files that feed the project revision.
	Sources     []string         `json:"sources,omitempty"`
	Modules     []ModuleSpec     `json:"modules"`
	Components  []DirectiveSpec  `json:"components,omitempty"`
	Directives  []DirectiveSpec  `json:"directives,omitempty"`
	Pipes       []PipeSpec       `json:"pipes,omitempty"`
	Injectables []InjectableSpec `json:"injectables,omitempty"`
}

// SymbolSpec is the part shared by every declared symbol. External symbols
// are known by name only and are not introspectable.
type SymbolSpec struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	External bool   `json:"external,omitempty"`
}

// ModuleSpec declares a module. Symbol lists hold references: a bare
// "Name", or "path#Name" to disambiguate or to name a library symbol that
// the manifest does not declare.
type ModuleSpec struct {
	SymbolSpec
	Imports      []string       `json:"imports,omitempty"`
	Declarations []string       `json:"declarations,omitempty"`
	Exports      []string       `json:"exports,omitempty"`
	Bootstrap    []string       `json:"bootstrap,omitempty"`
	Providers    []ProviderSpec `json:"providers,omitempty"`
	Routes       []model.Route  `json:"routes,omitempty"`
}

// DirectiveSpec declares a directive or, under components, a component.
type DirectiveSpec struct {
	SymbolSpec
	Selector        string         `json:"selector"`
	ExportAs        string         `json:"exportAs,omitempty"`
	Inputs          []string       `json:"inputs,omitempty"`
	Outputs         []string       `json:"outputs,omitempty"`
	ChangeDetection string         `json:"changeDetection,omitempty"`
	Encapsulation   string         `json:"encapsulation,omitempty"`
	Template        string         `json:"template,omitempty"`
	TemplateURL     string         `json:"templateUrl,omitempty"`
	Deps            []string       `json:"deps,omitempty"`
	Providers       []ProviderSpec `json:"providers,omitempty"`
}

// PipeSpec declares a pipe. Pure defaults to true.
type PipeSpec struct {
	SymbolSpec
	PipeName string   `json:"pipeName"`
	Pure     *bool    `json:"pure,omitempty"`
	Deps     []string `json:"deps,omitempty"`
}

// InjectableSpec declares an injectable class.
type InjectableSpec struct {
	SymbolSpec
	Deps []string `json:"deps,omitempty"`
}

// ProviderSpec is either a class reference or a provider object.
type ProviderSpec struct {
	Class       string      `json:"-"`
	Provide     string      `json:"provide,omitempty"`
	UseClass    string      `json:"useClass,omitempty"`
	UseValue    interface{} `json:"useValue,omitempty"`
	UseFactory  string      `json:"useFactory,omitempty"`
	UseExisting string      `json:"useExisting,omitempty"`
	Multi       bool        `json:"multi,omitempty"`
	Deps        []string    `json:"deps,omitempty"`
}

// UnmarshalJSON accepts a plain string as shorthand for a class provider.
func (p *ProviderSpec) UnmarshalJSON(data []byte) error {
	var class string
	if err := json.Unmarshal(data, &class); err == nil {
		*p = ProviderSpec{Class: class}
		return nil
	}
	type plain ProviderSpec
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*p = ProviderSpec(obj)
	return nil
}

// DetectManifest resolves path to a manifest file. A directory is searched
// for ManifestNames in priority order.
func DetectManifest(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}
	for _, name := range ManifestNames {
		candidate := filepath.Join(path, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no project manifest in %s (looked for %s)", path, strings.Join(ManifestNames, ", "))
}

// DecodeManifest decodes data according to the extension of name. Decoder
// errors are returned with the file name prefixed and their text intact.
func DecodeManifest(name string, data []byte) (*Manifest, error) {
	var generic map[string]interface{}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	case ".json":
		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("%s: unsupported manifest format", name)
	}

	// YAML and TOML documents are normalized through JSON so that the
	// provider shorthand and the json tags apply to every format.
	raw, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &m, nil
}
