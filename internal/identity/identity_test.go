package identity

import (
	"testing"

	"ngrev/internal/model"
	"ngrev/internal/model/modeltest"
)

func TestIDStability(t *testing.T) {
	a := modeltest.NewModule("AppModule", "src/app/app.module.ts")
	b := modeltest.NewModule("AppModule", "src/app/app.module.ts")
	otherName := modeltest.NewModule("CoreModule", "src/app/app.module.ts")
	otherPath := modeltest.NewModule("AppModule", "src/admin/app.module.ts")

	if ID(a) != ID(b) {
		t.Errorf("ID(a) = %q, ID(b) = %q, want equal", ID(a), ID(b))
	}
	if ID(a) == ID(otherName) {
		t.Errorf("ID(a) == ID(otherName) = %q, want distinct", ID(a))
	}
	if ID(a) == ID(otherPath) {
		t.Errorf("ID(a) == ID(otherPath) = %q, want distinct", ID(a))
	}
	if got, want := ID(a), "src/app/app.module.ts#AppModule"; got != want {
		t.Errorf("ID() = %q, want %q", got, want)
	}
}

func TestProviderID(t *testing.T) {
	tests := []struct {
		name     string
		inj      model.Injectable
		wantID   string
		wantName string
		wantOK   bool
	}{
		{
			name:     "class token",
			inj:      modeltest.NewService("Logger", "src/logger.ts"),
			wantID:   "src/logger.ts#Logger",
			wantName: "Logger",
			wantOK:   true,
		},
		{
			name:     "string token",
			inj:      modeltest.NewValueProvider("API_URL", "https://example.test"),
			wantID:   "API_URL",
			wantName: "API_URL",
			wantOK:   true,
		},
		{
			name: "unresolvable token",
			inj:  modeltest.NewOpaqueProvider("factory"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ProviderID(tt.inj)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("ProviderID() = (%q, %v), want (%q, %v)", id, ok, tt.wantID, tt.wantOK)
			}
			name, ok := ProviderName(tt.inj)
			if name != tt.wantName || ok != tt.wantOK {
				t.Errorf("ProviderName() = (%q, %v), want (%q, %v)", name, ok, tt.wantName, tt.wantOK)
			}
		})
	}
}

func TestIsFrameworkSymbol(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"node_modules/@angular/common/index.d.ts", true},
		{"node_modules/ngx-charts/index.d.ts", false},
		{"src/app/app.component.ts", false},
	}
	for _, tt := range tests {
		sym := modeltest.NewComponent("X", tt.path, "x")
		if got := IsFrameworkSymbol(sym); got != tt.want {
			t.Errorf("IsFrameworkSymbol(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
	if IsFrameworkSymbol(nil) {
		t.Error("IsFrameworkSymbol(nil) = true, want false")
	}
}

func TestIsThirdPartyID(t *testing.T) {
	if !IsThirdPartyID("node_modules/ngx-charts/index.d.ts#ChartModule") {
		t.Error("library id not detected")
	}
	if IsThirdPartyID("src/app/app.module.ts#AppModule") {
		t.Error("project id reported as third party")
	}
}

func propertyMap(md *Metadata) map[string]string {
	m := make(map[string]string, len(md.Properties))
	for _, p := range md.Properties {
		m[p.Key] = p.Value
	}
	return m
}

func TestFormatDirectiveMetadata(t *testing.T) {
	c := modeltest.NewComponent("HeroComponent", "src/hero.component.ts", "app-hero")
	c.Meta.Inputs = []string{"hero", "size"}
	c.Meta.ChangeDetection = "OnPush"

	md := FormatDirectiveMetadata(c)
	if md.FilePath != "src/hero.component.ts" {
		t.Errorf("FilePath = %q, want src/hero.component.ts", md.FilePath)
	}
	props := propertyMap(md)
	if props["Selector"] != "app-hero" {
		t.Errorf("Selector = %q, want app-hero", props["Selector"])
	}
	if props["Inputs"] != "hero, size" {
		t.Errorf("Inputs = %q, want %q", props["Inputs"], "hero, size")
	}
	if props["Change detection"] != "OnPush" {
		t.Errorf("Change detection = %q, want OnPush", props["Change detection"])
	}
	if _, ok := props["Outputs"]; ok {
		t.Error("empty Outputs should be omitted")
	}

	opaque := &modeltest.Directive{Sym: modeltest.Sym{SymName: "NgIf", SymPath: "node_modules/@angular/common/index.d.ts", External: true}}
	if got := len(FormatDirectiveMetadata(opaque).Properties); got != 1 {
		t.Errorf("len(Properties) = %d, want 1 for opaque directive", got)
	}
}

func TestFormatProviderMetadata(t *testing.T) {
	http := modeltest.NewService("HttpClient", "node_modules/@angular/common/http.d.ts")
	svc := modeltest.NewService("HeroService", "src/hero.service.ts", http)

	props := propertyMap(FormatProviderMetadata(svc))
	if props["Token"] != "HeroService" {
		t.Errorf("Token = %q, want HeroService", props["Token"])
	}
	if props["Dependencies"] != "HttpClient" {
		t.Errorf("Dependencies = %q, want HttpClient", props["Dependencies"])
	}

	props = propertyMap(FormatProviderMetadata(modeltest.NewOpaqueProvider("makeStore")))
	if props["Token"] != "unresolved" {
		t.Errorf("Token = %q, want unresolved", props["Token"])
	}
	if props["Factory"] != "makeStore" {
		t.Errorf("Factory = %q, want makeStore", props["Factory"])
	}
}

func TestFormatPipeAndModuleMetadata(t *testing.T) {
	p := modeltest.NewPipe("TitlePipe", "src/title.pipe.ts", "title")
	props := propertyMap(FormatPipeMetadata(p))
	if props["Name"] != "title" || props["Pure"] != "true" {
		t.Errorf("pipe properties = %v", props)
	}

	m := modeltest.NewModule("AppModule", "src/app.module.ts")
	m.RouteList = []model.Route{{Path: "admin", LoadChildren: "./admin/admin.module#AdminModule"}}
	props = propertyMap(FormatModuleMetadata(m))
	if props["Lazy routes"] != "./admin/admin.module#AdminModule" {
		t.Errorf("Lazy routes = %q", props["Lazy routes"])
	}
	if props["Imports"] != "0" {
		t.Errorf("Imports = %q, want 0", props["Imports"])
	}
}

func TestFormatElementMetadata(t *testing.T) {
	el := &model.TemplateElement{
		Name:       "app-hero",
		Attributes: []model.Attribute{{Name: "[hero]", Value: "selected"}},
	}
	c := modeltest.NewComponent("HeroComponent", "src/hero.component.ts", "app-hero")
	md := FormatElementMetadata(model.ElementRef{Element: el, Component: c, Directives: []model.Directive{c}})

	props := propertyMap(md)
	if props["Component"] != "HeroComponent" {
		t.Errorf("Component = %q, want HeroComponent", props["Component"])
	}
	if props["[hero]"] != "selected" {
		t.Errorf("[hero] = %q, want selected", props["[hero]"])
	}
	if md.FilePath != "src/hero.component.ts" {
		t.Errorf("FilePath = %q", md.FilePath)
	}
}
