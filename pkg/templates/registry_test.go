package templates

import (
	"strings"
	"testing"

	"github.com/matzehuels/inkframe/pkg/page"
)

func TestBuiltinCatalog(t *testing.T) {
	want := []string{
		"single-splash",
		"dialogue-4panel",
		"vertical-3panel",
		"horizontal-strip-3",
		"action-5panel",
		"grid-6panel",
		"splash-with-inset",
		"manga-dynamic-4",
	}

	all := All()
	if len(all) != len(want) {
		t.Fatalf("All() returned %d templates, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("All()[%d].ID = %q, want %q", i, all[i].ID, id)
		}
	}
}

func TestBuiltinTemplatesValid(t *testing.T) {
	for _, tmpl := range All() {
		t.Run(tmpl.ID, func(t *testing.T) {
			if tmpl.Name == "" {
				t.Error("Name is empty")
			}
			if tmpl.PanelCount != len(tmpl.Panels) {
				t.Errorf("PanelCount = %d, want %d", tmpl.PanelCount, len(tmpl.Panels))
			}
			for i, p := range tmpl.Panels {
				if !p.Rect.Valid() {
					t.Errorf("Panels[%d].Rect = %+v, not valid", i, p.Rect)
				}
				if !p.PanelType.Valid() {
					t.Errorf("Panels[%d].PanelType = %q, not valid", i, p.PanelType)
				}
			}
		})
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id         string
		wantOK     bool
		wantPanels int
	}{
		{"dialogue-4panel", true, 4},
		{"single-splash", true, 1},
		{"grid-6panel", true, 6},
		{"does-not-exist", false, 0},
		{"", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := Get(tt.id)
			if ok != tt.wantOK {
				t.Fatalf("Get(%q) ok = %v, want %v", tt.id, ok, tt.wantOK)
			}
			if len(got.Panels) != tt.wantPanels {
				t.Errorf("Get(%q) panels = %d, want %d", tt.id, len(got.Panels), tt.wantPanels)
			}
		})
	}
}

func TestDefaultResolves(t *testing.T) {
	if Builtin().DefaultID() != DefaultID {
		t.Errorf("DefaultID() = %q, want %q", Builtin().DefaultID(), DefaultID)
	}
	d := Default()
	if d.ID != DefaultID {
		t.Errorf("Default().ID = %q, want %q", d.ID, DefaultID)
	}
	if len(d.Panels) == 0 {
		t.Error("Default() has no panels")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	a, _ := Get("splash-with-inset")
	a.Panels[0].Rect.Width = 0.1
	a.Tags[0] = "mutated"
	if a.Panels[0].Margins != nil {
		a.Panels[0].Margins.Top = 999
	}

	b, _ := Get("splash-with-inset")
	if b.Panels[0].Rect.Width == 0.1 {
		t.Error("Get() shares panel slice with the registry")
	}
	if b.Tags[0] == "mutated" {
		t.Error("Get() shares tags with the registry")
	}
	if b.Panels[0].Margins != nil && b.Panels[0].Margins.Top == 999 {
		t.Error("Get() shares margins with the registry")
	}

	all := All()
	all[0].ID = "changed"
	if All()[0].ID == "changed" {
		t.Error("All() shares storage with the registry")
	}
}

func TestSplashWithInsetZOrder(t *testing.T) {
	tmpl, _ := Get("splash-with-inset")
	if len(tmpl.Panels) != 2 {
		t.Fatalf("panels = %d, want 2", len(tmpl.Panels))
	}
	if tmpl.Panels[0].ZIndex >= tmpl.Panels[1].ZIndex {
		t.Errorf("inset z-index %d not above splash %d", tmpl.Panels[1].ZIndex, tmpl.Panels[0].ZIndex)
	}
	if tmpl.Panels[1].PanelType != page.PanelInset {
		t.Errorf("Panels[1].PanelType = %q, want %q", tmpl.Panels[1].PanelType, page.PanelInset)
	}
}

func TestSlot(t *testing.T) {
	tmpl, _ := Get("dialogue-4panel")
	tests := []struct {
		index  int
		wantID string
	}{
		{0, "top-left"},
		{3, "bottom-right"},
		{4, "bottom-right"},
		{10, "bottom-right"},
	}
	for _, tt := range tests {
		got, ok := tmpl.Slot(tt.index)
		if !ok || got.ID != tt.wantID {
			t.Errorf("Slot(%d) = %q, %v, want %q", tt.index, got.ID, ok, tt.wantID)
		}
	}

	if _, ok := (LayoutTemplate{}).Slot(0); ok {
		t.Error("Slot() on empty template ok = true, want false")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "syntax",
			data:    `default = `,
			wantErr: "decode",
		},
		{
			name: "missing default",
			data: `
default = "nope"
[[template]]
id = "a"
  [[template.panel]]
  id = "p"
  rect = { x = 0.0, y = 0.0, width = 1.0, height = 1.0 }
`,
			wantErr: "default template",
		},
		{
			name: "duplicate id",
			data: `
default = "a"
[[template]]
id = "a"
  [[template.panel]]
  rect = { x = 0.0, y = 0.0, width = 1.0, height = 1.0 }
[[template]]
id = "a"
  [[template.panel]]
  rect = { x = 0.0, y = 0.0, width = 1.0, height = 1.0 }
`,
			wantErr: "duplicate",
		},
		{
			name: "no panels",
			data: `
default = "a"
[[template]]
id = "a"
`,
			wantErr: "no panel slots",
		},
		{
			name: "rect out of range",
			data: `
default = "a"
[[template]]
id = "a"
  [[template.panel]]
  rect = { x = 0.6, y = 0.0, width = 0.6, height = 1.0 }
`,
			wantErr: "outside the unit square",
		},
		{
			name: "bad panel type",
			data: `
default = "a"
[[template]]
id = "a"
  [[template.panel]]
  rect = { x = 0.0, y = 0.0, width = 1.0, height = 1.0 }
  panel_type = "hexagon"
`,
			wantErr: "unknown panel type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.data))
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	r, err := Load([]byte(`
[[template]]
id = "dialogue-4panel"
  [[template.panel]]
  rect = { x = 0.0, y = 0.0, width = 1.0, height = 1.0 }
`))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if r.DefaultID() != DefaultID {
		t.Errorf("DefaultID() = %q, want %q", r.DefaultID(), DefaultID)
	}
	got := r.Default()
	if got.PanelCount != 1 {
		t.Errorf("PanelCount = %d, want 1", got.PanelCount)
	}
	if got.Panels[0].PanelType != page.PanelStandard {
		t.Errorf("PanelType = %q, want %q", got.Panels[0].PanelType, page.PanelStandard)
	}
}
