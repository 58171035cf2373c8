// Package templates provides the catalog of named page layouts.
//
// A [LayoutTemplate] is an immutable arrangement of panel slots expressed in
// normalized coordinates relative to the page safe area. The built-in catalog
// is embedded as TOML and decoded once at process start; lookups never
// mutate it and always hand out copies.
//
// One template id, [DefaultID], always resolves. Consumers that find no
// template id on a page fall back to it instead of failing.
//
//	t, ok := templates.Get("dialogue-4panel")
//	for _, slot := range t.Panels {
//	    fmt.Println(slot.ID, slot.Rect)
//	}
package templates

import (
	_ "embed"
	"fmt"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/inkframe/pkg/geom"
	"github.com/matzehuels/inkframe/pkg/page"
)

// DefaultID is the template used when a page names none.
const DefaultID = "dialogue-4panel"

//go:embed templates.toml
var builtinTOML []byte

// builtin is the embedded catalog. A broken embedded file is a build defect,
// so it panics at init.
var builtin = MustLoad(builtinTOML)

// LayoutTemplate is a named arrangement of panel slots.
type LayoutTemplate struct {
	ID         string          `json:"id" toml:"id"`
	Name       string          `json:"name" toml:"name"`
	GridType   string          `json:"grid_type" toml:"grid_type"`
	Panels     []PanelTemplate `json:"panels" toml:"panel"`
	Tags       []string        `json:"tags,omitempty" toml:"tags"`
	BestFor    []string        `json:"best_for,omitempty" toml:"best_for"`
	PanelCount int             `json:"panel_count" toml:"panel_count"`
}

// PanelTemplate is one slot in a template.
type PanelTemplate struct {
	ID        string              `json:"id" toml:"id"`
	Rect      geom.NormalizedRect `json:"rect" toml:"rect"`
	ZIndex    int                 `json:"z_index" toml:"z_index"`
	PanelType page.PanelType      `json:"panel_type,omitempty" toml:"panel_type"`
	Margins   *geom.Margins       `json:"margins,omitempty" toml:"margins"`
}

// Slot returns the slot for the i-th panel. Panels beyond the last slot reuse
// the last slot's geometry. ok is false only for a template with no slots.
func (t LayoutTemplate) Slot(i int) (PanelTemplate, bool) {
	if len(t.Panels) == 0 {
		return PanelTemplate{}, false
	}
	i = min(max(i, 0), len(t.Panels)-1)
	return t.Panels[i], true
}

func (t LayoutTemplate) clone() LayoutTemplate {
	c := t
	c.Tags = slices.Clone(t.Tags)
	c.BestFor = slices.Clone(t.BestFor)
	c.Panels = make([]PanelTemplate, len(t.Panels))
	for i, p := range t.Panels {
		if p.Margins != nil {
			m := *p.Margins
			p.Margins = &m
		}
		c.Panels[i] = p
	}
	return c
}

// Registry is an ordered, read-only template catalog.
type Registry struct {
	defaultID string
	templates []LayoutTemplate
	index     map[string]int
}

type catalog struct {
	Default   string           `toml:"default"`
	Templates []LayoutTemplate `toml:"template"`
}

// Load decodes and validates a TOML catalog.
func Load(data []byte) (*Registry, error) {
	var c catalog
	if _, err := toml.Decode(string(data), &c); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	if c.Default == "" {
		c.Default = DefaultID
	}

	r := &Registry{
		defaultID: c.Default,
		templates: make([]LayoutTemplate, 0, len(c.Templates)),
		index:     make(map[string]int, len(c.Templates)),
	}
	for _, t := range c.Templates {
		if t.PanelCount == 0 {
			t.PanelCount = len(t.Panels)
		}
		if err := validate(t); err != nil {
			return nil, err
		}
		if _, dup := r.index[t.ID]; dup {
			return nil, fmt.Errorf("template %q: duplicate id", t.ID)
		}
		for i := range t.Panels {
			t.Panels[i].PanelType = t.Panels[i].PanelType.OrDefault()
		}
		r.index[t.ID] = len(r.templates)
		r.templates = append(r.templates, t)
	}
	if _, ok := r.index[r.defaultID]; !ok {
		return nil, fmt.Errorf("default template %q is not defined", r.defaultID)
	}
	return r, nil
}

// MustLoad is like [Load] but panics on error.
func MustLoad(data []byte) *Registry {
	r, err := Load(data)
	if err != nil {
		panic(err)
	}
	return r
}

func validate(t LayoutTemplate) error {
	if t.ID == "" {
		return fmt.Errorf("template without id")
	}
	if len(t.Panels) == 0 {
		return fmt.Errorf("template %q: no panel slots", t.ID)
	}
	if t.PanelCount != len(t.Panels) {
		return fmt.Errorf("template %q: panel_count %d does not match %d slots", t.ID, t.PanelCount, len(t.Panels))
	}
	for i, p := range t.Panels {
		if !p.Rect.Valid() {
			return fmt.Errorf("template %q: slot %d rect %+v outside the unit square", t.ID, i, p.Rect)
		}
		if p.PanelType != "" && !p.PanelType.Valid() {
			return fmt.Errorf("template %q: slot %d has unknown panel type %q", t.ID, i, p.PanelType)
		}
	}
	return nil
}

// Get returns the template with the given id.
func (r *Registry) Get(id string) (LayoutTemplate, bool) {
	i, ok := r.index[id]
	if !ok {
		return LayoutTemplate{}, false
	}
	return r.templates[i].clone(), true
}

// All returns every template in catalog order.
func (r *Registry) All() []LayoutTemplate {
	out := make([]LayoutTemplate, len(r.templates))
	for i, t := range r.templates {
		out[i] = t.clone()
	}
	return out
}

// DefaultID returns the id used when a page names no template.
func (r *Registry) DefaultID() string { return r.defaultID }

// Default returns the default template. It always exists.
func (r *Registry) Default() LayoutTemplate {
	t, _ := r.Get(r.defaultID)
	return t
}

// Len returns the number of templates.
func (r *Registry) Len() int { return len(r.templates) }

// Builtin returns the embedded catalog.
func Builtin() *Registry { return builtin }

// Get looks up a template in the embedded catalog.
func Get(id string) (LayoutTemplate, bool) { return builtin.Get(id) }

// All lists the embedded catalog.
func All() []LayoutTemplate { return builtin.All() }

// Default returns the embedded default template.
func Default() LayoutTemplate { return builtin.Default() }
