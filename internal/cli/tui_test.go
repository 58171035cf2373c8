package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/inkframe/pkg/geom"
	"github.com/matzehuels/inkframe/pkg/templates"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m TemplatePickerModel, keys ...string) (TemplatePickerModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(TemplatePickerModel)
	}
	return m, cmd
}

func TestPickerStartsOnDefault(t *testing.T) {
	m := NewTemplatePickerModel(templates.Builtin())
	if got := m.Templates[m.Cursor].ID; got != templates.DefaultID {
		t.Errorf("cursor on %q, want %q", got, templates.DefaultID)
	}
}

func TestPickerNavigation(t *testing.T) {
	m := NewTemplatePickerModel(templates.Builtin())
	n := len(m.Templates)

	m, _ = update(m, "g")
	if m.Cursor != 0 {
		t.Errorf("after g Cursor = %d, want 0", m.Cursor)
	}
	m, _ = update(m, "up")
	if m.Cursor != 0 {
		t.Errorf("up at top Cursor = %d, want 0", m.Cursor)
	}
	m, _ = update(m, "down", "j")
	if m.Cursor != 2 {
		t.Errorf("after two downs Cursor = %d, want 2", m.Cursor)
	}
	m, _ = update(m, "G", "down")
	if m.Cursor != n-1 {
		t.Errorf("down at bottom Cursor = %d, want %d", m.Cursor, n-1)
	}
}

func TestPickerSelect(t *testing.T) {
	m := NewTemplatePickerModel(templates.Builtin())
	m, _ = update(m, "g", "down")
	m, cmd := update(m, "enter")
	if m.Selected == nil {
		t.Fatal("Selected = nil after enter")
	}
	if m.Selected.ID != m.Templates[1].ID {
		t.Errorf("Selected = %q, want %q", m.Selected.ID, m.Templates[1].ID)
	}
	if cmd == nil {
		t.Error("enter did not return a quit command")
	}
}

func TestPickerQuitWithoutSelection(t *testing.T) {
	m := NewTemplatePickerModel(templates.Builtin())
	m, cmd := update(m, "esc")
	if m.Selected != nil {
		t.Errorf("Selected = %q after esc, want nil", m.Selected.ID)
	}
	if cmd == nil {
		t.Error("esc did not return a quit command")
	}
}

func TestPickerScrolls(t *testing.T) {
	m := NewTemplatePickerModel(templates.Builtin())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 8})
	m = next.(TemplatePickerModel)
	if m.Height != 5 {
		t.Fatalf("Height = %d, want 5", m.Height)
	}
	m, _ = update(m, "G")
	if m.Offset != len(m.Templates)-m.Height {
		t.Errorf("Offset = %d, want %d", m.Offset, len(m.Templates)-m.Height)
	}
	if !strings.Contains(m.View(), m.Templates[len(m.Templates)-1].ID) {
		t.Error("View() does not show the selected template")
	}
}

func TestTemplatePreview(t *testing.T) {
	tmpl := templates.LayoutTemplate{
		ID: "halves",
		Panels: []templates.PanelTemplate{
			{ID: "top", Rect: geom.NormalizedRect{X: 0, Y: 0, Width: 1, Height: 0.5}},
			{ID: "bottom", Rect: geom.NormalizedRect{X: 0, Y: 0.5, Width: 1, Height: 0.5}},
		},
	}
	got := templatePreview(tmpl, 11, 9)
	lines := strings.Split(got, "\n")
	if len(lines) != 9 {
		t.Fatalf("preview has %d lines, want 9", len(lines))
	}
	if lines[0] != "+---------+" {
		t.Errorf("top edge = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "|1") {
		t.Errorf("first slot label line = %q, want prefix |1", lines[1])
	}
	if lines[4] != "+---------+" {
		t.Errorf("shared edge = %q", lines[4])
	}
	if !strings.HasPrefix(lines[5], "|2") {
		t.Errorf("second slot label line = %q, want prefix |2", lines[5])
	}

	if templatePreview(tmpl, 2, 2) != "" {
		t.Error("preview of a tiny grid should be empty")
	}
}

func TestTemplateTable(t *testing.T) {
	out := templateTable(templates.All(), templates.DefaultID)
	if !strings.Contains(out, templates.DefaultID+" *") {
		t.Errorf("table does not mark the default template:\n%s", out)
	}
	for _, tmpl := range templates.All() {
		if !strings.Contains(out, tmpl.ID) {
			t.Errorf("table is missing %q", tmpl.ID)
		}
	}
}
