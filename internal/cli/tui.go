package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/inkframe/pkg/templates"
)

const (
	previewWidth  = 32
	previewHeight = 16
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	previewBoxStyle   = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// =============================================================================
// TemplatePickerModel - Interactive template selection
// =============================================================================

// TemplatePickerModel lists layout templates next to a preview of the
// highlighted one.
type TemplatePickerModel struct {
	Templates []templates.LayoutTemplate
	DefaultID string
	Cursor    int
	Offset    int
	Height    int
	Selected  *templates.LayoutTemplate
}

// NewTemplatePickerModel starts with the cursor on the registry default.
func NewTemplatePickerModel(reg *templates.Registry) TemplatePickerModel {
	m := TemplatePickerModel{
		Templates: reg.All(),
		DefaultID: reg.DefaultID(),
		Height:    previewHeight,
	}
	for i, t := range m.Templates {
		if t.ID == m.DefaultID {
			m.Cursor = i
		}
	}
	m.scroll()
	return m
}

func (m TemplatePickerModel) Init() tea.Cmd {
	return nil
}

func (m TemplatePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Templates)-1 {
				m.Cursor++
			}
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			m.Cursor = max(len(m.Templates)-1, 0)
		case "enter":
			if len(m.Templates) == 0 {
				return m, nil
			}
			t := m.Templates[m.Cursor]
			m.Selected = &t
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	m.scroll()
	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *TemplatePickerModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Height > 0 && m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m TemplatePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Layout Template"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	if len(m.Templates) == 0 {
		b.WriteString(listDimStyle.Render("  no templates"))
		return b.String()
	}

	var list strings.Builder
	end := min(m.Offset+m.Height, len(m.Templates))
	for i := m.Offset; i < end; i++ {
		t := m.Templates[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		marker := " "
		if t.ID == m.DefaultID {
			marker = "*"
		}
		line := fmt.Sprintf("%s%s %-20s %s", cursor, marker, t.ID, listDimStyle.Render(plural(t.PanelCount, "panel")))
		if i == m.Cursor {
			list.WriteString(listSelectedStyle.Render(line))
		} else {
			list.WriteString(listNormalStyle.Render(line))
		}
		list.WriteString("\n")
	}

	current := m.Templates[m.Cursor]
	preview := previewBoxStyle.Render(
		StyleHighlight.Render(current.Name) + "\n" +
			listDimStyle.Render(current.GridType) + "\n\n" +
			templatePreview(current, previewWidth, previewHeight),
	)

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list.String(), "  ", preview))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Templates))))

	return b.String()
}

// pickTemplate runs the picker and returns the chosen template id, or ""
// when the user quits without choosing.
func (c *CLI) pickTemplate() (string, error) {
	reg, err := c.registry()
	if err != nil {
		return "", err
	}
	final, err := tea.NewProgram(NewTemplatePickerModel(reg)).Run()
	if err != nil {
		return "", fmt.Errorf("template picker: %w", err)
	}
	m, ok := final.(TemplatePickerModel)
	if !ok || m.Selected == nil {
		printInfo("No template selected")
		return "", nil
	}
	return m.Selected.ID, nil
}
