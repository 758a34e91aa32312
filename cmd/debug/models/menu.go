package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/VoidMesh/lethal-empire/cmd/debug/components"
)

type MenuModel struct {
	choices []MenuChoice
	cursor  int
	width   int
	height  int
}

type MenuChoice struct {
	Title       string
	Description string
	View        ViewType
}

func NewMenuModel() MenuModel {
	return MenuModel{
		choices: []MenuChoice{
			{Title: "World Map", Description: "Explore chunks, resources and buildings", View: WorldMapView},
			{Title: "Worker Monitor", Description: "Follow workers on their routes", View: WorkerMonitorView},
			{Title: "Database Inspector", Description: "Inspect what has been persisted", View: DatabaseView},
			{Title: "Overview", Description: "Quota, tick and chunk counters", View: OverviewView},
		},
	}
}

func (m MenuModel) Init() tea.Cmd { return nil }

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { return m.update(msg) }

func (m MenuModel) update(msg tea.Msg) (MenuModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		m.cursor = (m.cursor - 1 + len(m.choices)) % len(m.choices)
	case "down", "j":
		m.cursor = (m.cursor + 1) % len(m.choices)
	case "enter", " ":
		return m, switchTo(m.choices[m.cursor].View)
	case "1", "2", "3", "4":
		choice := int(key.String()[0] - '1')
		if choice < len(m.choices) {
			m.cursor = choice
			return m, switchTo(m.choices[choice].View)
		}
	}
	return m, nil
}

func switchTo(v ViewType) tea.Cmd {
	return func() tea.Msg { return SwitchViewMsg{View: v} }
}

func (m MenuModel) View() string {
	var s strings.Builder

	s.WriteString(components.TitleStyle.Render("Lethal Empire Debug Tool") + "\n\n")

	menuStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(components.PrimaryColor).
		Padding(1, 2).
		Width(70)

	var items []string
	for i, choice := range m.choices {
		style := components.MenuItemStyle
		if i == m.cursor {
			style = components.SelectedMenuItemStyle
		}
		items = append(items, style.Render(fmt.Sprintf("%d. %-20s %s", i+1, choice.Title, choice.Description)))
	}
	s.WriteString(menuStyle.Render(strings.Join(items, "\n")) + "\n")
	s.WriteString(components.HelpStyle.Render("up/down or j/k to navigate • enter or number to select • ? for help • q to quit"))

	content := s.String()
	if m.width > 0 {
		if w := lipgloss.Width(content); w < m.width {
			content = lipgloss.NewStyle().PaddingLeft((m.width - w) / 2).Render(content)
		}
	}
	return content
}

func (m *MenuModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}
