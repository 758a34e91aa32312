package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/VoidMesh/lethal-empire/cmd/debug/components"
	"github.com/VoidMesh/lethal-empire/internal/game"
)

type OverviewModel struct {
	world  *game.World
	status game.Status
	width  int
	height int
}

func NewOverviewModel(world *game.World) OverviewModel {
	return OverviewModel{world: world, status: world.Status()}
}

func (m OverviewModel) Init() tea.Cmd { return nil }

func (m OverviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { return m.update(msg) }

func (m OverviewModel) update(msg tea.Msg) (OverviewModel, tea.Cmd) {
	if _, ok := msg.(tickMsg); ok {
		m.status = m.world.Status()
	}
	return m, nil
}

func (m OverviewModel) View() string {
	st := m.status
	var s strings.Builder
	s.WriteString(components.TitleStyle.Render("Overview") + "\n")

	result := "pending"
	if st.Quota.Evaluations > 0 {
		result = "failed"
		if st.Quota.Success {
			result = "met"
		}
	}
	lines := []string{
		components.QuotaStyle.Render(st.Quota.Text),
		fmt.Sprintf("next evaluation in %s", st.Quota.TimeLeftText),
		fmt.Sprintf("evaluations: %d (last %s)", st.Quota.Evaluations, result),
		"",
		fmt.Sprintf("state:     %s", st.State),
		fmt.Sprintf("seed:      %d", st.Seed),
		fmt.Sprintf("tick:      %d", st.Tick),
		fmt.Sprintf("focus:     %s", st.Focus),
		fmt.Sprintf("chunks:    %d loaded / %d spawned", st.LoadedChunks, st.SpawnedChunks),
		fmt.Sprintf("buildings: %d", st.Buildings),
		fmt.Sprintf("workers:   %d", st.Workers),
	}
	s.WriteString(components.BorderStyle.Render(strings.Join(lines, "\n")) + "\n")
	s.WriteString(components.StatusBarStyle.Width(m.width).Render("q to go back"))
	return s.String()
}

func (m *OverviewModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}
