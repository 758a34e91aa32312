package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/VoidMesh/lethal-empire/cmd/debug/components"
	"github.com/VoidMesh/lethal-empire/internal/game"
	"github.com/VoidMesh/lethal-empire/internal/unit"
)

// WorkerMonitorModel lists the active workers, refreshed on every tick.
type WorkerMonitorModel struct {
	world   *game.World
	workers []unit.Worker
	width   int
	height  int
}

func NewWorkerMonitorModel(world *game.World) WorkerMonitorModel {
	return WorkerMonitorModel{world: world}
}

func (m WorkerMonitorModel) Init() tea.Cmd { return nil }

func (m WorkerMonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { return m.update(msg) }

func (m WorkerMonitorModel) update(msg tea.Msg) (WorkerMonitorModel, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		m.workers = m.world.Workers()
	}
	return m, nil
}

func (m WorkerMonitorModel) View() string {
	var s strings.Builder
	s.WriteString(components.TitleStyle.Render("Worker Monitor") + "\n")

	header := components.TableHeaderStyle.Render(fmt.Sprintf("%-8s %-8s %-14s %-20s %-9s %s", "worker", "building", "target", "position", "carrying", "waypoints"))
	rows := []string{header}
	for _, w := range m.workers {
		rows = append(rows, components.TableCellStyle.Render(fmt.Sprintf("%-8s %-8s %-14s %-20s %-9v %d",
			w.ID.String()[:8],
			w.Building.String()[:8],
			w.Target,
			fmt.Sprintf("(%.1f, %.1f)", w.Pos.X, w.Pos.Z),
			w.Carrying,
			len(w.Waypoints),
		)))
	}
	if len(m.workers) == 0 {
		rows = append(rows, components.TableCellStyle.Render("no workers out"))
	}
	s.WriteString(components.BorderStyle.Render(strings.Join(rows, "\n")) + "\n")

	status := fmt.Sprintf("%d active • %s • q to go back", len(m.workers), m.world.Status().Quota.Text)
	s.WriteString(components.StatusBarStyle.Width(m.width).Render(status))
	return s.String()
}

func (m *WorkerMonitorModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}
