package models

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/VoidMesh/lethal-empire/cmd/debug/components"
	"github.com/VoidMesh/lethal-empire/internal/db"
	"github.com/VoidMesh/lethal-empire/internal/game"
)

// DatabaseModel shows what the store has persisted so far.
type DatabaseModel struct {
	store *db.Store

	chunks    int64
	buildings int
	saved     game.SavedState
	hasSaved  bool
	err       error

	width  int
	height int
}

func NewDatabaseModel(store *db.Store) DatabaseModel {
	return DatabaseModel{store: store}
}

func (m DatabaseModel) Init() tea.Cmd { return m.loadCmd() }

func (m DatabaseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { return m.update(msg) }

func (m DatabaseModel) update(msg tea.Msg) (DatabaseModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "r" {
			return m, m.loadCmd()
		}
	case dbStatsMsg:
		m.chunks, m.buildings, m.saved, m.hasSaved, m.err = msg.chunks, msg.buildings, msg.saved, msg.hasSaved, msg.err
	}
	return m, nil
}

type dbStatsMsg struct {
	chunks    int64
	buildings int
	saved     game.SavedState
	hasSaved  bool
	err       error
}

func (m DatabaseModel) loadCmd() tea.Cmd {
	if m.store == nil {
		return nil
	}
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		var msg dbStatsMsg
		if msg.chunks, msg.err = store.ChunkCount(ctx); msg.err != nil {
			return msg
		}
		buildings, err := store.LoadBuildings(ctx)
		if err != nil {
			msg.err = err
			return msg
		}
		msg.buildings = len(buildings)
		msg.saved, msg.hasSaved, msg.err = store.LoadGameState(ctx)
		return msg
	}
}

func (m DatabaseModel) View() string {
	var s strings.Builder
	s.WriteString(components.TitleStyle.Render("Database Inspector") + "\n")

	var body string
	switch {
	case m.store == nil:
		body = "running without a database"
	case m.err != nil:
		body = "error: " + m.err.Error()
	default:
		lines := []string{
			fmt.Sprintf("chunks saved:    %d", m.chunks),
			fmt.Sprintf("buildings saved: %d", m.buildings),
		}
		if m.hasSaved {
			lines = append(lines,
				fmt.Sprintf("saved seed:      %d", m.saved.Seed),
				fmt.Sprintf("saved tick:      %d", m.saved.Tick),
				fmt.Sprintf("saved quota:     %d/%d", m.saved.Quota.Resources, m.saved.Quota.Quota),
			)
		} else {
			lines = append(lines, "no game state saved yet")
		}
		body = strings.Join(lines, "\n")
	}
	s.WriteString(components.BorderStyle.Render(body) + "\n")
	s.WriteString(components.StatusBarStyle.Width(m.width).Render("r to refresh • q to go back"))
	return s.String()
}

func (m *DatabaseModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}
