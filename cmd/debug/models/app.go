package models

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/VoidMesh/lethal-empire/internal/db"
	"github.com/VoidMesh/lethal-empire/internal/game"
)

type ViewType int

const (
	MenuView ViewType = iota
	WorldMapView
	WorkerMonitorView
	DatabaseView
	OverviewView
)

const viewCount = 5

const refreshInterval = 250 * time.Millisecond

// App routes messages to the active view.
type App struct {
	world *game.World
	store *db.Store

	currentView ViewType
	width       int
	height      int

	menu          MenuModel
	worldMap      WorldMapModel
	workerMonitor WorkerMonitorModel
	database      DatabaseModel
	overview      OverviewModel

	showHelp bool
}

// NewApp builds the debug tool around a running world. store may be nil.
func NewApp(world *game.World, store *db.Store, startView string) *App {
	app := &App{
		world:       world,
		store:       store,
		currentView: MenuView,
	}

	app.menu = NewMenuModel()
	app.worldMap = NewWorldMapModel(world)
	app.workerMonitor = NewWorkerMonitorModel(world)
	app.database = NewDatabaseModel(store)
	app.overview = NewOverviewModel(world)

	switch startView {
	case "map":
		app.currentView = WorldMapView
	case "workers":
		app.currentView = WorkerMonitorView
	case "database":
		app.currentView = DatabaseView
	case "overview":
		app.currentView = OverviewView
	}

	return app
}

func (m *App) Init() tea.Cmd {
	log.Debug("Initializing debug tool", "view", m.currentView)
	return tea.Batch(m.currentModel().Init(), tickCmd())
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menu.SetSize(msg.Width, msg.Height)
		m.worldMap.SetSize(msg.Width, msg.Height)
		m.workerMonitor.SetSize(msg.Width, msg.Height)
		m.database.SetSize(msg.Width, msg.Height)
		m.overview.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.currentView == MenuView {
				return m, tea.Quit
			}
			m.currentView = MenuView
			return m, m.menu.Init()

		case "?":
			m.showHelp = !m.showHelp
			return m, nil

		case "tab":
			m.currentView = ViewType((int(m.currentView) + 1) % viewCount)
			return m, m.currentModel().Init()
		}

	case SwitchViewMsg:
		m.currentView = msg.View
		return m, m.currentModel().Init()
	}

	_, tick := msg.(tickMsg)
	if m.showHelp {
		if tick {
			return m, tickCmd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.currentView {
	case MenuView:
		m.menu, cmd = m.menu.update(msg)
	case WorldMapView:
		m.worldMap, cmd = m.worldMap.update(msg)
	case WorkerMonitorView:
		m.workerMonitor, cmd = m.workerMonitor.update(msg)
	case DatabaseView:
		m.database, cmd = m.database.update(msg)
	case OverviewView:
		m.overview, cmd = m.overview.update(msg)
	}
	if tick {
		cmd = tea.Batch(cmd, tickCmd())
	}
	return m, cmd
}

func (m *App) View() string {
	if m.showHelp {
		return helpText
	}
	return m.currentModel().View()
}

func (m *App) currentModel() tea.Model {
	switch m.currentView {
	case WorldMapView:
		return m.worldMap
	case WorkerMonitorView:
		return m.workerMonitor
	case DatabaseView:
		return m.database
	case OverviewView:
		return m.overview
	}
	return m.menu
}

const helpText = `
Lethal Empire Debug Tool

Global keys
  q            back to menu / quit from menu
  ctrl+c       quit
  ?            toggle this help
  tab          cycle views

World map
  arrows       move cursor
  H J K L      move focus one chunk
  o            toggle resource overlay
  m / p        place lumber mill / stone quarry at cursor
  r            rotate building at cursor

Press ? again to close
`

type SwitchViewMsg struct {
	View ViewType
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
