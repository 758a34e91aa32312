package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/VoidMesh/lethal-empire/cmd/debug/components"
	"github.com/VoidMesh/lethal-empire/internal/building"
	"github.com/VoidMesh/lethal-empire/internal/chunk"
	"github.com/VoidMesh/lethal-empire/internal/game"
	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/resource"
)

const commandTimeout = 5 * time.Second

// WorldMapModel draws the focused chunk with its resources, buildings and workers.
type WorldMapModel struct {
	world *game.World

	focus    geometry.ChunkCoord
	cursor   geometry.TileCoord
	overlay  bool
	showInfo bool
	message  string

	width  int
	height int
}

func NewWorldMapModel(world *game.World) WorldMapModel {
	size := world.Layout().Size
	return WorldMapModel{
		world:    world,
		focus:    world.Status().Focus,
		cursor:   geometry.TileCoord{X: size / 2, Z: size / 2},
		overlay:  true,
		showInfo: true,
	}
}

func (m WorldMapModel) Init() tea.Cmd { return nil }

func (m WorldMapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { return m.update(msg) }

func (m WorldMapModel) update(msg tea.Msg) (WorldMapModel, tea.Cmd) {
	size := m.world.Layout().Size

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			m.cursor.Z = max(m.cursor.Z-1, 0)
		case "down", "j":
			m.cursor.Z = min(m.cursor.Z+1, size-1)
		case "left", "h":
			m.cursor.X = max(m.cursor.X-1, 0)
		case "right", "l":
			m.cursor.X = min(m.cursor.X+1, size-1)

		case "shift+up", "K":
			return m.moveFocus(0, -1)
		case "shift+down", "J":
			return m.moveFocus(0, 1)
		case "shift+left", "H":
			return m.moveFocus(-1, 0)
		case "shift+right", "L":
			return m.moveFocus(1, 0)

		case "o":
			m.overlay = !m.overlay
		case "i":
			m.showInfo = !m.showInfo

		case "m":
			return m, m.placeCmd(building.LumberMill)
		case "p":
			return m, m.placeCmd(building.StoneQuarry)
		case "r":
			return m, m.rotateCmd()
		}

	case focusMsg:
		if msg.err != nil {
			m.message = "focus failed: " + msg.err.Error()
		} else {
			m.message = fmt.Sprintf("focus %s, %d new chunks", msg.result.Center, len(msg.result.Spawned))
		}

	case actionMsg:
		m.message = string(msg)
	}

	return m, nil
}

func (m WorldMapModel) moveFocus(dx, dz int32) (WorldMapModel, tea.Cmd) {
	m.focus = geometry.ChunkCoord{X: m.focus.X + dx, Z: m.focus.Z + dz}
	target := m.world.Layout().ChunkCenter(m.focus)
	world := m.world
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		res, err := world.Focus(ctx, target)
		return focusMsg{result: res, err: err}
	}
}

func (m WorldMapModel) cursorTile() geometry.GlobalTile {
	return m.world.Layout().JoinTile(m.focus, m.cursor)
}

func (m WorldMapModel) placeCmd(kind building.Kind) tea.Cmd {
	world := m.world
	pos := world.Layout().GlobalTileToWorldCenter(m.cursorTile())
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		b, err := world.PlaceBuilding(ctx, kind, pos, 0)
		if err != nil {
			return actionMsg("cannot place " + kind.String() + ": " + err.Error())
		}
		return actionMsg(fmt.Sprintf("placed %s at %s", b.Kind, b.Tile))
	}
}

func (m WorldMapModel) rotateCmd() tea.Cmd {
	world := m.world
	tile := m.cursorTile()
	return func() tea.Msg {
		for _, b := range world.Buildings() {
			if b.Tile != tile {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			rotated, err := world.RotateBuilding(ctx, b.ID)
			if err != nil {
				return actionMsg("rotate failed: " + err.Error())
			}
			return actionMsg(fmt.Sprintf("%s rotated to %.0f degrees", rotated.Kind, rotated.RotationDegrees()))
		}
		return actionMsg("no building at cursor")
	}
}

func (m WorldMapModel) View() string {
	var s strings.Builder

	s.WriteString(components.TitleStyle.Render(fmt.Sprintf("World Map - chunk %s", m.focus)) + "\n")
	s.WriteString(components.QuotaStyle.Render(m.world.Status().Quota.Text+"  "+m.world.Status().Quota.TimeLeftText) + "\n")

	ch, ok := m.world.Chunk(m.focus)
	var grid string
	if !ok {
		grid = components.BorderStyle.Render("chunk not spawned yet")
	} else {
		grid = m.renderGrid(ch)
	}

	if m.showInfo {
		s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, grid, m.renderInfoPanel(ch)) + "\n")
	} else {
		s.WriteString(grid + "\n")
	}
	s.WriteString(m.renderStatusBar())
	return s.String()
}

func (m WorldMapModel) renderGrid(ch *chunk.Chunk) string {
	layout := m.world.Layout()

	pieces := make(map[geometry.GlobalTile]resource.Piece, len(ch.Pieces))
	for _, p := range ch.Pieces {
		pieces[p.Tile] = p
	}
	buildings := make(map[geometry.GlobalTile]building.Building)
	for _, b := range m.world.Buildings() {
		if b.Chunk == ch.Coord {
			buildings[b.Tile] = b
		}
	}
	workers := make(map[geometry.GlobalTile]bool)
	for _, w := range m.world.Workers() {
		workers[layout.WorldPosToGlobalTile(w.Pos)] = true
	}

	rows := make([]string, 0, ch.Size)
	for z := 0; z < ch.Size; z++ {
		var row strings.Builder
		for x := 0; x < ch.Size; x++ {
			local := geometry.TileCoord{X: int32(x), Z: int32(z)}
			global := layout.JoinTile(ch.Coord, local)
			style := components.GridCellStyle.Background(components.TileColor(ch.TileAt(local)))
			symbol := components.EmptySymbol

			if m.overlay {
				if p, found := pieces[global]; found {
					sym, color, draw := components.ResourceCell(p.Kind, p.Gathered)
					if draw {
						symbol, style = sym, style.Foreground(color)
					}
				}
			}
			if b, found := buildings[global]; found {
				sym, color := components.BuildingCell(b.Kind)
				symbol, style = sym, style.Foreground(color).Bold(true)
			}
			if workers[global] {
				symbol, style = components.WorkerSymbol, style.Foreground(components.WorkerColor).Bold(true)
			}
			if local == m.cursor {
				style = components.GridSelectedCellStyle
				if symbol == components.EmptySymbol {
					symbol = components.CursorSymbol
				}
			}
			row.WriteString(style.Render(symbol))
		}
		rows = append(rows, row.String())
	}

	return components.BorderStyle.Render(strings.Join(rows, "\n"))
}

func (m WorldMapModel) renderInfoPanel(ch *chunk.Chunk) string {
	var info strings.Builder
	tile := m.cursorTile()

	info.WriteString(components.SubtitleStyle.Render("Cursor") + "\n")
	info.WriteString(fmt.Sprintf("Local: (%d, %d)\n", m.cursor.X, m.cursor.Z))
	info.WriteString(fmt.Sprintf("Tile:  %s\n", tile))
	if ch != nil {
		info.WriteString(fmt.Sprintf("Terrain: %s\n", ch.TileAt(m.cursor)))
		info.WriteString(fmt.Sprintf("Resource: %s\n", ch.ResourceAt(m.cursor)))
		for _, p := range ch.Pieces {
			if p.Tile == tile {
				info.WriteString(fmt.Sprintf("Piece: %s gathered=%v\n", p.ID, p.Gathered))
				break
			}
		}
		info.WriteString(fmt.Sprintf("Remaining pieces: %d/%d\n", ch.Remaining(), len(ch.Pieces)))
	}
	for _, b := range m.world.Buildings() {
		if b.Tile == tile {
			info.WriteString(fmt.Sprintf("Building: %s (%.0f deg)\n", b.Kind, b.RotationDegrees()))
			info.WriteString(fmt.Sprintf("Worker out: %v\n", b.HasWorker))
		}
	}

	info.WriteString("\n" + components.SubtitleStyle.Render("Legend") + "\n")
	info.WriteString(fmt.Sprintf("%s tree  %s rock  %s gathered\n", components.TreeSymbol, components.RockSymbol, components.GatheredSymbol))
	info.WriteString(fmt.Sprintf("%s mill  %s quarry  %s worker\n", components.MillSymbol, components.QuarrySymbol, components.WorkerSymbol))

	info.WriteString("\n" + components.SubtitleStyle.Render("Controls") + "\n")
	info.WriteString("arrows: cursor  HJKL: chunk\n")
	info.WriteString("o: overlay  i: info panel\n")
	info.WriteString("m/p: place  r: rotate\n")

	return components.InfoPanelStyle.Render(info.String())
}

func (m WorldMapModel) renderStatusBar() string {
	st := m.world.Status()
	parts := []string{
		fmt.Sprintf("tick %d", st.Tick),
		st.State.String(),
		fmt.Sprintf("chunks %d/%d", st.LoadedChunks, st.SpawnedChunks),
		fmt.Sprintf("buildings %d", st.Buildings),
		fmt.Sprintf("workers %d", st.Workers),
	}
	if m.overlay {
		parts = append(parts, "overlay on")
	}
	if m.message != "" {
		parts = append(parts, m.message)
	}
	return components.StatusBarStyle.Width(m.width).Render(strings.Join(parts, " • "))
}

func (m *WorldMapModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

type focusMsg struct {
	result chunk.FocusResult
	err    error
}

type actionMsg string
