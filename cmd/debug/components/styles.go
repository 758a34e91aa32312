package components

import (
	"github.com/VoidMesh/lethal-empire/internal/building"
	"github.com/VoidMesh/lethal-empire/internal/resource"
	"github.com/VoidMesh/lethal-empire/internal/terrain"
	"github.com/charmbracelet/lipgloss"
)

var (
	PrimaryColor   = lipgloss.Color("#7D56F4")
	SecondaryColor = lipgloss.Color("#04B575")
	AccentColor    = lipgloss.Color("#FFD700")
	DangerColor    = lipgloss.Color("#F25D94")

	LightGray = lipgloss.Color("#D9D9D9")
	Gray      = lipgloss.Color("#8B8B8B")
	DarkGray  = lipgloss.Color("#383838")

	// Terrain
	WaterColor  = lipgloss.Color("#1E3A8A")
	GrassColor  = lipgloss.Color("#2F7D32")
	BarrenColor = lipgloss.Color("#8D6E63")

	// Resources
	TreeColor     = lipgloss.Color("#0B3D0B")
	RockColor     = lipgloss.Color("#B0B0B0")
	GatheredColor = lipgloss.Color("#5D4037")

	MillColor    = lipgloss.Color("#FFB300")
	QuarryColor  = lipgloss.Color("#E0E0E0")
	WorkerColor  = lipgloss.Color("#FF1744")
	SuccessColor = lipgloss.Color("#00C853")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Align(lipgloss.Center).
			Padding(1, 2)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true).
			Padding(0, 1)

	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Gray).
			Padding(1)

	MenuItemStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 2)

	SelectedMenuItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(PrimaryColor).
				Bold(true).
				Padding(0, 2)

	InfoPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SecondaryColor).
			Padding(1).
			Width(34)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(DarkGray).
			Padding(0, 1)

	QuotaStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true).
			Padding(0, 1)

	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true).
				Padding(0, 1)

	TableCellStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Gray).
			Italic(true).
			Padding(1)

	GridCellStyle = lipgloss.NewStyle().
			Width(2).
			Height(1).
			Align(lipgloss.Center)

	GridSelectedCellStyle = GridCellStyle.
				Background(PrimaryColor).
				Foreground(lipgloss.Color("#FAFAFA"))
)

const (
	TreeSymbol     = "^^"
	RockSymbol     = "()"
	GatheredSymbol = ".."
	MillSymbol     = "LM"
	QuarrySymbol   = "SQ"
	WorkerSymbol   = "@@"
	EmptySymbol    = "  "
	CursorSymbol   = "><"
)

func TileColor(k terrain.TileKind) lipgloss.Color {
	switch k {
	case terrain.Water:
		return WaterColor
	case terrain.Grass:
		return GrassColor
	default:
		return BarrenColor
	}
}

// ResourceCell returns the symbol and colour of a resource tile, or ok=false when the
// overlay has nothing to draw.
func ResourceCell(k resource.Kind, gathered bool) (symbol string, color lipgloss.Color, ok bool) {
	if gathered {
		return GatheredSymbol, GatheredColor, true
	}
	switch k {
	case resource.Tree:
		return TreeSymbol, TreeColor, true
	case resource.Rock:
		return RockSymbol, RockColor, true
	}
	return "", "", false
}

func BuildingCell(k building.Kind) (string, lipgloss.Color) {
	if k == building.StoneQuarry {
		return QuarrySymbol, QuarryColor
	}
	return MillSymbol, MillColor
}

func LeftText(text string, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Left).Render(text)
}

func RightText(text string, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Right).Render(text)
}
