package unit

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/VoidMesh/lethal-empire/internal/building"
	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/pathfinding"
	"github.com/VoidMesh/lethal-empire/internal/resource"
)

var ErrNoTarget = errors.New("no reachable resource")

// PieceFinder lists ungathered pieces around a tile.
type PieceFinder interface {
	PiecesWithin(center geometry.GlobalTile, radius int32, kind resource.Kind) []resource.Piece
}

type PlannerOptions struct {
	SearchRadius int32
	Velocity     float64
	MaxNodes     int
	// Candidates bounds how many of the nearest pieces are tried before giving up.
	Candidates int
}

// Planner sends workers from buildings to the nearest piece they can reach and back.
type Planner struct {
	grid   pathfinding.Grid
	pieces PieceFinder
	layout geometry.Layout
	opts   PlannerOptions
}

func NewPlanner(grid pathfinding.Grid, pieces PieceFinder, layout geometry.Layout, opts PlannerOptions) *Planner {
	if opts.Candidates <= 0 {
		opts.Candidates = 8
	}
	return &Planner{grid: grid, pieces: pieces, layout: layout, opts: opts}
}

// Plan builds a worker for b. Pieces for which reserved returns true are skipped.
func (p *Planner) Plan(b building.Building, reserved func(pieceID string) bool) (*Worker, error) {
	kind := b.Kind.Gathers()
	candidates := p.pieces.PiecesWithin(b.Tile, p.opts.SearchRadius, kind)
	candidates = slices.DeleteFunc(candidates, func(pc resource.Piece) bool {
		return reserved != nil && reserved(pc.ID)
	})
	slices.SortFunc(candidates, func(x, y resource.Piece) int {
		dx, dy := x.Pos.Distance(b.Pos), y.Pos.Distance(b.Pos)
		switch {
		case dx < dy:
			return -1
		case dx > dy:
			return 1
		}
		return strings.Compare(x.ID, y.ID)
	})

	opts := pathfinding.Options{MaxNodes: p.opts.MaxNodes, AllowGoal: true}
	for i, piece := range candidates {
		if i >= p.opts.Candidates {
			break
		}
		out, err := pathfinding.Find(p.grid, b.Tile, piece.Tile, opts)
		if err != nil {
			continue
		}
		back, err := pathfinding.Find(p.grid, piece.Tile, b.Tile, opts)
		if err != nil {
			continue
		}

		waypoints := p.leg(out, GatherAction(piece.ID))
		waypoints = append(waypoints, p.leg(back, DepositAction(), ReleaseAction(b.ID))...)
		return NewWorker(b.ID, piece.ID, b.Pos, p.opts.Velocity, waypoints), nil
	}
	return nil, fmt.Errorf("%w for %s %s", ErrNoTarget, b.Kind, b.ID)
}

// leg turns a path into waypoints, skipping the tile the worker already stands on and
// attaching actions to the last one.
func (p *Planner) leg(path []geometry.GlobalTile, actions ...Action) []Waypoint {
	tiles := path[1:]
	if len(tiles) == 0 {
		tiles = path
	}
	out := make([]Waypoint, len(tiles))
	for i, pos := range pathfinding.Waypoints(p.layout, tiles) {
		out[i] = Waypoint{Pos: pos}
	}
	out[len(out)-1].Actions = actions
	return out
}
