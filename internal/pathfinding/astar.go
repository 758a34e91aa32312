// Package pathfinding finds walkable routes between tiles with A*.
package pathfinding

import (
	"container/heap"
	"errors"
	"math"

	"github.com/VoidMesh/lethal-empire/internal/geometry"
)

var (
	ErrNoPath  = errors.New("no path found")
	ErrBlocked = errors.New("goal tile is blocked")
)

const DefaultMaxNodes = 4096

// Grid reports which global tiles units may walk on.
type Grid interface {
	Passable(t geometry.GlobalTile) bool
}

// GridFunc adapts a function to Grid.
type GridFunc func(t geometry.GlobalTile) bool

func (f GridFunc) Passable(t geometry.GlobalTile) bool { return f(t) }

type Options struct {
	MaxNodes int
	// AllowGoal lets the goal be impassable, e.g. when it is a building tile.
	AllowGoal bool
}

var neighbours = [8]struct {
	dx, dz int32
	cost   float64
}{
	{1, 0, 1}, {-1, 0, 1}, {0, 1, 1}, {0, -1, 1},
	{1, 1, math.Sqrt2}, {1, -1, math.Sqrt2}, {-1, 1, math.Sqrt2}, {-1, -1, math.Sqrt2},
}

// Find returns the cheapest 8-connected path from start to goal, both included. Diagonal
// steps are refused when either adjacent orthogonal tile is blocked. Start is always
// walkable; the goal is walkable when it is passable or opts.AllowGoal is set.
func Find(grid Grid, start, goal geometry.GlobalTile, opts Options) ([]geometry.GlobalTile, error) {
	if start == goal {
		return []geometry.GlobalTile{start}, nil
	}
	if !opts.AllowGoal && !grid.Passable(goal) {
		return nil, ErrBlocked
	}
	maxNodes := opts.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}

	walkable := func(t geometry.GlobalTile) bool {
		return t == start || t == goal || grid.Passable(t)
	}

	open := &nodeHeap{}
	gScore := map[geometry.GlobalTile]float64{start: 0}
	cameFrom := map[geometry.GlobalTile]geometry.GlobalTile{}
	closed := map[geometry.GlobalTile]bool{}
	heap.Push(open, &node{tile: start, f: octile(start, goal)})

	expanded := 0
	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if closed[cur.tile] {
			continue
		}
		if cur.tile == goal {
			return reconstruct(cameFrom, goal), nil
		}
		closed[cur.tile] = true

		expanded++
		if expanded > maxNodes {
			return nil, ErrNoPath
		}

		for _, n := range neighbours {
			next := geometry.GlobalTile{X: cur.tile.X + n.dx, Z: cur.tile.Z + n.dz}
			if closed[next] || !walkable(next) {
				continue
			}
			if n.dx != 0 && n.dz != 0 {
				if !walkable(geometry.GlobalTile{X: cur.tile.X + n.dx, Z: cur.tile.Z}) ||
					!walkable(geometry.GlobalTile{X: cur.tile.X, Z: cur.tile.Z + n.dz}) {
					continue
				}
			}
			g := gScore[cur.tile] + n.cost
			if old, seen := gScore[next]; seen && g >= old {
				continue
			}
			gScore[next] = g
			cameFrom[next] = cur.tile
			heap.Push(open, &node{tile: next, g: g, f: g + octile(next, goal)})
		}
	}
	return nil, ErrNoPath
}

// Cost sums the step costs along a path.
func Cost(path []geometry.GlobalTile) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		if path[i].X != path[i-1].X && path[i].Z != path[i-1].Z {
			total += math.Sqrt2
		} else {
			total++
		}
	}
	return total
}

// Waypoints converts a tile path to world positions at tile centers.
func Waypoints(layout geometry.Layout, path []geometry.GlobalTile) []geometry.Vec2 {
	out := make([]geometry.Vec2, len(path))
	for i, t := range path {
		out[i] = layout.GlobalTileToWorldCenter(t)
	}
	return out
}

func octile(a, b geometry.GlobalTile) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dz := math.Abs(float64(a.Z - b.Z))
	return (dx + dz) + (math.Sqrt2-2)*math.Min(dx, dz)
}

func reconstruct(cameFrom map[geometry.GlobalTile]geometry.GlobalTile, goal geometry.GlobalTile) []geometry.GlobalTile {
	path := []geometry.GlobalTile{goal}
	for cur, ok := cameFrom[goal]; ok; cur, ok = cameFrom[cur] {
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type node struct {
	tile geometry.GlobalTile
	g, f float64
}

type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].g > h[j].g
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}
