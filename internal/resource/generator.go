package resource

import (
	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/noise"
	"github.com/VoidMesh/lethal-empire/internal/sampling"
	"github.com/VoidMesh/lethal-empire/internal/terrain"
)

// Params tunes resource placement.
type Params struct {
	MinNoise        float64
	RockCutoff      float64
	WorleyFrequency float64
	TreeRadius      float64
	RockRadius      float64
	K               int
}

func DefaultParams() Params {
	return Params{
		MinNoise:        0.3,
		RockCutoff:      0.5,
		WorleyFrequency: 1.0,
		TreeRadius:      1.5,
		RockRadius:      3.0,
		K:               30,
	}
}

// Generator overlays resources on terrain. It samples the same noise field as the terrain
// generator plus a cellular layer that groups resources into forests and quarries.
type Generator struct {
	seed    int64
	terrain noise.Source
	worley  noise.Source
	params  Params
	layout  geometry.Layout
}

func NewGenerator(seed int64, terrainNoise noise.Source, layout geometry.Layout, params Params) *Generator {
	return &Generator{
		seed:    seed,
		terrain: terrainNoise,
		worley:  noise.NewWorley(seed).WithFrequency(params.WorleyFrequency),
		params:  params,
		layout:  layout,
	}
}

// WithWorley replaces the cellular layer.
func (g *Generator) WithWorley(src noise.Source) *Generator {
	g.worley = src
	return g
}

// Classify combines a terrain sample n with a Worley value w.
func (p Params) Classify(n, w float64) Kind {
	switch {
	case w < 0 || n < p.MinNoise:
		return None
	case w < p.RockCutoff:
		return Rock
	default:
		return Tree
	}
}

// Generate returns the resource kind of every tile of a chunk, row-major.
func (g *Generator) Generate(coord geometry.ChunkCoord, size int) []Kind {
	xb, zb := terrain.PlaneBounds(coord)
	n := noise.PlaneMap(g.terrain, size, size, xb, zb)
	w := noise.PlaneMap(g.worley, size, size, xb, zb)

	kinds := make([]Kind, len(n))
	for i := range n {
		kinds[i] = g.params.Classify(n[i], w[i])
	}
	return kinds
}

// Pieces scatters individual trees and rocks over the tiles that carry them. Points come
// from a Poisson disc sampler in tile units, so pieces of one kind keep their spacing.
func (g *Generator) Pieces(coord geometry.ChunkCoord, size int, kinds []Kind) []Piece {
	if len(kinds) != size*size {
		return nil
	}

	base := noise.SeedFromCoord(g.seed, coord.X, coord.Z)
	origin := g.layout.ChunkCoordToWorldPos(coord)

	var pieces []Piece
	for i, kind := range []Kind{Tree, Rock} {
		radius := g.params.TreeRadius
		if kind == Rock {
			radius = g.params.RockRadius
		}
		points := sampling.New(base+uint64(i)).
			WithRadius(radius).
			WithSize(float64(size), float64(size)).
			WithK(g.params.K).
			Sample()

		for _, pt := range points {
			local := geometry.TileCoord{X: int32(pt.X), Z: int32(pt.Z)}
			if kinds[int(local.Z)*size+int(local.X)] != kind {
				continue
			}
			pieces = append(pieces, Piece{
				ID:    PieceID(coord, len(pieces)),
				Kind:  kind,
				Chunk: coord,
				Pos:   origin.Add(geometry.Vec2{X: pt.X, Z: pt.Z}.Scale(g.layout.TileSize)),
				Tile:  g.layout.JoinTile(coord, local),
			})
		}
	}
	return pieces
}
