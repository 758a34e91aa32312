package terrain

import (
	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/noise"
)

// Generator produces deterministic tile grids for chunks.
type Generator struct {
	seed       int64
	source     noise.Source
	thresholds Thresholds
}

// NewGenerator builds the terrain layer: fBm Perlin noise with the given parameters.
func NewGenerator(seed int64, params noise.FBMParams, thresholds Thresholds) *Generator {
	return &Generator{
		seed:       seed,
		source:     noise.NewFBM(seed, params),
		thresholds: thresholds,
	}
}

// NewGeneratorWithSource lets callers plug in any noise source.
func NewGeneratorWithSource(seed int64, src noise.Source, thresholds Thresholds) *Generator {
	return &Generator{seed: seed, source: src, thresholds: thresholds}
}

func (g *Generator) Seed() int64 { return g.seed }

func (g *Generator) Thresholds() Thresholds { return g.thresholds }

// Source exposes the underlying noise so other layers can sample the same field.
func (g *Generator) Source() noise.Source { return g.source }

// PlaneBounds returns the noise-space bounds of a chunk: one unit per chunk, centered on
// the chunk coordinate.
func PlaneBounds(coord geometry.ChunkCoord) (noise.Bounds, noise.Bounds) {
	return noise.Bounds{Min: float64(coord.X) - 0.5, Max: float64(coord.X) + 0.5},
		noise.Bounds{Min: float64(coord.Z) - 0.5, Max: float64(coord.Z) + 0.5}
}

// Sample returns the raw noise values of a chunk, row-major.
func (g *Generator) Sample(coord geometry.ChunkCoord, size int) []float64 {
	xb, zb := PlaneBounds(coord)
	return noise.PlaneMap(g.source, size, size, xb, zb)
}

// Generate returns the tile kinds of a chunk, row-major (index z*size + x).
func (g *Generator) Generate(coord geometry.ChunkCoord, size int) []TileKind {
	return g.Classify(g.Sample(coord, size))
}

// Classify maps raw noise values to tile kinds.
func (g *Generator) Classify(values []float64) []TileKind {
	tiles := make([]TileKind, len(values))
	for i, v := range values {
		tiles[i] = g.thresholds.FromNoise(v)
	}
	return tiles
}
