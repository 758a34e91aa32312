// Package noise provides the coherent noise sources used by world generation.
package noise

import (
	"github.com/aquilax/go-perlin"
)

// Source is a 2D noise function. Implementations must be safe for concurrent reads.
type Source interface {
	Get(x, z float64) float64
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(x, z float64) float64

func (f SourceFunc) Get(x, z float64) float64 { return f(x, z) }

// FBMParams configures fractal Brownian motion over Perlin noise.
type FBMParams struct {
	Frequency   float64
	Persistence float64
	Lacunarity  float64
	Octaves     int
}

// DefaultFBMParams matches the terrain layer of the game.
func DefaultFBMParams() FBMParams {
	return FBMParams{
		Frequency:   1.0,
		Persistence: 0.5,
		Lacunarity:  2.0,
		Octaves:     14,
	}
}

// FBM sums Octaves layers of Perlin noise. Each layer is Lacunarity times the frequency
// and Persistence times the amplitude of the previous one.
type FBM struct {
	params FBMParams
	seed   int64
	perlin *perlin.Perlin
}

// NewFBM creates an fBm source with the given seed.
func NewFBM(seed int64, params FBMParams) *FBM {
	alpha := 2.0
	if params.Persistence > 0 {
		alpha = 1 / params.Persistence
	}
	return &FBM{
		params: params,
		seed:   seed,
		perlin: perlin.NewPerlin(alpha, params.Lacunarity, int32(params.Octaves), seed),
	}
}

// Get returns the noise value at (x, z), roughly within [-1, 1].
func (f *FBM) Get(x, z float64) float64 {
	return f.perlin.Noise2D(x*f.params.Frequency, z*f.params.Frequency)
}

func (f *FBM) Seed() int64 { return f.seed }

func (f *FBM) Params() FBMParams { return f.params }
