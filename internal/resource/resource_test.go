package resource

import (
	"testing"

	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/noise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_Classify(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		name     string
		n, w     float64
		expected Kind
	}{
		{name: "negative worley", n: 0.9, w: -0.1, expected: None},
		{name: "low terrain", n: 0.29, w: 0.9, expected: None},
		{name: "rock", n: 0.3, w: 0.0, expected: Rock},
		{name: "rock below cutoff", n: 0.5, w: 0.49, expected: Rock},
		{name: "tree", n: 0.5, w: 0.5, expected: Tree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.Classify(tt.n, tt.w))
		})
	}
}

func TestKind_Text(t *testing.T) {
	for _, k := range Kinds {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("gold")
	assert.Error(t, err)
}

func TestPieceID(t *testing.T) {
	id := PieceID(geometry.ChunkCoord{X: -3, Z: 7}, 12)
	assert.Equal(t, "-3:7:12", id)

	c, n, err := ParsePieceID(id)
	require.NoError(t, err)
	assert.Equal(t, geometry.ChunkCoord{X: -3, Z: 7}, c)
	assert.Equal(t, 12, n)

	_, _, err = ParsePieceID("garbage")
	assert.Error(t, err)
}

func newTestGenerator(src noise.Source) *Generator {
	return NewGenerator(21, src, geometry.NewLayout(16, 16), DefaultParams())
}

func TestGenerator_GenerateDeterministic(t *testing.T) {
	fbm := noise.NewFBM(21, noise.DefaultFBMParams())
	a := newTestGenerator(fbm).Generate(geometry.ChunkCoord{X: 1, Z: 1}, 16)
	b := newTestGenerator(fbm).Generate(geometry.ChunkCoord{X: 1, Z: 1}, 16)
	require.Len(t, a, 256)
	assert.Equal(t, a, b)
}

func TestGenerator_LowTerrainHasNoResources(t *testing.T) {
	flat := noise.SourceFunc(func(x, z float64) float64 { return 0.1 })
	for _, k := range newTestGenerator(flat).Generate(geometry.ChunkCoord{}, 16) {
		assert.Equal(t, None, k)
	}
}

func TestGenerator_Pieces(t *testing.T) {
	high := noise.SourceFunc(func(x, z float64) float64 { return 0.9 })
	g := newTestGenerator(high)
	coord := geometry.ChunkCoord{X: -1, Z: 2}
	layout := geometry.NewLayout(16, 16)

	kinds := make([]Kind, 256)
	for i := range kinds {
		if i%16 < 8 {
			kinds[i] = Tree
		} else {
			kinds[i] = Rock
		}
	}

	pieces := g.Pieces(coord, 16, kinds)
	require.NotEmpty(t, pieces)

	seen := map[string]bool{}
	counts := map[Kind]int{}
	for n, p := range pieces {
		assert.Equal(t, PieceID(coord, n), p.ID)
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
		counts[p.Kind]++

		assert.Equal(t, coord, p.Chunk)
		assert.Equal(t, p.Tile, layout.WorldPosToGlobalTile(p.Pos))
		assert.Equal(t, coord, layout.GlobalTileToChunk(p.Tile))

		_, local := layout.SplitGlobalTile(p.Tile)
		assert.Equal(t, kinds[layout.TileCoordToIndex(local)], p.Kind)
		assert.False(t, p.Gathered)
	}
	assert.Greater(t, counts[Tree], 0)
	assert.Greater(t, counts[Rock], 0)
	assert.Greater(t, counts[Tree], counts[Rock], "trees are packed tighter than rocks")

	assert.Equal(t, pieces, g.Pieces(coord, 16, kinds))
	assert.Nil(t, g.Pieces(coord, 16, kinds[:10]))
}

func TestGenerator_NoPiecesWithoutResources(t *testing.T) {
	g := newTestGenerator(noise.SourceFunc(func(x, z float64) float64 { return 0 }))
	assert.Empty(t, g.Pieces(geometry.ChunkCoord{}, 16, make([]Kind, 256)))
}
