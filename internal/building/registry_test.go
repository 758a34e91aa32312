package building

import (
	"testing"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/resource"
	"github.com/VoidMesh/lethal-empire/internal/terrain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLayout = geometry.NewLayout(16, 16)

// fakeTiles is grass everywhere except the listed water tiles, and only chunk (0, 0) is
// spawned.
type fakeTiles struct {
	water map[geometry.GlobalTile]bool
}

func (f fakeTiles) Tile(t geometry.GlobalTile) (terrain.TileKind, bool) {
	if testLayout.GlobalTileToChunk(t) != (geometry.ChunkCoord{}) {
		return terrain.Water, false
	}
	if f.water[t] {
		return terrain.Water, true
	}
	return terrain.Grass, true
}

func tileCenter(x, z int32) geometry.Vec2 {
	return testLayout.GlobalTileToWorldCenter(geometry.GlobalTile{X: x, Z: z})
}

func TestKind(t *testing.T) {
	k, err := ParseKind("Lumber_Mill")
	require.NoError(t, err)
	assert.Equal(t, LumberMill, k)
	assert.Equal(t, resource.Tree, LumberMill.Gathers())
	assert.Equal(t, resource.Rock, StoneQuarry.Gathers())

	_, err = ParseKind("castle")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestRegistry_Validate(t *testing.T) {
	tiles := fakeTiles{water: map[geometry.GlobalTile]bool{{X: 2, Z: 2}: true}}
	r := NewRegistry(testLayout)
	_, err := r.Place(LumberMill, tileCenter(5, 5), 0, tiles)
	require.NoError(t, err)

	tests := []struct {
		name        string
		kind        Kind
		pos         geometry.Vec2
		expectError error
		expectTile  geometry.GlobalTile
	}{
		{name: "grass", kind: StoneQuarry, pos: geometry.Vec2{X: 17, Z: 33}, expectTile: geometry.GlobalTile{X: 1, Z: 2}},
		{name: "water", kind: LumberMill, pos: tileCenter(2, 2), expectError: ErrInvalidPlacement},
		{name: "occupied", kind: StoneQuarry, pos: geometry.Vec2{X: 81, Z: 95}, expectError: ErrInvalidPlacement},
		{name: "unspawned chunk", kind: LumberMill, pos: tileCenter(-1, 0), expectError: ErrInvalidPlacement},
		{name: "unknown kind", kind: Kind(9), pos: tileCenter(1, 1), expectError: ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile, err := r.Validate(tt.kind, tt.pos, tiles)
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectTile, tile)
		})
	}
}

func TestRegistry_Place(t *testing.T) {
	r := NewRegistry(testLayout)
	tiles := fakeTiles{}

	b, err := r.Place(LumberMill, geometry.Vec2{X: 20, Z: 3}, 5, tiles)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.Equal(t, geometry.GlobalTile{X: 1, Z: 0}, b.Tile)
	assert.Equal(t, geometry.Vec2{X: 24, Z: 8}, b.Pos, "snapped to tile center")
	assert.Equal(t, 1, b.Rotation)
	assert.False(t, b.HasWorker)
	assert.True(t, r.Occupied(b.Tile))

	_, err = r.Place(StoneQuarry, geometry.Vec2{X: 30, Z: 15}, 0, tiles)
	assert.ErrorIs(t, err, ErrInvalidPlacement)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get(b.ID)
	require.True(t, ok)
	assert.Equal(t, b, got)
	assert.Len(t, r.ByChunk(geometry.ChunkCoord{}), 1)
	assert.Empty(t, r.ByChunk(geometry.ChunkCoord{X: 1}))
}

func TestRegistry_Rotate(t *testing.T) {
	r := NewRegistry(testLayout)
	b, err := r.Place(StoneQuarry, tileCenter(3, 3), 3, fakeTiles{})
	require.NoError(t, err)
	assert.Equal(t, -270.0, b.RotationDegrees())

	rotated, err := r.Rotate(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, rotated.Rotation)

	_, err = r.Rotate(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_WorkerAndDispatch(t *testing.T) {
	r := NewRegistry(testLayout)
	b, err := r.Place(LumberMill, tileCenter(3, 3), 0, fakeTiles{})
	require.NoError(t, err)

	require.NoError(t, r.SetWorker(b.ID, true))
	require.NoError(t, r.SetNextDispatch(b.ID, 3*time.Second))
	got, _ := r.Get(b.ID)
	assert.True(t, got.HasWorker)
	assert.Equal(t, 3*time.Second, got.NextDispatch)

	assert.ErrorIs(t, r.SetWorker(uuid.New(), true), ErrNotFound)
	assert.ErrorIs(t, r.SetNextDispatch(uuid.New(), 0), ErrNotFound)
}

func TestRegistry_ListOrder(t *testing.T) {
	r := NewRegistry(testLayout)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	var ids []uuid.UUID
	for i := int32(0); i < 4; i++ {
		b, err := r.Place(LumberMill, tileCenter(i, 0), 0, fakeTiles{})
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	list := r.List()
	require.Len(t, list, 4)
	for i, b := range list {
		assert.Equal(t, ids[i], b.ID)
	}
}

func TestRegistry_Restore(t *testing.T) {
	r := NewRegistry(testLayout)
	id := uuid.New()
	err := r.Restore(Building{ID: id, Kind: StoneQuarry, Tile: geometry.GlobalTile{X: -3, Z: 20}, Rotation: -1, HasWorker: true})
	require.NoError(t, err)

	b, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, geometry.ChunkCoord{X: -1, Z: 1}, b.Chunk)
	assert.Equal(t, 3, b.Rotation)
	assert.False(t, b.HasWorker, "workers are not restored")
	assert.True(t, r.Occupied(b.Tile))

	err = r.Restore(Building{ID: uuid.New(), Kind: LumberMill, Tile: b.Tile})
	assert.ErrorIs(t, err, ErrInvalidPlacement)

	err = r.Restore(Building{ID: uuid.New(), Kind: Kind(0), Tile: geometry.GlobalTile{}})
	assert.ErrorIs(t, err, ErrUnknownKind)
}
