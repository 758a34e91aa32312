package building

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/logging"
	"github.com/VoidMesh/lethal-empire/internal/terrain"
	"github.com/google/uuid"
)

// TileSource resolves global tiles. ok is false when the tile's chunk is not spawned.
type TileSource interface {
	Tile(t geometry.GlobalTile) (kind terrain.TileKind, ok bool)
}

// Registry owns every placed building and the tiles they block.
type Registry struct {
	mu        sync.RWMutex
	buildings map[uuid.UUID]*Building
	obstacles map[geometry.GlobalTile]uuid.UUID

	layout geometry.Layout
	now    func() time.Time
}

// NewRegistry returns an empty registry on layout.
func NewRegistry(layout geometry.Layout) *Registry {
	return &Registry{
		buildings: make(map[uuid.UUID]*Building),
		obstacles: make(map[geometry.GlobalTile]uuid.UUID),
		layout:    layout,
		now:       time.Now,
	}
}

// Validate snaps pos to its tile and checks that a building may stand there: the chunk is
// spawned, the tile is not water and nothing occupies it.
func (r *Registry) Validate(kind Kind, pos geometry.Vec2, tiles TileSource) (geometry.GlobalTile, error) {
	if kind.Gathers() == 0 {
		return geometry.GlobalTile{}, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
	tile := r.layout.WorldPosToGlobalTile(pos)

	t, ok := tiles.Tile(tile)
	if !ok {
		return tile, fmt.Errorf("%w: tile %s is not spawned", ErrInvalidPlacement, tile)
	}
	if !t.Buildable() {
		return tile, fmt.Errorf("%w: tile %s is %s", ErrInvalidPlacement, tile, t)
	}
	if r.Occupied(tile) {
		return tile, fmt.Errorf("%w: tile %s is occupied", ErrInvalidPlacement, tile)
	}
	return tile, nil
}

// Place validates and records a new building at the tile containing pos.
func (r *Registry) Place(kind Kind, pos geometry.Vec2, rotation int, tiles TileSource) (Building, error) {
	tile, err := r.Validate(kind, pos, tiles)
	if err != nil {
		return Building{}, err
	}

	b := &Building{
		ID:       uuid.New(),
		Kind:     kind,
		Tile:     tile,
		Chunk:    r.layout.GlobalTileToChunk(tile),
		Pos:      r.layout.GlobalTileToWorldCenter(tile),
		Rotation: normalizeRotation(rotation),
		PlacedAt: r.now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.obstacles[tile]; taken {
		return Building{}, fmt.Errorf("%w: tile %s is occupied", ErrInvalidPlacement, tile)
	}
	r.buildings[b.ID] = b
	r.obstacles[tile] = b.ID

	logging.WithBuildingID(b.ID.String()).Info("building placed", "kind", kind, "tile_x", tile.X, "tile_z", tile.Z)
	return *b, nil
}

// Rotate turns a building one step.
func (r *Registry) Rotate(id uuid.UUID) (Building, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buildings[id]
	if !ok {
		return Building{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b.Rotation = normalizeRotation(b.Rotation + 1)
	return *b, nil
}

// Get returns a copy of the building with id.
func (r *Registry) Get(id uuid.UUID) (Building, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.buildings[id]
	if !ok {
		return Building{}, false
	}
	return *b, true
}

// List returns every building ordered by placement time.
func (r *Registry) List() []Building {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Building, 0, len(r.buildings))
	for _, b := range r.buildings {
		out = append(out, *b)
	}
	sortBuildings(out)
	return out
}

// ByChunk returns the buildings standing in chunk c, ordered like List.
func (r *Registry) ByChunk(c geometry.ChunkCoord) []Building {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Building
	for _, b := range r.buildings {
		if b.Chunk == c {
			out = append(out, *b)
		}
	}
	sortBuildings(out)
	return out
}

// Len is the number of placed buildings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.buildings)
}

// Occupied reports whether a building stands on the tile.
func (r *Registry) Occupied(t geometry.GlobalTile) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.obstacles[t]
	return ok
}

// SetWorker marks whether the building has a worker out.
func (r *Registry) SetWorker(id uuid.UUID, has bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buildings[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b.HasWorker = has
	return nil
}

// SetNextDispatch records the simulation time before which the building stays idle.
func (r *Registry) SetNextDispatch(id uuid.UUID, at time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buildings[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b.NextDispatch = at
	return nil
}

// Restore re-inserts a persisted building. Workers are not persisted, so the building
// comes back idle.
func (r *Registry) Restore(b Building) error {
	if b.Kind.Gathers() == 0 {
		return fmt.Errorf("%w: %d", ErrUnknownKind, b.Kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if other, taken := r.obstacles[b.Tile]; taken && other != b.ID {
		return fmt.Errorf("%w: tile %s is occupied", ErrInvalidPlacement, b.Tile)
	}
	b.Chunk = r.layout.GlobalTileToChunk(b.Tile)
	b.Pos = r.layout.GlobalTileToWorldCenter(b.Tile)
	b.Rotation = normalizeRotation(b.Rotation)
	b.HasWorker = false
	b.NextDispatch = 0
	r.buildings[b.ID] = &b
	r.obstacles[b.Tile] = b.ID
	return nil
}

func normalizeRotation(r int) int {
	return ((r % 4) + 4) % 4
}

func sortBuildings(bs []Building) {
	slices.SortFunc(bs, func(a, b Building) int {
		if c := a.PlacedAt.Compare(b.PlacedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
}
