package game

import (
	"context"
	"fmt"

	"github.com/VoidMesh/lethal-empire/internal/building"
	"github.com/VoidMesh/lethal-empire/internal/chunk"
	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/pathfinding"
	"github.com/VoidMesh/lethal-empire/internal/quota"
	"github.com/VoidMesh/lethal-empire/internal/unit"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type Status struct {
	State         State               `json:"state"`
	Seed          int64               `json:"seed"`
	Tick          uint64              `json:"tick"`
	Quota         quota.Status        `json:"quota"`
	Buildings     int                 `json:"buildings"`
	Workers       int                 `json:"workers"`
	SpawnedChunks int                 `json:"spawned_chunks"`
	LoadedChunks  int                 `json:"loaded_chunks"`
	Focus         geometry.ChunkCoord `json:"focus"`
}

func (w *World) ready() error {
	if w.State() != Playing {
		return ErrNotReady
	}
	return nil
}

// ValidatePlacement checks whether a building of kind may be placed at pos.
func (w *World) ValidatePlacement(kind building.Kind, pos geometry.Vec2) (geometry.GlobalTile, error) {
	return w.buildings.Validate(kind, pos, w.chunks)
}

// PlaceBuilding places and persists a building at the tile containing pos.
func (w *World) PlaceBuilding(ctx context.Context, kind building.Kind, pos geometry.Vec2, rotation int) (building.Building, error) {
	if err := w.ready(); err != nil {
		return building.Building{}, err
	}
	b, err := w.buildings.Place(kind, pos, rotation, w.chunks)
	if err != nil {
		return building.Building{}, err
	}
	if w.persist != nil {
		if err := w.persist.SaveBuilding(ctx, b); err != nil {
			return b, fmt.Errorf("failed to save building: %w", err)
		}
	}
	return b, nil
}

// RotateBuilding turns a building one step and persists it.
func (w *World) RotateBuilding(ctx context.Context, id uuid.UUID) (building.Building, error) {
	if err := w.ready(); err != nil {
		return building.Building{}, err
	}
	b, err := w.buildings.Rotate(id)
	if err != nil {
		return b, err
	}
	if w.persist != nil {
		if err := w.persist.SaveBuilding(ctx, b); err != nil {
			return b, fmt.Errorf("failed to save building: %w", err)
		}
	}
	return b, nil
}

// Buildings lists every placed building.
func (w *World) Buildings() []building.Building { return w.buildings.List() }

func (w *World) Building(id uuid.UUID) (building.Building, bool) { return w.buildings.Get(id) }

// Workers returns copies of the active workers.
func (w *World) Workers() []unit.Worker {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.workersLocked()
}

// Focus moves the focus point of the chunk manager. Rejected while the world is loading.
func (w *World) Focus(ctx context.Context, pos geometry.Vec2) (chunk.FocusResult, error) {
	if err := w.ready(); err != nil {
		return chunk.FocusResult{}, err
	}
	return w.chunks.Focus(ctx, pos)
}

// Discover spawns the chunks within radius of pos. radius may not exceed the spawn radius.
func (w *World) Discover(ctx context.Context, pos geometry.Vec2, radius int32) ([]geometry.ChunkCoord, error) {
	if err := w.ready(); err != nil {
		return nil, err
	}
	if radius < 0 || radius > w.chunks.Options().SpawnRadius {
		return nil, fmt.Errorf("%w: must be between 0 and %d", ErrInvalidRadius, w.chunks.Options().SpawnRadius)
	}
	return w.chunks.Discover(ctx, pos, radius)
}

// Chunk returns the spawned chunk at c.
func (w *World) Chunk(c geometry.ChunkCoord) (*chunk.Chunk, bool) { return w.chunks.Get(c) }

// FindPath returns world waypoints between the tiles containing from and to.
func (w *World) FindPath(from, to geometry.Vec2) ([]geometry.Vec2, error) {
	start := w.layout.WorldPosToGlobalTile(from)
	goal := w.layout.WorldPosToGlobalTile(to)
	path, err := pathfinding.Find(w.grid(), start, goal, pathfinding.Options{MaxNodes: w.tuning.Pathfinding.MaxNodes})
	if err != nil {
		return nil, err
	}
	return pathfinding.Waypoints(w.layout, path), nil
}

// Status summarizes the world for clients.
func (w *World) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	spawned, loaded := w.chunks.Stats()
	return Status{
		State:         w.state,
		Seed:          w.seed,
		Tick:          w.tick,
		Quota:         w.quota.Status(),
		Buildings:     w.buildings.Len(),
		Workers:       len(w.workers),
		SpawnedChunks: spawned,
		LoadedChunks:  loaded,
		Focus:         w.chunks.FocusCenter(),
	}
}

// Save persists the world state and every building.
func (w *World) Save(ctx context.Context) error {
	if w.persist == nil {
		return nil
	}
	w.mu.Lock()
	saved := SavedState{Seed: w.seed, Tick: w.tick, Quota: w.quota.State()}
	w.mu.Unlock()

	if err := w.persist.SaveGameState(ctx, saved); err != nil {
		return fmt.Errorf("failed to save game state: %w", err)
	}
	for _, b := range w.buildings.List() {
		if err := w.persist.SaveBuilding(ctx, b); err != nil {
			return fmt.Errorf("failed to save building %s: %w", b.ID, err)
		}
	}
	log.Debug("world saved", "tick", saved.Tick, "buildings", w.buildings.Len())
	return nil
}
