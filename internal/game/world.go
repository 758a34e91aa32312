// Package game runs the tick-driven simulation: chunks, buildings, workers and the quota.
package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/building"
	"github.com/VoidMesh/lethal-empire/internal/chunk"
	"github.com/VoidMesh/lethal-empire/internal/config"
	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/logging"
	"github.com/VoidMesh/lethal-empire/internal/noise"
	"github.com/VoidMesh/lethal-empire/internal/pathfinding"
	"github.com/VoidMesh/lethal-empire/internal/quota"
	"github.com/VoidMesh/lethal-empire/internal/resource"
	"github.com/VoidMesh/lethal-empire/internal/terrain"
	"github.com/VoidMesh/lethal-empire/internal/unit"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var (
	ErrNotReady      = errors.New("world is still loading")
	ErrInvalidRadius = errors.New("invalid discovery radius")
)

// State is the lifecycle phase of a World.
type State int

const (
	Loading State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "loading"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "loading":
		*s = Loading
	case "playing":
		*s = Playing
	default:
		return fmt.Errorf("unknown world state %q", b)
	}
	return nil
}

// SavedState is the world state that survives restarts besides chunks and buildings.
type SavedState struct {
	Seed  int64
	Tick  uint64
	Quota quota.State
}

// Persistence stores buildings and the world state.
type Persistence interface {
	LoadBuildings(ctx context.Context) ([]building.Building, error)
	SaveBuilding(ctx context.Context, b building.Building) error
	LoadGameState(ctx context.Context) (SavedState, bool, error)
	SaveGameState(ctx context.Context, s SavedState) error
}

// World owns every piece of simulation state. Commands are safe for concurrent callers;
// the tick loop serializes with them through mu.
type World struct {
	mu       sync.Mutex
	workers  map[uuid.UUID]*unit.Worker
	reserved map[string]uuid.UUID
	tick     uint64
	elapsed  time.Duration
	state    State

	subMu  sync.Mutex
	subs   map[int]chan Snapshot
	nextID int

	seed      int64
	tuning    config.Tuning
	layout    geometry.Layout
	chunks    *chunk.Manager
	buildings *building.Registry
	quota     *quota.Tracker
	planner   *unit.Planner
	persist   Persistence
}

// NewChunkManager wires the terrain and resource generators for seed into a chunk
// manager.
func NewChunkManager(seed int64, t config.Tuning, store chunk.Store) (*chunk.Manager, error) {
	palette, err := terrain.NewPalette(t.Terrain.Textures)
	if err != nil {
		return nil, fmt.Errorf("invalid texture palette: %w", err)
	}
	layout := geometry.NewLayout(t.Terrain.ChunkSize, t.Terrain.TileSize)

	tg := terrain.NewGenerator(seed, noise.FBMParams{
		Frequency:   t.Terrain.Frequency,
		Persistence: t.Terrain.Persistence,
		Lacunarity:  t.Terrain.Lacunarity,
		Octaves:     t.Terrain.Octaves,
	}, terrain.Thresholds{Water: t.Terrain.WaterLevel, Grass: t.Terrain.GrassLevel})

	rg := resource.NewGenerator(seed, tg.Source(), layout, resource.Params{
		MinNoise:        t.Resources.MinNoise,
		RockCutoff:      t.Resources.RockCutoff,
		WorleyFrequency: t.Resources.WorleyFrequency,
		TreeRadius:      t.Resources.TreeRadius,
		RockRadius:      t.Resources.RockRadius,
		K:               t.Resources.K,
	})

	gen := chunk.NewGenerator(t.Terrain.ChunkSize, tg, rg, palette)
	return chunk.NewManager(gen, store, layout, chunk.Options{
		SpawnRadius: int32(t.Terrain.SpawnRadius),
		LoadRadius:  int32(t.Terrain.LoadRadius),
		Workers:     t.Terrain.GenerationWorkers,
	}), nil
}

// New creates a world in the Loading state. store and persist may be nil for a purely
// in-memory world.
func New(seed int64, t config.Tuning, store chunk.Store, persist Persistence) (*World, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	chunks, err := NewChunkManager(seed, t, store)
	if err != nil {
		return nil, err
	}
	return NewWithChunks(seed, t, chunks, persist), nil
}

// NewWithChunks creates a world around an existing chunk manager.
func NewWithChunks(seed int64, t config.Tuning, chunks *chunk.Manager, persist Persistence) *World {
	layout := chunks.Layout()
	w := &World{
		workers:   make(map[uuid.UUID]*unit.Worker),
		reserved:  make(map[string]uuid.UUID),
		subs:      make(map[int]chan Snapshot),
		seed:      seed,
		tuning:    t,
		layout:    layout,
		chunks:    chunks,
		buildings: building.NewRegistry(layout),
		quota: quota.NewTracker(quota.Params{
			Period:           t.Quota.Period,
			Initial:          t.Quota.Initial,
			InitialResources: t.Quota.InitialResources,
			Multiplier:       t.Quota.Multiplier,
		}),
		persist: persist,
	}
	w.planner = unit.NewPlanner(w.grid(), chunks, layout, unit.PlannerOptions{
		SearchRadius: int32(t.Workers.SearchRadius),
		Velocity:     t.Workers.Velocity,
		MaxNodes:     t.Pathfinding.MaxNodes,
	})
	return w
}

// grid is the walkable world: spawned land not covered by a building.
func (w *World) grid() pathfinding.Grid {
	return pathfinding.GridFunc(func(t geometry.GlobalTile) bool {
		return w.chunks.Passable(t) && !w.buildings.Occupied(t)
	})
}

func (w *World) Seed() int64 { return w.seed }

func (w *World) Layout() geometry.Layout { return w.layout }

// Chunks exposes the chunk manager for read access.
func (w *World) Chunks() *chunk.Manager { return w.chunks }

// State reports whether the world is still loading.
func (w *World) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Start spawns the area around the origin, restores persisted state and switches the
// world to Playing.
func (w *World) Start(ctx context.Context) error {
	start := time.Now()
	if _, err := w.chunks.Focus(ctx, geometry.Vec2{}); err != nil {
		return fmt.Errorf("failed to spawn initial chunks: %w", err)
	}

	if w.persist != nil {
		if err := w.restore(ctx); err != nil {
			return err
		}
	}

	w.mu.Lock()
	w.state = Playing
	w.mu.Unlock()

	spawned, loaded := w.chunks.Stats()
	log.Info("world ready",
		"seed", w.seed, "spawned_chunks", spawned, "loaded_chunks", loaded,
		"buildings", w.buildings.Len(), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (w *World) restore(ctx context.Context) error {
	saved, ok, err := w.persist.LoadGameState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load game state: %w", err)
	}
	if ok {
		if saved.Seed != w.seed {
			log.Warn("saved world uses a different seed", "saved_seed", saved.Seed, "seed", w.seed)
		}
		w.quota.Restore(saved.Quota)
		w.mu.Lock()
		w.tick = saved.Tick
		w.mu.Unlock()
	}

	buildings, err := w.persist.LoadBuildings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load buildings: %w", err)
	}
	for _, b := range buildings {
		if _, err := w.chunks.GetOrCreate(ctx, w.layout.GlobalTileToChunk(b.Tile)); err != nil {
			return err
		}
		if err := w.buildings.Restore(b); err != nil {
			logging.WithBuildingID(b.ID.String()).Warn("skipping persisted building", "error", err)
		}
	}
	return nil
}

// Run ticks the world every interval until ctx is cancelled.
func (w *World) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("simulation started", "tick_interval", interval)
	for {
		select {
		case <-ctx.Done():
			log.Info("simulation stopped", "tick", w.Tick())
			return nil
		case <-ticker.C:
			if err := w.Step(ctx, interval); err != nil {
				log.Error("tick failed", "error", err)
			}
		}
	}
}

// Tick is the number of completed simulation steps.
func (w *World) Tick() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tick
}

// Step advances the simulation by dt: idle buildings dispatch workers, workers move and
// act, the quota timer runs and a snapshot goes out to subscribers.
func (w *World) Step(ctx context.Context, dt time.Duration) error {
	w.mu.Lock()
	if w.state != Playing {
		w.mu.Unlock()
		return ErrNotReady
	}

	w.dispatch()
	err := w.stepWorkers(ctx, dt)

	for _, ev := range w.quota.Tick(dt) {
		log.Info("quota evaluated", "quota", ev.Quota, "resources", ev.Resources, "success", ev.Success)
	}
	w.tick++
	w.elapsed += dt
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.publish(snap)
	return err
}

func (w *World) dispatch() {
	for _, b := range w.buildings.List() {
		if b.HasWorker || b.NextDispatch > w.elapsed {
			continue
		}
		worker, err := w.planner.Plan(b, func(id string) bool {
			_, taken := w.reserved[id]
			return taken
		})
		if err != nil {
			blog := logging.WithBuildingID(b.ID.String())
			if err := w.buildings.SetNextDispatch(b.ID, w.elapsed+w.tuning.Workers.DispatchCooldown); err != nil {
				blog.Error("failed to schedule dispatch", "error", err)
			}
			blog.Debug("no work for building", "kind", b.Kind)
			continue
		}
		w.workers[worker.ID] = worker
		w.reserved[worker.Target] = worker.ID
		if err := w.buildings.SetWorker(b.ID, true); err != nil {
			logging.WithBuildingID(b.ID.String()).Error("failed to mark worker out", "error", err)
		}
		logging.WithWorkerID(worker.ID.String()).Debug("worker dispatched",
			"building_id", b.ID, "target", worker.Target, "waypoints", len(worker.Waypoints))
	}
}

func (w *World) stepWorkers(ctx context.Context, dt time.Duration) error {
	ids := make([]uuid.UUID, 0, len(w.workers))
	for id := range w.workers {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })

	exec := executor{w: w}
	var errs []error
	for _, id := range ids {
		worker := w.workers[id]
		actions := worker.Step(dt)
		if len(actions) == 0 {
			continue
		}
		if err := worker.Execute(ctx, actions, exec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// executor applies worker actions. It runs with World.mu held.
type executor struct {
	w *World
}

func (e executor) GatherPiece(ctx context.Context, pieceID string) (bool, error) {
	delete(e.w.reserved, pieceID)
	return e.w.chunks.MarkGathered(ctx, pieceID)
}

func (e executor) DepositResource(amount uint32) {
	e.w.quota.Deposit(amount)
}

func (e executor) ReleaseWorker(worker *unit.Worker, buildingID uuid.UUID) {
	if owner, ok := e.w.reserved[worker.Target]; ok && owner == worker.ID {
		delete(e.w.reserved, worker.Target)
	}
	delete(e.w.workers, worker.ID)
	blog := logging.WithBuildingID(buildingID.String())
	if err := e.w.buildings.SetWorker(buildingID, false); err != nil {
		blog.Error("failed to release worker", "worker_id", worker.ID, "error", err)
	}
	if err := e.w.buildings.SetNextDispatch(buildingID, e.w.elapsed+e.w.tuning.Workers.DispatchCooldown); err != nil {
		blog.Error("failed to schedule dispatch", "error", err)
	}
}
