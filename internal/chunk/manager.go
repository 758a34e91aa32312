package chunk

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/logging"
	"github.com/VoidMesh/lethal-empire/internal/resource"
	"github.com/VoidMesh/lethal-empire/internal/terrain"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Store persists chunks between runs. LoadChunk returns ErrChunkNotFound for chunks that
// were never saved.
type Store interface {
	LoadChunk(ctx context.Context, coord geometry.ChunkCoord) (*Chunk, error)
	SaveChunk(ctx context.Context, c *Chunk) error
	MarkPieceGathered(ctx context.Context, piece resource.Piece) error
}

type Options struct {
	SpawnRadius int32
	LoadRadius  int32
	Workers     int
}

func DefaultOptions() Options {
	return Options{SpawnRadius: 8, LoadRadius: 3, Workers: 4}
}

// Manager tracks every spawned chunk and which of them are loaded around the focus point.
// Spawned chunks are simulated; loaded chunks are the ones a client should draw.
type Manager struct {
	mu     sync.RWMutex
	chunks map[geometry.ChunkCoord]*Chunk
	loaded map[geometry.ChunkCoord]bool
	pieces map[string]geometry.ChunkCoord
	focus  geometry.ChunkCoord

	gen    *Generator
	store  Store
	layout geometry.Layout
	opts   Options
}

// NewManager creates a chunk manager. store may be nil, in which case chunks only live in
// memory.
func NewManager(gen *Generator, store Store, layout geometry.Layout, opts Options) *Manager {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Manager{
		chunks: make(map[geometry.ChunkCoord]*Chunk),
		loaded: make(map[geometry.ChunkCoord]bool),
		pieces: make(map[string]geometry.ChunkCoord),
		gen:    gen,
		store:  store,
		layout: layout,
		opts:   opts,
	}
}

func (m *Manager) Layout() geometry.Layout { return m.layout }

func (m *Manager) Options() Options { return m.opts }

func (m *Manager) Palette() terrain.Palette { return m.gen.Palette() }

// Contains reports whether the chunk has been spawned.
func (m *Manager) Contains(c geometry.ChunkCoord) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.chunks[c]
	return ok
}

// Get returns a copy of a spawned chunk.
func (m *Manager) Get(c geometry.ChunkCoord) (*Chunk, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.chunks[c]
	if !ok {
		return nil, false
	}
	return ch.Clone(), true
}

func (m *Manager) Loaded(c geometry.ChunkCoord) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded[c]
}

// Load marks a spawned chunk as loaded. It reports false when the chunk is not spawned.
func (m *Manager) Load(c geometry.ChunkCoord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chunks[c]; !ok {
		return false
	}
	m.loaded[c] = true
	return true
}

// Unload clears the loaded flag. The chunk stays spawned.
func (m *Manager) Unload(c geometry.ChunkCoord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.loaded, c)
}

// OutRange lists the loaded chunks farther than radius (Chebyshev) from center.
func (m *Manager) OutRange(center geometry.ChunkCoord, radius int32) []geometry.ChunkCoord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []geometry.ChunkCoord
	for c := range m.loaded {
		if geometry.ChebyshevDistance(c, center) > radius {
			out = append(out, c)
		}
	}
	sortCoords(out)
	return out
}

// Coords lists the spawned chunks, x-major.
func (m *Manager) Coords() []geometry.ChunkCoord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]geometry.ChunkCoord, 0, len(m.chunks))
	for c := range m.chunks {
		out = append(out, c)
	}
	sortCoords(out)
	return out
}

// LoadedCoords lists the loaded chunks, x-major.
func (m *Manager) LoadedCoords() []geometry.ChunkCoord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]geometry.ChunkCoord, 0, len(m.loaded))
	for c := range m.loaded {
		out = append(out, c)
	}
	sortCoords(out)
	return out
}

// FocusCenter returns the chunk the focus point is in.
func (m *Manager) FocusCenter() geometry.ChunkCoord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.focus
}

// GetOrCreate returns the chunk at c, spawning it first when needed.
func (m *Manager) GetOrCreate(ctx context.Context, c geometry.ChunkCoord) (*Chunk, error) {
	if ch, ok := m.Get(c); ok {
		return ch, nil
	}
	if _, err := m.spawn(ctx, []geometry.ChunkCoord{c}); err != nil {
		return nil, err
	}
	ch, _ := m.Get(c)
	return ch, nil
}

// Discover spawns every missing chunk within radius of the chunk containing pos and
// returns the new coordinates, x-major.
func (m *Manager) Discover(ctx context.Context, pos geometry.Vec2, radius int32) ([]geometry.ChunkCoord, error) {
	center := m.layout.WorldPosToChunkCoord(pos)
	return m.spawn(ctx, geometry.Square(center, radius))
}

// Focus moves the focus point: chunks within the spawn radius are spawned, chunks within
// the load radius are loaded and loaded chunks outside it are unloaded.
func (m *Manager) Focus(ctx context.Context, pos geometry.Vec2) (FocusResult, error) {
	center := m.layout.WorldPosToChunkCoord(pos)
	result := FocusResult{Center: center}

	spawned, err := m.spawn(ctx, geometry.Square(center, m.opts.SpawnRadius))
	if err != nil {
		return result, err
	}
	result.Spawned = spawned

	result.Unloaded = m.OutRange(center, m.opts.LoadRadius)

	m.mu.Lock()
	m.focus = center
	for _, c := range result.Unloaded {
		delete(m.loaded, c)
	}
	for _, c := range geometry.Square(center, m.opts.LoadRadius) {
		if _, ok := m.chunks[c]; ok && !m.loaded[c] {
			m.loaded[c] = true
			result.Loaded = append(result.Loaded, c)
		}
	}
	m.mu.Unlock()

	log.Debug("focus moved",
		"chunk_x", center.X, "chunk_z", center.Z,
		"spawned", len(result.Spawned), "loaded", len(result.Loaded), "unloaded", len(result.Unloaded))
	return result, nil
}

// spawn fetches or generates the missing chunks among coords in parallel and returns the
// ones it added, preserving the input order.
func (m *Manager) spawn(ctx context.Context, coords []geometry.ChunkCoord) ([]geometry.ChunkCoord, error) {
	m.mu.RLock()
	var missing []geometry.ChunkCoord
	for _, c := range coords {
		if _, ok := m.chunks[c]; !ok {
			missing = append(missing, c)
		}
	}
	m.mu.RUnlock()

	if len(missing) == 0 {
		return nil, nil
	}

	start := time.Now()
	results := make([]*Chunk, len(missing))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for i, c := range missing {
		g.Go(func() error {
			ch, err := m.fetch(gctx, c)
			if err != nil {
				return err
			}
			results[i] = ch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	added := make([]geometry.ChunkCoord, 0, len(results))
	for _, ch := range results {
		if _, ok := m.chunks[ch.Coord]; ok {
			continue
		}
		m.chunks[ch.Coord] = ch
		for _, p := range ch.Pieces {
			m.pieces[p.ID] = ch.Coord
		}
		added = append(added, ch.Coord)
	}
	m.mu.Unlock()

	log.Debug("spawned chunks", "count", len(added), "duration_ms", time.Since(start).Milliseconds())
	return added, nil
}

func (m *Manager) fetch(ctx context.Context, c geometry.ChunkCoord) (*Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m.store != nil {
		ch, err := m.store.LoadChunk(ctx, c)
		if err == nil {
			return ch, nil
		}
		if !errors.Is(err, ErrChunkNotFound) {
			logging.WithChunkCoords(c.X, c.Z).Error("failed to load chunk", "error", err)
			return nil, fmt.Errorf("failed to load chunk %s: %w", c, err)
		}
	}

	ch, err := m.gen.Generate(c)
	if err != nil {
		return nil, err
	}

	if m.store != nil {
		if err := m.store.SaveChunk(ctx, ch); err != nil {
			logging.WithChunkCoords(c.X, c.Z).Error("failed to save chunk", "error", err)
			return nil, fmt.Errorf("failed to save chunk %s: %w", c, err)
		}
	}
	return ch, nil
}

// MarkGathered flags a piece as gathered. It reports false when the piece already was.
func (m *Manager) MarkGathered(ctx context.Context, pieceID string) (bool, error) {
	m.mu.Lock()
	coord, ok := m.pieces[pieceID]
	if !ok {
		m.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrPieceNotFound, pieceID)
	}
	ch := m.chunks[coord]
	idx := slices.IndexFunc(ch.Pieces, func(p resource.Piece) bool { return p.ID == pieceID })
	if idx < 0 || ch.Pieces[idx].Gathered {
		m.mu.Unlock()
		return false, nil
	}
	ch.Pieces[idx].Gathered = true
	piece := ch.Pieces[idx]
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.MarkPieceGathered(ctx, piece); err != nil {
			return true, fmt.Errorf("failed to persist gathered piece: %w", err)
		}
	}
	return true, nil
}

func (m *Manager) PieceByID(id string) (resource.Piece, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	coord, ok := m.pieces[id]
	if !ok {
		return resource.Piece{}, false
	}
	for _, p := range m.chunks[coord].Pieces {
		if p.ID == id {
			return p, true
		}
	}
	return resource.Piece{}, false
}

// PiecesWithin returns the ungathered pieces of kind whose tile is within radius
// (Chebyshev) of center.
func (m *Manager) PiecesWithin(center geometry.GlobalTile, radius int32, kind resource.Kind) []resource.Piece {
	lo := m.layout.GlobalTileToChunk(geometry.GlobalTile{X: center.X - radius, Z: center.Z - radius})
	hi := m.layout.GlobalTileToChunk(geometry.GlobalTile{X: center.X + radius, Z: center.Z + radius})

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []resource.Piece
	for x := lo.X; x <= hi.X; x++ {
		for z := lo.Z; z <= hi.Z; z++ {
			ch, ok := m.chunks[geometry.ChunkCoord{X: x, Z: z}]
			if !ok {
				continue
			}
			for _, p := range ch.Pieces {
				if p.Kind == kind && !p.Gathered && geometry.TileChebyshevDistance(p.Tile, center) <= radius {
					out = append(out, p)
				}
			}
		}
	}
	return out
}

// Tile returns the kind of a global tile, or false when its chunk is not spawned.
func (m *Manager) Tile(t geometry.GlobalTile) (terrain.TileKind, bool) {
	c, local := m.layout.SplitGlobalTile(t)
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.chunks[c]
	if !ok {
		return terrain.Water, false
	}
	return ch.TileAt(local), true
}

// Passable reports whether a global tile is spawned and walkable.
func (m *Manager) Passable(t geometry.GlobalTile) bool {
	kind, ok := m.Tile(t)
	return ok && kind.Passable()
}

// Stats returns the spawned and loaded chunk counts.
func (m *Manager) Stats() (spawned, loaded int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks), len(m.loaded)
}

func sortCoords(cs []geometry.ChunkCoord) {
	slices.SortFunc(cs, func(a, b geometry.ChunkCoord) int {
		if a.X != b.X {
			return int(a.X) - int(b.X)
		}
		return int(a.Z) - int(b.Z)
	})
}
