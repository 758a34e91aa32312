// Package testutils provides chunk fixtures shared by tests across packages.
package testutils

import (
	"context"
	"sync"
	"testing"

	"github.com/VoidMesh/lethal-empire/internal/chunk"
	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/noise"
	"github.com/VoidMesh/lethal-empire/internal/resource"
	"github.com/VoidMesh/lethal-empire/internal/terrain"
)

// TestSeed is the world seed used by fixtures.
const TestSeed int64 = 1337

// TestLayout is a small layout that keeps generation fast in tests.
var TestLayout = geometry.NewLayout(16, 16)

// MemoryStore is an in-memory chunk.Store that records calls.
type MemoryStore struct {
	mu       sync.Mutex
	chunks   map[geometry.ChunkCoord]*chunk.Chunk
	gathered map[string]bool
	Loads    int
	Saves    int
	LoadErr  error
	SaveErr  error
	// GatherErr fails MarkPieceGathered without recording the piece.
	GatherErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chunks:   make(map[geometry.ChunkCoord]*chunk.Chunk),
		gathered: make(map[string]bool),
	}
}

func (s *MemoryStore) LoadChunk(ctx context.Context, coord geometry.ChunkCoord) (*chunk.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Loads++
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	ch, ok := s.chunks[coord]
	if !ok {
		return nil, chunk.ErrChunkNotFound
	}
	cp := ch.Clone()
	for i := range cp.Pieces {
		if s.gathered[cp.Pieces[i].ID] {
			cp.Pieces[i].Gathered = true
		}
	}
	return cp, nil
}

func (s *MemoryStore) SaveChunk(ctx context.Context, c *chunk.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saves++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.chunks[c.Coord] = c.Clone()
	return nil
}

func (s *MemoryStore) MarkPieceGathered(ctx context.Context, piece resource.Piece) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GatherErr != nil {
		return s.GatherErr
	}
	s.gathered[piece.ID] = true
	return nil
}

func (s *MemoryStore) Gathered(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gathered[id]
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// NewGenerator builds a chunk generator on TestLayout with the stock noise settings.
func NewGenerator(seed int64) *chunk.Generator {
	params := noise.DefaultFBMParams()
	params.Octaves = 6
	tg := terrain.NewGenerator(seed, params, terrain.DefaultThresholds())
	rg := resource.NewGenerator(seed, tg.Source(), TestLayout, resource.DefaultParams())
	return chunk.NewGenerator(int(TestLayout.Size), tg, rg, terrain.DefaultPalette())
}

// NewFlatGenerator builds a generator whose terrain noise is the constant level. Every
// resource tile it produces is a tree.
func NewFlatGenerator(seed int64, level float64) *chunk.Generator {
	src := noise.SourceFunc(func(x, z float64) float64 { return level })
	tg := terrain.NewGeneratorWithSource(seed, src, terrain.DefaultThresholds())
	rg := resource.NewGenerator(seed, src, TestLayout, resource.DefaultParams()).
		WithWorley(noise.SourceFunc(func(x, z float64) float64 { return 0.9 }))
	return chunk.NewGenerator(int(TestLayout.Size), tg, rg, terrain.DefaultPalette())
}

// NewManager returns a chunk manager over store (which may be nil) with small radii.
func NewManager(t *testing.T, gen *chunk.Generator, store chunk.Store) *chunk.Manager {
	t.Helper()
	return chunk.NewManager(gen, store, TestLayout, chunk.Options{SpawnRadius: 2, LoadRadius: 1, Workers: 4})
}
