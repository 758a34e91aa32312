package chunk

import (
	"errors"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/resource"
	"github.com/VoidMesh/lethal-empire/internal/terrain"
)

var (
	ErrChunkNotFound = errors.New("chunk not found")
	ErrPieceNotFound = errors.New("resource piece not found")
)

// Chunk is a square block of generated terrain with its resources.
type Chunk struct {
	Coord       geometry.ChunkCoord
	Size        int
	Tiles       []terrain.TileKind
	Resources   []resource.Kind
	Textures    terrain.IndexBuffer
	Pieces      []resource.Piece
	GeneratedAt time.Time
}

func (c *Chunk) index(t geometry.TileCoord) int {
	return int(t.Z)*c.Size + int(t.X)
}

func (c *Chunk) inBounds(t geometry.TileCoord) bool {
	return t.X >= 0 && t.Z >= 0 && int(t.X) < c.Size && int(t.Z) < c.Size
}

// TileAt returns the tile kind at a local coordinate. Out-of-range coordinates are water.
func (c *Chunk) TileAt(t geometry.TileCoord) terrain.TileKind {
	if !c.inBounds(t) {
		return terrain.Water
	}
	return c.Tiles[c.index(t)]
}

// ResourceAt returns the resource kind covering a local tile.
func (c *Chunk) ResourceAt(t geometry.TileCoord) resource.Kind {
	if !c.inBounds(t) {
		return resource.None
	}
	return c.Resources[c.index(t)]
}

// Passable reports whether units can walk over a local tile.
func (c *Chunk) Passable(t geometry.TileCoord) bool {
	return c.inBounds(t) && c.TileAt(t).Passable()
}

// Remaining counts the pieces not gathered yet.
func (c *Chunk) Remaining() int {
	n := 0
	for _, p := range c.Pieces {
		if !p.Gathered {
			n++
		}
	}
	return n
}

// Clone copies the mutable parts of the chunk. Tile grids are shared; they never change
// after generation.
func (c *Chunk) Clone() *Chunk {
	cp := *c
	cp.Pieces = append([]resource.Piece(nil), c.Pieces...)
	return &cp
}

// FocusResult describes what changed when the focus point moved.
type FocusResult struct {
	Center   geometry.ChunkCoord   `json:"center"`
	Spawned  []geometry.ChunkCoord `json:"spawned"`
	Loaded   []geometry.ChunkCoord `json:"loaded"`
	Unloaded []geometry.ChunkCoord `json:"unloaded"`
}
