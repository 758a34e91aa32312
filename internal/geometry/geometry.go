// Package geometry converts between world positions, chunk coordinates and tile
// coordinates on the X/Z ground plane.
//
// Chunk (cx, cz) covers the world square [cx*W, (cx+1)*W) x [cz*W, (cz+1)*W) where
// W = Size * TileSize. Tiles are addressed either locally (0..Size-1 inside a chunk) or
// globally (cx*Size + x).
package geometry

import (
	"fmt"
	"math"
)

// Vec2 is a point on the ground plane.
type Vec2 struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

func (v Vec2) Add(o Vec2) Vec2         { return Vec2{X: v.X + o.X, Z: v.Z + o.Z} }
func (v Vec2) Sub(o Vec2) Vec2         { return Vec2{X: v.X - o.X, Z: v.Z - o.Z} }
func (v Vec2) Scale(s float64) Vec2    { return Vec2{X: v.X * s, Z: v.Z * s} }
func (v Vec2) Length() float64         { return math.Hypot(v.X, v.Z) }
func (v Vec2) Distance(o Vec2) float64 { return v.Sub(o).Length() }

// Normalize returns the unit vector of v, or the zero vector when v has no length.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// ChunkCoord addresses a chunk.
type ChunkCoord struct {
	X int32 `json:"x"`
	Z int32 `json:"z"`
}

func (c ChunkCoord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Z) }

// TileCoord addresses a tile inside its chunk.
type TileCoord struct {
	X int32 `json:"x"`
	Z int32 `json:"z"`
}

// GlobalTile addresses a tile anywhere in the world.
type GlobalTile struct {
	X int32 `json:"x"`
	Z int32 `json:"z"`
}

func (t GlobalTile) String() string { return fmt.Sprintf("[%d,%d]", t.X, t.Z) }

// Layout captures the chunk and tile dimensions every conversion depends on.
type Layout struct {
	Size     int32
	TileSize float64
}

// NewLayout builds a Layout from a chunk size in tiles and a tile size in world units.
func NewLayout(size int, tileSize float64) Layout {
	return Layout{Size: int32(size), TileSize: tileSize}
}

// ChunkWorldSize is the edge length of a chunk in world units.
func (l Layout) ChunkWorldSize() float64 {
	return float64(l.Size) * l.TileSize
}

// ChunkCoordToWorldPos returns the origin corner of a chunk.
func (l Layout) ChunkCoordToWorldPos(c ChunkCoord) Vec2 {
	w := l.ChunkWorldSize()
	return Vec2{X: float64(c.X) * w, Z: float64(c.Z) * w}
}

// ChunkCenter returns the middle of a chunk in world space.
func (l Layout) ChunkCenter(c ChunkCoord) Vec2 {
	half := l.ChunkWorldSize() / 2
	return l.ChunkCoordToWorldPos(c).Add(Vec2{X: half, Z: half})
}

// WorldPosToChunkCoord returns the chunk containing p.
func (l Layout) WorldPosToChunkCoord(p Vec2) ChunkCoord {
	w := l.ChunkWorldSize()
	return ChunkCoord{
		X: int32(math.Floor(p.X / w)),
		Z: int32(math.Floor(p.Z / w)),
	}
}

// WorldPosToGlobalTile returns the global tile containing p.
func (l Layout) WorldPosToGlobalTile(p Vec2) GlobalTile {
	return GlobalTile{
		X: int32(math.Floor(p.X / l.TileSize)),
		Z: int32(math.Floor(p.Z / l.TileSize)),
	}
}

// WorldPosToTileCoord returns the local tile containing p inside its chunk.
func (l Layout) WorldPosToTileCoord(p Vec2) TileCoord {
	_, local := l.SplitGlobalTile(l.WorldPosToGlobalTile(p))
	return local
}

// GlobalTileToWorldCenter returns the center of a global tile.
func (l Layout) GlobalTileToWorldCenter(t GlobalTile) Vec2 {
	return Vec2{
		X: (float64(t.X) + 0.5) * l.TileSize,
		Z: (float64(t.Z) + 0.5) * l.TileSize,
	}
}

// SplitGlobalTile returns the chunk holding t and t's local coordinates in it.
func (l Layout) SplitGlobalTile(t GlobalTile) (ChunkCoord, TileCoord) {
	c := ChunkCoord{X: floorDiv(t.X, l.Size), Z: floorDiv(t.Z, l.Size)}
	return c, TileCoord{X: t.X - c.X*l.Size, Z: t.Z - c.Z*l.Size}
}

// GlobalTileToChunk returns the chunk holding t.
func (l Layout) GlobalTileToChunk(t GlobalTile) ChunkCoord {
	c, _ := l.SplitGlobalTile(t)
	return c
}

// JoinTile is the inverse of SplitGlobalTile.
func (l Layout) JoinTile(c ChunkCoord, t TileCoord) GlobalTile {
	return GlobalTile{X: c.X*l.Size + t.X, Z: c.Z*l.Size + t.Z}
}

// TileCoordToWorldOffset returns the center of a local tile relative to its chunk origin.
func (l Layout) TileCoordToWorldOffset(t TileCoord) Vec2 {
	return Vec2{
		X: (float64(t.X) + 0.5) * l.TileSize,
		Z: (float64(t.Z) + 0.5) * l.TileSize,
	}
}

// SnapToTile moves p to the center of the tile it falls in.
func (l Layout) SnapToTile(p Vec2) Vec2 {
	return l.GlobalTileToWorldCenter(l.WorldPosToGlobalTile(p))
}

// TileCoordToIndex returns the row-major index of a local tile.
func (l Layout) TileCoordToIndex(t TileCoord) int {
	return int(t.Z)*int(l.Size) + int(t.X)
}

// IndexToTileCoord is the inverse of TileCoordToIndex.
func (l Layout) IndexToTileCoord(i int) TileCoord {
	return TileCoord{X: int32(i % int(l.Size)), Z: int32(i / int(l.Size))}
}

// InBounds reports whether t is a valid local tile.
func (l Layout) InBounds(t TileCoord) bool {
	return t.X >= 0 && t.Z >= 0 && t.X < l.Size && t.Z < l.Size
}

// ChebyshevDistance is the number of king moves between two chunks.
func ChebyshevDistance(a, b ChunkCoord) int32 {
	return max(abs32(a.X-b.X), abs32(a.Z-b.Z))
}

// TileChebyshevDistance is ChebyshevDistance for global tiles.
func TileChebyshevDistance(a, b GlobalTile) int32 {
	return max(abs32(a.X-b.X), abs32(a.Z-b.Z))
}

// Square lists every chunk within radius (Chebyshev) of center, x-major.
func Square(center ChunkCoord, radius int32) []ChunkCoord {
	if radius < 0 {
		return nil
	}
	side := 2*radius + 1
	out := make([]ChunkCoord, 0, side*side)
	for x := center.X - radius; x <= center.X+radius; x++ {
		for z := center.Z - radius; z <= center.Z+radius; z++ {
			out = append(out, ChunkCoord{X: x, Z: z})
		}
	}
	return out
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
