package terrain

import (
	"encoding/binary"
	"fmt"
)

// Palette assigns a texture array slot to each tile kind.
type Palette struct {
	names   []string
	indices [len(kindNames)]uint32
}

var kindNames = [...]string{"water", "grass", "barren"}

// NewPalette builds a palette from texture names in array order. Each tile kind maps to
// the slot whose name matches the kind.
func NewPalette(textures []string) (Palette, error) {
	p := Palette{names: append([]string(nil), textures...)}
	for _, k := range Kinds {
		slot := -1
		for i, name := range textures {
			if name == k.String() {
				slot = i
				break
			}
		}
		if slot < 0 {
			return Palette{}, fmt.Errorf("palette has no texture for %s", k)
		}
		p.indices[k] = uint32(slot)
	}
	return p, nil
}

// DefaultPalette maps water, grass and barren to slots 0, 1 and 2.
func DefaultPalette() Palette {
	p, _ := NewPalette(kindNames[:])
	return p
}

// Index returns the texture slot of a tile kind.
func (p Palette) Index(k TileKind) uint32 {
	if int(k) >= len(p.indices) {
		return 0
	}
	return p.indices[k]
}

// Textures returns the texture names in slot order.
func (p Palette) Textures() []string { return append([]string(nil), p.names...) }

// Len is the number of texture slots.
func (p Palette) Len() int { return len(p.names) }

// IndexBuffer is the flat per-tile texture index array a fragment shader reads as
// textures[mapping[z*size+x]].
type IndexBuffer struct {
	size    int
	mapping []uint32
}

// NewIndexBuffer builds the index buffer for a size x size tile grid.
func NewIndexBuffer(size int, tiles []TileKind, palette Palette) (IndexBuffer, error) {
	if size <= 0 || len(tiles) != size*size {
		return IndexBuffer{}, fmt.Errorf("tile grid has %d entries, want %d", len(tiles), size*size)
	}
	mapping := make([]uint32, len(tiles))
	for i, k := range tiles {
		mapping[i] = palette.Index(k)
	}
	return IndexBuffer{size: size, mapping: mapping}, nil
}

func (b IndexBuffer) Size() int { return b.size }

// Mapping returns the raw row-major buffer.
func (b IndexBuffer) Mapping() []uint32 { return b.mapping }

// Texture returns the texture slot at (x, z). Coordinates outside the grid are clamped to
// the nearest edge.
func (b IndexBuffer) Texture(x, z int) uint32 {
	if b.size == 0 {
		return 0
	}
	x = min(max(x, 0), b.size-1)
	z = min(max(z, 0), b.size-1)
	return b.mapping[z*b.size+x]
}

// Bytes encodes the buffer as little-endian u32 values, the storage buffer upload layout.
func (b IndexBuffer) Bytes() []byte {
	out := make([]byte, 4*len(b.mapping))
	for i, v := range b.mapping {
		binary.LittleEndian.PutUint32(out[4*i:], v)
	}
	return out
}
