package noise

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Bounds is a half-open sampling interval [Min, Max).
type Bounds struct {
	Min float64
	Max float64
}

// PlaneMap samples src on a width x height grid spread over the given bounds and returns
// the values row-major (index z*width + x). Cell x samples xb.Min + x*(xb.Max-xb.Min)/width.
func PlaneMap(src Source, width, height int, xb, zb Bounds) []float64 {
	if width <= 0 || height <= 0 {
		return nil
	}
	out := make([]float64, width*height)
	stepX := (xb.Max - xb.Min) / float64(width)
	stepZ := (zb.Max - zb.Min) / float64(height)
	for z := 0; z < height; z++ {
		pz := zb.Min + float64(z)*stepZ
		for x := 0; x < width; x++ {
			out[z*width+x] = src.Get(xb.Min+float64(x)*stepX, pz)
		}
	}
	return out
}

// SeedFromCoord derives a per-chunk seed from the world seed and chunk coordinates.
func SeedFromCoord(seed int64, x, z int32) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(seed))
	binary.LittleEndian.PutUint32(buf[8:], uint32(x))
	binary.LittleEndian.PutUint32(buf[12:], uint32(z))
	return xxhash.Sum64(buf[:])
}
