package noise

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// DistanceFunc measures the distance between a sample and a feature point.
type DistanceFunc func(dx, dz float64) float64

// Euclidean is the straight-line distance.
func Euclidean(dx, dz float64) float64 { return math.Sqrt(dx*dx + dz*dz) }

// EuclideanSquared skips the square root. It yields the same nearest feature point.
func EuclideanSquared(dx, dz float64) float64 { return dx*dx + dz*dz }

// ReturnType selects what a Worley source outputs.
type ReturnType int

const (
	// Value returns a pseudo-random value in [-1, 1] shared by every sample whose nearest
	// feature point is in the same cell.
	Value ReturnType = iota
	// Distance returns the distance to the nearest feature point mapped to [-1, 1].
	Distance
)

// Worley is cellular noise with one feature point per unit cell.
type Worley struct {
	seed      uint64
	frequency float64
	distance  DistanceFunc
	ret       ReturnType
}

// NewWorley returns a Worley source with frequency 1, Euclidean distance and Value output.
func NewWorley(seed int64) *Worley {
	return &Worley{
		seed:      uint64(seed),
		frequency: 1,
		distance:  Euclidean,
		ret:       Value,
	}
}

func (w *Worley) WithFrequency(f float64) *Worley {
	w.frequency = f
	return w
}

func (w *Worley) WithDistance(d DistanceFunc) *Worley {
	w.distance = d
	return w
}

func (w *Worley) WithReturnType(r ReturnType) *Worley {
	w.ret = r
	return w
}

// Get returns the Worley value at (x, z).
func (w *Worley) Get(x, z float64) float64 {
	x *= w.frequency
	z *= w.frequency
	cx, cz := int64(math.Floor(x)), int64(math.Floor(z))

	best := math.Inf(1)
	var bestX, bestZ int64
	for dx := int64(-1); dx <= 1; dx++ {
		for dz := int64(-1); dz <= 1; dz++ {
			ix, iz := cx+dx, cz+dz
			h := w.hash(ix, iz, 0)
			fx := float64(ix) + unit(h)
			fz := float64(iz) + unit(h>>32)
			if d := w.distance(x-fx, z-fz); d < best {
				best, bestX, bestZ = d, ix, iz
			}
		}
	}

	if w.ret == Distance {
		return math.Min(best, 1)*2 - 1
	}
	return unit(w.hash(bestX, bestZ, 1))*2 - 1
}

func (w *Worley) hash(x, z int64, salt uint64) uint64 {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[0:], w.seed)
	binary.LittleEndian.PutUint64(buf[8:], uint64(x))
	binary.LittleEndian.PutUint64(buf[16:], uint64(z))
	binary.LittleEndian.PutUint64(buf[24:], salt)
	return xxhash.Sum64(buf[:])
}

// unit maps the low 32 bits of h to [0, 1).
func unit(h uint64) float64 {
	return float64(uint32(h)) / (1 << 32)
}
