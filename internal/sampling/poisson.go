// Package sampling places points with a minimum spacing using Poisson disc sampling.
package sampling

import (
	"math"
	"math/rand/v2"
)

// Point is a sample position in sampler space.
type Point struct {
	X float64
	Z float64
}

// Poisson is a Bridson Poisson disc sampler. The zero value is not usable; start from New.
type Poisson struct {
	seed   uint64
	radius float64
	width  float64
	height float64
	k      int
}

// New returns a sampler with radius 1, a 32x32 area and 30 candidates per active point.
func New(seed uint64) *Poisson {
	return &Poisson{
		seed:   seed,
		radius: 1,
		width:  32,
		height: 32,
		k:      30,
	}
}

func (p *Poisson) WithRadius(r float64) *Poisson {
	p.radius = r
	return p
}

func (p *Poisson) WithSize(width, height float64) *Poisson {
	p.width = width
	p.height = height
	return p
}

func (p *Poisson) WithK(k int) *Poisson {
	p.k = k
	return p
}

// Sample returns points inside [0, width) x [0, height) that are pairwise at least radius
// apart. The output only depends on the sampler parameters.
func (p *Poisson) Sample() []Point {
	if p.radius <= 0 || p.width <= 0 || p.height <= 0 || p.k <= 0 {
		return nil
	}

	rng := rand.New(rand.NewPCG(p.seed, p.seed^0x9e3779b97f4a7c15))
	cell := p.radius / math.Sqrt2
	cols := int(math.Ceil(p.width / cell))
	rows := int(math.Ceil(p.height / cell))
	grid := make([]int, cols*rows)
	for i := range grid {
		grid[i] = -1
	}

	var points []Point
	var active []int
	add := func(pt Point) {
		idx := len(points)
		points = append(points, pt)
		active = append(active, idx)
		grid[int(pt.Z/cell)*cols+int(pt.X/cell)] = idx
	}

	add(Point{X: rng.Float64() * p.width, Z: rng.Float64() * p.height})

	r2 := p.radius * p.radius
	for len(active) > 0 {
		ai := rng.IntN(len(active))
		origin := points[active[ai]]

		found := false
		for attempt := 0; attempt < p.k; attempt++ {
			angle := rng.Float64() * 2 * math.Pi
			dist := p.radius * (1 + rng.Float64())
			cand := Point{X: origin.X + dist*math.Cos(angle), Z: origin.Z + dist*math.Sin(angle)}
			if cand.X < 0 || cand.Z < 0 || cand.X >= p.width || cand.Z >= p.height {
				continue
			}

			gx, gz := int(cand.X/cell), int(cand.Z/cell)
			ok := true
			for z := max(gz-2, 0); ok && z <= min(gz+2, rows-1); z++ {
				for x := max(gx-2, 0); x <= min(gx+2, cols-1); x++ {
					idx := grid[z*cols+x]
					if idx < 0 {
						continue
					}
					dx, dz := points[idx].X-cand.X, points[idx].Z-cand.Z
					if dx*dx+dz*dz < r2 {
						ok = false
						break
					}
				}
			}
			if ok {
				add(cand)
				found = true
				break
			}
		}

		if !found {
			active[ai] = active[len(active)-1]
			active = active[:len(active)-1]
		}
	}

	return points
}
