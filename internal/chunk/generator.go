package chunk

import (
	"fmt"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/resource"
	"github.com/VoidMesh/lethal-empire/internal/terrain"
)

// Generator builds complete chunks from the terrain and resource layers.
type Generator struct {
	size      int
	terrain   *terrain.Generator
	resources *resource.Generator
	palette   terrain.Palette
	now       func() time.Time
}

func NewGenerator(size int, t *terrain.Generator, r *resource.Generator, palette terrain.Palette) *Generator {
	return &Generator{
		size:      size,
		terrain:   t,
		resources: r,
		palette:   palette,
		now:       time.Now,
	}
}

func (g *Generator) Size() int { return g.size }

func (g *Generator) Palette() terrain.Palette { return g.palette }

// Generate produces the chunk at coord. The result only depends on the world seed.
func (g *Generator) Generate(coord geometry.ChunkCoord) (*Chunk, error) {
	tiles := g.terrain.Generate(coord, g.size)
	textures, err := terrain.NewIndexBuffer(g.size, tiles, g.palette)
	if err != nil {
		return nil, fmt.Errorf("failed to build index buffer for chunk %s: %w", coord, err)
	}

	kinds := g.resources.Generate(coord, g.size)
	for i, t := range tiles {
		if !t.Passable() {
			kinds[i] = resource.None
		}
	}

	return &Chunk{
		Coord:       coord,
		Size:        g.size,
		Tiles:       tiles,
		Resources:   kinds,
		Textures:    textures,
		Pieces:      g.resources.Pieces(coord, g.size, kinds),
		GeneratedAt: g.now().UTC(),
	}, nil
}
