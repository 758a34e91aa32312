package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/VoidMesh/lethal-empire/internal/chunk"
	"github.com/VoidMesh/lethal-empire/internal/config"
	"github.com/VoidMesh/lethal-empire/internal/db"
	"github.com/VoidMesh/lethal-empire/internal/game"
	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/logging"
	"github.com/VoidMesh/lethal-empire/internal/quota"
	"github.com/VoidMesh/lethal-empire/internal/resource"
	"github.com/VoidMesh/lethal-empire/internal/terrain"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal("worldgen failed", "error", err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "worldgen",
		Usage: "pre-generate and inspect Lethal Empire worlds",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tuning", Usage: "game tuning YAML file", Sources: cli.EnvVars("GAME_CONFIG")},
			&cli.StringFlag{Name: "log-level", Value: "info", Sources: cli.EnvVars("LOG_LEVEL")},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logging.Configure(logging.Options{Level: c.String("log-level"), Format: "text"})
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "generate the chunks around a chunk and store them",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Value: "./empire.db", Sources: cli.EnvVars("DB_PATH")},
					&cli.Int64Flag{Name: "seed", Usage: "world seed, defaults to the saved world's", Sources: cli.EnvVars("WORLD_SEED")},
					&cli.IntFlag{Name: "x"},
					&cli.IntFlag{Name: "z"},
					&cli.IntFlag{Name: "radius", Value: 4},
				},
				Action: generate,
			},
			{
				Name:  "preview",
				Usage: "print one generated chunk as text",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "seed", Value: 1},
					&cli.IntFlag{Name: "x"},
					&cli.IntFlag{Name: "z"},
				},
				Action: preview,
			},
		},
	}
}

func generate(ctx context.Context, c *cli.Command) error {
	if c.Int("radius") < 0 {
		return fmt.Errorf("radius must not be negative")
	}
	tuning, err := config.LoadTuning(c.Root().String("tuning"))
	if err != nil {
		return fmt.Errorf("failed to load tuning: %w", err)
	}

	conn, err := db.Open(config.DatabaseConfig{Path: c.String("db"), MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.Migrate(conn); err != nil {
		return err
	}

	palette, err := terrain.NewPalette(tuning.Terrain.Textures)
	if err != nil {
		return err
	}
	codec, err := chunk.NewCodec(palette)
	if err != nil {
		return err
	}
	defer codec.Close()
	store := db.NewStore(conn, codec)

	saved, hasSaved, err := store.LoadGameState(ctx)
	if err != nil {
		return err
	}
	seed := c.Int64("seed")
	switch {
	case hasSaved && seed != 0 && seed != saved.Seed:
		return fmt.Errorf("database holds a world with seed %d, refusing to mix in seed %d", saved.Seed, seed)
	case hasSaved:
		seed = saved.Seed
	case seed == 0:
		return fmt.Errorf("no saved world, pass --seed")
	}

	manager, err := game.NewChunkManager(seed, tuning, store)
	if err != nil {
		return err
	}
	center := geometry.ChunkCoord{X: int32(c.Int("x")), Z: int32(c.Int("z"))}
	spawned, err := manager.Discover(ctx, manager.Layout().ChunkCenter(center), int32(c.Int("radius")))
	if err != nil {
		return fmt.Errorf("failed to generate chunks: %w", err)
	}

	if !hasSaved {
		tracker := quota.NewTracker(quota.Params{
			Period:           tuning.Quota.Period,
			Initial:          tuning.Quota.Initial,
			InitialResources: tuning.Quota.InitialResources,
			Multiplier:       tuning.Quota.Multiplier,
		})
		if err := store.SaveGameState(ctx, game.SavedState{Seed: seed, Quota: tracker.State()}); err != nil {
			return err
		}
	}

	total, err := store.ChunkCount(ctx)
	if err != nil {
		return err
	}
	log.Info("Chunks generated", "seed", seed, "center", center, "new", len(spawned), "stored", total)
	fmt.Fprintf(c.Root().Writer, "generated %d chunks around %s, %d stored\n", len(spawned), center, total)
	return nil
}

func preview(ctx context.Context, c *cli.Command) error {
	tuning, err := config.LoadTuning(c.Root().String("tuning"))
	if err != nil {
		return fmt.Errorf("failed to load tuning: %w", err)
	}
	manager, err := game.NewChunkManager(c.Int64("seed"), tuning, nil)
	if err != nil {
		return err
	}
	ch, err := manager.GetOrCreate(ctx, geometry.ChunkCoord{X: int32(c.Int("x")), Z: int32(c.Int("z"))})
	if err != nil {
		return err
	}
	return renderChunk(c.Root().Writer, ch)
}

// renderChunk prints one character per tile, resources drawn over terrain.
func renderChunk(w io.Writer, ch *chunk.Chunk) error {
	var b strings.Builder
	fmt.Fprintf(&b, "chunk %s  pieces %d\n", ch.Coord, len(ch.Pieces))
	for z := 0; z < ch.Size; z++ {
		for x := 0; x < ch.Size; x++ {
			t := geometry.TileCoord{X: int32(x), Z: int32(z)}
			b.WriteByte(tileGlyph(ch.TileAt(t), ch.ResourceAt(t)))
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func tileGlyph(k terrain.TileKind, r resource.Kind) byte {
	switch r {
	case resource.Tree:
		return 'T'
	case resource.Rock:
		return 'R'
	}
	switch k {
	case terrain.Water:
		return '~'
	case terrain.Grass:
		return '.'
	}
	return ':'
}
