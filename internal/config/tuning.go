package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning is the gameplay balance sheet. Every field has a default, so a tuning file only
// needs the keys it wants to override.
type Tuning struct {
	Terrain     TerrainTuning     `yaml:"terrain"`
	Resources   ResourceTuning    `yaml:"resources"`
	Workers     WorkerTuning      `yaml:"workers"`
	Quota       QuotaTuning       `yaml:"quota"`
	Pathfinding PathfindingTuning `yaml:"pathfinding"`
}

type TerrainTuning struct {
	ChunkSize         int      `yaml:"chunk_size"`
	TileSize          float64  `yaml:"tile_size"`
	SpawnRadius       int      `yaml:"spawn_radius"`
	LoadRadius        int      `yaml:"load_radius"`
	Frequency         float64  `yaml:"frequency"`
	Persistence       float64  `yaml:"persistence"`
	Lacunarity        float64  `yaml:"lacunarity"`
	Octaves           int      `yaml:"octaves"`
	WaterLevel        float64  `yaml:"water_level"`
	GrassLevel        float64  `yaml:"grass_level"`
	Textures          []string `yaml:"textures"`
	GenerationWorkers int      `yaml:"generation_workers"`
}

type ResourceTuning struct {
	MinNoise        float64 `yaml:"min_noise"`
	RockCutoff      float64 `yaml:"rock_cutoff"`
	WorleyFrequency float64 `yaml:"worley_frequency"`
	TreeRadius      float64 `yaml:"tree_radius"`
	RockRadius      float64 `yaml:"rock_radius"`
	K               int     `yaml:"k"`
}

type WorkerTuning struct {
	Velocity         float64       `yaml:"velocity"`
	SearchRadius     int           `yaml:"search_radius"`
	DispatchCooldown time.Duration `yaml:"dispatch_cooldown"`
}

type QuotaTuning struct {
	Period           time.Duration `yaml:"period"`
	Initial          uint32        `yaml:"initial"`
	InitialResources uint32        `yaml:"initial_resources"`
	Multiplier       uint32        `yaml:"multiplier"`
}

type PathfindingTuning struct {
	MaxNodes int `yaml:"max_nodes"`
}

// DefaultTuning returns the stock balance of the game.
func DefaultTuning() Tuning {
	return Tuning{
		Terrain: TerrainTuning{
			ChunkSize:         32,
			TileSize:          16.0,
			SpawnRadius:       8,
			LoadRadius:        3,
			Frequency:         1.0,
			Persistence:       0.5,
			Lacunarity:        2.0,
			Octaves:           14,
			WaterLevel:        0.0,
			GrassLevel:        0.3,
			Textures:          []string{"water", "grass", "barren"},
			GenerationWorkers: 4,
		},
		Resources: ResourceTuning{
			MinNoise:        0.3,
			RockCutoff:      0.5,
			WorleyFrequency: 1.0,
			TreeRadius:      1.5,
			RockRadius:      3.0,
			K:               30,
		},
		Workers: WorkerTuning{
			Velocity:         48.0,
			SearchRadius:     24,
			DispatchCooldown: 2 * time.Second,
		},
		Quota: QuotaTuning{
			Period:           600 * time.Second,
			Initial:          10,
			InitialResources: 5,
			Multiplier:       5,
		},
		Pathfinding: PathfindingTuning{
			MaxNodes: 4096,
		},
	}
}

// LoadTuning reads a YAML tuning file on top of DefaultTuning. An empty path returns the
// defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("invalid tuning: %w", err)
	}
	return t, nil
}

// Validate rejects values the simulation cannot run with.
func (t Tuning) Validate() error {
	var errs []error

	if t.Terrain.ChunkSize <= 0 {
		errs = append(errs, errors.New("terrain.chunk_size must be positive"))
	}
	if t.Terrain.TileSize <= 0 {
		errs = append(errs, errors.New("terrain.tile_size must be positive"))
	}
	if t.Terrain.SpawnRadius < 0 || t.Terrain.LoadRadius < 0 {
		errs = append(errs, errors.New("terrain radii must not be negative"))
	}
	if t.Terrain.LoadRadius > t.Terrain.SpawnRadius {
		errs = append(errs, errors.New("terrain.load_radius must not exceed terrain.spawn_radius"))
	}
	if t.Terrain.Octaves <= 0 {
		errs = append(errs, errors.New("terrain.octaves must be positive"))
	}
	if len(t.Terrain.Textures) < 3 {
		errs = append(errs, errors.New("terrain.textures needs one entry per tile kind"))
	}
	if t.Resources.TreeRadius <= 0 || t.Resources.RockRadius <= 0 {
		errs = append(errs, errors.New("resource radii must be positive"))
	}
	if t.Resources.K <= 0 {
		errs = append(errs, errors.New("resources.k must be positive"))
	}
	if t.Workers.Velocity <= 0 {
		errs = append(errs, errors.New("workers.velocity must be positive"))
	}
	if t.Workers.SearchRadius <= 0 {
		errs = append(errs, errors.New("workers.search_radius must be positive"))
	}
	if t.Quota.Period <= 0 {
		errs = append(errs, errors.New("quota.period must be positive"))
	}
	if t.Quota.Multiplier == 0 {
		errs = append(errs, errors.New("quota.multiplier must be positive"))
	}
	if t.Pathfinding.MaxNodes <= 0 {
		errs = append(errs, errors.New("pathfinding.max_nodes must be positive"))
	}

	return errors.Join(errs...)
}
