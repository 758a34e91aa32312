package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 0, cfg.Server.RateLimit)
	assert.Equal(t, "./empire.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, int64(0), cfg.Game.Seed)
	assert.Equal(t, 20, cfg.Game.TickRate)
	assert.Equal(t, 50*time.Millisecond, cfg.Game.TickInterval())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WORLD_SEED", "-42")
	t.Setenv("TICK_RATE", "10")
	t.Setenv("SNAPSHOT_INTERVAL", "5s")
	t.Setenv("LOG_STRUCTURED", "false")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, int64(-42), cfg.Game.Seed)
	assert.Equal(t, 100*time.Millisecond, cfg.Game.TickInterval())
	assert.Equal(t, 5*time.Second, cfg.Game.SnapshotInterval)
	assert.False(t, cfg.Logging.Structured)
	assert.Equal(t, 1, cfg.Database.MaxOpenConns, "invalid values fall back to the default")
}

func TestGameConfig_TickIntervalGuardsZero(t *testing.T) {
	assert.Equal(t, 50*time.Millisecond, GameConfig{TickRate: 0}.TickInterval())
}

func TestLoadTuning(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		expectError  bool
		expectFields func(t *testing.T, tuning Tuning)
	}{
		{
			name:    "partial override keeps defaults",
			content: "terrain:\n  chunk_size: 16\nquota:\n  period: 90s\n  initial: 3\n",
			expectFields: func(t *testing.T, tuning Tuning) {
				assert.Equal(t, 16, tuning.Terrain.ChunkSize)
				assert.Equal(t, 16.0, tuning.Terrain.TileSize)
				assert.Equal(t, 90*time.Second, tuning.Quota.Period)
				assert.Equal(t, uint32(3), tuning.Quota.Initial)
				assert.Equal(t, uint32(5), tuning.Quota.Multiplier)
				assert.Equal(t, []string{"water", "grass", "barren"}, tuning.Terrain.Textures)
			},
		},
		{
			name:        "invalid values are rejected",
			content:     "terrain:\n  chunk_size: 0\n",
			expectError: true,
		},
		{
			name:        "load radius above spawn radius",
			content:     "terrain:\n  spawn_radius: 1\n  load_radius: 2\n",
			expectError: true,
		},
		{
			name:        "malformed yaml",
			content:     "terrain: [",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tuning.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			tuning, err := LoadTuning(path)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.expectFields(t, tuning)
		})
	}
}

func TestLoadTuning_EmptyPathAndMissingFile(t *testing.T) {
	tuning, err := LoadTuning("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTuning(), tuning)
	assert.NoError(t, tuning.Validate())

	_, err = LoadTuning(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadTuning_ShippedFileMatchesDefaults(t *testing.T) {
	tuning, err := LoadTuning(filepath.Join("..", "..", "configs", "game.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTuning(), tuning)
}
