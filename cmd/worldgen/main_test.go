package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoidMesh/lethal-empire/internal/chunk"
	"github.com/VoidMesh/lethal-empire/internal/config"
	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/resource"
	"github.com/VoidMesh/lethal-empire/internal/terrain"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(context.Background(), append([]string{"worldgen"}, args...))
	return out.String(), err
}

func TestPreview(t *testing.T) {
	out, err := run(t, "preview", "--seed", "42", "--x", "-1", "--z", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	size := config.DefaultTuning().Terrain.ChunkSize
	require.Len(t, lines, size+1)
	assert.True(t, strings.HasPrefix(lines[0], "chunk (-1,2)"))
	for _, line := range lines[1:] {
		assert.Len(t, line, size)
		assert.Empty(t, strings.Trim(line, "~.:TR"))
	}

	again, err := run(t, "preview", "--seed", "42", "--x", "-1", "--z", "2")
	require.NoError(t, err)
	assert.Equal(t, out, again, "generation is deterministic")
}

func TestGenerate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "world.db")

	tests := []struct {
		name        string
		args        []string
		expectError bool
		expectOut   string
	}{
		{name: "no seed on empty db", args: []string{"generate", "--db", dbPath}, expectError: true},
		{name: "first run", args: []string{"generate", "--db", dbPath, "--seed", "7", "--radius", "1"}, expectOut: "generated 9 chunks around (0,0), 9 stored"},
		{name: "saved seed reused", args: []string{"generate", "--db", dbPath, "--radius", "2"}, expectOut: "generated 16 chunks around (0,0), 25 stored"},
		{name: "nothing new", args: []string{"generate", "--db", dbPath, "--seed", "7", "--radius", "1"}, expectOut: "generated 0 chunks around (0,0), 25 stored"},
		{name: "seed mismatch", args: []string{"generate", "--db", dbPath, "--seed", "8"}, expectError: true},
		{name: "negative radius", args: []string{"generate", "--db", dbPath, "--radius", "-1"}, expectError: true},
	}

	// Cases share the database and run in order.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.expectOut)
		})
	}
}

func TestRenderChunk(t *testing.T) {
	ch := &chunk.Chunk{
		Coord:     geometry.ChunkCoord{X: 3, Z: 4},
		Size:      2,
		Tiles:     []terrain.TileKind{terrain.Water, terrain.Grass, terrain.Barren, terrain.Grass},
		Resources: []resource.Kind{resource.None, resource.Tree, resource.Rock, resource.None},
	}
	var out bytes.Buffer
	require.NoError(t, renderChunk(&out, ch))
	assert.Equal(t, "chunk (3,4)  pieces 0\n~T\nR.\n", out.String())
}
