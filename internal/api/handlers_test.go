package api_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/api"
	"github.com/VoidMesh/lethal-empire/internal/building"
	"github.com/VoidMesh/lethal-empire/internal/chunk/testutils"
	"github.com/VoidMesh/lethal-empire/internal/config"
	"github.com/VoidMesh/lethal-empire/internal/game"
	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestWorld(t *testing.T, start bool) *game.World {
	t.Helper()
	tuning := config.DefaultTuning()
	tuning.Terrain.ChunkSize = int(testutils.TestLayout.Size)
	tuning.Terrain.TileSize = testutils.TestLayout.TileSize
	tuning.Terrain.SpawnRadius = 2
	tuning.Terrain.LoadRadius = 1
	tuning.Workers.Velocity = 1000

	chunks := testutils.NewManager(t, testutils.NewFlatGenerator(testutils.TestSeed, 0.6), nil)
	w := game.NewWithChunks(testutils.TestSeed, tuning, chunks, nil)
	if start {
		require.NoError(t, w.Start(context.Background()))
	}
	return w
}

func newTestRouter(t *testing.T, w *game.World, db api.Pinger) *chi.Mux {
	t.Helper()
	return api.SetupRoutes(api.NewHandler(w, db), nil, api.DefaultRouteOptions())
}

func do(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func tileCenter(x, z int32) geometry.Vec2 {
	return testutils.TestLayout.GlobalTileToWorldCenter(geometry.GlobalTile{X: x, Z: z})
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name         string
		db           api.Pinger
		expectStatus int
		expectFields func(t *testing.T, body map[string]interface{})
	}{
		{
			name:         "without database",
			expectStatus: http.StatusOK,
			expectFields: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "healthy", body["status"])
				assert.Equal(t, "playing", body["world"])
				assert.NotContains(t, body, "database")
			},
		},
		{
			name:         "database reachable",
			db:           pingFunc(func(ctx context.Context) error { return nil }),
			expectStatus: http.StatusOK,
			expectFields: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "ok", body["database"])
			},
		},
		{
			name:         "database down",
			db:           pingFunc(func(ctx context.Context) error { return errors.New("gone") }),
			expectStatus: http.StatusServiceUnavailable,
			expectFields: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "unhealthy", body["status"])
			},
		},
	}

	w := newTestWorld(t, true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestRouter(t, w, tt.db), http.MethodGet, "/health", nil)
			assert.Equal(t, tt.expectStatus, rec.Code)
			var body map[string]interface{}
			decode(t, rec, &body)
			tt.expectFields(t, body)
		})
	}
}

func TestStatusAndChunks(t *testing.T) {
	router := newTestRouter(t, newTestWorld(t, true), nil)

	rec := do(t, router, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status game.Status
	decode(t, rec, &status)
	assert.Equal(t, game.Playing, status.State)
	assert.Equal(t, uint64(0), status.Tick)
	assert.Equal(t, 25, status.SpawnedChunks)
	assert.Equal(t, "QUOTA: 5/10", status.Quota.Text)

	rec = do(t, router, http.MethodGet, "/api/v1/chunks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Spawned []geometry.ChunkCoord `json:"spawned"`
		Loaded  []geometry.ChunkCoord `json:"loaded"`
	}
	decode(t, rec, &list)
	assert.Len(t, list.Spawned, 25)
	assert.Len(t, list.Loaded, 9)

	tests := []struct {
		name         string
		path         string
		expectStatus int
		expectFields func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:         "spawned chunk",
			path:         "/api/v1/chunks/-1/2",
			expectStatus: http.StatusOK,
			expectFields: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var body struct {
					Coord    geometry.ChunkCoord `json:"coord"`
					Origin   geometry.Vec2       `json:"origin"`
					Size     int                 `json:"size"`
					Tiles    []string            `json:"tiles"`
					Textures []string            `json:"textures"`
					Mapping  []uint32            `json:"mapping"`
				}
				decode(t, rec, &body)
				assert.Equal(t, geometry.ChunkCoord{X: -1, Z: 2}, body.Coord)
				assert.Equal(t, geometry.Vec2{X: -256, Z: 512}, body.Origin)
				assert.Equal(t, 16, body.Size)
				assert.Len(t, body.Tiles, 256)
				assert.Len(t, body.Mapping, 256)
				assert.NotEmpty(t, body.Textures)
			},
		},
		{
			name:         "unspawned chunk",
			path:         "/api/v1/chunks/40/40",
			expectStatus: http.StatusNotFound,
		},
		{
			name:         "bad coordinate",
			path:         "/api/v1/chunks/abc/0",
			expectStatus: http.StatusBadRequest,
			expectFields: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var body api.ErrorResponse
				decode(t, rec, &body)
				assert.Equal(t, http.StatusBadRequest, body.Code)
				assert.Equal(t, "invalid chunk x coordinate", body.Error)
			},
		},
		{
			name:         "binary mapping",
			path:         "/api/v1/chunks/0/0/mapping",
			expectStatus: http.StatusOK,
			expectFields: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
				assert.Equal(t, "16", rec.Header().Get("X-Chunk-Size"))
				data := rec.Body.Bytes()
				require.Len(t, data, 256*4)
				first := binary.LittleEndian.Uint32(data[:4])
				assert.Less(t, first, uint32(8))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.expectStatus, rec.Code)
			if tt.expectFields != nil {
				tt.expectFields(t, rec)
			}
		})
	}
}

func TestFocusAndDiscover(t *testing.T) {
	router := newTestRouter(t, newTestWorld(t, true), nil)
	far := testutils.TestLayout.ChunkCenter(geometry.ChunkCoord{X: 6, Z: 0})

	rec := do(t, router, http.MethodPost, "/api/v1/focus", map[string]float64{"x": far.X, "z": far.Z})
	require.Equal(t, http.StatusOK, rec.Code)
	var focus struct {
		Center  geometry.ChunkCoord   `json:"center"`
		Spawned []geometry.ChunkCoord `json:"spawned"`
	}
	decode(t, rec, &focus)
	assert.Equal(t, geometry.ChunkCoord{X: 6}, focus.Center)
	assert.NotEmpty(t, focus.Spawned)

	tests := []struct {
		name         string
		body         interface{}
		expectStatus int
	}{
		{name: "single chunk", body: map[string]interface{}{"x": -2000.0, "z": 0.0, "radius": 0}, expectStatus: http.StatusOK},
		{name: "radius too large", body: map[string]interface{}{"x": 0.0, "z": 0.0, "radius": 99}, expectStatus: http.StatusBadRequest},
		{name: "missing position", body: map[string]interface{}{"radius": 1}, expectStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/v1/discover", tt.body)
			assert.Equal(t, tt.expectStatus, rec.Code)
		})
	}
}

func TestBuildings(t *testing.T) {
	router := newTestRouter(t, newTestWorld(t, true), nil)
	pos := tileCenter(3, 3)

	tests := []struct {
		name         string
		body         interface{}
		expectStatus int
		expectFields func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:         "place lumber mill",
			body:         map[string]interface{}{"kind": "lumber_mill", "x": pos.X, "z": pos.Z, "rotation": 1},
			expectStatus: http.StatusCreated,
			expectFields: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var b building.Building
				decode(t, rec, &b)
				assert.Equal(t, building.LumberMill, b.Kind)
				assert.Equal(t, geometry.GlobalTile{X: 3, Z: 3}, b.Tile)
				assert.Equal(t, 1, b.Rotation)
			},
		},
		{
			name:         "occupied tile",
			body:         map[string]interface{}{"kind": "stone_quarry", "x": pos.X, "z": pos.Z},
			expectStatus: http.StatusConflict,
		},
		{
			name:         "unknown kind",
			body:         map[string]interface{}{"kind": "castle", "x": 10.0, "z": 10.0},
			expectStatus: http.StatusBadRequest,
		},
		{
			name:         "missing coordinates",
			body:         map[string]interface{}{"kind": "lumber_mill"},
			expectStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/v1/buildings", tt.body)
			assert.Equal(t, tt.expectStatus, rec.Code)
			if tt.expectFields != nil {
				tt.expectFields(t, rec)
			}
		})
	}

	rec := do(t, router, http.MethodGet, "/api/v1/buildings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []building.Building
	decode(t, rec, &list)
	require.Len(t, list, 1)
	id := list[0].ID.String()

	rec = do(t, router, http.MethodPost, "/api/v1/buildings/"+id+"/rotate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rotated struct {
		Building building.Building `json:"building"`
		Degrees  float64           `json:"degrees"`
	}
	decode(t, rec, &rotated)
	assert.Equal(t, 2, rotated.Building.Rotation)
	assert.Equal(t, -180.0, rotated.Degrees)

	rec = do(t, router, http.MethodGet, "/api/v1/buildings/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/buildings/00000000-0000-0000-0000-000000000001/rotate", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/buildings/nope/rotate", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommands_WorldLoading(t *testing.T) {
	router := newTestRouter(t, newTestWorld(t, false), nil)
	pos := tileCenter(3, 3)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{name: "place", method: http.MethodPost, path: "/api/v1/buildings", body: map[string]interface{}{"kind": "lumber_mill", "x": pos.X, "z": pos.Z}},
		{name: "rotate", method: http.MethodPost, path: "/api/v1/buildings/" + uuid.NewString() + "/rotate"},
		{name: "focus", method: http.MethodPost, path: "/api/v1/focus", body: map[string]interface{}{"x": pos.X, "z": pos.Z}},
		{name: "discover", method: http.MethodPost, path: "/api/v1/discover", body: map[string]interface{}{"x": pos.X, "z": pos.Z, "radius": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		})
	}
}

func TestValidatePlacement(t *testing.T) {
	router := newTestRouter(t, newTestWorld(t, true), nil)
	pos := tileCenter(2, 2)

	rec := do(t, router, http.MethodGet, "/api/v1/buildings/validate?kind=lumber_mill&x=40&z=40", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ok struct {
		Valid bool                `json:"valid"`
		Tile  geometry.GlobalTile `json:"tile"`
	}
	decode(t, rec, &ok)
	assert.True(t, ok.Valid)
	assert.Equal(t, geometry.GlobalTile{X: 2, Z: 2}, ok.Tile)

	rec = do(t, router, http.MethodPost, "/api/v1/buildings", map[string]interface{}{"kind": "lumber_mill", "x": pos.X, "z": pos.Z})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/buildings/validate?kind=stone_quarry&x=40&z=40", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var taken struct {
		Valid  bool   `json:"valid"`
		Reason string `json:"reason"`
	}
	decode(t, rec, &taken)
	assert.False(t, taken.Valid)
	assert.NotEmpty(t, taken.Reason)

	rec = do(t, router, http.MethodGet, "/api/v1/buildings/validate?kind=tower&x=40&z=40", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/v1/buildings/validate?kind=lumber_mill&x=a&z=40", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkersAndPath(t *testing.T) {
	w := newTestWorld(t, true)
	router := newTestRouter(t, w, nil)

	_, err := w.PlaceBuilding(context.Background(), building.LumberMill, tileCenter(4, 4), 0)
	require.NoError(t, err)
	require.NoError(t, w.Step(context.Background(), 50*time.Millisecond))

	rec := do(t, router, http.MethodGet, "/api/v1/workers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var workers []map[string]interface{}
	decode(t, rec, &workers)
	assert.Len(t, workers, 1)

	tests := []struct {
		name         string
		query        string
		expectStatus int
		expectFields func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:         "straight path",
			query:        "from_x=24&from_z=24&to_x=88&to_z=24",
			expectStatus: http.StatusOK,
			expectFields: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var body struct {
					Waypoints []geometry.Vec2 `json:"waypoints"`
				}
				decode(t, rec, &body)
				require.NotEmpty(t, body.Waypoints)
				assert.Equal(t, geometry.Vec2{X: 88, Z: 24}, body.Waypoints[len(body.Waypoints)-1])
			},
		},
		{
			name:         "goal outside the world",
			query:        "from_x=24&from_z=24&to_x=100000&to_z=24",
			expectStatus: http.StatusUnprocessableEntity,
		},
		{
			name:         "missing parameter",
			query:        "from_x=24&from_z=24&to_x=88",
			expectStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/api/v1/path?"+tt.query, nil)
			assert.Equal(t, tt.expectStatus, rec.Code)
			if tt.expectFields != nil {
				tt.expectFields(t, rec)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	w := newTestWorld(t, true)
	router := api.SetupRoutes(api.NewHandler(w, nil), nil, api.RouteOptions{RequestTimeout: time.Second, RateLimit: 3})

	var codes []int
	for i := 0; i < 4; i++ {
		codes = append(codes, do(t, router, http.MethodGet, "/api/v1/status", nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	unlimited := newTestRouter(t, w, nil)
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, do(t, unlimited, http.MethodGet, "/api/v1/status", nil).Code)
	}
}
