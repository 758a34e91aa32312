package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/building"
	"github.com/VoidMesh/lethal-empire/internal/game"
	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/resource"
	"github.com/VoidMesh/lethal-empire/internal/terrain"
	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

const commandTimeout = 10 * time.Second

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	world *game.World
	db    Pinger
}

// NewHandler serves world. db may be nil when the world runs without persistence.
func NewHandler(world *game.World, db Pinger) *Handler {
	return &Handler{
		world: world,
		db:    db,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "lethal-empire",
		"world":     h.world.State().String(),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			log.Error("health check database ping failed", "error", err)
			status = http.StatusServiceUnavailable
			response["status"] = "unhealthy"
			response["database"] = "unreachable"
		} else {
			response["database"] = "ok"
		}
	}

	render.Status(r, status)
	render.JSON(w, r, response)
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.world.Status())
}

type chunkListResponse struct {
	Focus   geometry.ChunkCoord   `json:"focus"`
	Spawned []geometry.ChunkCoord `json:"spawned"`
	Loaded  []geometry.ChunkCoord `json:"loaded"`
}

func (h *Handler) ListChunks(w http.ResponseWriter, r *http.Request) {
	chunks := h.world.Chunks()
	render.Status(r, http.StatusOK)
	render.JSON(w, r, chunkListResponse{
		Focus:   chunks.FocusCenter(),
		Spawned: chunks.Coords(),
		Loaded:  chunks.LoadedCoords(),
	})
}

type chunkResponse struct {
	Coord       geometry.ChunkCoord `json:"coord"`
	Origin      geometry.Vec2       `json:"origin"`
	Size        int                 `json:"size"`
	Loaded      bool                `json:"loaded"`
	Tiles       []terrain.TileKind  `json:"tiles"`
	Resources   []resource.Kind     `json:"resources"`
	Textures    []string            `json:"textures"`
	Mapping     []uint32            `json:"mapping"`
	Pieces      []resource.Piece    `json:"pieces"`
	Remaining   int                 `json:"remaining"`
	GeneratedAt time.Time           `json:"generated_at"`
}

func (h *Handler) GetChunk(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.chunkCoord(w, r)
	if !ok {
		return
	}

	ch, found := h.world.Chunk(coord)
	if !found {
		h.renderError(w, r, http.StatusNotFound, "chunk has not been spawned", nil)
		return
	}

	chunks := h.world.Chunks()
	render.Status(r, http.StatusOK)
	render.JSON(w, r, chunkResponse{
		Coord:       ch.Coord,
		Origin:      chunks.Layout().ChunkCoordToWorldPos(ch.Coord),
		Size:        ch.Size,
		Loaded:      chunks.Loaded(ch.Coord),
		Tiles:       ch.Tiles,
		Resources:   ch.Resources,
		Textures:    chunks.Palette().Textures(),
		Mapping:     ch.Textures.Mapping(),
		Pieces:      ch.Pieces,
		Remaining:   ch.Remaining(),
		GeneratedAt: ch.GeneratedAt,
	})
}

// GetChunkMapping returns the texture index buffer as little-endian uint32 values.
func (h *Handler) GetChunkMapping(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.chunkCoord(w, r)
	if !ok {
		return
	}

	ch, found := h.world.Chunk(coord)
	if !found {
		h.renderError(w, r, http.StatusNotFound, "chunk has not been spawned", nil)
		return
	}

	data := ch.Textures.Bytes()
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Chunk-Size", strconv.Itoa(ch.Textures.Size()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Error("failed to write chunk mapping", "error", err, "chunk_x", coord.X, "chunk_z", coord.Z)
	}
}

type positionRequest struct {
	X      *float64 `json:"x"`
	Z      *float64 `json:"z"`
	Radius int32    `json:"radius"`
}

func (p positionRequest) pos() geometry.Vec2 {
	return geometry.Vec2{X: *p.X, Z: *p.Z}
}

func (h *Handler) decodePosition(w http.ResponseWriter, r *http.Request) (positionRequest, bool) {
	var req positionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid request body", err)
		return req, false
	}
	if req.X == nil || req.Z == nil {
		h.renderError(w, r, http.StatusBadRequest, "x and z are required", nil)
		return req, false
	}
	return req, true
}

func (h *Handler) Focus(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePosition(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()

	result, err := h.world.Focus(ctx, req.pos())
	if err != nil {
		h.renderCommandError(w, r, "failed to move focus", err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, result)
}

func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePosition(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()

	coords, err := h.world.Discover(ctx, req.pos(), req.Radius)
	if err != nil {
		h.renderCommandError(w, r, "failed to discover chunks", err)
		return
	}
	if coords == nil {
		coords = []geometry.ChunkCoord{}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"spawned": coords,
	})
}

func (h *Handler) ListBuildings(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.world.Buildings())
}

func (h *Handler) GetBuilding(w http.ResponseWriter, r *http.Request) {
	id, ok := h.buildingID(w, r)
	if !ok {
		return
	}
	b, found := h.world.Building(id)
	if !found {
		h.renderError(w, r, http.StatusNotFound, "building not found", nil)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, b)
}

type placeRequest struct {
	Kind     string   `json:"kind"`
	X        *float64 `json:"x"`
	Z        *float64 `json:"z"`
	Rotation int      `json:"rotation"`
}

func (h *Handler) PlaceBuilding(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.X == nil || req.Z == nil {
		h.renderError(w, r, http.StatusBadRequest, "x and z are required", nil)
		return
	}

	kind, err := building.ParseKind(req.Kind)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()

	b, err := h.world.PlaceBuilding(ctx, kind, geometry.Vec2{X: *req.X, Z: *req.Z}, req.Rotation)
	if err != nil {
		h.renderCommandError(w, r, "failed to place building", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, b)
}

func (h *Handler) RotateBuilding(w http.ResponseWriter, r *http.Request) {
	id, ok := h.buildingID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()

	b, err := h.world.RotateBuilding(ctx, id)
	if err != nil {
		h.renderCommandError(w, r, "failed to rotate building", err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"building": b,
		"degrees":  b.RotationDegrees(),
	})
}

type validateResponse struct {
	Valid  bool                `json:"valid"`
	Tile   geometry.GlobalTile `json:"tile"`
	Reason string              `json:"reason,omitempty"`
}

func (h *Handler) ValidatePlacement(w http.ResponseWriter, r *http.Request) {
	kind, err := building.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	z, errZ := strconv.ParseFloat(r.URL.Query().Get("z"), 64)
	if errX != nil || errZ != nil {
		h.renderError(w, r, http.StatusBadRequest, "x and z must be numbers", nil)
		return
	}

	pos := geometry.Vec2{X: x, Z: z}
	resp := validateResponse{Valid: true}
	tile, err := h.world.ValidatePlacement(kind, pos)
	if err != nil {
		resp.Valid = false
		resp.Reason = err.Error()
		tile = h.world.Layout().WorldPosToGlobalTile(pos)
	}
	resp.Tile = tile

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.world.Workers())
}

func (h *Handler) FindPath(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var vals [4]float64
	for i, key := range []string{"from_x", "from_z", "to_x", "to_z"} {
		v, err := strconv.ParseFloat(q.Get(key), 64)
		if err != nil {
			h.renderError(w, r, http.StatusBadRequest, "invalid "+key, err)
			return
		}
		vals[i] = v
	}

	from := geometry.Vec2{X: vals[0], Z: vals[1]}
	to := geometry.Vec2{X: vals[2], Z: vals[3]}
	waypoints, err := h.world.FindPath(from, to)
	if err != nil {
		h.renderCommandError(w, r, "failed to find path", err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"waypoints": waypoints,
	})
}

func (h *Handler) chunkCoord(w http.ResponseWriter, r *http.Request) (geometry.ChunkCoord, bool) {
	x, err := strconv.ParseInt(chi.URLParam(r, "x"), 10, 32)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid chunk x coordinate", err)
		return geometry.ChunkCoord{}, false
	}
	z, err := strconv.ParseInt(chi.URLParam(r, "z"), 10, 32)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid chunk z coordinate", err)
		return geometry.ChunkCoord{}, false
	}
	return geometry.ChunkCoord{X: int32(x), Z: int32(z)}, true
}

func (h *Handler) buildingID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid building id", err)
		return uuid.Nil, false
	}
	return id, true
}
