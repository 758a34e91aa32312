package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/building"
	"github.com/VoidMesh/lethal-empire/internal/chunk"
	"github.com/VoidMesh/lethal-empire/internal/game"
	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/quota"
	"github.com/VoidMesh/lethal-empire/internal/resource"
	"github.com/google/uuid"
)

// Store persists chunks, gathered pieces, buildings and the game state in sqlite.
// It satisfies both chunk.Store and game.Persistence.
type Store struct {
	db    *sql.DB
	q     *LoggingQueries
	codec *chunk.Codec
	now   func() time.Time
}

var (
	_ chunk.Store      = (*Store)(nil)
	_ game.Persistence = (*Store)(nil)
)

func NewStore(db *sql.DB, codec *chunk.Codec) *Store {
	return &Store{
		db:    db,
		q:     NewLoggingQueries(db),
		codec: codec,
		now:   time.Now,
	}
}

// LoadChunk decodes a saved chunk and marks the pieces gathered since it was saved.
func (s *Store) LoadChunk(ctx context.Context, coord geometry.ChunkCoord) (*chunk.Chunk, error) {
	row, err := s.q.GetChunk(ctx, GetChunkParams{ChunkX: int64(coord.X), ChunkZ: int64(coord.Z)})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, chunk.ErrChunkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk %s: %w", coord, err)
	}

	ch, err := s.codec.Decode(row.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode chunk %s: %w", coord, err)
	}
	if ch.Coord != coord {
		return nil, fmt.Errorf("chunk row %s holds data for %s", coord, ch.Coord)
	}

	gathered, err := s.q.ListGatheredPieces(ctx, ListGatheredPiecesParams{ChunkX: int64(coord.X), ChunkZ: int64(coord.Z)})
	if err != nil {
		return nil, fmt.Errorf("failed to load gathered pieces for %s: %w", coord, err)
	}
	if len(gathered) > 0 {
		set := make(map[string]struct{}, len(gathered))
		for _, id := range gathered {
			set[id] = struct{}{}
		}
		for i := range ch.Pieces {
			if _, ok := set[ch.Pieces[i].ID]; ok {
				ch.Pieces[i].Gathered = true
			}
		}
	}
	return ch, nil
}

func (s *Store) SaveChunk(ctx context.Context, c *chunk.Chunk) error {
	data, err := s.codec.Encode(c)
	if err != nil {
		return fmt.Errorf("failed to encode chunk %s: %w", c.Coord, err)
	}
	generated := c.GeneratedAt
	if generated.IsZero() {
		generated = s.now()
	}
	err = s.q.UpsertChunk(ctx, UpsertChunkParams{
		ChunkX:      int64(c.Coord.X),
		ChunkZ:      int64(c.Coord.Z),
		Size:        int64(c.Size),
		Data:        data,
		GeneratedAt: generated.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to save chunk %s: %w", c.Coord, err)
	}
	return nil
}

func (s *Store) MarkPieceGathered(ctx context.Context, piece resource.Piece) error {
	err := s.q.InsertGatheredPiece(ctx, InsertGatheredPieceParams{
		PieceID:    piece.ID,
		ChunkX:     int64(piece.Chunk.X),
		ChunkZ:     int64(piece.Chunk.Z),
		GatheredAt: s.now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to mark piece %s gathered: %w", piece.ID, err)
	}
	return nil
}

// Ping checks that the database still answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ChunkCount is the number of chunks saved so far.
func (s *Store) ChunkCount(ctx context.Context) (int64, error) {
	return s.q.CountChunks(ctx)
}

func (s *Store) LoadBuildings(ctx context.Context) ([]building.Building, error) {
	rows, err := s.q.ListBuildings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	out := make([]building.Building, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.BuildingID)
		if err != nil {
			return nil, fmt.Errorf("invalid building id %q: %w", row.BuildingID, err)
		}
		kind, err := building.ParseKind(row.Kind)
		if err != nil {
			return nil, err
		}
		out = append(out, building.Building{
			ID:       id,
			Kind:     kind,
			Tile:     geometry.GlobalTile{X: int32(row.TileX), Z: int32(row.TileZ)},
			Rotation: int(row.Rotation),
			PlacedAt: time.UnixMilli(row.PlacedAt),
		})
	}
	return out, nil
}

func (s *Store) SaveBuilding(ctx context.Context, b building.Building) error {
	err := s.q.UpsertBuilding(ctx, UpsertBuildingParams{
		BuildingID: b.ID.String(),
		Kind:       b.Kind.String(),
		TileX:      int64(b.Tile.X),
		TileZ:      int64(b.Tile.Z),
		Rotation:   int64(b.Rotation),
		PlacedAt:   b.PlacedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to save building %s: %w", b.ID, err)
	}
	return nil
}

func (s *Store) LoadGameState(ctx context.Context) (game.SavedState, bool, error) {
	row, err := s.q.GetGameState(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return game.SavedState{}, false, nil
	}
	if err != nil {
		return game.SavedState{}, false, fmt.Errorf("failed to load game state: %w", err)
	}
	return game.SavedState{
		Seed: row.Seed,
		Tick: uint64(row.Tick),
		Quota: quota.State{
			Quota:       uint32(row.Quota),
			Resources:   uint32(row.Resources),
			Elapsed:     time.Duration(row.ElapsedMs) * time.Millisecond,
			Success:     row.Success,
			Evaluations: uint32(row.Evaluations),
		},
	}, true, nil
}

func (s *Store) SaveGameState(ctx context.Context, st game.SavedState) error {
	err := s.q.UpsertGameState(ctx, UpsertGameStateParams{
		Seed:        st.Seed,
		Quota:       int64(st.Quota.Quota),
		Resources:   int64(st.Quota.Resources),
		ElapsedMs:   st.Quota.Elapsed.Milliseconds(),
		Success:     st.Quota.Success,
		Evaluations: int64(st.Quota.Evaluations),
		Tick:        int64(st.Tick),
		UpdatedAt:   s.now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to save game state: %w", err)
	}
	return nil
}
