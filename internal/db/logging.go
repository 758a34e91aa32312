package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/charmbracelet/log"
)

// LoggingQueries wraps Queries with debug logging around every call.
type LoggingQueries struct {
	*Queries
}

func NewLoggingQueries(db DBTX) *LoggingQueries {
	return &LoggingQueries{
		Queries: New(db),
	}
}

func (lq *LoggingQueries) WithTx(tx *sql.Tx) *LoggingQueries {
	return &LoggingQueries{
		Queries: lq.Queries.WithTx(tx),
	}
}

func (lq *LoggingQueries) logQuery(queryName string, start time.Time, err error, args ...interface{}) {
	duration := time.Since(start)
	if err != nil && err != sql.ErrNoRows {
		log.Debug("Database query failed",
			"query", queryName,
			"duration", duration,
			"error", err,
			"args", args,
		)
		return
	}
	log.Debug("Database query executed",
		"query", queryName,
		"duration", duration,
		"args", args,
	)
}

func (lq *LoggingQueries) UpsertChunk(ctx context.Context, arg UpsertChunkParams) error {
	start := time.Now()
	log.Debug("Executing UpsertChunk", "chunk_x", arg.ChunkX, "chunk_z", arg.ChunkZ, "bytes", len(arg.Data))

	err := lq.Queries.UpsertChunk(ctx, arg)
	lq.logQuery("UpsertChunk", start, err, arg.ChunkX, arg.ChunkZ)
	return err
}

func (lq *LoggingQueries) GetChunk(ctx context.Context, arg GetChunkParams) (Chunk, error) {
	start := time.Now()
	log.Debug("Executing GetChunk", "chunk_x", arg.ChunkX, "chunk_z", arg.ChunkZ)

	result, err := lq.Queries.GetChunk(ctx, arg)
	lq.logQuery("GetChunk", start, err, arg)
	return result, err
}

func (lq *LoggingQueries) CountChunks(ctx context.Context) (int64, error) {
	start := time.Now()
	result, err := lq.Queries.CountChunks(ctx)
	lq.logQuery("CountChunks", start, err)
	return result, err
}

func (lq *LoggingQueries) InsertGatheredPiece(ctx context.Context, arg InsertGatheredPieceParams) error {
	start := time.Now()
	log.Debug("Executing InsertGatheredPiece", "piece_id", arg.PieceID, "chunk_x", arg.ChunkX, "chunk_z", arg.ChunkZ)

	err := lq.Queries.InsertGatheredPiece(ctx, arg)
	lq.logQuery("InsertGatheredPiece", start, err, arg)
	return err
}

func (lq *LoggingQueries) ListGatheredPieces(ctx context.Context, arg ListGatheredPiecesParams) ([]string, error) {
	start := time.Now()
	log.Debug("Executing ListGatheredPieces", "chunk_x", arg.ChunkX, "chunk_z", arg.ChunkZ)

	result, err := lq.Queries.ListGatheredPieces(ctx, arg)
	lq.logQuery("ListGatheredPieces", start, err, arg)

	if err == nil {
		log.Debug("ListGatheredPieces result", "piece_count", len(result), "chunk_x", arg.ChunkX, "chunk_z", arg.ChunkZ)
	}
	return result, err
}

func (lq *LoggingQueries) UpsertBuilding(ctx context.Context, arg UpsertBuildingParams) error {
	start := time.Now()
	log.Debug("Executing UpsertBuilding",
		"building_id", arg.BuildingID,
		"kind", arg.Kind,
		"tile_x", arg.TileX,
		"tile_z", arg.TileZ,
		"rotation", arg.Rotation,
	)

	err := lq.Queries.UpsertBuilding(ctx, arg)
	lq.logQuery("UpsertBuilding", start, err, arg)
	return err
}

func (lq *LoggingQueries) ListBuildings(ctx context.Context) ([]Building, error) {
	start := time.Now()
	log.Debug("Executing ListBuildings")

	result, err := lq.Queries.ListBuildings(ctx)
	lq.logQuery("ListBuildings", start, err)

	if err == nil {
		log.Debug("ListBuildings result", "building_count", len(result))
	}
	return result, err
}

func (lq *LoggingQueries) GetGameState(ctx context.Context) (GameState, error) {
	start := time.Now()
	log.Debug("Executing GetGameState")

	result, err := lq.Queries.GetGameState(ctx)
	lq.logQuery("GetGameState", start, err)
	return result, err
}

func (lq *LoggingQueries) UpsertGameState(ctx context.Context, arg UpsertGameStateParams) error {
	start := time.Now()
	log.Debug("Executing UpsertGameState", "seed", arg.Seed, "tick", arg.Tick, "resources", arg.Resources, "quota", arg.Quota)

	err := lq.Queries.UpsertGameState(ctx, arg)
	lq.logQuery("UpsertGameState", start, err, arg)
	return err
}
