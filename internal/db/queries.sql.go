package db

import (
	"context"
)

const upsertChunk = `-- name: UpsertChunk :exec
INSERT INTO chunks (chunk_x, chunk_z, size, data, generated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (chunk_x, chunk_z) DO UPDATE SET
    size = excluded.size,
    data = excluded.data,
    generated_at = excluded.generated_at
`

type UpsertChunkParams struct {
	ChunkX      int64
	ChunkZ      int64
	Size        int64
	Data        []byte
	GeneratedAt int64
}

func (q *Queries) UpsertChunk(ctx context.Context, arg UpsertChunkParams) error {
	_, err := q.db.ExecContext(ctx, upsertChunk,
		arg.ChunkX,
		arg.ChunkZ,
		arg.Size,
		arg.Data,
		arg.GeneratedAt,
	)
	return err
}

const getChunk = `-- name: GetChunk :one
SELECT chunk_x, chunk_z, size, data, generated_at FROM chunks
WHERE chunk_x = ? AND chunk_z = ?
`

type GetChunkParams struct {
	ChunkX int64
	ChunkZ int64
}

func (q *Queries) GetChunk(ctx context.Context, arg GetChunkParams) (Chunk, error) {
	row := q.db.QueryRowContext(ctx, getChunk, arg.ChunkX, arg.ChunkZ)
	var i Chunk
	err := row.Scan(
		&i.ChunkX,
		&i.ChunkZ,
		&i.Size,
		&i.Data,
		&i.GeneratedAt,
	)
	return i, err
}

const countChunks = `-- name: CountChunks :one
SELECT COUNT(*) FROM chunks
`

func (q *Queries) CountChunks(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countChunks)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const insertGatheredPiece = `-- name: InsertGatheredPiece :exec
INSERT INTO gathered_pieces (piece_id, chunk_x, chunk_z, gathered_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (piece_id) DO NOTHING
`

type InsertGatheredPieceParams struct {
	PieceID    string
	ChunkX     int64
	ChunkZ     int64
	GatheredAt int64
}

func (q *Queries) InsertGatheredPiece(ctx context.Context, arg InsertGatheredPieceParams) error {
	_, err := q.db.ExecContext(ctx, insertGatheredPiece,
		arg.PieceID,
		arg.ChunkX,
		arg.ChunkZ,
		arg.GatheredAt,
	)
	return err
}

const listGatheredPieces = `-- name: ListGatheredPieces :many
SELECT piece_id FROM gathered_pieces
WHERE chunk_x = ? AND chunk_z = ?
ORDER BY piece_id
`

type ListGatheredPiecesParams struct {
	ChunkX int64
	ChunkZ int64
}

func (q *Queries) ListGatheredPieces(ctx context.Context, arg ListGatheredPiecesParams) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listGatheredPieces, arg.ChunkX, arg.ChunkZ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var pieceID string
		if err := rows.Scan(&pieceID); err != nil {
			return nil, err
		}
		items = append(items, pieceID)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertBuilding = `-- name: UpsertBuilding :exec
INSERT INTO buildings (building_id, kind, tile_x, tile_z, rotation, placed_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (building_id) DO UPDATE SET
    rotation = excluded.rotation
`

type UpsertBuildingParams struct {
	BuildingID string
	Kind       string
	TileX      int64
	TileZ      int64
	Rotation   int64
	PlacedAt   int64
}

func (q *Queries) UpsertBuilding(ctx context.Context, arg UpsertBuildingParams) error {
	_, err := q.db.ExecContext(ctx, upsertBuilding,
		arg.BuildingID,
		arg.Kind,
		arg.TileX,
		arg.TileZ,
		arg.Rotation,
		arg.PlacedAt,
	)
	return err
}

const listBuildings = `-- name: ListBuildings :many
SELECT building_id, kind, tile_x, tile_z, rotation, placed_at FROM buildings
ORDER BY placed_at, building_id
`

func (q *Queries) ListBuildings(ctx context.Context) ([]Building, error) {
	rows, err := q.db.QueryContext(ctx, listBuildings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Building
	for rows.Next() {
		var i Building
		if err := rows.Scan(
			&i.BuildingID,
			&i.Kind,
			&i.TileX,
			&i.TileZ,
			&i.Rotation,
			&i.PlacedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getGameState = `-- name: GetGameState :one
SELECT seed, quota, resources, elapsed_ms, success, evaluations, tick, updated_at FROM game_state
WHERE id = 1
`

func (q *Queries) GetGameState(ctx context.Context) (GameState, error) {
	row := q.db.QueryRowContext(ctx, getGameState)
	var i GameState
	err := row.Scan(
		&i.Seed,
		&i.Quota,
		&i.Resources,
		&i.ElapsedMs,
		&i.Success,
		&i.Evaluations,
		&i.Tick,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertGameState = `-- name: UpsertGameState :exec
INSERT INTO game_state (id, seed, quota, resources, elapsed_ms, success, evaluations, tick, updated_at)
VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    seed = excluded.seed,
    quota = excluded.quota,
    resources = excluded.resources,
    elapsed_ms = excluded.elapsed_ms,
    success = excluded.success,
    evaluations = excluded.evaluations,
    tick = excluded.tick,
    updated_at = excluded.updated_at
`

type UpsertGameStateParams struct {
	Seed        int64
	Quota       int64
	Resources   int64
	ElapsedMs   int64
	Success     bool
	Evaluations int64
	Tick        int64
	UpdatedAt   int64
}

func (q *Queries) UpsertGameState(ctx context.Context, arg UpsertGameStateParams) error {
	_, err := q.db.ExecContext(ctx, upsertGameState,
		arg.Seed,
		arg.Quota,
		arg.Resources,
		arg.ElapsedMs,
		arg.Success,
		arg.Evaluations,
		arg.Tick,
		arg.UpdatedAt,
	)
	return err
}
