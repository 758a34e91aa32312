package db

// Timestamps are stored as unix milliseconds.

type Chunk struct {
	ChunkX      int64
	ChunkZ      int64
	Size        int64
	Data        []byte
	GeneratedAt int64
}

type GatheredPiece struct {
	PieceID    string
	ChunkX     int64
	ChunkZ     int64
	GatheredAt int64
}

type Building struct {
	BuildingID string
	Kind       string
	TileX      int64
	TileZ      int64
	Rotation   int64
	PlacedAt   int64
}

type GameState struct {
	Seed        int64
	Quota       int64
	Resources   int64
	ElapsedMs   int64
	Success     bool
	Evaluations int64
	Tick        int64
	UpdatedAt   int64
}
