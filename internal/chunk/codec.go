package chunk

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/resource"
	"github.com/VoidMesh/lethal-empire/internal/terrain"
	"github.com/klauspost/compress/zstd"
)

const codecVersion byte = 1

var ErrUnsupportedVersion = errors.New("unsupported chunk encoding version")

type record struct {
	X, Z        int32
	Size        int
	Tiles       []byte
	Resources   []byte
	Pieces      []pieceRecord
	GeneratedAt int64
}

type pieceRecord struct {
	Kind     uint8
	X, Z     float64
	TileX    int32
	TileZ    int32
	Gathered bool
}

// Codec serializes chunks as a version byte followed by a zstd-compressed gob record.
// Texture buffers are rebuilt from the palette on decode.
type Codec struct {
	palette terrain.Palette
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

func NewCodec(palette terrain.Palette) (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Codec{palette: palette, enc: enc, dec: dec}, nil
}

func (c *Codec) Encode(ch *Chunk) ([]byte, error) {
	rec := record{
		X:           ch.Coord.X,
		Z:           ch.Coord.Z,
		Size:        ch.Size,
		Tiles:       make([]byte, len(ch.Tiles)),
		Resources:   make([]byte, len(ch.Resources)),
		Pieces:      make([]pieceRecord, len(ch.Pieces)),
		GeneratedAt: ch.GeneratedAt.UnixNano(),
	}
	for i, t := range ch.Tiles {
		rec.Tiles[i] = byte(t)
	}
	for i, r := range ch.Resources {
		rec.Resources[i] = byte(r)
	}
	for i, p := range ch.Pieces {
		rec.Pieces[i] = pieceRecord{
			Kind:     uint8(p.Kind),
			X:        p.Pos.X,
			Z:        p.Pos.Z,
			TileX:    p.Tile.X,
			TileZ:    p.Tile.Z,
			Gathered: p.Gathered,
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&rec); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return c.enc.EncodeAll(buf.Bytes(), []byte{codecVersion}), nil
}

func (c *Codec) Decode(data []byte) (*Chunk, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty chunk payload")
	}
	if data[0] != codecVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, data[0])
	}
	raw, err := c.dec.DecodeAll(data[1:], nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}

	var rec record
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	if rec.Size <= 0 || len(rec.Tiles) != rec.Size*rec.Size || len(rec.Resources) != len(rec.Tiles) {
		return nil, fmt.Errorf("corrupt chunk record: size %d, %d tiles", rec.Size, len(rec.Tiles))
	}

	coord := geometry.ChunkCoord{X: rec.X, Z: rec.Z}
	ch := &Chunk{
		Coord:       coord,
		Size:        rec.Size,
		Tiles:       make([]terrain.TileKind, len(rec.Tiles)),
		Resources:   make([]resource.Kind, len(rec.Resources)),
		Pieces:      make([]resource.Piece, len(rec.Pieces)),
		GeneratedAt: time.Unix(0, rec.GeneratedAt).UTC(),
	}
	for i, t := range rec.Tiles {
		ch.Tiles[i] = terrain.TileKind(t)
	}
	for i, r := range rec.Resources {
		ch.Resources[i] = resource.Kind(r)
	}
	for i, p := range rec.Pieces {
		ch.Pieces[i] = resource.Piece{
			ID:       resource.PieceID(coord, i),
			Kind:     resource.Kind(p.Kind),
			Chunk:    coord,
			Pos:      geometry.Vec2{X: p.X, Z: p.Z},
			Tile:     geometry.GlobalTile{X: p.TileX, Z: p.TileZ},
			Gathered: p.Gathered,
		}
	}

	ch.Textures, err = terrain.NewIndexBuffer(ch.Size, ch.Tiles, c.palette)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Close releases the zstd decoder goroutines.
func (c *Codec) Close() {
	c.dec.Close()
	_ = c.enc.Close()
}
