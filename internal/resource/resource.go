// Package resource decides where trees and rocks grow and scatters gatherable pieces.
package resource

import (
	"fmt"
	"strings"

	"github.com/VoidMesh/lethal-empire/internal/geometry"
)

// Kind is the resource covering a tile.
type Kind uint8

const (
	None Kind = iota
	Tree
	Rock
)

var Kinds = []Kind{None, Tree, Rock}

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Tree:
		return "tree"
	case Rock:
		return "rock"
	default:
		return fmt.Sprintf("resource(%d)", uint8(k))
	}
}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return None, fmt.Errorf("unknown resource kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Piece is a single gatherable tree or rock.
type Piece struct {
	ID       string              `json:"id"`
	Kind     Kind                `json:"kind"`
	Chunk    geometry.ChunkCoord `json:"chunk"`
	Pos      geometry.Vec2       `json:"pos"`
	Tile     geometry.GlobalTile `json:"tile"`
	Gathered bool                `json:"gathered"`
}

// PieceID formats the deterministic id of the n-th piece of a chunk.
func PieceID(c geometry.ChunkCoord, n int) string {
	return fmt.Sprintf("%d:%d:%d", c.X, c.Z, n)
}

// ParsePieceID extracts the chunk coordinate from a piece id.
func ParsePieceID(id string) (geometry.ChunkCoord, int, error) {
	var c geometry.ChunkCoord
	var n int
	if _, err := fmt.Sscanf(id, "%d:%d:%d", &c.X, &c.Z, &n); err != nil {
		return c, 0, fmt.Errorf("invalid piece id %q: %w", id, err)
	}
	return c, n, nil
}
