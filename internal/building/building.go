// Package building keeps track of the gathering buildings placed in the world.
package building

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/resource"
	"github.com/google/uuid"
)

var (
	ErrInvalidPlacement = errors.New("invalid building placement")
	ErrUnknownKind      = errors.New("unknown building kind")
	ErrNotFound         = errors.New("building not found")
)

// Kind is the type of a building, which decides what it gathers.
type Kind uint8

const (
	LumberMill Kind = iota + 1
	StoneQuarry
)

var Kinds = []Kind{LumberMill, StoneQuarry}

func (k Kind) String() string {
	switch k {
	case LumberMill:
		return "lumber_mill"
	case StoneQuarry:
		return "stone_quarry"
	default:
		return fmt.Sprintf("building(%d)", uint8(k))
	}
}

// ParseKind accepts the snake_case name of a kind, case-insensitively.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Gathers is the resource the building's workers collect.
func (k Kind) Gathers() resource.Kind {
	switch k {
	case LumberMill:
		return resource.Tree
	case StoneQuarry:
		return resource.Rock
	default:
		return resource.None
	}
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

// Building is a placed building. Tile and Pos never change after placement.
type Building struct {
	ID           uuid.UUID           `json:"id"`
	Kind         Kind                `json:"kind"`
	Tile         geometry.GlobalTile `json:"tile"`
	Chunk        geometry.ChunkCoord `json:"chunk"`
	Pos          geometry.Vec2       `json:"pos"`
	Rotation     int                 `json:"rotation"`
	HasWorker    bool                `json:"has_worker"`
	PlacedAt     time.Time           `json:"placed_at"`
	NextDispatch time.Duration       `json:"-"`
}

// RotationDegrees is the yaw of the building. Each rotation step turns it -90 degrees.
func (b Building) RotationDegrees() float64 {
	return float64(b.Rotation) * -90
}
