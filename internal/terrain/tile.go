// Package terrain turns layered noise into tile grids and texture index buffers.
package terrain

import (
	"fmt"
	"strings"
)

// TileKind is the ground type of a single tile.
type TileKind uint8

const (
	Water TileKind = iota
	Grass
	Barren
)

// Kinds lists every tile kind in index order.
var Kinds = []TileKind{Water, Grass, Barren}

func (k TileKind) String() string {
	switch k {
	case Water:
		return "water"
	case Grass:
		return "grass"
	case Barren:
		return "barren"
	default:
		return fmt.Sprintf("tile(%d)", uint8(k))
	}
}

// ParseTileKind is the inverse of TileKind.String.
func ParseTileKind(s string) (TileKind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown tile kind %q", s)
}

// Passable reports whether units can walk over the tile.
func (k TileKind) Passable() bool { return k != Water }

// Buildable reports whether a building can stand on the tile.
func (k TileKind) Buildable() bool { return k != Water }

func (k TileKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *TileKind) UnmarshalText(b []byte) error {
	v, err := ParseTileKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Thresholds splits the noise range into tile kinds.
type Thresholds struct {
	Water float64
	Grass float64
}

// DefaultThresholds: below 0 is water, below 0.3 grass, the rest barren.
func DefaultThresholds() Thresholds {
	return Thresholds{Water: 0.0, Grass: 0.3}
}

// FromNoise discretizes a noise sample into a tile kind.
func (t Thresholds) FromNoise(n float64) TileKind {
	switch {
	case n < t.Water:
		return Water
	case n < t.Grass:
		return Grass
	default:
		return Barren
	}
}
