// Package unit moves workers along waypoint queues and runs the actions attached to them.
package unit

import (
	"context"
	"fmt"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/google/uuid"
)

// Epsilon is the distance at which a worker counts as arrived.
const Epsilon = 1e-3

type ActionKind uint8

const (
	Gather ActionKind = iota + 1
	Deposit
	Release
)

func (k ActionKind) String() string {
	switch k {
	case Gather:
		return "gather"
	case Deposit:
		return "deposit"
	case Release:
		return "release"
	default:
		return fmt.Sprintf("action(%d)", uint8(k))
	}
}

func (k ActionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

type Action struct {
	Kind     ActionKind `json:"kind"`
	PieceID  string     `json:"piece_id,omitempty"`
	Building uuid.UUID  `json:"building,omitempty"`
}

func GatherAction(pieceID string) Action { return Action{Kind: Gather, PieceID: pieceID} }

func DepositAction() Action { return Action{Kind: Deposit} }

func ReleaseAction(building uuid.UUID) Action { return Action{Kind: Release, Building: building} }

// Waypoint is a position with the actions to run on arrival.
type Waypoint struct {
	Pos     geometry.Vec2 `json:"pos"`
	Actions []Action      `json:"actions,omitempty"`
}

type Worker struct {
	ID        uuid.UUID     `json:"id"`
	Building  uuid.UUID     `json:"building"`
	Target    string        `json:"target"`
	Pos       geometry.Vec2 `json:"pos"`
	Velocity  float64       `json:"velocity"`
	Waypoints []Waypoint    `json:"waypoints"`
	Carrying  bool          `json:"carrying"`
	Done      bool          `json:"done"`
}

func NewWorker(building uuid.UUID, target string, start geometry.Vec2, velocity float64, waypoints []Waypoint) *Worker {
	return &Worker{
		ID:        uuid.New(),
		Building:  building,
		Target:    target,
		Pos:       start,
		Velocity:  velocity,
		Waypoints: waypoints,
	}
}

// Step moves the worker toward its next waypoint for dt. When it reaches the waypoint the
// waypoint is dropped and its actions are returned.
func (w *Worker) Step(dt time.Duration) []Action {
	if w.Done || len(w.Waypoints) == 0 {
		return nil
	}

	next := w.Waypoints[0]
	delta := next.Pos.Sub(w.Pos)
	dist := delta.Length()
	step := w.Velocity * dt.Seconds()

	if dist <= step {
		w.Pos = next.Pos
	} else {
		w.Pos = w.Pos.Add(delta.Normalize().Scale(step))
	}

	if w.Pos.Distance(next.Pos) > Epsilon {
		return nil
	}
	w.Waypoints = w.Waypoints[1:]
	return next.Actions
}

// Executor carries out the world side effects of worker actions.
type Executor interface {
	// GatherPiece claims a piece. It reports false when someone gathered it first.
	GatherPiece(ctx context.Context, pieceID string) (bool, error)
	DepositResource(amount uint32)
	ReleaseWorker(w *Worker, building uuid.UUID)
}

// Execute runs actions in order against exec.
func (w *Worker) Execute(ctx context.Context, actions []Action, exec Executor) error {
	for _, a := range actions {
		switch a.Kind {
		case Gather:
			// A piece taken in memory is carried even when persisting it failed.
			ok, err := exec.GatherPiece(ctx, a.PieceID)
			w.Carrying = ok
			if err != nil {
				return fmt.Errorf("worker %s failed to gather %s: %w", w.ID, a.PieceID, err)
			}
		case Deposit:
			if w.Carrying {
				exec.DepositResource(1)
				w.Carrying = false
			}
		case Release:
			exec.ReleaseWorker(w, a.Building)
			w.Done = true
		}
	}
	return nil
}
