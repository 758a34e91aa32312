package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	available map[string]bool
	deposited uint32
	released  []uuid.UUID
	err       error
	// persistErr is returned after the piece was taken.
	persistErr error
}

func (f *fakeExecutor) GatherPiece(ctx context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	ok := f.available[id]
	f.available[id] = false
	return ok, f.persistErr
}

func (f *fakeExecutor) DepositResource(n uint32) { f.deposited += n }

func (f *fakeExecutor) ReleaseWorker(w *Worker, b uuid.UUID) { f.released = append(f.released, b) }

func TestWorker_Step(t *testing.T) {
	w := NewWorker(uuid.New(), "0:0:0", geometry.Vec2{}, 10, []Waypoint{
		{Pos: geometry.Vec2{X: 3, Z: 4}},
		{Pos: geometry.Vec2{X: 3, Z: 14}, Actions: []Action{DepositAction()}},
	})

	assert.Nil(t, w.Step(250*time.Millisecond))
	assert.InDelta(t, 1.5, w.Pos.X, 1e-9)
	assert.InDelta(t, 2.0, w.Pos.Z, 1e-9)

	// Remaining distance 2.5 is shorter than the step, so the worker snaps.
	assert.Empty(t, w.Step(time.Second))
	assert.Equal(t, geometry.Vec2{X: 3, Z: 4}, w.Pos)
	assert.Len(t, w.Waypoints, 1)

	assert.Nil(t, w.Step(500*time.Millisecond))
	actions := w.Step(500 * time.Millisecond)
	assert.Equal(t, []Action{DepositAction()}, actions)
	assert.Empty(t, w.Waypoints)
	assert.Nil(t, w.Step(time.Second))
}

func TestWorker_StepArrivesInPlace(t *testing.T) {
	w := NewWorker(uuid.New(), "", geometry.Vec2{X: 8, Z: 8}, 1, []Waypoint{
		{Pos: geometry.Vec2{X: 8, Z: 8}, Actions: []Action{GatherAction("a")}},
	})
	assert.Equal(t, []Action{GatherAction("a")}, w.Step(0))
}

func TestWorker_Execute(t *testing.T) {
	ctx := context.Background()
	building := uuid.New()

	tests := []struct {
		name         string
		available    bool
		actions      []Action
		expectFields func(t *testing.T, w *Worker, exec *fakeExecutor)
	}{
		{
			name:      "gather then deposit",
			available: true,
			actions:   []Action{GatherAction("p"), DepositAction()},
			expectFields: func(t *testing.T, w *Worker, exec *fakeExecutor) {
				assert.Equal(t, uint32(1), exec.deposited)
				assert.False(t, w.Carrying)
			},
		},
		{
			name:      "piece already gathered",
			available: false,
			actions:   []Action{GatherAction("p"), DepositAction()},
			expectFields: func(t *testing.T, w *Worker, exec *fakeExecutor) {
				assert.Zero(t, exec.deposited)
			},
		},
		{
			name:      "carrying after gather",
			available: true,
			actions:   []Action{GatherAction("p")},
			expectFields: func(t *testing.T, w *Worker, exec *fakeExecutor) {
				assert.True(t, w.Carrying)
			},
		},
		{
			name:    "release",
			actions: []Action{DepositAction(), ReleaseAction(building)},
			expectFields: func(t *testing.T, w *Worker, exec *fakeExecutor) {
				assert.Zero(t, exec.deposited, "empty-handed deposit adds nothing")
				assert.Equal(t, []uuid.UUID{building}, exec.released)
				assert.True(t, w.Done)
				assert.Nil(t, w.Step(time.Second))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{available: map[string]bool{"p": tt.available}}
			w := NewWorker(building, "p", geometry.Vec2{}, 1, []Waypoint{{Pos: geometry.Vec2{X: 5}}})
			require.NoError(t, w.Execute(ctx, tt.actions, exec))
			tt.expectFields(t, w, exec)
		})
	}
}

func TestWorker_ExecuteError(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("boom")}
	w := NewWorker(uuid.New(), "p", geometry.Vec2{}, 1, nil)
	assert.Error(t, w.Execute(context.Background(), []Action{GatherAction("p")}, exec))
}

func TestWorker_ExecuteKeepsPieceWhenPersistFails(t *testing.T) {
	building := uuid.New()
	exec := &fakeExecutor{available: map[string]bool{"p": true}, persistErr: errors.New("disk full")}
	w := NewWorker(building, "p", geometry.Vec2{}, 1, nil)

	err := w.Execute(context.Background(), []Action{GatherAction("p")}, exec)
	require.Error(t, err)
	assert.True(t, w.Carrying)

	require.NoError(t, w.Execute(context.Background(), []Action{DepositAction(), ReleaseAction(building)}, exec))
	assert.Equal(t, uint32(1), exec.deposited)
}
