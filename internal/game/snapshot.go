package game

import (
	"slices"

	"github.com/VoidMesh/lethal-empire/internal/building"
	"github.com/VoidMesh/lethal-empire/internal/quota"
	"github.com/VoidMesh/lethal-empire/internal/unit"
)

// Snapshot is the state published to subscribers after every tick.
type Snapshot struct {
	Tick      uint64              `json:"tick"`
	State     State               `json:"state"`
	Quota     quota.Status        `json:"quota"`
	Buildings []building.Building `json:"buildings"`
	Workers   []unit.Worker       `json:"workers"`
}

const subscriberBuffer = 8

// Subscribe registers for snapshots. Slow subscribers miss snapshots rather than stall the
// simulation.
func (w *World) Subscribe() (int, <-chan Snapshot) {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	id := w.nextID
	w.nextID++
	ch := make(chan Snapshot, subscriberBuffer)
	w.subs[id] = ch
	return id, ch
}

func (w *World) Unsubscribe(id int) {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	if ch, ok := w.subs[id]; ok {
		close(ch)
		delete(w.subs, id)
	}
}

func (w *World) publish(s Snapshot) {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

func (w *World) snapshotLocked() Snapshot {
	return Snapshot{
		Tick:      w.tick,
		State:     w.state,
		Quota:     w.quota.Status(),
		Buildings: w.buildings.List(),
		Workers:   w.workersLocked(),
	}
}

func (w *World) workersLocked() []unit.Worker {
	out := make([]unit.Worker, 0, len(w.workers))
	for _, wk := range w.workers {
		cp := *wk
		cp.Waypoints = slices.Clone(wk.Waypoints)
		out = append(out, cp)
	}
	slices.SortFunc(out, func(a, b unit.Worker) int { return slices.Compare(a.ID[:], b.ID[:]) })
	return out
}
