// Package quota tracks the periodic resource target the player has to meet.
package quota

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Params configures a Tracker. Multiplier scales the quota after every met period.
type Params struct {
	Period           time.Duration
	Initial          uint32
	InitialResources uint32
	Multiplier       uint32
}

// DefaultParams returns a ten minute period starting at a quota of 10 with 5 resources.
func DefaultParams() Params {
	return Params{
		Period:           600 * time.Second,
		Initial:          10,
		InitialResources: 5,
		Multiplier:       5,
	}
}

// Evaluation is the outcome of one finished period.
type Evaluation struct {
	Quota     uint32 `json:"quota"`
	Resources uint32 `json:"resources"`
	Success   bool   `json:"success"`
}

// State is the persisted part of a tracker.
type State struct {
	Quota       uint32
	Resources   uint32
	Elapsed     time.Duration
	Success     bool
	Evaluations uint32
}

// Status is the read-only view served to clients.
type Status struct {
	TimeLeft     time.Duration `json:"time_left_ms"`
	TimeLeftText string        `json:"time_left_text"`
	Quota        uint32        `json:"quota"`
	Resources    uint32        `json:"resources"`
	Success      bool          `json:"success"`
	Evaluations  uint32        `json:"evaluations"`
	Text         string        `json:"text"`
}

// Tracker runs a repeating countdown. Each time it finishes, resources at or above the
// quota are spent and the quota grows; a shortfall marks the period failed.
type Tracker struct {
	mu     sync.Mutex
	params Params
	state  State
}

// NewTracker starts a tracker at the initial quota. No period has been met yet.
func NewTracker(params Params) *Tracker {
	return &Tracker{
		params: params,
		state: State{
			Quota:     params.Initial,
			Resources: params.InitialResources,
		},
	}
}

// Tick advances the countdown by dt and returns every period that finished.
func (t *Tracker) Tick(dt time.Duration) []Evaluation {
	if dt <= 0 || t.params.Period <= 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Evaluation
	t.state.Elapsed += dt
	for t.state.Elapsed >= t.params.Period {
		t.state.Elapsed -= t.params.Period
		out = append(out, t.evaluate())
	}
	return out
}

func (t *Tracker) evaluate() Evaluation {
	ev := Evaluation{Quota: t.state.Quota, Resources: t.state.Resources}
	if t.state.Resources < t.state.Quota {
		ev.Success = false
	} else {
		t.state.Resources -= t.state.Quota
		t.state.Quota = saturatingMul(t.state.Quota, t.params.Multiplier)
		ev.Success = true
	}
	t.state.Success = ev.Success
	t.state.Evaluations++
	return ev
}

// Deposit adds n resources.
func (t *Tracker) Deposit(n uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Resources = saturatingAdd(t.state.Resources, n)
}

func saturatingMul(a, b uint32) uint32 {
	if p := uint64(a) * uint64(b); p <= math.MaxUint32 {
		return uint32(p)
	}
	return math.MaxUint32
}

func saturatingAdd(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

// Status reports the time left in the current period and the quota line.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	left := t.params.Period - t.state.Elapsed
	return Status{
		TimeLeft:     left,
		TimeLeftText: FormatClock(left),
		Quota:        t.state.Quota,
		Resources:    t.state.Resources,
		Success:      t.state.Success,
		Evaluations:  t.state.Evaluations,
		Text:         fmt.Sprintf("QUOTA: %d/%d", t.state.Resources, t.state.Quota),
	}
}

// State returns a copy of the state to persist.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Restore replaces the tracker state, e.g. after loading a save.
func (t *Tracker) Restore(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s.Elapsed < 0 || s.Elapsed >= t.params.Period {
		s.Elapsed = 0
	}
	t.state = s
}

// FormatClock renders a duration as MM:SS, rounding partial seconds up.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
