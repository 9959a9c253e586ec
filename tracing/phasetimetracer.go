package tracing

import (
	"sync"

	"github.com/sarchlab/ppscal/sequencer"
	"github.com/sarchlab/ppscal/sim"
)

// PhaseTimeTracer accumulates the simulated time spent in each phase kind.
type PhaseTimeTracer struct {
	mu         sync.Mutex
	timeTeller sim.TimeTeller
	current    sequencer.PhaseKind
	since      sim.VTimeInSec
	total      map[sequencer.PhaseKind]sim.VTimeInSec
	entries    map[sequencer.PhaseKind]uint64
}

// NewPhaseTimeTracer creates a PhaseTimeTracer. Time starts counting in
// ResetCounters at the current time.
func NewPhaseTimeTracer(timeTeller sim.TimeTeller) *PhaseTimeTracer {
	return &PhaseTimeTracer{
		timeTeller: timeTeller,
		current:    sequencer.KindResetCounters,
		since:      timeTeller.CurrentTime(),
		total:      make(map[sequencer.PhaseKind]sim.VTimeInSec),
		entries:    map[sequencer.PhaseKind]uint64{sequencer.KindResetCounters: 1},
	}
}

// Func closes the interval of the phase being left.
func (t *PhaseTimeTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != sequencer.HookPosPhaseChange {
		return
	}

	change, ok := ctx.Item.(sequencer.PhaseChange)
	if !ok {
		return
	}

	now := t.timeTeller.CurrentTime()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.total[change.From] += now - t.since
	t.current = change.To
	t.since = now
	t.entries[change.To]++
}

// TimeIn returns the time spent in kind, including the open interval of the
// current phase.
func (t *PhaseTimeTracer) TimeIn(kind sequencer.PhaseKind) sim.VTimeInSec {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := t.total[kind]
	if kind == t.current {
		total += t.timeTeller.CurrentTime() - t.since
	}

	return total
}

// Entries returns how many times kind has been entered.
func (t *PhaseTimeTracer) Entries(kind sequencer.PhaseKind) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.entries[kind]
}
