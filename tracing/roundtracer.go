package tracing

import (
	"sync"

	"github.com/sarchlab/ppscal/datarecording"
	"github.com/sarchlab/ppscal/sequencer"
	"github.com/sarchlab/ppscal/sim"
)

// RoundEntry is one row of the calibration round table. FreqHz and
// HalfPeriod describe the clock after the round's adjustment.
type RoundEntry struct {
	Round      uint64
	Time       float64
	Count1s    uint64
	Count10s   uint64
	Count100s  uint64
	Complete   bool
	FreqHz     float64
	HalfPeriod float64
}

// RoundTracer records each completed calibration round. It also keeps the
// rounds in memory so that callers can inspect them after a run.
type RoundTracer struct {
	mu         sync.Mutex
	timeTeller sim.TimeTeller
	backend    datarecording.DataRecorder
	rounds     []RoundEntry
}

// NewRoundTracer creates a RoundTracer. The backend may be nil, in which
// case rounds are only kept in memory.
func NewRoundTracer(
	timeTeller sim.TimeTeller,
	backend datarecording.DataRecorder,
) *RoundTracer {
	if backend != nil {
		backend.CreateTable(RoundTableName, RoundEntry{})
	}

	return &RoundTracer{
		timeTeller: timeTeller,
		backend:    backend,
	}
}

// Func records the round carried by the hook.
func (t *RoundTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != sequencer.HookPosRoundDone {
		return
	}

	round, ok := ctx.Item.(sequencer.Round)
	if !ok {
		return
	}

	entry := RoundEntry{
		Round:      round.Index,
		Time:       float64(t.timeTeller.CurrentTime()),
		Count1s:    round.Counters.Count1s,
		Count10s:   round.Counters.Count10s,
		Count100s:  round.Counters.Count100s,
		Complete:   round.Counters.Complete,
		FreqHz:     float64(round.Tuning.Freq),
		HalfPeriod: float64(round.Tuning.HalfPeriod),
	}

	t.mu.Lock()
	t.rounds = append(t.rounds, entry)
	t.mu.Unlock()

	if t.backend != nil {
		t.backend.InsertData(RoundTableName, entry)
	}
}

// Rounds returns the rounds recorded so far.
func (t *RoundTracer) Rounds() []RoundEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	rounds := make([]RoundEntry, len(t.rounds))
	copy(rounds, t.rounds)

	return rounds
}
