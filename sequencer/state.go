// Package sequencer implements the calibration sequencer: a synchronous state
// machine that resets and arms the PPS counter peripheral, waits for its
// interrupt, reads the three 64-bit counters one byte at a time and steps the
// modeled oscillator before looping.
//
// The machine is a pure function from the current state and inputs to the
// next state and outputs (see Next and Step). Comp wraps it into a ticking
// component that commits one state per bus clock cycle.
package sequencer

import (
	"github.com/sarchlab/ppscal/bus"
	"github.com/sarchlab/ppscal/clock"
)

// ReadCountsTicks is the length of the counter read burst. Three windows of
// CounterWidth reads are followed by a window that only drains the last
// pending read.
const ReadCountsTicks = 4 * bus.CounterWidth

// readIssueTicks is the number of burst ticks that present a read.
const readIssueTicks = len(bus.CounterBases) * bus.CounterWidth

// Counters are the three PPS counts assembled during ReadCounts.
type Counters struct {
	Count1s   uint64
	Count10s  uint64
	Count100s uint64

	// Complete is false until a burst has finished with every byte valid.
	Complete bool
}

// State is the whole mutable state of the sequencer. It is replaced as a
// unit every tick.
type State struct {
	Phase    Phase
	Counters Counters
	Tuning   clock.Tuning

	// Round counts completed FreqAdjust passes.
	Round uint64
}

// Inputs are the signals the sequencer samples at a tick.
type Inputs struct {
	Bus        bus.Response
	IrqPending bool
}

// Outputs are the signals the sequencer drives at a tick.
type Outputs struct {
	Req bus.Request

	// Retune is set when Tuning must be applied to the clock output.
	Retune bool
	Tuning clock.Tuning

	// RoundDone is set on the tick a calibration round finishes.
	RoundDone bool

	// Terminated is set on the tick Terminate is entered and on every tick
	// after.
	Terminated bool
}

// Initial returns the state the sequencer starts from and returns to on
// reset.
func Initial(cfg Config) State {
	return State{
		Phase:  ResetCounters{},
		Tuning: clock.NewTuning(cfg.StartFreq),
	}
}

// Elapsed returns the per-phase tick counter, or zero for phases that do not
// count.
func (s State) Elapsed() int {
	switch p := s.Phase.(type) {
	case StartCounters:
		return p.Elapsed
	case WaitForIrq:
		return p.Elapsed
	case Holdoff:
		return p.Elapsed
	case ReadCounts:
		return p.Index
	default:
		return 0
	}
}
