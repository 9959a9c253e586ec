package sequencer

import (
	"fmt"

	"github.com/sarchlab/ppscal/bus"
)

// PhaseKind names a phase of the calibration loop.
type PhaseKind int

// The phases of the calibration loop.
const (
	KindResetCounters PhaseKind = iota
	KindStartCounters
	KindEnableIrqs
	KindWaitForIrq
	KindReadCounts
	KindFreqAdjust
	KindHoldoff
	KindTerminate
)

var phaseKindNames = [...]string{
	KindResetCounters: "ResetCounters",
	KindStartCounters: "StartCounters",
	KindEnableIrqs:    "EnableIrqs",
	KindWaitForIrq:    "WaitForIrq",
	KindReadCounts:    "ReadCounts",
	KindFreqAdjust:    "FreqAdjust",
	KindHoldoff:       "Holdoff",
	KindTerminate:     "Terminate",
}

func (k PhaseKind) String() string {
	if k < 0 || int(k) >= len(phaseKindNames) {
		return fmt.Sprintf("PhaseKind(%d)", int(k))
	}

	return phaseKindNames[k]
}

// A Phase is one state of the sequencer. Each concrete phase carries only the
// data that phase needs.
type Phase interface {
	Kind() PhaseKind
}

// ResetCounters writes the hold-reset pattern to the control register.
type ResetCounters struct{}

// Kind returns KindResetCounters.
func (ResetCounters) Kind() PhaseKind { return KindResetCounters }

// StartCounters keeps the counters in reset for a fixed number of ticks.
type StartCounters struct {
	Elapsed int
}

// Kind returns KindStartCounters.
func (StartCounters) Kind() PhaseKind { return KindStartCounters }

// EnableIrqs arms the peripheral interrupt.
type EnableIrqs struct{}

// Kind returns KindEnableIrqs.
func (EnableIrqs) Kind() PhaseKind { return KindEnableIrqs }

// WaitForIrq counts ticks until the interrupt line rises or the wait times
// out.
type WaitForIrq struct {
	Elapsed int
}

// Kind returns KindWaitForIrq.
func (WaitForIrq) Kind() PhaseKind { return KindWaitForIrq }

// ReadCounts reads the three counters one byte per tick.
type ReadCounts struct {
	// Index is the tick within the burst, 0 to ReadCountsTicks-1.
	Index int

	// Pending is the read presented on the previous tick.
	Pending bus.PendingRead

	// Partial holds the counters being shifted in.
	Partial [3]uint64

	// Missed counts reads whose data never became valid.
	Missed int
}

// Kind returns KindReadCounts.
func (ReadCounts) Kind() PhaseKind { return KindReadCounts }

// FreqAdjust steps the modeled oscillator.
type FreqAdjust struct{}

// Kind returns KindFreqAdjust.
func (FreqAdjust) Kind() PhaseKind { return KindFreqAdjust }

// Holdoff idles to let the peripheral settle.
type Holdoff struct {
	Elapsed int
}

// Kind returns KindHoldoff.
func (Holdoff) Kind() PhaseKind { return KindHoldoff }

// Terminate is terminal. It issues no bus requests.
type Terminate struct {
	Reason Reason
}

// Kind returns KindTerminate.
func (Terminate) Kind() PhaseKind { return KindTerminate }

// Reason tells why the sequencer terminated.
type Reason int

// Termination reasons.
const (
	ReasonNone Reason = iota
	ReasonIrqTimeout
	ReasonTargetReached
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonIrqTimeout:
		return "irq timeout"
	case ReasonTargetReached:
		return "target reached"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}
