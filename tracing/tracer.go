// Package tracing turns sequencer hook invocations into records and log
// lines.
package tracing

import (
	"github.com/sarchlab/ppscal/sequencer"
	"github.com/sarchlab/ppscal/sim"
)

// Table names used by the tracers.
const (
	BusTableName   = "bus_transactions"
	RoundTableName = "calibration_rounds"
)

// CollectTrace attaches the tracers to a sequencer.
func CollectTrace(seq *sequencer.Comp, tracers ...sim.Hook) {
	for _, t := range tracers {
		seq.AcceptHook(t)
	}
}
