package tracing

import (
	"log"

	"github.com/sarchlab/ppscal/sequencer"
	"github.com/sarchlab/ppscal/sim"
)

// PhaseLogger writes one line per phase change.
type PhaseLogger struct {
	*log.Logger
	timeTeller sim.TimeTeller
}

// NewPhaseLogger creates a PhaseLogger that writes into logger.
func NewPhaseLogger(logger *log.Logger, timeTeller sim.TimeTeller) *PhaseLogger {
	return &PhaseLogger{
		Logger:     logger,
		timeTeller: timeTeller,
	}
}

// Func logs the phase change carried by the hook.
func (h *PhaseLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != sequencer.HookPosPhaseChange {
		return
	}

	change, ok := ctx.Item.(sequencer.PhaseChange)
	if !ok {
		return
	}

	if change.Reason != sequencer.ReasonNone {
		h.Printf("%.12f, %s -> %s (%s)",
			h.timeTeller.CurrentTime(), change.From, change.To, change.Reason)
		return
	}

	h.Printf("%.12f, %s -> %s",
		h.timeTeller.CurrentTime(), change.From, change.To)
}
