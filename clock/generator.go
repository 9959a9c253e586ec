package clock

import (
	"log"
	"reflect"
	"sync"

	"github.com/sarchlab/ppscal/sim"
)

// HookPosToggle fires after the generator output changes level. The Item is
// the new level.
var HookPosToggle = &sim.HookPos{Name: "ClockToggle"}

type toggleEvent struct {
	*sim.EventBase

	// halfPeriod is fixed when the toggle is scheduled and used to schedule
	// the one after it.
	halfPeriod sim.VTimeInSec
}

func newToggleEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	halfPeriod sim.VTimeInSec,
) *toggleEvent {
	return &toggleEvent{
		EventBase:  sim.NewEventBase(time, handler),
		halfPeriod: halfPeriod,
	}
}

// A Generator is a free running clock output. It toggles every half-period
// independent of any bus clock. Retuning changes the half-period used by the
// next toggle that gets scheduled; a toggle already in flight keeps its time.
type Generator struct {
	*sim.ComponentBase

	engine sim.Engine

	mu      sync.RWMutex
	tuning  Tuning
	level   bool
	toggles uint64
	running bool
	stopped bool
}

// Handle defines how the generator handles events.
func (g *Generator) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *toggleEvent:
		g.toggle(e)
	default:
		log.Panicf("cannot handle event of type %s", reflect.TypeOf(e))
	}

	return nil
}

func (g *Generator) toggle(e *toggleEvent) {
	g.mu.Lock()
	g.level = !g.level
	g.toggles++
	level := g.level
	stopped := g.stopped
	next := g.tuning.HalfPeriod

	if stopped {
		g.running = false
	}
	g.mu.Unlock()

	g.InvokeHook(sim.HookCtx{
		Domain: g,
		Pos:    HookPosToggle,
		Item:   level,
		Detail: e.halfPeriod,
	})

	if stopped {
		return
	}

	now := e.Time()
	g.engine.Schedule(newToggleEvent(now+next, g, next))
}

// Start schedules the first toggle one half-period from now. Starting a
// running generator does nothing.
func (g *Generator) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopped = false
	if g.running {
		return
	}

	g.running = true
	hp := g.tuning.HalfPeriod
	now := g.engine.CurrentTime()
	g.engine.Schedule(newToggleEvent(now+hp, g, hp))
}

// Stop keeps the in-flight toggle but schedules no further ones.
func (g *Generator) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopped = true
}

// Retune sets the half-period used when the next toggle is scheduled.
func (g *Generator) Retune(t Tuning) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tuning = t
}

// Tuning returns the latest committed tuning.
func (g *Generator) Tuning() Tuning {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.tuning
}

// Freq returns the current output frequency.
func (g *Generator) Freq() sim.Freq {
	return g.Tuning().Freq
}

// Level returns the instantaneous output value.
func (g *Generator) Level() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.level
}

// Toggles returns how many times the output has changed level.
func (g *Generator) Toggles() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.toggles
}
