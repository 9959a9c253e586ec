package sequencer

import (
	"log"
	"sync"

	"github.com/sarchlab/ppscal/bus"
	"github.com/sarchlab/ppscal/clock"
	"github.com/sarchlab/ppscal/sim"
)

// HookPosBusRequest fires for every tick that drives a read or a write. The
// Item is the bus.Request.
var HookPosBusRequest = &sim.HookPos{Name: "BusRequest"}

// HookPosPhaseChange fires when the committed phase kind changes. The Item is
// a PhaseChange.
var HookPosPhaseChange = &sim.HookPos{Name: "PhaseChange"}

// HookPosRoundDone fires when a calibration round completes. The Item is a
// Round.
var HookPosRoundDone = &sim.HookPos{Name: "RoundDone"}

// PhaseChange describes a committed transition between phase kinds.
type PhaseChange struct {
	From   PhaseKind
	To     PhaseKind
	Reason Reason
}

// Round is the result of one calibration pass.
type Round struct {
	Index    uint64
	Counters Counters
	Tuning   clock.Tuning
}

// Clock is the tunable clock output driven by the sequencer.
type Clock interface {
	Start()
	Stop()
	Retune(t clock.Tuning)
}

// A TerminateHandler is notified once when the sequencer reaches Terminate.
type TerminateHandler interface {
	HandleTerminate(now sim.VTimeInSec, reason Reason)
}

// Comp is the sequencer as a simulated component. It ticks once per bus
// clock cycle, samples the peripheral, computes the next state and commits it
// as a whole.
type Comp struct {
	*sim.TickingComponent

	cfg    Config
	device bus.Device
	clock  Clock

	stateLock  sync.RWMutex
	state      State
	lastResp   bus.Response
	reset      bool
	terminated bool
	waitTicks  uint64
	ticks      uint64

	terminateHandlers []TerminateHandler
}

// Tick advances the sequencer by one bus clock cycle.
func (c *Comp) Tick() bool {
	c.stateLock.Lock()

	in := Inputs{
		Bus:        c.lastResp,
		IrqPending: c.device.IrqPending(),
	}
	if in.Bus.Wait {
		c.waitTicks++
	}

	prev := c.state
	next, out := Step(c.cfg, prev, c.reset, in)

	if err := out.Req.Validate(); err != nil {
		log.Panic(err)
	}

	c.state = next
	c.ticks++
	c.lastResp = c.device.Tick(out.Req)

	firstTermination := out.Terminated && !c.terminated
	if out.Terminated {
		c.terminated = true
	}

	c.stateLock.Unlock()

	if out.Retune && c.clock != nil {
		c.clock.Retune(out.Tuning)
	}

	c.invokeHooks(prev, next, out)

	if firstTermination {
		c.handleTermination(next)
	}

	return !out.Terminated
}

func (c *Comp) invokeHooks(prev, next State, out Outputs) {
	if out.Req.Kind() != bus.KindIdle {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosBusRequest,
			Item:   out.Req,
		})
	}

	if prev.Phase.Kind() != next.Phase.Kind() {
		change := PhaseChange{From: prev.Phase.Kind(), To: next.Phase.Kind()}
		if t, ok := next.Phase.(Terminate); ok {
			change.Reason = t.Reason
		}

		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosPhaseChange,
			Item:   change,
		})
	}

	if out.RoundDone {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosRoundDone,
			Item: Round{
				Index:    next.Round,
				Counters: next.Counters,
				Tuning:   next.Tuning,
			},
		})
	}
}

func (c *Comp) handleTermination(s State) {
	if c.clock != nil {
		c.clock.Stop()
	}

	reason := ReasonNone
	if t, ok := s.Phase.(Terminate); ok {
		reason = t.Reason
	}

	now := c.CurrentTime()
	for _, h := range c.terminateHandlers {
		h.HandleTerminate(now, reason)
	}
}

// Start starts the clock output and schedules the first tick.
func (c *Comp) Start() {
	if c.clock != nil {
		c.clock.Start()
	}

	c.TickNow()
}

// AssertReset forces the initial state immediately, without waiting for a
// clock edge. The state is held there until ReleaseReset is called.
func (c *Comp) AssertReset() {
	c.stateLock.Lock()
	c.reset = true
	c.terminated = false
	c.lastResp = bus.Response{}

	prev := c.state

	var out Outputs
	c.state, out = Reset(c.cfg)
	c.stateLock.Unlock()

	if c.clock != nil {
		c.clock.Retune(out.Tuning)
		c.clock.Start()
	}

	if prev.Phase.Kind() != KindResetCounters {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosPhaseChange,
			Item: PhaseChange{
				From: prev.Phase.Kind(),
				To:   KindResetCounters,
			},
		})
	}

	c.TickLater()
}

// ReleaseReset lets the sequencer leave the initial state on the next tick.
func (c *Comp) ReleaseReset() {
	c.stateLock.Lock()
	c.reset = false
	c.stateLock.Unlock()

	c.TickLater()
}

// RegisterTerminateHandler registers a handler called when Terminate is
// reached.
func (c *Comp) RegisterTerminateHandler(h TerminateHandler) {
	c.terminateHandlers = append(c.terminateHandlers, h)
}

// State returns the last committed state.
func (c *Comp) State() State {
	c.stateLock.RLock()
	defer c.stateLock.RUnlock()

	return c.state
}

// Config returns the constants the sequencer runs with.
func (c *Comp) Config() Config {
	return c.cfg
}

// Terminated tells if the sequencer has reached Terminate.
func (c *Comp) Terminated() bool {
	c.stateLock.RLock()
	defer c.stateLock.RUnlock()

	return c.terminated
}

// Ticks returns the number of ticks the sequencer has executed.
func (c *Comp) Ticks() uint64 {
	c.stateLock.RLock()
	defer c.stateLock.RUnlock()

	return c.ticks
}

// WaitTicks returns how many ticks observed the wait signal. The sequencer
// never stalls on wait; this only makes ignored waits visible.
func (c *Comp) WaitTicks() uint64 {
	c.stateLock.RLock()
	defer c.stateLock.RUnlock()

	return c.waitTicks
}

// Rounds returns how many calibration rounds have completed.
func (c *Comp) Rounds() uint64 {
	c.stateLock.RLock()
	defer c.stateLock.RUnlock()

	return c.state.Round
}
