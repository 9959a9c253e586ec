// Package simulation wires a sequencer, its clock output and a reference PPS
// peripheral onto one engine, and adds recording and monitoring around them.
package simulation

import (
	"fmt"
	"sync"

	"github.com/sarchlab/ppscal/clock"
	"github.com/sarchlab/ppscal/datarecording"
	"github.com/sarchlab/ppscal/monitoring"
	"github.com/sarchlab/ppscal/pps"
	"github.com/sarchlab/ppscal/sequencer"
	"github.com/sarchlab/ppscal/sim"
	"github.com/sarchlab/ppscal/tracing"
)

// Result summarizes a run.
type Result struct {
	Terminated bool
	Reason     sequencer.Reason
	Rounds     []tracing.RoundEntry
	Tuning     clock.Tuning
	Time       sim.VTimeInSec
	Ticks      uint64
	WaitTicks  uint64
	BusTxns    uint64
}

// A Simulation owns the engine and every component of one calibration run.
type Simulation struct {
	id     string
	engine *sim.SerialEngine

	sequencer *sequencer.Comp
	clock     *clock.Generator
	counter   *pps.Counter

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
	progress     *monitoring.ProgressBar
	roundTracer  *tracing.RoundTracer
	busTracer    *tracing.BusTracer
	phaseTimes   *tracing.PhaseTimeTracer

	components    []sim.Component
	compNameIndex map[string]int

	mu            sync.Mutex
	started       bool
	terminated    bool
	terminatedAt  sim.VTimeInSec
	reason        sequencer.Reason
	terminateOnce sync.Once
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetSequencer returns the sequencer.
func (s *Simulation) GetSequencer() *sequencer.Comp {
	return s.sequencer
}

// GetClock returns the tunable clock output.
func (s *Simulation) GetClock() *clock.Generator {
	return s.clock
}

// GetCounter returns the reference PPS peripheral.
func (s *Simulation) GetCounter() *pps.Counter {
	return s.counter
}

// GetDataRecorder returns the data recorder, or nil when recording is off.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor, or nil when monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// GetPhaseTimes returns the tracer that accumulates time per phase.
func (s *Simulation) GetPhaseTimes() *tracing.PhaseTimeTracer {
	return s.phaseTimes
}

// RegisterComponent registers a component with the simulation.
func (s *Simulation) RegisterComponent(c sim.Component) {
	compName := c.Name()
	if _, found := s.compNameIndex[compName]; found {
		panic("component " + compName + " already registered")
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1
}

// GetComponentByName returns the component with the given name.
func (s *Simulation) GetComponentByName(name string) sim.Component {
	idx, found := s.compNameIndex[name]
	if !found {
		return nil
	}

	return s.components[idx]
}

// Components returns all the registered components.
func (s *Simulation) Components() []sim.Component {
	comps := make([]sim.Component, len(s.components))
	copy(comps, s.components)

	return comps
}

// HandleTerminate records why and when the sequencer stopped.
func (s *Simulation) HandleTerminate(now sim.VTimeInSec, reason sequencer.Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.terminated = true
	s.terminatedAt = now
	s.reason = reason
}

// AssertReset drives the sequencer reset input. The sequencer returns to its
// initial state at once and stays there until ReleaseReset. A terminated run
// becomes runnable again.
func (s *Simulation) AssertReset() {
	s.mu.Lock()
	s.terminated = false
	s.reason = sequencer.ReasonNone
	s.mu.Unlock()

	s.sequencer.AssertReset()
}

// ReleaseReset releases the sequencer reset input.
func (s *Simulation) ReleaseReset() {
	s.sequencer.ReleaseReset()
}

// Run runs the simulation until the sequencer terminates or the simulated
// time passes limit. A non-positive limit runs until termination. Calling Run
// again continues from where the previous call stopped.
func (s *Simulation) Run(limit sim.VTimeInSec) (Result, error) {
	s.mu.Lock()
	if !s.started {
		s.started = true
		s.mu.Unlock()
		s.sequencer.Start()
	} else {
		s.mu.Unlock()
	}

	var err error
	if limit > 0 {
		err = s.engine.RunUntil(limit)
	} else {
		err = s.engine.Run()
	}

	if err != nil {
		return Result{}, fmt.Errorf("simulation %s: %w", s.id, err)
	}

	return s.result(), nil
}

func (s *Simulation) result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Result{
		Terminated: s.terminated,
		Reason:     s.reason,
		Rounds:     s.roundTracer.Rounds(),
		Tuning:     s.sequencer.State().Tuning,
		Time:       s.engine.CurrentTime(),
		Ticks:      s.sequencer.Ticks(),
		WaitTicks:  s.sequencer.WaitTicks(),
	}

	if s.terminated {
		r.Time = s.terminatedAt
	}

	if s.busTracer != nil {
		r.BusTxns = s.busTracer.Count()
	}

	return r
}

// Terminate flushes and closes the recorder and retires the progress bar.
// It is safe to call more than once.
func (s *Simulation) Terminate() {
	s.terminateOnce.Do(func() {
		if s.monitor != nil && s.progress != nil {
			s.monitor.CompleteProgressBar(s.progress)
		}

		s.engine.Finished()

		if s.dataRecorder != nil {
			err := s.dataRecorder.Close()
			if err != nil {
				panic(err)
			}
		}
	})
}

type roundProgress struct {
	bar *monitoring.ProgressBar
}

func (p roundProgress) Func(ctx sim.HookCtx) {
	if ctx.Pos != sequencer.HookPosRoundDone {
		return
	}

	p.bar.IncrementFinished(1)
}
