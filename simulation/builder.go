package simulation

import (
	"fmt"
	"log"
	"math"

	"github.com/rs/xid"
	"github.com/sarchlab/ppscal/clock"
	"github.com/sarchlab/ppscal/datarecording"
	"github.com/sarchlab/ppscal/monitoring"
	"github.com/sarchlab/ppscal/pps"
	"github.com/sarchlab/ppscal/sequencer"
	"github.com/sarchlab/ppscal/sim"
	"github.com/sarchlab/ppscal/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	cfg         sequencer.Config
	busFreq     sim.Freq
	ppsInterval uint64
	ppsEnabled  bool
	waitEvery   uint64
	parallelIDs bool

	monitorOn      bool
	monitorPort    int
	openBrowser    bool
	recordingOn    bool
	outputFileName string
	logger         *log.Logger
	eventLogger    *log.Logger
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		cfg:         sequencer.DefaultConfig(),
		busFreq:     50 * sim.MHz,
		ppsInterval: 100,
		ppsEnabled:  true,
		monitorOn:   true,
		recordingOn: true,
	}
}

// WithConfig sets the sequencer timing and tuning constants.
func (b Builder) WithConfig(cfg sequencer.Config) Builder {
	b.cfg = cfg
	return b
}

// WithBusFreq sets the frequency of the bus clock that drives the sequencer.
func (b Builder) WithBusFreq(freq sim.Freq) Builder {
	b.busFreq = freq
	return b
}

// WithPPSInterval sets how many bus ticks after arming the reference
// peripheral raises its interrupt.
func (b Builder) WithPPSInterval(ticks uint64) Builder {
	b.ppsInterval = ticks
	return b
}

// WithoutPPS uses a peripheral whose interrupt never fires.
func (b Builder) WithoutPPS() Builder {
	b.ppsEnabled = false
	return b
}

// WithWaitEvery makes the peripheral assert wait on every n-th tick.
func (b Builder) WithWaitEvery(n uint64) Builder {
	b.waitEvery = n
	return b
}

// WithParallelIDs switches the process to globally unique, non-sequential
// IDs. It must be chosen before any ID is generated.
func (b Builder) WithParallelIDs() Builder {
	b.parallelIDs = true
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitoring page once the server is up.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// WithoutRecording disables the SQLite recording of bus transactions and
// rounds.
func (b Builder) WithoutRecording() Builder {
	b.recordingOn = false
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithLogger logs every phase change into logger.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// WithEventLogger logs every event the engine handles into logger.
func (b Builder) WithEventLogger(logger *log.Logger) Builder {
	b.eventLogger = logger
	return b
}

func (b Builder) parametersMustBeValid() error {
	if err := b.cfg.Validate(); err != nil {
		return err
	}

	if err := b.busFreq.Validate(); err != nil {
		return fmt.Errorf("bus frequency: %w", err)
	}

	if !b.monitorOn && b.monitorPort != 0 {
		return fmt.Errorf(
			"monitor port cannot be set when monitoring is disabled")
	}

	if !b.recordingOn && b.outputFileName != "" {
		return fmt.Errorf(
			"output file cannot be set when recording is disabled")
	}

	return nil
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	if b.parallelIDs {
		if err := sim.UseParallelIDGenerator(); err != nil {
			return nil, err
		}
	}

	s := &Simulation{
		id:            xid.New().String(),
		engine:        sim.NewSerialEngine(),
		compNameIndex: make(map[string]int),
	}

	if b.recordingOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "ppscal_sim_" + s.id
		}

		recorder, err := datarecording.New(outputPath)
		if err != nil {
			return nil, err
		}

		s.dataRecorder = recorder
	}

	b.buildComponents(s)
	b.attachTracers(s)

	if b.monitorOn {
		if err := b.startMonitor(s); err != nil {
			s.Terminate()
			return nil, err
		}
	}

	return s, nil
}

func (b Builder) buildComponents(s *Simulation) {
	s.clock = clock.MakeBuilder().
		WithEngine(s.engine).
		WithFreq(b.cfg.StartFreq).
		Build("Clock")

	counterBuilder := pps.MakeBuilder().
		WithFreqSource(s.clock).
		WithPPSInterval(b.ppsInterval).
		WithWaitEvery(b.waitEvery)
	if !b.ppsEnabled {
		counterBuilder = counterBuilder.WithoutPPS()
	}

	s.counter = counterBuilder.Build()

	s.sequencer = sequencer.MakeBuilder().
		WithEngine(s.engine).
		WithFreq(b.busFreq).
		WithConfig(b.cfg).
		WithDevice(s.counter).
		WithClock(s.clock).
		Build("Sequencer")
	s.sequencer.RegisterTerminateHandler(s)

	s.RegisterComponent(s.sequencer)
	s.RegisterComponent(s.clock)
}

func (b Builder) attachTracers(s *Simulation) {
	s.roundTracer = tracing.NewRoundTracer(s.engine, s.dataRecorder)
	s.phaseTimes = tracing.NewPhaseTimeTracer(s.engine)
	tracing.CollectTrace(s.sequencer, s.roundTracer, s.phaseTimes)

	if s.dataRecorder != nil {
		s.busTracer = tracing.NewBusTracer(s.engine, s.dataRecorder)
		tracing.CollectTrace(s.sequencer, s.busTracer)
	}

	if b.logger != nil {
		tracing.CollectTrace(s.sequencer,
			tracing.NewPhaseLogger(b.logger, s.engine))
	}

	if b.eventLogger != nil {
		s.engine.AcceptHook(sim.NewEventLogger(b.eventLogger))
	}
}

func (b Builder) startMonitor(s *Simulation) error {
	s.monitor = monitoring.NewMonitor().WithPortNumber(b.monitorPort)
	s.monitor.RegisterEngine(s.engine)

	for _, c := range s.components {
		s.monitor.RegisterComponent(c)
	}

	s.progress = s.monitor.CreateProgressBar("Rounds", expectedRounds(b.cfg))
	tracing.CollectTrace(s.sequencer, roundProgress{bar: s.progress})

	_, err := s.monitor.StartServer()
	if err != nil {
		return err
	}

	if b.openBrowser {
		return s.monitor.OpenInBrowser()
	}

	return nil
}

// expectedRounds is the number of rounds needed to reach the target, or zero
// when the target does not bound the run.
func expectedRounds(cfg sequencer.Config) uint64 {
	if cfg.TargetPolicy == sequencer.TargetIgnore ||
		cfg.TargetFreq <= cfg.StartFreq {
		return 0
	}

	return uint64(math.Ceil(
		float64(cfg.TargetFreq-cfg.StartFreq) / float64(cfg.FreqStep)))
}
