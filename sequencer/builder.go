package sequencer

import (
	"log"

	"github.com/sarchlab/ppscal/bus"
	"github.com/sarchlab/ppscal/sim"
)

// Builder can build sequencers.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq
	cfg    Config
	device bus.Device
	clock  Clock
}

// MakeBuilder returns a Builder with the default config and a 50 MHz bus
// clock.
func MakeBuilder() Builder {
	return Builder{
		freq: 50 * sim.MHz,
		cfg:  DefaultConfig(),
	}
}

// WithEngine sets the engine that drives the ticks.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the bus clock frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithConfig sets the timing constants.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithDevice sets the peripheral on the other side of the bus.
func (b Builder) WithDevice(device bus.Device) Builder {
	b.device = device
	return b
}

// WithClock sets the clock output that gets retuned every round.
func (b Builder) WithClock(clock Clock) Builder {
	b.clock = clock
	return b
}

// Build creates a sequencer in its initial state.
func (b Builder) Build(name string) *Comp {
	if err := b.cfg.Validate(); err != nil {
		log.Panic(err)
	}

	if b.device == nil {
		log.Panic("sequencer requires a bus device")
	}

	c := &Comp{
		cfg:    b.cfg,
		device: b.device,
		clock:  b.clock,
		state:  Initial(b.cfg),
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	return c
}
