package clock

import (
	"github.com/sarchlab/ppscal/sim"
)

// Builder can build clock generators.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq
}

// MakeBuilder returns a Builder with a 10 MHz start frequency.
func MakeBuilder() Builder {
	return Builder{
		freq: 10 * sim.MHz,
	}
}

// WithEngine sets the engine that schedules the toggles.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the initial output frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// Build creates a stopped generator with a low output.
func (b Builder) Build(name string) *Generator {
	if b.engine == nil {
		panic("clock generator requires an engine")
	}

	g := &Generator{
		ComponentBase: sim.NewComponentBase(name),
		engine:        b.engine,
		tuning:        NewTuning(b.freq),
	}

	return g
}
