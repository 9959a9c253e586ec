package pps

// Builder can build PPS counters.
type Builder struct {
	source      FreqSource
	ppsInterval uint64
	ppsEnabled  bool
	waitEvery   uint64
}

// MakeBuilder returns a Builder that raises the interrupt 100 ticks after it
// is armed.
func MakeBuilder() Builder {
	return Builder{
		ppsInterval: 100,
		ppsEnabled:  true,
	}
}

// WithFreqSource sets what the counters count.
func (b Builder) WithFreqSource(source FreqSource) Builder {
	b.source = source
	return b
}

// WithPPSInterval sets how many ticks after arming the PPS edge arrives.
func (b Builder) WithPPSInterval(ticks uint64) Builder {
	b.ppsInterval = ticks
	return b
}

// WithoutPPS builds a counter whose interrupt never fires.
func (b Builder) WithoutPPS() Builder {
	b.ppsEnabled = false
	return b
}

// WithWaitEvery asserts the wait signal on every n-th tick. Zero disables it.
func (b Builder) WithWaitEvery(n uint64) Builder {
	b.waitEvery = n
	return b
}

// Build creates a counter held in reset.
func (b Builder) Build() *Counter {
	return &Counter{
		source:      b.source,
		ppsInterval: b.ppsInterval,
		ppsEnabled:  b.ppsEnabled,
		waitEvery:   b.waitEvery,
		inReset:     true,
	}
}
