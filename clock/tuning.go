// Package clock models the tunable oscillator whose output is stepped during
// calibration.
package clock

import (
	"github.com/sarchlab/ppscal/sim"
)

// Tuning is the frequency of the modeled oscillator together with the
// half-period derived from it.
type Tuning struct {
	Freq       sim.Freq
	HalfPeriod sim.VTimeInSec
}

// NewTuning derives the half-period of freq as 0.5 s / freq.
func NewTuning(freq sim.Freq) Tuning {
	return Tuning{
		Freq:       freq,
		HalfPeriod: freq.HalfPeriod(),
	}
}

// Step returns the tuning after raising the frequency by step.
func (t Tuning) Step(step sim.Freq) Tuning {
	return NewTuning(t.Freq + step)
}

// Clamp returns a tuning whose frequency does not exceed max.
func (t Tuning) Clamp(max sim.Freq) Tuning {
	if t.Freq <= max {
		return t
	}

	return NewTuning(max)
}
