package sim

import (
	"errors"
	"log"
	"math"
)

// ErrZeroFrequency is returned when a frequency that must be positive is not.
var ErrZeroFrequency = errors.New("sim: frequency must be positive")

// Freq defines the type of frequency
type Freq float64

// Defines the unit of frequency
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period returns the time between two consecutive ticks
func (f Freq) Period() VTimeInSec {
	if f <= 0 {
		log.Panic("frequency must be positive")
	}

	return VTimeInSec(1.0 / f)
}

// HalfPeriod returns the time between two consecutive edges of a square wave
// running at this frequency.
func (f Freq) HalfPeriod() VTimeInSec {
	if f <= 0 {
		log.Panic("frequency must be positive")
	}

	return VTimeInSec(0.5 / f)
}

// Validate returns ErrZeroFrequency if the frequency cannot drive a clock.
func (f Freq) Validate() error {
	if f <= 0 || math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return ErrZeroFrequency
	}

	return nil
}

// Cycle converts a time to the number of cycles passed since time 0.
func (f Freq) Cycle(time VTimeInSec) uint64 {
	return uint64(math.Round(float64(time) * float64(f)))
}

// ThisTick returns the current tick time
//
//	           Input
//	           (          ]
//	|----------|----------|----------|----->
//	                      |
//	                      Output
func (f Freq) ThisTick(now VTimeInSec) VTimeInSec {
	mustBeValidTime(now)

	count := math.Ceil(math.Round(float64(now)*10*float64(f)) / 10)

	return VTimeInSec(count / float64(f))
}

// NextTick returns the next tick time.
//
//	           Input
//	           [          )
//	|----------|----------|----------|----->
//	                      |
//	                      Output
func (f Freq) NextTick(now VTimeInSec) VTimeInSec {
	mustBeValidTime(now)

	count := math.Floor(math.Round(float64(now)*10*float64(f)) / 10)

	return VTimeInSec((count + 1) / float64(f))
}

// NCyclesLater returns the time after N cycles
//
// This function will always return a time of an integer number of cycles
func (f Freq) NCyclesLater(n int, now VTimeInSec) VTimeInSec {
	mustBeValidTime(now)

	return f.ThisTick(now + VTimeInSec(Freq(n)/f))
}

func mustBeValidTime(t VTimeInSec) {
	if math.IsNaN(float64(t)) {
		log.Panic("invalid time")
	}
}
