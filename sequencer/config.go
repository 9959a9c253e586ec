package sequencer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/ppscal/sim"
)

// ErrInvalidConfig is wrapped by every configuration validation error.
var ErrInvalidConfig = errors.New("sequencer: invalid config")

// TargetPolicy decides what happens when the stepped frequency reaches the
// target frequency.
type TargetPolicy int

// Target policies.
const (
	// TargetIgnore never compares against the target; the frequency keeps
	// growing every round.
	TargetIgnore TargetPolicy = iota

	// TargetHold clamps the frequency at the target and keeps looping.
	TargetHold

	// TargetStop clamps the frequency at the target and terminates.
	TargetStop
)

func (p TargetPolicy) String() string {
	switch p {
	case TargetIgnore:
		return "ignore"
	case TargetHold:
		return "hold"
	case TargetStop:
		return "stop"
	default:
		return fmt.Sprintf("TargetPolicy(%d)", int(p))
	}
}

// ParseTargetPolicy converts ignore, hold or stop into a TargetPolicy.
func ParseTargetPolicy(s string) (TargetPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return TargetIgnore, nil
	case "hold":
		return TargetHold, nil
	case "stop":
		return TargetStop, nil
	default:
		return TargetIgnore, fmt.Errorf(
			"%w: unknown target policy %q", ErrInvalidConfig, s)
	}
}

// Config holds the timing constants of the calibration loop.
type Config struct {
	// ResetTime is the last StartCounters tick index before the reset is
	// released.
	ResetTime int

	// IrqTimeout is the last WaitForIrq tick index before giving up.
	IrqTimeout int

	// DeadTime is the last Holdoff tick index before interrupts are armed.
	DeadTime int

	StartFreq    sim.Freq
	FreqStep     sim.Freq
	TargetFreq   sim.Freq
	TargetPolicy TargetPolicy
}

// DefaultConfig returns the constants the peripheral was designed around.
func DefaultConfig() Config {
	return Config{
		ResetTime:    50,
		IrqTimeout:   20000,
		DeadTime:     1000,
		StartFreq:    10 * sim.MHz,
		FreqStep:     1 * sim.MHz,
		TargetFreq:   20 * sim.MHz,
		TargetPolicy: TargetIgnore,
	}
}

// Validate reports the first problem found in the config.
func (c Config) Validate() error {
	if c.ResetTime < 0 || c.IrqTimeout < 0 || c.DeadTime < 0 {
		return fmt.Errorf("%w: tick counts must not be negative", ErrInvalidConfig)
	}

	if err := c.StartFreq.Validate(); err != nil {
		return fmt.Errorf("%w: start frequency: %w", ErrInvalidConfig, err)
	}

	if err := c.FreqStep.Validate(); err != nil {
		return fmt.Errorf("%w: frequency step: %w", ErrInvalidConfig, err)
	}

	if c.TargetPolicy == TargetIgnore {
		return nil
	}

	if c.TargetFreq < c.StartFreq {
		return fmt.Errorf(
			"%w: target frequency %.0f Hz is below start frequency %.0f Hz",
			ErrInvalidConfig, float64(c.TargetFreq), float64(c.StartFreq))
	}

	return nil
}
