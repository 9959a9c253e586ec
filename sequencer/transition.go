package sequencer

import (
	"log"
	"reflect"

	"github.com/sarchlab/ppscal/bus"
)

// Step computes one tick. The reset transform is checked first and wins over
// any pending tick-driven transition.
func Step(cfg Config, s State, reset bool, in Inputs) (State, Outputs) {
	if reset {
		return Reset(cfg)
	}

	return Next(cfg, s, in)
}

// Reset returns the initial state. The outputs drive an idle bus and put the
// clock back to the start frequency.
func Reset(cfg Config) (State, Outputs) {
	s := Initial(cfg)

	return s, Outputs{
		Req:    bus.Idle(),
		Retune: true,
		Tuning: s.Tuning,
	}
}

// Next computes the state and outputs of the tick-driven transition.
func Next(cfg Config, s State, in Inputs) (State, Outputs) {
	next := s
	out := Outputs{Req: bus.Idle()}

	switch p := s.Phase.(type) {
	case ResetCounters:
		out.Req = bus.WriteReq(bus.AddrControl, bus.CtrlHoldReset)
		next.Phase = StartCounters{}
	case StartCounters:
		if p.Elapsed >= cfg.ResetTime {
			out.Req = bus.WriteReq(bus.AddrControl, bus.CtrlRelease)
			next.Phase = Holdoff{}
		} else {
			next.Phase = StartCounters{Elapsed: p.Elapsed + 1}
		}
	case EnableIrqs:
		out.Req = bus.WriteReq(bus.AddrInterrupt, bus.IrqEnable)
		next.Phase = WaitForIrq{}
	case WaitForIrq:
		switch {
		case in.IrqPending:
			out.Req = bus.WriteReq(bus.AddrInterrupt, bus.IrqClearDisable)
			next.Phase = ReadCounts{}
		case p.Elapsed >= cfg.IrqTimeout:
			next.Phase = Terminate{Reason: ReasonIrqTimeout}
		default:
			next.Phase = WaitForIrq{Elapsed: p.Elapsed + 1}
		}
	case ReadCounts:
		next, out.Req = readCounts(next, p, in)
	case FreqAdjust:
		next, out = adjustFreq(cfg, next)
	case Holdoff:
		if p.Elapsed >= cfg.DeadTime {
			next.Phase = EnableIrqs{}
		} else {
			next.Phase = Holdoff{Elapsed: p.Elapsed + 1}
		}
	case Terminate:
	default:
		log.Panicf("unknown phase %s", reflect.TypeOf(s.Phase))
	}

	out.Terminated = next.Phase.Kind() == KindTerminate

	return next, out
}

// readCounts runs one tick of the counter burst. The byte read on the
// previous tick is captured before the next read is presented.
func readCounts(s State, p ReadCounts, in Inputs) (State, bus.Request) {
	req := bus.Idle()

	if p.Pending.Valid {
		window := int(p.Pending.Addr) / bus.CounterWidth

		var data bus.Data
		var ok bool

		data, ok, p.Pending = p.Pending.Capture(in.Bus)
		if !ok {
			p.Missed++
		}

		p.Partial[window] = p.Partial[window]<<8 | uint64(data)
	}

	if p.Index < readIssueTicks {
		window := p.Index / bus.CounterWidth
		offset := p.Index % bus.CounterWidth
		addr := bus.CounterBases[window] + bus.Addr(offset)

		req = bus.ReadReq(addr)
		p.Pending = p.Pending.Issue(addr)
	}

	if p.Index+1 >= ReadCountsTicks {
		s.Counters = Counters{
			Count1s:   p.Partial[0],
			Count10s:  p.Partial[1],
			Count100s: p.Partial[2],
			Complete:  p.Missed == 0,
		}
		s.Phase = FreqAdjust{}

		return s, req
	}

	p.Index++
	s.Phase = p

	return s, req
}

func adjustFreq(cfg Config, s State) (State, Outputs) {
	tuning := s.Tuning.Step(cfg.FreqStep)
	s.Phase = Holdoff{}

	switch cfg.TargetPolicy {
	case TargetHold:
		tuning = tuning.Clamp(cfg.TargetFreq)
	case TargetStop:
		tuning = tuning.Clamp(cfg.TargetFreq)
		if tuning.Freq >= cfg.TargetFreq {
			s.Phase = Terminate{Reason: ReasonTargetReached}
		}
	}

	s.Tuning = tuning
	s.Round++

	return s, Outputs{
		Req:       bus.Idle(),
		Retune:    true,
		Tuning:    tuning,
		RoundDone: true,
	}
}
