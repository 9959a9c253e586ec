// Package pps provides a reference model of the PPS counter peripheral. It
// implements the register map the sequencer drives and is used to run the
// calibration loop end to end in simulation.
package pps

import (
	"encoding/binary"
	"math"

	"github.com/sarchlab/ppscal/bus"
	"github.com/sarchlab/ppscal/sim"
)

// A FreqSource reports the frequency the counters count.
type FreqSource interface {
	Freq() sim.Freq
}

// registerFileBytes is the size of the peripheral register file.
const registerFileBytes = 48

// Windows are the gate times of the three counters, in seconds.
var Windows = [3]float64{1, 10, 100}

// Counter is a register file with three 64-bit counters, a control register
// and an interrupt register. Counters are stored most significant byte first.
type Counter struct {
	regs [registerFileBytes]byte

	source      FreqSource
	ppsInterval uint64
	ppsEnabled  bool
	waitEvery   uint64

	ticks      uint64
	inReset    bool
	armed      bool
	irqPending bool
	armedAt    uint64
	latches    uint64
}

// Tick applies the request driven this tick and returns what the master
// observes on the next one.
func (c *Counter) Tick(req bus.Request) bus.Response {
	c.ticks++
	c.firePPS()

	resp := bus.Response{}
	if c.waitEvery > 0 && c.ticks%c.waitEvery == 0 {
		resp.Wait = true
	}

	switch req.Kind() {
	case bus.KindRead:
		resp.ReadData = c.read(req.Addr)
		resp.ReadDataValid = true
	case bus.KindWrite:
		c.write(req.Addr, req.Data)
	}

	return resp
}

// IrqPending reports the level of the interrupt line.
func (c *Counter) IrqPending() bool {
	return c.irqPending
}

// Latches returns how many PPS edges latched the counters.
func (c *Counter) Latches() uint64 {
	return c.latches
}

// Counts decodes the three counters from the register file.
func (c *Counter) Counts() [3]uint64 {
	var counts [3]uint64
	for i, base := range bus.CounterBases {
		counts[i] = binary.BigEndian.Uint64(c.regs[base:])
	}

	return counts
}

func (c *Counter) read(addr bus.Addr) bus.Data {
	if int(addr) >= len(c.regs) {
		return 0
	}

	return bus.Data(c.regs[addr])
}

func (c *Counter) write(addr bus.Addr, data bus.Data) {
	switch addr {
	case bus.AddrControl:
		c.regs[addr] = byte(data)
		c.inReset = data&bus.CtrlHoldReset == bus.CtrlHoldReset
		if c.inReset {
			c.clearCounters()
		}
	case bus.AddrInterrupt:
		c.regs[addr] = byte(data)
		c.writeInterrupt(data)
	}
}

func (c *Counter) writeInterrupt(data bus.Data) {
	switch data {
	case bus.IrqEnable:
		c.armed = true
		c.armedAt = c.ticks
	case bus.IrqClearDisable:
		c.armed = false
		c.irqPending = false
	}
}

func (c *Counter) clearCounters() {
	for _, base := range bus.CounterBases {
		binary.BigEndian.PutUint64(c.regs[base:], 0)
	}
}

func (c *Counter) firePPS() {
	if !c.ppsEnabled || !c.armed || c.inReset || c.irqPending {
		return
	}

	if c.ticks-c.armedAt < c.ppsInterval {
		return
	}

	c.latch()
	c.irqPending = true
}

func (c *Counter) latch() {
	var freq float64
	if c.source != nil {
		freq = float64(c.source.Freq())
	}

	for i, base := range bus.CounterBases {
		count := uint64(math.Round(freq * Windows[i]))
		binary.BigEndian.PutUint64(c.regs[base:], count)
	}

	c.latches++
}
