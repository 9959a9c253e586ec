// Package bus models the non-pipelined request/acknowledge bus between the
// calibration sequencer and the PPS counter peripheral.
//
// The bus carries an 8-bit address and 8-bit data. A master drives a Request
// for exactly one tick per access; the slave answers with a Response that the
// master observes on the following tick.
package bus

import (
	"errors"
	"fmt"
)

// ErrConflictingStrobes is returned when a request asserts both the read and
// the write strobe.
var ErrConflictingStrobes = errors.New("bus: read and write strobes both asserted")

// Kind classifies what a request does.
type Kind int

// Request kinds.
const (
	KindIdle Kind = iota
	KindRead
	KindWrite
)

func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Request holds the signals a master drives during one tick.
type Request struct {
	Read  bool
	Write bool
	Addr  Addr
	Data  Data
}

// Idle returns a request with both strobes deasserted.
func Idle() Request {
	return Request{}
}

// ReadReq returns a read request of addr.
func ReadReq(addr Addr) Request {
	return Request{Read: true, Addr: addr}
}

// WriteReq returns a write of data to addr.
func WriteReq(addr Addr, data Data) Request {
	return Request{Write: true, Addr: addr, Data: data}
}

// Kind tells whether the request reads, writes or does nothing.
func (r Request) Kind() Kind {
	switch {
	case r.Read:
		return KindRead
	case r.Write:
		return KindWrite
	default:
		return KindIdle
	}
}

// Validate checks that the read and write strobes are mutually exclusive.
func (r Request) Validate() error {
	if r.Read && r.Write {
		return fmt.Errorf("%w at %s", ErrConflictingStrobes, RegisterName(r.Addr))
	}

	return nil
}

func (r Request) String() string {
	switch r.Kind() {
	case KindRead:
		return fmt.Sprintf("read %s", RegisterName(r.Addr))
	case KindWrite:
		return fmt.Sprintf("write %s <- 0x%02x", RegisterName(r.Addr), uint8(r.Data))
	default:
		return "idle"
	}
}

// Response holds the signals a slave drives back to the master.
type Response struct {
	ReadData      Data
	ReadDataValid bool
	Wait          bool
}

// Sample returns the read data only when the data-valid strobe is set.
func (r Response) Sample() (Data, bool) {
	if !r.ReadDataValid {
		return 0, false
	}

	return r.ReadData, true
}

// A Device is the slave end of the bus.
type Device interface {
	// Tick clocks the device once with the request driven during this tick.
	// The returned response is what the master observes on the next tick.
	Tick(req Request) Response

	// IrqPending reports the level of the interrupt line.
	IrqPending() bool
}
