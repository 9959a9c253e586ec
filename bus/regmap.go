package bus

import "fmt"

// Addr is a byte offset into the flat register space of the peripheral.
type Addr uint8

// Data is one byte travelling on the bus.
type Data uint8

// Register offsets of the PPS counter peripheral.
const (
	AddrCount1s   Addr = 0
	AddrCount10s  Addr = 8
	AddrCount100s Addr = 16
	AddrControl   Addr = 32
	AddrInterrupt Addr = 40
)

// CounterWidth is the number of byte registers that make up one counter.
const CounterWidth = 8

// RegisterFileSize covers every mapped register.
const RegisterFileSize = int(AddrInterrupt) + 1

// Values written to the control register.
const (
	CtrlHoldReset Data = 0x07
	CtrlRelease   Data = 0x00
)

// Values written to the interrupt register.
const (
	IrqEnable       Data = 0x01
	IrqClearDisable Data = 0x11
)

// CounterBases lists the counter base addresses in the order they are read.
var CounterBases = [3]Addr{AddrCount1s, AddrCount10s, AddrCount100s}

// RegisterName returns a human readable name of the register that holds addr.
func RegisterName(addr Addr) string {
	switch {
	case addr < AddrCount10s:
		return fmt.Sprintf("count1s[%d]", addr-AddrCount1s)
	case addr < AddrCount100s:
		return fmt.Sprintf("count10s[%d]", addr-AddrCount10s)
	case addr < AddrCount100s+CounterWidth:
		return fmt.Sprintf("count100s[%d]", addr-AddrCount100s)
	case addr == AddrControl:
		return "control"
	case addr == AddrInterrupt:
		return "interrupt"
	default:
		return fmt.Sprintf("unmapped(0x%02x)", uint8(addr))
	}
}
