package bus

// PendingRead is a one-slot register that remembers the address of the read
// issued on the previous tick, so that its data can be matched when it
// arrives one tick later.
type PendingRead struct {
	Valid bool
	Addr  Addr
}

// Issue records a read presented on the bus this tick.
func (p PendingRead) Issue(addr Addr) PendingRead {
	return PendingRead{Valid: true, Addr: addr}
}

// Capture consumes the slot. It returns the byte and true if a read was
// pending and the response carries valid data. The returned slot is empty.
func (p PendingRead) Capture(resp Response) (Data, bool, PendingRead) {
	if !p.Valid {
		return 0, false, PendingRead{}
	}

	data, ok := resp.Sample()

	return data, ok, PendingRead{}
}
