package tracing

import (
	"sync"

	"github.com/sarchlab/ppscal/bus"
	"github.com/sarchlab/ppscal/datarecording"
	"github.com/sarchlab/ppscal/sequencer"
	"github.com/sarchlab/ppscal/sim"
)

// BusEntry is one row of the bus transaction table.
type BusEntry struct {
	ID       string
	Time     float64
	Kind     string
	Addr     uint8
	Register string
	Data     uint8
}

// BusTracer records every read and write the sequencer drives.
type BusTracer struct {
	mu         sync.Mutex
	timeTeller sim.TimeTeller
	backend    datarecording.DataRecorder
	count      uint64
}

// NewBusTracer creates a BusTracer and its table.
func NewBusTracer(
	timeTeller sim.TimeTeller,
	backend datarecording.DataRecorder,
) *BusTracer {
	backend.CreateTable(BusTableName, BusEntry{})

	return &BusTracer{
		timeTeller: timeTeller,
		backend:    backend,
	}
}

// Func records the request carried by the hook.
func (t *BusTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != sequencer.HookPosBusRequest {
		return
	}

	req, ok := ctx.Item.(bus.Request)
	if !ok {
		return
	}

	entry := BusEntry{
		ID:       sim.GetIDGenerator().Generate(),
		Time:     float64(t.timeTeller.CurrentTime()),
		Kind:     req.Kind().String(),
		Addr:     uint8(req.Addr),
		Register: bus.RegisterName(req.Addr),
	}

	if req.Kind() == bus.KindWrite {
		entry.Data = uint8(req.Data)
	}

	t.mu.Lock()
	t.count++
	t.mu.Unlock()

	t.backend.InsertData(BusTableName, entry)
}

// Count returns how many transactions have been recorded.
func (t *BusTracer) Count() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.count
}
