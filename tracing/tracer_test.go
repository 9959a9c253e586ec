package tracing

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/ppscal/bus"
	"github.com/sarchlab/ppscal/clock"
	"github.com/sarchlab/ppscal/sequencer"
	"github.com/sarchlab/ppscal/sim"
)

var _ = Describe("BusTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		backend    *MockDataRecorder
		tracer     *BusTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		backend = NewMockDataRecorder(mockCtrl)

		backend.EXPECT().CreateTable(BusTableName, BusEntry{})
		tracer = NewBusTracer(timeTeller, backend)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record writes with their data", func() {
		var entry BusEntry

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(2e-8))
		backend.EXPECT().
			InsertData(BusTableName, gomock.Any()).
			Do(func(_ string, e any) { entry = e.(BusEntry) })

		tracer.Func(sim.HookCtx{
			Pos:  sequencer.HookPosBusRequest,
			Item: bus.WriteReq(bus.AddrInterrupt, bus.IrqEnable),
		})

		Expect(entry.ID).NotTo(BeEmpty())
		Expect(entry.Time).To(Equal(2e-8))
		Expect(entry.Kind).To(Equal("write"))
		Expect(entry.Addr).To(Equal(uint8(40)))
		Expect(entry.Register).To(Equal("interrupt"))
		Expect(entry.Data).To(Equal(uint8(0x01)))
		Expect(tracer.Count()).To(Equal(uint64(1)))
	})

	It("should record reads without data", func() {
		var entry BusEntry

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1e-8))
		backend.EXPECT().
			InsertData(BusTableName, gomock.Any()).
			Do(func(_ string, e any) { entry = e.(BusEntry) })

		tracer.Func(sim.HookCtx{
			Pos:  sequencer.HookPosBusRequest,
			Item: bus.ReadReq(bus.AddrCount10s + 3),
		})

		Expect(entry.Kind).To(Equal("read"))
		Expect(entry.Register).To(Equal("count10s[3]"))
		Expect(entry.Data).To(Equal(uint8(0)))
	})

	It("should ignore other hook positions", func() {
		tracer.Func(sim.HookCtx{
			Pos:  sequencer.HookPosPhaseChange,
			Item: sequencer.PhaseChange{},
		})

		Expect(tracer.Count()).To(BeZero())
	})
})

var _ = Describe("RoundTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		backend    *MockDataRecorder
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		backend = NewMockDataRecorder(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	round := sequencer.Round{
		Index: 3,
		Counters: sequencer.Counters{
			Count1s:   12000000,
			Count10s:  120000000,
			Count100s: 1200000000,
			Complete:  true,
		},
		Tuning: clock.NewTuning(13 * sim.MHz),
	}

	It("should record rounds into the backend", func() {
		backend.EXPECT().CreateTable(RoundTableName, RoundEntry{})
		tracer := NewRoundTracer(timeTeller, backend)

		expected := RoundEntry{
			Round:      3,
			Time:       1e-3,
			Count1s:    12000000,
			Count10s:   120000000,
			Count100s:  1200000000,
			Complete:   true,
			FreqHz:     13e6,
			HalfPeriod: float64(round.Tuning.HalfPeriod),
		}

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1e-3))
		backend.EXPECT().InsertData(RoundTableName, expected)

		tracer.Func(sim.HookCtx{Pos: sequencer.HookPosRoundDone, Item: round})

		Expect(tracer.Rounds()).To(Equal([]RoundEntry{expected}))
	})

	It("should keep rounds in memory without a backend", func() {
		tracer := NewRoundTracer(timeTeller, nil)

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1e-3))

		tracer.Func(sim.HookCtx{Pos: sequencer.HookPosRoundDone, Item: round})

		Expect(tracer.Rounds()).To(HaveLen(1))
		Expect(tracer.Rounds()[0].Round).To(Equal(uint64(3)))
	})
})

var _ = Describe("PhaseLogger", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		buf        *bytes.Buffer
		logger     *PhaseLogger
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		buf = new(bytes.Buffer)
		logger = NewPhaseLogger(log.New(buf, "", 0), timeTeller)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should log phase changes", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1e-9))

		logger.Func(sim.HookCtx{
			Pos: sequencer.HookPosPhaseChange,
			Item: sequencer.PhaseChange{
				From: sequencer.KindHoldoff,
				To:   sequencer.KindEnableIrqs,
			},
		})

		Expect(buf.String()).To(Equal("0.000000001000, Holdoff -> EnableIrqs\n"))
	})

	It("should log the termination reason", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(0))

		logger.Func(sim.HookCtx{
			Pos: sequencer.HookPosPhaseChange,
			Item: sequencer.PhaseChange{
				From:   sequencer.KindWaitForIrq,
				To:     sequencer.KindTerminate,
				Reason: sequencer.ReasonIrqTimeout,
			},
		})

		Expect(buf.String()).To(ContainSubstring(
			"WaitForIrq -> Terminate (irq timeout)"))
	})
})

var _ = Describe("PhaseTimeTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should accumulate time per phase", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(0))
		tracer := NewPhaseTimeTracer(timeTeller)

		changes := []struct {
			at       sim.VTimeInSec
			from, to sequencer.PhaseKind
		}{
			{1, sequencer.KindResetCounters, sequencer.KindStartCounters},
			{4, sequencer.KindStartCounters, sequencer.KindHoldoff},
			{6, sequencer.KindHoldoff, sequencer.KindEnableIrqs},
			{7, sequencer.KindEnableIrqs, sequencer.KindWaitForIrq},
			{9, sequencer.KindWaitForIrq, sequencer.KindReadCounts},
			{10, sequencer.KindReadCounts, sequencer.KindFreqAdjust},
			{11, sequencer.KindFreqAdjust, sequencer.KindHoldoff},
		}

		for _, c := range changes {
			timeTeller.EXPECT().CurrentTime().Return(c.at)
			tracer.Func(sim.HookCtx{
				Pos:  sequencer.HookPosPhaseChange,
				Item: sequencer.PhaseChange{From: c.from, To: c.to},
			})
		}

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(14)).AnyTimes()

		Expect(tracer.TimeIn(sequencer.KindStartCounters)).
			To(Equal(sim.VTimeInSec(3)))
		Expect(tracer.TimeIn(sequencer.KindWaitForIrq)).
			To(Equal(sim.VTimeInSec(2)))
		Expect(tracer.TimeIn(sequencer.KindHoldoff)).
			To(Equal(sim.VTimeInSec(5)))
		Expect(tracer.Entries(sequencer.KindHoldoff)).To(Equal(uint64(2)))
		Expect(tracer.Entries(sequencer.KindTerminate)).To(BeZero())
	})

	It("should credit the interrupted phase on reset", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(0))
		tracer := NewPhaseTimeTracer(timeTeller)

		changes := []struct {
			at       sim.VTimeInSec
			from, to sequencer.PhaseKind
		}{
			{1, sequencer.KindResetCounters, sequencer.KindStartCounters},
			{4, sequencer.KindStartCounters, sequencer.KindHoldoff},
			{9, sequencer.KindHoldoff, sequencer.KindResetCounters},
			{12, sequencer.KindResetCounters, sequencer.KindStartCounters},
		}

		for _, c := range changes {
			timeTeller.EXPECT().CurrentTime().Return(c.at)
			tracer.Func(sim.HookCtx{
				Pos:  sequencer.HookPosPhaseChange,
				Item: sequencer.PhaseChange{From: c.from, To: c.to},
			})
		}

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(13)).AnyTimes()

		Expect(tracer.TimeIn(sequencer.KindHoldoff)).
			To(Equal(sim.VTimeInSec(5)))
		Expect(tracer.TimeIn(sequencer.KindResetCounters)).
			To(Equal(sim.VTimeInSec(4)))
		Expect(tracer.Entries(sequencer.KindResetCounters)).
			To(Equal(uint64(2)))
	})
})
