package sequencer

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/ppscal/bus"
	"github.com/sarchlab/ppscal/clock"
	"github.com/sarchlab/ppscal/sim"
)

type phaseRecorder struct {
	changes []PhaseChange
	rounds  []Round
	reqs    []bus.Request
}

func (r *phaseRecorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosPhaseChange:
		r.changes = append(r.changes, ctx.Item.(PhaseChange))
	case HookPosRoundDone:
		r.rounds = append(r.rounds, ctx.Item.(Round))
	case HookPosBusRequest:
		r.reqs = append(r.reqs, ctx.Item.(bus.Request))
	}
}

var _ = Describe("Comp", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *sim.SerialEngine
		device   *MockDevice
		clk      *MockClock
		cfg      Config
		comp     *Comp
		recorder *phaseRecorder
		period   sim.VTimeInSec
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
		device = NewMockDevice(mockCtrl)
		clk = NewMockClock(mockCtrl)

		cfg = DefaultConfig()
		cfg.ResetTime = 2
		cfg.DeadTime = 3
		cfg.IrqTimeout = 5

		comp = MakeBuilder().
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			WithConfig(cfg).
			WithDevice(device).
			WithClock(clk).
			Build("Sequencer")
		period = (1 * sim.GHz).Period()

		recorder = &phaseRecorder{}
		comp.AcceptHook(recorder)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should write hold-reset on the first tick", func() {
		device.EXPECT().IrqPending().Return(false).AnyTimes()
		first := device.EXPECT().
			Tick(bus.WriteReq(bus.AddrControl, bus.CtrlHoldReset)).
			Return(bus.Response{})
		device.EXPECT().Tick(bus.Idle()).Return(bus.Response{}).
			After(first).AnyTimes()
		clk.EXPECT().Start()

		comp.Start()
		Expect(engine.RunUntil(period / 2)).To(Succeed())

		Expect(comp.Ticks()).To(Equal(uint64(1)))
		Expect(comp.State().Phase).To(Equal(StartCounters{}))
		Expect(recorder.changes).To(Equal([]PhaseChange{
			{From: KindResetCounters, To: KindStartCounters},
		}))
	})

	It("should terminate on interrupt timeout", func() {
		handler := NewMockTerminateHandler(mockCtrl)
		comp.RegisterTerminateHandler(handler)

		device.EXPECT().IrqPending().Return(false).AnyTimes()
		device.EXPECT().Tick(gomock.Any()).Return(bus.Response{}).AnyTimes()
		clk.EXPECT().Start()
		clk.EXPECT().Stop()
		handler.EXPECT().HandleTerminate(gomock.Any(), ReasonIrqTimeout)

		comp.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(comp.Terminated()).To(BeTrue())
		Expect(comp.State().Phase).To(Equal(Terminate{Reason: ReasonIrqTimeout}))

		// 1 reset + 3 start + 4 holdoff + 1 enable + 6 wait
		Expect(comp.Ticks()).To(Equal(uint64(15)))

		last := recorder.changes[len(recorder.changes)-1]
		Expect(last).To(Equal(PhaseChange{
			From:   KindWaitForIrq,
			To:     KindTerminate,
			Reason: ReasonIrqTimeout,
		}))
	})

	It("should read the counters and retune the clock", func() {
		regs := newFakeRegs(
			0x0000000000989680,
			0x0000000005f5e100,
			0x000000003b9aca00,
		)
		irq := false
		device.EXPECT().IrqPending().DoAndReturn(func() bool {
			return irq
		}).AnyTimes()
		device.EXPECT().Tick(gomock.Any()).DoAndReturn(
			func(req bus.Request) bus.Response {
				switch {
				case req == bus.WriteReq(bus.AddrInterrupt, bus.IrqEnable):
					irq = true
				case req == bus.WriteReq(bus.AddrInterrupt, bus.IrqClearDisable):
					irq = false
				}

				return regs.respond(req)
			}).AnyTimes()
		clk.EXPECT().Start()
		clk.EXPECT().Retune(clock.NewTuning(11 * sim.MHz))

		comp.Start()
		// 1 reset + 3 start + 4 holdoff + 1 enable + 1 wait + 32 read +
		// 1 adjust
		Expect(engine.RunUntil(42.5 * period)).To(Succeed())

		Expect(recorder.rounds).To(HaveLen(1))
		round := recorder.rounds[0]
		Expect(round.Index).To(Equal(uint64(1)))
		Expect(round.Counters).To(Equal(Counters{
			Count1s:   10000000,
			Count10s:  100000000,
			Count100s: 1000000000,
			Complete:  true,
		}))
		Expect(round.Tuning.Freq).To(Equal(11 * sim.MHz))
		Expect(comp.State().Phase).To(Equal(Holdoff{}))
		Expect(comp.Rounds()).To(Equal(uint64(1)))

		reads := 0
		for _, r := range recorder.reqs {
			if r.Kind() == bus.KindRead {
				reads++
			}
		}
		Expect(reads).To(Equal(24))
	})

	It("should hold the initial state while reset is asserted", func() {
		device.EXPECT().IrqPending().Return(false).AnyTimes()
		device.EXPECT().Tick(gomock.Any()).Return(bus.Response{}).AnyTimes()
		clk.EXPECT().Start().Times(2)
		clk.EXPECT().Retune(clock.NewTuning(cfg.StartFreq)).AnyTimes()

		comp.Start()
		Expect(engine.RunUntil(5.5 * period)).To(Succeed())
		Expect(comp.State().Phase.Kind()).To(Equal(KindHoldoff))

		comp.AssertReset()
		Expect(comp.State()).To(Equal(Initial(cfg)))
		Expect(recorder.changes[len(recorder.changes)-1]).To(Equal(PhaseChange{
			From: KindHoldoff,
			To:   KindResetCounters,
		}))
		changesAtReset := len(recorder.changes)

		Expect(engine.RunUntil(20.5 * period)).To(Succeed())
		Expect(comp.State()).To(Equal(Initial(cfg)))
		Expect(recorder.changes).To(HaveLen(changesAtReset))

		comp.ReleaseReset()
		Expect(engine.RunUntil(21.5 * period)).To(Succeed())
		Expect(comp.State().Phase).To(Equal(StartCounters{}))
		Expect(recorder.changes[changesAtReset:]).To(Equal([]PhaseChange{
			{From: KindResetCounters, To: KindStartCounters},
		}))
	})

	It("should not report a change when reset is asserted in reset", func() {
		clk.EXPECT().Retune(clock.NewTuning(cfg.StartFreq))
		clk.EXPECT().Start()

		comp.AssertReset()

		Expect(comp.State()).To(Equal(Initial(cfg)))
		Expect(recorder.changes).To(BeEmpty())
	})

	It("should count ignored wait ticks without stalling", func() {
		device.EXPECT().IrqPending().Return(false).AnyTimes()
		device.EXPECT().Tick(gomock.Any()).
			Return(bus.Response{Wait: true}).AnyTimes()
		clk.EXPECT().Start()

		comp.Start()
		Expect(engine.RunUntil(2.5 * period)).To(Succeed())

		Expect(comp.Ticks()).To(Equal(uint64(3)))
		Expect(comp.WaitTicks()).To(Equal(uint64(2)))
		Expect(comp.State().Phase).To(Equal(StartCounters{Elapsed: 2}))
	})
})
