package sim

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type namedHandler struct {
	name string
}

func (h namedHandler) Name() string {
	return h.name
}

func (h namedHandler) Handle(_ Event) error {
	return nil
}

type plainHandler struct{}

func (plainHandler) Handle(_ Event) error {
	return nil
}

var _ = Describe("EventLogger", func() {
	var (
		buf    *bytes.Buffer
		logger *EventLogger
	)

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		logger = NewEventLogger(log.New(buf, "", 0))
	})

	It("should log the handler name", func() {
		evt := MakeTickEvent(namedHandler{name: "Sequencer"}, 2e-9)

		logger.Func(HookCtx{Pos: HookPosBeforeEvent, Item: evt})

		Expect(buf.String()).To(Equal(
			"0.000000002000, sim.TickEvent -> Sequencer\n"))
	})

	It("should log events of unnamed handlers", func() {
		evt := MakeTickEvent(plainHandler{}, 1)

		logger.Func(HookCtx{Pos: HookPosBeforeEvent, Item: evt})

		Expect(buf.String()).To(Equal("1.000000000000, sim.TickEvent\n"))
	})

	It("should ignore other positions", func() {
		evt := MakeTickEvent(plainHandler{}, 1)

		logger.Func(HookCtx{Pos: HookPosAfterEvent, Item: evt})

		Expect(buf.String()).To(BeEmpty())
	})

	It("should log events handled by an engine", func() {
		engine := NewSerialEngine()
		engine.AcceptHook(logger)
		engine.Schedule(MakeTickEvent(namedHandler{name: "Clock"}, 1e-9))

		Expect(engine.Run()).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("-> Clock"))
	})
})
