package jtag

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakePinDriver wires TDI straight to TDO, so every shift reads back what
// was driven. It records the TMS level at each TCK pulse.
type fakePinDriver struct {
	pins     Pins
	levels   map[Pin]PinState
	tmsTrace string
	opened   bool
}

func newFakePinDriver(pins Pins) *fakePinDriver {
	return &fakePinDriver{
		pins:   pins,
		levels: make(map[Pin]PinState),
	}
}

func (d *fakePinDriver) Open() error {
	d.opened = true
	return nil
}

func (d *fakePinDriver) Close() {
	d.opened = false
}

func (d *fakePinDriver) Write(pin Pin, state PinState) {
	if pin == d.pins.TCK && state == High && d.levels[pin] == Low {
		if d.levels[d.pins.TMS] == High {
			d.tmsTrace += "1"
		} else {
			d.tmsTrace += "0"
		}
	}

	d.levels[pin] = state
}

func (d *fakePinDriver) Read(pin Pin) PinState {
	if pin == d.pins.TDO {
		return d.levels[d.pins.TDI]
	}

	return d.levels[pin]
}

func (d *fakePinDriver) Output(pin Pin)  {}
func (d *fakePinDriver) Input(pin Pin)   {}
func (d *fakePinDriver) PullUp(pin Pin)  {}
func (d *fakePinDriver) PullOff(pin Pin) {}

var _ = Describe("BitbangTAP", func() {
	var (
		pins Pins
		drv  *fakePinDriver
		tap  *BitbangTAP
	)

	BeforeEach(func() {
		pins = Pins{TCK: 1, TMS: 2, TDI: 3, TDO: 4, TRST: NoPin}
		drv = newFakePinDriver(pins)

		var err error
		tap, err = MakeBitbangTAPBuilder().
			WithDriver(drv).
			WithPins(pins).
			WithIRLength(5).
			WithClockDelay(0).
			Build()
		Expect(err).To(BeNil())
	})

	It("should reset the TAP on build", func() {
		Expect(drv.opened).To(BeTrue())
		Expect(drv.tmsTrace).To(Equal("111110"))
	})

	It("should shift DR data through the loopback unchanged", func() {
		out := []byte{0xb5, 0x02}
		in := make([]byte, 2)

		tap.QueueDR(&Field{NumBits: 10, Out: out, In: in})
		Expect(tap.Flush()).To(Succeed())

		Expect(GetBits(in, 0, 10)).To(Equal(GetBits(out, 0, 10)))
	})

	It("should walk Shift-DR, exit on the last bit, and return to idle", func() {
		drv.tmsTrace = ""

		tap.QueueDR(&Field{NumBits: 3, Out: []byte{0x5}, In: make([]byte, 1)})
		Expect(tap.Flush()).To(Succeed())

		Expect(drv.tmsTrace).To(Equal("100" + "001" + "1" + "0"))
	})

	It("should execute queued shifts in order and drain the queue", func() {
		in1 := make([]byte, 1)
		in2 := make([]byte, 1)

		tap.QueueIR(0x11)
		tap.QueueDR(&Field{NumBits: 8, Out: []byte{0xa7}, In: in1})
		tap.QueueDR(&Field{NumBits: 8, Out: []byte{0x3c}, In: in2})
		Expect(tap.Flush()).To(Succeed())

		Expect(in1[0]).To(Equal(byte(0xa7)))
		Expect(in2[0]).To(Equal(byte(0x3c)))

		drv.tmsTrace = ""
		Expect(tap.Flush()).To(Succeed())
		Expect(drv.tmsTrace).To(Equal(""))
	})
})
