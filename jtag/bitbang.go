package jtag

import "time"

// PinState is the logic level of a JTAG pin.
type PinState byte

// Logic levels for PinState.
const (
	Low  PinState = 0
	High PinState = 1
)

// Pin identifies a host GPIO line.
type Pin byte

// Pins names the GPIO lines wired to the target's JTAG header. TRST may be
// left unconnected by setting it to NoPin.
type Pins struct {
	TCK  Pin
	TMS  Pin
	TDI  Pin
	TDO  Pin
	TRST Pin
}

// NoPin marks a JTAG signal that is not wired up.
const NoPin Pin = 0xff

// A PinDriver gives the bitbang TAP access to host GPIO lines.
type PinDriver interface {
	Open() error
	Close()

	Write(pin Pin, state PinState)
	Read(pin Pin) PinState
	Output(pin Pin)
	Input(pin Pin)
	PullUp(pin Pin)
	PullOff(pin Pin)
}

// TMS walk strings. Each character is one TCK pulse with TMS driven to the
// named level, starting from Run-Test/Idle (or anywhere, for tmsReset).
const (
	tmsReset   = "111110"
	tmsShiftDR = "100"
	tmsShiftIR = "1100"
)

// BitbangTAPBuilder builds bitbang TAPs.
type BitbangTAPBuilder struct {
	driver     PinDriver
	pins       Pins
	irLength   int
	clockDelay time.Duration
	pullUp     bool
}

// MakeBitbangTAPBuilder returns a builder with the common defaults: a
// 5-bit instruction register and a 10us half clock.
func MakeBitbangTAPBuilder() BitbangTAPBuilder {
	return BitbangTAPBuilder{
		irLength:   5,
		clockDelay: 10 * time.Microsecond,
	}
}

// WithDriver sets the GPIO driver that moves the pins.
func (b BitbangTAPBuilder) WithDriver(driver PinDriver) BitbangTAPBuilder {
	b.driver = driver
	return b
}

// WithPins sets the pin assignment.
func (b BitbangTAPBuilder) WithPins(pins Pins) BitbangTAPBuilder {
	b.pins = pins
	return b
}

// WithIRLength sets the length of the target's instruction register in
// bits.
func (b BitbangTAPBuilder) WithIRLength(irLength int) BitbangTAPBuilder {
	b.irLength = irLength
	return b
}

// WithClockDelay sets the time TCK is held in each half of a clock cycle.
func (b BitbangTAPBuilder) WithClockDelay(d time.Duration) BitbangTAPBuilder {
	b.clockDelay = d
	return b
}

// WithPullUps enables host-side pull-ups on all driven pins.
func (b BitbangTAPBuilder) WithPullUps() BitbangTAPBuilder {
	b.pullUp = true
	return b
}

// Build opens the pin driver, walks the TAP to Run-Test/Idle, and returns
// the TAP.
func (b BitbangTAPBuilder) Build() (*BitbangTAP, error) {
	t := &BitbangTAP{
		drv:        b.driver,
		pins:       b.pins,
		irLength:   b.irLength,
		clockDelay: b.clockDelay,
		pullUp:     b.pullUp,
	}

	if err := t.drv.Open(); err != nil {
		return nil, err
	}

	t.initPins()
	t.walkTMS(tmsReset)

	return t, nil
}

type queuedShift struct {
	isIR    bool
	irValue uint8
	field   *Field
}

// BitbangTAP drives a JTAG TAP one GPIO edge at a time. Shifts queue up
// and are executed in order on Flush.
type BitbangTAP struct {
	drv        PinDriver
	pins       Pins
	irLength   int
	clockDelay time.Duration
	pullUp     bool

	queue []queuedShift
}

// QueueIR queues an instruction-register shift.
func (t *BitbangTAP) QueueIR(value uint8) {
	t.queue = append(t.queue, queuedShift{isIR: true, irValue: value})
}

// QueueDR queues a data-register shift.
func (t *BitbangTAP) QueueDR(field *Field) {
	t.queue = append(t.queue, queuedShift{field: field})
}

// Flush executes all queued shifts.
func (t *BitbangTAP) Flush() error {
	for _, s := range t.queue {
		if s.isIR {
			out := []byte{s.irValue}
			t.shift(tmsShiftIR, t.irLength, out, nil)
		} else {
			t.shift(tmsShiftDR, s.field.NumBits, s.field.Out, s.field.In)
		}
	}

	t.queue = t.queue[:0]

	return nil
}

// Close releases the pin driver.
func (t *BitbangTAP) Close() {
	t.drv.Close()
}

func (t *BitbangTAP) initPins() {
	for _, pin := range []Pin{t.pins.TMS, t.pins.TDI, t.pins.TRST} {
		if pin == NoPin {
			continue
		}

		t.drv.Output(pin)
		t.drv.Write(pin, High)

		if t.pullUp {
			t.drv.PullUp(pin)
		} else {
			t.drv.PullOff(pin)
		}
	}

	t.drv.Input(t.pins.TDO)

	// Start from a known clock state.
	t.drv.Output(t.pins.TCK)
	t.drv.Write(t.pins.TCK, Low)
	if t.pullUp {
		t.drv.PullUp(t.pins.TCK)
	} else {
		t.drv.PullOff(t.pins.TCK)
	}
}

func (t *BitbangTAP) pulseTCK() {
	t.drv.Write(t.pins.TCK, High)
	time.Sleep(t.clockDelay)
	t.drv.Write(t.pins.TCK, Low)
	time.Sleep(t.clockDelay)
}

func (t *BitbangTAP) walkTMS(walk string) {
	for _, c := range walk {
		if c == '1' {
			t.drv.Write(t.pins.TMS, High)
		} else {
			t.drv.Write(t.pins.TMS, Low)
		}
		t.pulseTCK()
	}
}

// shift clocks numBits bits through the selected register. The walk takes
// the TAP from Run-Test/Idle to the shift state; the final bit is clocked
// with TMS high so the TAP exits to Update, and the shift ends back in
// Run-Test/Idle.
func (t *BitbangTAP) shift(walk string, numBits int, out, in []byte) {
	t.walkTMS(walk)
	t.drv.Write(t.pins.TMS, Low)

	for i := 0; i < numBits; i++ {
		bit := uint(i)

		tdi := Low
		if out != nil && out[bit/8]&(1<<(bit%8)) != 0 {
			tdi = High
		}
		t.drv.Write(t.pins.TDI, tdi)

		if in != nil {
			if t.drv.Read(t.pins.TDO) == High {
				in[bit/8] |= 1 << (bit % 8)
			} else {
				in[bit/8] &^= 1 << (bit % 8)
			}
		}

		if i == numBits-1 {
			t.drv.Write(t.pins.TMS, High)
		}
		t.pulseTCK()
	}

	// Update, then back to Run-Test/Idle.
	t.drv.Write(t.pins.TMS, High)
	t.pulseTCK()
	t.drv.Write(t.pins.TMS, Low)
	t.pulseTCK()
}
