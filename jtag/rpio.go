package jtag

import "github.com/stianeikeland/go-rpio/v4"

// RPIODriver drives JTAG pins through the Raspberry Pi GPIO header using
// /dev/gpiomem.
type RPIODriver struct{}

// Open maps the GPIO registers.
func (d *RPIODriver) Open() error {
	return rpio.Open()
}

// Close unmaps the GPIO registers.
func (d *RPIODriver) Close() {
	rpio.Close()
}

// Write drives pin to state.
func (d *RPIODriver) Write(pin Pin, state PinState) {
	if state == High {
		rpio.Pin(pin).High()
	} else {
		rpio.Pin(pin).Low()
	}
}

// Read samples pin.
func (d *RPIODriver) Read(pin Pin) PinState {
	if rpio.Pin(pin).Read() == rpio.High {
		return High
	}

	return Low
}

// Output configures pin as an output.
func (d *RPIODriver) Output(pin Pin) {
	rpio.Pin(pin).Output()
}

// Input configures pin as an input.
func (d *RPIODriver) Input(pin Pin) {
	rpio.Pin(pin).Input()
}

// PullUp enables the pull-up on pin.
func (d *RPIODriver) PullUp(pin Pin) {
	rpio.Pin(pin).PullUp()
}

// PullOff disables pulls on pin.
func (d *RPIODriver) PullOff(pin Pin) {
	rpio.Pin(pin).PullOff()
}
