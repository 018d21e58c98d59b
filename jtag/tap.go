// Package jtag provides the scan-chain primitives that the debug transport
// is built on. A TAP queues instruction-register and data-register shifts
// and executes them in batches.
package jtag

// A Field describes one data-register shift through the scan chain. Out
// holds the bits driven into the target and In receives the bits latched
// out of the target. Both buffers are LSB first, with bit 0 stored in the
// lowest bit of the first byte. A nil Out drives all zeros; a nil In
// discards the captured bits.
type Field struct {
	NumBits int
	Out     []byte
	In      []byte
}

// TAP drives a JTAG test access port. Queued shifts are not guaranteed to
// have reached the hardware until Flush returns, and the In buffers of
// queued fields hold valid data only after a successful Flush.
type TAP interface {
	// QueueIR queues a shift of value into the instruction register.
	QueueIR(value uint8)

	// QueueDR queues a data-register shift described by field.
	QueueDR(field *Field)

	// Flush executes all queued shifts. A non-nil error means the queue
	// could not be executed and every In buffer is undefined.
	Flush() error
}

// FieldBytes returns the number of bytes needed to hold numBits bits.
func FieldBytes(numBits int) int {
	return (numBits + 7) / 8
}
