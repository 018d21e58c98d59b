// Package dtm drives the JTAG debug transport module of a pre-0.13 RISC-V
// debug unit. It owns the pipelined debug-bus register protocol, including
// the busy back-pressure retry loop and the one-entry address cache that
// the pipelining requires.
package dtm

// JTAG instruction-register selectors exposed by the DTM.
const (
	InstDTMInfo uint8 = 0x10
	InstDBus    uint8 = 0x11
)

// dtminfo register fields (32-bit register behind InstDTMInfo).
const (
	dtmInfoAddrBits uint32 = 0xf << 4
	dtmInfoVersion  uint32 = 0xf
)

// DTMInfoValue is the raw content of the dtminfo register.
type DTMInfoValue uint32

// AddressBits returns the width of the debug-bus address field in bits.
func (v DTMInfoValue) AddressBits() uint8 {
	return uint8(getField32(uint32(v), dtmInfoAddrBits))
}

// Version returns the debug transport version field.
func (v DTMInfoValue) Version() uint8 {
	return uint8(getField32(uint32(v), dtmInfoVersion))
}

// BusOp is the operation field of a debug-bus scan.
type BusOp uint8

// Debug-bus operations.
const (
	OpNop       BusOp = 0
	OpRead      BusOp = 1
	OpWrite     BusOp = 2
	OpCondWrite BusOp = 3
)

func (op BusOp) String() string {
	switch op {
	case OpNop:
		return "nop"
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpCondWrite:
		return "cond-write"
	}

	return "invalid"
}

// BusResult is the result field scanned back from a debug-bus access. It
// occupies the same bits as the operation field of the outgoing scan.
type BusResult uint8

// Debug-bus result codes.
const (
	ResultSuccess BusResult = 0
	ResultNoWrite BusResult = 1
	ResultFailed  BusResult = 2
	ResultBusy    BusResult = 3
)

func (r BusResult) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultNoWrite:
		return "no-write"
	case ResultFailed:
		return "failed"
	case ResultBusy:
		return "busy"
	}

	return "invalid"
}

// Debug-bus scan field layout. A scan is addressBits+36 bits long: a 2-bit
// op, 34 bits of data, and the register address in the top bits.
const (
	busOpStart   uint = 0
	busOpBits    uint = 2
	busDataStart uint = 2
	busDataBits  uint = 34
	busAddrStart uint = 36
)

// Debug-bus register addresses.
const (
	RegDMControl uint16 = 0x10
	RegDMInfo    uint16 = 0x11
)

// AddressUnknown is the cache sentinel used before any scan has been
// issued on the bus.
const AddressUnknown uint16 = 0xffff

// dmcontrol bits that ride in the top of the 34-bit data field. Every
// debug-bus read returns them; debug-RAM writes set them.
const (
	// HaltNotBit requests/acknowledges a halt.
	HaltNotBit uint64 = 1 << 33
	// InterruptBit asks the target to execute the staged Debug RAM
	// program, and reads back set while that debug interrupt is pending.
	InterruptBit uint64 = 1 << 32
)

// dminfo register fields.
const (
	dmInfoABusSize    uint64 = 0x7f << 25
	dmInfoSerialCount uint64 = 0xf << 21
	dmInfoAccess128   uint64 = 1 << 20
	dmInfoAccess64    uint64 = 1 << 19
	dmInfoAccess32    uint64 = 1 << 18
	dmInfoAccess16    uint64 = 1 << 17
	dmInfoAccess8     uint64 = 1 << 16
	dmInfoDRAMSize    uint64 = 0x3f << 10
	dmInfoAuthBusy    uint64 = 1 << 4
	dmInfoAuthType    uint64 = 3 << 2
	dmInfoVersion     uint64 = 3
)

// DMInfoValue is the raw content of the dminfo debug-bus register.
type DMInfoValue uint64

// DRAMWords returns the number of 32-bit words of Debug RAM. The hardware
// field holds the word count minus one.
func (v DMInfoValue) DRAMWords() uint32 {
	return uint32(getField(uint64(v), dmInfoDRAMSize)) + 1
}

// AuthType returns the authentication type field. Nonzero means the debug
// unit demands authentication before it can be used.
func (v DMInfoValue) AuthType() uint8 {
	return uint8(getField(uint64(v), dmInfoAuthType))
}

// Version returns the debug module version field.
func (v DMInfoValue) Version() uint8 {
	return uint8(getField(uint64(v), dmInfoVersion))
}

// getField extracts a contiguous masked field, right-aligned.
func getField(reg, mask uint64) uint64 {
	return (reg & mask) / (mask & ^(mask << 1))
}

func getField32(reg, mask uint32) uint32 {
	return (reg & mask) / (mask & ^(mask << 1))
}
