package dtm

import "github.com/openchip/rvdbg/jtag"

// SimScan records one debug-bus scan executed against a SimDTM, including
// scans that were answered busy.
type SimScan struct {
	Op      BusOp
	Address uint16
	Data    uint64
	Result  BusResult
}

// SimDTM is an in-process model of the debug transport module, usable as a
// jtag.TAP. It implements the pipelined read protocol bit-exactly: the
// data field of a scan response carries the value latched by the previous
// scan, whether that was a read or the post-write content of a written
// register. Tests use it to script busy back-pressure and soft
// failures; the CLI uses it as a hardware-free target.
type SimDTM struct {
	addrBits uint8
	dram     []uint32
	authType uint8

	haltnot   bool
	interrupt bool
	autoHalt  bool

	// Value latched by the most recent executed op, returned by the next
	// scan.
	pipeline uint64

	ir    uint8
	queue []simQueued

	busyLeft    int
	nextResults []BusResult
	flushErr    error

	// DTMInfoScans counts data scans through the dtminfo instruction.
	DTMInfoScans int

	// ScanLog records every debug-bus data scan in order.
	ScanLog []SimScan
}

type simQueued struct {
	isIR    bool
	irValue uint8
	field   *jtag.Field
}

// NewSimDTM returns a simulated DTM with the given debug-bus address width
// and Debug RAM word count. A staged program triggered through the
// interrupt bit is treated as executed instantly, acknowledging a halt.
func NewSimDTM(addrBits uint8, dramWords int) *SimDTM {
	return &SimDTM{
		addrBits: addrBits,
		dram:     make([]uint32, dramWords),
		ir:       InstDBus,
		autoHalt: true,
	}
}

// SetAuthType sets the dminfo authentication-type field.
func (d *SimDTM) SetAuthType(t uint8) {
	d.authType = t
}

// SetAutoHalt controls whether triggering a staged program immediately
// acknowledges a halt.
func (d *SimDTM) SetAutoHalt(on bool) {
	d.autoHalt = on
}

// SetRunBits forces the haltnot/interrupt control bits, overriding
// whatever previous traffic left behind.
func (d *SimDTM) SetRunBits(haltnot, interrupt bool) {
	d.haltnot = haltnot
	d.interrupt = interrupt
}

// InjectBusy makes the next n debug-bus scans answer busy without
// executing their operation.
func (d *SimDTM) InjectBusy(n int) {
	d.busyLeft = n
}

// InjectResult queues a result code for the next accepted operation. A
// non-success code is reported without executing the operation.
func (d *SimDTM) InjectResult(r BusResult) {
	d.nextResults = append(d.nextResults, r)
}

// FailFlush makes every subsequent Flush fail with err, simulating a
// disconnected adapter.
func (d *SimDTM) FailFlush(err error) {
	d.flushErr = err
}

// DRAMWord returns the current content of a Debug RAM word.
func (d *SimDTM) DRAMWord(index int) uint32 {
	return d.dram[index]
}

// SetDRAMWord sets a Debug RAM word directly, bypassing the bus.
func (d *SimDTM) SetDRAMWord(index int, value uint32) {
	d.dram[index] = value
}

// QueueIR implements jtag.TAP.
func (d *SimDTM) QueueIR(value uint8) {
	d.queue = append(d.queue, simQueued{isIR: true, irValue: value})
}

// QueueDR implements jtag.TAP.
func (d *SimDTM) QueueDR(field *jtag.Field) {
	d.queue = append(d.queue, simQueued{field: field})
}

// Flush implements jtag.TAP.
func (d *SimDTM) Flush() error {
	if d.flushErr != nil {
		d.queue = d.queue[:0]
		return d.flushErr
	}

	for _, q := range d.queue {
		if q.isIR {
			d.ir = q.irValue
			continue
		}

		switch d.ir {
		case InstDTMInfo:
			d.scanDTMInfo(q.field)
		case InstDBus:
			d.scanDBus(q.field)
		default:
			// Unmodeled instruction, capture zeros.
			for i := range q.field.In {
				q.field.In[i] = 0
			}
		}
	}

	d.queue = d.queue[:0]

	return nil
}

func (d *SimDTM) scanDTMInfo(field *jtag.Field) {
	d.DTMInfoScans++

	if field.In != nil {
		value := uint64(d.addrBits) << 4
		jtag.SetBits(field.In, 0, 32, value)
	}
}

func (d *SimDTM) scanDBus(field *jtag.Field) {
	op := BusOp(jtag.GetBits(field.Out, busOpStart, busOpBits))
	data := jtag.GetBits(field.Out, busDataStart, busDataBits)
	address := uint16(jtag.GetBits(field.Out, busAddrStart, uint(d.addrBits)))

	result := ResultSuccess
	execute := true

	if d.busyLeft > 0 {
		d.busyLeft--
		result = ResultBusy
		execute = false
	} else if len(d.nextResults) > 0 {
		result = d.nextResults[0]
		d.nextResults = d.nextResults[1:]
		execute = result == ResultSuccess
	} else if op == OpCondWrite && d.interrupt {
		// A conditional write is refused while the debug interrupt is
		// still pending.
		result = ResultNoWrite
		execute = false
	}

	if field.In != nil {
		jtag.SetBits(field.In, busOpStart, busOpBits, uint64(result))
		jtag.SetBits(field.In, busDataStart, busDataBits, d.pipeline)
		jtag.SetBits(field.In, busAddrStart, uint(d.addrBits), uint64(address))
	}

	if execute {
		switch op {
		case OpRead:
			d.pipeline = d.readReg(address)
		case OpWrite, OpCondWrite:
			// A write also latches the addressed register, so the next
			// scan returns its post-write content.
			d.writeReg(address, data)
			d.pipeline = d.readReg(address)
		}
	}

	d.ScanLog = append(d.ScanLog, SimScan{
		Op:      op,
		Address: address,
		Data:    data,
		Result:  result,
	})
}

func (d *SimDTM) runBits() uint64 {
	var bits uint64
	if d.haltnot {
		bits |= HaltNotBit
	}
	if d.interrupt {
		bits |= InterruptBit
	}

	return bits
}

func (d *SimDTM) dramIndex(address uint16) (int, bool) {
	if address < 0x10 {
		if int(address) < len(d.dram) {
			return int(address), true
		}
		return 0, false
	}

	if address >= 0x40 {
		index := 0x10 + int(address) - 0x40
		if index < len(d.dram) {
			return index, true
		}
	}

	return 0, false
}

func (d *SimDTM) readReg(address uint16) uint64 {
	var value uint64

	if index, ok := d.dramIndex(address); ok {
		value = uint64(d.dram[index])
	} else if address == RegDMInfo {
		value = uint64(len(d.dram)-1)<<10 |
			uint64(d.authType)<<2 |
			1 // version
	}

	return value | d.runBits()
}

func (d *SimDTM) writeReg(address uint16, data uint64) {
	index, ok := d.dramIndex(address)
	if !ok {
		return
	}

	d.dram[index] = uint32(data)

	if data&InterruptBit != 0 {
		// The staged program runs. Model it as completing at once.
		if d.autoHalt {
			d.interrupt = false
			d.haltnot = true
		} else {
			d.interrupt = true
		}
	}
}
