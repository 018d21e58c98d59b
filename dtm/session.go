package dtm

import (
	"fmt"
	"log"
	"time"

	"github.com/rs/xid"

	"github.com/openchip/rvdbg/hooking"
	"github.com/openchip/rvdbg/jtag"
)

// HookPosScan is invoked after every debug-bus scan, with a ScanInfo as
// the hook item.
var HookPosScan = &hooking.HookPos{Name: "DBusScan"}

// ScanInfo describes one completed debug-bus scan.
type ScanInfo struct {
	Seq     uint64
	Op      BusOp
	Address uint16
	DataOut uint64
	Result  BusResult
	DataIn  uint64
}

// RetryPolicy bounds the busy-retry loop of a single bus operation. A scan
// that still answers busy after MaxScanRetries reissues, or past OpTimeout
// of wall-clock time, fails with ErrUnresponsive.
type RetryPolicy struct {
	MaxScanRetries int
	OpTimeout      time.Duration
}

// DefaultRetryPolicy is generous enough for slow adapters while still
// bounding a wedged bus.
var DefaultRetryPolicy = RetryPolicy{
	MaxScanRetries: 256,
	OpTimeout:      time.Second,
}

// Geometry holds the platform constants of the debug unit: where Debug RAM
// sits in the target's address space and where the debug ROM resume vector
// is.
type Geometry struct {
	RAMBase      uint32
	ResumeVector uint32
}

// DefaultGeometry matches the reference debug unit layout: Debug RAM at
// 0x400, debug ROM at 0x800 with the resume vector one word in.
var DefaultGeometry = Geometry{
	RAMBase:      0x400,
	ResumeVector: 0x804,
}

// SessionBuilder builds Sessions.
type SessionBuilder struct {
	tap   jtag.TAP
	retry RetryPolicy
	geom  Geometry
}

// MakeSessionBuilder returns a builder with the default retry policy and
// geometry.
func MakeSessionBuilder() SessionBuilder {
	return SessionBuilder{
		retry: DefaultRetryPolicy,
		geom:  DefaultGeometry,
	}
}

// WithTAP sets the TAP the session scans through.
func (b SessionBuilder) WithTAP(tap jtag.TAP) SessionBuilder {
	b.tap = tap
	return b
}

// WithRetryPolicy sets the busy-retry bound.
func (b SessionBuilder) WithRetryPolicy(p RetryPolicy) SessionBuilder {
	b.retry = p
	return b
}

// WithGeometry sets the Debug RAM and resume vector addresses.
func (b SessionBuilder) WithGeometry(g Geometry) SessionBuilder {
	b.geom = g
	return b
}

// Build builds a Session. The address cache starts invalidated; no
// debug-bus traffic is issued until ReadDTMInfo has established the
// address width.
func (b SessionBuilder) Build(name string) *Session {
	return &Session{
		name:     name,
		id:       xid.New().String(),
		tap:      b.tap,
		retry:    b.retry,
		geom:     b.geom,
		lastAddr: AddressUnknown,
		lastOp:   OpNop,
	}
}

// A Session is one connection to a target's debug transport module. It is
// exclusively owned by the driver loop; none of its methods may be called
// concurrently.
type Session struct {
	hooking.HookableBase

	name  string
	id    string
	tap   jtag.TAP
	retry RetryPolicy
	geom  Geometry

	// Debug-bus address field width. Zero until the dtminfo register has
	// been read; no debug-bus scan is legal before that.
	addrBits uint8

	// The debug bus is pipelined: a scan returns the data requested by
	// the previous scan. lastAddr/lastOp record what the previous scan
	// drove onto the bus so reads know whether the wanted data is
	// already in flight.
	lastAddr uint16
	lastOp   BusOp

	scanSeq uint64
}

// Name returns the name of the session.
func (s *Session) Name() string {
	return s.name
}

// ID returns the unique ID assigned to the session at build time.
func (s *Session) ID() string {
	return s.id
}

// AddressBits returns the debug-bus address width, or zero before
// ReadDTMInfo.
func (s *Session) AddressBits() uint8 {
	return s.addrBits
}

// LastAddress returns the register address most recently driven onto the
// bus, or AddressUnknown.
func (s *Session) LastAddress() uint16 {
	return s.lastAddr
}

// LastOp returns the operation most recently driven onto the bus.
func (s *Session) LastOp() BusOp {
	return s.lastOp
}

// Geometry returns the platform constants the session was built with.
func (s *Session) Geometry() Geometry {
	return s.geom
}

// ScanCount returns the number of debug-bus scans issued so far.
func (s *Session) ScanCount() uint64 {
	return s.scanSeq
}

// ReadDTMInfo selects the dtminfo instruction, reads the transport's
// static geometry, and fixes the session's address width from it. It
// leaves the debug-bus instruction selected again: every other session
// operation assumes dbus is the active instruction.
func (s *Session) ReadDTMInfo() (DTMInfoValue, error) {
	s.tap.QueueIR(InstDTMInfo)

	field := &jtag.Field{
		NumBits: 32,
		In:      make([]byte, 4),
	}
	s.tap.QueueDR(field)

	// Always return to dbus.
	s.tap.QueueIR(InstDBus)

	if err := s.tap.Flush(); err != nil {
		return 0, fmt.Errorf("dtminfo scan: %w", err)
	}

	value := DTMInfoValue(jtag.GetBits(field.In, 0, 32))
	s.addrBits = value.AddressBits()

	return value, nil
}

// Scan assembles one debug-bus access, shifts it through the TAP, and
// decodes the response. The returned data belongs to the previous scan's
// request. The address cache is updated whatever the result code is; a
// busy response still latches the address field.
func (s *Session) Scan(op BusOp, address uint16, dataOut uint64) (BusResult, uint64, error) {
	if s.addrBits == 0 {
		log.Panic("dbus scan issued before the address width is known")
	}

	numBits := int(busOpBits+busDataBits) + int(s.addrBits)
	out := make([]byte, jtag.FieldBytes(numBits))
	in := make([]byte, jtag.FieldBytes(numBits))

	jtag.SetBits(out, busOpStart, busOpBits, uint64(op))
	jtag.SetBits(out, busDataStart, busDataBits, dataOut)
	jtag.SetBits(out, busAddrStart, uint(s.addrBits), uint64(address))

	field := &jtag.Field{NumBits: numBits, Out: out, In: in}

	// dbus is assumed to be the selected instruction.
	s.tap.QueueDR(field)
	s.lastAddr = address
	s.lastOp = op

	if err := s.tap.Flush(); err != nil {
		return ResultFailed, 0, fmt.Errorf("dbus scan: %w", err)
	}

	result := BusResult(jtag.GetBits(in, busOpStart, busOpBits))
	dataIn := jtag.GetBits(in, busDataStart, busDataBits)

	s.scanSeq++

	if s.NumHooks() > 0 {
		s.InvokeHook(hooking.HookCtx{
			Domain: s,
			Pos:    HookPosScan,
			Item: ScanInfo{
				Seq:     s.scanSeq,
				Op:      op,
				Address: address,
				DataOut: dataOut,
				Result:  result,
				DataIn:  dataIn,
			},
		})
	}

	return result, dataIn, nil
}

// scanRetry reissues the identical scan while the bus answers busy. Busy
// is back-pressure, not an error; the retry stops only at the session's
// policy bound, which is surfaced as ErrUnresponsive.
func (s *Session) scanRetry(op BusOp, address uint16, dataOut uint64) (BusResult, uint64, error) {
	deadline := time.Now().Add(s.retry.OpTimeout)

	result, dataIn, err := s.Scan(op, address, dataOut)

	retries := 0
	for err == nil && result == ResultBusy {
		if retries >= s.retry.MaxScanRetries || time.Now().After(deadline) {
			return result, dataIn, fmt.Errorf(
				"%w: %s of 0x%x still busy after %d scans",
				ErrUnresponsive, op, address, retries+1)
		}
		retries++

		result, dataIn, err = s.Scan(op, address, dataOut)
	}

	return result, dataIn, err
}

// Read reads a debug-bus register.
func (s *Session) Read(address uint16) (uint64, error) {
	return s.ReadThen(address, 0)
}

// ReadThen reads the register at address, driving next as the address of
// the follow-up scan that fetches the pipelined data. Callers that will
// read next right after get its request onto the bus for free; everyone
// else passes 0.
//
// A failed or no-write result is logged and the (possibly stale) data
// field is returned anyway; in a noisy hardware environment a degraded
// read is more useful to the caller than an aborted one. Only transport
// failures and retry exhaustion are errors.
func (s *Session) ReadThen(address, next uint16) (uint64, error) {
	if address != s.lastAddr || s.lastOp == OpNop {
		if _, _, err := s.scanRetry(OpRead, address, 0); err != nil {
			return 0, err
		}
	}

	result, value, err := s.scanRetry(OpRead, next, 0)
	if err != nil {
		return 0, err
	}
	if result != ResultSuccess {
		log.Printf("rvdbg: dbus read at 0x%x returned %s, data may be stale",
			address, result)
	}

	return value, nil
}

// Write writes a debug-bus register. A failed or no-write result is
// logged, not returned; only transport failures and retry exhaustion are
// errors.
func (s *Session) Write(address uint16, value uint64) error {
	result, _, err := s.scanRetry(OpWrite, address, value)
	if err != nil {
		return err
	}
	if result != ResultSuccess {
		log.Printf("rvdbg: dbus write of 0x%x to 0x%x returned %s",
			value, address, result)
	}

	return nil
}
