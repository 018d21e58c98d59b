// Package dram gives staged-code callers a linear view of the target's
// Debug RAM. The hardware exposes the words through two disjoint
// debug-bus address ranges; callers only ever see word indexes.
package dram

import (
	"errors"
	"fmt"
	"log"

	"github.com/openchip/rvdbg/dtm"
	"github.com/openchip/rvdbg/riscv"
)

// ErrBadIndex is returned when a word index lies past the end of the
// target's Debug RAM.
var ErrBadIndex = errors.New("debug RAM index out of range")

// Address maps a linear Debug RAM word index to its debug-bus register
// address. The first 16 words are densely addressed; later words live in
// a second block at 0x40.
func Address(index uint32) uint16 {
	if index < 0x10 {
		return uint16(index)
	}

	return uint16(0x40 + index - 0x10)
}

// RAM is the host-side handle on the target's Debug RAM. It keeps a
// mirror of what was last written, with a per-word valid bit; a word is
// only trusted once its write has round-tripped through VerifyWord.
type RAM struct {
	session *dtm.Session
	words   []uint32
	valid   uint64
}

// New returns a RAM of the given word count, with the whole mirror
// invalid.
func New(session *dtm.Session, words uint32) *RAM {
	return &RAM{
		session: session,
		words:   make([]uint32, words),
	}
}

// Size returns the number of 32-bit words of Debug RAM.
func (r *RAM) Size() uint32 {
	return uint32(len(r.words))
}

func (r *RAM) checkIndex(index uint32) error {
	if index >= uint32(len(r.words)) {
		return fmt.Errorf("%w: word %d of %d", ErrBadIndex, index, len(r.words))
	}

	return nil
}

// ReadWord reads one word back from the device.
func (r *RAM) ReadWord(index uint32) (uint32, error) {
	if err := r.checkIndex(index); err != nil {
		return 0, err
	}

	address := Address(index)

	value, err := r.session.ReadThen(address, address)
	if err != nil {
		return 0, err
	}

	return uint32(value), nil
}

// WriteWord writes value to the word at index. The halt-request bit is
// always driven with the write; setInterrupt additionally raises the
// debug interrupt, telling the target to execute the staged program at
// once. The mirror is updated optimistically; only VerifyWord confirms
// the device copy.
func (r *RAM) WriteWord(index uint32, value uint32, setInterrupt bool) error {
	if err := r.checkIndex(index); err != nil {
		return err
	}

	busValue := dtm.HaltNotBit | uint64(value)
	if setInterrupt {
		busValue |= dtm.InterruptBit
	}

	if err := r.session.Write(Address(index), busValue); err != nil {
		r.valid &^= 1 << index
		return err
	}

	r.words[index] = value
	r.valid |= 1 << index

	return nil
}

// VerifyWord reads the word at index back and compares it with expected.
// A mismatch is logged and reported through the return value; the caller
// decides whether to abort its staging sequence.
func (r *RAM) VerifyWord(index uint32, expected uint32) (bool, error) {
	actual, err := r.ReadWord(index)
	if err != nil {
		return false, err
	}

	if actual != expected {
		log.Printf("rvdbg: wrote 0x%x to debug RAM word %d, but read back 0x%x",
			expected, index, actual)
		r.valid &^= 1 << index
		return false, nil
	}

	return true, nil
}

// WriteResumeJump writes a jump from the word at index back to the debug
// ROM resume vector. Every staged program ends with one so the target
// returns to the debug monitor instead of running off the end of Debug
// RAM.
func (r *RAM) WriteResumeJump(index uint32, setInterrupt bool) error {
	geom := r.session.Geometry()
	offset := geom.ResumeVector - (geom.RAMBase + 4*index)

	return r.WriteWord(index, riscv.JAL(riscv.RegZero, offset), setInterrupt)
}

// Invalidate drops the whole mirror. Called when the device may have
// changed Debug RAM behind our back, e.g. after a reset.
func (r *RAM) Invalidate() {
	r.valid = 0
}

// CachedWord returns the mirrored value of a word and whether the mirror
// is known to match the device. An index past the end of the RAM is never
// valid.
func (r *RAM) CachedWord(index uint32) (uint32, bool) {
	if index >= uint32(len(r.words)) {
		return 0, false
	}

	return r.words[index], r.valid&(1<<index) != 0
}
