// Package riscv encodes the handful of RV32I instructions the debugger
// stages into Debug RAM.
package riscv

// GPR numbers used by staged programs.
const (
	RegZero uint32 = 0
	RegS1   uint32 = 9
)

// Debug control/status CSR of the pre-0.13 debug unit.
const (
	CSRDCSR  uint32 = 0x790
	DCSRHalt uint32 = 1 << 3
)

func bits(value uint32, hi, lo uint) uint32 {
	return (value >> lo) & ((1 << (hi - lo + 1)) - 1)
}

func bit(value uint32, b uint) uint32 {
	return (value >> b) & 1
}

// JAL encodes jal rd, imm. The immediate is a byte offset relative to the
// instruction's own address.
func JAL(rd uint32, imm uint32) uint32 {
	return bit(imm, 20)<<31 |
		bits(imm, 10, 1)<<21 |
		bit(imm, 11)<<20 |
		bits(imm, 19, 12)<<12 |
		rd<<7 |
		0x6f
}

// XORI encodes xori rd, rs1, imm.
func XORI(rd, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&0xfff)<<20 |
		rs1<<15 |
		4<<12 |
		rd<<7 |
		0x13
}

// SRLI encodes srli rd, rs1, shamt.
func SRLI(rd, rs1, shamt uint32) uint32 {
	return shamt<<20 |
		rs1<<15 |
		5<<12 |
		rd<<7 |
		0x13
}

// SW encodes sw src, offset(base).
func SW(src, base uint32, offset int32) uint32 {
	imm := uint32(offset)

	return bits(imm, 11, 5)<<25 |
		src<<20 |
		base<<15 |
		2<<12 |
		bits(imm, 4, 0)<<7 |
		0x23
}

// CSRSI encodes csrrsi zero, csr, zimm, setting the given bits in the CSR.
func CSRSI(csr uint32, zimm uint32) uint32 {
	return csr<<20 |
		bits(zimm, 4, 0)<<15 |
		6<<12 |
		0x73
}
