// Package alu implements the 32-bit add/sub arithmetic-logic unit with
// N/Z/C/V flag derivation.
package alu

import "rv32bits/bitvec"

// Op selects which ALU operation Execute performs. Sll/Srl/Sra are
// declared here because the RISC-V OP/OP-IMM opcode space shares a
// selector with the shifts, but the ALU itself only implements
// Add/Sub; every other selector passes the first operand through
// unchanged (see Execute's default case, and spec §9's Open Questions
// on wiring the ALU to the shifter).
type Op int

const (
	Add Op = iota
	Sub
	Sll
	Srl
	Sra
)

// Flags are the four status bits a 32-bit add/sub produces.
type Flags struct {
	N bitvec.Bit // MSB of the result
	Z bitvec.Bit // 1 iff every result bit is 0
	C bitvec.Bit // carry-out of the top adder bit (Sub: 1 means no borrow)
	V bitvec.Bit // signed overflow
}

// Result is a 32-bit value plus the flags that add/sub produced.
type Result struct {
	Value bitvec.Bits
	Flags Flags
}

type addResult struct {
	sum      bitvec.Bits
	carryOut bitvec.Bit
}

func add32(a, b bitvec.Bits) addResult {
	sum := make(bitvec.Bits, 32)
	var carry bitvec.Bit

	for i := 0; i < 32; i++ {
		ai, bi := a[i], b[i]
		partial := ai ^ bi
		s := partial ^ carry
		carryNext := (ai & bi) | (ai & carry) | (bi & carry)

		sum[i] = s
		carry = carryNext
	}

	return addResult{sum: sum, carryOut: carry}
}

func computeZeroFlag(r bitvec.Bits) bitvec.Bit {
	if bitvec.IsZero(r) {
		return 1
	}
	return 0
}

// Execute zero-extends both operands to 32 bits and runs one ALU
// operation. Add and Sub derive all four flags; every other op
// selector passes a through as the result with C and V cleared.
func Execute(a, b bitvec.Bits, op Op) Result {
	a32 := bitvec.ZeroExtend(a, 32)
	b32 := bitvec.ZeroExtend(b, 32)

	var result bitvec.Bits
	var flags Flags

	switch op {
	case Add:
		res := add32(a32, b32)
		result = res.sum

		signA, signB, signR := a32[31], b32[31], result[31]
		flags.N = signR
		flags.Z = computeZeroFlag(result)
		flags.C = res.carryOut
		if signA == signB && signR != signA {
			flags.V = 1
		}

	case Sub:
		negB := bitvec.TwosNegate(b32)
		res := add32(a32, negB)
		result = res.sum

		signA, signB, signR := a32[31], b32[31], result[31]
		flags.N = signR
		flags.Z = computeZeroFlag(result)
		flags.C = res.carryOut
		if signA != signB && signR != signA {
			flags.V = 1
		}

	default:
		result = a32
		flags.N = result[31]
		flags.Z = computeZeroFlag(result)
	}

	return Result{Value: result, Flags: flags}
}
