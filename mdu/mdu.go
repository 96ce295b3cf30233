// Package mdu implements the multiply/divide unit: a signed 32x32->64
// shift-add multiplier and a signed 32/32 restoring divider, each
// honoring the RISC-V special-case rules and each producing a
// step-by-step trace.
package mdu

import (
	"fmt"

	"rv32bits/bitvec"
	"rv32bits/twos"
)

// MulOp selects which multiply variant Mul performs. Only Mul (the low
// 32 bits of the signed 64-bit product) is implemented; the others are
// declared so dispatch sites must acknowledge them, per the
// exhaustive-enum guidance in the design notes, but currently produce
// zeroed results.
type MulOp int

const (
	OpMul MulOp = iota
	OpMulh
	OpMulhu
	OpMulhsu
)

// DivOp selects which divide/remainder variant Div performs. Only Div
// (signed division) is implemented.
type DivOp int

const (
	OpDiv DivOp = iota
	OpDivu
	OpRem
	OpRemu
)

// MulResult is the low and high 32-bit halves of a 64-bit signed
// product, an overflow flag, and the step trace.
type MulResult struct {
	Lo       bitvec.Bits
	Hi       bitvec.Bits
	Overflow bool
	Trace    []string
}

// DivResult is a 32-bit quotient and remainder, an overflow flag (set
// only for the INT_MIN/-1 special case), and the step trace.
type DivResult struct {
	Q        bitvec.Bits
	R        bitvec.Bits
	Overflow bool
	Trace    []string
}

type addResult struct {
	sum      bitvec.Bits
	carryOut bitvec.Bit
}

func addFixedWidth(a, b bitvec.Bits, width int) addResult {
	sum := make(bitvec.Bits, width)
	var carry bitvec.Bit

	for i := 0; i < width; i++ {
		var ai, bi bitvec.Bit
		if i < len(a) {
			ai = a[i]
		}
		if i < len(b) {
			bi = b[i]
		}
		partial := ai ^ bi
		s := partial ^ carry
		carryNext := (ai & bi) | (ai & carry) | (bi & carry)
		sum[i] = s
		carry = carryNext
	}

	return addResult{sum: sum, carryOut: carry}
}

func twosNegateFixed(v bitvec.Bits, width int) bitvec.Bits {
	inv := make(bitvec.Bits, width)
	for i := 0; i < width; i++ {
		var bit bitvec.Bit
		if i < len(v) {
			bit = v[i]
		}
		inv[i] = bit ^ 1
	}

	one := make(bitvec.Bits, width)
	one[0] = 1

	return addFixedWidth(inv, one, width).sum
}

func compareUnsigned32(a, b bitvec.Bits) int {
	for i := 31; i >= 0; i-- {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func subtractUnsigned32(a, b bitvec.Bits) bitvec.Bits {
	diff := make(bitvec.Bits, 32)
	var borrow bitvec.Bit

	for i := 0; i < 32; i++ {
		ai, bi, bin := a[i], b[i], borrow
		d := ai ^ bi ^ bin
		diff[i] = d

		notAi := ai ^ 1
		borrow = (notAi & (bi | bin)) | (bi & bin)
	}
	return diff
}

func isIntMin32(x bitvec.Bits) bool {
	if x[31] != 1 {
		return false
	}
	for i := 0; i < 31; i++ {
		if x[i] != 0 {
			return false
		}
	}
	return true
}

type unsignedDivResult struct {
	q     bitvec.Bits
	r     bitvec.Bits
	trace []string
}

// divUnsigned32 runs 32 iterations of restoring division. Each step
// snapshots R and Q *after* that step's mutation, numbered 0..31 where
// step i corresponds to dividend bit index (31-i).
func divUnsigned32(dividend, divisor bitvec.Bits) unsignedDivResult {
	r := make(bitvec.Bits, 32)
	q := make(bitvec.Bits, 32)
	var trace []string

	for step, i := 0, 31; i >= 0; step, i = step+1, i-1 {
		for j := 31; j >= 1; j-- {
			r[j] = r[j-1]
		}
		r[0] = dividend[i]

		if compareUnsigned32(r, divisor) >= 0 {
			r = subtractUnsigned32(r, divisor)
			q[i] = 1
		} else {
			q[i] = 0
		}

		trace = append(trace, fmt.Sprintf("step %d: R=%s Q=%s",
			step, bitvec.ToHexString(r, true), bitvec.ToHexString(q, true)))
	}

	return unsignedDivResult{q: q, r: r, trace: trace}
}

// Mul performs a signed 32x32->64 shift-add multiply on the magnitudes
// of rs1 and rs2, negating the result if the operand signs differ. op
// is accepted for interface symmetry with Div but only Mul is
// implemented; other selectors return zeroed results with no trace.
func Mul(op MulOp, rs1, rs2 bitvec.Bits) MulResult {
	rs1_32 := bitvec.ZeroExtend(rs1, 32)
	rs2_32 := bitvec.ZeroExtend(rs2, 32)

	if op != OpMul {
		return MulResult{Lo: make(bitvec.Bits, 32), Hi: make(bitvec.Bits, 32)}
	}

	sm1 := twos.DecodeI32ToSignAndMagnitude(rs1_32)
	sm2 := twos.DecodeI32ToSignAndMagnitude(rs2_32)
	signRes := sm1.Sign ^ sm2.Sign

	mag1 := bitvec.ZeroExtend(sm1.Mag, 32)
	mag2 := bitvec.ZeroExtend(sm2.Mag, 32)

	// p is the 64-bit (low, high) shift-add register; low starts as
	// the multiplier (mag2), high starts zero.
	p := make(bitvec.Bits, 64)
	copy(p[:32], mag2)

	var trace []string
	snapshot := func(step int) {
		lo := p[:32]
		hi := p[32:]
		trace = append(trace, fmt.Sprintf("step %d: acc=%s mul=%s",
			step, bitvec.ToHexString(hi, true), bitvec.ToHexString(lo, true)))
	}

	for step := 0; step < 32; step++ {
		snapshot(step)

		if p[0] == 1 {
			hi := p[32:64]
			sum := addFixedWidth(hi, mag1, 32).sum
			copy(p[32:64], sum)
		}

		for i := 0; i+1 < 64; i++ {
			p[i] = p[i+1]
		}
		p[63] = 0
	}
	snapshot(32)

	var signedProd bitvec.Bits
	if signRes == 0 {
		signedProd = p
	} else {
		signedProd = twosNegateFixed(p, 64)
	}

	lo := append(bitvec.Bits(nil), signedProd[:32]...)
	hi := append(bitvec.Bits(nil), signedProd[32:]...)

	sign32 := signedProd[31]
	overflow := false
	for i := 32; i < 64; i++ {
		if signedProd[i] != sign32 {
			overflow = true
			break
		}
	}

	return MulResult{Lo: lo, Hi: hi, Overflow: overflow, Trace: trace}
}

// Div performs signed 32/32 division. op selectors other than Div are
// not implemented and produce zeroed results with no trace.
func Div(op DivOp, rs1, rs2 bitvec.Bits) DivResult {
	rs1_32 := bitvec.ZeroExtend(rs1, 32) // dividend
	rs2_32 := bitvec.ZeroExtend(rs2, 32) // divisor

	if op != OpDiv {
		return DivResult{Q: make(bitvec.Bits, 32), R: make(bitvec.Bits, 32)}
	}

	sm1 := twos.DecodeI32ToSignAndMagnitude(rs1_32)
	sm2 := twos.DecodeI32ToSignAndMagnitude(rs2_32)

	mag1 := bitvec.ZeroExtend(sm1.Mag, 32)
	mag2 := bitvec.ZeroExtend(sm2.Mag, 32)

	divisorIsZero := bitvec.IsZero(mag2)
	dividendIsIntMin := isIntMin32(rs1_32)
	divisorIsMinusOne := bitvec.IsAllOnes(rs2_32)

	if divisorIsZero {
		q := make(bitvec.Bits, 32)
		for i := range q {
			q[i] = 1
		}
		return DivResult{
			Q:     q,
			R:     append(bitvec.Bits(nil), rs1_32...),
			Trace: []string{"divide-by-zero: q=-1, r=dividend"},
		}
	}

	if dividendIsIntMin && divisorIsMinusOne {
		return DivResult{
			Q:        append(bitvec.Bits(nil), rs1_32...),
			R:        make(bitvec.Bits, 32),
			Overflow: true,
			Trace:    []string{"INT_MIN / -1 special case"},
		}
	}

	signQ := sm1.Sign ^ sm2.Sign

	ures := divUnsigned32(mag1, mag2)

	var qSigned bitvec.Bits
	if signQ == 0 {
		qSigned = ures.q
	} else {
		qSigned = twosNegateFixed(ures.q, 32)
	}

	var rSigned bitvec.Bits
	if sm1.Sign == 0 {
		rSigned = ures.r
	} else {
		rSigned = twosNegateFixed(ures.r, 32)
	}

	return DivResult{Q: qSigned, R: rSigned, Trace: ures.trace}
}
