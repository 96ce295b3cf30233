// Package fpu implements IEEE-754 binary32 add/sub/mul on top of the
// same shift-add building blocks the integer units use: no native
// floating-point arithmetic appears anywhere in this package.
package fpu

import (
	"fmt"

	"rv32bits/bitvec"
)

// Fields is a float32 value split into its sign bit, 8-bit exponent,
// and 23-bit fraction.
type Fields struct {
	Sign     bitvec.Bit
	Exponent bitvec.Bits
	Fraction bitvec.Bits
}

// Flags describe conditions a float32 operation ran into.
type Flags struct {
	Overflow  bool
	Underflow bool
	Invalid   bool
	Inexact   bool
}

// Result is a float32 operation's output bits, its flags, and a trace
// of what the operation did internally.
type Result struct {
	Bits  bitvec.Bits
	Flags Flags
	Trace []string
}

func zeroResult() Result {
	return Result{Bits: make(bitvec.Bits, 32)}
}

// Unpack splits a 32-bit float pattern into sign, exponent, and
// fraction fields.
func Unpack(bits bitvec.Bits) Fields {
	b32 := bitvec.ZeroExtend(bits, 32)

	f := Fields{
		Sign:     b32[31],
		Fraction: make(bitvec.Bits, 23),
		Exponent: make(bitvec.Bits, 8),
	}
	copy(f.Fraction, b32[0:23])
	copy(f.Exponent, b32[23:31])

	return f
}

// Pack combines sign, exponent, and fraction fields into a 32-bit
// float pattern, the inverse of Unpack.
func Pack(f Fields) bitvec.Bits {
	b32 := make(bitvec.Bits, 32)

	n := len(f.Fraction)
	if n > 23 {
		n = 23
	}
	copy(b32[0:n], f.Fraction[:n])

	n = len(f.Exponent)
	if n > 8 {
		n = 8
	}
	copy(b32[23:23+n], f.Exponent[:n])

	b32[31] = f.Sign

	return b32
}

func compareUnsigned(a, b bitvec.Bits) int {
	width := len(a)
	if len(b) < width {
		width = len(b)
	}
	if width == 0 {
		return 0
	}
	for i := width - 1; i >= 0; i-- {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func addUnsigned(a, b bitvec.Bits, width int) (bitvec.Bits, bitvec.Bit) {
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

	return sum, carry
}

func subtractUnsigned(a, b bitvec.Bits, width int) (bitvec.Bits, bitvec.Bit) {
	diff := make(bitvec.Bits, width)
	var borrow bitvec.Bit

	for i := 0; i < width; i++ {
		var ai, bi bitvec.Bit
		if i < len(a) {
			ai = a[i]
		}
		if i < len(b) {
			bi = b[i]
		}
		bin := borrow
		d := ai ^ bi ^ bin
		diff[i] = d

		notAi := ai ^ 1
		borrow = (notAi & (bi | bin)) | (bi & bin)
	}

	return diff, borrow
}

func shiftRightLogical(v bitvec.Bits, width int) {
	if width == 0 {
		return
	}
	for i := 0; i+1 < width; i++ {
		v[i] = v[i+1]
	}
	v[width-1] = 0
}

func shiftLeftLogical(v bitvec.Bits, width int) {
	if width == 0 {
		return
	}
	for i := width - 1; i > 0; i-- {
		v[i] = v[i-1]
	}
	v[0] = 0
}

func allOnes(width int) bitvec.Bits {
	b := make(bitvec.Bits, width)
	for i := range b {
		b[i] = 1
	}
	return b
}

func oneAt(width int) bitvec.Bits {
	b := make(bitvec.Bits, width)
	b[0] = 1
	return b
}

// Add adds two float32 values.
func Add(a, b bitvec.Bits) Result {
	out := zeroResult()
	out.Trace = append(out.Trace, "fadd_f32 start")

	a32 := bitvec.ZeroExtend(a, 32)
	b32 := bitvec.ZeroExtend(b, 32)

	fa := Unpack(a32)
	fb := Unpack(b32)

	if bitvec.IsZero(fa.Exponent) && bitvec.IsZero(fa.Fraction) {
		out.Bits = b32
		out.Trace = append(out.Trace, "a is zero -> return b")
		return out
	}
	if bitvec.IsZero(fb.Exponent) && bitvec.IsZero(fb.Fraction) {
		out.Bits = a32
		out.Trace = append(out.Trace, "b is zero -> return a")
		return out
	}

	sigA := make(bitvec.Bits, 24)
	sigB := make(bitvec.Bits, 24)
	copy(sigA[0:23], fa.Fraction)
	copy(sigB[0:23], fb.Fraction)
	sigA[23] = 1
	sigB[23] = 1

	var expBig, expSmall bitvec.Bits
	var sigBig, sigSmall bitvec.Bits
	var signBig, signSmall bitvec.Bit

	if compareUnsigned(fa.Exponent, fb.Exponent) >= 0 {
		expBig, expSmall = fa.Exponent, fb.Exponent
		sigBig, sigSmall = sigA, sigB
		signBig, signSmall = fa.Sign, fb.Sign
	} else {
		expBig, expSmall = fb.Exponent, fa.Exponent
		sigBig, sigSmall = sigB, sigA
		signBig, signSmall = fb.Sign, fa.Sign
	}

	expTmp := append(bitvec.Bits(nil), expBig...)
	sigSmallAligned := append(bitvec.Bits(nil), sigSmall...)
	oneExp := oneAt(8)

	for compareUnsigned(expTmp, expSmall) > 0 {
		shiftRightLogical(sigSmallAligned, 24)

		next, borrowE := subtractUnsigned(expTmp, oneExp, 8)
		expTmp = next
		if borrowE == 1 {
			break
		}
	}

	if signBig == signSmall {
		sigSum, carry := addUnsigned(sigBig, sigSmallAligned, 24)
		expRes := append(bitvec.Bits(nil), expBig...)

		if carry == 1 {
			shiftRightLogical(sigSum, 24)
			sum, _ := addUnsigned(expRes, oneAt(8), 8)
			expRes = sum
		}

		fres := Fields{Sign: signBig, Exponent: expRes, Fraction: make(bitvec.Bits, 23)}
		copy(fres.Fraction, sigSum[0:23])

		out.Bits = Pack(fres)
		out.Trace = append(out.Trace, "fadd_f32 normal same-sign add")
		return out
	}

	sigBigLocal := append(bitvec.Bits(nil), sigBig...)
	sigSmallLocal := append(bitvec.Bits(nil), sigSmallAligned...)

	magCmp := compareUnsigned(sigBigLocal, sigSmallLocal)
	resultSign := signBig

	switch {
	case magCmp < 0:
		sigBigLocal, sigSmallLocal = sigSmallLocal, sigBigLocal
		resultSign = signSmall
	case magCmp == 0:
		fres := Fields{Sign: 0, Exponent: make(bitvec.Bits, 8), Fraction: make(bitvec.Bits, 23)}
		out.Bits = Pack(fres)
		out.Trace = append(out.Trace, "fadd_f32 different-sign: exact zero")
		return out
	}

	sigDiff, _ := subtractUnsigned(sigBigLocal, sigSmallLocal, 24)
	expRes := append(bitvec.Bits(nil), expBig...)

	if bitvec.IsZero(sigDiff) {
		fres := Fields{Sign: 0, Exponent: make(bitvec.Bits, 8), Fraction: make(bitvec.Bits, 23)}
		out.Bits = Pack(fres)
		out.Trace = append(out.Trace, "fadd_f32 different-sign: diff zero")
		return out
	}

	for sigDiff[23] == 0 && !bitvec.IsZero(sigDiff) {
		shiftLeftLogical(sigDiff, 24)

		next, borrowE := subtractUnsigned(expRes, oneExp, 8)
		expRes = next
		if borrowE == 1 {
			break
		}
	}

	fres := Fields{Sign: resultSign, Exponent: expRes, Fraction: make(bitvec.Bits, 23)}
	copy(fres.Fraction, sigDiff[0:23])

	out.Bits = Pack(fres)
	out.Trace = append(out.Trace, "fadd_f32 different-sign subtract")
	return out
}

// Sub computes a - b by flipping b's sign bit and calling Add.
func Sub(a, b bitvec.Bits) Result {
	b32 := bitvec.ZeroExtend(b, 32)
	bNeg := append(bitvec.Bits(nil), b32...)
	bNeg[31] = b32[31] ^ 1

	return Add(a, bNeg)
}

var thresh382 = bitvec.Bits{0, 1, 1, 1, 1, 1, 1, 0, 1}

// Mul multiplies two float32 values, handling NaN, infinity, and zero
// operands before running a 24x24->48 shift-add significand multiply.
func Mul(a, b bitvec.Bits) Result {
	out := zeroResult()
	out.Trace = append(out.Trace, "fmul_f32 start")

	a32 := bitvec.ZeroExtend(a, 32)
	b32 := bitvec.ZeroExtend(b, 32)

	fa := Unpack(a32)
	fb := Unpack(b32)

	signRes := fa.Sign ^ fb.Sign

	expAZero := bitvec.IsZero(fa.Exponent)
	expBZero := bitvec.IsZero(fb.Exponent)
	expAOnes := bitvec.IsAllOnes(fa.Exponent)
	expBOnes := bitvec.IsAllOnes(fb.Exponent)

	fracAZero := bitvec.IsZero(fa.Fraction)
	fracBZero := bitvec.IsZero(fb.Fraction)

	aIsZero := expAZero && fracAZero
	bIsZero := expBZero && fracBZero
	aIsInf := expAOnes && fracAZero
	bIsInf := expBOnes && fracBZero
	aIsNaN := expAOnes && !fracAZero
	bIsNaN := expBOnes && !fracBZero

	nanBits := bitvec.ZeroExtend(bitvec.MustFromHexString("0x7fc00000"), 32)

	if aIsNaN || bIsNaN {
		out.Bits = nanBits
		out.Flags.Invalid = true
		out.Trace = append(out.Trace, "fmul_f32: NaN operand")
		return out
	}

	if (aIsInf && bIsZero) || (bIsInf && aIsZero) {
		out.Bits = nanBits
		out.Flags.Invalid = true
		out.Trace = append(out.Trace, "fmul_f32: 0 * inf invalid")
		return out
	}

	if aIsInf || bIsInf {
		fres := Fields{Sign: signRes, Exponent: allOnes(8), Fraction: make(bitvec.Bits, 23)}
		out.Bits = Pack(fres)
		out.Trace = append(out.Trace, "fmul_f32: inf result")
		return out
	}

	if aIsZero || bIsZero {
		fres := Fields{Sign: signRes, Exponent: make(bitvec.Bits, 8), Fraction: make(bitvec.Bits, 23)}
		out.Bits = Pack(fres)
		out.Trace = append(out.Trace, "fmul_f32: zero result")
		return out
	}

	expA9 := bitvec.ZeroExtend(fa.Exponent, 9)
	expB9 := bitvec.ZeroExtend(fb.Exponent, 9)

	expSum9, _ := addUnsigned(expA9, expB9, 9)

	if compareUnsigned(expSum9, thresh382) >= 0 {
		out.Flags.Overflow = true
		fres := Fields{Sign: signRes, Exponent: allOnes(8), Fraction: make(bitvec.Bits, 23)}
		out.Bits = Pack(fres)
		out.Trace = append(out.Trace, "fmul_f32: pre-check exponent overflow")
		return out
	}

	expSum, _ := addUnsigned(fa.Exponent, fb.Exponent, 8)

	bias := make(bitvec.Bits, 8)
	for i := 0; i < 7; i++ {
		bias[i] = 1
	}

	expTmp, borrowBias := subtractUnsigned(expSum, bias, 8)
	if borrowBias == 1 {
		out.Flags.Underflow = true
		fres := Fields{Sign: signRes, Exponent: make(bitvec.Bits, 8), Fraction: make(bitvec.Bits, 23)}
		out.Bits = Pack(fres)
		out.Trace = append(out.Trace, "fmul_f32: exponent underflow before normalization")
		return out
	}

	sigA := make(bitvec.Bits, 24)
	sigB := make(bitvec.Bits, 24)
	copy(sigA[0:23], fa.Fraction)
	copy(sigB[0:23], fb.Fraction)
	if !expAZero {
		sigA[23] = 1
	}
	if !expBZero {
		sigB[23] = 1
	}

	prod := make(bitvec.Bits, 48)
	multiplicand := make(bitvec.Bits, 48)
	copy(multiplicand[0:24], sigA)
	multiplier := append(bitvec.Bits(nil), sigB...)

	for step := 0; step < 24; step++ {
		if multiplier[0] == 1 {
			sum, _ := addUnsigned(prod, multiplicand, 48)
			prod = sum
		}
		shiftRightLogical(multiplier, 24)
		shiftLeftLogical(multiplicand, 48)
	}

	out.Trace = append(out.Trace, "fmul_f32: after significand multiply")

	high := prod[47] == 1
	expRes := expTmp

	if high {
		sum, carryE := addUnsigned(expRes, oneAt(8), 8)
		expRes = sum
		if carryE == 1 {
			out.Flags.Overflow = true
			fres := Fields{Sign: signRes, Exponent: allOnes(8), Fraction: make(bitvec.Bits, 23)}
			out.Bits = Pack(fres)
			out.Trace = append(out.Trace, "fmul_f32: exponent overflow after normalization")
			return out
		}
	}

	shift := 23
	if high {
		shift = 24
	}
	sigRes := make(bitvec.Bits, 24)
	for i := 0; i < 24; i++ {
		idx := i + shift
		if idx < 48 {
			sigRes[i] = prod[idx]
		}
	}

	if bitvec.IsZero(expRes) {
		out.Flags.Underflow = true
		fres := Fields{Sign: signRes, Exponent: make(bitvec.Bits, 8), Fraction: make(bitvec.Bits, 23)}
		out.Bits = Pack(fres)
		out.Trace = append(out.Trace, "fmul_f32: underflow to zero")
		return out
	}

	if bitvec.IsAllOnes(expRes) {
		out.Flags.Overflow = true
		fres := Fields{Sign: signRes, Exponent: allOnes(8), Fraction: make(bitvec.Bits, 23)}
		out.Bits = Pack(fres)
		out.Trace = append(out.Trace, "fmul_f32: overflow to inf")
		return out
	}

	fres := Fields{Sign: signRes, Exponent: expRes, Fraction: make(bitvec.Bits, 23)}
	copy(fres.Fraction, sigRes[0:23])

	out.Bits = Pack(fres)
	out.Trace = append(out.Trace, "fmul_f32: normal finite result")
	return out
}

// String renders a Fields value for debugging, matching the
// sign/exponent/fraction hex grouping the rest of this module uses for
// trace output.
func (f Fields) String() string {
	return fmt.Sprintf("sign=%d exp=%s frac=%s",
		f.Sign, bitvec.ToHexString(f.Exponent, true), bitvec.ToHexString(f.Fraction, true))
}
