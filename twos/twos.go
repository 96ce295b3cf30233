// Package twos bridges mathematical signed integers and fixed-width
// 32-bit two's-complement bitvec.Bits, and decomposes/recomposes values
// into sign/magnitude form for the multiply/divide unit.
package twos

import (
	"fmt"
	"math"

	"rv32bits/bitvec"
)

// SignMag32 is a sign bit plus a trimmed, non-empty magnitude with no
// embedded sign.
type SignMag32 struct {
	Sign bitvec.Bit
	Mag  bitvec.Bits
}

func ensure32(b bitvec.Bits) bitvec.Bits {
	switch {
	case len(b) == 0:
		return bitvec.ZeroExtend(bitvec.Bits{0}, 32)
	case len(b) < 32:
		return bitvec.SignExtend(b, 32)
	case len(b) > 32:
		return bitvec.Slice(b, 31, 0)
	default:
		return b
	}
}

// DecodeI32ToSignAndMagnitude splits a 32-bit two's-complement value
// into a sign bit and a trimmed, non-empty magnitude. Non-negative
// values pass through as their own magnitude; negative values are
// two's-negated first.
func DecodeI32ToSignAndMagnitude(b32 bitvec.Bits) SignMag32 {
	w := ensure32(b32)
	sign := w[31]

	var mag bitvec.Bits
	if sign == 0 {
		mag = bitvec.TrimLeading(w)
	} else {
		mag = bitvec.TrimLeading(bitvec.TwosNegate(w))
	}
	if len(mag) == 0 {
		mag = bitvec.Bits{0}
	}
	return SignMag32{Sign: sign, Mag: mag}
}

// EncodeI32FromSignAndMagnitude zero-extends magnitude to 32 bits and
// negates it if sign is 1.
func EncodeI32FromSignAndMagnitude(sign bitvec.Bit, magnitude bitvec.Bits) bitvec.Bits {
	mag32 := bitvec.ZeroExtend(magnitude, 32)
	if sign == 0 {
		return mag32
	}
	return bitvec.TwosNegate(mag32)
}

// EncodeI32Result is the output of EncodeTwosI32.
type EncodeI32Result struct {
	Bits     bitvec.Bits
	Hex      string
	Overflow bool
}

// EncodeTwosI32 wraps a mathematical integer into a 32-bit two's-
// complement pattern, reporting overflow if the value falls outside
// the signed 32-bit range.
func EncodeTwosI32(value int64) EncodeI32Result {
	overflow := value < math.MinInt32 || value > math.MaxInt32

	u := uint32(value) // wraps, matching two's-complement semantics
	b := bitvec.FromUint32(u)

	return EncodeI32Result{
		Bits:     b,
		Hex:      bitvec.ToHexString(b, true),
		Overflow: overflow,
	}
}

// DecodeTwosI32 sign-extends or truncates b to exactly 32 bits, then
// interprets the result as a signed two's-complement integer.
func DecodeTwosI32(b bitvec.Bits) int64 {
	w := ensure32(b)
	u := bitvec.ToUint32(w)
	return int64(int32(u))
}

// String gives a debug-friendly rendering of an EncodeI32Result.
func (r EncodeI32Result) String() string {
	return fmt.Sprintf("{bits=%s overflow=%v}", r.Hex, r.Overflow)
}
