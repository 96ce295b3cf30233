package fpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rv32bits/bitvec"
)

func h(hex string) bitvec.Bits {
	return bitvec.MustFromHexString(hex)
}

func TestUnpackPackRoundTripSimple(t *testing.T) {
	pattern := h("0x40700000")

	f := Unpack(pattern)
	rebuilt := Pack(f)

	require.Equal(t, 32, len(rebuilt))
	assert.Equal(t, bitvec.ToHexString(pattern, true), bitvec.ToHexString(rebuilt, true))
}

func TestArithmeticOnZerosProduces32Bits(t *testing.T) {
	a := make(bitvec.Bits, 32)
	b := make(bitvec.Bits, 32)

	addRes := Add(a, b)
	subRes := Sub(a, b)
	mulRes := Mul(a, b)

	assert.Len(t, addRes.Bits, 32)
	assert.Len(t, subRes.Bits, 32)
	assert.Len(t, mulRes.Bits, 32)

	assert.False(t, addRes.Flags.Overflow)
	assert.False(t, addRes.Flags.Underflow)
	assert.False(t, addRes.Flags.Invalid)
}

func TestAdd1p5Plus2p25Equals3p75(t *testing.T) {
	a := h("0x3fc00000") // 1.5
	b := h("0x40100000") // 2.25

	res := Add(a, b)

	assert.Equal(t, "0x40700000", bitvec.ToHexString(res.Bits, true))
	assert.False(t, res.Flags.Overflow)
	assert.False(t, res.Flags.Underflow)
	assert.False(t, res.Flags.Invalid)

	require.NotEmpty(t, res.Trace)
	assert.Equal(t, "fadd_f32 normal same-sign add", res.Trace[len(res.Trace)-1])
}

func TestSub2p25Minus1p5Equals0p75(t *testing.T) {
	a := h("0x40100000") // 2.25
	b := h("0x3fc00000") // 1.5

	res := Sub(a, b)

	assert.Equal(t, "0x3f400000", bitvec.ToHexString(res.Bits, true))
	assert.False(t, res.Flags.Overflow)
	assert.False(t, res.Flags.Underflow)
	assert.False(t, res.Flags.Invalid)

	require.NotEmpty(t, res.Trace)
	assert.Equal(t, "fadd_f32 different-sign subtract", res.Trace[len(res.Trace)-1])
}

func TestMul1p5Times2Equals3(t *testing.T) {
	a := h("0x3fc00000") // 1.5
	b := h("0x40000000") // 2.0

	res := Mul(a, b)

	assert.Equal(t, "0x40400000", bitvec.ToHexString(res.Bits, true))
	assert.False(t, res.Flags.Overflow)
	assert.False(t, res.Flags.Underflow)
	assert.False(t, res.Flags.Invalid)
}

func TestMulOverflowGoesToInf(t *testing.T) {
	a := h("0x7e967699") // ~1e38
	b := h("0x41200000") // 10.0

	res := Mul(a, b)

	assert.Equal(t, "0x7f800000", bitvec.ToHexString(res.Bits, true))
	assert.True(t, res.Flags.Overflow)
	assert.False(t, res.Flags.Invalid)
}

func TestMulUnderflowTowardsZero(t *testing.T) {
	a := h("0x006ce3ee") // ~1e-38
	b := h("0x3c23d70a") // 1e-2

	res := Mul(a, b)

	assert.True(t, res.Flags.Underflow)
	assert.False(t, res.Flags.Overflow)
}

func TestMulNaNOperandIsInvalid(t *testing.T) {
	nan := h("0x7fc00001")
	one := h("0x3f800000")

	res := Mul(nan, one)

	assert.Equal(t, "0x7fc00000", bitvec.ToHexString(res.Bits, true))
	assert.True(t, res.Flags.Invalid)
}

func TestMulZeroTimesInfinityIsInvalid(t *testing.T) {
	zero := make(bitvec.Bits, 32)
	inf := h("0x7f800000")

	res := Mul(zero, inf)

	assert.Equal(t, "0x7fc00000", bitvec.ToHexString(res.Bits, true))
	assert.True(t, res.Flags.Invalid)
}

func TestAddWithZeroOperandReturnsOther(t *testing.T) {
	zero := make(bitvec.Bits, 32)
	v := h("0x3fc00000")

	assert.Equal(t, bitvec.ToHexString(v, true), bitvec.ToHexString(Add(zero, v).Bits, true))
	assert.Equal(t, bitvec.ToHexString(v, true), bitvec.ToHexString(Add(v, zero).Bits, true))
}

func TestAddOppositeSignsEqualMagnitudeYieldsPositiveZero(t *testing.T) {
	v := bitvec.ZeroExtend(h("0x3fc00000"), 32) // 1.5
	neg := append(bitvec.Bits(nil), v...)
	neg[31] = 1 // -1.5

	res := Add(v, neg)

	assert.True(t, bitvec.IsZero(res.Bits))
}
