package alu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rv32bits/bitvec"
)

func to32(hex string) bitvec.Bits {
	return bitvec.ZeroExtend(bitvec.MustFromHexString(hex), 32)
}

func TestAddSignedOverflow(t *testing.T) {
	res := Execute(to32("0x7FFFFFFF"), to32("0x00000001"), Add)
	assert.Equal(t, "0x80000000", bitvec.ToHexString(res.Value, true))
	assert.Equal(t, Flags{N: 1, Z: 0, C: 0, V: 1}, res.Flags)
}

func TestSubSignedOverflowAndBorrow(t *testing.T) {
	res := Execute(to32("0x80000000"), to32("0x00000001"), Sub)
	assert.Equal(t, "0x7fffffff", bitvec.ToHexString(res.Value, true))
	assert.Equal(t, Flags{N: 0, Z: 0, C: 1, V: 1}, res.Flags)
}

func TestAddUnsignedCarryNoSignedOverflow(t *testing.T) {
	res := Execute(to32("0xFFFFFFFF"), to32("0xFFFFFFFF"), Add)
	assert.Equal(t, "0xfffffffe", bitvec.ToHexString(res.Value, true))
	assert.Equal(t, Flags{N: 1, Z: 0, C: 1, V: 0}, res.Flags)
}

func TestAddZeroResult(t *testing.T) {
	res := Execute(to32("0x0000000D"), to32("0xFFFFFFF3"), Add)
	assert.Equal(t, "0x0", bitvec.ToHexString(res.Value, true))
	assert.Equal(t, Flags{N: 0, Z: 1, C: 1, V: 0}, res.Flags)
}

func TestSubEquivalentToAddNegated(t *testing.T) {
	pairs := [][2]string{
		{"0x00000005", "0x00000003"},
		{"0x80000000", "0x00000001"},
		{"0x7fffffff", "0xffffffff"},
		{"0x00000000", "0x00000000"},
	}
	for _, p := range pairs {
		a, b := to32(p[0]), to32(p[1])
		sub := Execute(a, b, Sub)
		addNeg := Execute(a, bitvec.TwosNegate(b), Add)
		assert.Equal(t, bitvec.ToHexString(sub.Value, true), bitvec.ToHexString(addNeg.Value, true))
	}
}

func TestPassthroughForOtherOps(t *testing.T) {
	a := to32("0x80000001")
	for _, op := range []Op{Sll, Srl, Sra} {
		res := Execute(a, to32("0x00000000"), op)
		assert.Equal(t, bitvec.ToHexString(a, true), bitvec.ToHexString(res.Value, true))
		assert.Equal(t, bitvec.Bit(1), res.Flags.N)
		assert.Equal(t, bitvec.Bit(0), res.Flags.C)
		assert.Equal(t, bitvec.Bit(0), res.Flags.V)
	}
}
