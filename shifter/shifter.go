// Package shifter implements the fixed 32-bit logical-left,
// logical-right, and arithmetic-right barrel shifts used by the CPU's
// shift instructions.
package shifter

import (
	"fmt"

	"rv32bits/bitvec"
)

// Op selects which kind of shift Execute performs.
type Op int

const (
	Sll Op = iota
	Srl
	Sra
)

// Execute shifts a 32-bit value by shamt (only the low 5 bits of which
// are used) according to op. Panics if value is not exactly 32 bits
// wide — a precondition violation per the error-handling design.
func Execute(value bitvec.Bits, shamt uint32, op Op) bitvec.Bits {
	if len(value) != 32 {
		panic(fmt.Sprintf("shifter: value must be 32 bits, got %d", len(value)))
	}

	s := int(shamt & 31)
	out := make(bitvec.Bits, 32)

	switch op {
	case Sll:
		for i := 0; i < 32; i++ {
			dest := i + s
			if dest < 32 {
				out[dest] = value[i]
			}
		}
	case Srl:
		for i := 0; i < 32; i++ {
			src := i + s
			if src < 32 {
				out[i] = value[src]
			}
		}
	case Sra:
		sign := value[31]
		for i := 0; i < 32; i++ {
			src := i + s
			if src < 32 {
				out[i] = value[src]
			} else {
				out[i] = sign
			}
		}
	default:
		panic(fmt.Sprintf("shifter: unknown op %v", op))
	}

	return out
}
