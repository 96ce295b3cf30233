// Package cpu implements the RV32I fetch/decode/execute loop. Where
// the instruction set calls for add/subtract, shift, multiply/divide,
// or float32 arithmetic, Step converts the operands to bitvec.Bits at
// the register-file boundary and routes them through the alu,
// shifter, mdu, and fpu packages rather than computing on uint32
// directly. Address and jump/branch-target additions also go through
// the alu. Only bitwise logic (AND/OR/XOR), the PC+4 increment and
// saved return address, and the 0/1 results of comparisons (decided
// from ALU flags) are computed on native uint32s.
package cpu

import (
	"encoding/binary"
	"fmt"

	"rv32bits/alu"
	"rv32bits/bitvec"
	"rv32bits/fpu"
	"rv32bits/mdu"
	"rv32bits/shifter"
)

// OP-FP funct7 selectors (RV32F subset: FADD.S/FSUB.S/FMUL.S only).
const (
	fpAdd = 0x00
	fpSub = 0x04
	fpMul = 0x08
)

// CPU is a register file, program counter, and the memory it executes
// against.
type CPU struct {
	Reg   [32]uint32
	PC    uint32
	Mem   *Memory
	Trace bool
}

// NewCPU builds a CPU backed by mem, reset to PC 0 with a zeroed
// register file.
func NewCPU(mem *Memory) *CPU { return &CPU{Mem: mem} }

// Reset restores all registers to 0, PC to 0, and memory to all zeros.
func (c *CPU) Reset() {
	c.Reg = [32]uint32{}
	c.PC = 0
	c.Mem.Zero()
}

// LoadProgram writes words at base as little-endian 32-bit instructions
// and sets PC to base. It panics if the program does not fit in memory.
func (c *CPU) LoadProgram(words []uint32, base uint32) {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	if err := c.Mem.WriteBytes(base, buf); err != nil {
		panic(err)
	}
	c.PC = base
}

func (c *CPU) readReg(i uint32) uint32 {
	if i == 0 {
		return 0
	}
	return c.Reg[i]
}

func (c *CPU) writeReg(i uint32, v uint32) {
	if i != 0 {
		c.Reg[i] = v
	}
}

func (c *CPU) fetch() (uint32, bool) {
	return c.Mem.Read32(c.PC)
}

func aluAdd(a, b uint32) uint32 {
	res := alu.Execute(bitvec.FromUint32(a), bitvec.FromUint32(b), alu.Add)
	return bitvec.ToUint32(res.Value)
}

func aluSub(a, b uint32) alu.Result {
	return alu.Execute(bitvec.FromUint32(a), bitvec.FromUint32(b), alu.Sub)
}

func shift(a uint32, shamt uint32, op shifter.Op) uint32 {
	return bitvec.ToUint32(shifter.Execute(bitvec.FromUint32(a), shamt, op))
}

// Step executes the instruction at PC and advances it. It returns
// false when execution should stop: an out-of-bounds fetch/load/store,
// or an ECALL (treated as a clean halt, matching the teaching
// emulator this is built on).
func (c *CPU) Step() bool {
	if c.PC%4 != 0 {
		panic(fmt.Sprintf("cpu: misaligned PC 0x%x", c.PC))
	}

	inst, ok := c.fetch()
	if !ok {
		fmt.Println("\n[trap] fetch OOB")
		return false
	}

	opcode := inst & 0x7F
	rd := (inst >> 7) & 0x1F
	f3 := (inst >> 12) & 0x7
	rs1 := (inst >> 15) & 0x1F
	rs2 := (inst >> 20) & 0x1F
	f7 := (inst >> 25) & 0x7F

	nextPC := c.PC + 4

	if c.Trace {
		fmt.Printf("pc=%08x inst=%08x\n", c.PC, inst)
	}

	switch opcode {
	case 0x37: // LUI
		c.writeReg(rd, uint32(immU(inst)))

	case 0x17: // AUIPC
		c.writeReg(rd, aluAdd(c.PC, uint32(immU(inst))))

	case 0x6F: // JAL
		imm := uint32(immJ(inst))
		c.writeReg(rd, c.PC+4)
		nextPC = aluAdd(c.PC, imm)

	case 0x67: // JALR
		imm := uint32(immI(inst))
		tgt := aluAdd(c.readReg(rs1), imm) &^ 1
		c.writeReg(rd, c.PC+4)
		nextPC = tgt

	case 0x63: // BRANCH
		a := c.readReg(rs1)
		b := c.readReg(rs2)
		imm := uint32(immB(inst))
		sub := aluSub(a, b)

		var take bool
		switch f3 {
		case 0x0: // BEQ
			take = sub.Flags.Z == 1
		case 0x1: // BNE
			take = sub.Flags.Z == 0
		case 0x4: // BLT
			take = sub.Flags.N != sub.Flags.V
		case 0x5: // BGE
			take = sub.Flags.N == sub.Flags.V
		case 0x6: // BLTU
			take = sub.Flags.C == 0
		case 0x7: // BGEU
			take = sub.Flags.C == 1
		default:
			fmt.Printf("[warn] BRANCH f3=%d\n", f3)
		}
		if take {
			nextPC = aluAdd(c.PC, imm)
		}

	case 0x03: // LOAD
		base := c.readReg(rs1)
		addr := aluAdd(base, uint32(immI(inst)))
		switch f3 {
		case 0x0: // LB
			b, ok := c.Mem.Read8(addr)
			if !ok {
				fmt.Println("\n[trap] LB OOB")
				return false
			}
			c.writeReg(rd, uint32(int32(int8(b))))
		case 0x4: // LBU
			b, ok := c.Mem.Read8(addr)
			if !ok {
				fmt.Println("\n[trap] LBU OOB")
				return false
			}
			c.writeReg(rd, uint32(b))
		case 0x2: // LW
			w, ok := c.Mem.Read32(addr)
			if !ok {
				fmt.Println("\n[trap] LW OOB")
				return false
			}
			c.writeReg(rd, w)
		default:
			fmt.Printf("[warn] LOAD f3=%d\n", f3)
		}

	case 0x23: // STORE
		base := c.readReg(rs1)
		addr := aluAdd(base, uint32(immS(inst)))
		switch f3 {
		case 0x0: // SB
			if !c.Mem.Write8(addr, uint8(c.readReg(rs2)&0xFF)) {
				fmt.Println("\n[trap] SB OOB")
				return false
			}
		case 0x2: // SW
			if !c.Mem.Write32(addr, c.readReg(rs2)) {
				fmt.Println("\n[trap] SW OOB")
				return false
			}
		default:
			fmt.Printf("[warn] STORE f3=%d\n", f3)
		}

	case 0x13: // OP-IMM
		a := c.readReg(rs1)
		imm := uint32(immI(inst))
		switch f3 {
		case 0x0: // ADDI
			c.writeReg(rd, aluAdd(a, imm))
		case 0x4: // XORI
			c.writeReg(rd, a^imm)
		case 0x6: // ORI
			c.writeReg(rd, a|imm)
		case 0x7: // ANDI
			c.writeReg(rd, a&imm)
		case 0x1: // SLLI
			c.writeReg(rd, shift(a, imm&0x1F, shifter.Sll))
		case 0x5:
			shamt := imm & 0x1F
			switch (imm >> 5) & 0x7F { // funct7 lives in bits 11:5 of the I-immediate
			case 0x00: // SRLI
				c.writeReg(rd, shift(a, shamt, shifter.Srl))
			case 0x20: // SRAI
				c.writeReg(rd, shift(a, shamt, shifter.Sra))
			default:
				fmt.Printf("[warn] OP-IMM funct5?\n")
			}
		default:
			fmt.Printf("[warn] OP-IMM f3=%d\n", f3)
		}

	case 0x33: // OP / MDU (funct7 == 0x01)
		a := c.readReg(rs1)
		b := c.readReg(rs2)

		if f7 == 0x01 {
			switch f3 {
			case 0x0: // MUL
				res := mdu.Mul(mdu.OpMul, bitvec.FromUint32(a), bitvec.FromUint32(b))
				c.writeReg(rd, bitvec.ToUint32(res.Lo))
			case 0x4: // DIV
				res := mdu.Div(mdu.OpDiv, bitvec.FromUint32(a), bitvec.FromUint32(b))
				c.writeReg(rd, bitvec.ToUint32(res.Q))
			default:
				fmt.Printf("[warn] MDU f3=%d\n", f3)
			}
			break
		}

		switch f3 {
		case 0x0:
			if f7 == 0x20 { // SUB
				c.writeReg(rd, bitvec.ToUint32(aluSub(a, b).Value))
			} else { // ADD
				c.writeReg(rd, aluAdd(a, b))
			}
		case 0x4: // XOR
			c.writeReg(rd, a^b)
		case 0x6: // OR
			c.writeReg(rd, a|b)
		case 0x7: // AND
			c.writeReg(rd, a&b)
		case 0x1: // SLL
			c.writeReg(rd, shift(a, b&0x1F, shifter.Sll))
		case 0x5: // SRL/SRA
			if f7 == 0x20 {
				c.writeReg(rd, shift(a, b&0x1F, shifter.Sra))
			} else {
				c.writeReg(rd, shift(a, b&0x1F, shifter.Srl))
			}
		case 0x2: // SLT
			res := aluSub(a, b)
			if res.Flags.N != res.Flags.V {
				c.writeReg(rd, 1)
			} else {
				c.writeReg(rd, 0)
			}
		case 0x3: // SLTU
			res := aluSub(a, b)
			if res.Flags.C == 0 {
				c.writeReg(rd, 1)
			} else {
				c.writeReg(rd, 0)
			}
		default:
			fmt.Printf("[warn] OP f3=%d f7=0x%x\n", f3, f7)
		}

	case 0x53: // OP-FP: FADD.S/FSUB.S/FMUL.S, bit patterns held in the
		// integer register file (no separate float register file).
		a := bitvec.FromUint32(c.readReg(rs1))
		b := bitvec.FromUint32(c.readReg(rs2))

		switch f7 {
		case fpAdd:
			c.writeReg(rd, bitvec.ToUint32(fpu.Add(a, b).Bits))
		case fpSub:
			c.writeReg(rd, bitvec.ToUint32(fpu.Sub(a, b).Bits))
		case fpMul:
			c.writeReg(rd, bitvec.ToUint32(fpu.Mul(a, b).Bits))
		default:
			fmt.Printf("[warn] OP-FP f7=0x%x\n", f7)
		}

	case 0x73: // SYSTEM
		fmt.Println("\n[halt] ECALL")
		return false

	default:
		fmt.Printf("\n[warn] unsupported opcode 0x%x at pc=%08x\n", opcode, c.PC)
	}

	c.PC = nextPC
	c.Reg[0] = 0
	return true
}

// Run calls Step up to max times, stopping early if Step returns
// false.
func (c *CPU) Run(max int) {
	for i := 0; i < max; i++ {
		if !c.Step() {
			return
		}
	}
}
