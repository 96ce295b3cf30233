package main

import (
	"flag"
	"fmt"
	"os"

	"rv32bits/alu"
	"rv32bits/bitvec"
	"rv32bits/cpu"
	"rv32bits/fpu"
	"rv32bits/mdu"
)

func main() {
	elfPath := flag.String("elf", "", "ELF file to load")
	binPath := flag.String("bin", "", "Flat binary to load at 0x0")
	steps := flag.Int("steps", 10_000_000, "Max steps")
	trace := flag.Bool("trace", false, "Print each instruction (teaching mode)")
	memMiB := flag.Int("mem", 16, "RAM MiB (default 16)")
	startPC := flag.Uint("pc", 0, "Override start PC (0 keeps loader entry/reset)")
	op := flag.String("op", "", "Run one arithmetic unit directly instead of a program: add, sub, mul, div, fadd, fsub, fmul")
	hexLo := flag.String("hex-lo", "0x0", "First operand for -op, as hex")
	hexHi := flag.String("hex-hi", "0x0", "Second operand for -op, as hex")

	flag.Parse()

	if *op != "" {
		runUnitDemo(*op, *hexLo, *hexHi)
		return
	}

	mem := cpu.NewMemory(uint64(*memMiB)*1024*1024, cpu.NewUART())
	machine := cpu.NewCPU(mem)
	machine.Trace = *trace

	switch {
	case *elfPath != "":
		entry, err := cpu.LoadELF(*elfPath, mem)
		if err != nil {
			fmt.Fprintln(os.Stderr, "ELF load error:", err)
			os.Exit(1)
		}
		machine.PC = uint32(entry)
	case *binPath != "":
		if err := mem.LoadFlat(*binPath, 0); err != nil {
			fmt.Fprintln(os.Stderr, "BIN load error:", err)
			os.Exit(1)
		}
		machine.PC = 0
	default:
		fmt.Fprintln(os.Stderr, "No program provided. Use -elf or -bin.")
		os.Exit(2)
	}

	if *startPC != 0 {
		machine.PC = uint32(*startPC)
	}

	machine.Run(*steps)
}

// runUnitDemo exercises one arithmetic unit directly on two hex
// operands, without loading or stepping a program. Lets worked
// examples such as fmul(1.5, 2.0) (-op fmul -hex-lo 0x3fc00000
// -hex-hi 0x40000000) be reproduced from the command line.
func runUnitDemo(op, hexLo, hexHi string) {
	a, err := bitvec.FromHexString(hexLo)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -hex-lo:", err)
		os.Exit(2)
	}
	b, err := bitvec.FromHexString(hexHi)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -hex-hi:", err)
		os.Exit(2)
	}
	a = bitvec.ZeroExtend(a, 32)
	b = bitvec.ZeroExtend(b, 32)

	switch op {
	case "add":
		res := alu.Execute(a, b, alu.Add)
		fmt.Println(bitvec.ToHexString(res.Value, true))
	case "sub":
		res := alu.Execute(a, b, alu.Sub)
		fmt.Println(bitvec.ToHexString(res.Value, true))
	case "mul":
		res := mdu.Mul(mdu.OpMul, a, b)
		fmt.Printf("lo=%s hi=%s overflow=%v\n",
			bitvec.ToHexString(res.Lo, true), bitvec.ToHexString(res.Hi, true), res.Overflow)
		for _, line := range res.Trace {
			fmt.Println("  " + line)
		}
	case "div":
		res := mdu.Div(mdu.OpDiv, a, b)
		fmt.Printf("q=%s r=%s overflow=%v\n",
			bitvec.ToHexString(res.Q, true), bitvec.ToHexString(res.R, true), res.Overflow)
		for _, line := range res.Trace {
			fmt.Println("  " + line)
		}
	case "fadd":
		res := fpu.Add(a, b)
		fmt.Println(bitvec.ToHexString(res.Bits, true))
	case "fsub":
		res := fpu.Sub(a, b)
		fmt.Println(bitvec.ToHexString(res.Bits, true))
	case "fmul":
		res := fpu.Mul(a, b)
		fmt.Println(bitvec.ToHexString(res.Bits, true))
	default:
		fmt.Fprintf(os.Stderr, "unknown -op %q (want add, sub, mul, div, fadd, fsub, fmul)\n", op)
		os.Exit(2)
	}
}
