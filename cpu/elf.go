package cpu

import (
	"debug/elf"
	"fmt"
)

// LoadELF maps PT_LOAD segments into mem at their (assumed-identity)
// physical addresses and returns the entry point.
func LoadELF(path string, mem *Memory) (entry uint64, err error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	for _, ph := range f.Progs {
		if ph.Type != elf.PT_LOAD {
			continue
		}
		buf := make([]byte, ph.Memsz)
		if ph.Filesz > 0 {
			if _, err := ph.ReadAt(buf[:ph.Filesz], 0); err != nil {
				return 0, fmt.Errorf("read segment: %w", err)
			}
		}
		addr := uint32(ph.Vaddr)
		if err := mem.WriteBytes(addr, buf); err != nil {
			return 0, fmt.Errorf("map segment @0x%x: %w", addr, err)
		}
	}

	return uint64(f.Entry), nil
}
