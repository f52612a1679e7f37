package main

import (
	"fmt"
	"io"

	"github.com/ezrec/reil/arch"
	"github.com/ezrec/reil/emulator"
	"github.com/ezrec/reil/internal"
)

// printRegisters prints the base registers of desc, skipping zero values
// unless all is set.
func printRegisters(out io.Writer, desc *arch.Arch, registers map[string]uint64, all bool) {
	for _, reg := range desc.Registers {
		value := registers[reg.Name]
		if value == 0 && !all {
			continue
		}
		digits := int(reg.Width+3) / 4
		fmt.Fprintf(out, "%-6v %0*x\n", reg.Name, digits, value)
	}
}

// printMemory prints populated memory, 16 bytes per line.
func printMemory(out io.Writer, result *emulator.Result) {
	line := uint64(1)
	column := 0
	for addr, value := range result.Memory.Touched() {
		if addr&^0xf != line {
			if column != 0 {
				fmt.Fprintln(out)
			}
			line = addr &^ 0xf
			fmt.Fprintf(out, "%08x:", line)
			column = 0
		}
		fmt.Fprintf(out, "%*s%02x", 3*int(addr&0xf)-3*column+1, "", value)
		column = int(addr&0xf) + 1
	}
	if column != 0 {
		fmt.Fprintln(out)
	}
}

// printResult prints the final state of a run.
func printResult(out io.Writer, desc *arch.Arch, result *emulator.Result) {
	printRegisters(out, desc, result.Registers, false)
	printMemory(out, result)

	for _, loc := range result.Unsupported {
		if loc.Address != 0 {
			fmt.Fprintf(out, "unkn at %#x\n", loc.Address)
		} else {
			fmt.Fprintf(out, "unkn at [%d]\n", loc.Index)
		}
	}

	changed := internal.IterSeq2Filter(result.Memory.Touched(), func(_ uint64, value byte) bool {
		return value != 0
	})
	nonzero := 0
	for range changed {
		nonzero++
	}
	fmt.Fprintf(out, "%d steps, %d bytes touched (%d non-zero)\n", result.Steps, result.Memory.Len(), nonzero)
}
