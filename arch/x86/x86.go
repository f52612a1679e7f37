// Package x86 provides the builtin x86 and x86-64 architecture
// descriptions, named after the registers of the x86asm disassembler so
// translated operands resolve without renaming.
package x86

import (
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"github.com/ezrec/reil/arch"
	"github.com/ezrec/reil/memory"
	"github.com/ezrec/reil/regfile"
)

// Flags are the 1-bit status registers, shared by both architectures.
var Flags = []string{"cf", "pf", "af", "zf", "sf", "df", "of"}

var _fixup = map[x86asm.Reg]string{
	x86asm.SPB: "spl",
	x86asm.BPB: "bpl",
	x86asm.SIB: "sil",
	x86asm.DIB: "dil",
}

// Name returns the lower case register name used in IR operands.
func Name(reg x86asm.Reg) (name string) {
	name, ok := _fixup[reg]
	if ok {
		return
	}

	name = strings.ToLower(reg.String())
	if x86asm.R8L <= reg && reg <= x86asm.R15L {
		name = strings.TrimSuffix(name, "l") + "d"
	}

	return
}

// span returns count consecutive registers starting at first.
func span(first x86asm.Reg, count int) (regs []x86asm.Reg) {
	for n := range count {
		regs = append(regs, first+x86asm.Reg(n))
	}
	return
}

// layout accumulates a register layout.
type layout struct {
	registers []regfile.Register
	aliases   []regfile.Alias
}

func (l *layout) base(reg x86asm.Reg, width uint) {
	l.registers = append(l.registers, regfile.Register{Name: Name(reg), Width: width})
}

func (l *layout) alias(reg, base x86asm.Reg, offset, width uint) {
	l.aliases = append(l.aliases, regfile.Alias{
		Name:   Name(reg),
		Base:   Name(base),
		Offset: offset,
		Width:  width,
	})
}

func (l *layout) flags() {
	for _, flag := range Flags {
		l.registers = append(l.registers, regfile.Register{Name: flag, Width: 1})
	}
}

// X86 returns the 32-bit x86 description.
func X86() *arch.Arch {
	l := &layout{}

	bases := span(x86asm.EAX, 8)
	for _, reg := range bases {
		l.base(reg, 32)
	}
	l.base(x86asm.EIP, 32)
	l.flags()

	for n, reg := range span(x86asm.AX, 8) {
		l.alias(reg, bases[n], 0, 16)
	}
	for n, reg := range span(x86asm.AL, 4) {
		l.alias(reg, bases[n], 0, 8)
	}
	for n, reg := range span(x86asm.AH, 4) {
		l.alias(reg, bases[n], 8, 8)
	}
	l.alias(x86asm.IP, x86asm.EIP, 0, 16)

	return &arch.Arch{
		Name:        "x86",
		AddressSize: 32,
		ByteOrder:   memory.LITTLE_ENDIAN,
		Registers:   l.registers,
		Aliases:     l.aliases,
	}
}

// X86_64 returns the x86-64 description.
func X86_64() *arch.Arch {
	l := &layout{}

	bases := span(x86asm.RAX, 16)
	for _, reg := range bases {
		l.base(reg, 64)
	}
	l.base(x86asm.RIP, 64)
	l.flags()

	for n, reg := range span(x86asm.EAX, 16) {
		l.alias(reg, bases[n], 0, 32)
	}
	for n, reg := range span(x86asm.AX, 16) {
		l.alias(reg, bases[n], 0, 16)
	}
	for n, reg := range span(x86asm.AL, 4) {
		l.alias(reg, bases[n], 0, 8)
	}
	for n, reg := range span(x86asm.AH, 4) {
		l.alias(reg, bases[n], 8, 8)
	}
	for n, reg := range span(x86asm.SPB, 12) {
		l.alias(reg, bases[4+n], 0, 8)
	}
	l.alias(x86asm.EIP, x86asm.RIP, 0, 32)
	l.alias(x86asm.IP, x86asm.RIP, 0, 16)

	return &arch.Arch{
		Name:        "x86_64",
		AddressSize: 64,
		ByteOrder:   memory.LITTLE_ENDIAN,
		Registers:   l.registers,
		Aliases:     l.aliases,
	}
}

func init() {
	for _, desc := range []*arch.Arch{X86(), X86_64()} {
		err := arch.Register(desc)
		if err != nil {
			panic(err)
		}
	}
}
