package reil

import (
	"fmt"
)

// MAX_INDEX is the number of IR instructions one native instruction may
// expand to.
const MAX_INDEX = 1 << 8

// Location returns the synthetic address of the IR instruction at index of
// the native instruction at address.
func Location(address uint64, index int) uint64 {
	return address<<8 | uint64(index&(MAX_INDEX-1))
}

// Instruction is an opcode with its three operand slots.
type Instruction struct {
	Op       Opcode
	Operands [3]Operand // Source 1, source 2, destination.

	Address uint64 // Native address, valid if Located.
	Index   int    // Index within the native expansion, valid if Located.
	Located bool   // Set if Address and Index are known.
}

// New returns an unlocated instruction.
func New(op Opcode, src1, src2, dst Operand) Instruction {
	return Instruction{
		Op:       op,
		Operands: [3]Operand{src1, src2, dst},
	}
}

// At returns a copy of the instruction located at index of the native
// instruction at address.
func (ins Instruction) At(address uint64, index int) Instruction {
	ins.Address = address
	ins.Index = index
	ins.Located = true
	return ins
}

// Src1 returns the first source operand.
func (ins Instruction) Src1() Operand {
	return ins.Operands[0]
}

// Src2 returns the second source operand.
func (ins Instruction) Src2() Operand {
	return ins.Operands[1]
}

// Dst returns the destination operand.
func (ins Instruction) Dst() Operand {
	return ins.Operands[2]
}

// Location returns the synthetic address of a located instruction.
func (ins Instruction) Location() uint64 {
	return Location(ins.Address, ins.Index)
}

// String returns the concrete syntax of the instruction.
func (ins Instruction) String() string {
	return fmt.Sprintf("%-5s [%s, %s, %s]", ins.Op, ins.Operands[0], ins.Operands[1], ins.Operands[2])
}
