package reil

import (
	"fmt"
	"iter"
)

// Native is a decoded native instruction and its IR expansion.
type Native struct {
	Address  uint64        // Address of the first byte.
	Size     int           // Length in bytes.
	Mnemonic string        // Disassembly, for diagnostics.
	Code     []Instruction // IR expansion.
}

// Located returns the expansion with every instruction located at the
// native address.
func (native *Native) Located() (code []Instruction) {
	code = make([]Instruction, len(native.Code))
	for n, ins := range native.Code {
		code[n] = ins.At(native.Address, n)
	}
	return
}

// Validate checks that every IR instruction has a distinct synthetic
// address.
func (native *Native) Validate() (err error) {
	if len(native.Code) > MAX_INDEX {
		err = ErrExpansion{Address: native.Address, Count: len(native.Code)}
	}
	return
}

// String returns the native address and mnemonic.
func (native *Native) String() string {
	return fmt.Sprintf("%08x: %v", native.Address, native.Mnemonic)
}

// Program is an ordered list of native instructions.
type Program struct {
	Natives []Native
}

// Instructions iterates every IR instruction of the program, located, keyed
// by synthetic address.
func (prog *Program) Instructions() iter.Seq2[uint64, Instruction] {
	return func(yield func(uint64, Instruction) bool) {
		for n := range prog.Natives {
			for _, ins := range prog.Natives[n].Located() {
				if !yield(ins.Location(), ins) {
					return
				}
			}
		}
	}
}

// Native returns the native instruction at address.
func (prog *Program) Native(address uint64) (native *Native, ok bool) {
	for n := range prog.Natives {
		if prog.Natives[n].Address == address {
			native = &prog.Natives[n]
			ok = true
			return
		}
	}
	return
}

// Debug returns the native instruction and IR text at a synthetic address.
func (prog *Program) Debug(location uint64) (text string, ok bool) {
	native, ok := prog.Native(location >> 8)
	if !ok {
		return
	}

	index := int(location & (MAX_INDEX - 1))
	if index >= len(native.Code) {
		ok = false
		return
	}

	text = fmt.Sprintf("%v | %v", native, native.Code[index])
	return
}
