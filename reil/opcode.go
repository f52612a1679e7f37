package reil

import (
	"strings"
)

// Opcode is an IR operation.
type Opcode int

//go:generate go tool stringer -linecomment -type=Opcode
const (
	OP_ADD  = Opcode(0)  // add
	OP_SUB  = Opcode(1)  // sub
	OP_MUL  = Opcode(2)  // mul
	OP_DIV  = Opcode(3)  // div
	OP_MOD  = Opcode(4)  // mod
	OP_BSH  = Opcode(5)  // bsh
	OP_AND  = Opcode(6)  // and
	OP_OR   = Opcode(7)  // or
	OP_XOR  = Opcode(8)  // xor
	OP_LDM  = Opcode(9)  // ldm
	OP_STM  = Opcode(10) // stm
	OP_STR  = Opcode(11) // str
	OP_BISZ = Opcode(12) // bisz
	OP_JCC  = Opcode(13) // jcc
	OP_UNKN = Opcode(14) // unkn
	OP_NOP  = Opcode(15) // nop
)

// OP_COUNT is the number of opcodes.
const OP_COUNT = 16

// Slot usage flags.
const (
	SLOT_SRC1 = 1 << 0
	SLOT_SRC2 = 1 << 1
	SLOT_DST  = 1 << 2
)

var _opcodeSlots = [OP_COUNT]int{
	OP_ADD:  SLOT_SRC1 | SLOT_SRC2 | SLOT_DST,
	OP_SUB:  SLOT_SRC1 | SLOT_SRC2 | SLOT_DST,
	OP_MUL:  SLOT_SRC1 | SLOT_SRC2 | SLOT_DST,
	OP_DIV:  SLOT_SRC1 | SLOT_SRC2 | SLOT_DST,
	OP_MOD:  SLOT_SRC1 | SLOT_SRC2 | SLOT_DST,
	OP_BSH:  SLOT_SRC1 | SLOT_SRC2 | SLOT_DST,
	OP_AND:  SLOT_SRC1 | SLOT_SRC2 | SLOT_DST,
	OP_OR:   SLOT_SRC1 | SLOT_SRC2 | SLOT_DST,
	OP_XOR:  SLOT_SRC1 | SLOT_SRC2 | SLOT_DST,
	OP_LDM:  SLOT_SRC1 | SLOT_DST,
	OP_STM:  SLOT_SRC1 | SLOT_DST,
	OP_STR:  SLOT_SRC1 | SLOT_DST,
	OP_BISZ: SLOT_SRC1 | SLOT_DST,
	OP_JCC:  SLOT_SRC1 | SLOT_DST,
	OP_UNKN: 0,
	OP_NOP:  0,
}

// Slots returns the SLOT_* flags of the operand slots the opcode uses.
// Unused slots must hold the Empty operand.
func (op Opcode) Slots() int {
	if op < 0 || op >= OP_COUNT {
		return 0
	}
	return _opcodeSlots[op]
}

// Valid returns true for a known opcode.
func (op Opcode) Valid() bool {
	return op >= 0 && op < OP_COUNT
}

var _opcodeMap = func() (mnemonics map[string]Opcode) {
	mnemonics = make(map[string]Opcode, OP_COUNT)
	for op := range Opcode(OP_COUNT) {
		mnemonics[op.String()] = op
	}
	return
}()

// ParseOpcode looks up a mnemonic, ignoring case.
func ParseOpcode(mnemonic string) (op Opcode, ok bool) {
	op, ok = _opcodeMap[strings.ToLower(mnemonic)]
	return
}
