package reil

import (
	"maps"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestOpcode(t *testing.T) {
	assert := assert.New(t)

	for op := range Opcode(OP_COUNT) {
		found, ok := ParseOpcode(op.String())
		assert.True(ok)
		assert.Equal(op, found)
		assert.True(op.Valid())
	}

	op, ok := ParseOpcode("BISZ")
	assert.True(ok)
	assert.Equal(OP_BISZ, op)

	_, ok = ParseOpcode("mov")
	assert.False(ok)

	assert.Equal(SLOT_SRC1|SLOT_SRC2|SLOT_DST, OP_BSH.Slots())
	assert.Equal(SLOT_SRC1|SLOT_DST, OP_STM.Slots())
	assert.Equal(0, OP_NOP.Slots())
	assert.Equal(0, Opcode(99).Slots())
	assert.False(Opcode(-1).Valid())
	assert.Equal("Opcode(99)", Opcode(99).String())
}

func TestSize(t *testing.T) {
	assert := assert.New(t)

	table := map[string]Size{
		"BIT":    SIZE_BIT,
		"byte":   SIZE_BYTE,
		"WORD":   SIZE_WORD,
		"DWORD":  SIZE_DWORD,
		"QWORD":  SIZE_QWORD,
		"DQWORD": SIZE_DQWORD,
		"BITS24": Size(24),
		"UNK":    SIZE_NONE,
	}

	for keyword, want := range table {
		size, ok := ParseSize(keyword)
		assert.True(ok, keyword)
		assert.Equal(want, size, keyword)
	}

	assert.Equal("BITS24", Size(24).String())
	assert.Equal("UNK", SIZE_NONE.String())
	assert.False(SIZE_NONE.Known())
	assert.True(SIZE_EMPTY.Known())

	for _, keyword := range []string{"", "LONG", "BITS", "BITSx", "BITS300"} {
		_, ok := ParseSize(keyword)
		assert.False(ok, keyword)
	}
}

func TestOperand(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("EMPTY", Empty().String())
	assert.True(Empty().IsEmpty())
	assert.Equal("DWORD eax", Register(SIZE_DWORD, "eax").String())
	assert.Equal("UNK t0", Unknown(SIZE_NONE, "t0").String())
	assert.Equal("QWORD 0xdeadbeef", ImmediateUint64(SIZE_QWORD, 0xdeadbeef).String())

	wide := Immediate(SIZE_DQWORD, uint256.MustFromHex("0x10000000000000000"))
	assert.Equal("DQWORD 0x10000000000000000", wide.String())

	// Operands are comparable values.
	assert.Equal(Register(SIZE_BYTE, "al"), Register(SIZE_BYTE, "al"))
	assert.NotEqual(Register(SIZE_BYTE, "al"), Temporary(SIZE_BYTE, "al"))
	assert.True(ImmediateUint64(SIZE_BYTE, 1) == ImmediateUint64(SIZE_BYTE, 1))

	assert.Equal("immediate", KIND_IMMEDIATE.String())
}

func TestInstruction(t *testing.T) {
	assert := assert.New(t)

	ins := New(OP_ADD, Register(SIZE_DWORD, "eax"), ImmediateUint64(SIZE_DWORD, 1), Temporary(SIZE_QWORD, "t0"))
	assert.Equal("add   [DWORD eax, DWORD 0x1, QWORD t0]", ins.String())
	assert.False(ins.Located)

	located := ins.At(0x0804806a, 2)
	assert.True(located.Located)
	assert.Equal(uint64(0x0804806a02), located.Location())
	assert.Equal(ins.Operands, located.Operands)
	assert.False(ins.Located)

	assert.Equal(uint64(0x1000ff), Location(0x1000, 0xff))
}

func TestProgram(t *testing.T) {
	assert := assert.New(t)

	nop := New(OP_NOP, Empty(), Empty(), Empty())
	prog := &Program{
		Natives: []Native{
			{Address: 0x100, Size: 2, Mnemonic: "a", Code: []Instruction{nop, nop}},
			{Address: 0x102, Size: 1, Mnemonic: "b"},
			{Address: 0x103, Size: 1, Mnemonic: "c", Code: []Instruction{nop}},
		},
	}

	locations := maps.Collect(prog.Instructions())
	assert.Len(locations, 3)
	assert.Contains(locations, uint64(0x10000))
	assert.Contains(locations, uint64(0x10001))
	assert.Contains(locations, uint64(0x10300))
	assert.Equal(1, locations[0x10001].Index)

	text, ok := prog.Debug(0x10001)
	assert.True(ok)
	assert.Equal("00000100: a | nop   [EMPTY, EMPTY, EMPTY]", text)

	_, ok = prog.Debug(0x10002)
	assert.False(ok)
	_, ok = prog.Debug(0x20000)
	assert.False(ok)
}
