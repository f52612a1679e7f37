package emulator

import (
	"errors"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/ezrec/reil/arch"
	"github.com/ezrec/reil/arch/x86"
	"github.com/ezrec/reil/memory"
	"github.com/ezrec/reil/regfile"
	"github.com/ezrec/reil/reil"
)

const loopProgram = `
0x08048060: mov eax, 0x0
	str  [DWORD 0x0, EMPTY, DWORD eax]
0x08048065: mov ebx, 0xa
	str  [DWORD 0xa, EMPTY, DWORD ebx]
0x0804806a: add eax, 0x1
	add  [DWORD eax, DWORD 0x1, QWORD t0]
	str  [QWORD t0, EMPTY, DWORD eax]
0x0804806d: sub ebx, 0x1
	sub  [DWORD ebx, DWORD 0x1, QWORD t1]
	str  [QWORD t1, EMPTY, DWORD ebx]
0x08048070: cmp ebx, 0x0
	sub  [DWORD ebx, DWORD 0x0, QWORD t2]
	and  [QWORD t2, QWORD 0xffffffff, DWORD t3]
	bisz [DWORD t3, EMPTY, BIT zf]
0x08048073: jne 0x0804806a
	bisz [BIT zf, EMPTY, BIT t4]
	jcc  [BIT t4, EMPTY, BITS40 0x804806a00]
`

func newEmulator(t *testing.T, config Config) *Emulator {
	if config.Arch == nil {
		config.Arch = x86.X86()
	}

	emu, err := NewEmulator(config)
	if err != nil {
		t.Fatal(err)
	}

	return emu
}

func parseCode(t *testing.T, lines ...string) []reil.Instruction {
	p := &reil.Parser{}
	code, err := p.ParseLines(lines)
	if err != nil {
		t.Fatal(err)
	}
	return code
}

func parseProgram(t *testing.T, text string) *reil.Program {
	p := &reil.Parser{}
	prog, err := p.ParseProgram(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	return prog
}

func TestNewEmulator(t *testing.T) {
	assert := assert.New(t)

	_, err := NewEmulator(Config{})
	assert.ErrorIs(err, ErrArchMissing)

	_, err = NewEmulator(Config{Arch: &arch.Arch{Name: "bad"}})
	assert.ErrorIs(err, arch.ErrArchInvalid)

	emu := newEmulator(t, Config{MaxSteps: 10})
	assert.Equal(10, emu.Config().MaxSteps)
}

func TestExecuteLiteAdd(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, Config{})
	code := parseCode(t,
		"str [DWORD eax, EMPTY, DWORD t0]",
		"str [DWORD ebx, EMPTY, DWORD t1]",
		"add [DWORD t0, DWORD t1, QWORD t2]",
		"str [QWORD t2, EMPTY, DWORD eax]",
	)

	result, err := emu.ExecuteLite(code, Context{Registers: map[string]uint64{"eax": 1, "ebx": 2}})
	assert.NoError(err)
	assert.Equal(uint64(3), result.Registers["eax"])
	assert.Equal(uint64(2), result.Registers["ebx"])
	assert.Equal(uint64(0), result.Registers["ecx"])
	assert.Equal(4, result.Steps)
	assert.Empty(result.Touched())
}

func TestExecuteLiteAlias(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, Config{})
	code := parseCode(t,
		"str [DWORD 0xdeadbeef, EMPTY, DWORD eax]",
		"str [BYTE 0x12, EMPTY, BYTE al]",
		"str [BYTE 0x34, EMPTY, BYTE ah]",
	)

	result, err := emu.ExecuteLite(code, Context{Registers: map[string]uint64{"eax": 0xffffffff}})
	assert.NoError(err)
	assert.Equal(uint64(0xdead3412), result.Registers["eax"])
}

func TestExecuteLiteIndependent(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, Config{})
	code := parseCode(t,
		"stm [DWORD eax, EMPTY, DWORD 0x1000]",
		"add [DWORD eax, DWORD 1, DWORD eax]",
	)

	first, err := emu.ExecuteLite(code, Context{Registers: map[string]uint64{"eax": 7}})
	assert.NoError(err)
	second, err := emu.ExecuteLite(code, Context{})
	assert.NoError(err)

	assert.Equal(uint64(8), first.Registers["eax"])
	assert.Equal(uint64(1), second.Registers["eax"])
	assert.NotSame(first.Memory, second.Memory)
	assert.Equal(map[uint64]byte{0x1000: 7, 0x1001: 0, 0x1002: 0, 0x1003: 0}, first.Touched())
}

func TestExecuteLiteMemoryContext(t *testing.T) {
	assert := assert.New(t)

	mem := memory.NewMemory(32)
	assert.NoError(mem.WriteUint64(0x2000, 32, 0x11223344))

	emu := newEmulator(t, Config{})
	code := parseCode(t,
		"ldm [DWORD 0x2000, EMPTY, DWORD eax]",
		"stm [BYTE 0x55, EMPTY, DWORD 0x2004]",
	)

	result, err := emu.ExecuteLite(code, Context{Memory: mem})
	assert.NoError(err)
	assert.Equal(uint64(0x11223344), result.Registers["eax"])
	assert.Same(mem, result.Memory)

	value, err := mem.ReadUint64(0x2004, 8)
	assert.NoError(err)
	assert.Equal(uint64(0x55), value)
}

func TestExecuteLiteBigEndian(t *testing.T) {
	assert := assert.New(t)

	desc := x86.X86()
	desc.Name = "x86-be"
	desc.ByteOrder = memory.BIG_ENDIAN

	emu := newEmulator(t, Config{Arch: desc})
	code := parseCode(t,
		"stm [DWORD 0x11223344, EMPTY, DWORD 0x100]",
		"ldm [DWORD 0x100, EMPTY, BYTE al]",
	)

	result, err := emu.ExecuteLite(code, Context{})
	assert.NoError(err)
	assert.Equal(uint64(0x11), result.Registers["al"])
}

func TestExecuteLiteLocatedJump(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, Config{})
	code := parseCode(t,
		"jcc [BYTE 1, EMPTY, BITS40 0x100002]",
		"str [DWORD 1, EMPTY, DWORD eax]",
		"str [DWORD 2, EMPTY, DWORD ebx]",
	)
	for n := range code {
		code[n] = code[n].At(0x1000, n)
	}

	result, err := emu.ExecuteLite(code, Context{})
	assert.NoError(err)
	assert.Equal(uint64(0), result.Registers["eax"])
	assert.Equal(uint64(2), result.Registers["ebx"])
	assert.Equal(2, result.Steps)
}

func TestExecuteLoop(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, Config{MaxSteps: 1000})
	prog := parseProgram(t, loopProgram)

	result, err := emu.Execute(prog.Natives, 0x08048060, Context{})
	assert.NoError(err)
	assert.Equal(uint64(10), result.Registers["eax"])
	assert.Equal(uint64(0), result.Registers["ebx"])
	assert.Equal(uint64(1), result.Registers["zf"])
	assert.Equal(2+10*9, result.Steps)
}

func TestExecuteStart(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, Config{MaxSteps: 1000})
	prog := parseProgram(t, loopProgram)

	// Skip the initialization of eax.
	result, err := emu.Execute(prog.Natives, 0x08048065, Context{Registers: map[string]uint64{"eax": 5}})
	assert.NoError(err)
	assert.Equal(uint64(15), result.Registers["eax"])

	_, err = emu.Execute(prog.Natives, 0x08048061, Context{})
	assert.ErrorIs(err, ErrUnresolvedAddress)
}

func TestExecuteEmptyNative(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, Config{MaxSteps: 100})
	prog := parseProgram(t, `
0x100: inc eax
	add [DWORD eax, DWORD 1, DWORD eax]
0x101: nop
0x102: jmp 0x101
	sub [DWORD eax, DWORD 3, DWORD t0]
	bisz [DWORD t0, EMPTY, BIT t1]
	xor [BIT t1, BIT 1, BIT t2]
	jcc [BIT t2, EMPTY, BITS40 0x10000]
	jcc [BIT 1, EMPTY, BITS40 0x10100]
`)

	// The last native instruction jumps to the empty one, which falls
	// through into the last one again. Stop it with the step limit.
	_, err := emu.Execute(prog.Natives, 0x100, Context{})
	assert.ErrorIs(err, ErrStepLimit)

	var runtimeErr *ErrRuntime
	assert.True(errors.As(err, &runtimeErr))
	assert.True(runtimeErr.Instruction.Located)
	assert.Equal(uint64(0x102), runtimeErr.Native)
}

func TestExecuteExpansionLimit(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, Config{})

	expand := func(count int) []reil.Instruction {
		code := make([]reil.Instruction, count)
		code[0] = parseCode(t, "add [DWORD ebx, DWORD 1, DWORD ebx]")[0]
		for n := 1; n < count-1; n++ {
			code[n] = reil.New(reil.OP_NOP, reil.Empty(), reil.Empty(), reil.Empty())
		}
		code[count-1] = parseCode(t, "add [DWORD eax, DWORD 1, DWORD eax]")[0]
		return code
	}

	natives := []reil.Native{{Address: 0x10, Size: 1, Code: expand(reil.MAX_INDEX)}}
	result, err := emu.Execute(natives, 0x10, Context{})
	assert.NoError(err)
	assert.Equal(uint64(1), result.Registers["eax"])
	assert.Equal(uint64(1), result.Registers["ebx"])
	assert.Equal(reil.MAX_INDEX, result.Steps)

	natives = []reil.Native{{Address: 0x10, Size: 1, Code: expand(reil.MAX_INDEX + 1)}}
	_, err = emu.Execute(natives, 0x10, Context{})
	assert.ErrorIs(err, reil.ErrExpansionSize)

	var expansionErr reil.ErrExpansion
	assert.True(errors.As(err, &expansionErr))
	assert.Equal(uint64(0x10), expansionErr.Address)
	assert.Equal(reil.MAX_INDEX+1, expansionErr.Count)
}

func TestExecuteFallOff(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, Config{})
	prog := &reil.Program{
		Natives: []reil.Native{
			{
				Address: 0x200,
				Size:    2,
				Code: []reil.Instruction{
					reil.New(reil.OP_JCC, reil.ImmediateUint64(reil.SIZE_BIT, 1), reil.Empty(), reil.ImmediateUint64(reil.Size(40), 0x20200)),
					reil.New(reil.OP_STR, reil.ImmediateUint64(reil.SIZE_DWORD, 1), reil.Empty(), reil.Register(reil.SIZE_DWORD, "eax")),
				},
			},
		},
	}

	// A jump just past the last native instruction halts.
	result, err := emu.Execute(prog.Natives, 0x200, Context{})
	assert.NoError(err)
	assert.Equal(uint64(0), result.Registers["eax"])
	assert.Equal(1, result.Steps)

	prog.Natives[0].Code[0].Operands[2] = reil.ImmediateUint64(reil.Size(40), 0x30000)
	_, err = emu.Execute(prog.Natives, 0x200, Context{})
	assert.ErrorIs(err, ErrUnresolvedAddress)

	var runtimeErr *ErrRuntime
	assert.True(errors.As(err, &runtimeErr))
	assert.Equal(uint64(0x20000), runtimeErr.Address)
	assert.Equal(0, runtimeErr.Index)
}

func TestExecuteUnsupported(t *testing.T) {
	assert := assert.New(t)

	code := parseCode(t,
		"str  [DWORD 1, EMPTY, DWORD eax]",
		"unkn [EMPTY, EMPTY, EMPTY]",
		"str  [DWORD 2, EMPTY, DWORD ebx]",
	)

	emu := newEmulator(t, Config{})
	result, err := emu.ExecuteLite(code, Context{})
	assert.NoError(err)
	assert.Equal([]Location{{Index: 1}}, result.Unsupported)
	assert.Equal(uint64(2), result.Registers["ebx"])

	strict := newEmulator(t, Config{Strict: true})
	_, err = strict.ExecuteLite(code, Context{})
	assert.ErrorIs(err, ErrUnsupported)

	var runtimeErr *ErrRuntime
	assert.True(errors.As(err, &runtimeErr))
	assert.Equal(1, runtimeErr.Index)
}

func TestExecuteStepLimit(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, Config{MaxSteps: 50})
	code := parseCode(t,
		"add [DWORD eax, DWORD 1, DWORD eax]",
		"jcc [BYTE 1, EMPTY, DWORD 0]",
	)

	_, err := emu.ExecuteLite(code, Context{})
	assert.ErrorIs(err, ErrStepLimit)
}

func TestExecuteErrors(t *testing.T) {
	table := map[string]struct {
		Code []string
		Err  error
	}{
		"unknown-register": {[]string{"str [DWORD eax, EMPTY, DWORD rax]"}, regfile.ErrUnknownRegister},
		"register-size":    {[]string{"str [DWORD eax, EMPTY, BYTE ebx]"}, regfile.ErrInvalidSize},
		"ldm-unsized":      {[]string{"ldm [DWORD 0, EMPTY, t0]"}, ErrOperandSize},
		"ldm-odd":          {[]string{"ldm [DWORD 0, EMPTY, BITS12 t0]"}, memory.ErrInvalidSize},
		"stm-odd":          {[]string{"stm [BITS12 1, EMPTY, DWORD 0]"}, memory.ErrInvalidSize},
		"mod-zero":         {[]string{"mod [DWORD 1, DWORD eax, DWORD ebx]"}, ErrDivideByZero},
		"nop-operand":      {[]string{"nop [DWORD eax, EMPTY, EMPTY]"}, ErrOperandInvalid},
		"str-src2":         {[]string{"str [DWORD eax, DWORD eax, DWORD ebx]"}, ErrOperandInvalid},
		"jcc-dst":          {[]string{"jcc [DWORD eax, EMPTY, EMPTY]"}, ErrOperandInvalid},
		"jcc-target":       {[]string{"jcc [BYTE 1, EMPTY, DWORD 5]"}, ErrUnresolvedAddress},
	}

	for name, test := range table {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			emu := newEmulator(t, Config{})
			_, err := emu.ExecuteLite(parseCode(t, test.Code...), Context{})
			assert.ErrorIs(err, test.Err)

			var runtimeErr *ErrRuntime
			assert.True(errors.As(err, &runtimeErr))
			assert.Equal(0, runtimeErr.Index)
		})
	}

	emu := newEmulator(t, Config{})
	_, err := emu.ExecuteLite(nil, Context{Registers: map[string]uint64{"rax": 1}})
	assert.ErrorIs(t, err, regfile.ErrUnknownRegister)
}

func TestShift(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		Value  uint64
		Amount uint64
		Size   uint
		Want   uint64
	}{
		{0x1, 4, 8, 0x10},
		{0x10, 0xfc, 8, 0x1},       // -4
		{0x80, 0x7f, 8, 0},         // 127, beyond 64 bits of interest
		{0xff00, 0xfff8, 16, 0xff}, // -8
		{0x1, 0, 8, 0x1},
		{0x1, 1, 1, 0}, // -1 as a 1 bit amount
	}

	for _, test := range table {
		got := shift(uint256.NewInt(test.Value), uint256.NewInt(test.Amount), test.Size)
		got = truncate(got, 64)
		assert.Equal(test.Want, got.Uint64(), "%#x bsh %#x/%d", test.Value, test.Amount, test.Size)
	}
}
