package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/reil/arch/x86"
	"github.com/ezrec/reil/emulator"
	"github.com/ezrec/reil/reil"
)

func newSession(t *testing.T) (s *session, out *bytes.Buffer) {
	desc := x86.X86()
	emu, err := emulator.NewEmulator(emulator.Config{Arch: desc, MaxSteps: 100})
	if err != nil {
		t.Fatal(err)
	}

	out = &bytes.Buffer{}
	s = &session{
		desc:    desc,
		emu:     emu,
		parser:  &reil.Parser{},
		out:     out,
		initial: map[string]uint64{},
	}
	return
}

func TestSession(t *testing.T) {
	assert := assert.New(t)

	s, out := newSession(t)

	done, err := s.input(":set eax=0x10")
	assert.NoError(err)
	assert.False(done)

	_, err = s.input("add [DWORD eax, DWORD 1, DWORD ebx]")
	assert.NoError(err)
	assert.Equal(uint64(0x11), s.result.Registers["ebx"])
	assert.Contains(out.String(), "ebx    00000011\n")

	// A failing instruction is not kept.
	_, err = s.input("div [DWORD eax, DWORD 0, DWORD ebx]")
	assert.ErrorIs(err, emulator.ErrDivideByZero)
	assert.Len(s.code, 1)

	_, err = s.input("bogus [EMPTY, EMPTY, EMPTY]")
	assert.ErrorIs(err, reil.ErrMnemonic)

	_, err = s.input(":undo")
	assert.NoError(err)
	assert.Empty(s.code)
	assert.Equal(uint64(0), s.result.Registers["ebx"])

	_, err = s.input(":nope")
	assert.Error(err)

	done, err = s.input(":quit")
	assert.NoError(err)
	assert.True(done)
}

func TestPrintMemory(t *testing.T) {
	assert := assert.New(t)

	s, out := newSession(t)
	_, err := s.input("stm [WORD 0x1234, EMPTY, DWORD 0x1002]")
	assert.NoError(err)
	_, err = s.input("stm [BYTE 0x56, EMPTY, DWORD 0x1010]")
	assert.NoError(err)

	out.Reset()
	printMemory(out, s.result)
	assert.Equal("00001000:       34 12\n00001010: 56\n", out.String())
}
