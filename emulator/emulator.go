// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator executes IR instructions against a register file and a
// memory.
package emulator

import (
	"log"
	"maps"

	"github.com/ezrec/reil/arch"
	"github.com/ezrec/reil/memory"
	"github.com/ezrec/reil/reil"
)

// Config is the immutable configuration of an Emulator.
type Config struct {
	Arch     *arch.Arch // Architecture executed against.
	MaxSteps int        // If non-zero, the most instructions a run may execute.
	Strict   bool       // If set, UNKN fails with ErrUnsupported.
	Verbose  bool       // If set, logs every executed instruction.
}

// Context is the machine state at the start or end of a run.
type Context struct {
	Registers map[string]uint64 // Register and alias values. Absent registers are 0.
	Memory    *memory.Memory    // Memory. If nil, a run starts with an empty memory.
}

// Location identifies an instruction of a run.
type Location struct {
	Address uint64 // Synthetic address; 0 when the instruction is not located.
	Native  uint64 // Native instruction address.
	Index   int    // Index within the native expansion, or sequence position.
}

// Result is the outcome of a run.
type Result struct {
	Registers   map[string]uint64 // Every register and alias.
	Memory      *memory.Memory    // Memory, including every touched byte.
	Unsupported []Location        // UNKN instructions executed.
	Steps       int               // Instructions executed.
}

// Emulator runs IR programs. An Emulator holds no state between runs, and
// each run owns its register file and memory.
type Emulator struct {
	config Config
}

// NewEmulator creates an emulator for a configuration.
func NewEmulator(config Config) (emu *Emulator, err error) {
	if config.Arch == nil {
		err = ErrArchMissing
		return
	}

	err = config.Arch.Validate()
	if err != nil {
		return
	}

	emu = &Emulator{config: config}
	return
}

// Config returns the emulator configuration.
func (emu *Emulator) Config() Config {
	return emu.config
}

// newMachine prepares the state of a run from an initial context.
func (emu *Emulator) newMachine(ctx Context) (m *machine, err error) {
	regs, err := emu.config.Arch.NewRegisterFile()
	if err != nil {
		return
	}

	err = regs.Load(ctx.Registers)
	if err != nil {
		return
	}

	mem := ctx.Memory
	if mem == nil {
		mem = emu.config.Arch.NewMemory()
	}

	m = &machine{
		verbose: emu.config.Verbose,
		strict:  emu.config.Strict,
		regs:    regs,
		mem:     mem,
		temps:   map[string]temporary{},
	}

	return
}

// run executes code from position pc until it falls off the end. resolve
// maps a taken JCC target to a position; len(code) halts.
func (emu *Emulator) run(m *machine, code []reil.Instruction, pc int, resolve func(target uint64) (int, error)) (result *Result, err error) {
	steps := 0

	for pc < len(code) {
		ins := code[pc]
		loc := Location{Index: pc}
		if ins.Located {
			loc = Location{Address: ins.Location(), Native: ins.Address, Index: ins.Index}
		}

		if emu.config.MaxSteps > 0 && steps >= emu.config.MaxSteps {
			err = &ErrRuntime{Location: loc, Instruction: ins, Err: ErrStepLimit}
			return
		}

		var jump bool
		var target uint64
		jump, target, err = m.step(ins, loc)
		if err != nil {
			err = &ErrRuntime{Location: loc, Instruction: ins, Err: err}
			return
		}
		steps++

		if !jump {
			pc++
			continue
		}

		pc, err = resolve(target)
		if err != nil {
			err = &ErrRuntime{Location: loc, Instruction: ins, Err: err}
			return
		}
	}

	if emu.config.Verbose {
		log.Printf("emulator: halted after %d steps", steps)
	}

	result = &Result{
		Registers:   m.regs.Context(),
		Memory:      m.mem,
		Unsupported: m.unsupported,
		Steps:       steps,
	}

	return
}

// ExecuteLite runs a single flat sequence of instructions to completion.
//
// A taken JCC targets the synthetic address of a located instruction of the
// sequence, or else a position within it; the position just past the last
// instruction halts.
func (emu *Emulator) ExecuteLite(code []reil.Instruction, ctx Context) (result *Result, err error) {
	m, err := emu.newMachine(ctx)
	if err != nil {
		return
	}

	located := map[uint64]int{}
	for n, ins := range code {
		if ins.Located {
			located[ins.Location()] = n
		}
	}

	resolve := func(target uint64) (pc int, err error) {
		pc, ok := located[target]
		if ok {
			return
		}
		if target <= uint64(len(code)) {
			pc = int(target)
			return
		}
		err = ErrTarget(target)
		return
	}

	return emu.run(m, code, 0, resolve)
}

// Execute runs a program of native instructions starting at the native
// address start.
//
// Every IR instruction is located at its native instruction. A taken JCC
// targets a synthetic address; the synthetic address of a native
// instruction with an empty expansion continues at the following native
// instruction, and the address just past the last native instruction halts.
func (emu *Emulator) Execute(natives []reil.Native, start uint64, ctx Context) (result *Result, err error) {
	m, err := emu.newMachine(ctx)
	if err != nil {
		return
	}

	var code []reil.Instruction
	positions := map[uint64]int{}
	for n := range natives {
		native := &natives[n]
		err = native.Validate()
		if err != nil {
			return
		}
		positions[reil.Location(native.Address, 0)] = len(code)
		for _, ins := range native.Located() {
			positions[ins.Location()] = len(code)
			code = append(code, ins)
		}
	}
	if len(natives) > 0 {
		last := &natives[len(natives)-1]
		end := reil.Location(last.Address+uint64(last.Size), 0)
		if _, ok := positions[end]; !ok && last.Size > 0 {
			positions[end] = len(code)
		}
	}

	resolve := func(target uint64) (pc int, err error) {
		pc, ok := positions[target]
		if !ok {
			err = ErrTarget(target)
		}
		return
	}

	pc, err := resolve(reil.Location(start, 0))
	if err != nil {
		return
	}

	if emu.config.Verbose {
		log.Printf("emulator: %d natives, %d instructions, start %#x", len(natives), len(code), start)
	}

	return emu.run(m, code, pc, resolve)
}

// Touched returns the populated bytes of the result memory.
func (result *Result) Touched() map[uint64]byte {
	return maps.Collect(result.Memory.Touched())
}
