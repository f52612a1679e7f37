package emulator

import (
	"errors"

	"github.com/ezrec/reil/reil"
	"github.com/ezrec/reil/translate"
)

var f = translate.From

var (
	ErrArchMissing       = errors.New(f("architecture missing"))
	ErrOperandSize       = errors.New(f("operand size invalid"))
	ErrOperandInvalid    = errors.New(f("operand invalid"))
	ErrUnresolvedAddress = errors.New(f("address unresolved"))
	ErrUnsupported       = errors.New(f("operation unsupported"))
	ErrDivideByZero      = errors.New(f("divide by zero"))
	ErrStepLimit         = errors.New(f("step limit reached"))
)

// ErrTarget reports a jump to an address absent from the program.
type ErrTarget uint64

func (err ErrTarget) Error() string {
	return f("target %#x not in program", uint64(err))
}

func (err ErrTarget) Is(target error) bool {
	return target == ErrUnresolvedAddress
}

// ErrSlot reports an operand slot that does not match the opcode.
type ErrSlot struct {
	Slot    string
	Operand reil.Operand
}

func (err ErrSlot) Error() string {
	if err.Operand.IsEmpty() {
		return f("%v operand missing", err.Slot)
	}
	return f("%v operand '%v' not allowed", err.Slot, err.Operand)
}

func (err ErrSlot) Is(target error) bool {
	return target == ErrOperandInvalid
}

// ErrSize reports an operand whose size cannot be used by the operation.
type ErrSize struct {
	Operand reil.Operand
	Size    uint
}

func (err ErrSize) Error() string {
	return f("'%v' cannot be %d bits", err.Operand, err.Size)
}

func (err ErrSize) Is(target error) bool {
	return target == ErrOperandSize
}

// ErrRuntime locates an execution failure.
type ErrRuntime struct {
	Location
	Instruction reil.Instruction
	Err         error
}

func (err *ErrRuntime) Error() string {
	if err.Instruction.Located {
		return f("%#x (%#x.%d) %v: %v", err.Address, err.Native, err.Index, err.Instruction, err.Err)
	}
	return f("[%d] %v: %v", err.Index, err.Instruction, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
