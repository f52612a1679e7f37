package emulator

import (
	"errors"
	"fmt"
	"log"

	"github.com/holiman/uint256"

	"github.com/ezrec/reil/memory"
	"github.com/ezrec/reil/regfile"
	"github.com/ezrec/reil/reil"
)

// temporary is the value and width a temporary was last written with.
type temporary struct {
	value uint256.Int
	size  uint
}

// machine is the state of a single run.
type machine struct {
	verbose bool
	strict  bool

	regs  *regfile.RegisterFile
	mem   *memory.Memory
	temps map[string]temporary

	unsupported []Location
}

// kind resolves an Unknown operand: a temporary if the name has the
// temporary form and is not a register, a register otherwise. An unknown
// name then fails register lookup.
func (m *machine) kind(op reil.Operand) reil.OperandKind {
	if op.Kind != reil.KIND_UNKNOWN {
		return op.Kind
	}
	if !m.regs.Has(op.Name) && reil.IsTemporaryName(op.Name) {
		return reil.KIND_TEMPORARY
	}
	return reil.KIND_REGISTER
}

// sizeOf returns the width of an operand if it can be determined without
// looking at the other operands of the instruction.
func (m *machine) sizeOf(op reil.Operand) (size uint, known bool, err error) {
	switch m.kind(op) {
	case reil.KIND_REGISTER:
		size, err = m.regs.Width(op.Name)
		if err != nil {
			return
		}
		if op.Size.Known() && uint(op.Size) != size {
			err = errors.Join(ErrSize{Operand: op, Size: uint(op.Size)},
				regfile.ErrWidth{Name: op.Name, Width: size, Size: uint(op.Size)})
			return
		}
		known = true
	case reil.KIND_TEMPORARY:
		if op.Size.Known() {
			size, known = uint(op.Size), true
			break
		}
		var tmp temporary
		tmp, known = m.temps[op.Name]
		size = tmp.size
	case reil.KIND_IMMEDIATE:
		if op.Size.Known() {
			size, known = uint(op.Size), true
		}
	default:
		err = ErrSlot{Slot: "source", Operand: op}
		return
	}

	if known && (size == 0 || size > uint(reil.SIZE_MAX)) {
		err = ErrSize{Operand: op, Size: size}
		return
	}

	return
}

// read returns the value of an operand at size bits.
func (m *machine) read(op reil.Operand, size uint) (value *uint256.Int, err error) {
	switch m.kind(op) {
	case reil.KIND_REGISTER:
		var raw uint64
		raw, err = m.regs.Get(op.Name, size)
		if err != nil {
			return
		}
		value = uint256.NewInt(raw)
	case reil.KIND_TEMPORARY:
		tmp := m.temps[op.Name]
		value = truncate(&tmp.value, size)
	case reil.KIND_IMMEDIATE:
		value = truncate(&op.Value, size)
	default:
		err = ErrSlot{Slot: "source", Operand: op}
	}

	return
}

// write stores value, truncated to size bits, into a register or
// temporary operand.
func (m *machine) write(op reil.Operand, size uint, value *uint256.Int) (err error) {
	value = truncate(value, size)

	switch m.kind(op) {
	case reil.KIND_REGISTER:
		err = m.regs.Set(op.Name, size, value.Uint64())
	case reil.KIND_TEMPORARY:
		m.temps[op.Name] = temporary{value: *value, size: size}
	default:
		err = ErrSlot{Slot: "destination", Operand: op}
	}

	return
}

// checkSlots validates operand arity against the opcode.
func checkSlots(ins reil.Instruction) (err error) {
	slots := ins.Op.Slots()
	names := [3]string{"source 1", "source 2", "destination"}
	flags := [3]int{reil.SLOT_SRC1, reil.SLOT_SRC2, reil.SLOT_DST}

	for n, op := range ins.Operands {
		used := slots&flags[n] != 0
		if used == op.IsEmpty() {
			err = ErrSlot{Slot: names[n], Operand: op}
			return
		}
	}

	return
}

// natural is the width of an operand whose size is not otherwise known.
func (m *machine) natural(op reil.Operand) uint {
	if m.kind(op) == reil.KIND_IMMEDIATE {
		return naturalSize(&op.Value)
	}
	tmp := m.temps[op.Name]
	return naturalSize(&tmp.value)
}

// sourceSize is the width of an operand read on its own.
func (m *machine) sourceSize(op reil.Operand) (size uint, err error) {
	size, known, err := m.sizeOf(op)
	if err != nil {
		return
	}
	if !known {
		size = m.natural(op)
	}
	return
}

// destinationSize is the width of a destination operand, or fallback if
// it has none yet.
func (m *machine) destinationSize(op reil.Operand, fallback uint) (size uint, err error) {
	size, known, err := m.sizeOf(op)
	if err != nil {
		return
	}
	if !known {
		size = fallback
	}
	return
}

// resolveSizes infers the widths of the operands of a binary operation.
// An unsized source takes the width of the other source, then of the
// destination, then the natural width of the values. An unsized
// destination takes the widest source width.
func (m *machine) resolveSizes(src1, src2, dst reil.Operand) (s1, s2, d uint, err error) {
	s1, k1, err := m.sizeOf(src1)
	if err != nil {
		return
	}

	s2, k2, err := m.sizeOf(src2)
	if err != nil {
		return
	}

	d, kd, err := m.sizeOf(dst)
	if err != nil {
		return
	}

	switch {
	case !k1 && !k2 && kd:
		s1, s2 = d, d
	case !k1 && !k2:
		s1 = max(m.natural(src1), m.natural(src2))
		s2 = s1
	case !k1:
		s1 = s2
	case !k2:
		s2 = s1
	}

	if !kd {
		d = max(s1, s2)
	}

	return
}

// step executes one instruction, returning the jump target if a JCC is
// taken.
func (m *machine) step(ins reil.Instruction, loc Location) (jump bool, target uint64, err error) {
	err = checkSlots(ins)
	if err != nil {
		return
	}

	src1, src2, dst := ins.Src1(), ins.Src2(), ins.Dst()

	var result *uint256.Int
	var d uint

	switch ins.Op {
	case reil.OP_ADD, reil.OP_SUB, reil.OP_MUL, reil.OP_DIV, reil.OP_MOD,
		reil.OP_BSH, reil.OP_AND, reil.OP_OR, reil.OP_XOR:
		var s1, s2 uint
		s1, s2, d, err = m.resolveSizes(src1, src2, dst)
		if err != nil {
			return
		}
		var a, b *uint256.Int
		a, err = m.read(src1, s1)
		if err != nil {
			return
		}
		b, err = m.read(src2, s2)
		if err != nil {
			return
		}
		result, err = arithmetic(ins.Op, a, b, s2)
		if err != nil {
			return
		}
	case reil.OP_STR, reil.OP_BISZ:
		var s1 uint
		s1, err = m.sourceSize(src1)
		if err != nil {
			return
		}
		fallback := s1
		if ins.Op == reil.OP_BISZ {
			fallback = 1
		}
		d, err = m.destinationSize(dst, fallback)
		if err != nil {
			return
		}
		result, err = m.read(src1, s1)
		if err != nil {
			return
		}
		if ins.Op == reil.OP_BISZ {
			if result.IsZero() {
				result = uint256.NewInt(1)
			} else {
				result = uint256.NewInt(0)
			}
		}
	case reil.OP_LDM:
		d, err = m.destinationSize(dst, 0)
		if err != nil {
			return
		}
		if d == 0 {
			err = ErrSize{Operand: dst, Size: 0}
			return
		}
		var s1 uint
		s1, err = m.sourceSize(src1)
		if err != nil {
			return
		}
		var address *uint256.Int
		address, err = m.read(src1, s1)
		if err != nil {
			return
		}
		result, err = m.mem.Read(address.Uint64(), d)
		if err != nil {
			err = errors.Join(ErrSize{Operand: dst, Size: d}, err)
			return
		}
	case reil.OP_STM:
		var s1, sd uint
		s1, err = m.sourceSize(src1)
		if err != nil {
			return
		}
		sd, err = m.sourceSize(dst)
		if err != nil {
			return
		}
		var value, address *uint256.Int
		value, err = m.read(src1, s1)
		if err != nil {
			return
		}
		address, err = m.read(dst, sd)
		if err != nil {
			return
		}
		err = m.mem.Write(address.Uint64(), s1, value)
		if err != nil {
			err = errors.Join(ErrSize{Operand: src1, Size: s1}, err)
			return
		}
		m.trace(loc, ins, "mem[%#x] = %v", address.Uint64(), value.Hex())
		return
	case reil.OP_JCC:
		var s1, sd uint
		s1, err = m.sourceSize(src1)
		if err != nil {
			return
		}
		sd, err = m.sourceSize(dst)
		if err != nil {
			return
		}
		var cond, dest *uint256.Int
		cond, err = m.read(src1, s1)
		if err != nil {
			return
		}
		dest, err = m.read(dst, sd)
		if err != nil {
			return
		}
		jump = !cond.IsZero()
		target = dest.Uint64()
		m.trace(loc, ins, "jump %v to %#x", jump, target)
		return
	case reil.OP_UNKN:
		if m.strict {
			err = ErrUnsupported
			return
		}
		m.unsupported = append(m.unsupported, loc)
		m.trace(loc, ins, "unsupported")
		return
	case reil.OP_NOP:
		m.trace(loc, ins, "")
		return
	default:
		err = ErrUnsupported
		return
	}

	err = m.write(dst, d, result)
	if err != nil {
		return
	}

	m.trace(loc, ins, "%v = %v", dst.Name, truncate(result, d).Hex())
	return
}

// trace logs an executed instruction.
func (m *machine) trace(loc Location, ins reil.Instruction, format string, args ...any) {
	if !m.verbose {
		return
	}

	text := fmt.Sprintf(format, args...)
	if ins.Located {
		log.Printf("%#012x: %-40v %v", loc.Address, ins, text)
	} else {
		log.Printf("[%4d] %-40v %v", loc.Index, ins, text)
	}
}
