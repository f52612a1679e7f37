package emulator

import (
	"github.com/holiman/uint256"

	"github.com/ezrec/reil/reil"
)

var _one = uint256.NewInt(1)

// truncate keeps the low size bits of value.
func truncate(value *uint256.Int, size uint) *uint256.Int {
	result := new(uint256.Int).Set(value)
	if size >= uint(reil.SIZE_MAX) {
		return result
	}

	mask := new(uint256.Int).Lsh(_one, size)
	mask.Sub(mask, _one)
	return result.And(result, mask)
}

// naturalSize is the smallest power-of-two byte width holding value.
func naturalSize(value *uint256.Int) (size uint) {
	size = 8
	for size < uint(reil.SIZE_MAX) && uint(value.BitLen()) > size {
		size *= 2
	}
	return
}

// shift computes BSH: value shifted left by amount, where amount is a
// signed size bit quantity and a negative amount shifts right.
func shift(value, amount *uint256.Int, size uint) *uint256.Int {
	result := new(uint256.Int)

	magnitude := truncate(amount, size)
	left := true
	if size > 0 && !new(uint256.Int).Rsh(magnitude, size-1).IsZero() {
		left = false
		magnitude = truncate(new(uint256.Int).Neg(magnitude), size)
	}

	if !magnitude.IsUint64() || magnitude.Uint64() >= uint64(reil.SIZE_MAX) {
		return result
	}

	if left {
		return result.Lsh(value, uint(magnitude.Uint64()))
	}
	return result.Rsh(value, uint(magnitude.Uint64()))
}

// arithmetic computes a binary ALU opcode modulo 2^256. Callers truncate
// the result to the destination size.
func arithmetic(op reil.Opcode, a, b *uint256.Int, bSize uint) (result *uint256.Int, err error) {
	result = new(uint256.Int)

	switch op {
	case reil.OP_ADD:
		result.Add(a, b)
	case reil.OP_SUB:
		result.Sub(a, b)
	case reil.OP_MUL:
		result.Mul(a, b)
	case reil.OP_DIV:
		if b.IsZero() {
			err = ErrDivideByZero
			return
		}
		result.Div(a, b)
	case reil.OP_MOD:
		if b.IsZero() {
			err = ErrDivideByZero
			return
		}
		result.Mod(a, b)
	case reil.OP_BSH:
		result = shift(a, b, bSize)
	case reil.OP_AND:
		result.And(a, b)
	case reil.OP_OR:
		result.Or(a, b)
	case reil.OP_XOR:
		result.Xor(a, b)
	default:
		err = ErrUnsupported
	}

	return
}
