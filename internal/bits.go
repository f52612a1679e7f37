package internal

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Width returns the bit width of the unsigned type U.
func Width[U constraints.Unsigned]() uint {
	var zero U
	return uint(bits.Len64(uint64(^zero)))
}

// Mask returns a value with the low width bits set.
func Mask[U constraints.Unsigned](width uint) U {
	var zero U
	if width >= Width[U]() {
		return ^zero
	}
	return ^(^zero << width)
}

// Field extracts width bits of value starting at bit offset.
func Field[U constraints.Unsigned](value U, offset, width uint) U {
	if offset >= Width[U]() {
		return 0
	}
	return (value >> offset) & Mask[U](width)
}

// Insert replaces width bits of base starting at bit offset with the low
// bits of value, leaving every other bit of base untouched.
func Insert[U constraints.Unsigned](base U, value U, offset, width uint) U {
	if offset >= Width[U]() {
		return base
	}
	mask := Mask[U](width) << offset
	return (base &^ mask) | ((value << offset) & mask)
}
