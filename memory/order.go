package memory

import (
	"strings"
)

// ByteOrder is the order multi-byte values are laid out in memory.
type ByteOrder int

//go:generate go tool stringer -linecomment -type=ByteOrder
const (
	LITTLE_ENDIAN = ByteOrder(0) // little
	BIG_ENDIAN    = ByteOrder(1) // big
)

// UnmarshalText accepts the names "little" and "big".
func (order *ByteOrder) UnmarshalText(text []byte) (err error) {
	switch strings.ToLower(string(text)) {
	case "little", "little-endian", "le":
		*order = LITTLE_ENDIAN
	case "big", "big-endian", "be":
		*order = BIG_ENDIAN
	default:
		err = ErrByteOrder
	}
	return
}

// MarshalText returns the name of the byte order.
func (order ByteOrder) MarshalText() ([]byte, error) {
	return []byte(order.String()), nil
}

// position returns the offset, in bytes from the start of an n byte
// access, of byte k of the value (k = 0 is the least significant byte).
func (order ByteOrder) position(k, n uint) uint {
	if order == BIG_ENDIAN {
		return n - 1 - k
	}
	return k
}
