package memory

import (
	"errors"

	"github.com/ezrec/reil/translate"
)

var f = translate.From

var (
	ErrInvalidSize  = errors.New(f("invalid size"))
	ErrByteOrder    = errors.New(f("byte order unknown"))
	ErrImageTooLong = errors.New(f("image exceeds address space"))
)

// ErrSize reports an access width that is not a positive multiple of 8 bits.
type ErrSize uint

func (err ErrSize) Error() string {
	return f("size %d is not a positive multiple of 8 bits up to %d", uint(err), MAX_SIZE)
}

func (err ErrSize) Is(target error) bool {
	return target == ErrInvalidSize
}
