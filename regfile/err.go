package regfile

import (
	"errors"

	"github.com/ezrec/reil/translate"
)

var f = translate.From

var (
	ErrInvalidSize     = errors.New(f("invalid size"))
	ErrUnknownRegister = errors.New(f("unknown register"))
	ErrLayout          = errors.New(f("register layout invalid"))
)

// ErrRegister reports a register name missing from the layout.
type ErrRegister string

func (err ErrRegister) Error() string {
	return f("register %v unknown", string(err))
}

func (err ErrRegister) Is(target error) bool {
	return target == ErrUnknownRegister
}

// ErrWidth reports an access whose width differs from the register's.
type ErrWidth struct {
	Name  string
	Width uint // Declared width.
	Size  uint // Requested width.
}

func (err ErrWidth) Error() string {
	return f("register %v is %d bits, not %d", err.Name, err.Width, err.Size)
}

func (err ErrWidth) Is(target error) bool {
	return target == ErrInvalidSize
}
