package arch

import (
	"errors"

	"github.com/ezrec/reil/translate"
)

var f = translate.From

var (
	ErrArchUnknown   = errors.New(f("architecture unknown"))
	ErrArchDuplicate = errors.New(f("architecture duplicated"))
	ErrArchInvalid   = errors.New(f("architecture invalid"))
)

// ErrArchName reports a lookup of an unregistered architecture.
type ErrArchName string

func (err ErrArchName) Error() string {
	return f("architecture %v unknown", string(err))
}

func (err ErrArchName) Is(target error) bool {
	return target == ErrArchUnknown
}
