package reil

import (
	"errors"

	"github.com/ezrec/reil/translate"
)

var f = translate.From

var (
	ErrMnemonic      = errors.New(f("mnemonic unknown"))
	ErrOperandCount  = errors.New(f("expected three operands"))
	ErrOperand       = errors.New(f("operand invalid"))
	ErrExpression    = errors.New(f("expression invalid"))
	ErrSyntaxLine    = errors.New(f("expected MNEMONIC [SRC1, SRC2, DST]"))
	ErrNativeMissing = errors.New(f("instruction outside of a native instruction"))
	ErrNativeOrder   = errors.New(f("native addresses must be ascending"))
	ErrExpansionSize = errors.New(f("native expansion too long"))
)

// ErrSyntax locates a parse failure.
type ErrSyntax struct {
	LineNo int    // 1-based line number.
	Line   string // Line text.
	Token  string // Offending token, if known.
	Err    error
}

func (err *ErrSyntax) Error() string {
	if len(err.Token) == 0 {
		return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
	}
	return f("line %d '%v' at '%v' %v", err.LineNo, err.Line, err.Token, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrParseExpression reports a $() expression that did not evaluate to an
// integer.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

func (err ErrParseExpression) Is(target error) bool {
	return target == ErrExpression
}

// ErrExpansion reports a native instruction with more IR instructions than
// a synthetic address can index.
type ErrExpansion struct {
	Address uint64
	Count   int
}

func (err ErrExpansion) Error() string {
	return f("native %#x: %d instructions, at most %d", err.Address, err.Count, MAX_INDEX)
}

func (err ErrExpansion) Is(target error) bool {
	return target == ErrExpansionSize
}
