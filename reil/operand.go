package reil

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// OperandKind classifies an operand.
type OperandKind int

//go:generate go tool stringer -linecomment -type=OperandKind
const (
	KIND_EMPTY     = OperandKind(0) // empty
	KIND_REGISTER  = OperandKind(1) // register
	KIND_TEMPORARY = OperandKind(2) // temporary
	KIND_IMMEDIATE = OperandKind(3) // immediate
	KIND_UNKNOWN   = OperandKind(4) // unknown
)

// Size is an operand width in bits.
type Size uint

const (
	SIZE_EMPTY  = Size(0)   // Size of the Empty operand.
	SIZE_BIT    = Size(1)   // BIT
	SIZE_BYTE   = Size(8)   // BYTE
	SIZE_WORD   = Size(16)  // WORD
	SIZE_DWORD  = Size(32)  // DWORD
	SIZE_QWORD  = Size(64)  // QWORD
	SIZE_DQWORD = Size(128) // DQWORD
	SIZE_MAX    = Size(256) // Widest operand.
	SIZE_NONE   = ^Size(0)  // Unspecified, inferred from context.
)

var _sizeKeyword = map[Size]string{
	SIZE_BIT:    "BIT",
	SIZE_BYTE:   "BYTE",
	SIZE_WORD:   "WORD",
	SIZE_DWORD:  "DWORD",
	SIZE_QWORD:  "QWORD",
	SIZE_DQWORD: "DQWORD",
	SIZE_NONE:   "UNK",
}

var _keywordSize = func() (sizes map[string]Size) {
	sizes = make(map[string]Size, len(_sizeKeyword))
	for size, keyword := range _sizeKeyword {
		sizes[keyword] = size
	}
	return
}()

// Known returns true if the size is specified.
func (size Size) Known() bool {
	return size != SIZE_NONE
}

// String returns the concrete syntax size keyword.
func (size Size) String() string {
	keyword, ok := _sizeKeyword[size]
	if ok {
		return keyword
	}
	return fmt.Sprintf("BITS%d", uint(size))
}

// ParseSize parses a size keyword, ignoring case.
func ParseSize(keyword string) (size Size, ok bool) {
	keyword = strings.ToUpper(keyword)

	size, ok = _keywordSize[keyword]
	if ok {
		return
	}

	digits, found := strings.CutPrefix(keyword, "BITS")
	if !found {
		return
	}

	n, err := strconv.ParseUint(digits, 10, 16)
	if err != nil || n == 0 || n > uint64(SIZE_MAX) {
		return
	}

	size = Size(n)
	ok = true
	return
}

// Operand is a value reference inside an instruction. Operands are
// comparable values; two operands are equal when every field is.
type Operand struct {
	Kind  OperandKind
	Name  string      // Register or temporary name, or immediate value in hex.
	Size  Size        // Width in bits, SIZE_NONE if unspecified.
	Value uint256.Int // Immediate value.
}

// Empty is the operand of an unused slot.
func Empty() Operand {
	return Operand{Kind: KIND_EMPTY, Size: SIZE_EMPTY}
}

// Register returns a register operand.
func Register(size Size, name string) Operand {
	return Operand{Kind: KIND_REGISTER, Name: name, Size: size}
}

// Temporary returns a temporary operand.
func Temporary(size Size, name string) Operand {
	return Operand{Kind: KIND_TEMPORARY, Name: name, Size: size}
}

// Unknown returns an operand whose kind is not yet resolved.
func Unknown(size Size, name string) Operand {
	return Operand{Kind: KIND_UNKNOWN, Name: name, Size: size}
}

// Immediate returns an immediate operand.
func Immediate(size Size, value *uint256.Int) Operand {
	return Operand{Kind: KIND_IMMEDIATE, Name: value.Hex(), Size: size, Value: *value}
}

// ImmediateUint64 returns an immediate operand.
func ImmediateUint64(size Size, value uint64) Operand {
	return Immediate(size, uint256.NewInt(value))
}

// IsTemporaryName returns true if name has the t<digits> form of a
// temporary.
func IsTemporaryName(name string) bool {
	return _tempRegexp.MatchString(name)
}

// IsEmpty returns true for the Empty operand.
func (op Operand) IsEmpty() bool {
	return op.Kind == KIND_EMPTY
}

// String returns the concrete syntax of the operand.
func (op Operand) String() string {
	if op.Kind == KIND_EMPTY {
		return "EMPTY"
	}
	return op.Size.String() + " " + op.Name
}
