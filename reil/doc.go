// Package reil is the intermediate representation native machine code is
// translated into for analysis.
//
// Every instruction has an opcode and exactly three operand slots, written
// in the concrete syntax as
//
//	MNEMONIC [SRC1, SRC2, DST]
//
// where unused slots hold the EMPTY operand. Each operand is a register, a
// temporary (t0, t1, ...), an immediate, or, when parsed without a size,
// an unknown name resolved later by its consumer.
//
// Operand sizes are written as a keyword prefix:
//
//	BIT      1 bit
//	BYTE     8 bits
//	WORD     16 bits
//	DWORD    32 bits
//	QWORD    64 bits
//	DQWORD   128 bits
//	BITSn    n bits, 1 <= n <= 256
//	UNK      size unspecified
//
// A ';' starts a comment that runs to the end of the line. An operand of
// the form $(expr) is evaluated at parse time, with the parser predefines
// in scope, and becomes an immediate.
//
// A native instruction expands to a sequence of IR instructions. The IR
// instruction at index n of the native instruction at address a has the
// synthetic address (a << 8) | n.
package reil
