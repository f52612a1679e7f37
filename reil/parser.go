// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package reil

import (
	"bufio"
	"errors"
	"io"
	"log"
	"math/big"
	"regexp"
	"strings"

	"github.com/holiman/uint256"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var (
	// MNEMONIC [operands]
	_lineRegexp = regexp.MustCompile(`^\s*([A-Za-z]+)\s*\[(.*)\]\s*$`)
	// ADDRESS: native text
	_nativeRegexp = regexp.MustCompile(`^\s*(0[xX][0-9a-fA-F_]+|[0-9]+)\s*:\s*(.*)$`)
	_nameRegexp   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	_tempRegexp   = regexp.MustCompile(`^t[0-9]+$`)
)

// Parser reads the concrete syntax of IR instructions.
type Parser struct {
	Verbose bool // If set, logs every parsed line.

	predefine map[string]string
}

// Predefine defines a name that is replaced by value wherever it appears
// as an operand, and is in scope for $() expressions.
func (p *Parser) Predefine(name string, value string) {
	if p.predefine == nil {
		p.predefine = map[string]string{name: value}
	} else {
		p.predefine[name] = value
	}
}

// stripComment removes a ';' comment and surrounding space.
func stripComment(text string) string {
	text, _, _ = strings.Cut(text, ";")
	return strings.TrimSpace(text)
}

// ParseLine parses a single instruction.
func (p *Parser) ParseLine(line string) (ins Instruction, err error) {
	return p.parseLine(line, 1)
}

// ParseLines parses one instruction per element of lines. Blank and
// comment-only elements are skipped.
func (p *Parser) ParseLines(lines []string) (code []Instruction, err error) {
	for n, line := range lines {
		if len(stripComment(line)) == 0 {
			continue
		}
		var ins Instruction
		ins, err = p.parseLine(line, n+1)
		if err != nil {
			return
		}
		code = append(code, ins)
	}

	return
}

// Parse parses a stream of instructions, one per line.
func (p *Parser) Parse(input io.Reader) (code []Instruction, err error) {
	scanner := bufio.NewScanner(input)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	return p.ParseLines(lines)
}

// ParseProgram parses a stream of native instructions. A line of the form
//
//	ADDRESS: text
//
// starts a native instruction at ADDRESS, described by text. The IR lines
// that follow, up to the next such line, are its expansion. The size of
// each native instruction is the distance to the next one; the last has
// size 0.
func (p *Parser) ParseProgram(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	prog = &Program{}

	var lineno int
	var line string

	defer func() {
		if err != nil {
			var syntaxErr *ErrSyntax
			if !errors.As(err, &syntaxErr) {
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
			}
			prog = nil
		}
	}()

	for scanner.Scan() {
		line = scanner.Text()
		lineno++

		text := stripComment(line)
		if len(text) == 0 {
			continue
		}

		match := _nativeRegexp.FindStringSubmatch(text)
		if match != nil {
			var address *uint256.Int
			address, err = parseNumber(match[1], SIZE_QWORD)
			if err != nil {
				return
			}
			if len(prog.Natives) > 0 {
				last := &prog.Natives[len(prog.Natives)-1]
				if address.Uint64() <= last.Address {
					err = &ErrSyntax{LineNo: lineno, Line: line, Token: match[1], Err: ErrNativeOrder}
					return
				}
				last.Size = int(address.Uint64() - last.Address)
			}
			prog.Natives = append(prog.Natives, Native{
				Address:  address.Uint64(),
				Mnemonic: strings.TrimSpace(match[2]),
			})
			if p.Verbose {
				log.Printf("%v: native %#x %v", lineno, address.Uint64(), match[2])
			}
			continue
		}

		if len(prog.Natives) == 0 {
			err = ErrNativeMissing
			return
		}

		var ins Instruction
		ins, err = p.parseLine(line, lineno)
		if err != nil {
			return
		}

		native := &prog.Natives[len(prog.Natives)-1]
		if len(native.Code) == MAX_INDEX {
			err = ErrExpansion{Address: native.Address, Count: len(native.Code) + 1}
			return
		}
		native.Code = append(native.Code, ins)
	}

	err = scanner.Err()
	return
}

// splitOperands splits on commas outside of parentheses.
func splitOperands(text string) (tokens []string) {
	depth := 0
	start := 0
	for n, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				tokens = append(tokens, strings.TrimSpace(text[start:n]))
				start = n + 1
			}
		}
	}
	tokens = append(tokens, strings.TrimSpace(text[start:]))
	return
}

// parseLine parses a single instruction line.
func (p *Parser) parseLine(line string, lineno int) (ins Instruction, err error) {
	var token string

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Token: token, Err: err}
		}
	}()

	if p.Verbose {
		log.Printf("%v: %v", lineno, line)
	}

	match := _lineRegexp.FindStringSubmatch(stripComment(line))
	if match == nil {
		err = ErrSyntaxLine
		return
	}

	token = match[1]
	op, ok := ParseOpcode(token)
	if !ok {
		err = ErrMnemonic
		return
	}

	tokens := splitOperands(match[2])
	if len(tokens) != 3 {
		token = match[2]
		err = ErrOperandCount
		return
	}

	ins.Op = op
	for n, text := range tokens {
		token = text
		ins.Operands[n], err = p.parseOperand(text)
		if err != nil {
			return
		}
	}

	token = ""
	return
}

// parseOperand parses a single operand token.
func (p *Parser) parseOperand(token string) (op Operand, err error) {
	if len(token) == 0 {
		err = ErrOperand
		return
	}

	if strings.EqualFold(token, "EMPTY") {
		op = Empty()
		return
	}

	size := SIZE_NONE
	word := token
	if !strings.HasPrefix(token, "$(") {
		prefix, rest, found := strings.Cut(token, " ")
		if found {
			var ok bool
			size, ok = ParseSize(prefix)
			if !ok {
				err = ErrOperand
				return
			}
			word = strings.TrimSpace(rest)
		}
	}

	value, ok := p.predefine[word]
	if ok {
		word = value
	}

	switch {
	case strings.HasPrefix(word, "$(") && strings.HasSuffix(word, ")"):
		var number *uint256.Int
		number, err = p.parenEval(word[2:len(word)-1], size)
		if err != nil {
			return
		}
		op = Immediate(size, number)
	case len(word) > 0 && (word[0] == '-' || ('0' <= word[0] && word[0] <= '9')):
		var number *uint256.Int
		number, err = parseNumber(word, size)
		if err != nil {
			return
		}
		op = Immediate(size, number)
	case _nameRegexp.MatchString(word):
		switch {
		case !size.Known():
			op = Unknown(size, word)
		case _tempRegexp.MatchString(word):
			op = Temporary(size, word)
		default:
			op = Register(size, word)
		}
	default:
		err = ErrOperand
	}

	return
}

// wrapNumber reduces a signed integer to its unsigned form in size bits,
// or 256 bits when size is unspecified.
func wrapNumber(number *big.Int, size Size) (value *uint256.Int, err error) {
	if number.Sign() < 0 {
		width := uint(SIZE_MAX)
		if size.Known() && size != SIZE_EMPTY && size < SIZE_MAX {
			width = uint(size)
		}
		modulus := new(big.Int).Lsh(big.NewInt(1), width)
		number = new(big.Int).Mod(number, modulus)
	}

	value, overflow := uint256.FromBig(number)
	if overflow {
		err = ErrOperand
		value = nil
		return
	}

	return
}

// parseNumber parses a decimal, 0x, 0o or 0b literal, optionally negative.
func parseNumber(word string, size Size) (value *uint256.Int, err error) {
	number, ok := new(big.Int).SetString(word, 0)
	if !ok {
		err = ErrOperand
		return
	}

	return wrapNumber(number, size)
}

// parenEval does parse-time $(...) evaluations.
func (p *Parser) parenEval(expr string, size Size) (value *uint256.Int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range p.predefine {
		number, ok := new(big.Int).SetString(str, 0)
		if !ok {
			// Ignore non-integer predefines. They may be registers.
			continue
		}
		pred[key] = starlark.MakeBigInt(number)
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = errors.Join(ErrParseExpression(expr), err)
		return
	}

	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}

	return wrapNumber(st_int.BigInt(), size)
}
