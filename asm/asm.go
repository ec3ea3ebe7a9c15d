// Package asm assembles textual rox bytecode into chunks.
//
// The text is a sequence of mnemonics, one instruction each, tokenized by
// the rox scanner so that // comments and free-form whitespace work as in
// source files:
//
//	// 10.5 - 10.5
//	OP_CONSTANT 10.5
//	OP_CONSTANT 10.5
//	OP_SUBTRACT
//	OP_RETURN
//
// OP_CONSTANT takes a number literal, optionally negative, which is added to
// the constant pool. Each instruction takes the line of its mnemonic.
package asm

import (
	"fmt"
	"strconv"

	"github.com/TamplierS1/rox/compiler"
	"github.com/TamplierS1/rox/pkg/bytecode"
)

// Error reports malformed assembly text.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("asm: line %d: %s", e.Line, e.Msg)
}

// Assemble translates assembly text into a chunk. Lexical errors from the
// scanner are returned unchanged.
func Assemble(source []byte) (*bytecode.Chunk, error) {
	a := &assembler{
		scanner: compiler.NewScanner(source),
		chunk:   bytecode.NewChunk(),
	}
	if err := a.run(); err != nil {
		return nil, err
	}
	return a.chunk, nil
}

type assembler struct {
	scanner *compiler.Scanner
	chunk   *bytecode.Chunk
}

func (a *assembler) run() error {
	for {
		tok, err := a.scanner.ScanToken()
		if err != nil {
			return err
		}

		switch tok.Kind {
		case compiler.TokenEOF:
			return nil
		case compiler.TokenIdentifier:
			if err := a.instruction(tok); err != nil {
				return err
			}
		default:
			return &Error{Line: tok.Line, Msg: fmt.Sprintf("expected mnemonic, got %s '%s'", tok.Kind, tok.Lexeme)}
		}
	}
}

func (a *assembler) instruction(mnemonic compiler.Token) error {
	op, ok := bytecode.LookupOpcode(mnemonic.Text())
	if !ok {
		return &Error{Line: mnemonic.Line, Msg: fmt.Sprintf("unknown mnemonic %s", mnemonic.Lexeme)}
	}

	if op != bytecode.OpConstant {
		a.chunk.WriteOp(op, mnemonic.Line)
		return nil
	}

	value, err := a.number(mnemonic.Line)
	if err != nil {
		return err
	}
	a.chunk.WriteConstant(bytecode.NumberVal(value), mnemonic.Line)
	return nil
}

// number reads the OP_CONSTANT operand: an optional '-' and a number.
func (a *assembler) number(line int) (float64, error) {
	tok, err := a.scanner.ScanToken()
	if err != nil {
		return 0, err
	}

	sign := 1.0
	if tok.Kind == compiler.TokenMinus {
		sign = -1
		if tok, err = a.scanner.ScanToken(); err != nil {
			return 0, err
		}
	}

	if tok.Kind != compiler.TokenNumber {
		return 0, &Error{Line: line, Msg: fmt.Sprintf("OP_CONSTANT expects a number, got %s '%s'", tok.Kind, tok.Lexeme)}
	}

	n, err := strconv.ParseFloat(tok.Text(), 64)
	if err != nil {
		return 0, &Error{Line: tok.Line, Msg: fmt.Sprintf("invalid number %s: %v", tok.Lexeme, err)}
	}
	return sign * n, nil
}
