package compiler

import (
	"errors"
	"fmt"
	"io"
)

// ---------------------------------------------------------------------------
// Scanner: tokenizer for rox source
// ---------------------------------------------------------------------------

// Lexical error kinds. A CompileError wraps one of these.
var (
	ErrUnterminatedString  = errors.New("Unterminated string.")
	ErrUnexpectedCharacter = errors.New("Unexpected character.")
)

// CompileError reports a lexical failure and the line it was found on.
type CompileError struct {
	Err  error
	Line int
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("Compile Error: [line %d] %v", e.Line, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Scanner tokenizes rox source code. It borrows the source buffer; tokens
// it returns alias that buffer.
type Scanner struct {
	source  []byte
	start   int // offset of the token being scanned
	current int // offset of the next unread byte
	line    int // current line (1-based)
}

// NewScanner creates a new scanner for the given source.
func NewScanner(source []byte) *Scanner {
	return &Scanner{
		source: source,
		line:   1,
	}
}

// Line returns the line the scanner is currently on.
func (s *Scanner) Line() int {
	return s.line
}

// Slice returns the raw source bytes between two offsets. Offsets are
// clamped to the source; an inverted range yields an empty slice.
func (s *Scanner) Slice(start, end int) []byte {
	start = max(0, min(start, len(s.source)))
	end = max(start, min(end, len(s.source)))
	return s.source[start:end]
}

// ScanToken skips whitespace and comments, then returns the next token.
// Once the input is exhausted every call returns a fresh Eof token.
// On a lexical error the offending input is consumed, so calling
// ScanToken again continues after it.
func (s *Scanner) ScanToken() (Token, error) {
	s.skipWhitespace()

	s.start = s.current

	if s.isAtEnd() {
		return s.makeToken(TokenEOF), nil
	}

	c := s.advance()

	switch {
	case isAlpha(c):
		return s.identifier(), nil
	case isDigit(c):
		return s.number(), nil
	}

	switch c {
	case '(':
		return s.makeToken(TokenLeftParen), nil
	case ')':
		return s.makeToken(TokenRightParen), nil
	case '{':
		return s.makeToken(TokenLeftBrace), nil
	case '}':
		return s.makeToken(TokenRightBrace), nil
	case ',':
		return s.makeToken(TokenComma), nil
	case '.':
		return s.makeToken(TokenDot), nil
	case '-':
		return s.makeToken(TokenMinus), nil
	case '+':
		return s.makeToken(TokenPlus), nil
	case ';':
		return s.makeToken(TokenSemicolon), nil
	case '/':
		return s.makeToken(TokenSlash), nil
	case '*':
		return s.makeToken(TokenStar), nil
	case '!':
		return s.makeToken(s.pick('=', TokenBangEqual, TokenBang)), nil
	case '=':
		return s.makeToken(s.pick('=', TokenEqualEqual, TokenEqual)), nil
	case '<':
		return s.makeToken(s.pick('=', TokenLessEqual, TokenLess)), nil
	case '>':
		return s.makeToken(s.pick('=', TokenGreaterEqual, TokenGreater)), nil
	case '"':
		return s.scanString()
	}

	return Token{}, s.compileError(ErrUnexpectedCharacter, s.line)
}

// isAtEnd reports whether all input has been consumed.
func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

// advance consumes and returns the next byte.
func (s *Scanner) advance() byte {
	c := s.source[s.current]
	s.current++
	return c
}

// peek returns the next byte without consuming it, or 0 at end of input.
func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.source[s.current]
}

// peekNext returns the byte after the next one, or 0 past the end.
func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return 0
	}
	return s.source[s.current+1]
}

// match consumes the next byte if it equals expected.
func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.source[s.current] != expected {
		return false
	}
	s.current++
	return true
}

// pick returns two if the next byte is expected (consuming it), else one.
func (s *Scanner) pick(expected byte, two, one TokenKind) TokenKind {
	if s.match(expected) {
		return two
	}
	return one
}

func (s *Scanner) makeToken(kind TokenKind) Token {
	return Token{
		Kind:   kind,
		Lexeme: s.source[s.start:s.current:s.current],
		Line:   s.line,
		Start:  s.start,
	}
}

func (s *Scanner) compileError(err error, line int) error {
	return &CompileError{Err: err, Line: line}
}

// skipWhitespace skips blanks, newlines and // line comments.
// A comment stops before its newline, which the next pass counts.
func (s *Scanner) skipWhitespace() {
	for !s.isAtEnd() {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.current++
		case '\n':
			s.line++
			s.current++
		case '/':
			if s.peekNext() != '/' {
				return
			}
			for !s.isAtEnd() && s.peek() != '\n' {
				s.current++
			}
		default:
			return
		}
	}
}

// scanString scans a string literal. The opening quote is already consumed;
// the lexeme keeps both quotes. Strings may span lines; the token carries
// the line of its opening quote.
func (s *Scanner) scanString() (Token, error) {
	startLine := s.line
	for !s.isAtEnd() && s.peek() != '"' {
		if s.peek() == '\n' {
			s.line++
		}
		s.current++
	}

	if s.isAtEnd() {
		return Token{}, s.compileError(ErrUnterminatedString, startLine)
	}

	s.current++ // closing quote
	tok := s.makeToken(TokenString)
	tok.Line = startLine
	return tok, nil
}

// number scans digits with an optional fractional part. A '.' that is not
// followed by a digit is left for the next token.
func (s *Scanner) number() Token {
	for isDigit(s.peek()) {
		s.current++
	}

	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.current++ // consume .
		for isDigit(s.peek()) {
			s.current++
		}
	}

	return s.makeToken(TokenNumber)
}

// identifier scans an identifier and resolves reserved words.
func (s *Scanner) identifier() Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.current++
	}
	return s.makeToken(LookupKeyword(s.source[s.start:s.current]))
}

// Helper functions

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Tokenize returns all tokens from the source up to and including Eof,
// stopping at the first lexical error.
func Tokenize(source []byte) ([]Token, error) {
	s := NewScanner(source)
	var tokens []Token
	for {
		tok, err := s.ScanToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens, nil
		}
	}
}

// ScanAll scans the whole source, continuing past lexical errors. It returns
// every token (ending with Eof) and every error encountered.
func ScanAll(source []byte) ([]Token, []*CompileError) {
	s := NewScanner(source)
	var tokens []Token
	var errs []*CompileError
	for {
		tok, err := s.ScanToken()
		if err != nil {
			var ce *CompileError
			if errors.As(err, &ce) {
				errs = append(errs, ce)
			}
			continue
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens, errs
		}
	}
}

// DumpTokens writes one line per token: the line number (or "|" when it
// repeats the previous token's line), the kind, and the quoted lexeme.
// It stops after Eof and returns the first lexical or write error.
func DumpTokens(w io.Writer, source []byte) error {
	s := NewScanner(source)
	currentLine := 0
	for {
		tok, err := s.ScanToken()
		if err != nil {
			return err
		}

		lineCol := "|"
		if tok.Line != currentLine {
			lineCol = fmt.Sprint(tok.Line)
			currentLine = tok.Line
		}

		if _, err := fmt.Fprintf(w, "%s\t%-14s '%s'\n", lineCol, tok.Kind, tok.Lexeme); err != nil {
			return err
		}

		if tok.Kind == TokenEOF {
			return nil
		}
	}
}
