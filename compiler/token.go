package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token kinds for the rox scanner
// ---------------------------------------------------------------------------

// TokenKind represents the kind of a token.
type TokenKind int

const (
	// Single-character tokens
	TokenLeftParen TokenKind = iota // (
	TokenRightParen                 // )
	TokenLeftBrace                  // {
	TokenRightBrace                 // }
	TokenComma                      // ,
	TokenDot                        // .
	TokenMinus                      // -
	TokenPlus                       // +
	TokenSemicolon                  // ;
	TokenSlash                      // /
	TokenStar                       // *

	// One or two character tokens
	TokenBang         // !
	TokenBangEqual    // !=
	TokenEqual        // =
	TokenEqualEqual   // ==
	TokenGreater      // >
	TokenGreaterEqual // >=
	TokenLess         // <
	TokenLessEqual    // <=

	// Literals
	TokenIdentifier // foo, _bar1
	TokenString     // "hello"
	TokenNumber     // 42, 3.14

	// Keywords
	TokenAnd
	TokenClass
	TokenElse
	TokenFalse
	TokenFor
	TokenFun
	TokenIf
	TokenNil
	TokenOr
	TokenPrint
	TokenReturn
	TokenSuper
	TokenThis
	TokenTrue
	TokenVar
	TokenWhile

	TokenEOF
)

var tokenNames = [...]string{
	TokenLeftParen:    "LeftParen",
	TokenRightParen:   "RightParen",
	TokenLeftBrace:    "LeftBrace",
	TokenRightBrace:   "RightBrace",
	TokenComma:        "Comma",
	TokenDot:          "Dot",
	TokenMinus:        "Minus",
	TokenPlus:         "Plus",
	TokenSemicolon:    "Semicolon",
	TokenSlash:        "Slash",
	TokenStar:         "Star",
	TokenBang:         "Bang",
	TokenBangEqual:    "BangEqual",
	TokenEqual:        "Equal",
	TokenEqualEqual:   "EqualEqual",
	TokenGreater:      "Greater",
	TokenGreaterEqual: "GreaterEqual",
	TokenLess:         "Less",
	TokenLessEqual:    "LessEqual",
	TokenIdentifier:   "Identifier",
	TokenString:       "String",
	TokenNumber:       "Number",
	TokenAnd:          "And",
	TokenClass:        "Class",
	TokenElse:         "Else",
	TokenFalse:        "False",
	TokenFor:          "For",
	TokenFun:          "Fun",
	TokenIf:           "If",
	TokenNil:          "Nil",
	TokenOr:           "Or",
	TokenPrint:        "Print",
	TokenReturn:       "Return",
	TokenSuper:        "Super",
	TokenThis:         "This",
	TokenTrue:         "True",
	TokenVar:          "Var",
	TokenWhile:        "While",
	TokenEOF:          "Eof",
}

func (k TokenKind) String() string {
	if k >= 0 && int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("Token(%d)", int(k))
}

// IsKeyword reports whether k is one of the reserved words.
func (k TokenKind) IsKeyword() bool {
	return k >= TokenAnd && k <= TokenWhile
}

// TokenKindCount is the number of distinct token kinds.
const TokenKindCount = int(TokenEOF) + 1

// Token is a view over a byte range of the scanner's source buffer.
// Lexeme aliases the source; it must not outlive it and must not be mutated.
type Token struct {
	Kind   TokenKind
	Lexeme []byte
	Line   int // 1-based line the token starts on
	Start  int // byte offset of the lexeme in the source
}

// Text returns the lexeme as a string.
func (t Token) Text() string {
	return string(t.Lexeme)
}

func (t Token) String() string {
	if t.Kind == TokenEOF {
		return "Eof"
	}
	if len(t.Lexeme) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Kind, t.Lexeme[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Lexeme)
}

// Reserved words mapped to their token kinds.
var keywords = map[string]TokenKind{
	"and":    TokenAnd,
	"class":  TokenClass,
	"else":   TokenElse,
	"false":  TokenFalse,
	"for":    TokenFor,
	"fun":    TokenFun,
	"if":     TokenIf,
	"nil":    TokenNil,
	"or":     TokenOr,
	"print":  TokenPrint,
	"return": TokenReturn,
	"super":  TokenSuper,
	"this":   TokenThis,
	"true":   TokenTrue,
	"var":    TokenVar,
	"while":  TokenWhile,
}

// LookupKeyword returns the keyword kind for an exact reserved word, or
// TokenIdentifier.
func LookupKeyword(word []byte) TokenKind {
	if kind, ok := keywords[string(word)]; ok {
		return kind
	}
	return TokenIdentifier
}

// Keywords returns the reserved words in declaration order.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for k := TokenAnd; k <= TokenWhile; k++ {
		words = append(words, tokenLiteral(k))
	}
	return words
}

// tokenLiteral returns the source spelling of a keyword kind.
func tokenLiteral(k TokenKind) string {
	for word, kind := range keywords {
		if kind == k {
			return word
		}
	}
	return ""
}
