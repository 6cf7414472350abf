// Package lexer tokenizes SQL text per spec §4.5. Comment skipping and
// rune-at-a-time scanning follow tinySQL's internal/engine/lexer.go;
// keyword canonicalization and identifier/number/string scanning follow
// Felmond13-novusdb/parser/lexer.go.
package lexer

import (
	"strings"
	"unicode"

	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
	"github.com/SimonWaldherr/tinyrel/internal/sql/token"
)

// Lexer scans a fixed input string into tokens on demand.
type Lexer struct {
	src      string
	pos      int
	lastType token.Type
	started  bool
}

func New(src string) *Lexer { return &Lexer{src: src} }

// inBinaryContext reports whether the previously scanned token can end
// an operand, meaning a following '-' must be the subtraction operator
// rather than the sign of a negative literal.
func (l *Lexer) inBinaryContext() bool {
	if !l.started {
		return false
	}
	switch l.lastType {
	case token.NUMBER, token.IDENT, token.RPAREN, token.STRING, token.STAR:
		return true
	default:
		return false
	}
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.pos < len(l.src) && unicode.IsSpace(rune(l.src[l.pos])) {
			l.pos++
		}
		if l.peekByte() == '-' && l.peekByteAt(1) == '-' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		if l.peekByte() == '/' && l.peekByteAt(1) == '*' {
			l.pos += 2
			for l.pos < len(l.src) && !(l.peekByte() == '*' && l.peekByteAt(1) == '/') {
				l.pos++
			}
			l.pos += 2
			continue
		}
		break
	}
}

// Next scans and returns the next token, or a SyntaxError on malformed
// input.
func (l *Lexer) Next() (token.Token, error) {
	tok, err := l.next()
	if err != nil {
		return tok, err
	}
	l.lastType = tok.Type
	l.started = true
	return tok, nil
}

func (l *Lexer) next() (token.Token, error) {
	l.skipWhitespaceAndComments()
	start := l.pos
	if l.pos >= len(l.src) {
		return token.Token{Type: token.EOF, Pos: start}, nil
	}
	c := l.src[l.pos]

	switch {
	case c == '(':
		l.pos++
		return token.Token{Type: token.LPAREN, Literal: "(", Pos: start}, nil
	case c == ')':
		l.pos++
		return token.Token{Type: token.RPAREN, Literal: ")", Pos: start}, nil
	case c == ',':
		l.pos++
		return token.Token{Type: token.COMMA, Literal: ",", Pos: start}, nil
	case c == ';':
		l.pos++
		return token.Token{Type: token.SEMICOLON, Literal: ";", Pos: start}, nil
	case c == '.':
		l.pos++
		return token.Token{Type: token.DOT, Literal: ".", Pos: start}, nil
	case c == '+':
		l.pos++
		return token.Token{Type: token.PLUS, Literal: "+", Pos: start}, nil
	case c == '*':
		l.pos++
		return token.Token{Type: token.STAR, Literal: "*", Pos: start}, nil
	case c == '/':
		l.pos++
		return token.Token{Type: token.SLASH, Literal: "/", Pos: start}, nil
	case c == '%':
		l.pos++
		return token.Token{Type: token.PERCENT, Literal: "%", Pos: start}, nil
	case c == '=':
		l.pos++
		return token.Token{Type: token.EQ, Literal: "=", Pos: start}, nil
	case c == '!':
		if l.peekByteAt(1) == '=' {
			l.pos += 2
			return token.Token{Type: token.NEQ, Literal: "!=", Pos: start}, nil
		}
		return token.Token{}, dberrors.New(dberrors.SyntaxError, "unexpected '!' at position %d", start)
	case c == '<':
		if l.peekByteAt(1) == '=' {
			l.pos += 2
			return token.Token{Type: token.LTE, Literal: "<=", Pos: start}, nil
		}
		l.pos++
		return token.Token{Type: token.LT, Literal: "<", Pos: start}, nil
	case c == '>':
		if l.peekByteAt(1) == '=' {
			l.pos += 2
			return token.Token{Type: token.GTE, Literal: ">=", Pos: start}, nil
		}
		l.pos++
		return token.Token{Type: token.GT, Literal: ">", Pos: start}, nil
	case c == '-':
		// A '-' is the subtraction operator when it follows something that
		// can end an operand; otherwise it's the sign of a negative literal.
		if !l.inBinaryContext() && isDigit(l.peekByteAt(1)) {
			return l.scanNumber()
		}
		l.pos++
		return token.Token{Type: token.MINUS, Literal: "-", Pos: start}, nil
	case c == '\'':
		return l.scanString()
	case isDigit(c):
		return l.scanNumber()
	case isIdentStart(c):
		return l.scanIdentOrKeyword()
	default:
		return token.Token{}, dberrors.New(dberrors.SyntaxError, "unexpected character %q at position %d", c, start)
	}
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || unicode.IsLetter(rune(c)) }
func isIdentCont(c byte) bool  { return c == '_' || unicode.IsLetter(rune(c)) || isDigit(c) }

func (l *Lexer) scanNumber() (token.Token, error) {
	start := l.pos
	if l.peekByte() == '-' {
		l.pos++
	}
	for isDigit(l.peekByte()) {
		l.pos++
	}
	if l.peekByte() == '.' {
		l.pos++
		for isDigit(l.peekByte()) {
			l.pos++
		}
	}
	return token.Token{Type: token.NUMBER, Literal: l.src[start:l.pos], Pos: start}, nil
}

func (l *Lexer) scanString() (token.Token, error) {
	start := l.pos
	l.pos++ // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token.Token{}, dberrors.New(dberrors.SyntaxError, "unterminated string literal starting at position %d", start)
		}
		c := l.src[l.pos]
		if c == '\\' && l.peekByteAt(1) == '\'' {
			sb.WriteByte('\'')
			l.pos += 2
			continue
		}
		if c == '\'' {
			l.pos++
			break
		}
		sb.WriteByte(c)
		l.pos++
	}
	return token.Token{Type: token.STRING, Literal: sb.String(), Pos: start}, nil
}

func (l *Lexer) scanIdentOrKeyword() (token.Token, error) {
	start := l.pos
	for isIdentCont(l.peekByte()) {
		l.pos++
	}
	lit := l.src[start:l.pos]
	if kw := token.LookupIdent(strings.ToUpper(lit)); kw != token.IDENT {
		return token.Token{Type: kw, Literal: strings.ToUpper(lit), Pos: start}, nil
	}
	return token.Token{Type: token.IDENT, Literal: lit, Pos: start}, nil
}

// Tokenize scans src to completion, including the trailing EOF token.
func Tokenize(src string) ([]token.Token, error) {
	l := New(src)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}
