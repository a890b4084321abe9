package parser

import (
	"fmt"
)

// Token is the set of lexical tokens of the expression language.
type Token int

// Tokens.
const (
	ILLEGAL Token = iota
	EOF

	IDENT  // x, hA, h_1
	NUMBER // 123

	ADD      // +
	SUB      // -
	MUL      // *
	QUO      // /
	SHL      // <<
	SHR      // >>
	POW      // ^
	QUESTION // ?
	COLON    // :
	LPAREN   // (
	RPAREN   // )
)

var tokens = [...]string{
	ILLEGAL:  "ILLEGAL",
	EOF:      "EOF",
	IDENT:    "IDENT",
	NUMBER:   "NUMBER",
	ADD:      "+",
	SUB:      "-",
	MUL:      "*",
	QUO:      "/",
	SHL:      "<<",
	SHR:      ">>",
	POW:      "^",
	QUESTION: "?",
	COLON:    ":",
	LPAREN:   "(",
	RPAREN:   ")",
}

// String returns the string representation of the token.
func (tok Token) String() string {
	if tok >= 0 && tok < Token(len(tokens)) {
		return tokens[tok]
	}
	return fmt.Sprintf("Token<%d>", tok)
}

// Scanner tokenizes a source string.
type Scanner struct {
	src string
	pos int
}

// NewScanner returns a new instance of Scanner over src.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src}
}

// Scan returns the next token, its byte offset, and its literal text.
func (s *Scanner) Scan() (pos int, tok Token, lit string) {
	s.skipWhitespace()

	pos = s.pos
	if s.pos >= len(s.src) {
		return pos, EOF, ""
	}

	ch := s.src[s.pos]
	switch {
	case isLetter(ch):
		for s.pos < len(s.src) && (isLetter(s.src[s.pos]) || isDigit(s.src[s.pos])) {
			s.pos++
		}
		return pos, IDENT, s.src[pos:s.pos]
	case isDigit(ch):
		for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
			s.pos++
		}
		return pos, NUMBER, s.src[pos:s.pos]
	}

	s.pos++
	switch ch {
	case '+':
		return pos, ADD, "+"
	case '-':
		return pos, SUB, "-"
	case '*':
		return pos, MUL, "*"
	case '/':
		return pos, QUO, "/"
	case '^':
		return pos, POW, "^"
	case '?':
		return pos, QUESTION, "?"
	case ':':
		return pos, COLON, ":"
	case '(':
		return pos, LPAREN, "("
	case ')':
		return pos, RPAREN, ")"
	case '<', '>':
		if s.pos < len(s.src) && s.src[s.pos] == ch {
			s.pos++
			if ch == '<' {
				return pos, SHL, "<<"
			}
			return pos, SHR, ">>"
		}
	}
	return pos, ILLEGAL, string(ch)
}

func (s *Scanner) skipWhitespace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			s.pos++
		default:
			return
		}
	}
}

func isLetter(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
