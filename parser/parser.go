// Package parser converts source text into an ast.Node.
//
// The grammar, from lowest to highest precedence:
//
//	cond    := sum [ "?" cond ":" cond ]
//	sum     := term { ("+" | "-") term }
//	term    := power { ("*" | "/" | "<<" | ">>") power }
//	power   := unary { "^" unary }
//	unary   := "-" unary | primary
//	primary := NUMBER | IDENT | "(" cond ")"
//
// Whitespace is insignificant.
package parser

import (
	"fmt"

	"github.com/benbjohnson/synth/ast"
)

// DefaultMaxDepth is the default nesting limit of a Parser.
const DefaultMaxDepth = 1000

// Parser parses source text. It holds no per-input state and may be reused.
type Parser struct {
	// Maximum nesting depth of parentheses, negations and conditionals.
	MaxDepth int
}

// New returns a new instance of Parser.
func New() *Parser {
	return &Parser{MaxDepth: DefaultMaxDepth}
}

// Parse parses src into a tree. No partial tree is returned on error.
func (p *Parser) Parse(src string) (ast.Node, error) {
	ps := &parser{scanner: NewScanner(src), maxDepth: p.MaxDepth}
	if ps.maxDepth <= 0 {
		ps.maxDepth = DefaultMaxDepth
	}
	ps.next()

	n, err := ps.parseCond()
	if err != nil {
		return nil, err
	} else if ps.tok != EOF {
		return nil, ps.errorf("unexpected %s after expression", ps.describe())
	}
	return n, nil
}

// MustParse parses src with a default parser. Panic on error.
func MustParse(src string) ast.Node {
	n, err := New().Parse(src)
	if err != nil {
		panic(err)
	}
	return n
}

// parser holds the state for a single call to Parser.Parse.
type parser struct {
	scanner  *Scanner
	maxDepth int
	depth    int

	// Current token.
	pos int
	tok Token
	lit string
}

func (p *parser) next() {
	p.pos, p.tok, p.lit = p.scanner.Scan()
}

func (p *parser) enter() error {
	if p.depth++; p.depth > p.maxDepth {
		return p.errorf("expression nested too deeply")
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) parseCond() (ast.Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	cond, err := p.parseSum()
	if err != nil {
		return nil, err
	} else if p.tok != QUESTION {
		return cond, nil
	}
	p.next()

	then, err := p.parseCond()
	if err != nil {
		return nil, err
	} else if p.tok != COLON {
		return nil, p.errorf("expected : in conditional, found %s", p.describe())
	}
	p.next()

	els, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	return &ast.Conditional{Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) parseSum() (ast.Node, error) {
	x, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.Op
		switch p.tok {
		case ADD:
			op = ast.ADD
		case SUB:
			op = ast.SUB
		default:
			return x, nil
		}
		p.next()

		y, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{Op: op, X: x, Y: y}
	}
}

func (p *parser) parseTerm() (ast.Node, error) {
	x, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.Op
		switch p.tok {
		case MUL:
			op = ast.MUL
		case QUO:
			op = ast.DIV
		case SHL:
			op = ast.SHL
		case SHR:
			op = ast.SHR
		default:
			return x, nil
		}
		p.next()

		y, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{Op: op, X: x, Y: y}
	}
}

func (p *parser) parsePower() (ast.Node, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok == POW {
		p.next()

		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{Op: ast.POW, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) parseUnary() (ast.Node, error) {
	if p.tok != SUB {
		return p.parsePrimary()
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.next()
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.Negate{X: x}, nil
}

func (p *parser) parsePrimary() (ast.Node, error) {
	switch p.tok {
	case NUMBER:
		n := &ast.Number{Value: parseUint(p.lit)}
		p.next()
		return n, nil

	case IDENT:
		n := &ast.Variable{Name: p.lit}
		p.next()
		return n, nil

	case LPAREN:
		p.next()
		x, err := p.parseCond()
		if err != nil {
			return nil, err
		} else if p.tok != RPAREN {
			return nil, p.errorf("expected ), found %s", p.describe())
		}
		p.next()
		return x, nil

	default:
		return nil, p.errorf("expected operand, found %s", p.describe())
	}
}

// describe returns a human readable form of the current token.
func (p *parser) describe() string {
	switch p.tok {
	case EOF:
		return "end of input"
	case IDENT, NUMBER, ILLEGAL:
		return fmt.Sprintf("%q", p.lit)
	default:
		return fmt.Sprintf("%q", p.tok.String())
	}
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &Error{Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

// parseUint parses a decimal literal, wrapping modulo 2^64.
func parseUint(lit string) uint64 {
	var v uint64
	for i := 0; i < len(lit); i++ {
		v = v*10 + uint64(lit[i]-'0')
	}
	return v
}

// Error represents a syntax error in the source text.
type Error struct {
	Pos int // byte offset
	Msg string
}

// Error returns the error as a string.
func (e *Error) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Msg)
}
