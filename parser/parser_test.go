package parser_test

import (
	"strings"
	"testing"

	"github.com/benbjohnson/synth/ast"
	"github.com/benbjohnson/synth/parser"
	"github.com/google/go-cmp/cmp"
)

func TestScanner_Scan(t *testing.T) {
	s := parser.NewScanner(" hA_1 + 42<<x>> ( ) ?:^*/-\t$")

	type item struct {
		Pos int
		Tok parser.Token
		Lit string
	}
	var items []item
	for {
		pos, tok, lit := s.Scan()
		items = append(items, item{pos, tok, lit})
		if tok == parser.EOF {
			break
		}
	}

	if diff := cmp.Diff([]item{
		{1, parser.IDENT, "hA_1"},
		{6, parser.ADD, "+"},
		{8, parser.NUMBER, "42"},
		{10, parser.SHL, "<<"},
		{12, parser.IDENT, "x"},
		{13, parser.SHR, ">>"},
		{16, parser.LPAREN, "("},
		{18, parser.RPAREN, ")"},
		{20, parser.QUESTION, "?"},
		{21, parser.COLON, ":"},
		{22, parser.POW, "^"},
		{23, parser.MUL, "*"},
		{24, parser.QUO, "/"},
		{25, parser.SUB, "-"},
		{27, parser.ILLEGAL, "$"},
		{28, parser.EOF, ""},
	}, items); diff != "" {
		t.Fatal(diff)
	}
}

func TestToken_String(t *testing.T) {
	if s := parser.SHR.String(); s != ">>" {
		t.Fatalf("unexpected string: %s", s)
	} else if s := parser.Token(100).String(); s != "Token<100>" {
		t.Fatalf("unexpected string: %s", s)
	}
}

func TestParser_Parse(t *testing.T) {
	x, y, c := &ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}, &ast.Variable{Name: "c"}
	num := func(v uint64) *ast.Number { return &ast.Number{Value: v} }
	bin := func(op ast.Op, lhs, rhs ast.Node) *ast.Binary { return &ast.Binary{Op: op, X: lhs, Y: rhs} }

	for _, tt := range []struct {
		name string
		src  string
		exp  ast.Node
	}{
		{"Number", "42", num(42)},
		{"Variable", "hA_1", &ast.Variable{Name: "hA_1"}},
		{"Whitespace", " \t x \n", x},
		{"AddLeftAssoc", "x - y + 1", bin(ast.ADD, bin(ast.SUB, x, y), num(1))},
		{"MulOverAdd", "x + y * 2", bin(ast.ADD, x, bin(ast.MUL, y, num(2)))},
		{"ShiftAsMul", "x << 1 >> y", bin(ast.SHR, bin(ast.SHL, x, num(1)), y)},
		{"DivAsMul", "x * y / 2", bin(ast.DIV, bin(ast.MUL, x, y), num(2))},
		{"PowOverMul", "2 * x ^ 3", bin(ast.MUL, num(2), bin(ast.POW, x, num(3)))},
		{"PowLeftAssoc", "x ^ 2 ^ 3", bin(ast.POW, bin(ast.POW, x, num(2)), num(3))},
		{"NegOverPow", "-x ^ 2", bin(ast.POW, &ast.Negate{X: x}, num(2))},
		{"DoubleNeg", "--x", &ast.Negate{X: &ast.Negate{X: x}}},
		{"Parens", "(x + y) * 2", bin(ast.MUL, bin(ast.ADD, x, y), num(2))},
		{"Conditional", "c ? x + 1 : y", &ast.Conditional{Cond: c, Then: bin(ast.ADD, x, num(1)), Else: y}},
		{"ConditionalRightAssoc", "c ? x : y ? 1 : 2", &ast.Conditional{
			Cond: c,
			Then: x,
			Else: &ast.Conditional{Cond: y, Then: num(1), Else: num(2)},
		}},
		{"ConditionalInParens", "((c ? x : y) ^ 2)", bin(ast.POW, &ast.Conditional{Cond: c, Then: x, Else: y}, num(2))},
		{"WrappingLiteral", "18446744073709551617", num(1)},
	} {
		t.Run(tt.name, func(t *testing.T) {
			n, err := parser.New().Parse(tt.src)
			if err != nil {
				t.Fatal(err)
			} else if diff := cmp.Diff(tt.exp, n); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestParser_Parse_Error(t *testing.T) {
	for _, tt := range []struct {
		name string
		src  string
		pos  int
		msg  string
	}{
		{"Empty", "", 0, "expected operand, found end of input"},
		{"TrailingOperator", "x +", 3, "expected operand, found end of input"},
		{"MissingRParen", "(x + 1", 6, "expected ), found end of input"},
		{"MissingColon", "c ? x", 5, "expected : in conditional, found end of input"},
		{"Illegal", "x $ y", 2, `unexpected "$" after expression`},
		{"SingleAngle", "x < y", 2, `unexpected "<" after expression`},
		{"Juxtaposition", "2 x", 2, `unexpected "x" after expression`},
		{"StrayRParen", "x)", 1, `unexpected ")" after expression`},
		{"DigitLedIdent", "1x", 1, `unexpected "x" after expression`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			n, err := parser.New().Parse(tt.src)
			if n != nil {
				t.Fatalf("expected no tree, got %s", n)
			}
			perr, ok := err.(*parser.Error)
			if !ok {
				t.Fatalf("unexpected error type: %T", err)
			} else if perr.Pos != tt.pos {
				t.Fatalf("unexpected position: %d", perr.Pos)
			} else if perr.Msg != tt.msg {
				t.Fatalf("unexpected message: %s", perr.Msg)
			}
		})
	}
}

func TestParser_Parse_MaxDepth(t *testing.T) {
	src := strings.Repeat("(", 20) + "x" + strings.Repeat(")", 20)

	p := parser.New()
	p.MaxDepth = 10
	if _, err := p.Parse(src); err == nil || !strings.Contains(err.Error(), "nested too deeply") {
		t.Fatalf("unexpected error: %v", err)
	}

	p.MaxDepth = 100
	if _, err := p.Parse(src); err != nil {
		t.Fatal(err)
	}
}

// Ensure the printed form of a tree parses back into the same tree.
func TestParser_Parse_RoundTrip(t *testing.T) {
	for _, src := range []string{
		"(x ^ 4)+((2*x)^2)+x^(x^0+1)",
		"(hA * ((hb1 ? x:y) ^2))+ (hB * ((hb2 ? x:y) ^4))",
		"-x << 3 >> -(y / 7) - 1",
		"a ? b ? c : d : e",
	} {
		t.Run(src, func(t *testing.T) {
			n := parser.MustParse(src)
			other, err := parser.New().Parse(n.String())
			if err != nil {
				t.Fatal(err)
			} else if diff := cmp.Diff(n, other); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}
