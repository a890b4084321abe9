package cegis

import (
	"fmt"

	"github.com/benbjohnson/synth"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// Circuit converts bit-vector expressions into an and-inverter circuit.
//
// Every expression is represented as a slice of literals, least significant
// bit first. Variables must be declared with Input() or Bind() before any
// expression that refers to them is blasted.
type Circuit struct {
	c    *logic.C
	vars map[*synth.Variable][]z.Lit
	memo map[synth.Expr][]z.Lit
}

// NewCircuit returns a new, empty instance of Circuit.
func NewCircuit() *Circuit {
	return &Circuit{
		c:    logic.NewC(),
		vars: make(map[*synth.Variable][]z.Lit),
		memo: make(map[synth.Expr][]z.Lit),
	}
}

// fork returns a circuit sharing the gates & declarations of c but with
// its own declarations and memo from this point on.
func (c *Circuit) fork() *Circuit {
	other := &Circuit{
		c:    c.c,
		vars: make(map[*synth.Variable][]z.Lit, len(c.vars)),
		memo: make(map[synth.Expr][]z.Lit),
	}
	for v, bits := range c.vars {
		other.vars[v] = bits
	}
	return other
}

// Logic returns the underlying circuit.
func (c *Circuit) Logic() *logic.C { return c.c }

// Input declares v as a free input and returns its bits.
func (c *Circuit) Input(v *synth.Variable) []z.Lit {
	if bits, ok := c.vars[v]; ok {
		return bits
	}
	bits := make([]z.Lit, v.Width)
	for i := range bits {
		bits[i] = c.c.Lit()
	}
	c.vars[v] = bits
	return bits
}

// Bind declares v as the constant value.
func (c *Circuit) Bind(v *synth.Variable, value uint64) {
	c.vars[v] = c.constant(value, v.Width)
}

// Const returns the value of bits if every bit is constant.
func (c *Circuit) Const(bits []z.Lit) (value uint64, ok bool) {
	for i, m := range bits {
		switch m {
		case c.c.T:
			value |= 1 << uint(i)
		case c.c.F:
		default:
			return 0, false
		}
	}
	return value, true
}

// Blast returns the bits of expr.
func (c *Circuit) Blast(expr synth.Expr) ([]z.Lit, error) {
	if bits, ok := c.memo[expr]; ok {
		return bits, nil
	}

	bits, err := c.blast(expr)
	if err != nil {
		return nil, err
	}
	c.memo[expr] = bits
	return bits, nil
}

func (c *Circuit) blast(expr synth.Expr) ([]z.Lit, error) {
	switch expr := expr.(type) {
	case *synth.ConstantExpr:
		return c.constant(expr.Value, expr.Width), nil

	case *synth.Variable:
		bits, ok := c.vars[expr]
		if !ok {
			return nil, fmt.Errorf("cegis: undeclared variable: %s", expr.Name)
		}
		return bits, nil

	case *synth.NotExpr:
		x, err := c.Blast(expr.Expr)
		if err != nil {
			return nil, err
		}
		return c.not(x), nil

	case *synth.CastExpr:
		x, err := c.Blast(expr.Src)
		if err != nil {
			return nil, err
		}
		fill := c.c.F
		if expr.Signed {
			fill = x[len(x)-1]
		}
		bits := make([]z.Lit, expr.Width)
		for i := range bits {
			if i < len(x) {
				bits[i] = x[i]
			} else {
				bits[i] = fill
			}
		}
		return bits, nil

	case *synth.BinaryExpr:
		x, err := c.Blast(expr.LHS)
		if err != nil {
			return nil, err
		}
		y, err := c.Blast(expr.RHS)
		if err != nil {
			return nil, err
		}
		return c.binary(expr.Op, x, y)

	default:
		return nil, fmt.Errorf("cegis: unexpected expression type: %T", expr)
	}
}

func (c *Circuit) binary(op synth.BinaryOp, x, y []z.Lit) ([]z.Lit, error) {
	switch op {
	case synth.ADD:
		sum, _ := c.add(x, y, c.c.F)
		return sum, nil
	case synth.SUB:
		return c.sub(x, y), nil
	case synth.MUL:
		return c.mul(x, y), nil
	case synth.UDIV:
		return c.udiv(x, y), nil
	case synth.SDIV:
		return c.sdiv(x, y), nil
	case synth.AND:
		return c.bitwise(x, y, c.c.And), nil
	case synth.OR:
		return c.bitwise(x, y, c.c.Or), nil
	case synth.XOR:
		return c.bitwise(x, y, c.c.Xor), nil
	case synth.SHL:
		return c.shift(x, y, c.shiftLeft, c.c.F), nil
	case synth.LSHR:
		return c.shift(x, y, c.shiftRight, c.c.F), nil
	case synth.ASHR:
		return c.shift(x, y, c.shiftRight, x[len(x)-1]), nil
	case synth.EQ:
		return []z.Lit{c.eq(x, y)}, nil
	case synth.NE:
		return []z.Lit{c.eq(x, y).Not()}, nil
	case synth.ULT:
		return []z.Lit{c.ult(x, y)}, nil
	case synth.ULE:
		return []z.Lit{c.ult(y, x).Not()}, nil
	case synth.UGT:
		return []z.Lit{c.ult(y, x)}, nil
	case synth.UGE:
		return []z.Lit{c.ult(x, y).Not()}, nil
	case synth.SLT:
		return []z.Lit{c.slt(x, y)}, nil
	case synth.SLE:
		return []z.Lit{c.slt(y, x).Not()}, nil
	case synth.SGT:
		return []z.Lit{c.slt(y, x)}, nil
	case synth.SGE:
		return []z.Lit{c.slt(x, y).Not()}, nil
	default:
		return nil, fmt.Errorf("cegis: unexpected binary operator: %s", op)
	}
}

func (c *Circuit) constant(value uint64, width uint) []z.Lit {
	bits := make([]z.Lit, width)
	for i := range bits {
		if value&(1<<uint(i)) != 0 {
			bits[i] = c.c.T
		} else {
			bits[i] = c.c.F
		}
	}
	return bits
}

func (c *Circuit) not(x []z.Lit) []z.Lit {
	bits := make([]z.Lit, len(x))
	for i := range x {
		bits[i] = x[i].Not()
	}
	return bits
}

func (c *Circuit) bitwise(x, y []z.Lit, fn func(a, b z.Lit) z.Lit) []z.Lit {
	bits := make([]z.Lit, len(x))
	for i := range x {
		bits[i] = fn(x[i], y[i])
	}
	return bits
}

// mux returns t if cond is true, otherwise e.
func (c *Circuit) mux(cond z.Lit, t, e []z.Lit) []z.Lit {
	bits := make([]z.Lit, len(t))
	for i := range t {
		bits[i] = c.c.Choice(cond, t[i], e[i])
	}
	return bits
}

// add returns the ripple-carry sum of x, y & carry and the carry out.
func (c *Circuit) add(x, y []z.Lit, carry z.Lit) ([]z.Lit, z.Lit) {
	sum := make([]z.Lit, len(x))
	for i := range x {
		t := c.c.Xor(x[i], y[i])
		sum[i] = c.c.Xor(t, carry)
		carry = c.c.Or(c.c.And(x[i], y[i]), c.c.And(t, carry))
	}
	return sum, carry
}

// sub returns x - y as x + ^y + 1.
func (c *Circuit) sub(x, y []z.Lit) []z.Lit {
	diff, _ := c.add(x, c.not(y), c.c.T)
	return diff
}

func (c *Circuit) neg(x []z.Lit) []z.Lit {
	return c.sub(c.constant(0, uint(len(x))), x)
}

// mul returns the shift-and-add product of x & y, truncated to the width.
func (c *Circuit) mul(x, y []z.Lit) []z.Lit {
	w := len(x)
	acc := c.constant(0, uint(w))
	for i := 0; i < w; i++ {
		partial := make([]z.Lit, w)
		for j := range partial {
			if j < i {
				partial[j] = c.c.F
			} else {
				partial[j] = c.c.And(x[j-i], y[i])
			}
		}
		acc, _ = c.add(acc, partial, c.c.F)
	}
	return acc
}

// udiv returns the quotient of restoring division. Division by zero
// produces all ones.
func (c *Circuit) udiv(x, y []z.Lit) []z.Lit {
	w := len(x)

	// The remainder carries one extra bit so the shift cannot overflow.
	divisor := append(append([]z.Lit{}, y...), c.c.F)
	rem := c.constant(0, uint(w+1))
	quo := make([]z.Lit, w)

	for i := w - 1; i >= 0; i-- {
		shifted := append([]z.Lit{x[i]}, rem[:w]...)
		diff, ge := c.add(shifted, c.not(divisor), c.c.T)
		rem = c.mux(ge, diff, shifted)
		quo[i] = ge
	}
	return quo
}

// sdiv returns the signed quotient, rounded toward zero.
func (c *Circuit) sdiv(x, y []z.Lit) []z.Lit {
	sx, sy := x[len(x)-1], y[len(y)-1]
	ax := c.mux(sx, c.neg(x), x)
	ay := c.mux(sy, c.neg(y), y)
	q := c.udiv(ax, ay)
	return c.mux(c.c.Xor(sx, sy), c.neg(q), q)
}

// shift applies fn once per bit of the shift amount. Amounts of the width
// or more produce fill in every bit.
func (c *Circuit) shift(x, y []z.Lit, fn func(x []z.Lit, n int, fill z.Lit) []z.Lit, fill z.Lit) []z.Lit {
	w := len(x)
	overflow := c.c.F
	for k := range y {
		n := uint64(1) << uint(k)
		if k >= 63 || n >= uint64(w) {
			overflow = c.c.Or(overflow, y[k])
			continue
		}
		x = c.mux(y[k], fn(x, int(n), fill), x)
	}

	fills := make([]z.Lit, w)
	for i := range fills {
		fills[i] = fill
	}
	return c.mux(overflow, fills, x)
}

func (c *Circuit) shiftLeft(x []z.Lit, n int, fill z.Lit) []z.Lit {
	bits := make([]z.Lit, len(x))
	for i := range bits {
		if i < n {
			bits[i] = fill
		} else {
			bits[i] = x[i-n]
		}
	}
	return bits
}

func (c *Circuit) shiftRight(x []z.Lit, n int, fill z.Lit) []z.Lit {
	bits := make([]z.Lit, len(x))
	for i := range bits {
		if i+n < len(x) {
			bits[i] = x[i+n]
		} else {
			bits[i] = fill
		}
	}
	return bits
}

func (c *Circuit) eq(x, y []z.Lit) z.Lit {
	m := c.c.T
	for i := range x {
		m = c.c.And(m, c.c.Xor(x[i], y[i]).Not())
	}
	return m
}

// ult returns true if x < y, unsigned. The carry out of x + ^y + 1 is set
// if x >= y.
func (c *Circuit) ult(x, y []z.Lit) z.Lit {
	_, carry := c.add(x, c.not(y), c.c.T)
	return carry.Not()
}

// slt returns true if x < y, signed.
func (c *Circuit) slt(x, y []z.Lit) z.Lit {
	return c.ult(c.flipSign(x), c.flipSign(y))
}

func (c *Circuit) flipSign(x []z.Lit) []z.Lit {
	bits := append([]z.Lit{}, x...)
	bits[len(bits)-1] = bits[len(bits)-1].Not()
	return bits
}
