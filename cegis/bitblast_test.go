package cegis_test

import (
	"testing"

	"github.com/benbjohnson/synth"
	"github.com/benbjohnson/synth/cegis"
)

// Ensure every operator agrees with the concrete evaluator for all inputs.
func TestCircuit_Blast(t *testing.T) {
	const width = 4

	for _, op := range []synth.BinaryOp{
		synth.ADD, synth.SUB, synth.MUL, synth.UDIV, synth.SDIV,
		synth.AND, synth.OR, synth.XOR,
		synth.SHL, synth.LSHR, synth.ASHR,
		synth.EQ, synth.NE,
		synth.ULT, synth.ULE, synth.UGT, synth.UGE,
		synth.SLT, synth.SLE, synth.SGT, synth.SGE,
	} {
		t.Run(op.String(), func(t *testing.T) {
			x := synth.NewVariable(0, "x", width)
			y := synth.NewVariable(1, "y", width)
			expr := synth.NewBinaryExpr(op, x, y)

			for a := uint64(0); a < 1<<width; a++ {
				for b := uint64(0); b < 1<<width; b++ {
					MustBlastEqual(t, expr, []*synth.Variable{x, y}, []uint64{a, b})
				}
			}
		})
	}

	t.Run("Cast", func(t *testing.T) {
		x := synth.NewVariable(0, "x", width)
		for _, expr := range []synth.Expr{
			synth.NewCastExpr(x, 8, false),
			synth.NewCastExpr(x, 8, true),
			synth.NewBoolToWordExpr(synth.NewIsZeroExpr(x), width),
			synth.NewNotExpr(x),
			synth.NewNegExpr(x),
		} {
			for a := uint64(0); a < 1<<width; a++ {
				MustBlastEqual(t, expr, []*synth.Variable{x}, []uint64{a})
			}
		}
	})

	t.Run("Width64", func(t *testing.T) {
		x := synth.NewVariable(0, "x", synth.Width64)
		y := synth.NewVariable(1, "y", synth.Width64)
		for _, op := range []synth.BinaryOp{synth.MUL, synth.SDIV, synth.ASHR, synth.SLT} {
			for _, v := range [][]uint64{
				{0, 0},
				{1<<63 | 5, 3},
				{0xFFFFFFFFFFFFFFFF, 0xFFFFFFFFFFFFFFFF},
				{12345678901234, 64},
				{1 << 63, 0xFFFFFFFFFFFFFFFF},
			} {
				MustBlastEqual(t, synth.NewBinaryExpr(op, x, y), []*synth.Variable{x, y}, v)
			}
		}
	})

	t.Run("ErrUndeclaredVariable", func(t *testing.T) {
		x := synth.NewVariable(0, "x", width)
		if _, err := cegis.NewCircuit().Blast(x); err == nil || err.Error() != "cegis: undeclared variable: x" {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestCircuit_Const(t *testing.T) {
	c := cegis.NewCircuit()
	x := synth.NewVariable(0, "x", 8)
	bits := c.Input(x)
	if _, ok := c.Const(bits); ok {
		t.Fatal("expected input to be non-constant")
	} else if other := c.Input(x); &other[0] != &bits[0] {
		t.Fatal("expected input bits to be reused")
	}

	c.Bind(x, 0xA5)
	if bits, err := c.Blast(x); err != nil {
		t.Fatal(err)
	} else if v, ok := c.Const(bits); !ok || v != 0xA5 {
		t.Fatalf("unexpected value: %#x (%v)", v, ok)
	}
}

// MustBlastEqual binds vars to values, blasts expr and checks that the
// constant circuit output matches the concrete evaluator. Fatal on mismatch.
func MustBlastEqual(tb testing.TB, expr synth.Expr, vars []*synth.Variable, values []uint64) {
	tb.Helper()

	exp, err := synth.NewExprEvaluator(vars, values).Evaluate(expr)
	if err != nil {
		tb.Fatal(err)
	}

	c := cegis.NewCircuit()
	for i, v := range vars {
		c.Bind(v, values[i])
	}
	bits, err := c.Blast(expr)
	if err != nil {
		tb.Fatal(err)
	} else if uint(len(bits)) != exp.Width {
		tb.Fatalf("%s%v: unexpected width: %d", expr, values, len(bits))
	}

	if v, ok := c.Const(bits); !ok {
		tb.Fatalf("%s%v: expected constant output", expr, values)
	} else if v != exp.Value {
		tb.Fatalf("%s%v: got %#x, expected %#x", expr, values, v, exp.Value)
	}
}
