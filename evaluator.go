package synth

import (
	"fmt"
	"math/big"

	"github.com/benbjohnson/synth/ast"
	"github.com/pkg/errors"
)

// DefaultMaxExponent is the largest exponent unrolled by default.
const DefaultMaxExponent = 1024

// Evaluator converts parse trees into symbolic expressions of a fixed width.
type Evaluator struct {
	// Width of every value, in bits. Must be between MinWidth & MaxWidth.
	Width uint

	// Largest exponent accepted by the power operator. The power operator
	// unrolls into a chain of multiplications so large exponents produce
	// large formulas. Defaults to DefaultMaxExponent if zero.
	MaxExponent uint64
}

// NewEvaluator returns a new instance of Evaluator of the given width.
func NewEvaluator(width uint) *Evaluator {
	return &Evaluator{
		Width:       width,
		MaxExponent: DefaultMaxExponent,
	}
}

// Evaluate returns the symbolic expression for node.
//
// Variables are resolved against a clone of seed so that names already known
// to seed share their handles. The seed itself is never modified. If seed is
// nil then evaluation begins with an empty environment. The returned
// environment contains the seed's variables plus any new names in node.
func (e *Evaluator) Evaluate(node ast.Node, seed *Env) (Expr, *Env, error) {
	if !ValidWidth(e.Width) {
		return nil, nil, errors.Wrapf(ErrInvalidWidth, "width %d", e.Width)
	}

	var env *Env
	if seed == nil {
		env = NewEnv(e.Width)
	} else if seed.Width() != e.Width {
		return nil, nil, errors.Wrapf(ErrInvalidWidth, "seed environment width %d does not match %d", seed.Width(), e.Width)
	} else {
		env = seed.Clone()
	}

	expr, err := e.eval(node, env)
	if err != nil {
		return nil, nil, err
	}
	return expr, env, nil
}

func (e *Evaluator) eval(node ast.Node, env *Env) (Expr, error) {
	switch node := node.(type) {
	case *ast.Number:
		return NewConstantExpr(node.Value, e.Width), nil
	case *ast.Variable:
		return env.Resolve(node.Name), nil
	case *ast.Negate:
		return e.evalNegate(node, env)
	case *ast.Binary:
		return e.evalBinary(node, env)
	case *ast.Conditional:
		return e.evalConditional(node, env)
	case nil:
		return nil, errors.New("cannot evaluate nil node")
	default:
		return nil, fmt.Errorf("unexpected node type: %T", node)
	}
}

func (e *Evaluator) evalNegate(node *ast.Negate, env *Env) (Expr, error) {
	x, err := e.eval(node.X, env)
	if err != nil {
		return nil, err
	}
	return NewNegExpr(x), nil
}

func (e *Evaluator) evalBinary(node *ast.Binary, env *Env) (Expr, error) {
	x, err := e.eval(node.X, env)
	if err != nil {
		return nil, err
	}
	y, err := e.eval(node.Y, env)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case ast.ADD:
		return NewBinaryExpr(ADD, x, y), nil
	case ast.SUB:
		return NewBinaryExpr(SUB, x, y), nil
	case ast.MUL:
		return NewBinaryExpr(MUL, x, y), nil
	case ast.DIV:
		return NewBinaryExpr(SDIV, x, y), nil
	case ast.SHL:
		return NewBinaryExpr(SHL, x, y), nil
	case ast.SHR:
		return NewBinaryExpr(LSHR, x, y), nil
	case ast.POW:
		return e.evalPow(node, x)
	default:
		return nil, fmt.Errorf("invalid binary operator: %s", node.Op)
	}
}

// evalPow unrolls base^exp into a chain of multiplications. The exponent
// must fold to a nonnegative constant before reduction to the word width.
func (e *Evaluator) evalPow(node *ast.Binary, base Expr) (Expr, error) {
	n, err := foldExponent(node.Y)
	if err != nil {
		return nil, err
	} else if n == nil {
		return nil, errors.Wrapf(ErrUnsupportedSymbolicExponent, "%s", node.Y)
	} else if n.Sign() < 0 {
		return nil, errors.Wrapf(ErrUnsupportedSymbolicExponent, "negative exponent %s", n)
	}

	maxExponent := e.MaxExponent
	if maxExponent == 0 {
		maxExponent = DefaultMaxExponent
	}
	if !n.IsUint64() || n.Uint64() > maxExponent {
		return nil, errors.Wrapf(ErrExponentTooLarge, "%s exceeds %d", n, maxExponent)
	}

	if n.Sign() == 0 {
		return NewConstantExpr(1, e.Width), nil
	}

	result := base
	for i := uint64(1); i < n.Uint64(); i++ {
		result = NewBinaryExpr(MUL, result, base)
	}
	return result, nil
}

// maxFoldBits bounds the size of intermediate values while folding exponents.
const maxFoldBits = 4096

// foldExponent folds node into an integer of unbounded width. Returns nil if
// the value depends on a variable.
func foldExponent(node ast.Node) (*big.Int, error) {
	switch node := node.(type) {
	case *ast.Number:
		return new(big.Int).SetUint64(node.Value), nil
	case *ast.Variable:
		return nil, nil
	case *ast.Negate:
		x, err := foldExponent(node.X)
		if x == nil || err != nil {
			return nil, err
		}
		return x.Neg(x), nil
	case *ast.Binary:
		return foldBinaryExponent(node)
	case *ast.Conditional:
		cond, err := foldExponent(node.Cond)
		if err != nil {
			return nil, err
		}
		then, err := foldExponent(node.Then)
		if err != nil {
			return nil, err
		}
		els, err := foldExponent(node.Else)
		if err != nil {
			return nil, err
		}

		switch {
		case cond != nil && cond.Sign() != 0:
			return then, nil
		case cond != nil:
			return els, nil
		case then != nil && els != nil && then.Cmp(els) == 0:
			return then, nil
		default:
			return nil, nil
		}
	default:
		return nil, fmt.Errorf("unexpected node type: %T", node)
	}
}

func foldBinaryExponent(node *ast.Binary) (*big.Int, error) {
	x, err := foldExponent(node.X)
	if err != nil {
		return nil, err
	}
	y, err := foldExponent(node.Y)
	if err != nil {
		return nil, err
	}

	// A zero exponent or factor decides the result alone.
	switch {
	case node.Op == ast.POW && y != nil && y.Sign() == 0:
		return big.NewInt(1), nil
	case node.Op == ast.MUL && ((x != nil && x.Sign() == 0) || (y != nil && y.Sign() == 0)):
		return big.NewInt(0), nil
	case x == nil || y == nil:
		return nil, nil
	}

	z := new(big.Int)
	switch node.Op {
	case ast.ADD:
		z.Add(x, y)
	case ast.SUB:
		z.Sub(x, y)
	case ast.MUL:
		z.Mul(x, y)
	case ast.DIV:
		if y.Sign() == 0 {
			return nil, errors.Wrapf(ErrUnsupportedSymbolicExponent, "division by zero in %s", node)
		}
		z.Quo(x, y)
	case ast.SHL, ast.SHR:
		if y.Sign() < 0 {
			return nil, errors.Wrapf(ErrUnsupportedSymbolicExponent, "negative shift in %s", node)
		} else if node.Op == ast.SHR {
			if !y.IsUint64() || y.Uint64() > maxFoldBits {
				return z.SetInt64(int64(x.Sign()) >> 1), nil
			}
			z.Rsh(x, uint(y.Uint64()))
		} else if x.Sign() == 0 {
			return z, nil
		} else if !y.IsUint64() || y.Uint64() > maxFoldBits {
			return nil, errors.Wrapf(ErrExponentTooLarge, "%s", node)
		} else {
			z.Lsh(x, uint(y.Uint64()))
		}
	case ast.POW:
		if y.Sign() < 0 {
			return nil, errors.Wrapf(ErrUnsupportedSymbolicExponent, "negative exponent in %s", node)
		} else if x.CmpAbs(big.NewInt(1)) <= 0 {
			// 0, 1 & -1 stay bounded for any exponent.
			if x.Sign() < 0 && y.Bit(0) == 0 {
				return z.SetInt64(1), nil
			}
			return z.Set(x), nil
		} else if !y.IsUint64() || y.Uint64() > maxFoldBits {
			return nil, errors.Wrapf(ErrExponentTooLarge, "%s", node)
		}
		z.Exp(x, y, nil)
	default:
		return nil, fmt.Errorf("invalid binary operator: %s", node.Op)
	}

	if z.BitLen() > maxFoldBits {
		return nil, errors.Wrapf(ErrExponentTooLarge, "%s", node)
	}
	return z, nil
}

// evalConditional encodes c ? t : f as (c != 0) * t + (c == 0) * f.
func (e *Evaluator) evalConditional(node *ast.Conditional, env *Env) (Expr, error) {
	cond, err := e.eval(node.Cond, env)
	if err != nil {
		return nil, err
	}
	then, err := e.eval(node.Then, env)
	if err != nil {
		return nil, err
	}
	els, err := e.eval(node.Else, env)
	if err != nil {
		return nil, err
	}

	zero := NewConstantExpr(0, e.Width)
	nonzero := NewBoolToWordExpr(NewBinaryExpr(NE, cond, zero), e.Width)
	isZero := NewBoolToWordExpr(NewBinaryExpr(EQ, cond, zero), e.Width)

	return NewBinaryExpr(ADD,
		NewBinaryExpr(MUL, nonzero, then),
		NewBinaryExpr(MUL, isZero, els),
	), nil
}
