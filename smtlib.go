package synth

import (
	"bufio"
	"fmt"
	"io"
)

// WriteSMTLIB writes q to w as an SMT-LIB v2 script. Parameters are declared
// as constants and the body is asserted under a universal quantifier over
// the plain variables.
func WriteSMTLIB(w io.Writer, q *Query) error {
	bw := bufio.NewWriter(w)
	enc := &smtEncoder{w: bw}

	enc.printf("(set-logic %s)\n", smtLogic(q))
	for _, v := range q.Params {
		enc.printf("(declare-const %s (_ BitVec %d))\n", smtSymbol(v.Name), v.Width)
	}
	for _, a := range q.Assumptions {
		enc.printf("(assert ")
		enc.encode(a)
		enc.printf(")\n")
	}

	enc.printf("(assert ")
	if len(q.Plain) > 0 {
		enc.printf("(forall (")
		for i, v := range q.Plain {
			if i > 0 {
				enc.printf(" ")
			}
			enc.printf("(%s (_ BitVec %d))", smtSymbol(v.Name), v.Width)
		}
		enc.printf(") ")
		enc.encode(q.Body)
		enc.printf(")")
	} else {
		enc.encode(q.Body)
	}
	enc.printf(")\n")

	enc.printf("(check-sat)\n")
	if len(q.Params) > 0 {
		enc.printf("(get-model)\n")
	}

	if enc.err != nil {
		return enc.err
	}
	return bw.Flush()
}

func smtLogic(q *Query) string {
	if len(q.Plain) > 0 {
		return "BV"
	}
	return "QF_BV"
}

// smtEncoder writes expressions in SMT-LIB syntax. The first error is retained.
type smtEncoder struct {
	w   io.Writer
	err error
}

func (enc *smtEncoder) printf(format string, args ...interface{}) {
	if enc.err != nil {
		return
	}
	_, enc.err = fmt.Fprintf(enc.w, format, args...)
}

func (enc *smtEncoder) encode(expr Expr) {
	switch expr := expr.(type) {
	case *ConstantExpr:
		if expr.Width == WidthBool {
			enc.printf("%t", expr.IsTrue())
			return
		}
		enc.printf("(_ bv%d %d)", expr.Value, expr.Width)

	case *Variable:
		enc.printf("%s", smtSymbol(expr.Name))

	case *NotExpr:
		if ExprWidth(expr.Expr) == WidthBool {
			enc.printf("(not ")
		} else {
			enc.printf("(bvnot ")
		}
		enc.encode(expr.Expr)
		enc.printf(")")

	case *CastExpr:
		enc.encodeCast(expr)

	case *BinaryExpr:
		enc.printf("(%s ", smtOp(expr))
		enc.encode(expr.LHS)
		enc.printf(" ")
		enc.encode(expr.RHS)
		enc.printf(")")

	default:
		if enc.err == nil {
			enc.err = fmt.Errorf("smtlib: unexpected expression type: %T", expr)
		}
	}
}

func (enc *smtEncoder) encodeCast(expr *CastExpr) {
	srcWidth := ExprWidth(expr.Src)

	// Booleans must be converted to bit-vectors before extension.
	if srcWidth == WidthBool {
		one := uint64(1)
		if expr.Signed {
			one = bitmask(expr.Width)
		}
		enc.printf("(ite ")
		enc.encode(expr.Src)
		enc.printf(" (_ bv%d %d) (_ bv0 %d))", one, expr.Width, expr.Width)
		return
	}

	ext := "zero_extend"
	if expr.Signed {
		ext = "sign_extend"
	}
	enc.printf("((_ %s %d) ", ext, expr.Width-srcWidth)
	enc.encode(expr.Src)
	enc.printf(")")
}

// smtOp returns the SMT-LIB function name for a binary expression.
func smtOp(expr *BinaryExpr) string {
	if ExprWidth(expr.LHS) == WidthBool {
		switch expr.Op {
		case AND:
			return "and"
		case OR:
			return "or"
		case XOR:
			return "xor"
		}
	}

	switch expr.Op {
	case ADD:
		return "bvadd"
	case SUB:
		return "bvsub"
	case MUL:
		return "bvmul"
	case UDIV:
		return "bvudiv"
	case SDIV:
		return "bvsdiv"
	case AND:
		return "bvand"
	case OR:
		return "bvor"
	case XOR:
		return "bvxor"
	case SHL:
		return "bvshl"
	case LSHR:
		return "bvlshr"
	case ASHR:
		return "bvashr"
	case EQ:
		return "="
	case NE:
		return "distinct"
	case ULT:
		return "bvult"
	case ULE:
		return "bvule"
	case UGT:
		return "bvugt"
	case UGE:
		return "bvuge"
	case SLT:
		return "bvslt"
	case SLE:
		return "bvsle"
	case SGT:
		return "bvsgt"
	case SGE:
		return "bvsge"
	default:
		panic("unreachable")
	}
}

// smtReserved are words that cannot be used as simple symbols.
var smtReserved = map[string]struct{}{
	"_": {}, "as": {}, "let": {}, "exists": {}, "forall": {}, "match": {}, "par": {},
	"true": {}, "false": {}, "not": {}, "and": {}, "or": {}, "xor": {}, "ite": {}, "distinct": {},
}

// smtSymbol returns name as an SMT-LIB symbol, quoting it if necessary.
func smtSymbol(name string) string {
	if _, ok := smtReserved[name]; ok {
		return "|" + name + "|"
	}
	return name
}
