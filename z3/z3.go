package z3

import (
	"fmt"
	"strings"
	"time"
	"unsafe"

	"github.com/benbjohnson/synth"
)

/*
#cgo LDFLAGS: -lz3
#include <z3.h>
#include <stdlib.h>
#include <stdint.h>
*/
import "C"

// Ensure solver implements interface.
var _ synth.Solver = (*Solver)(nil)

// Solver represents a solver that uses an embedded Z3 solver.
type Solver struct {
	ctx   *Context
	stats Stats

	// Limit on the time of each check. Zero means no limit.
	Timeout time.Duration
}

// NewSolver returns a new instance of Solver.
func NewSolver() *Solver {
	return &Solver{
		ctx: NewContext(),
	}
}

// Close deletes the underlying Z3 context.
func (s *Solver) Close() error {
	return s.ctx.Close()
}

// Stats returns statistics for the solver.
func (s *Solver) Stats() Stats {
	return s.stats
}

// Solve asserts the assumptions of q and the body universally quantified
// over the plain variables. If satisfiable, the model value of each
// parameter is returned in the order of q.Params.
func (s *Solver) Solve(q *synth.Query) (satisfiable bool, values []uint64, err error) {
	t := time.Now()
	defer func() {
		s.stats.SolveN++
		s.stats.SolveTime += time.Since(t)
	}()

	solver := C.Z3_mk_solver(s.ctx.raw)
	if err := s.ctx.err("Z3_mk_solver"); err != nil {
		return false, nil, err
	}
	C.Z3_solver_inc_ref(s.ctx.raw, solver)
	defer C.Z3_solver_dec_ref(s.ctx.raw, solver)

	if s.Timeout > 0 {
		if err := s.ctx.setTimeout(solver, s.Timeout); err != nil {
			return false, nil, err
		}
	}

	// Declare a constant for every variable. Plain constants are bound by
	// the quantifier below.
	s.ctx.vars = make(map[*synth.Variable]C.Z3_ast)
	params, err := s.ctx.declare(q.Params)
	if err != nil {
		return false, nil, err
	}
	plain, err := s.ctx.declare(q.Plain)
	if err != nil {
		return false, nil, err
	}

	for _, a := range q.Assumptions {
		z3Assumption, err := s.ctx.toAST(a)
		if err != nil {
			return false, nil, err
		}
		C.Z3_solver_assert(s.ctx.raw, solver, z3Assumption)
		if err := s.ctx.err("Z3_solver_assert"); err != nil {
			return false, nil, err
		}
	}

	goal, err := s.ctx.toAST(q.Body)
	if err != nil {
		return false, nil, err
	} else if len(plain) > 0 {
		if goal, err = s.ctx.makeForall(plain, goal); err != nil {
			return false, nil, err
		}
	}
	C.Z3_solver_assert(s.ctx.raw, solver, goal)
	if err := s.ctx.err("Z3_solver_assert"); err != nil {
		return false, nil, err
	}

	// Check equations with the solver.
	// Exit immediately if unsatisfiable or the solver encountered an error.
	ret := C.Z3_solver_check(s.ctx.raw, solver)
	if err := s.ctx.err("Z3_solver_check"); err != nil {
		return false, nil, err
	} else if ret == C.Z3_L_FALSE {
		return false, nil, nil
	} else if ret == C.Z3_L_UNDEF {
		return false, nil, unknownError(C.GoString(C.Z3_solver_get_reason_unknown(s.ctx.raw, solver)))
	} else if len(params) == 0 {
		return true, nil, nil // nothing to solve for, ignore model
	}

	// Calculate a model for the given formula.
	model := C.Z3_solver_get_model(s.ctx.raw, solver)
	if err := s.ctx.err("Z3_solver_get_model"); err != nil {
		return true, nil, err
	}
	C.Z3_model_inc_ref(s.ctx.raw, model)
	defer C.Z3_model_dec_ref(s.ctx.raw, model)

	if values, err = s.ctx.eval(model, params); err != nil {
		return true, nil, err
	}
	return true, values, nil
}

// unknownError maps Z3's reason for an undecided check to an error.
func unknownError(reason string) error {
	switch {
	case strings.Contains(reason, "timeout"):
		return synth.ErrSolverTimeout
	case strings.Contains(reason, "canceled"):
		return synth.ErrSolverCanceled
	case strings.Contains(reason, "(resource limits reached)"):
		return synth.ErrSolverResourceLimit
	case strings.Contains(reason, "unknown"), strings.Contains(reason, "incomplete"):
		return synth.ErrSolverUnknown
	default:
		return fmt.Errorf("z3: %s", reason)
	}
}

// Context represents a Z3 context object that is used for constructing expressions.
type Context struct {
	raw  C.Z3_context
	vars map[*synth.Variable]C.Z3_ast
}

// NewContext returns a new instance of Context.
func NewContext() *Context {
	config := C.Z3_mk_config()
	defer C.Z3_del_config(config)

	raw := C.Z3_mk_context(config)
	C.Z3_set_error_handler(raw, nil)
	C.Z3_set_ast_print_mode(raw, C.Z3_PRINT_SMTLIB2_COMPLIANT)
	return &Context{raw: raw}
}

// Close deletes the underlying Z3 context.
func (ctx *Context) Close() error {
	C.Z3_del_context(ctx.raw)
	return ctx.err("Z3_del_context")
}

// err returns the error for the last API call. Returns nil if last call was successful.
func (ctx *Context) err(op string) error {
	if code := C.Z3_get_error_code(ctx.raw); code != C.Z3_OK {
		return &Error{Code: int(code), Op: op, Message: C.GoString(C.Z3_get_error_msg(ctx.raw, code))}
	}
	return nil
}

// setTimeout sets the per-check timeout of solver.
func (ctx *Context) setTimeout(solver C.Z3_solver, d time.Duration) error {
	params := C.Z3_mk_params(ctx.raw)
	if err := ctx.err("Z3_mk_params"); err != nil {
		return err
	}
	C.Z3_params_inc_ref(ctx.raw, params)
	defer C.Z3_params_dec_ref(ctx.raw, params)

	key := C.CString("timeout")
	defer C.free(unsafe.Pointer(key))

	ms := d / time.Millisecond
	if ms == 0 {
		ms = 1
	}
	C.Z3_params_set_uint(ctx.raw, params, C.Z3_mk_string_symbol(ctx.raw, key), C.uint(ms))
	if err := ctx.err("Z3_params_set_uint"); err != nil {
		return err
	}
	C.Z3_solver_set_params(ctx.raw, solver, params)
	return ctx.err("Z3_solver_set_params")
}

// declare creates a bit-vector constant for each variable.
func (ctx *Context) declare(vars []*synth.Variable) ([]C.Z3_ast, error) {
	a := make([]C.Z3_ast, len(vars))
	for i, v := range vars {
		t, err := ctx.makeBVSort(v.Width)
		if err != nil {
			return nil, err
		}

		cname := C.CString(v.Name)
		symbol := C.Z3_mk_string_symbol(ctx.raw, cname)
		C.free(unsafe.Pointer(cname))

		a[i] = C.Z3_mk_const(ctx.raw, symbol, t)
		if err := ctx.err("Z3_mk_const"); err != nil {
			return nil, err
		}
		ctx.vars[v] = a[i]
	}
	return a, nil
}

// makeForall returns body universally quantified over the given constants.
func (ctx *Context) makeForall(bound []C.Z3_ast, body C.Z3_ast) (C.Z3_ast, error) {
	apps := make([]C.Z3_app, len(bound))
	for i := range bound {
		apps[i] = C.Z3_to_app(ctx.raw, bound[i])
		if err := ctx.err("Z3_to_app"); err != nil {
			return nil, err
		}
	}
	return C.Z3_mk_forall_const(ctx.raw, 0, C.uint(len(apps)), &apps[0], 0, nil, body), ctx.err("Z3_mk_forall_const")
}

// toAST returns a new instance of Z3_ast from an expression.
func (ctx *Context) toAST(expr synth.Expr) (C.Z3_ast, error) {
	switch expr := expr.(type) {
	case *synth.ConstantExpr:
		return ctx.toConstantAST(expr)
	case *synth.Variable:
		ast, ok := ctx.vars[expr]
		if !ok {
			return nil, fmt.Errorf("z3.Context.toAST: undeclared variable: %s", expr.Name)
		}
		return ast, nil
	case *synth.CastExpr:
		return ctx.toCastAST(expr)
	case *synth.NotExpr:
		return ctx.toNotAST(expr)
	case *synth.BinaryExpr:
		return ctx.toBinaryAST(expr)
	default:
		return nil, fmt.Errorf("z3.Context.toAST: invalid expression type: %T", expr)
	}
}

func (ctx *Context) toConstantAST(expr *synth.ConstantExpr) (C.Z3_ast, error) {
	if expr.Width == synth.WidthBool {
		if expr.IsTrue() {
			return C.Z3_mk_true(ctx.raw), ctx.err("Z3_mk_true")
		}
		return C.Z3_mk_false(ctx.raw), ctx.err("Z3_mk_false")
	}
	return ctx.makeUint64(expr.Width, expr.Value)
}

func (ctx *Context) toCastAST(expr *synth.CastExpr) (C.Z3_ast, error) {
	src, err := ctx.toAST(expr.Src)
	if err != nil {
		return nil, err
	}

	// Convert boolean cast to if-then-else expression. A signed cast of true
	// fills every bit.
	srcWidth := synth.ExprWidth(expr.Src)
	if srcWidth == synth.WidthBool {
		one := uint64(1)
		if expr.Signed {
			one = ^uint64(0)
		}
		whenTrue, err := ctx.makeUint64(expr.Width, one)
		if err != nil {
			return nil, err
		}
		whenFalse, err := ctx.makeUint64(expr.Width, 0)
		if err != nil {
			return nil, err
		}
		return C.Z3_mk_ite(ctx.raw, src, whenTrue, whenFalse), ctx.err("Z3_mk_ite")
	}

	n := C.uint(expr.Width - srcWidth)
	if expr.Signed {
		return C.Z3_mk_sign_ext(ctx.raw, n, src), ctx.err("Z3_mk_sign_ext")
	}
	return C.Z3_mk_zero_ext(ctx.raw, n, src), ctx.err("Z3_mk_zero_ext")
}

func (ctx *Context) toNotAST(expr *synth.NotExpr) (C.Z3_ast, error) {
	src, err := ctx.toAST(expr.Expr)
	if err != nil {
		return nil, err
	}

	// If boolean, use boolean NOT operation.
	if synth.ExprWidth(expr.Expr) == synth.WidthBool {
		return C.Z3_mk_not(ctx.raw, src), ctx.err("Z3_mk_not")
	}
	return C.Z3_mk_bvnot(ctx.raw, src), ctx.err("Z3_mk_bvnot")
}

func (ctx *Context) toBinaryAST(expr *synth.BinaryExpr) (C.Z3_ast, error) {
	lhs, err := ctx.toAST(expr.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := ctx.toAST(expr.RHS)
	if err != nil {
		return nil, err
	}

	// Logical operations use boolean sorts instead of bit-vectors.
	if synth.ExprWidth(expr.LHS) == synth.WidthBool {
		args := [2]C.Z3_ast{lhs, rhs}
		switch expr.Op {
		case synth.AND:
			return C.Z3_mk_and(ctx.raw, 2, &args[0]), ctx.err("Z3_mk_and")
		case synth.OR:
			return C.Z3_mk_or(ctx.raw, 2, &args[0]), ctx.err("Z3_mk_or")
		case synth.XOR, synth.NE:
			return C.Z3_mk_xor(ctx.raw, lhs, rhs), ctx.err("Z3_mk_xor")
		case synth.EQ:
			return C.Z3_mk_iff(ctx.raw, lhs, rhs), ctx.err("Z3_mk_iff")
		}
	}

	switch expr.Op {
	case synth.ADD:
		return C.Z3_mk_bvadd(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvadd")
	case synth.SUB:
		return C.Z3_mk_bvsub(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsub")
	case synth.MUL:
		return C.Z3_mk_bvmul(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvmul")
	case synth.UDIV:
		return C.Z3_mk_bvudiv(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvudiv")
	case synth.SDIV:
		return C.Z3_mk_bvsdiv(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsdiv")
	case synth.AND:
		return C.Z3_mk_bvand(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvand")
	case synth.OR:
		return C.Z3_mk_bvor(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvor")
	case synth.XOR:
		return C.Z3_mk_bvxor(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvxor")
	case synth.SHL:
		return C.Z3_mk_bvshl(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvshl")
	case synth.LSHR:
		return C.Z3_mk_bvlshr(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvlshr")
	case synth.ASHR:
		return C.Z3_mk_bvashr(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvashr")
	case synth.EQ:
		return C.Z3_mk_eq(ctx.raw, lhs, rhs), ctx.err("Z3_mk_eq")
	case synth.NE:
		args := [2]C.Z3_ast{lhs, rhs}
		return C.Z3_mk_distinct(ctx.raw, 2, &args[0]), ctx.err("Z3_mk_distinct")
	case synth.ULT:
		return C.Z3_mk_bvult(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvult")
	case synth.ULE:
		return C.Z3_mk_bvule(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvule")
	case synth.UGT:
		return C.Z3_mk_bvugt(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvugt")
	case synth.UGE:
		return C.Z3_mk_bvuge(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvuge")
	case synth.SLT:
		return C.Z3_mk_bvslt(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvslt")
	case synth.SLE:
		return C.Z3_mk_bvsle(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsle")
	case synth.SGT:
		return C.Z3_mk_bvsgt(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsgt")
	case synth.SGE:
		return C.Z3_mk_bvsge(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsge")
	default:
		return nil, fmt.Errorf("z3.Context.toBinaryAST: unexpected operation: %s", expr.Op)
	}
}

func (ctx *Context) makeBVSort(width uint) (C.Z3_sort, error) {
	return C.Z3_mk_bv_sort(ctx.raw, C.uint(width)), ctx.err("Z3_mk_bv_sort")
}

func (ctx *Context) makeUint64(width uint, value uint64) (C.Z3_ast, error) {
	t, err := ctx.makeBVSort(width)
	if err != nil {
		return nil, err
	}
	return C.Z3_mk_unsigned_int64(ctx.raw, C.uint64_t(value), t), ctx.err("Z3_mk_unsigned_int64")
}

// eval evaluates each constant against the model. Constants the model
// leaves unconstrained evaluate to zero.
func (ctx *Context) eval(model C.Z3_model, consts []C.Z3_ast) ([]uint64, error) {
	values := make([]uint64, len(consts))
	for i, c := range consts {
		var z3Expr C.Z3_ast
		C.Z3_model_eval(ctx.raw, model, c, C.bool(true), &z3Expr)
		if err := ctx.err("Z3_model_eval"); err != nil {
			return nil, err
		}

		var value C.uint64_t
		if !C.Z3_get_numeral_uint64(ctx.raw, z3Expr, &value) {
			return nil, fmt.Errorf("z3.Context.eval: non-numeral value: %s", ctx.astToString(z3Expr))
		} else if err := ctx.err("Z3_get_numeral_uint64"); err != nil {
			return nil, err
		}
		values[i] = uint64(value)
	}
	return values, nil
}

func (ctx *Context) astToString(ast C.Z3_ast) string {
	return C.GoString(C.Z3_ast_to_string(ctx.raw, ast))
}

// Error represents an error from the Z3 API.
type Error struct {
	Code    int
	Op      string
	Message string
}

// Error returns the error as a string.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.Code)
}

// Stats represents statistics for the solver.
type Stats struct {
	SolveN    int
	SolveTime time.Duration
}
