package synth

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// DefaultParamPrefix is the name prefix of parameter variables used by
// the default classifier.
const DefaultParamPrefix = "h"

// VarClass describes the role of a variable in an equivalence query.
type VarClass int

const (
	// Plain variables are universally quantified. The query must hold for
	// every value they can take.
	Plain VarClass = iota

	// Param variables are left free. The solver searches for their values.
	Param
)

// String returns the string representation of the class.
func (c VarClass) String() string {
	switch c {
	case Plain:
		return "plain"
	case Param:
		return "param"
	default:
		return fmt.Sprintf("VarClass<%d>", c)
	}
}

// Classifier determines the class of a variable by its name.
type Classifier func(name string) VarClass

// PrefixClassifier returns a classifier that treats names beginning with
// prefix as parameters and all other names as plain variables.
func PrefixClassifier(prefix string) Classifier {
	return func(name string) VarClass {
		if strings.HasPrefix(name, prefix) {
			return Param
		}
		return Plain
	}
}

// QueryBuilder builds equivalence queries from pairs of evaluated expressions.
type QueryBuilder struct {
	// Determines which variables are parameters.
	// Defaults to PrefixClassifier(DefaultParamPrefix) if nil.
	Classifier Classifier

	// If true, a query with no plain variables is built as a plain
	// equality instead of failing with ErrEmptyQuantifierDomain.
	AllowEmptyDomain bool
}

// NewQueryBuilder returns a new instance of QueryBuilder with the default classifier.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{Classifier: PrefixClassifier(DefaultParamPrefix)}
}

// Build returns the query "for all plain variables, expr1 == expr2".
//
// The candidate expression, expr2, must have been evaluated against an
// environment seeded from env1 so that shared names alias the same variables.
// Plain variables are taken from env1 and parameters from env2.
func (b *QueryBuilder) Build(expr1 Expr, env1 *Env, expr2 Expr, env2 *Env) (*Query, error) {
	classify := b.Classifier
	if classify == nil {
		classify = PrefixClassifier(DefaultParamPrefix)
	}

	if env1.Width() != env2.Width() {
		return nil, errors.Wrapf(ErrInvalidWidth, "environment width mismatch: %d != %d", env1.Width(), env2.Width())
	} else if w1, w2 := ExprWidth(expr1), ExprWidth(expr2); w1 != w2 {
		return nil, errors.Wrapf(ErrInvalidWidth, "expression width mismatch: %d != %d", w1, w2)
	}

	// Every variable in the reference must belong to its own environment.
	for _, v := range FindVariables(expr1) {
		if other, ok := env1.Lookup(v.Name); !ok || other != v {
			return nil, &UnresolvedVariableError{Name: v.Name, Reason: "reference variable not in its environment"}
		}
	}

	// Every variable in the candidate must alias the reference's variable of
	// the same name and belong to the candidate's environment.
	for _, v := range FindVariables(expr2) {
		if other, ok := env1.Lookup(v.Name); ok && other != v {
			return nil, &UnresolvedVariableError{Name: v.Name, Reason: "candidate variable does not alias reference variable"}
		} else if other, ok := env2.Lookup(v.Name); !ok || other != v {
			return nil, &UnresolvedVariableError{Name: v.Name, Reason: "candidate variable not in its environment"}
		}
	}

	// The quantifier ranges over the reference's plain variables only. Plain
	// names first seen in the candidate are left free like parameters.
	q := &Query{Width: env1.Width()}
	for _, v := range env1.Variables() {
		if classify(v.Name) == Plain {
			q.Plain = append(q.Plain, v)
		}
	}
	for _, v := range env2.Variables() {
		if _, ok := env1.Lookup(v.Name); classify(v.Name) == Param || !ok {
			q.Params = append(q.Params, v)
		}
	}

	if len(q.Plain) == 0 && !b.AllowEmptyDomain {
		return nil, ErrEmptyQuantifierDomain
	}

	q.Body = NewBinaryExpr(EQ, expr1, expr2)
	return q, nil
}

// Query represents the formula:
//
//	assumptions && (forall plain: body)
//
// where the parameters are free.
type Query struct {
	Width  uint        // word width
	Plain  []*Variable // universally quantified, sorted by name
	Params []*Variable // free, sorted by name; solved for

	Body        Expr   // boolean equality of the two expressions
	Assumptions []Expr // boolean side conditions over parameters
}

// Param returns the parameter with the given name, if one exists.
func (q *Query) Param(name string) (*Variable, bool) {
	for _, v := range q.Params {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// RequireNonZero adds the assumption that the named parameter is not zero.
func (q *Query) RequireNonZero(name string) error {
	v, ok := q.Param(name)
	if !ok {
		return errors.Wrapf(ErrUnknownParameter, "%q", name)
	}
	return q.Assume(NewBinaryExpr(NE, v, NewConstantExpr(0, v.Width)))
}

// Assume adds a boolean side condition. The condition may only refer to parameters.
func (q *Query) Assume(expr Expr) error {
	if w := ExprWidth(expr); w != WidthBool {
		return fmt.Errorf("assumption must be boolean, got width %d", w)
	}
	for _, v := range FindVariables(expr) {
		if p, ok := q.Param(v.Name); !ok || p != v {
			return errors.Wrapf(ErrUnknownParameter, "assumption refers to %q", v.Name)
		}
	}
	q.Assumptions = append(q.Assumptions, expr)
	return nil
}

// Formula returns the body conjoined with all assumptions. Plain variables
// remain free in the returned expression.
func (q *Query) Formula() Expr {
	expr := q.Body
	for i := len(q.Assumptions) - 1; i >= 0; i-- {
		expr = NewBinaryExpr(AND, q.Assumptions[i], expr)
	}
	return expr
}

// String returns the string representation of the query.
func (q *Query) String() string {
	var buf bytes.Buffer
	if len(q.Plain) > 0 {
		fmt.Fprintf(&buf, "(forall (%s) %s)", joinVariables(q.Plain), q.Body)
	} else {
		buf.WriteString(q.Body.String())
	}
	for _, a := range q.Assumptions {
		fmt.Fprintf(&buf, " (assume %s)", a)
	}
	return buf.String()
}

func joinVariables(a []*Variable) string {
	names := make([]string, len(a))
	for i := range a {
		names[i] = a[i].Name
	}
	return strings.Join(names, " ")
}

// UnresolvedVariableError is returned when expressions passed to a
// QueryBuilder do not share variables through their environments. It
// indicates a misuse of the environments rather than invalid input.
type UnresolvedVariableError struct {
	Name   string
	Reason string
}

// Error returns the error as a string.
func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrUnresolvedVariable, e.Name, e.Reason)
}

// Unwrap returns ErrUnresolvedVariable.
func (e *UnresolvedVariableError) Unwrap() error {
	return ErrUnresolvedVariable
}
