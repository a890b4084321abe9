package synth

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"log"
	"sort"

	"github.com/benbjohnson/synth/ast"
	"github.com/benbjohnson/synth/parser"
	"github.com/pkg/errors"
)

// Solver represents a solver for equivalence queries.
type Solver interface {
	// Returns the satisfiability of the query. If the query is satisfiable,
	// a value is returned for each parameter in q.Params, in order.
	Solve(q *Query) (satisfiable bool, values []uint64, err error)
}

// Parser parses source text into a tree.
type Parser interface {
	Parse(src string) (ast.Node, error)
}

// Status represents the outcome of a synthesis.
type Status int

const (
	Unknown Status = iota
	Satisfiable
	Unsatisfiable
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Satisfiable:
		return "sat"
	case Unsatisfiable:
		return "unsat"
	default:
		return fmt.Sprintf("Status<%d>", s)
	}
}

// Model maps parameter names to their values.
type Model map[string]uint64

// Names returns the parameter names in sorted order.
func (m Model) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String returns one "name = value" line per parameter, sorted by name.
func (m Model) String() string {
	var buf bytes.Buffer
	for _, name := range m.Names() {
		fmt.Fprintf(&buf, "%s = %d\n", name, m[name])
	}
	return buf.String()
}

// Result represents the outcome of a call to Synthesizer.Synthesize.
type Result struct {
	Status Status
	Query  *Query
	Model  Model  // set if Status is Satisfiable
	Reason string // set if Status is Unknown
}

// Synthesizer runs the full pipeline from source text to a solved query.
type Synthesizer struct {
	Parser    Parser
	Evaluator *Evaluator
	Builder   *QueryBuilder
	Solver    Solver

	// Parameters that must be assigned a nonzero value.
	NonZero []string

	// Progress output. Discarded if nil.
	Logger *log.Logger
}

// NewSynthesizer returns a new instance of Synthesizer using the default
// parser, evaluator and query builder.
func NewSynthesizer(solver Solver) *Synthesizer {
	return &Synthesizer{
		Parser:    parser.New(),
		Evaluator: NewEvaluator(DefaultWidth),
		Builder:   NewQueryBuilder(),
		Solver:    solver,
	}
}

func (s *Synthesizer) logger() *log.Logger {
	if s.Logger == nil {
		return log.New(ioutil.Discard, "", 0)
	}
	return s.Logger
}

// Query parses & evaluates the reference and candidate expressions and
// returns the equivalence query between them. The candidate is evaluated in
// an environment seeded from the reference so shared names alias.
func (s *Synthesizer) Query(ref, cand string) (*Query, error) {
	logger := s.logger()

	refNode, err := s.Parser.Parse(ref)
	if err != nil {
		return nil, errors.Wrap(err, "reference")
	}
	candNode, err := s.Parser.Parse(cand)
	if err != nil {
		return nil, errors.Wrap(err, "candidate")
	}
	logger.Printf("[parse] reference: %s", refNode)
	logger.Printf("[parse] candidate: %s", candNode)

	expr1, env1, err := s.Evaluator.Evaluate(refNode, nil)
	if err != nil {
		return nil, errors.Wrap(err, "reference")
	}
	expr2, env2, err := s.Evaluator.Evaluate(candNode, env1)
	if err != nil {
		return nil, errors.Wrap(err, "candidate")
	}
	logger.Printf("[eval] reference: %s", expr1)
	logger.Printf("[eval] candidate: %s", expr2)
	logger.Printf("[eval] environment:\n%s", env2)

	q, err := s.Builder.Build(expr1, env1, expr2, env2)
	if err != nil {
		return nil, err
	}
	for _, name := range s.NonZero {
		if err := q.RequireNonZero(name); err != nil {
			return nil, err
		}
	}
	logger.Printf("[query] %s", q)
	return q, nil
}

// Synthesize builds the query between ref and cand and solves it.
//
// An undecided solver outcome is reported as a result with Unknown status
// rather than an error.
func (s *Synthesizer) Synthesize(ref, cand string) (*Result, error) {
	q, err := s.Query(ref, cand)
	if err != nil {
		return nil, err
	}

	satisfiable, values, err := s.Solver.Solve(q)
	if IsSolverUnknown(err) {
		s.logger().Printf("[solve] unknown: %s", err)
		return &Result{Status: Unknown, Query: q, Reason: err.Error()}, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "solve")
	} else if !satisfiable {
		s.logger().Printf("[solve] unsat")
		return &Result{Status: Unsatisfiable, Query: q}, nil
	}

	assert(len(values) == len(q.Params), "value/parameter count mismatch: %d != %d", len(values), len(q.Params))
	model := make(Model, len(values))
	for i, v := range q.Params {
		model[v.Name] = values[i] & bitmask(v.Width)
	}
	s.logger().Printf("[solve] sat:\n%s", model)
	return &Result{Status: Satisfiable, Query: q, Model: model}, nil
}

// Verify checks model against q by evaluating the query for every
// assignment of its plain variables. Returns ErrDomainTooLarge if there are
// more than limit assignments. A nil error means the model holds everywhere.
func Verify(q *Query, model Model, limit uint64) error {
	// Size of the domain is 2^(width * len(plain)).
	bits := uint(len(q.Plain)) * q.Width
	if bits >= 64 || uint64(1)<<bits > limit {
		return errors.Wrapf(ErrDomainTooLarge, "%d plain bits", bits)
	}

	ee := NewExprEvaluator(nil, nil)
	for _, v := range q.Params {
		value, ok := model[v.Name]
		if !ok {
			return errors.Wrapf(ErrUnknownParameter, "no value for %q", v.Name)
		}
		ee.Bind(v, value)
	}

	formula := q.Formula()
	for i, n := uint64(0), uint64(1)<<bits; i < n; i++ {
		// Split the counter into one word per plain variable.
		for j, v := range q.Plain {
			ee.Bind(v, (i>>(uint(j)*q.Width))&bitmask(q.Width))
		}

		result, err := ee.Evaluate(formula)
		if err != nil {
			return err
		} else if !result.IsTrue() {
			return &CounterexampleError{Inputs: inputs(q.Plain, ee)}
		}
	}
	return nil
}

func inputs(vars []*Variable, ee *ExprEvaluator) Model {
	m := make(Model, len(vars))
	for _, v := range vars {
		m[v.Name] = ee.m[v]
	}
	return m
}

// CounterexampleError is returned by Verify when the model does not satisfy
// the query for some plain inputs.
type CounterexampleError struct {
	Inputs Model
}

// Error returns the error as a string.
func (e *CounterexampleError) Error() string {
	var buf bytes.Buffer
	buf.WriteString("model fails for")
	for _, name := range e.Inputs.Names() {
		fmt.Fprintf(&buf, " %s=%d", name, e.Inputs[name])
	}
	return buf.String()
}
