// Package cegis implements a pure Go solver for equivalence queries using
// counterexample-guided inductive synthesis over a SAT solver.
//
// Each iteration searches for parameter values that satisfy the query on a
// finite set of plain inputs and then checks the candidate against every
// plain input. A failed check yields a new input for the next iteration.
package cegis

import (
	"time"

	"github.com/benbjohnson/synth"
	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
)

// DefaultMaxIterations is the default limit on synthesis iterations.
const DefaultMaxIterations = 1000

// Ensure solver implements interface.
var _ synth.Solver = (*Solver)(nil)

// Solver solves queries with counterexample-guided inductive synthesis.
type Solver struct {
	stats Stats

	// Limit on the time of each SAT call. Zero means no limit.
	Timeout time.Duration

	// Limit on synthesis iterations before ErrSolverResourceLimit is returned.
	MaxIterations int
}

// NewSolver returns a new instance of Solver.
func NewSolver() *Solver {
	return &Solver{
		MaxIterations: DefaultMaxIterations,
	}
}

// Stats returns statistics for the solver.
func (s *Solver) Stats() Stats {
	return s.stats
}

// Solve returns parameter values such that the query holds for every value
// of its plain variables. Values are returned in the order of q.Params.
func (s *Solver) Solve(q *synth.Query) (satisfiable bool, values []uint64, err error) {
	t := time.Now()
	defer func() {
		s.stats.SolveN++
		s.stats.SolveTime += time.Since(t)
	}()

	maxIterations := s.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	// Start from the all-zero input.
	samples := [][]uint64{make([]uint64, len(q.Plain))}

	for i := 0; i < maxIterations; i++ {
		s.stats.Iterations++

		values, ok, err := s.synthesize(q, samples)
		if err != nil {
			return false, nil, err
		} else if !ok {
			return false, nil, nil // no parameters work even for the samples
		}

		cex, ok, err := s.verify(q, values)
		if err != nil {
			return false, nil, err
		} else if !ok {
			return true, values, nil
		}
		samples = append(samples, cex)
	}

	return false, nil, errors.Wrapf(synth.ErrSolverResourceLimit, "cegis: no solution after %d iterations", maxIterations)
}

// synthesize returns parameter values that satisfy the assumptions and the
// body for every sample input. Returns ok=false if no such values exist.
func (s *Solver) synthesize(q *synth.Query, samples [][]uint64) (values []uint64, ok bool, err error) {
	circuit := NewCircuit()
	params := make([][]z.Lit, len(q.Params))
	for i, v := range q.Params {
		params[i] = circuit.Input(v)
	}

	var roots []z.Lit
	for _, a := range q.Assumptions {
		bits, err := circuit.Blast(a)
		if err != nil {
			return nil, false, err
		}
		roots = append(roots, bits[0])
	}

	// Blast the body once per sample with the plain variables bound.
	for _, sample := range samples {
		sc := circuit.fork()
		for j, v := range q.Plain {
			sc.Bind(v, sample[j])
		}
		bits, err := sc.Blast(q.Body)
		if err != nil {
			return nil, false, err
		}
		roots = append(roots, bits[0])
	}

	g := gini.New()
	if ok, err := s.solve(g, circuit, roots); err != nil || !ok {
		return nil, false, err
	}

	values = make([]uint64, len(q.Params))
	for i := range params {
		values[i] = modelValue(g, params[i])
	}
	return values, true, nil
}

// verify searches for a plain input on which the body fails under the
// given parameter values. Returns ok=false if no such input exists.
func (s *Solver) verify(q *synth.Query, values []uint64) (cex []uint64, ok bool, err error) {
	circuit := NewCircuit()
	for i, v := range q.Params {
		circuit.Bind(v, values[i])
	}
	plain := make([][]z.Lit, len(q.Plain))
	for i, v := range q.Plain {
		plain[i] = circuit.Input(v)
	}

	bits, err := circuit.Blast(q.Body)
	if err != nil {
		return nil, false, err
	}

	g := gini.New()
	if ok, err := s.solve(g, circuit, []z.Lit{bits[0].Not()}); err != nil || !ok {
		return nil, false, err
	}

	cex = make([]uint64, len(q.Plain))
	for i := range plain {
		cex[i] = modelValue(g, plain[i])
	}
	return cex, true, nil
}

// solve asserts every root of the circuit and runs the SAT solver.
func (s *Solver) solve(g *gini.Gini, circuit *Circuit, roots []z.Lit) (bool, error) {
	c := circuit.Logic()
	for _, m := range roots {
		if m == c.F {
			return false, nil
		}
	}

	c.ToCnf(g)
	g.Add(c.T)
	g.Add(0)
	for _, m := range roots {
		g.Add(m)
		g.Add(0)
	}

	var ret int
	if s.Timeout > 0 {
		ret = g.GoSolve().Try(s.Timeout)
	} else {
		ret = g.Solve()
	}

	switch ret {
	case 1:
		return true, nil
	case -1:
		return false, nil
	default:
		return false, synth.ErrSolverTimeout
	}
}

// modelValue returns the value of bits in the last model. Inputs that no
// clause mentions are unknown to the solver and read as zero.
func modelValue(g *gini.Gini, bits []z.Lit) uint64 {
	var value uint64
	for i, m := range bits {
		if m.Var() > g.MaxVar() {
			continue
		} else if g.Value(m) {
			value |= 1 << uint(i)
		}
	}
	return value
}

// Stats represents statistics for the solver.
type Stats struct {
	SolveN     int
	SolveTime  time.Duration
	Iterations int
}
