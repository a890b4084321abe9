package synth

import (
	"errors"
	"fmt"
)

// Standard widths.
const (
	WidthBool = 1
	Width8    = 8
	Width16   = 16
	Width32   = 32
	Width64   = 64
)

// Width limits of the arithmetic word. Width 1 is reserved for booleans.
const (
	MinWidth = 2
	MaxWidth = 64
)

// DefaultWidth is the word width of the reference configuration.
const DefaultWidth = Width8

var (
	ErrSolverTimeout       = errors.New("Solver timeout")
	ErrSolverCanceled      = errors.New("Solver canceled")
	ErrSolverResourceLimit = errors.New("Solver resource limit")
	ErrSolverUnknown       = errors.New("Solver unknown error")
)

var (
	ErrInvalidWidth                = errors.New("synth: invalid width")
	ErrUnsupportedSymbolicExponent = errors.New("synth: unsupported symbolic exponent")
	ErrExponentTooLarge            = errors.New("synth: exponent too large")
	ErrEmptyQuantifierDomain       = errors.New("synth: empty quantifier domain")
	ErrUnresolvedVariable          = errors.New("synth: unresolved variable alias")
	ErrUnknownParameter            = errors.New("synth: unknown parameter")
	ErrDomainTooLarge              = errors.New("synth: domain too large to enumerate")
)

// IsSolverUnknown returns true if err reports that the solver could not decide.
func IsSolverUnknown(err error) bool {
	return errors.Is(err, ErrSolverTimeout) ||
		errors.Is(err, ErrSolverCanceled) ||
		errors.Is(err, ErrSolverResourceLimit) ||
		errors.Is(err, ErrSolverUnknown)
}

// ValidWidth returns true if w can be used as the arithmetic word width.
func ValidWidth(w uint) bool {
	return w >= MinWidth && w <= MaxWidth
}

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}
