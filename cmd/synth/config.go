package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"strings"
	"time"

	"github.com/benbjohnson/synth"
	"github.com/benbjohnson/synth/cegis"
	"github.com/benbjohnson/synth/z3"
)

// Config represents the pipeline settings shared by the solve & query commands.
type Config struct {
	Width       uint
	MaxExponent uint64
	ParamPrefix string
	NonZero     string
	AllowEmpty  bool
	Solver      string
	Timeout     time.Duration
	Verbose     bool
}

// Register adds the configuration flags to fs.
func (c *Config) Register(fs *flag.FlagSet) {
	fs.UintVar(&c.Width, "width", synth.DefaultWidth, "")
	fs.Uint64Var(&c.MaxExponent, "max-exponent", synth.DefaultMaxExponent, "")
	fs.StringVar(&c.ParamPrefix, "param-prefix", synth.DefaultParamPrefix, "")
	fs.StringVar(&c.NonZero, "nonzero", "", "")
	fs.BoolVar(&c.AllowEmpty, "allow-empty", false, "")
	fs.StringVar(&c.Solver, "solver", "z3", "")
	fs.DurationVar(&c.Timeout, "timeout", 0, "")
	fs.BoolVar(&c.Verbose, "v", false, "")
}

// Validate returns an error if the configuration cannot be used.
func (c *Config) Validate() error {
	if !synth.ValidWidth(c.Width) {
		return fmt.Errorf("width must be between %d and %d", synth.MinWidth, synth.MaxWidth)
	} else if c.ParamPrefix == "" {
		return fmt.Errorf("parameter prefix required")
	}
	switch c.Solver {
	case "z3", "cegis":
	default:
		return fmt.Errorf("unknown solver: %q", c.Solver)
	}
	return nil
}

// Logger returns a logger writing to w in verbose mode. Otherwise logs are discarded.
func (c *Config) Logger(w io.Writer) *log.Logger {
	if !c.Verbose {
		w = ioutil.Discard
	}
	return log.New(w, "", 0)
}

// NewSolver returns the configured solver and a function to release it.
func (c *Config) NewSolver() (synth.Solver, func() error) {
	switch c.Solver {
	case "cegis":
		s := cegis.NewSolver()
		s.Timeout = c.Timeout
		return s, func() error { return nil }
	default:
		s := z3.NewSolver()
		s.Timeout = c.Timeout
		return s, s.Close
	}
}

// NewSynthesizer returns a synthesizer for the configuration.
func (c *Config) NewSynthesizer(solver synth.Solver, logger *log.Logger) *synth.Synthesizer {
	s := synth.NewSynthesizer(solver)
	s.Evaluator.Width = c.Width
	s.Evaluator.MaxExponent = c.MaxExponent
	s.Builder.Classifier = synth.PrefixClassifier(c.ParamPrefix)
	s.Builder.AllowEmptyDomain = c.AllowEmpty
	s.Logger = logger

	for _, name := range strings.Split(c.NonZero, ",") {
		if name = strings.TrimSpace(name); name != "" {
			s.NonZero = append(s.NonZero, name)
		}
	}
	return s
}

const configUsage = `
	-width N
	    Word width in bits, between 2 and 64. Defaults to 8.

	-max-exponent N
	    Largest exponent unrolled by ^. Defaults to 1024.

	-param-prefix PREFIX
	    Variables beginning with PREFIX are parameters. Defaults to "h".

	-nonzero NAMES
	    Comma-separated parameters that must not be zero.

	-allow-empty
	    Allow queries without plain variables.

	-solver NAME
	    Solver to use: "z3" or "cegis". Defaults to "z3".

	-timeout DURATION
	    Limit on each solver check. Defaults to no limit.

	-v
	    Enable verbose logging.
`
