package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/benbjohnson/synth"
)

// DefaultVerifyLimit is the largest number of plain inputs enumerated by -verify.
const DefaultVerifyLimit = 1 << 24

// SolveCommand represents a command for solving parameter values.
type SolveCommand struct {
	stdout io.Writer
	stderr io.Writer
}

// NewSolveCommand returns a new instance of SolveCommand.
func NewSolveCommand(stdout, stderr io.Writer) *SolveCommand {
	return &SolveCommand{stdout: stdout, stderr: stderr}
}

// Run executes the "solve" subcommand.
func (cmd *SolveCommand) Run(ctx context.Context, args []string) error {
	var config Config
	fs := flag.NewFlagSet("synth-solve", flag.ContinueOnError)
	fs.SetOutput(cmd.stderr)
	config.Register(fs)
	verify := fs.Bool("verify", false, "")
	fs.Usage = cmd.usage
	if err := fs.Parse(args); err != nil {
		return err
	} else if fs.NArg() != 2 {
		return fmt.Errorf("reference and candidate expressions required")
	} else if err := config.Validate(); err != nil {
		return err
	}

	logger := config.Logger(cmd.stderr)
	solver, closeSolver := config.NewSolver()
	defer closeSolver()

	s := config.NewSynthesizer(solver, logger)
	result, err := s.Synthesize(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	if config.Verbose {
		logger.Printf("[result] %s", dumper.Sdump(result.Status, result.Model))
	}

	switch result.Status {
	case synth.Unsatisfiable:
		fmt.Fprintln(cmd.stdout, "no assignment exists")
		return ExitUnsatisfiable
	case synth.Unknown:
		fmt.Fprintf(cmd.stdout, "unknown: %s\n", result.Reason)
		return ExitUnknown
	}

	if *verify {
		if err := synth.Verify(result.Query, result.Model, DefaultVerifyLimit); err != nil {
			return fmt.Errorf("verify: %s", err)
		}
		logger.Printf("[verify] ok")
	}

	fmt.Fprint(cmd.stdout, result.Model.String())
	return nil
}

func (cmd *SolveCommand) usage() {
	fmt.Fprintln(cmd.stderr, `
usage: synth solve [arguments] <reference> <candidate>

Finds parameter values for which candidate equals reference for every value
of the plain variables. Exits with status 2 if no assignment exists and 3 if
the solver cannot decide. Expressions that begin with "-" must follow "--",
as in: synth solve -- -x "h * x"

Arguments:
`[1:]+configUsage+`
	-verify
	    Check the model by enumerating every plain input.
`)
}
