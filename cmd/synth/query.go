package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/benbjohnson/synth"
)

// QueryCommand represents a command for printing the SMT-LIB2 form of a query.
type QueryCommand struct {
	stdout io.Writer
	stderr io.Writer
}

// NewQueryCommand returns a new instance of QueryCommand.
func NewQueryCommand(stdout, stderr io.Writer) *QueryCommand {
	return &QueryCommand{stdout: stdout, stderr: stderr}
}

// Run executes the "query" subcommand.
func (cmd *QueryCommand) Run(ctx context.Context, args []string) error {
	var config Config
	fs := flag.NewFlagSet("synth-query", flag.ContinueOnError)
	fs.SetOutput(cmd.stderr)
	config.Register(fs)
	fs.Usage = cmd.usage
	if err := fs.Parse(args); err != nil {
		return err
	} else if fs.NArg() != 2 {
		return fmt.Errorf("reference and candidate expressions required")
	} else if err := config.Validate(); err != nil {
		return err
	}

	q, err := config.NewSynthesizer(nil, config.Logger(cmd.stderr)).Query(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	return synth.WriteSMTLIB(cmd.stdout, q)
}

func (cmd *QueryCommand) usage() {
	fmt.Fprintln(cmd.stderr, `
usage: synth query [arguments] <reference> <candidate>

Prints the equivalence query as an SMT-LIB2 script. The -solver and -timeout
arguments are accepted but unused. Expressions that begin with "-" must
follow "--".

Arguments:
`[1:]+configUsage)
}
