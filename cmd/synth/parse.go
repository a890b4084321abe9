package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/benbjohnson/synth/parser"
)

// ParseCommand represents a command for printing a parse tree.
type ParseCommand struct {
	stdout io.Writer
	stderr io.Writer
}

// NewParseCommand returns a new instance of ParseCommand.
func NewParseCommand(stdout, stderr io.Writer) *ParseCommand {
	return &ParseCommand{stdout: stdout, stderr: stderr}
}

// Run executes the "parse" subcommand.
func (cmd *ParseCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("synth-parse", flag.ContinueOnError)
	fs.SetOutput(cmd.stderr)
	dump := fs.Bool("dump", false, "")
	fs.Usage = cmd.usage
	if err := fs.Parse(args); err != nil {
		return err
	} else if fs.NArg() != 1 {
		return fmt.Errorf("expression required")
	}

	n, err := parser.New().Parse(fs.Arg(0))
	if err != nil {
		return err
	}

	if *dump {
		dumper.Fdump(cmd.stdout, n)
		return nil
	}
	fmt.Fprintln(cmd.stdout, n.String())
	return nil
}

func (cmd *ParseCommand) usage() {
	fmt.Fprintln(cmd.stderr, `
usage: synth parse [arguments] <expression>

Prints the fully parenthesized form of an expression. An expression that
begins with "-" must follow "--", as in: synth parse -- -x

Arguments:

	-dump
	    Print the parse tree structure instead.
`[1:])
}
