package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err == flag.ErrHelp {
		os.Exit(1)
	} else if code, ok := err.(ExitCode); ok {
		os.Exit(int(code))
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cmd string
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "", "-h", "--help", "help":
		usage(stderr)
		return flag.ErrHelp
	case "solve":
		return NewSolveCommand(stdout, stderr).Run(ctx, args)
	case "query":
		return NewQueryCommand(stdout, stderr).Run(ctx, args)
	case "parse":
		return NewParseCommand(stdout, stderr).Run(ctx, args)
	default:
		return fmt.Errorf(`synth %s: unknown command`, cmd)
	}
}

// ExitCode is returned by a command that completed but must exit with a
// nonzero status.
type ExitCode int

// Exit codes of the solve command.
const (
	ExitUnsatisfiable ExitCode = 2
	ExitUnknown       ExitCode = 3
)

// Error returns the error as a string.
func (c ExitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(c))
}

// dumper prints the structure of values without calling their String methods.
var dumper = spew.ConfigState{
	Indent:                  "\t",
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `
Synth finds parameter values that make two bit-vector expressions equal
for every value of their other variables.

Usage:

	synth <command> [arguments]

The commands are:

	solve       solve for parameter values
	query       print the query as an SMT-LIB2 script
	parse       print the parse tree of an expression
	help        this screen

Arguments after "--" are always read as expressions, even if they begin
with "-".
`[1:])
}
