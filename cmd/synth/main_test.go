package main

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	t.Run("Help", func(t *testing.T) {
		if _, stderr, err := MustRun(t, "help"); err != flag.ErrHelp {
			t.Fatalf("unexpected error: %v", err)
		} else if !strings.Contains(stderr, "synth <command> [arguments]") {
			t.Fatalf("unexpected usage: %s", stderr)
		}
	})

	t.Run("UnknownCommand", func(t *testing.T) {
		if _, _, err := MustRun(t, "foo"); err == nil || err.Error() != "synth foo: unknown command" {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestSolveCommand_Run(t *testing.T) {
	t.Run("Satisfiable", func(t *testing.T) {
		if stdout, _, err := MustRun(t, "solve", "-solver", "cegis", "-verify", "x + x", "h * x"); err != nil {
			t.Fatal(err)
		} else if stdout != "h = 2\n" {
			t.Fatalf("unexpected output: %q", stdout)
		}
	})

	t.Run("Unsatisfiable", func(t *testing.T) {
		if stdout, _, err := MustRun(t, "solve", "-solver", "cegis", "-nonzero", "h", "x", "h + x"); err != ExitUnsatisfiable {
			t.Fatalf("unexpected error: %v", err)
		} else if stdout != "no assignment exists\n" {
			t.Fatalf("unexpected output: %q", stdout)
		}
	})

	t.Run("ParamPrefix", func(t *testing.T) {
		if stdout, _, err := MustRun(t, "solve", "-solver", "cegis", "-width", "16", "-param-prefix", "k", "x << 4", "x * k1"); err != nil {
			t.Fatal(err)
		} else if stdout != "k1 = 16\n" {
			t.Fatalf("unexpected output: %q", stdout)
		}
	})

	t.Run("Verbose", func(t *testing.T) {
		if _, stderr, err := MustRun(t, "solve", "-solver", "cegis", "-v", "x + x", "h * x"); err != nil {
			t.Fatal(err)
		} else if !strings.Contains(stderr, "[query] (forall (x) (eq (add x x) (mul h x)))") {
			t.Fatalf("unexpected log: %s", stderr)
		} else if !strings.Contains(stderr, "[solve] sat:\nh = 2\n") {
			t.Fatalf("unexpected log: %s", stderr)
		} else if !strings.Contains(stderr, "[result] (synth.Status) 1") || !strings.Contains(stderr, "(uint64) 2") {
			t.Fatalf("unexpected log: %s", stderr)
		}
	})

	t.Run("NegatedReference", func(t *testing.T) {
		if stdout, _, err := MustRun(t, "solve", "-solver", "cegis", "-verify", "--", "-x", "h * x"); err != nil {
			t.Fatal(err)
		} else if stdout != "h = 255\n" {
			t.Fatalf("unexpected output: %q", stdout)
		}
	})

	t.Run("ErrParse", func(t *testing.T) {
		if _, _, err := MustRun(t, "solve", "-solver", "cegis", "x +", "h"); err == nil || !strings.Contains(err.Error(), "parse error at offset 3") {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ErrArgs", func(t *testing.T) {
		if _, _, err := MustRun(t, "solve", "x"); err == nil || err.Error() != "reference and candidate expressions required" {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ErrWidth", func(t *testing.T) {
		if _, _, err := MustRun(t, "solve", "-width", "65", "x", "h"); err == nil || err.Error() != "width must be between 2 and 64" {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ErrSolver", func(t *testing.T) {
		if _, _, err := MustRun(t, "solve", "-solver", "cvc4", "x", "h"); err == nil || err.Error() != `unknown solver: "cvc4"` {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestQueryCommand_Run(t *testing.T) {
	t.Run("NegatedReference", func(t *testing.T) {
		if stdout, _, err := MustRun(t, "query", "--", "-x", "x * h"); err != nil {
			t.Fatal(err)
		} else if !strings.Contains(stdout, "(declare-const h (_ BitVec 8))\n") {
			t.Fatalf("unexpected output: %s", stdout)
		}
	})

	if stdout, _, err := MustRun(t, "query", "x << 1", "x * h"); err != nil {
		t.Fatal(err)
	} else if !strings.Contains(stdout, "(declare-const h (_ BitVec 8))\n") {
		t.Fatalf("unexpected output: %s", stdout)
	} else if !strings.Contains(stdout, "(assert (forall ((x (_ BitVec 8))) ") {
		t.Fatalf("unexpected output: %s", stdout)
	}
}

func TestParseCommand_Run(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		if stdout, _, err := MustRun(t, "parse", "x + y * 2"); err != nil {
			t.Fatal(err)
		} else if stdout != "(x + (y * 2))\n" {
			t.Fatalf("unexpected output: %q", stdout)
		}
	})

	t.Run("Dump", func(t *testing.T) {
		if stdout, _, err := MustRun(t, "parse", "-dump", "--", "-x"); err != nil {
			t.Fatal(err)
		} else if !strings.Contains(stdout, "(*ast.Negate)") || !strings.Contains(stdout, `Name: (string) (len=1) "x"`) {
			t.Fatalf("unexpected output: %s", stdout)
		}
	})
}

// MustRun executes the program with args and returns its output.
func MustRun(tb testing.TB, args ...string) (stdout, stderr string, err error) {
	tb.Helper()
	var outBuf, errBuf bytes.Buffer
	err = run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), err
}
