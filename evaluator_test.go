package synth_test

import (
	"errors"
	"testing"

	"github.com/benbjohnson/synth"
	"github.com/benbjohnson/synth/ast"
	"github.com/benbjohnson/synth/parser"
	"github.com/google/go-cmp/cmp"
)

func TestEvaluator_Evaluate(t *testing.T) {
	t.Run("Number", func(t *testing.T) {
		for _, width := range []uint{4, 8, 16} {
			for _, n := range []uint64{0, 7, 255, 256, 1000, 1<<64 - 1} {
				expr, _, err := synth.NewEvaluator(width).Evaluate(&ast.Number{Value: n}, nil)
				if err != nil {
					t.Fatal(err)
				} else if diff := cmp.Diff(&synth.ConstantExpr{Value: n % (uint64(1) << width), Width: width}, expr); diff != "" {
					t.Fatalf("n=%d width=%d: %s", n, width, diff)
				}
			}
		}
	})

	t.Run("Variable", func(t *testing.T) {
		t.Run("Threaded", func(t *testing.T) {
			e := synth.NewEvaluator(8)
			a, env, err := e.Evaluate(&ast.Variable{Name: "x"}, nil)
			if err != nil {
				t.Fatal(err)
			}
			b, _, err := e.Evaluate(&ast.Variable{Name: "x"}, env)
			if err != nil {
				t.Fatal(err)
			} else if a != b {
				t.Fatal("expected identical handle")
			}
		})
		t.Run("Independent", func(t *testing.T) {
			e := synth.NewEvaluator(8)
			a, _, err := e.Evaluate(&ast.Variable{Name: "x"}, nil)
			if err != nil {
				t.Fatal(err)
			}
			b, _, err := e.Evaluate(&ast.Variable{Name: "x"}, nil)
			if err != nil {
				t.Fatal(err)
			} else if a == b {
				t.Fatal("expected distinct handles")
			}
		})
		t.Run("SeedUnchanged", func(t *testing.T) {
			e := synth.NewEvaluator(8)
			_, seed, err := e.Evaluate(parser.MustParse("x"), nil)
			if err != nil {
				t.Fatal(err)
			}
			_, env, err := e.Evaluate(parser.MustParse("x + h"), seed)
			if err != nil {
				t.Fatal(err)
			} else if diff := cmp.Diff([]string{"x"}, seed.Names()); diff != "" {
				t.Fatal(diff)
			} else if diff := cmp.Diff([]string{"h", "x"}, env.Names()); diff != "" {
				t.Fatal(diff)
			}
		})
	})

	t.Run("Negate", func(t *testing.T) {
		MustEvaluateExhaustive(t, "-x", func(x uint64) uint64 { return -x })
	})

	t.Run("Div", func(t *testing.T) {
		t.Run("Signed", func(t *testing.T) {
			MustEvaluateConstant(t, "(0 - 7) / 2", 0xFD)
		})
		t.Run("ByZero", func(t *testing.T) {
			MustEvaluateConstant(t, "7 / 0", 0xFF)
		})
		t.Run("NegativeByZero", func(t *testing.T) {
			MustEvaluateConstant(t, "(0 - 7) / 0", 1)
		})
		t.Run("Symbolic", func(t *testing.T) {
			expr, _, err := synth.NewEvaluator(8).Evaluate(parser.MustParse("x / y"), nil)
			if err != nil {
				t.Fatal(err)
			} else if op := expr.(*synth.BinaryExpr).Op; op != synth.SDIV {
				t.Fatalf("unexpected op: %s", op)
			}
		})
	})

	t.Run("Shift", func(t *testing.T) {
		t.Run("Logical", func(t *testing.T) {
			MustEvaluateConstant(t, "(0 - 8) >> 1", 0x7C)
		})
		t.Run("WidthOrMore", func(t *testing.T) {
			MustEvaluateConstant(t, "1 << 8", 0)
			MustEvaluateConstant(t, "255 >> 200", 0)
		})
		t.Run("Symbolic", func(t *testing.T) {
			MustEvaluateExhaustive(t, "x << 3 >> 1", func(x uint64) uint64 { return ((x << 3) & 0xFF) >> 1 })
		})
	})

	t.Run("Pow", func(t *testing.T) {
		t.Run("ZeroExponent", func(t *testing.T) {
			for _, src := range []string{"x ^ 0", "(x + y * 3) ^ 0", "7 ^ 0"} {
				expr, _, err := synth.NewEvaluator(8).Evaluate(parser.MustParse(src), nil)
				if err != nil {
					t.Fatal(err)
				} else if diff := cmp.Diff(synth.NewConstantExpr(1, 8), expr); diff != "" {
					t.Fatalf("%s: %s", src, diff)
				}
			}
		})
		t.Run("One", func(t *testing.T) {
			expr, env, err := synth.NewEvaluator(8).Evaluate(parser.MustParse("x ^ 1"), nil)
			if err != nil {
				t.Fatal(err)
			} else if x, _ := env.Lookup("x"); expr != synth.Expr(x) {
				t.Fatalf("unexpected expr: %s", expr)
			}
		})
		t.Run("Cube", func(t *testing.T) {
			MustEvaluateExhaustive(t, "x ^ 3", func(x uint64) uint64 { return x * x * x })
		})
		t.Run("LeftNested", func(t *testing.T) {
			expr, env, err := synth.NewEvaluator(8).Evaluate(parser.MustParse("x ^ 3"), nil)
			if err != nil {
				t.Fatal(err)
			}
			x, _ := env.Lookup("x")
			if diff := cmp.Diff(&synth.BinaryExpr{
				Op:  synth.MUL,
				LHS: &synth.BinaryExpr{Op: synth.MUL, LHS: x, RHS: x},
				RHS: x,
			}, expr); diff != "" {
				t.Fatal(diff)
			}
		})
		t.Run("FoldedExponent", func(t *testing.T) {
			MustEvaluateExhaustive(t, "x ^ (x ^ 0 + 1)", func(x uint64) uint64 { return x * x })
		})
		t.Run("WideExponent", func(t *testing.T) {
			pow := func(n int) func(x uint64) uint64 {
				return func(x uint64) uint64 {
					v := uint8(1)
					for i := 0; i < n; i++ {
						v *= uint8(x)
					}
					return uint64(v)
				}
			}
			MustEvaluateExhaustive(t, "x ^ 256", pow(256))
			MustEvaluateExhaustive(t, "x ^ 257", pow(257))
			MustEvaluateExhaustive(t, "x ^ (255 + 2)", pow(257))
			MustEvaluateExhaustive(t, "x ^ ((1 << 70) >> 69)", pow(2))
			MustEvaluateExhaustive(t, "x ^ ((x * 0 - 1) ^ 2)", pow(1))

			expr, env, err := synth.NewEvaluator(8).Evaluate(parser.MustParse("x ^ 256"), nil)
			if err != nil {
				t.Fatal(err)
			} else if v, err := synth.NewExprEvaluator(env.Variables(), []uint64{2}).Evaluate(expr); err != nil {
				t.Fatal(err)
			} else if v.Value != 0 {
				t.Fatalf("unexpected value: %d", v.Value)
			}
		})
		t.Run("NegativeExponent", func(t *testing.T) {
			for _, src := range []string{"x ^ -1", "x ^ (2 - 3)", "x ^ (0 - 256)", "x ^ 1 ^ -1"} {
				if _, _, err := synth.NewEvaluator(8).Evaluate(parser.MustParse(src), nil); !errors.Is(err, synth.ErrUnsupportedSymbolicExponent) {
					t.Fatalf("%s: unexpected error: %v", src, err)
				}
			}
		})
		t.Run("DivisionByZeroExponent", func(t *testing.T) {
			if _, _, err := synth.NewEvaluator(8).Evaluate(parser.MustParse("x ^ (1 / 0)"), nil); !errors.Is(err, synth.ErrUnsupportedSymbolicExponent) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
		t.Run("ErrUnsupportedSymbolicExponent", func(t *testing.T) {
			expr, env, err := synth.NewEvaluator(8).Evaluate(parser.MustParse("2 ^ x"), nil)
			if !errors.Is(err, synth.ErrUnsupportedSymbolicExponent) {
				t.Fatalf("unexpected error: %v", err)
			} else if expr != nil || env != nil {
				t.Fatal("expected no result")
			}
		})
		t.Run("ErrExponentTooLarge", func(t *testing.T) {
			e := &synth.Evaluator{Width: 8, MaxExponent: 4}
			if _, _, err := e.Evaluate(parser.MustParse("x ^ 4"), nil); err != nil {
				t.Fatal(err)
			} else if _, _, err := e.Evaluate(parser.MustParse("x ^ 5"), nil); !errors.Is(err, synth.ErrExponentTooLarge) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
		t.Run("DefaultMaxExponent", func(t *testing.T) {
			e := &synth.Evaluator{Width: 16}
			if _, _, err := e.Evaluate(parser.MustParse("x ^ 1025"), nil); !errors.Is(err, synth.ErrExponentTooLarge) {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, src := range []string{"x ^ (1 << 64)", "x ^ (2 ^ 5000)", "x ^ (65536 * 65536 * 65536 * 65536)"} {
				if _, _, err := e.Evaluate(parser.MustParse(src), nil); !errors.Is(err, synth.ErrExponentTooLarge) {
					t.Fatalf("%s: unexpected error: %v", src, err)
				}
			}
		})
	})

	t.Run("Conditional", func(t *testing.T) {
		t.Run("Constant", func(t *testing.T) {
			MustEvaluateExhaustive(t, "x ? 7 : 9", func(x uint64) uint64 {
				if x != 0 {
					return 7
				}
				return 9
			})
		})
		t.Run("Symbolic", func(t *testing.T) {
			e := synth.NewEvaluator(8)
			expr, env, err := e.Evaluate(parser.MustParse("c ? x : y"), nil)
			if err != nil {
				t.Fatal(err)
			}
			c, _ := env.Lookup("c")
			x, _ := env.Lookup("x")
			y, _ := env.Lookup("y")
			for i := uint64(0); i < 256; i++ {
				v, err := synth.NewExprEvaluator([]*synth.Variable{c, x, y}, []uint64{i, 3, 200}).Evaluate(expr)
				if err != nil {
					t.Fatal(err)
				} else if i != 0 && v.Value != 3 {
					t.Fatalf("c=%d: unexpected value: %d", i, v.Value)
				} else if i == 0 && v.Value != 200 {
					t.Fatalf("c=%d: unexpected value: %d", i, v.Value)
				}
			}
		})
	})

	t.Run("ErrInvalidWidth", func(t *testing.T) {
		for _, width := range []uint{0, 1, 65} {
			if _, _, err := synth.NewEvaluator(width).Evaluate(&ast.Number{Value: 1}, nil); !errors.Is(err, synth.ErrInvalidWidth) {
				t.Fatalf("width=%d: unexpected error: %v", width, err)
			}
		}
	})

	t.Run("ErrSeedWidthMismatch", func(t *testing.T) {
		if _, _, err := synth.NewEvaluator(8).Evaluate(&ast.Number{Value: 1}, synth.NewEnv(16)); !errors.Is(err, synth.ErrInvalidWidth) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("Width64", func(t *testing.T) {
		expr, _, err := synth.NewEvaluator(64).Evaluate(parser.MustParse("0 - 1"), nil)
		if err != nil {
			t.Fatal(err)
		} else if diff := cmp.Diff(synth.NewConstantExpr(1<<64-1, 64), expr); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		src := "(hA * ((hb1 ? x:y) ^2))+ (hB * ((hb2 ? x:y) ^4))"
		a, _, err := synth.NewEvaluator(8).Evaluate(parser.MustParse(src), nil)
		if err != nil {
			t.Fatal(err)
		}
		b, _, err := synth.NewEvaluator(8).Evaluate(parser.MustParse(src), nil)
		if err != nil {
			t.Fatal(err)
		} else if diff := cmp.Diff(a, b); diff != "" {
			t.Fatal(diff)
		}
	})
}

// MustEvaluateConstant evaluates src at 8 bits and checks that it folds to value.
func MustEvaluateConstant(tb testing.TB, src string, value uint64) {
	tb.Helper()
	expr, _, err := synth.NewEvaluator(8).Evaluate(parser.MustParse(src), nil)
	if err != nil {
		tb.Fatal(err)
	} else if diff := cmp.Diff(synth.NewConstantExpr(value, 8), expr); diff != "" {
		tb.Fatalf("%s: %s", src, diff)
	}
}

// MustEvaluateExhaustive evaluates src over a single variable at 8 bits and
// compares every assignment against fn, truncated to 8 bits.
func MustEvaluateExhaustive(tb testing.TB, src string, fn func(x uint64) uint64) {
	tb.Helper()
	expr, env, err := synth.NewEvaluator(8).Evaluate(parser.MustParse(src), nil)
	if err != nil {
		tb.Fatal(err)
	}
	vars := env.Variables()
	if len(vars) != 1 {
		tb.Fatalf("expected one variable, got %d", len(vars))
	}

	for x := uint64(0); x < 256; x++ {
		v, err := synth.NewExprEvaluator(vars, []uint64{x}).Evaluate(expr)
		if err != nil {
			tb.Fatal(err)
		} else if exp := fn(x) & 0xFF; v.Value != exp {
			tb.Fatalf("%s: x=%d: got %d, expected %d", src, x, v.Value, exp)
		}
	}
}
