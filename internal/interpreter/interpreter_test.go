package interpreter

import (
	"bytes"
	"testing"

	"slug/internal/diag"
	"slug/internal/lexer"
	"slug/internal/parser"
	"slug/internal/runtime"
	"slug/internal/types"
)

func runSrc(t *testing.T, src string) (string, *diag.Sink) {
	t.Helper()
	sink := diag.NewSink(src)
	toks := lexer.Tokens(src, sink)
	prog := parser.New(toks, src, sink).Parse()
	types.Check(prog, sink)
	if sink.HadError() {
		return "", sink
	}
	var buf bytes.Buffer
	New(runtime.NewSink(&buf), sink).Run(prog)
	return buf.String(), sink
}

func TestPrintlnConcatenatesArguments(t *testing.T) {
	out, sink := runSrc(t, `println("sum is ", 1 + 2);`)
	if sink.HadError() {
		t.Fatalf("unexpected diagnostics: %d", sink.Total())
	}
	if out != "sum is 3\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestUserFunctionCallAndReturn(t *testing.T) {
	src := `
fun add(x: Int, y: Int) -> Int {
  return x + y;
}
println(add(2, 3));
`
	out, sink := runSrc(t, src)
	if sink.HadError() {
		t.Fatalf("unexpected diagnostics: %d", sink.Total())
	}
	if out != "5\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRecursiveFactorial(t *testing.T) {
	src := `
fun fact(n: Int) -> Int {
  if (n <= 1) {
    return 1;
  }
  return n * fact(n - 1);
}
println(fact(5));
`
	out, sink := runSrc(t, src)
	if sink.HadError() {
		t.Fatalf("unexpected diagnostics: %d", sink.Total())
	}
	if out != "120\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestWhileLoop(t *testing.T) {
	src := `
let i: Int = 0;
let sum: Int = 0;
while (i < 5) {
  sum = sum + i;
  i = i + 1;
}
println(sum);
`
	out, sink := runSrc(t, src)
	if sink.HadError() {
		t.Fatalf("unexpected diagnostics: %d", sink.Total())
	}
	if out != "10\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestDivisionByZeroReportsRuntimeError(t *testing.T) {
	src := `
let x: Int = 1 / 0;
println(x);
`
	out, sink := runSrc(t, src)
	if !sink.HadError() {
		t.Fatalf("expected a division-by-zero diagnostic")
	}
	if out != "" {
		t.Fatalf("expected no output once the division fails, got %q", out)
	}
}

func TestLexicalScopeIgnoresCallerLocals(t *testing.T) {
	src := `
let x: Int = 99;
fun f() -> Int {
  return x;
}
fun g() -> Int {
  let x: Int = 1;
  return f();
}
println(g());
`
	out, sink := runSrc(t, src)
	if sink.HadError() {
		t.Fatalf("unexpected diagnostics: %d", sink.Total())
	}
	if out != "99\n" {
		t.Fatalf("expected f() to see the global x (99), got %q", out)
	}
}

func TestFloatInspectStripsTrailingZero(t *testing.T) {
	out, sink := runSrc(t, `println(6.0 / 2.0);`)
	if sink.HadError() {
		t.Fatalf("unexpected diagnostics: %d", sink.Total())
	}
	if out != "3\n" {
		t.Fatalf("expected integral float to print without a decimal point, got %q", out)
	}
}

func TestBoolPrintsCapitalized(t *testing.T) {
	out, sink := runSrc(t, `println(1 < 2);`)
	if sink.HadError() {
		t.Fatalf("unexpected diagnostics: %d", sink.Total())
	}
	if out != "True\n" {
		t.Fatalf("expected capitalized bool, got %q", out)
	}
}

func TestStringBuiltinStringifiesInt(t *testing.T) {
	out, sink := runSrc(t, `println(string(42));`)
	if sink.HadError() {
		t.Fatalf("unexpected diagnostics: %d", sink.Total())
	}
	if out != "42\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestAssignToUndeclaredNameReportsRuntimeError(t *testing.T) {
	out, sink := runSrc(t, `y = 42;`)
	if !sink.HadError() {
		t.Fatalf("expected an undefined variable diagnostic")
	}
	if out != "" {
		t.Fatalf("expected no output, got %q", out)
	}
}

func TestOrAndShortCircuit(t *testing.T) {
	src := `
fun boom() -> Bool {
  return 1 / 0 == 0;
}
println(true or boom());
println(false and boom());
`
	out, sink := runSrc(t, src)
	if sink.HadError() {
		t.Fatalf("unexpected diagnostics: %d", sink.Total())
	}
	if out != "True\nFalse\n" {
		t.Fatalf("expected short-circuit evaluation to skip boom(), got %q", out)
	}
}
