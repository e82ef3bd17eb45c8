package parser

import (
	"testing"

	"slug/internal/ast"
	"slug/internal/diag"
	"slug/internal/lexer"
)

func parseSrc(t *testing.T, src string) ([]ast.Stmt, *diag.Sink) {
	t.Helper()
	sink := diag.NewSink(src)
	toks := lexer.Tokens(src, sink)
	prog := New(toks, src, sink).Parse()
	return prog, sink
}

func TestParseLetDecl(t *testing.T) {
	prog, sink := parseSrc(t, `let x: Int = 1 + 2;`)
	if sink.HadError() {
		t.Fatalf("unexpected parse errors")
	}
	if len(prog) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog))
	}
	decl, ok := prog[0].(*ast.LetDecl)
	if !ok {
		t.Fatalf("expected *ast.LetDecl, got %T", prog[0])
	}
	if decl.Name != "x" || decl.Type == nil || decl.Type.Name != "Int" {
		t.Fatalf("unexpected let decl: %+v", decl)
	}
	bin, ok := decl.Init.(*ast.Binary)
	if !ok {
		t.Fatalf("expected initializer to be *ast.Binary, got %T", decl.Init)
	}
	if bin.String() != "(1 + 2)" {
		t.Fatalf("unexpected initializer rendering: %s", bin.String())
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3;", "(1 + (2 * 3));"},
		{"1 * 2 + 3;", "((1 * 2) + 3);"},
		{"1 < 2 or 3 > 4 and 5 == 5;", "((1 < 2) or ((3 > 4) and (5 == 5)));"},
		{"-1 + 2;", "((-1) + 2);"},
		{"!a and b;", "((!a) and b);"},
	}

	for _, tt := range tests {
		prog, sink := parseSrc(t, tt.src)
		if sink.HadError() {
			t.Fatalf("%s: unexpected parse errors", tt.src)
		}
		if len(prog) != 1 {
			t.Fatalf("%s: expected 1 statement, got %d", tt.src, len(prog))
		}
		if got := prog[0].String(); got != tt.want {
			t.Fatalf("%s: expected %q, got %q", tt.src, tt.want, got)
		}
	}
}

func TestParseFunDecl(t *testing.T) {
	prog, sink := parseSrc(t, `fun add(x: Int, y: Int) -> Int { return x + y; }`)
	if sink.HadError() {
		t.Fatalf("unexpected parse errors")
	}
	fd, ok := prog[0].(*ast.FunDecl)
	if !ok {
		t.Fatalf("expected *ast.FunDecl, got %T", prog[0])
	}
	if fd.Name != "add" || len(fd.Params) != 2 || fd.ReturnType == nil || fd.ReturnType.Name != "Int" {
		t.Fatalf("unexpected fun decl: %+v", fd)
	}
	if fd.Params[0].Name != "x" || fd.Params[0].Type.Name != "Int" {
		t.Fatalf("unexpected first parameter: %+v", fd.Params[0])
	}
}

func TestParseIfElseAndWhile(t *testing.T) {
	prog, sink := parseSrc(t, `
if (x > 0) {
  y = 1;
} else {
  y = 2;
}
while (x > 0) {
  x = x - 1;
}`)
	if sink.HadError() {
		t.Fatalf("unexpected parse errors")
	}
	if len(prog) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog))
	}
	if _, ok := prog[0].(*ast.If); !ok {
		t.Fatalf("expected *ast.If, got %T", prog[0])
	}
	if _, ok := prog[1].(*ast.While); !ok {
		t.Fatalf("expected *ast.While, got %T", prog[1])
	}
}

func TestCallChaining(t *testing.T) {
	prog, sink := parseSrc(t, `f(1, 2)(3);`)
	if sink.HadError() {
		t.Fatalf("unexpected parse errors")
	}
	stmt, ok := prog[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected *ast.ExprStmt, got %T", prog[0])
	}
	outer, ok := stmt.X.(*ast.Call)
	if !ok {
		t.Fatalf("expected outer call, got %T", stmt.X)
	}
	if len(outer.Args) != 1 {
		t.Fatalf("expected 1 argument on outer call, got %d", len(outer.Args))
	}
	inner, ok := outer.Callee.(*ast.Call)
	if !ok {
		t.Fatalf("expected callee to be a *ast.Call, got %T", outer.Callee)
	}
	if len(inner.Args) != 2 {
		t.Fatalf("expected 2 arguments on inner call, got %d", len(inner.Args))
	}
}

func TestMissingSemicolonRecoversAndReportsError(t *testing.T) {
	prog, sink := parseSrc(t, `let x = 1
let y = 2;`)
	if !sink.HadError() {
		t.Fatalf("expected a diagnostic for the missing semicolon")
	}
	if len(prog) != 1 {
		t.Fatalf("expected recovery to still parse the second statement, got %d statements", len(prog))
	}
	decl, ok := prog[0].(*ast.LetDecl)
	if !ok || decl.Name != "y" {
		t.Fatalf("expected recovered statement to be 'let y', got %+v", prog[0])
	}
}

func TestInvalidIntegerLiteralReportsAndDoesNotPanic(t *testing.T) {
	huge := "let x = 99999999999999999999999999;"
	_, sink := parseSrc(t, huge)
	if !sink.HadError() {
		t.Fatalf("expected an overflow diagnostic")
	}
}
