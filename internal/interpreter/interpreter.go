// Package interpreter tree-walks a type-checked program, executing
// statements against a chain of lexical environments.
//
// The envStack push/pop-around-Eval pattern and the dispatch-by-node-
// kind shape of Eval are adapted from an earlier slug/internal/evaluator
// design; return-unwinding uses a typed control-flow error
// (returnSignal) in place of an earlier ReturnValue object wrapper,
// since this language's statements execute for side effect and error,
// not for a result value.
package interpreter

import (
	"fmt"
	"strings"

	"slug/internal/ast"
	"slug/internal/diag"
	"slug/internal/runtime"
	"slug/internal/source"
	"slug/internal/token"
)

// returnSignal unwinds the Go call stack from a `return` statement to
// the nearest enclosing function-call frame.
type returnSignal struct {
	Value runtime.Value
	Span  source.Span
}

func (r *returnSignal) Error() string { return "return" }

// Interpreter executes a program against a chain of runtime.Environment
// frames, reporting runtime failures to a diagnostics sink.
type Interpreter struct {
	sink      *diag.Sink
	out       *runtime.Sink
	global    *runtime.Environment
	envStack  []*runtime.Environment
	functions map[string]*ast.FunDecl
}

// New creates an Interpreter writing to out and reporting to sink.
func New(out *runtime.Sink, sink *diag.Sink) *Interpreter {
	global := runtime.NewEnvironment()
	return &Interpreter{
		sink:      sink,
		out:       out,
		global:    global,
		envStack:  []*runtime.Environment{global},
		functions: map[string]*ast.FunDecl{},
	}
}

func (it *Interpreter) pushEnv(env *runtime.Environment) { it.envStack = append(it.envStack, env) }

func (it *Interpreter) popEnv() { it.envStack = it.envStack[:len(it.envStack)-1] }

func (it *Interpreter) current() *runtime.Environment {
	return it.envStack[len(it.envStack)-1]
}

// Run executes prog top to bottom. A runtime error halts execution and
// is reported to the sink; it never panics.
func (it *Interpreter) Run(prog []ast.Stmt) {
	defer it.out.Flush()

	for _, s := range prog {
		if fd, ok := s.(*ast.FunDecl); ok {
			it.functions[fd.Name] = fd
		}
	}

	for _, s := range prog {
		if err := it.exec(s); err != nil {
			it.reportTerminal(err)
			return
		}
	}
}

func (it *Interpreter) reportTerminal(err error) {
	switch e := err.(type) {
	case *runtime.Error:
		it.sink.Report(e.Message, e.Span)
	case *returnSignal:
		it.sink.Report("Return statement outside of a function", e.Span)
	default:
		it.sink.Report(err.Error(), source.Span{})
	}
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

func (it *Interpreter) exec(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.LetDecl:
		v, err := it.eval(n.Init)
		if err != nil {
			return err
		}
		it.current().Define(n.Name, v)
		return nil

	case *ast.Assign:
		v, err := it.eval(n.Expr)
		if err != nil {
			return err
		}
		if rtErr := it.current().Set(n.Name, v, n.Sp); rtErr != nil {
			return rtErr
		}
		return nil

	case *ast.ExprStmt:
		_, err := it.eval(n.X)
		return err

	case *ast.Block:
		return it.execBlock(n)

	case *ast.If:
		cond, err := it.eval(n.Cond)
		if err != nil {
			return err
		}
		if runtime.Truthy(cond) {
			return it.exec(n.Then)
		}
		if n.Else != nil {
			return it.exec(n.Else)
		}
		return nil

	case *ast.While:
		for {
			cond, err := it.eval(n.Cond)
			if err != nil {
				return err
			}
			if !runtime.Truthy(cond) {
				return nil
			}
			if err := it.exec(n.Body); err != nil {
				return err
			}
		}

	case *ast.Return:
		val := runtime.Value(runtime.Nil)
		if n.Value != nil {
			v, err := it.eval(n.Value)
			if err != nil {
				return err
			}
			val = v
		}
		return &returnSignal{Value: val, Span: n.Sp}

	case *ast.FunDecl:
		it.functions[n.Name] = n
		return nil

	default:
		return nil
	}
}

// execBlock pushes a child environment for the block's lifetime,
// releasing it on every exit path: normal, return, or runtime error.
func (it *Interpreter) execBlock(b *ast.Block) error {
	it.pushEnv(runtime.NewEnclosedEnvironment(it.current()))
	defer it.popEnv()

	for _, st := range b.Stmts {
		if err := it.exec(st); err != nil {
			return err
		}
	}
	return nil
}

// callUser invokes a user-defined function. The new frame's parent is
// the global environment, not the caller's current environment: this
// language scopes function calls lexically rather than dynamically.
func (it *Interpreter) callUser(fd *ast.FunDecl, args []runtime.Value) (runtime.Value, error) {
	env := runtime.NewEnclosedEnvironment(it.global)
	for i, p := range fd.Params {
		if i < len(args) {
			env.Define(p.Name, args[i])
		} else {
			env.Define(p.Name, runtime.Nil)
		}
	}

	it.pushEnv(env)
	defer it.popEnv()

	for _, st := range fd.Body {
		err := it.exec(st)
		if err == nil {
			continue
		}
		if rs, ok := err.(*returnSignal); ok {
			return rs.Value, nil
		}
		return nil, err
	}
	return runtime.Nil, nil
}

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

func (it *Interpreter) eval(e ast.Expr) (runtime.Value, error) {
	switch n := e.(type) {
	case *ast.IntLit:
		return &runtime.Int{Value: n.Value}, nil
	case *ast.FloatLit:
		return &runtime.Float{Value: n.Value}, nil
	case *ast.StringLit:
		return &runtime.Str{Value: n.Value}, nil
	case *ast.CharLit:
		return &runtime.Char{Value: n.Value}, nil
	case *ast.BoolLit:
		return runtime.Bool_(n.Value), nil
	case *ast.Ident:
		v, rtErr := it.current().Get(n.Name, n.Sp)
		if rtErr != nil {
			return nil, rtErr
		}
		return v, nil
	case *ast.Unary:
		return it.evalUnary(n)
	case *ast.Binary:
		return it.evalBinary(n)
	case *ast.Grouping:
		return it.eval(n.Inner)
	case *ast.Call:
		return it.evalCall(n)
	default:
		return nil, &runtime.Error{Message: "Unsupported expression", Span: e.Span()}
	}
}

func (it *Interpreter) evalUnary(n *ast.Unary) (runtime.Value, error) {
	v, err := it.eval(n.X)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case token.Minus:
		switch vv := v.(type) {
		case *runtime.Int:
			return &runtime.Int{Value: -vv.Value}, nil
		case *runtime.Float:
			return &runtime.Float{Value: -vv.Value}, nil
		}
	case token.Bang:
		return runtime.Bool_(!runtime.Truthy(v)), nil
	}

	return nil, &runtime.Error{
		Message: fmt.Sprintf("Invalid operand type for unary '%s': %s", n.Op, kindName(v.Type())),
		Span:    n.Sp,
	}
}

func (it *Interpreter) evalBinary(n *ast.Binary) (runtime.Value, error) {
	switch n.Op {
	case token.Or:
		left, err := it.eval(n.Left)
		if err != nil {
			return nil, err
		}
		if runtime.Truthy(left) {
			return left, nil
		}
		return it.eval(n.Right)
	case token.And:
		left, err := it.eval(n.Left)
		if err != nil {
			return nil, err
		}
		if !runtime.Truthy(left) {
			return left, nil
		}
		return it.eval(n.Right)
	}

	left, err := it.eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := it.eval(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case token.Plus, token.Minus, token.Star, token.Slash:
		return it.evalArith(n, left, right)
	case token.Less, token.LessEqual, token.Greater, token.GreaterEqual:
		return it.evalComparison(n, left, right)
	case token.EqualEqual:
		return runtime.Bool_(runtime.Equal(left, right)), nil
	case token.BangEqual:
		return runtime.Bool_(!runtime.Equal(left, right)), nil
	}

	return nil, &runtime.Error{Message: "Unsupported operator '" + string(n.Op) + "'", Span: n.Sp}
}

func asFloat(v runtime.Value) (float64, bool) {
	switch vv := v.(type) {
	case *runtime.Int:
		return float64(vv.Value), true
	case *runtime.Float:
		return vv.Value, true
	}
	return 0, false
}

func asStringable(v runtime.Value) (string, bool) {
	switch vv := v.(type) {
	case *runtime.Str:
		return vv.Value, true
	case *runtime.Char:
		return string(vv.Value), true
	}
	return "", false
}

func (it *Interpreter) evalArith(n *ast.Binary, l, r runtime.Value) (runtime.Value, error) {
	if li, lok := l.(*runtime.Int); lok {
		if ri, rok := r.(*runtime.Int); rok {
			switch n.Op {
			case token.Plus:
				return &runtime.Int{Value: li.Value + ri.Value}, nil
			case token.Minus:
				return &runtime.Int{Value: li.Value - ri.Value}, nil
			case token.Star:
				return &runtime.Int{Value: li.Value * ri.Value}, nil
			case token.Slash:
				if ri.Value == 0 {
					return nil, &runtime.Error{Message: "Division by zero", Span: n.Sp}
				}
				return &runtime.Int{Value: li.Value / ri.Value}, nil
			}
		}
	}

	if lf, lok := asFloat(l); lok {
		if rf, rok := asFloat(r); rok {
			switch n.Op {
			case token.Plus:
				return &runtime.Float{Value: lf + rf}, nil
			case token.Minus:
				return &runtime.Float{Value: lf - rf}, nil
			case token.Star:
				return &runtime.Float{Value: lf * rf}, nil
			case token.Slash:
				if rf == 0 {
					return nil, &runtime.Error{Message: "Division by zero", Span: n.Sp}
				}
				return &runtime.Float{Value: lf / rf}, nil
			}
		}
	}

	if n.Op == token.Plus {
		if ls, lok := asStringable(l); lok {
			if rs, rok := asStringable(r); rok {
				return &runtime.Str{Value: ls + rs}, nil
			}
		}
	}

	return nil, &runtime.Error{
		Message: fmt.Sprintf("Invalid operand types for '%s': %s, %s", n.Op, kindName(l.Type()), kindName(r.Type())),
		Span:    n.Sp,
	}
}

func (it *Interpreter) evalComparison(n *ast.Binary, l, r runtime.Value) (runtime.Value, error) {
	if lf, lok := asFloat(l); lok {
		if rf, rok := asFloat(r); rok {
			return runtime.Bool_(compareOrdered(n.Op, lf, rf)), nil
		}
	}
	if ls, lok := l.(*runtime.Str); lok {
		if rs, rok := r.(*runtime.Str); rok {
			return runtime.Bool_(compareOrdered(n.Op, ls.Value, rs.Value)), nil
		}
	}
	return nil, &runtime.Error{
		Message: fmt.Sprintf("Invalid operand types for '%s': %s, %s", n.Op, kindName(l.Type()), kindName(r.Type())),
		Span:    n.Sp,
	}
}

type ordered interface{ ~int64 | ~float64 | ~string }

func compareOrdered[T ordered](op token.Kind, l, r T) bool {
	switch op {
	case token.Less:
		return l < r
	case token.LessEqual:
		return l <= r
	case token.Greater:
		return l > r
	case token.GreaterEqual:
		return l >= r
	default:
		return false
	}
}

func (it *Interpreter) evalCall(n *ast.Call) (runtime.Value, error) {
	ident, ok := n.Callee.(*ast.Ident)
	if !ok {
		return nil, &runtime.Error{Message: "Call target must be a function name", Span: n.Callee.Span()}
	}

	args := make([]runtime.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := it.eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if bi, ok := builtins[ident.Name]; ok {
		return bi(it, args, n.Sp)
	}
	if fd, ok := it.functions[ident.Name]; ok {
		return it.callUser(fd, args)
	}
	return nil, &runtime.Error{Message: "Undefined function '" + ident.Name + "'", Span: ident.Sp}
}

func kindName(k runtime.Kind) string {
	switch k {
	case runtime.IntKind:
		return "Int"
	case runtime.FloatKind:
		return "Float"
	case runtime.StrKind:
		return "String"
	case runtime.CharKind:
		return "Char"
	case runtime.BoolKind:
		return "Bool"
	case runtime.NilKind:
		return "Void"
	default:
		return string(k)
	}
}

func concatInspect(args []runtime.Value) string {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(a.Inspect())
	}
	return b.String()
}
