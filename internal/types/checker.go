package types

import (
	"fmt"

	"slug/internal/ast"
	"slug/internal/diag"
	"slug/internal/source"
	"slug/internal/token"
)

// FuncSig is a checked function's externally visible shape.
type FuncSig struct {
	Params []Type
	Return Type
}

// Table is the result of a successful (or partially successful) check:
// every top-level function's signature, for callers that want it
// without re-walking the AST (e.g. a future REPL or debug dump).
type Table struct {
	Functions map[string]FuncSig
}

type funcInfo struct {
	Params []Type
	Return Type
	Decl   *ast.FunDecl
}

type builtinInfo struct {
	Variadic bool
	Param    Type
	Return   Type
}

// builtins is the hard-coded built-in table. print and println are
// declared variadic-Any rather than strictly String->Void: at runtime
// both concatenate the stringification of every argument, so any
// stringifiable value typechecks, not just String.
var builtins = map[string]builtinInfo{
	"print":   {Variadic: true, Param: TAny, Return: TVoid},
	"println": {Variadic: true, Param: TAny, Return: TVoid},
	"string":  {Variadic: false, Param: TAny, Return: TString},
}

// Checker walks a program once (after a function-collecting pre-pass)
// computing expression types and reporting diagnostics. The computed
// types are not stored per node.
type Checker struct {
	sink      *diag.Sink
	functions map[string]funcInfo
	scopes    []map[string]Type
	funcDepth int
	lastRet   *Type
}

// Check type-checks prog and returns the function table collected along
// the way. All failures are reported to sink; the AST is never mutated.
func Check(prog []ast.Stmt, sink *diag.Sink) *Table {
	c := &Checker{
		sink:      sink,
		functions: map[string]funcInfo{},
		scopes:    []map[string]Type{{}},
	}
	c.collectFunctions(prog)
	for _, s := range prog {
		c.checkStmt(s)
	}
	return c.table()
}

func (c *Checker) table() *Table {
	fns := make(map[string]FuncSig, len(c.functions))
	for name, f := range c.functions {
		fns[name] = FuncSig{Params: f.Params, Return: f.Return}
	}
	return &Table{Functions: fns}
}

// collectFunctions is pass 1: register every top-level FunDecl before
// any body is checked, so forward and recursive references resolve.
func (c *Checker) collectFunctions(prog []ast.Stmt) {
	for _, s := range prog {
		fd, ok := s.(*ast.FunDecl)
		if !ok {
			continue
		}
		c.functions[fd.Name] = funcInfo{
			Params: c.resolveParams(fd.Params, false),
			Return: c.resolveReturnType(fd.ReturnType, false),
			Decl:   fd,
		}
	}
}

// resolveParams maps declared parameter type names to Types. When
// report is true, unknown names are reported; pass 1 resolves silently
// so pass 2's re-resolution is the sole source of the diagnostic.
func (c *Checker) resolveParams(params []ast.Param, report bool) []Type {
	out := make([]Type, len(params))
	for i, p := range params {
		out[i] = c.resolveTypeName(p.Type, report)
	}
	return out
}

func (c *Checker) resolveReturnType(tn *ast.TypeName, report bool) Type {
	if tn == nil {
		return TVoid
	}
	return c.resolveTypeName(tn, report)
}

func (c *Checker) resolveTypeName(tn *ast.TypeName, report bool) Type {
	if tn == nil {
		return TAny
	}
	t, ok := ResolveName(tn.Name)
	if !ok && report {
		c.sink.Report("Unknown type name: "+tn.Name, tn.Sp)
	}
	return t
}

// ---------------------------------------------------------------------
// Scopes
// ---------------------------------------------------------------------

func (c *Checker) pushScope() {
	c.scopes = append(c.scopes, map[string]Type{})
}

func (c *Checker) popScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *Checker) defineVar(name string, t Type) {
	c.scopes[len(c.scopes)-1][name] = t
}

func (c *Checker) lookupVar(name string) (Type, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if t, ok := c.scopes[i][name]; ok {
			return t, true
		}
	}
	return Type{}, false
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

func (c *Checker) checkStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.LetDecl:
		c.checkLetDecl(n)
	case *ast.Assign:
		c.checkAssign(n)
	case *ast.If:
		c.checkIf(n)
	case *ast.While:
		c.checkWhile(n)
	case *ast.Block:
		c.checkBlock(n)
	case *ast.Return:
		c.checkReturn(n)
	case *ast.ExprStmt:
		c.checkExpr(n.X)
	case *ast.FunDecl:
		c.checkFunDecl(n)
	}
}

func (c *Checker) checkLetDecl(n *ast.LetDecl) {
	initType := c.checkExpr(n.Init)
	declared := initType

	if n.Type != nil {
		t, ok := ResolveName(n.Type.Name)
		if !ok {
			c.sink.Report("Unknown type name: "+n.Type.Name, n.Type.Sp)
			declared = TError
		} else {
			declared = t
			if !initType.IsError() && !Equal(declared, initType) {
				c.sink.Report(fmt.Sprintf("Type mismatch in 'let %s': declared %s, initializer is %s",
					n.Name, declared.String(), initType.String()), n.Sp)
				declared = TError
			}
		}
	}

	c.defineVar(n.Name, declared)
}

func (c *Checker) checkAssign(n *ast.Assign) {
	existing, ok := c.lookupVar(n.Name)
	rhsType := c.checkExpr(n.Expr)

	if !ok {
		// Assigning to a name with no static binding is not flagged here:
		// it surfaces at runtime as runtime.Environment.Set's own
		// "Undefined variable '<name>'" error instead of a duplicate,
		// differently-worded static one.
		return
	}
	if existing.IsError() || rhsType.IsError() {
		return
	}
	if !Equal(existing, rhsType) {
		c.sink.Report(fmt.Sprintf("Type mismatch in assignment to '%s': expected %s, got %s",
			n.Name, existing.String(), rhsType.String()), n.Sp)
	}
}

func (c *Checker) checkIf(n *ast.If) {
	c.checkCondition(n.Cond)
	c.checkStmt(n.Then)
	if n.Else != nil {
		c.checkStmt(n.Else)
	}
}

func (c *Checker) checkWhile(n *ast.While) {
	c.checkCondition(n.Cond)
	c.checkStmt(n.Body)
}

func (c *Checker) checkCondition(cond ast.Expr) {
	t := c.checkExpr(cond)
	if !t.IsError() && t.Kind != Bool {
		c.sink.Report("Condition must be Bool, got "+t.String(), cond.Span())
	}
}

func (c *Checker) checkBlock(n *ast.Block) {
	c.pushScope()
	for _, st := range n.Stmts {
		c.checkStmt(st)
	}
	c.popScope()
}

func (c *Checker) checkReturn(n *ast.Return) {
	ret := TVoid
	if n.Value != nil {
		ret = c.checkExpr(n.Value)
	}
	c.lastRet = &ret

	if c.funcDepth == 0 {
		c.sink.Report("Return statement outside of a function", n.Sp)
	}
}

func (c *Checker) checkFunDecl(n *ast.FunDecl) {
	params := c.resolveParams(n.Params, true)
	ret := c.resolveReturnType(n.ReturnType, true)

	c.pushScope()
	for i, p := range n.Params {
		c.defineVar(p.Name, params[i])
	}

	savedRet := c.lastRet
	c.lastRet = nil
	c.funcDepth++
	for _, st := range n.Body {
		c.checkStmt(st)
	}
	c.funcDepth--

	if c.lastRet != nil && !c.lastRet.IsError() && !ret.IsError() && !Equal(*c.lastRet, ret) {
		c.sink.Report(fmt.Sprintf("Function '%s' return type mismatch: declared %s, returned %s",
			n.Name, ret.String(), c.lastRet.String()), n.Sp)
	}
	c.lastRet = savedRet
	c.popScope()

	if _, ok := c.functions[n.Name]; !ok {
		// Not a top-level declaration (pass 1 only collects those):
		// bind it as an ordinary function-typed value in scope.
		c.defineVar(n.Name, Fn(params, ret))
	}
}

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

func (c *Checker) checkExpr(e ast.Expr) Type {
	switch n := e.(type) {
	case *ast.IntLit:
		return TInt
	case *ast.FloatLit:
		return TFloat
	case *ast.StringLit:
		return TString
	case *ast.CharLit:
		return TChar
	case *ast.BoolLit:
		return TBool
	case *ast.Ident:
		return c.checkIdent(n)
	case *ast.Unary:
		return c.checkUnary(n)
	case *ast.Binary:
		return c.checkBinary(n)
	case *ast.Grouping:
		return c.checkExpr(n.Inner)
	case *ast.Call:
		return c.checkCall(n)
	default:
		return TError
	}
}

func (c *Checker) checkIdent(n *ast.Ident) Type {
	if t, ok := c.lookupVar(n.Name); ok {
		return t
	}
	if f, ok := c.functions[n.Name]; ok {
		return Fn(f.Params, f.Return)
	}
	if b, ok := builtins[n.Name]; ok {
		if b.Variadic {
			return Fn(nil, b.Return)
		}
		return Fn([]Type{b.Param}, b.Return)
	}
	c.sink.Report("Undefined variable or function: "+n.Name, n.Sp)
	return TError
}

func (c *Checker) checkUnary(n *ast.Unary) Type {
	xt := c.checkExpr(n.X)
	if xt.IsError() {
		return TError
	}
	switch n.Op {
	case token.Minus:
		if xt.Kind == Int {
			return TInt
		}
		if xt.Kind == Float {
			return TFloat
		}
		c.sink.Report("Invalid operand type for unary '-': "+xt.String(), n.Sp)
	case token.Bang:
		if xt.Kind == Bool {
			return TBool
		}
		c.sink.Report("Invalid operand type for unary '!': "+xt.String(), n.Sp)
	}
	return TError
}

func isNumeric(t Type) bool { return t.Kind == Int || t.Kind == Float }
func isStrLike(t Type) bool { return t.Kind == String || t.Kind == Char }

func (c *Checker) checkBinary(n *ast.Binary) Type {
	lt := c.checkExpr(n.Left)
	rt := c.checkExpr(n.Right)
	if lt.IsError() || rt.IsError() {
		return TError
	}

	switch n.Op {
	case token.Plus, token.Minus, token.Star, token.Slash:
		return c.checkArith(n, lt, rt)
	case token.Less, token.LessEqual, token.Greater, token.GreaterEqual:
		return c.checkComparison(n, lt, rt)
	case token.EqualEqual, token.BangEqual:
		return TBool
	case token.Or, token.And:
		// Short-circuiting picks an operand's runtime value, but the
		// static type is always Bool regardless of the operand types.
		return TBool
	default:
		c.sink.Report("Unsupported operator '"+string(n.Op)+"'", n.Sp)
		return TError
	}
}

func (c *Checker) checkArith(n *ast.Binary, lt, rt Type) Type {
	if lt.Kind == Int && rt.Kind == Int {
		return TInt
	}
	if isNumeric(lt) && isNumeric(rt) {
		return TFloat
	}
	if n.Op == token.Plus && isStrLike(lt) && isStrLike(rt) {
		return TString
	}
	c.sink.Report(fmt.Sprintf("Invalid operand types for '%s': %s, %s", string(n.Op), lt.String(), rt.String()), n.Sp)
	return TError
}

func (c *Checker) checkComparison(n *ast.Binary, lt, rt Type) Type {
	if isNumeric(lt) && isNumeric(rt) {
		return TBool
	}
	if lt.Kind == String && rt.Kind == String {
		return TBool
	}
	c.sink.Report(fmt.Sprintf("Invalid operand types for '%s': %s, %s", string(n.Op), lt.String(), rt.String()), n.Sp)
	return TError
}

func (c *Checker) checkCall(n *ast.Call) Type {
	ident, ok := n.Callee.(*ast.Ident)
	if !ok {
		c.sink.Report("Call target must be a function name", n.Callee.Span())
		for _, a := range n.Args {
			c.checkExpr(a)
		}
		return TError
	}

	argTypes := make([]Type, len(n.Args))
	hasErr := false
	for i, a := range n.Args {
		t := c.checkExpr(a)
		argTypes[i] = t
		if t.IsError() {
			hasErr = true
		}
	}

	if b, ok := builtins[ident.Name]; ok {
		if hasErr {
			return TError
		}
		if b.Variadic {
			for _, t := range argTypes {
				if !Matches(b.Param, t) {
					c.sink.Report(fmt.Sprintf("Argument type mismatch in call to '%s': expected %s, got %s",
						ident.Name, b.Param.String(), t.String()), n.Sp)
					return TError
				}
			}
			return b.Return
		}
		if len(argTypes) != 1 {
			c.sink.Report(fmt.Sprintf("Arity mismatch in call to '%s': expected 1, got %d", ident.Name, len(argTypes)), n.Sp)
			return TError
		}
		if !Matches(b.Param, argTypes[0]) {
			c.sink.Report(fmt.Sprintf("Argument type mismatch in call to '%s': expected %s, got %s",
				ident.Name, b.Param.String(), argTypes[0].String()), n.Sp)
			return TError
		}
		return b.Return
	}

	if f, ok := c.functions[ident.Name]; ok {
		return c.checkUserCall(ident.Name, f.Params, f.Return, argTypes, hasErr, n.Sp)
	}

	if t, ok := c.lookupVar(ident.Name); ok && t.Kind == Function {
		return c.checkUserCall(ident.Name, t.Params, *t.Return, argTypes, hasErr, n.Sp)
	}

	c.sink.Report("Undefined variable or function: "+ident.Name, ident.Sp)
	return TError
}

func (c *Checker) checkUserCall(name string, params []Type, ret Type, argTypes []Type, hasErr bool, span source.Span) Type {
	if hasErr {
		return TError
	}
	if len(argTypes) != len(params) {
		c.sink.Report(fmt.Sprintf("Arity mismatch in call to '%s': expected %d, got %d", name, len(params), len(argTypes)), span)
		return TError
	}
	for i, pt := range params {
		if !Matches(pt, argTypes[i]) {
			c.sink.Report(fmt.Sprintf("Argument type mismatch in call to '%s': expected %s, got %s",
				name, pt.String(), argTypes[i].String()), span)
			return TError
		}
	}
	return ret
}
