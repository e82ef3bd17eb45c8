// Package parser turns a token stream into an AST using recursive
// descent for statements and a Pratt/precedence-climbing scheme for
// expressions.
//
// The cursor shape (curToken/peekToken-equivalent index over a token
// slice, expectPeek-style helpers) and the table-driven operator
// handling are adapted from an earlier slug/internal/parser design;
// the grammar, precedence ladder and synchronize-based error recovery
// are new, built for this language's syntax.
package parser

import (
	"strconv"

	"slug/internal/ast"
	"slug/internal/diag"
	"slug/internal/lexer"
	"slug/internal/token"
)

// precedence assigns a binding power to each left-associative binary
// operator, low to high.
var precedence = map[token.Kind]int{
	token.Or:           1,
	token.And:          2,
	token.EqualEqual:   3,
	token.BangEqual:    3,
	token.Less:         4,
	token.LessEqual:    4,
	token.Greater:      4,
	token.GreaterEqual: 4,
	token.Plus:         5,
	token.Minus:        5,
	token.Star:         6,
	token.Slash:        6,
}

// maxArgs is the argument-count threshold past which the parser emits a
// non-fatal warning.
const maxArgs = 255

// Parser consumes a pre-lexed token slice and builds statements.
type Parser struct {
	src  string
	sink *diag.Sink
	toks []token.Token
	pos  int
}

// New creates a Parser over toks (as produced by lexer.Tokens), reporting
// syntax errors to sink.
func New(toks []token.Token, src string, sink *diag.Sink) *Parser {
	return &Parser{src: src, sink: sink, toks: toks}
}

// Parse consumes the whole token stream and returns every statement that
// parsed successfully; it always terminates.
func (p *Parser) Parse() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.atEnd() {
		if s := p.statement(); s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// ---------------------------------------------------------------------
// Cursor helpers
// ---------------------------------------------------------------------

func (p *Parser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) previous() token.Token {
	if p.pos == 0 {
		return p.toks[0]
	}
	return p.toks[p.pos-1]
}

func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) atEnd() bool {
	return p.cur().Kind == token.Eof
}

func (p *Parser) advance() token.Token {
	tok := p.cur()
	if tok.Kind != token.Eof {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.cur().Kind == kind
}

func (p *Parser) match(kind token.Kind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

// expect consumes the current token if it matches kind; otherwise it
// reports msg at the current token's span and returns ok=false.
func (p *Parser) expect(kind token.Kind, msg string) (token.Token, bool) {
	if p.check(kind) {
		return p.advance(), true
	}
	p.sink.Report(msg, p.cur().Span)
	return token.Token{}, false
}

// synchronize advances until either the previous token was a semicolon
// or the current token starts a new statement.
func (p *Parser) synchronize() {
	for !p.atEnd() {
		if p.previous().Kind == token.Semicolon {
			return
		}
		switch p.cur().Kind {
		case token.Class, token.Fun, token.Let, token.For, token.If, token.While, token.Return:
			return
		}
		p.advance()
	}
}

func (p *Parser) fail() ast.Stmt {
	p.synchronize()
	return nil
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

func (p *Parser) statement() ast.Stmt {
	switch p.cur().Kind {
	case token.Let:
		return p.letDecl()
	case token.Return:
		return p.returnStmt()
	case token.Fun:
		return p.funDecl()
	case token.If:
		return p.ifStmt()
	case token.While:
		return p.whileStmt()
	case token.LeftBrace:
		return p.block()
	case token.Identifier:
		if p.peek().Kind == token.Equal {
			return p.assignStmt()
		}
		return p.exprStmt()
	default:
		return p.exprStmt()
	}
}

func (p *Parser) letDecl() ast.Stmt {
	letTok := p.advance()

	nameTok, ok := p.expect(token.Identifier, "Expected variable name after 'let'")
	if !ok {
		return p.fail()
	}

	var typeName *ast.TypeName
	if p.match(token.Colon) {
		tt, ok := p.expect(token.Identifier, "Expected type name after ':'")
		if !ok {
			return p.fail()
		}
		typeName = &ast.TypeName{Name: tt.Lexeme(p.src), Sp: tt.Span}
	}

	if _, ok := p.expect(token.Equal, "Expected '=' after variable name"); !ok {
		return p.fail()
	}

	init := p.expression()
	if init == nil {
		return p.fail()
	}

	semi, ok := p.expect(token.Semicolon, "Expected ';' after variable declaration")
	if !ok {
		return p.fail()
	}

	return &ast.LetDecl{Name: nameTok.Lexeme(p.src), Type: typeName, Init: init, Sp: letTok.Span.Merge(semi.Span)}
}

func (p *Parser) assignStmt() ast.Stmt {
	nameTok := p.advance()
	p.advance() // '='

	val := p.expression()
	if val == nil {
		return p.fail()
	}

	semi, ok := p.expect(token.Semicolon, "Expected ';' after assignment")
	if !ok {
		return p.fail()
	}

	return &ast.Assign{Name: nameTok.Lexeme(p.src), Expr: val, Sp: nameTok.Span.Merge(semi.Span)}
}

func (p *Parser) ifStmt() ast.Stmt {
	ifTok := p.advance()

	cond := p.expression()
	if cond == nil {
		return p.fail()
	}

	then := p.statement()
	if then == nil {
		return nil
	}

	sp := ifTok.Span.Merge(then.Span())

	var elseStmt ast.Stmt
	if p.match(token.Else) {
		elseStmt = p.statement()
		if elseStmt != nil {
			sp = sp.Merge(elseStmt.Span())
		}
	}

	return &ast.If{Cond: cond, Then: then, Else: elseStmt, Sp: sp}
}

func (p *Parser) whileStmt() ast.Stmt {
	whileTok := p.advance()

	cond := p.expression()
	if cond == nil {
		return p.fail()
	}

	body := p.statement()
	if body == nil {
		return nil
	}

	return &ast.While{Cond: cond, Body: body, Sp: whileTok.Span.Merge(body.Span())}
}

func (p *Parser) block() ast.Stmt {
	open := p.advance() // '{'
	stmts, closeTok, ok := p.blockBody()
	if !ok {
		return nil
	}
	return &ast.Block{Stmts: stmts, Sp: open.Span.Merge(closeTok.Span)}
}

// blockBody parses statements up to, and consumes, the closing '}'.
func (p *Parser) blockBody() ([]ast.Stmt, token.Token, bool) {
	var stmts []ast.Stmt
	for !p.check(token.RightBrace) && !p.atEnd() {
		if s := p.statement(); s != nil {
			stmts = append(stmts, s)
		}
	}
	closeTok, ok := p.expect(token.RightBrace, "Expected '}' after block")
	return stmts, closeTok, ok
}

func (p *Parser) returnStmt() ast.Stmt {
	retTok := p.advance()

	var val ast.Expr
	if !p.check(token.Semicolon) {
		val = p.expression()
		if val == nil {
			return p.fail()
		}
	}

	semi, ok := p.expect(token.Semicolon, "Expected ';' after return statement")
	if !ok {
		return p.fail()
	}

	return &ast.Return{Value: val, Sp: retTok.Span.Merge(semi.Span)}
}

func (p *Parser) funDecl() ast.Stmt {
	funTok := p.advance()

	nameTok, ok := p.expect(token.Identifier, "Expected function name after 'fun'")
	if !ok {
		return p.fail()
	}

	if _, ok := p.expect(token.LeftParen, "Expected '(' after function name"); !ok {
		return p.fail()
	}

	var params []ast.Param
	if !p.check(token.RightParen) {
		for {
			pname, ok := p.expect(token.Identifier, "Expected parameter name")
			if !ok {
				return p.fail()
			}
			if _, ok := p.expect(token.Colon, "Expected ':' after parameter name"); !ok {
				return p.fail()
			}
			ptype, ok := p.expect(token.Identifier, "Expected parameter type")
			if !ok {
				return p.fail()
			}
			params = append(params, ast.Param{
				Name: pname.Lexeme(p.src),
				Type: &ast.TypeName{Name: ptype.Lexeme(p.src), Sp: ptype.Span},
			})
			if !p.match(token.Comma) {
				break
			}
		}
	}

	if _, ok := p.expect(token.RightParen, "Expected ')' after parameters"); !ok {
		return p.fail()
	}

	var retType *ast.TypeName
	if p.match(token.Arrow) {
		rt, ok := p.expect(token.Identifier, "Expected return type after '->'")
		if !ok {
			return p.fail()
		}
		retType = &ast.TypeName{Name: rt.Lexeme(p.src), Sp: rt.Span}
	}

	if _, ok := p.expect(token.LeftBrace, "Expected '{' before function body"); !ok {
		return p.fail()
	}

	body, closeTok, ok := p.blockBody()
	if !ok {
		return nil
	}

	return &ast.FunDecl{
		Name:       nameTok.Lexeme(p.src),
		Params:     params,
		ReturnType: retType,
		Body:       body,
		Sp:         funTok.Span.Merge(closeTok.Span),
	}
}

func (p *Parser) exprStmt() ast.Stmt {
	expr := p.expression()
	if expr == nil {
		return p.fail()
	}
	semi, ok := p.expect(token.Semicolon, "Expected ';' after expression")
	if !ok {
		return p.fail()
	}
	return &ast.ExprStmt{X: expr, Sp: expr.Span().Merge(semi.Span)}
}

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

func (p *Parser) expression() ast.Expr {
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	left := p.unary()
	if left == nil {
		return nil
	}
	for {
		prec, ok := precedence[p.cur().Kind]
		if !ok || prec < minPrec {
			break
		}
		opTok := p.advance()
		right := p.parseBinary(prec + 1)
		if right == nil {
			return nil
		}
		left = &ast.Binary{Left: left, Op: opTok.Kind, Right: right, Sp: left.Span().Merge(right.Span())}
	}
	return left
}

func (p *Parser) unary() ast.Expr {
	if p.check(token.Minus) || p.check(token.Bang) {
		opTok := p.advance()
		operand := p.unary()
		if operand == nil {
			return nil
		}
		return &ast.Unary{Op: opTok.Kind, X: operand, Sp: opTok.Span.Merge(operand.Span())}
	}
	return p.call()
}

func (p *Parser) call() ast.Expr {
	expr := p.primary()
	if expr == nil {
		return nil
	}
	for p.check(token.LeftParen) {
		expr = p.finishCall(expr)
		if expr == nil {
			return nil
		}
	}
	return expr
}

func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	p.advance() // '('

	var args []ast.Expr
	if !p.check(token.RightParen) {
		for {
			arg := p.expression()
			if arg == nil {
				return nil
			}
			args = append(args, arg)
			if len(args) == maxArgs+1 {
				p.sink.Warn("More than 255 arguments in call", arg.Span())
			}
			if !p.match(token.Comma) {
				break
			}
		}
	}

	closeTok, ok := p.expect(token.RightParen, "Expected ')' after arguments")
	if !ok {
		return nil
	}

	return &ast.Call{Callee: callee, Args: args, Sp: callee.Span().Merge(closeTok.Span)}
}

func (p *Parser) primary() ast.Expr {
	tok := p.cur()

	switch tok.Kind {
	case token.True:
		p.advance()
		return &ast.BoolLit{Value: true, Sp: tok.Span}
	case token.False:
		p.advance()
		return &ast.BoolLit{Value: false, Sp: tok.Span}
	case token.IntegerLiteral:
		p.advance()
		lexeme := tok.Lexeme(p.src)
		v, err := strconv.ParseInt(lexeme, 10, 64)
		if err != nil {
			p.sink.Report("Invalid integer literal: "+lexeme, tok.Span)
			return nil
		}
		return &ast.IntLit{Value: v, Sp: tok.Span}
	case token.FloatLiteral:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lexeme(p.src), 64)
		if err != nil {
			p.sink.Report("Invalid float literal: "+tok.Lexeme(p.src), tok.Span)
			return nil
		}
		return &ast.FloatLit{Value: v, Sp: tok.Span}
	case token.StringLiteral:
		p.advance()
		return &ast.StringLit{Value: decodeQuoted(tok.Lexeme(p.src)), Sp: tok.Span}
	case token.CharacterLiteral:
		p.advance()
		return &ast.CharLit{Value: lexer.DecodeCharLiteral(stripQuotes(tok.Lexeme(p.src))), Sp: tok.Span}
	case token.Identifier:
		p.advance()
		return &ast.Ident{Name: tok.Lexeme(p.src), Sp: tok.Span}
	case token.LeftParen:
		p.advance()
		inner := p.expression()
		if inner == nil {
			return nil
		}
		closeTok, ok := p.expect(token.RightParen, "Expected ')' after expression")
		if !ok {
			return nil
		}
		return &ast.Grouping{Inner: inner, Sp: tok.Span.Merge(closeTok.Span)}
	case token.Invalid:
		// The lexer already reported this token's diagnostic; don't cascade.
		p.advance()
		return nil
	default:
		p.sink.Report("Expected expression", tok.Span)
		return nil
	}
}

func stripQuotes(lexeme string) string {
	if len(lexeme) < 2 {
		return ""
	}
	return lexeme[1 : len(lexeme)-1]
}

func decodeQuoted(lexeme string) string {
	return lexer.DecodeStringLiteral(stripQuotes(lexeme))
}
