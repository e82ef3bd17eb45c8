package ast

import (
	"fmt"
	"io"
	"strings"
)

// Print writes an indented, human-centric dump of prog, grounded on an
// earlier RenderASTAsText (slug/internal/parser/debug_ast_text.go),
// trimmed to this language's node set. Used by `cmd/slug -debug-ast`.
func Print(w io.Writer, prog []Stmt) {
	for _, s := range prog {
		fmt.Fprintln(w, render(s, 0))
	}
}

func render(node Node, indent int) string {
	if node == nil {
		return "nil"
	}
	sp := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case *LetDecl:
		return sp + n.String()
	case *Assign:
		return sp + n.String()
	case *ExprStmt:
		return sp + n.String()
	case *Return:
		return sp + n.String()
	case *If:
		res := sp + "if " + n.Cond.String() + " " + render(n.Then, indent)
		if n.Else != nil {
			res += " else " + render(n.Else, indent)
		}
		return res
	case *While:
		return sp + "while " + n.Cond.String() + " " + render(n.Body, indent)
	case *Block:
		var b strings.Builder
		b.WriteString("{\n")
		for _, st := range n.Stmts {
			b.WriteString(render(st, indent+1))
			b.WriteString("\n")
		}
		b.WriteString(sp + "}")
		return b.String()
	case *FunDecl:
		var b strings.Builder
		b.WriteString(sp + "fun " + n.Name + "(")
		parts := make([]string, len(n.Params))
		for i, p := range n.Params {
			parts[i] = p.String()
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(") {\n")
		for _, st := range n.Body {
			b.WriteString(render(st, indent+1))
			b.WriteString("\n")
		}
		b.WriteString(sp + "}")
		return b.String()
	default:
		return sp + node.String()
	}
}
