// Package types implements the closed static type lattice and the
// two-pass type checker for the language.
//
// The lattice and the pass-1/pass-2 split are grounded on
// malphas-lang's internal/types/checker.go from the retrieval pack;
// the concrete rule set (arithmetic mixing, Any-matching builtins,
// ErrorType cascade suppression) is this language's own.
package types

import "strings"

// Kind is one member of the closed semantic type set.
type Kind int

const (
	Int Kind = iota
	Float
	String
	Bool
	Char
	Void
	Any
	Function
	Error
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "Int"
	case Float:
		return "Float"
	case String:
		return "String"
	case Bool:
		return "Bool"
	case Char:
		return "Char"
	case Void:
		return "Void"
	case Any:
		return "Any"
	case Function:
		return "Function"
	case Error:
		return "<error>"
	default:
		return "<unknown>"
	}
}

// Type is a value of the semantic type lattice. Params/Return are only
// meaningful when Kind == Function.
type Type struct {
	Kind   Kind
	Params []Type
	Return *Type
}

func Of(k Kind) Type { return Type{Kind: k} }

var (
	TInt    = Type{Kind: Int}
	TFloat  = Type{Kind: Float}
	TString = Type{Kind: String}
	TBool   = Type{Kind: Bool}
	TChar   = Type{Kind: Char}
	TVoid   = Type{Kind: Void}
	TAny    = Type{Kind: Any}
	TError  = Type{Kind: Error}
)

// Fn builds a Function type.
func Fn(params []Type, ret Type) Type {
	r := ret
	return Type{Kind: Function, Params: params, Return: &r}
}

func (t Type) IsError() bool { return t.Kind == Error }

func (t Type) String() string {
	if t.Kind != Function {
		return t.Kind.String()
	}
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	ret := "Void"
	if t.Return != nil {
		ret = t.Return.String()
	}
	return "fun(" + strings.Join(parts, ", ") + ") -> " + ret
}

// Equal reports strict lattice equality; Any is not implicitly equal to
// anything here (call-site argument matching handles Any separately).
func Equal(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind != Function {
		return true
	}
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !Equal(a.Params[i], b.Params[i]) {
			return false
		}
	}
	return Equal(*a.Return, *b.Return)
}

// Matches reports whether an argument of type arg may be passed where
// param is expected: equal types match, and Any matches anything.
func Matches(param, arg Type) bool {
	if param.Kind == Any {
		return true
	}
	return Equal(param, arg)
}

// ResolveName maps a source-level type name ("Int", "Float", "String",
// "Bool", "Char", "Void") to its Type. Unknown names return (TError, false).
func ResolveName(name string) (Type, bool) {
	switch name {
	case "Int":
		return TInt, true
	case "Float":
		return TFloat, true
	case "String":
		return TString, true
	case "Bool":
		return TBool, true
	case "Char":
		return TChar, true
	case "Void":
		return TVoid, true
	default:
		return TError, false
	}
}
