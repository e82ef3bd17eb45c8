package interpreter

import (
	"slug/internal/runtime"
	"slug/internal/source"
)

// builtinFn matches the host-side shape of a built-in function.
type builtinFn func(it *Interpreter, args []runtime.Value, span source.Span) (runtime.Value, error)

var builtins = map[string]builtinFn{
	"print":   builtinPrint,
	"println": builtinPrintln,
	"string":  builtinString,
}

// builtinPrint concatenates every argument's stringification and writes
// it without a trailing newline.
func builtinPrint(it *Interpreter, args []runtime.Value, _ source.Span) (runtime.Value, error) {
	it.out.Write(concatInspect(args))
	return runtime.Nil, nil
}

// builtinPrintln is builtinPrint plus one trailing newline.
func builtinPrintln(it *Interpreter, args []runtime.Value, _ source.Span) (runtime.Value, error) {
	it.out.WriteLine(concatInspect(args))
	return runtime.Nil, nil
}

// builtinString returns the stringification of its single argument.
func builtinString(it *Interpreter, args []runtime.Value, span source.Span) (runtime.Value, error) {
	if len(args) != 1 {
		return nil, &runtime.Error{Message: "string() takes exactly one argument", Span: span}
	}
	return &runtime.Str{Value: args[0].Inspect()}, nil
}
