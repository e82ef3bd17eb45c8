package runtime

import "slug/internal/source"

// Error is a runtime failure carrying the span that caused it. It is
// caught at the top of the interpreter's driver and delivered to the
// diagnostics sink.
type Error struct {
	Message string
	Span    source.Span
}

func (e *Error) Error() string { return e.Message }
