package runtime

import (
	"bufio"
	"fmt"
	"io"
)

// Sink is the byte-oriented output contract: write and write_line, the
// latter appending a single newline. print/println call it directly;
// nothing else in the interpreter touches w.
//
// Grounded on the earlier sout service (slug/internal/svc/sout), which
// wrapped fmt.Printf behind a message-passing handler; this Sink keeps
// the plain-writer idea and drops the actor/message ceremony, since
// program output here is a single-threaded concern.
type Sink struct {
	w *bufio.Writer
}

// NewSink wraps w for buffered writes. Callers must Flush when done.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: bufio.NewWriter(w)}
}

func (s *Sink) Write(str string) {
	fmt.Fprint(s.w, str)
}

func (s *Sink) WriteLine(str string) {
	fmt.Fprintln(s.w, str)
}

// Flush flushes any buffered output.
func (s *Sink) Flush() error {
	return s.w.Flush()
}
