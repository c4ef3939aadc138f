package vm

import (
	"fmt"
	"strings"
)

// FrameTrace describes one call-frame entry in a runtime stack trace, in
// innermost-first order.
type FrameTrace struct {
	Name string
	Line int
}

// RuntimeError is returned by Interpret when the running program hits an
// error the VM itself detects (type errors, undefined variables, arity
// mismatches, stack overflow, ...). It carries the offending frame's line
// plus the full call stack at the point of failure, matching the
// "[line N] in <name>" trace format used for diagnostics.
type RuntimeError struct {
	Message string
	Line    int
	Trace   []FrameTrace
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", e.Message)
	for _, f := range e.Trace {
		fmt.Fprintf(&b, "[line %d] in %s\n", f.Line, f.Name)
	}
	return strings.TrimRight(b.String(), "\n")
}
