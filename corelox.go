// Package corelox is the public embedding surface over the bytecode
// compiler and virtual machine in internal/compiler and internal/vm. It
// mirrors the teacher's api.go shape — a VM wrapper type, a TraceHook, and
// two error types distinguishing compile-time from run-time failures —
// adapted to a class-based, tree-less language with no host-value
// marshaling surface of its own.
package corelox

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/xirelogy/corelox/internal/compiler"
	"github.com/xirelogy/corelox/internal/heap"
	"github.com/xirelogy/corelox/internal/vm"
)

// CompileError aggregates every diagnostic a failed Compile call produced,
// each already formatted as "[line N] Error...: message" per the external
// interface contract.
type CompileError struct {
	Diagnostics []string
}

func (e *CompileError) Error() string {
	return strings.Join(e.Diagnostics, "\n")
}

// FrameTrace is one entry of a RuntimeError's call stack, innermost first.
type FrameTrace struct {
	Function string
	Line     int
}

// RuntimeError wraps a failure the VM detected while running compiled
// bytecode: an operand type mismatch, an undefined variable, a stack
// overflow, and so on. Unwrap exposes the pkg/errors-wrapped cause so
// callers using errors.Is/As can still see through it.
type RuntimeError struct {
	Message string
	Line    int
	Stack   []FrameTrace
	Cause   error
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[line %d] %s", e.Line, e.Message)
	}
	return e.Message
}

func (e *RuntimeError) Unwrap() error { return e.Cause }

func convertRuntimeError(err error) error {
	if err == nil {
		return nil
	}
	rte, ok := err.(*vm.RuntimeError)
	if !ok {
		return pkgerrors.WithMessage(err, "corelox: runtime error")
	}
	stack := make([]FrameTrace, len(rte.Trace))
	for i, f := range rte.Trace {
		stack[i] = FrameTrace{Function: f.Name, Line: f.Line}
	}
	return &RuntimeError{
		Message: rte.Message,
		Line:    rte.Line,
		Stack:   stack,
		Cause:   pkgerrors.WithStack(rte),
	}
}

// TraceInfo captures one dispatched instruction for a debug/profiling hook.
type TraceInfo struct {
	Line int
}

// TraceHook observes instruction dispatch, e.g. for an embedder's profiler
// or debugger; the CLI does not install one.
type TraceHook func(TraceInfo)

// VM is one embeddable interpreter session: its own heap, its own global
// table, and a stable identity for correlating logs across a long-running
// embedding (e.g. a host process interpreting several scripts).
type VM struct {
	SessionID uuid.UUID

	heap    *heap.Heap
	machine *vm.VM
	trace   TraceHook
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithStressGC forces a collection on every tracked allocation growth,
// exposed for embedders exercising GC-safety in their own test suites.
func WithStressGC() Option {
	return func(v *VM) { v.heap.StressGC = true }
}

// WithGCLog installs a callback invoked after every completed collection.
func WithGCLog(fn func(before, after, nextGC int64)) Option {
	return func(v *VM) { v.heap.LogGC = fn }
}

// NewVM constructs a fresh interpreter session writing print output to
// stdout. Use NewVMWithOutput to redirect it (tests, an embedding host
// capturing output for its own console).
func NewVM(opts ...Option) *VM {
	return NewVMWithOutput(os.Stdout, opts...)
}

// NewVMWithOutput constructs a session whose print statements write to w.
func NewVMWithOutput(w io.Writer, opts ...Option) *VM {
	h := heap.NewHeap()
	v := &VM{SessionID: uuid.New(), heap: h, machine: vm.New(h, w)}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Close releases the VM's registration as a GC root source. Callers that
// build many short-lived VMs (a REPL rebuilding one per top-level
// statement is not how this REPL works, but an embedder iterating over
// many small scripts might) should call it once a VM is no longer needed.
func (v *VM) Close() { v.machine.Close() }

// SetTraceHook installs an instruction-dispatch observer.
func (v *VM) SetTraceHook(h TraceHook) {
	v.trace = h
	if h == nil {
		v.machine.TraceHook = nil
		return
	}
	v.machine.TraceHook = func(_ *vm.VM, frame *vm.CallFrame) {
		h(TraceInfo{Line: frame.Line()})
	}
}

// Heap exposes the underlying heap for callers that need GC statistics
// (internal/telemetry) without depending on internal/heap directly.
func (v *VM) Heap() *heap.Heap { return v.heap }

// SetMaxFrames tightens the call-depth soft cap below the compiled-in
// FramesMax, letting an embedder fail recursive scripts sooner.
func (v *VM) SetMaxFrames(n int) { v.machine.SetMaxFrames(n) }

// SetMaxStack tightens the operand-stack soft cap below the compiled-in
// StackMax.
func (v *VM) SetMaxStack(n int) { v.machine.SetMaxStack(n) }

// DisableNative removes a built-in native function from this session's
// globals, so a script calling it sees an undefined-variable error
// instead of running it — used to sandbox an embedded script away from
// host-facing natives such as clock().
func (v *VM) DisableNative(name string) { v.machine.DisableNative(name) }

// Compile parses and compiles source without running it, returning the
// implicit top-level function on success or a *CompileError aggregating
// every diagnostic on failure.
func Compile(v *VM, source string) (*heap.FunctionObj, error) {
	fn, errs := compiler.Compile(v.heap, source)
	if errs != nil {
		return nil, &CompileError{Diagnostics: errs}
	}
	return fn, nil
}

// Interpret compiles and runs source in one call, the common case for a
// file-mode CLI invocation or a one-shot embedding call.
func (v *VM) Interpret(source string) error {
	fn, err := Compile(v, source)
	if err != nil {
		return err
	}
	if err := v.machine.Interpret(fn); err != nil {
		return convertRuntimeError(err)
	}
	return nil
}

// InterpretCapturing runs source with print output temporarily redirected
// to out instead of the VM's usual writer, restoring it afterward. Used by
// the full-screen REPL front end to route output into its own scrollback.
func (v *VM) InterpretCapturing(source string, out io.Writer) error {
	prev := v.machine.Stdout
	v.machine.Stdout = out
	defer func() { v.machine.Stdout = prev }()
	return v.Interpret(source)
}

// InterpretFunction runs an already-compiled top-level function, letting a
// caller share one VM across multiple Compile calls (e.g. a REPL compiling
// each line against the same running heap).
func (v *VM) InterpretFunction(fn *heap.FunctionObj) error {
	if err := v.machine.Interpret(fn); err != nil {
		return convertRuntimeError(err)
	}
	return nil
}

// Run is a package-level convenience that constructs a VM, interprets
// source, and returns any error, for one-shot execution. (cmd/corelox
// builds its own VM with NewVM so it can apply configuration first.)
func Run(source string, stdout io.Writer) error {
	v := NewVMWithOutput(stdout)
	defer v.Close()
	return v.Interpret(source)
}
