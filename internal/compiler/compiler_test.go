package compiler

import (
	"strings"
	"testing"

	"github.com/xirelogy/corelox/internal/heap"
	"github.com/xirelogy/corelox/internal/opcode"
)

func compileOK(t *testing.T, h *heap.Heap, src string) *heap.FunctionObj {
	t.Helper()
	fn, errs := Compile(h, src)
	if errs != nil {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	return fn
}

func TestCompileSimpleArithmetic(t *testing.T) {
	h := heap.NewHeap()
	fn := compileOK(t, h, "print 1 + 2 * 3;")

	code := fn.Chunk.Code
	// constants: 1, 2, 3 then MUL, ADD, PRINT, then implicit NIL/RETURN.
	if len(code) == 0 {
		t.Fatalf("expected non-empty bytecode")
	}
	if opcode.Code(code[len(code)-1]) != opcode.RETURN {
		t.Fatalf("expected implicit RETURN at end, got %v", opcode.Code(code[len(code)-1]))
	}
}

func TestCompileErrorOnMissingSemicolon(t *testing.T) {
	h := heap.NewHeap()
	_, errs := Compile(h, "var a = 1")
	if len(errs) == 0 {
		t.Fatalf("expected a compile error")
	}
	if !strings.Contains(errs[0], "Expect ';'") {
		t.Fatalf("unexpected message: %q", errs[0])
	}
}

func TestCompileErrorRecoveryReportsMultiple(t *testing.T) {
	h := heap.NewHeap()
	_, errs := Compile(h, "var a = ; var b = ; print b;")
	if len(errs) < 2 {
		t.Fatalf("expected one compile error per broken declaration after recovery, got %v", errs)
	}
}

func TestSelfReferentialInitializerIsCompileError(t *testing.T) {
	h := heap.NewHeap()
	_, errs := Compile(h, "{ var a = a; }")
	if len(errs) == 0 {
		t.Fatalf("expected compile error for self-referential initializer")
	}
	found := false
	for _, e := range errs {
		if strings.Contains(e, "own initializer") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'own initializer' diagnostic, got %v", errs)
	}
}

func TestClosureCapturesEmitsUpvalueOps(t *testing.T) {
	h := heap.NewHeap()
	fn := compileOK(t, h, `
fun mk() {
  var i = 0;
  fun next() { i = i + 1; return i; }
  return next;
}
`)
	// The outer function's constant pool should contain the inner closure.
	found := false
	for _, outer := range fn.Chunk.Constants {
		if !outer.IsFunction() {
			continue
		}
		for _, c := range outer.AsFunction().Chunk.Constants {
			if c.IsFunction() && c.AsFunction().UpvalueCount == 1 {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected inner function constant with one upvalue")
	}
}

func TestTopLevelReturnIsCompileError(t *testing.T) {
	h := heap.NewHeap()
	_, errs := Compile(h, "return 1;")
	if len(errs) == 0 {
		t.Fatalf("expected compile error for top-level return")
	}
}

func TestClassWithSuperclassEmitsInherit(t *testing.T) {
	h := heap.NewHeap()
	fn := compileOK(t, h, `
class A { m() { return "A"; } }
class B < A { m() { return super.m(); } }
`)
	hasInherit := false
	for _, b := range fn.Chunk.Code {
		if opcode.Code(b) == opcode.INHERIT {
			hasInherit = true
		}
	}
	if !hasInherit {
		t.Fatalf("expected OP_INHERIT in bytecode")
	}
}
