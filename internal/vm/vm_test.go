package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xirelogy/corelox/internal/compiler"
	"github.com/xirelogy/corelox/internal/heap"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	h := heap.NewHeap()
	fn, errs := compiler.Compile(h, src)
	if errs != nil {
		t.Fatalf("compile errors: %v", errs)
	}
	var out bytes.Buffer
	machine := New(h, &out)
	defer machine.Close()
	err := machine.Interpret(fn)
	return out.String(), err
}

func TestFibonacciRecursion(t *testing.T) {
	out, err := run(t, `
fun fib(n) {
  if (n < 2) return n;
  return fib(n - 2) + fib(n - 1);
}
print fib(10);
`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "55" {
		t.Fatalf("expected 55, got %q", out)
	}
}

func TestClosureCounterKeepsPrivateState(t *testing.T) {
	out, err := run(t, `
fun makeCounter() {
  var count = 0;
  fun increment() {
    count = count + 1;
    return count;
  }
  return increment;
}
var counter = makeCounter();
print counter();
print counter();
print counter();
`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if got := strings.TrimSpace(out); got != "1\n2\n3" {
		t.Fatalf("expected 1,2,3 across lines, got %q", got)
	}
}

func TestStringInterningAndConcatenation(t *testing.T) {
	out, err := run(t, `
var a = "foo" + "bar";
var b = "foobar";
print a == b;
print a;
`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if got := strings.TrimSpace(out); got != "true\nfoobar" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestInheritanceAndSuperDispatch(t *testing.T) {
	out, err := run(t, `
class Animal {
  speak() {
    return "...";
  }
  describe() {
    return "An animal says " + this.speak();
  }
}
class Dog < Animal {
  speak() {
    return "Woof, and " + super.speak();
  }
}
print Dog().describe();
`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if got := strings.TrimSpace(out); got != "An animal says Woof, and ..." {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestBareSuperMethodReferenceLeavesTheStackBalanced(t *testing.T) {
	out, err := run(t, `
class Animal {
  speak() {
    return "...";
  }
}
class Dog < Animal {
  speak() {
    var g = super.speak;
    return "Woof, and " + g();
  }
}
print Dog().speak();
`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if got := strings.TrimSpace(out); got != "Woof, and ..." {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestInitializerAndFieldAccess(t *testing.T) {
	out, err := run(t, `
class Point {
  init(x, y) {
    this.x = x;
    this.y = y;
  }
  sum() {
    return this.x + this.y;
  }
}
var p = Point(3, 4);
print p.sum();
`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if got := strings.TrimSpace(out); got != "7" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRuntimeErrorReportsLineAndStackTrace(t *testing.T) {
	_, err := run(t, `
fun boom() {
  return 1 + "a";
}
boom();
`)
	if err == nil {
		t.Fatalf("expected a runtime error")
	}
	rte, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}
	if !strings.Contains(rte.Message, "Operands must be two numbers or two strings") {
		t.Fatalf("unexpected message: %s", rte.Message)
	}
	if len(rte.Trace) == 0 {
		t.Fatalf("expected a non-empty stack trace")
	}
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, err := run(t, `print doesNotExist;`)
	if err == nil {
		t.Fatalf("expected runtime error for undefined global")
	}
}

func TestSetMaxFramesCapsRecursionBelowFramesMax(t *testing.T) {
	h := heap.NewHeap()
	fn, errs := compiler.Compile(h, `
fun recurse(n) {
  return recurse(n + 1);
}
recurse(0);
`)
	if errs != nil {
		t.Fatalf("compile errors: %v", errs)
	}
	var out bytes.Buffer
	machine := New(h, &out)
	defer machine.Close()
	machine.SetMaxFrames(8)

	err := machine.Interpret(fn)
	if err == nil {
		t.Fatalf("expected a stack overflow error")
	}
	rte, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}
	if !strings.Contains(rte.Message, "Stack overflow") {
		t.Fatalf("unexpected message: %s", rte.Message)
	}
	if len(rte.Trace) > 8 {
		t.Fatalf("expected the trace to respect the tightened cap, got %d frames", len(rte.Trace))
	}
}

func TestDisableNativeHidesItFromGlobals(t *testing.T) {
	h := heap.NewHeap()
	fn, errs := compiler.Compile(h, `print clock();`)
	if errs != nil {
		t.Fatalf("compile errors: %v", errs)
	}
	var out bytes.Buffer
	machine := New(h, &out)
	defer machine.Close()
	machine.DisableNative("clock")

	err := machine.Interpret(fn)
	if err == nil {
		t.Fatalf("expected an undefined-variable error once clock is disabled")
	}
}

func TestNativesClockStrType(t *testing.T) {
	out, err := run(t, `
print type(1);
print type("s");
print type(nil);
print str(42);
print type(clock());
`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	want := "number\nstring\nnil\n42\nnumber"
	if got := strings.TrimSpace(out); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
