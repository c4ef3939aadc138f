package corelox

import (
	"bytes"
	"strings"
	"testing"
)

func interpret(t *testing.T, src string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	v := NewVMWithOutput(&out)
	defer v.Close()
	err := v.Interpret(src)
	return out.String(), err
}

func TestScenarioFibonacci(t *testing.T) {
	out, err := interpret(t, `
fun fib(n) {
  if (n < 2) return n;
  return fib(n - 1) + fib(n - 2);
}
print fib(15);
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "610" {
		t.Fatalf("expected 610, got %q", out)
	}
}

func TestScenarioClosureCounter(t *testing.T) {
	out, err := interpret(t, `
fun makeCounter() {
  var i = 0;
  fun count() {
    i = i + 1;
    return i;
  }
  return count;
}
var c1 = makeCounter();
var c2 = makeCounter();
print c1();
print c1();
print c2();
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out); got != "1\n2\n1" {
		t.Fatalf("expected independent counters, got %q", got)
	}
}

func TestScenarioStringInterningAndConcat(t *testing.T) {
	out, err := interpret(t, `
var greeting = "hello" + ", " + "world";
print greeting;
print greeting == "hello, world";
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out); got != "hello, world\ntrue" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestScenarioInheritanceAndOverride(t *testing.T) {
	out, err := interpret(t, `
class Shape {
  area() {
    return 0;
  }
  report() {
    return "area=" + str(this.area());
  }
}
class Square < Shape {
  init(side) {
    this.side = side;
  }
  area() {
    return this.side * this.side;
  }
}
print Square(4).report();
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out); got != "area=16" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestScenarioBareSuperMethodReference(t *testing.T) {
	out, err := interpret(t, `
class Animal {
  greet() {
    return "...";
  }
}
class Dog < Animal {
  greet() {
    var g = super.greet;
    return "Woof, and " + g();
  }
}
print Dog().greet();
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out); got != "Woof, and ..." {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestScenarioInitializerAndFields(t *testing.T) {
	out, err := interpret(t, `
class Pair {
  init(a, b) {
    this.a = a;
    this.b = b;
  }
  swap() {
    var tmp = this.a;
    this.a = this.b;
    this.b = tmp;
  }
}
var p = Pair(1, 2);
p.swap();
print p.a;
print p.b;
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out); got != "2\n1" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestScenarioCompileErrorWithRecovery(t *testing.T) {
	var out bytes.Buffer
	v := NewVMWithOutput(&out)
	defer v.Close()

	err := v.Interpret("var a = ; var b = 2; print b + 1;")
	if err == nil {
		t.Fatalf("expected a compile error")
	}
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("expected *CompileError, got %T", err)
	}
	if len(ce.Diagnostics) == 0 {
		t.Fatalf("expected at least one recovered diagnostic")
	}
}

func TestRuntimeErrorUnwraps(t *testing.T) {
	_, err := interpret(t, `print 1 + nil;`)
	if err == nil {
		t.Fatalf("expected runtime error")
	}
	rte, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}
	if rte.Unwrap() == nil {
		t.Fatalf("expected Unwrap to expose a cause")
	}
}
