package heap

// ObjType tags the eight concrete object kinds.
type ObjType int

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeNative
	ObjTypeUpvalue
	ObjTypeClosure
	ObjTypeClass
	ObjTypeInstance
	ObjTypeBoundMethod
)

// Object is the polymorphic heap object header. Every concrete kind
// embeds Header and so gets IsMarked/SetMarked/next/setNext for free;
// dispatch on Type() stands in for the reference implementation's
// tagged-union switch in blacken/freeObject/print.
type Object interface {
	Type() ObjType
	IsMarked() bool
	SetMarked(bool)
	next() Object
	setNext(Object)
}

// Header is the shared object prologue: a GC mark bit and the intrusive
// next-pointer threading every live object into the heap's all-objects
// list.
type Header struct {
	marked   bool
	nextLink Object
}

func (h *Header) IsMarked() bool     { return h.marked }
func (h *Header) SetMarked(m bool)   { h.marked = m }
func (h *Header) next() Object       { return h.nextLink }
func (h *Header) setNext(o Object)   { h.nextLink = o }

// StringObj is an immutable byte sequence with a precomputed hash,
// canonicalized through the intern pool so that byte-equal strings are
// always reference-identical.
type StringObj struct {
	Header
	Chars string
	Hash  uint32
}

func (*StringObj) Type() ObjType { return ObjTypeString }

// FunctionObj is a compiled function template: arity, declared upvalue
// count, its bytecode chunk, and an optional name (nil for the implicit
// top-level script function).
type FunctionObj struct {
	Header
	Name         *StringObj
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
}

func (*FunctionObj) Type() ObjType { return ObjTypeFunction }

// NativeFn is a host-supplied callable of signature (args) -> (Value, error).
type NativeFn func(args []Value) (Value, error)

// NativeObj wraps an externally supplied native function.
type NativeObj struct {
	Header
	Name string
	Fn   NativeFn
}

func (*NativeObj) Type() ObjType { return ObjTypeNative }

// UpvalueObj bridges a closure to a variable that originally lived in
// another function's stack frame. While Location points at a live stack
// slot the upvalue is "open"; closing it copies *Location into Closed and
// retargets Location at that field.
type UpvalueObj struct {
	Header
	Location *Value
	Closed   Value
}

func (*UpvalueObj) Type() ObjType { return ObjTypeUpvalue }

func (u *UpvalueObj) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// ClosureObj pairs a function template with its captured upvalues, one
// slot per upvalue the function template declared.
type ClosureObj struct {
	Header
	Function *FunctionObj
	Upvalues []*UpvalueObj
}

func (*ClosureObj) Type() ObjType { return ObjTypeClosure }

// ClassObj is a named method table: name plus a Table from method-name
// string to Closure value.
type ClassObj struct {
	Header
	Name    *StringObj
	Methods *Table
}

func (*ClassObj) Type() ObjType { return ObjTypeClass }

// InstanceObj is a class reference plus a per-instance field table.
type InstanceObj struct {
	Header
	Class  *ClassObj
	Fields *Table
}

func (*InstanceObj) Type() ObjType { return ObjTypeInstance }

// BoundMethodObj pairs a receiver value with the method closure that was
// looked up on it, so that passing a method around as a value still
// dispatches with the correct `this`.
type BoundMethodObj struct {
	Header
	Receiver Value
	Method   *ClosureObj
}

func (*BoundMethodObj) Type() ObjType { return ObjTypeBoundMethod }
