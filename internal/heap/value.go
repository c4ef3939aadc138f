// Package heap holds every runtime type that is mutually recursive with
// every other: values reference objects, objects hold chunks whose
// constant pools hold values, classes and instances hold tables whose
// entries hold values again. Splitting these across packages the way
// internal/compiler and internal/vm are split would require an import
// cycle, so — mirroring how object.c, value.c, table.c and memory.c in
// the reference implementation form one linked translation unit — they
// live together here: the value representation, the eight object kinds,
// the bytecode chunk, the hash table, the string intern pool, and the
// tri-color mark-sweep collector that traces all of them.
package heap

// Kind discriminates the tag of a Value.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObject
)

// Value is the uniform runtime representation: nil, boolean,
// double-precision number, or a reference to a heap Object.
type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	Obj    Object
}

// Nil is the singleton nil value.
var Nil = Value{Kind: KindNil}

func Bool(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func Number(n float64) Value { return Value{Kind: KindNumber, Number: n} }
func Obj(o Object) Value     { return Value{Kind: KindObject, Obj: o} }

func (v Value) IsNil() bool    { return v.Kind == KindNil }
func (v Value) IsBool() bool   { return v.Kind == KindBool }
func (v Value) IsNumber() bool { return v.Kind == KindNumber }
func (v Value) IsObject() bool { return v.Kind == KindObject }

func (v Value) IsString() bool   { return isObjType(v, ObjTypeString) }
func (v Value) IsFunction() bool { return isObjType(v, ObjTypeFunction) }
func (v Value) IsClass() bool    { return isObjType(v, ObjTypeClass) }
func (v Value) IsInstance() bool { return isObjType(v, ObjTypeInstance) }
func (v Value) IsClosure() bool  { return isObjType(v, ObjTypeClosure) }

func isObjType(v Value, t ObjType) bool {
	return v.Kind == KindObject && v.Obj != nil && v.Obj.Type() == t
}

func (v Value) AsString() *StringObj { return v.Obj.(*StringObj) }
func (v Value) AsFunction() *FunctionObj { return v.Obj.(*FunctionObj) }
func (v Value) AsClosure() *ClosureObj   { return v.Obj.(*ClosureObj) }
func (v Value) AsClass() *ClassObj       { return v.Obj.(*ClassObj) }
func (v Value) AsInstance() *InstanceObj { return v.Obj.(*InstanceObj) }
func (v Value) AsBoundMethod() *BoundMethodObj { return v.Obj.(*BoundMethodObj) }
func (v Value) AsNative() *NativeObj     { return v.Obj.(*NativeObj) }

// Truthy implements the language's truthiness rule: nil and false are
// falsey, everything else — including 0 and the empty string — is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.Bool
	default:
		return true
	}
}

// Equal implements value equality: numbers by IEEE-754 == (so NaN != NaN),
// booleans by truth, nil equal to nil, objects by reference identity
// (sufficient because strings are canonicalized by interning).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindNumber:
		return a.Number == b.Number
	case KindObject:
		return a.Obj == b.Obj
	default:
		return false
	}
}

// TypeName returns the language-level type name of v, used by the
// supplemental type() native.
func TypeName(v Value) string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindObject:
		switch v.Obj.Type() {
		case ObjTypeString:
			return "string"
		case ObjTypeFunction, ObjTypeClosure, ObjTypeNative:
			return "function"
		case ObjTypeClass:
			return "class"
		case ObjTypeInstance:
			return "instance"
		case ObjTypeBoundMethod:
			return "function"
		}
	}
	return "unknown"
}
