package heap

const (
	fnvOffsetBasis uint32 = 2166136261
	fnvPrime       uint32 = 16777619

	initialNextGC   = 1 << 20 // 1 MiB, per the reference implementation
	gcHeapGrowFactor = 2
)

// hashString implements the exact FNV-1a variant the reference
// implementation uses, byte for byte, so that hashes computed here would
// match a C build given the same bytes.
func hashString(s string) uint32 {
	hash := fnvOffsetBasis
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= fnvPrime
	}
	return hash
}

// RootSource is implemented by anything that owns GC roots — the VM
// (stack, frames, open upvalues, globals) and the compiler (the chain of
// function objects currently under construction). Both register with the
// shared Heap for the duration of their respective phases.
type RootSource interface {
	MarkRoots(h *Heap)
}

// Heap owns every live object, the string intern pool, the gray
// worklist, and the allocation-triggered mark-sweep collector. Compiler
// and VM share one Heap instance since they allocate from the same
// all-objects list and must trigger the same collection.
type Heap struct {
	allObjects Object

	strings    *Table
	initString *StringObj

	gray  []Object
	roots []RootSource

	bytesAllocated int64
	nextGC         int64

	// protectStack brackets transient values (a constant mid-append, a
	// freshly interned string) across an allocation that might itself
	// trigger a collection, standing in for the reference
	// implementation's habit of pushing such values onto the VM stack.
	protectStack []Value

	// StressGC forces a collection on every tracked allocation growth,
	// mirroring the reference implementation's DEBUG_STRESS_GC build flag.
	StressGC bool
	// GrowthFactor multiplies post-collection live bytes to compute the
	// next threshold; defaults to 2 and is overridable via internal/config.
	GrowthFactor float64
	// LogGC, if set, is called after every completed collection with the
	// allocated byte count before and after it and the new threshold.
	LogGC func(before, after, nextGC int64)
}

// NewHeap constructs an empty heap and interns the "init" string used to
// recognize class initializers.
func NewHeap() *Heap {
	h := &Heap{
		strings:      NewTable(),
		nextGC:       initialNextGC,
		GrowthFactor: gcHeapGrowFactor,
	}
	h.initString = h.CopyString("init")
	return h
}

func (h *Heap) InitString() *StringObj { return h.initString }

// AddRoot / RemoveRoot let the compiler and VM register their root sets
// only while they are actually live, since both phases can coexist
// (a native or the REPL may hold a compiler open while a previous
// program is mid-execution). RemoveRoot finds rs with ==, so a registered
// RootSource must have a comparable dynamic type, such as a pointer.
func (h *Heap) AddRoot(rs RootSource) {
	h.roots = append(h.roots, rs)
}

func (h *Heap) RemoveRoot(rs RootSource) {
	for i, r := range h.roots {
		if r == rs {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			return
		}
	}
}

func (h *Heap) protect(v Value) {
	h.protectStack = append(h.protectStack, v)
}

func (h *Heap) unprotect() {
	h.protectStack = h.protectStack[:len(h.protectStack)-1]
}

// track links obj into the all-objects list and accounts for its size
// against the collection threshold, running a collection first if the
// threshold is already exceeded.
func (h *Heap) track(obj Object, size int64) {
	h.bytesAllocated += size
	if h.bytesAllocated > h.nextGC || h.StressGC {
		h.collectGarbage()
	}
	obj.setNext(h.allObjects)
	h.allObjects = obj
}

const (
	sizeString      = 40
	sizeFunction    = 64
	sizeNative      = 32
	sizeUpvalue     = 32
	sizeClosure     = 48
	sizeClass       = 48
	sizeInstance    = 40
	sizeBoundMethod = 32
)

// NewFunctionObj allocates an empty function template.
func (h *Heap) NewFunctionObj() *FunctionObj {
	fn := &FunctionObj{Chunk: NewChunk()}
	h.track(fn, sizeFunction)
	return fn
}

// NewNative wraps a host function as a heap object.
func (h *Heap) NewNative(name string, fn NativeFn) *NativeObj {
	n := &NativeObj{Name: name, Fn: fn}
	h.track(n, sizeNative)
	return n
}

// NewUpvalue allocates an open upvalue over the given stack slot.
func (h *Heap) NewUpvalue(slot *Value) *UpvalueObj {
	u := &UpvalueObj{Location: slot}
	h.track(u, sizeUpvalue)
	return u
}

// NewClosure allocates a closure over fn with upvalueCount empty slots.
func (h *Heap) NewClosure(fn *FunctionObj) *ClosureObj {
	c := &ClosureObj{Function: fn, Upvalues: make([]*UpvalueObj, fn.UpvalueCount)}
	h.track(c, sizeClosure)
	return c
}

// NewClass allocates a class with an empty method table.
func (h *Heap) NewClass(name *StringObj) *ClassObj {
	c := &ClassObj{Name: name, Methods: NewTable()}
	h.track(c, sizeClass)
	return c
}

// NewInstance allocates an instance of class with an empty field table.
func (h *Heap) NewInstance(class *ClassObj) *InstanceObj {
	i := &InstanceObj{Class: class, Fields: NewTable()}
	h.track(i, sizeInstance)
	return i
}

// NewBoundMethod allocates a bound method pairing a receiver with a
// method closure.
func (h *Heap) NewBoundMethod(receiver Value, method *ClosureObj) *BoundMethodObj {
	b := &BoundMethodObj{Receiver: receiver, Method: method}
	h.track(b, sizeBoundMethod)
	return b
}

// CopyString canonicalizes a byte sequence: an existing interned match is
// returned as-is; otherwise a fresh String object is allocated, inserted
// into the intern pool, and returned. The new string is protected across
// the pool insert, mirroring the reference implementation's push/pop
// bracket; the insert (table resize included) does not allocate through
// the heap, so no collection runs inside the bracket.
func (h *Heap) CopyString(s string) *StringObj {
	hash := hashString(s)
	if existing := h.strings.FindString(s, hash); existing != nil {
		return existing
	}
	str := &StringObj{Chars: s, Hash: hash}
	h.track(str, int64(sizeString+len(s)))
	h.protect(Obj(str))
	h.strings.Set(str, Nil)
	h.unprotect()
	return str
}

// TakeString has the same canonicalization contract as CopyString. In
// the reference implementation it additionally frees the caller's buffer
// on an intern hit; Go strings are immutable value types with no such
// ownership to transfer, so the two calls are semantically identical
// here and TakeString exists only to keep call sites self-documenting
// about which buffer is now "owned" by the pool.
func (h *Heap) TakeString(s string) *StringObj {
	return h.CopyString(s)
}

// MarkObject marks obj gray: skip if nil or already marked, else set the
// mark and push it onto the gray worklist for later blackening.
func (h *Heap) MarkObject(o Object) {
	if o == nil || o.IsMarked() {
		return
	}
	o.SetMarked(true)
	h.gray = append(h.gray, o)
}

// MarkValue marks v's underlying object, if it has one.
func (h *Heap) MarkValue(v Value) {
	if v.Kind == KindObject {
		h.MarkObject(v.Obj)
	}
}

func (h *Heap) markArray(values []Value) {
	for _, v := range values {
		h.MarkValue(v)
	}
}

// collectGarbage runs one full mark-sweep cycle: mark every root, trace
// to a fixpoint, reconcile the intern pool's weak references, sweep, and
// set the next threshold to the post-collection live size times
// GrowthFactor, never below 1 MiB.
func (h *Heap) collectGarbage() {
	before := h.bytesAllocated

	for _, root := range h.roots {
		root.MarkRoots(h)
	}
	h.MarkObject(h.initString)
	for _, v := range h.protectStack {
		h.MarkValue(v)
	}

	h.traceReferences()
	h.strings.RemoveWhite()
	h.sweep()

	h.nextGC = int64(float64(h.bytesAllocated) * h.GrowthFactor)
	if h.nextGC < initialNextGC {
		h.nextGC = initialNextGC
	}

	if h.LogGC != nil {
		h.LogGC(before, h.bytesAllocated, h.nextGC)
	}
}

func (h *Heap) traceReferences() {
	for len(h.gray) > 0 {
		n := len(h.gray) - 1
		obj := h.gray[n]
		h.gray = h.gray[:n]
		h.blacken(obj)
	}
}

// blacken marks every reference obj holds, per kind, matching the
// reference implementation's blackenObject switch.
func (h *Heap) blacken(obj Object) {
	switch o := obj.(type) {
	case *StringObj, *NativeObj:
		// no outgoing references; the hash/closure pointer is intrinsic.
	case *UpvalueObj:
		h.MarkValue(o.Closed)
	case *FunctionObj:
		h.MarkObject(o.Name)
		h.markArray(o.Chunk.Constants)
	case *ClosureObj:
		h.MarkObject(o.Function)
		for _, uv := range o.Upvalues {
			h.MarkObject(uv)
		}
	case *ClassObj:
		h.MarkObject(o.Name)
		o.Methods.MarkTable(h)
	case *InstanceObj:
		h.MarkObject(o.Class)
		o.Fields.MarkTable(h)
	case *BoundMethodObj:
		h.MarkValue(o.Receiver)
		h.MarkObject(o.Method)
	}
}

// sweep walks the all-objects list once: marked objects are unmarked and
// kept; unmarked objects are unlinked. Go's own garbage collector then
// reclaims the underlying memory once nothing else references it — this
// pass exists to enforce the language's own liveness contract (an
// unreachable object must leave the tracked heap, not to manage bytes).
func (h *Heap) sweep() {
	var prev Object
	obj := h.allObjects
	for obj != nil {
		if obj.IsMarked() {
			obj.SetMarked(false)
			prev = obj
			obj = obj.next()
			continue
		}
		unreached := obj
		obj = obj.next()
		if prev != nil {
			prev.setNext(obj)
		} else {
			h.allObjects = obj
		}
		h.bytesAllocated -= objectSize(unreached)
	}
}

func objectSize(o Object) int64 {
	switch v := o.(type) {
	case *StringObj:
		return int64(sizeString + len(v.Chars))
	case *FunctionObj:
		return sizeFunction
	case *NativeObj:
		return sizeNative
	case *UpvalueObj:
		return sizeUpvalue
	case *ClosureObj:
		return sizeClosure
	case *ClassObj:
		return sizeClass
	case *InstanceObj:
		return sizeInstance
	case *BoundMethodObj:
		return sizeBoundMethod
	default:
		return 0
	}
}

// Live reports whether obj currently appears in the all-objects list —
// exposed for tests exercising the GC-safety property.
func (h *Heap) Live(obj Object) bool {
	for cur := h.allObjects; cur != nil; cur = cur.next() {
		if cur == obj {
			return true
		}
	}
	return false
}

// BytesAllocated and NextGC expose the collector's bookkeeping counters
// for the telemetry package and for tests.
func (h *Heap) BytesAllocated() int64 { return h.bytesAllocated }
func (h *Heap) NextGC() int64         { return h.nextGC }

// SetNextGC overrides the next collection threshold, letting an embedder
// (internal/config) replace the compiled-in 1 MiB default.
func (h *Heap) SetNextGC(n int64) { h.nextGC = n }

// CollectNow forces an immediate collection, used by a host embedder
// (or telemetry) that wants a deterministic point to measure from.
func (h *Heap) CollectNow() { h.collectGarbage() }
