// Package vm implements the stack-based bytecode interpreter: a fixed-size
// call-frame stack, a fixed-size operand stack, and a dispatch loop over the
// opcode set emitted by internal/compiler. It owns no allocation policy of
// its own; every heap object is created through the shared internal/heap.Heap
// and the VM registers itself as a GC root source so live stack slots,
// frames, and open upvalues survive collection.
package vm

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xirelogy/corelox/internal/heap"
	"github.com/xirelogy/corelox/internal/opcode"
)

const (
	FramesMax = 64
	StackMax  = FramesMax * 256
)

// CallFrame is one activation record: the closure being executed, the
// instruction pointer into its chunk, and the base index into the VM's
// operand stack where its locals (and, at slot 0, the receiver or the
// closure itself) begin.
type CallFrame struct {
	closure *heap.ClosureObj
	ip      int
	slots   int
}

// openUpvalue tracks a not-yet-closed upvalue by the stack slot it currently
// points at. The VM keeps these sorted by descending slot so closing a range
// of locals (on scope exit or return) is a prefix walk.
type openUpvalue struct {
	slot int
	obj  *heap.UpvalueObj
}

// VM is one interpreter instance: one operand stack, one call stack, one
// global table, all sharing a single heap.Heap for allocation and
// collection.
type VM struct {
	h *heap.Heap

	stack    [StackMax]heap.Value
	stackTop int

	frames     [FramesMax]CallFrame
	frameCount int

	globals      *heap.Table
	openUpvalues []*openUpvalue

	// maxFrames and maxStack are soft caps honored by call and push,
	// defaulting to FramesMax and StackMax and only ever tightened by
	// internal/config — the backing arrays are always sized to the
	// compiled-in maximums, so a cap can never exceed them.
	maxFrames int
	maxStack  int

	// Stdout receives output from the print statement; New sets it to the
	// writer it is given.
	Stdout io.Writer

	// TraceHook, when non-nil, is invoked before every instruction dispatch.
	// It is installed through corelox.VM.SetTraceHook; left nil in the hot
	// path it costs nothing beyond the pointer check.
	TraceHook func(vm *VM, frame *CallFrame)
}

// New creates a VM bound to h, registers it as a GC root source, and defines
// the built-in native functions.
func New(h *heap.Heap, stdout io.Writer) *VM {
	vm := &VM{h: h, globals: heap.NewTable(), Stdout: stdout, maxFrames: FramesMax, maxStack: StackMax}
	h.AddRoot(vm)
	vm.defineNative("clock", nativeClock)
	vm.defineNative("str", nativeStr(vm))
	vm.defineNative("type", nativeType(vm))
	return vm
}

// SetMaxFrames tightens the call-depth soft cap enforced by call. An n
// outside [1, FramesMax] sets the cap back to FramesMax; the backing frame
// array never grows.
func (vm *VM) SetMaxFrames(n int) {
	if n <= 0 || n > FramesMax {
		n = FramesMax
	}
	vm.maxFrames = n
}

// SetMaxStack tightens the operand-stack soft cap enforced by push. An n
// outside [1, StackMax] sets the cap back to StackMax; the backing stack
// array never grows.
func (vm *VM) SetMaxStack(n int) {
	if n <= 0 || n > StackMax {
		n = StackMax
	}
	vm.maxStack = n
}

// DisableNative withholds a built-in native function from the global
// table it would otherwise be callable through, letting an embedder
// sandbox a script away from clock() or similar host-facing calls.
func (vm *VM) DisableNative(name string) {
	vm.globals.Delete(vm.h.CopyString(name))
}

// Close deregisters the VM from its heap. Call it when discarding a VM;
// a discarded VM that stays registered keeps its globals and stack alive
// as roots of the shared heap.
func (vm *VM) Close() {
	vm.h.RemoveRoot(vm)
}

// Heap returns the heap this VM allocates against.
func (vm *VM) Heap() *heap.Heap { return vm.h }

// Line reports the source line the frame is currently executing, for
// trace hooks and disassembly.
func (f *CallFrame) Line() int {
	if f.ip-1 < 0 || f.ip-1 >= len(f.closure.Function.Chunk.Lines) {
		return 0
	}
	return f.closure.Function.Chunk.Lines[f.ip-1]
}

// MarkRoots implements heap.RootSource: every live stack slot, every active
// frame's closure, every open upvalue, and the globals table are roots.
func (vm *VM) MarkRoots(h *heap.Heap) {
	for i := 0; i < vm.stackTop; i++ {
		h.MarkValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		h.MarkObject(vm.frames[i].closure)
	}
	for _, uv := range vm.openUpvalues {
		h.MarkObject(uv.obj)
	}
	vm.globals.MarkTable(h)
}

func (vm *VM) defineNative(name string, fn heap.NativeFn) {
	obj := vm.h.NewNative(name, fn)
	vm.globals.Set(vm.h.CopyString(name), heap.Obj(obj))
}

func (vm *VM) push(v heap.Value) error {
	if vm.stackTop >= vm.maxStack {
		return vm.runtimeError("Stack overflow.")
	}
	vm.stack[vm.stackTop] = v
	vm.stackTop++
	return nil
}

func (vm *VM) pop() heap.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) heap.Value {
	return vm.stack[vm.stackTop-1-distance]
}

// Interpret runs an already-compiled top-level function: it wraps fn in a
// closure, calls it with zero arguments, and runs the dispatch loop to
// completion.
func (vm *VM) Interpret(fn *heap.FunctionObj) error {
	closure := vm.h.NewClosure(fn)
	if err := vm.push(heap.Obj(closure)); err != nil {
		return err
	}
	if err := vm.call(closure, 0); err != nil {
		return err
	}
	return vm.run()
}

func (vm *VM) run() error {
	frame := &vm.frames[vm.frameCount-1]

	for {
		if vm.TraceHook != nil {
			vm.TraceHook(vm, frame)
		}

		instruction := opcode.Code(vm.readByte(frame))

		switch instruction {
		case opcode.CONSTANT:
			if err := vm.push(vm.readConstant(frame)); err != nil {
				return err
			}

		case opcode.NIL:
			if err := vm.push(heap.Nil); err != nil {
				return err
			}
		case opcode.TRUE:
			if err := vm.push(heap.Bool(true)); err != nil {
				return err
			}
		case opcode.FALSE:
			if err := vm.push(heap.Bool(false)); err != nil {
				return err
			}
		case opcode.POP:
			vm.pop()

		case opcode.GET_LOCAL:
			slot := vm.readByte(frame)
			if err := vm.push(vm.stack[frame.slots+int(slot)]); err != nil {
				return err
			}
		case opcode.SET_LOCAL:
			slot := vm.readByte(frame)
			vm.stack[frame.slots+int(slot)] = vm.peek(0)

		case opcode.GET_UPVALUE:
			idx := vm.readByte(frame)
			if err := vm.push(*frame.closure.Upvalues[idx].Location); err != nil {
				return err
			}
		case opcode.SET_UPVALUE:
			idx := vm.readByte(frame)
			*frame.closure.Upvalues[idx].Location = vm.peek(0)

		case opcode.GET_GLOBAL:
			name := vm.readConstant(frame).AsString()
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			if err := vm.push(v); err != nil {
				return err
			}
		case opcode.DEFINE_GLOBAL:
			name := vm.readConstant(frame).AsString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case opcode.SET_GLOBAL:
			name := vm.readConstant(frame).AsString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case opcode.GET_PROPERTY:
			recv := vm.peek(0)
			if !recv.IsInstance() {
				return vm.runtimeError("Only instances have properties.")
			}
			instance := recv.AsInstance()
			name := vm.readConstant(frame).AsString()
			if v, ok := instance.Fields.Get(name); ok {
				vm.pop()
				if err := vm.push(v); err != nil {
					return err
				}
				break
			}
			bound, err := vm.bindMethod(instance.Class, name)
			if err != nil {
				return err
			}
			vm.pop()
			if err := vm.push(bound); err != nil {
				return err
			}

		case opcode.SET_PROPERTY:
			recv := vm.peek(1)
			if !recv.IsInstance() {
				return vm.runtimeError("Only instances have fields.")
			}
			instance := recv.AsInstance()
			name := vm.readConstant(frame).AsString()
			instance.Fields.Set(name, vm.peek(0))
			value := vm.pop()
			vm.pop()
			if err := vm.push(value); err != nil {
				return err
			}

		case opcode.GET_SUPER:
			name := vm.readConstant(frame).AsString()
			superclass := vm.pop().AsClass()
			bound, err := vm.bindMethod(superclass, name)
			if err != nil {
				return err
			}
			vm.pop() // the `this` receiver, matching GET_PROPERTY
			if err := vm.push(bound); err != nil {
				return err
			}

		case opcode.EQUAL:
			b := vm.pop()
			a := vm.pop()
			if err := vm.push(heap.Bool(heap.Equal(a, b))); err != nil {
				return err
			}
		case opcode.GREATER, opcode.LESS:
			if err := vm.binaryCompare(frame, instruction); err != nil {
				return err
			}
		case opcode.ADD:
			if err := vm.add(frame); err != nil {
				return err
			}
		case opcode.SUBTRACT, opcode.MULTIPLY, opcode.DIVIDE:
			if err := vm.binaryArith(frame, instruction); err != nil {
				return err
			}
		case opcode.NOT:
			if err := vm.push(heap.Bool(!vm.pop().Truthy())); err != nil {
				return err
			}
		case opcode.NEGATE:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			if err := vm.push(heap.Number(-vm.pop().Number)); err != nil {
				return err
			}

		case opcode.PRINT:
			fmt.Fprintln(vm.Stdout, vm.stringify(vm.pop()))

		case opcode.JUMP:
			offset := vm.readShort(frame)
			frame.ip += int(offset)
		case opcode.JUMP_IF_FALSE:
			offset := vm.readShort(frame)
			if !vm.peek(0).Truthy() {
				frame.ip += int(offset)
			}
		case opcode.LOOP:
			offset := vm.readShort(frame)
			frame.ip -= int(offset)

		case opcode.CALL:
			argCount := int(vm.readByte(frame))
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case opcode.INVOKE:
			name := vm.readConstant(frame).AsString()
			argCount := int(vm.readByte(frame))
			if err := vm.invoke(frame, name, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case opcode.SUPER_INVOKE:
			name := vm.readConstant(frame).AsString()
			argCount := int(vm.readByte(frame))
			superclass := vm.pop().AsClass()
			if err := vm.invokeFromClass(frame, superclass, name, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case opcode.CLOSURE:
			fn := vm.readConstant(frame).AsFunction()
			closure := vm.h.NewClosure(fn)
			if err := vm.push(heap.Obj(closure)); err != nil {
				return err
			}
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := vm.readByte(frame)
				index := vm.readByte(frame)
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slots + int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case opcode.CLOSE_UPVALUE:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case opcode.RETURN:
			result := vm.pop()
			vm.closeUpvalues(frame.slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.slots
			if err := vm.push(result); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case opcode.CLASS:
			name := vm.readConstant(frame).AsString()
			if err := vm.push(heap.Obj(vm.h.NewClass(name))); err != nil {
				return err
			}

		case opcode.INHERIT:
			superVal := vm.peek(1)
			if !superVal.IsClass() {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).AsClass()
			superVal.AsClass().Methods.AddAll(subclass.Methods)
			vm.pop() // the subclass value pushed for this instruction; "super" local remains.

		case opcode.METHOD:
			name := vm.readConstant(frame).AsString()
			method := vm.pop()
			class := vm.peek(0).AsClass()
			class.Methods.Set(name, method)

		default:
			return vm.runtimeError("Unknown opcode %d.", byte(instruction))
		}
	}
}

func (vm *VM) readByte(frame *CallFrame) byte {
	b := frame.closure.Function.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func (vm *VM) readShort(frame *CallFrame) uint16 {
	hi := vm.readByte(frame)
	lo := vm.readByte(frame)
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstant(frame *CallFrame) heap.Value {
	idx := vm.readByte(frame)
	return frame.closure.Function.Chunk.Constants[idx]
}

func (vm *VM) add(frame *CallFrame) error {
	b := vm.peek(0)
	a := vm.peek(1)
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		if err := vm.push(heap.Number(a.Number + b.Number)); err != nil {
			return err
		}
	case a.IsString() && b.IsString():
		vm.pop()
		vm.pop()
		result := vm.h.TakeString(a.AsString().Chars + b.AsString().Chars)
		if err := vm.push(heap.Obj(result)); err != nil {
			return err
		}
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	return nil
}

func (vm *VM) binaryArith(frame *CallFrame, op opcode.Code) error {
	b := vm.pop()
	a := vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	switch op {
	case opcode.SUBTRACT:
		if err := vm.push(heap.Number(a.Number - b.Number)); err != nil {
			return err
		}
	case opcode.MULTIPLY:
		if err := vm.push(heap.Number(a.Number * b.Number)); err != nil {
			return err
		}
	case opcode.DIVIDE:
		if err := vm.push(heap.Number(a.Number / b.Number)); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) binaryCompare(frame *CallFrame, op opcode.Code) error {
	b := vm.pop()
	a := vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	switch op {
	case opcode.GREATER:
		if err := vm.push(heap.Bool(a.Number > b.Number)); err != nil {
			return err
		}
	case opcode.LESS:
		if err := vm.push(heap.Bool(a.Number < b.Number)); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) callValue(callee heap.Value, argCount int) error {
	if callee.IsObject() {
		switch callee.Obj.Type() {
		case heap.ObjTypeClosure:
			return vm.call(callee.AsClosure(), argCount)
		case heap.ObjTypeClass:
			class := callee.AsClass()
			instance := vm.h.NewInstance(class)
			vm.stack[vm.stackTop-argCount-1] = heap.Obj(instance)
			if initializer, ok := class.Methods.Get(vm.h.InitString()); ok {
				return vm.call(initializer.AsClosure(), argCount)
			}
			if argCount != 0 {
				return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
			}
			return nil
		case heap.ObjTypeBoundMethod:
			bound := callee.AsBoundMethod()
			vm.stack[vm.stackTop-argCount-1] = bound.Receiver
			return vm.call(bound.Method, argCount)
		case heap.ObjTypeNative:
			native := callee.AsNative()
			args := vm.stack[vm.stackTop-argCount : vm.stackTop]
			result, err := native.Fn(args)
			if err != nil {
				return vm.runtimeError("%s", err.Error())
			}
			vm.stackTop -= argCount + 1
			if err := vm.push(result); err != nil {
				return err
			}
			return nil
		}
	}
	return vm.runtimeError("Can only call functions and classes.")
}

func (vm *VM) call(closure *heap.ClosureObj, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if vm.frameCount == vm.maxFrames {
		return vm.runtimeError("Stack overflow.")
	}
	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slots = vm.stackTop - argCount - 1
	return nil
}

func (vm *VM) invoke(frame *CallFrame, name *heap.StringObj, argCount int) error {
	receiver := vm.peek(argCount)
	if !receiver.IsInstance() {
		return vm.runtimeError("Only instances have methods.")
	}
	instance := receiver.AsInstance()
	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(frame, instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(frame *CallFrame, class *heap.ClassObj, name *heap.StringObj, argCount int) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.call(method.AsClosure(), argCount)
}

func (vm *VM) bindMethod(class *heap.ClassObj, name *heap.StringObj) (heap.Value, error) {
	method, ok := class.Methods.Get(name)
	if !ok {
		return heap.Nil, vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	bound := vm.h.NewBoundMethod(vm.peek(0), method.AsClosure())
	return heap.Obj(bound), nil
}

// captureUpvalue returns the open upvalue for stack slot, creating and
// inserting one (sorted by descending slot) if none exists yet.
func (vm *VM) captureUpvalue(slot int) *heap.UpvalueObj {
	insertAt := 0
	for _, uv := range vm.openUpvalues {
		if uv.slot == slot {
			return uv.obj
		}
		if uv.slot < slot {
			break
		}
		insertAt++
	}

	obj := vm.h.NewUpvalue(&vm.stack[slot])
	entry := &openUpvalue{slot: slot, obj: obj}
	vm.openUpvalues = append(vm.openUpvalues, nil)
	copy(vm.openUpvalues[insertAt+1:], vm.openUpvalues[insertAt:])
	vm.openUpvalues[insertAt] = entry
	return obj
}

// closeUpvalues hoists every open upvalue at or above fromSlot into its own
// Closed field, detaching it from the stack before the underlying locals go
// out of scope.
func (vm *VM) closeUpvalues(fromSlot int) {
	for len(vm.openUpvalues) > 0 && vm.openUpvalues[0].slot >= fromSlot {
		vm.openUpvalues[0].obj.Close()
		vm.openUpvalues = vm.openUpvalues[1:]
	}
}

func (vm *VM) stringify(v heap.Value) string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		if v.Bool {
			return "true"
		}
		return "false"
	case v.IsNumber():
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case v.IsString():
		return v.AsString().Chars
	case v.IsFunction():
		fn := v.AsFunction()
		if fn.Name == nil {
			return "<script>"
		}
		return "<fn " + fn.Name.Chars + ">"
	case v.IsClosure():
		return vm.stringify(heap.Obj(v.AsClosure().Function))
	case v.IsClass():
		return v.AsClass().Name.Chars
	case v.IsInstance():
		return v.AsInstance().Class.Name.Chars + " instance"
	case v.IsObject() && v.Obj.Type() == heap.ObjTypeBoundMethod:
		return vm.stringify(heap.Obj(v.AsBoundMethod().Method.Function))
	case v.IsObject() && v.Obj.Type() == heap.ObjTypeNative:
		return "<native fn>"
	default:
		return heap.TypeName(v)
	}
}

// runtimeError builds a RuntimeError whose trace starts at the frame
// currently executing and walks outward, then resets the VM to an empty
// stack so a REPL can keep going after an error.
func (vm *VM) runtimeError(format string, args ...interface{}) error {
	message := fmt.Sprintf(format, args...)
	trace := make([]FrameTrace, 0, vm.frameCount)
	line := 0
	for i := vm.frameCount - 1; i >= 0; i-- {
		f := &vm.frames[i]
		fn := f.closure.Function
		l := 0
		if f.ip-1 >= 0 && f.ip-1 < len(fn.Chunk.Lines) {
			l = fn.Chunk.Lines[f.ip-1]
		}
		if i == vm.frameCount-1 {
			line = l
		}
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars + "()"
		}
		trace = append(trace, FrameTrace{Name: name, Line: l})
	}

	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil

	return &RuntimeError{Message: message, Line: line, Trace: trace}
}
