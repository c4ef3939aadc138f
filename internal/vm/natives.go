package vm

import (
	"fmt"
	"time"

	"github.com/xirelogy/corelox/internal/heap"
)

// nativeClock returns the number of seconds since the Unix epoch as a
// floating point number, mirroring clox's clock() native.
func nativeClock(args []heap.Value) (heap.Value, error) {
	return heap.Number(float64(time.Now().UnixNano()) / 1e9), nil
}

// nativeStr converts its single argument to its printed representation,
// using the same formatting as the print statement.
func nativeStr(vm *VM) heap.NativeFn {
	return func(args []heap.Value) (heap.Value, error) {
		if len(args) != 1 {
			return heap.Nil, fmt.Errorf("str() takes exactly 1 argument")
		}
		return heap.Obj(vm.h.CopyString(vm.stringify(args[0]))), nil
	}
}

// nativeType reports the runtime type name of its single argument.
func nativeType(vm *VM) heap.NativeFn {
	return func(args []heap.Value) (heap.Value, error) {
		if len(args) != 1 {
			return heap.Nil, fmt.Errorf("type() takes exactly 1 argument")
		}
		return heap.Obj(vm.h.CopyString(heap.TypeName(args[0]))), nil
	}
}
