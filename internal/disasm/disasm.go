// Package disasm renders a compiled chunk's bytecode as human-readable
// text, the tree-less compiler's answer to the reference implementation's
// debug.c — used by the CLI's disasm subcommand, never by the VM itself.
package disasm

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xirelogy/corelox/internal/heap"
	"github.com/xirelogy/corelox/internal/opcode"
)

// Chunk writes a full disassembly of c to w, labeled name for nested
// function chunks.
func Chunk(w io.Writer, c *heap.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = Instruction(w, c, offset)
	}
}

// Instruction writes one disassembled instruction at offset and returns the
// offset of the next one.
func Instruction(w io.Writer, c *heap.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.Lines[offset])
	}

	op := opcode.Code(c.Code[offset])
	switch op {
	case opcode.CONSTANT, opcode.CLASS, opcode.GET_GLOBAL, opcode.DEFINE_GLOBAL,
		opcode.SET_GLOBAL, opcode.GET_PROPERTY, opcode.SET_PROPERTY, opcode.METHOD,
		opcode.GET_SUPER:
		return constantInstruction(w, op, c, offset)
	case opcode.GET_LOCAL, opcode.SET_LOCAL, opcode.GET_UPVALUE, opcode.SET_UPVALUE, opcode.CALL:
		return byteInstruction(w, op, c, offset)
	case opcode.JUMP, opcode.JUMP_IF_FALSE:
		return jumpInstruction(w, op, c, offset, 1)
	case opcode.LOOP:
		return jumpInstruction(w, op, c, offset, -1)
	case opcode.INVOKE, opcode.SUPER_INVOKE:
		return invokeInstruction(w, op, c, offset)
	case opcode.CLOSURE:
		return closureInstruction(w, c, offset)
	default:
		fmt.Fprintf(w, "%s\n", op)
		return offset + 1
	}
}

func constantInstruction(w io.Writer, op opcode.Code, c *heap.Chunk, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, valueString(c.Constants[idx]))
	return offset + 2
}

func byteInstruction(w io.Writer, op opcode.Code, c *heap.Chunk, offset int) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", op, slot)
	return offset + 2
}

func jumpInstruction(w io.Writer, op opcode.Code, c *heap.Chunk, offset int, sign int) int {
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

func invokeInstruction(w io.Writer, op opcode.Code, c *heap.Chunk, offset int) int {
	idx := c.Code[offset+1]
	argCount := c.Code[offset+2]
	fmt.Fprintf(w, "%-16s (%d args) %4d '%s'\n", op, argCount, idx, valueString(c.Constants[idx]))
	return offset + 3
}

func closureInstruction(w io.Writer, c *heap.Chunk, offset int) int {
	offset++
	idx := c.Code[offset]
	offset++
	fmt.Fprintf(w, "%-16s %4d '%s'\n", opcode.CLOSURE, idx, valueString(c.Constants[idx]))

	fn := c.Constants[idx].AsFunction()
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := c.Code[offset]
		offset++
		index := c.Code[offset]
		offset++
		kind := "upvalue"
		if isLocal == 1 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", offset-2, kind, index)
	}
	return offset
}

func valueString(v heap.Value) string {
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
	default:
		return heap.TypeName(v)
	}
}
