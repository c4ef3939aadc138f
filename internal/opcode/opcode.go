// Package opcode enumerates the bytecode instruction set emitted by
// internal/compiler and interpreted by internal/vm.
package opcode

// Code is a single bytecode instruction. Operand widths are implicit
// from the opcode; see the table in each internal/vm case.
type Code byte

const (
	CONSTANT Code = iota
	NIL
	TRUE
	FALSE
	POP
	GET_LOCAL
	SET_LOCAL
	GET_UPVALUE
	SET_UPVALUE
	GET_GLOBAL
	DEFINE_GLOBAL
	SET_GLOBAL
	GET_PROPERTY
	SET_PROPERTY
	GET_SUPER
	EQUAL
	GREATER
	LESS
	ADD
	SUBTRACT
	MULTIPLY
	DIVIDE
	NOT
	NEGATE
	PRINT
	JUMP
	JUMP_IF_FALSE
	LOOP
	CALL
	INVOKE
	SUPER_INVOKE
	CLOSURE
	CLOSE_UPVALUE
	RETURN
	CLASS
	INHERIT
	METHOD
)

var names = [...]string{
	CONSTANT:      "OP_CONSTANT",
	NIL:           "OP_NIL",
	TRUE:          "OP_TRUE",
	FALSE:         "OP_FALSE",
	POP:           "OP_POP",
	GET_LOCAL:     "OP_GET_LOCAL",
	SET_LOCAL:     "OP_SET_LOCAL",
	GET_UPVALUE:   "OP_GET_UPVALUE",
	SET_UPVALUE:   "OP_SET_UPVALUE",
	GET_GLOBAL:    "OP_GET_GLOBAL",
	DEFINE_GLOBAL: "OP_DEFINE_GLOBAL",
	SET_GLOBAL:    "OP_SET_GLOBAL",
	GET_PROPERTY:  "OP_GET_PROPERTY",
	SET_PROPERTY:  "OP_SET_PROPERTY",
	GET_SUPER:     "OP_GET_SUPER",
	EQUAL:         "OP_EQUAL",
	GREATER:       "OP_GREATER",
	LESS:          "OP_LESS",
	ADD:           "OP_ADD",
	SUBTRACT:      "OP_SUBTRACT",
	MULTIPLY:      "OP_MULTIPLY",
	DIVIDE:        "OP_DIVIDE",
	NOT:           "OP_NOT",
	NEGATE:        "OP_NEGATE",
	PRINT:         "OP_PRINT",
	JUMP:          "OP_JUMP",
	JUMP_IF_FALSE: "OP_JUMP_IF_FALSE",
	LOOP:          "OP_LOOP",
	CALL:          "OP_CALL",
	INVOKE:        "OP_INVOKE",
	SUPER_INVOKE:  "OP_SUPER_INVOKE",
	CLOSURE:       "OP_CLOSURE",
	CLOSE_UPVALUE: "OP_CLOSE_UPVALUE",
	RETURN:        "OP_RETURN",
	CLASS:         "OP_CLASS",
	INHERIT:       "OP_INHERIT",
	METHOD:        "OP_METHOD",
}

func (c Code) String() string {
	if int(c) < len(names) && names[c] != "" {
		return names[c]
	}
	return "OP_UNKNOWN"
}
