// Package compiler implements a single-pass, tree-less compiler: source
// text goes directly to bytecode with no intermediate AST. Expression
// parsing uses Pratt (precedence-climbing) dispatch; statements are
// parsed by direct recursive descent alongside it, in the same pass.
package compiler

import (
	"fmt"
	"strconv"

	"github.com/xirelogy/corelox/internal/heap"
	"github.com/xirelogy/corelox/internal/lexer"
	"github.com/xirelogy/corelox/internal/opcode"
	"github.com/xirelogy/corelox/internal/token"
)

// FuncType distinguishes the four contexts a nested compiler can be
// compiling for; only the special-cased ones (initializer, method) alter
// codegen (implicit `return this`, the reserved `this` slot).
type FuncType int

const (
	TypeFunction FuncType = iota
	TypeInitializer
	TypeMethod
	TypeScript
)

// Local is one entry in a function compiler's slot table. Depth == -1 is
// the sentinel for "declared but not yet initialized", used to reject
// `var a = a;` at compile time.
type Local struct {
	Name       string
	Depth      int
	IsCaptured bool
}

// UpvalueRef records one upvalue a function compiler has resolved:
// either a slot in the immediately enclosing function (IsLocal) or an
// upvalue already resolved one level further up.
type UpvalueRef struct {
	Index   byte
	IsLocal bool
}

// Compiler holds the state for one function body being compiled. The
// chain of Compilers linked by enclosing mirrors the call stack of
// nested function/method declarations; it also doubles as the GC root
// set for functions still under construction.
type Compiler struct {
	enclosing  *Compiler
	function   *heap.FunctionObj
	funcType   FuncType
	locals     []Local
	upvalues   []UpvalueRef
	scopeDepth int
}

// ClassCompiler tracks the innermost class currently being compiled, so
// `this`/`super` can be validated and superclass method resolution wired
// up correctly even across nested classes.
type ClassCompiler struct {
	enclosing     *ClassCompiler
	hasSuperclass bool
}

// Parser is the single-pass parser/compiler driver: current/previous
// token, error-recovery flags, and the live compiler/class-compiler
// chains.
type Parser struct {
	h   *heap.Heap
	lex *lexer.Lexer

	prev token.Token
	cur  token.Token

	hadError  bool
	panicMode bool
	errors    []string

	compiler      *Compiler
	classCompiler *ClassCompiler
}

// parserRoots exposes a Parser's live compiler chain as a heap.RootSource
// for the duration of one Compile call.
type parserRoots struct{ p *Parser }

func (r parserRoots) MarkRoots(h *heap.Heap) {
	for c := r.p.compiler; c != nil; c = c.enclosing {
		h.MarkObject(c.function)
	}
}

// Compile scans and parses source in a single pass, emitting bytecode
// into an implicit top-level function which it returns. On any compile
// error it returns nil and the accumulated diagnostics, each already
// formatted as "[line N] Error...: message" per the external interface.
func Compile(h *heap.Heap, source string) (*heap.FunctionObj, []string) {
	p := &Parser{h: h, lex: lexer.New(source)}
	p.pushCompiler(TypeScript)

	root := parserRoots{p}
	h.AddRoot(root)
	defer h.RemoveRoot(root)

	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}

	fn, _ := p.endCompiler()
	if p.hadError {
		return nil, p.errors
	}
	return fn, nil
}

// ---- token stream plumbing ----

func (p *Parser) advance() {
	p.prev = p.cur
	for {
		p.cur = p.lex.NextToken()
		if p.cur.Type != token.ERROR {
			return
		}
		p.errorAtCurrent(p.cur.Lexeme)
	}
}

func (p *Parser) check(t token.Type) bool { return p.cur.Type == t }

func (p *Parser) match(t token.Type) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(t token.Type, msg string) {
	if p.cur.Type == t {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *Parser) errorAtCurrent(msg string) { p.errorAt(p.cur, msg) }
func (p *Parser) error(msg string)          { p.errorAt(p.prev, msg) }

func (p *Parser) errorAt(tok token.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	where := ""
	switch {
	case tok.Type == token.EOF:
		where = " at end"
	case tok.Type == token.ERROR:
		where = ""
	default:
		where = fmt.Sprintf(" at '%s'", tok.Lexeme)
	}
	p.errors = append(p.errors, fmt.Sprintf("[line %d] Error%s: %s", tok.Line, where, msg))
}

func (p *Parser) synchronize() {
	p.panicMode = false
	for p.cur.Type != token.EOF {
		if p.prev.Type == token.SEMICOLON {
			return
		}
		switch p.cur.Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

// ---- emission helpers ----

func (p *Parser) currentChunk() *heap.Chunk { return p.compiler.function.Chunk }

func (p *Parser) emitByte(b byte) {
	p.currentChunk().Write(b, p.prev.Line)
}

func (p *Parser) emitOp(op opcode.Code) { p.emitByte(byte(op)) }

func (p *Parser) emitOpByte(op opcode.Code, operand byte) {
	p.emitByte(byte(op))
	p.emitByte(operand)
}

func (p *Parser) emitReturn() {
	if p.compiler.funcType == TypeInitializer {
		p.emitOpByte(opcode.GET_LOCAL, 0)
	} else {
		p.emitOp(opcode.NIL)
	}
	p.emitOp(opcode.RETURN)
}

func (p *Parser) makeConstant(v heap.Value) byte {
	idx := p.currentChunk().AddConstant(p.h, v)
	if idx > 255 {
		p.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (p *Parser) emitConstant(v heap.Value) {
	p.emitOpByte(opcode.CONSTANT, p.makeConstant(v))
}

// emitJump writes op followed by a two-byte placeholder and returns the
// placeholder's offset, to be resolved later by patchJump.
func (p *Parser) emitJump(op opcode.Code) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.currentChunk().Code) - 2
}

func (p *Parser) patchJump(offset int) {
	jump := len(p.currentChunk().Code) - offset - 2
	if jump > 0xffff {
		p.error("Too much code to jump over.")
		return
	}
	p.currentChunk().Code[offset] = byte((jump >> 8) & 0xff)
	p.currentChunk().Code[offset+1] = byte(jump & 0xff)
}

func (p *Parser) emitLoop(loopStart int) {
	p.emitOp(opcode.LOOP)
	offset := len(p.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		p.error("Loop body too large.")
		return
	}
	p.emitByte(byte((offset >> 8) & 0xff))
	p.emitByte(byte(offset & 0xff))
}

// ---- compiler stack management ----

func (p *Parser) pushCompiler(ft FuncType) {
	fn := p.h.NewFunctionObj()
	if ft != TypeScript {
		fn.Name = p.h.CopyString(p.prev.Lexeme)
	}
	c := &Compiler{enclosing: p.compiler, function: fn, funcType: ft}

	// Slot 0 is reserved: "this" for methods/initializers, unnamed
	// (unreachable by name) for plain functions and the top-level script.
	slot0 := ""
	if ft == TypeMethod || ft == TypeInitializer {
		slot0 = "this"
	}
	c.locals = append(c.locals, Local{Name: slot0, Depth: 0})

	p.compiler = c
}

func (p *Parser) endCompiler() (*heap.FunctionObj, []UpvalueRef) {
	p.emitReturn()
	fn := p.compiler.function
	upvalues := p.compiler.upvalues
	p.compiler = p.compiler.enclosing
	return fn, upvalues
}

func (p *Parser) beginScope() { p.compiler.scopeDepth++ }

func (p *Parser) endScope() {
	p.compiler.scopeDepth--
	locals := p.compiler.locals
	for len(locals) > 0 && locals[len(locals)-1].Depth > p.compiler.scopeDepth {
		if locals[len(locals)-1].IsCaptured {
			p.emitOp(opcode.CLOSE_UPVALUE)
		} else {
			p.emitOp(opcode.POP)
		}
		locals = locals[:len(locals)-1]
	}
	p.compiler.locals = locals
}

// ---- variable resolution ----

func identifierConstant(p *Parser, name string) byte {
	return p.makeConstant(heap.Obj(p.h.CopyString(name)))
}

func resolveLocal(p *Parser, c *Compiler, name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			if c.locals[i].Depth == -1 {
				p.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func addUpvalue(p *Parser, c *Compiler, index byte, isLocal bool) byte {
	for i, uv := range c.upvalues {
		if uv.Index == index && uv.IsLocal == isLocal {
			return byte(i)
		}
	}
	if len(c.upvalues) >= 256 {
		p.error("Too many closure variables in function.")
		return 0
	}
	c.upvalues = append(c.upvalues, UpvalueRef{Index: index, IsLocal: isLocal})
	c.function.UpvalueCount = len(c.upvalues)
	return byte(len(c.upvalues) - 1)
}

func resolveUpvalue(p *Parser, c *Compiler, name string) int {
	if c.enclosing == nil {
		return -1
	}
	if local := resolveLocal(p, c.enclosing, name); local != -1 {
		c.enclosing.locals[local].IsCaptured = true
		return int(addUpvalue(p, c, byte(local), true))
	}
	if up := resolveUpvalue(p, c.enclosing, name); up != -1 {
		return int(addUpvalue(p, c, byte(up), false))
	}
	return -1
}

func (p *Parser) addLocalNamed(name string) {
	if len(p.compiler.locals) >= 256 {
		p.error("Too many local variables in function.")
		return
	}
	p.compiler.locals = append(p.compiler.locals, Local{Name: name, Depth: -1})
}

func (p *Parser) declareVariable() {
	if p.compiler.scopeDepth == 0 {
		return
	}
	name := p.prev.Lexeme
	for i := len(p.compiler.locals) - 1; i >= 0; i-- {
		local := p.compiler.locals[i]
		if local.Depth != -1 && local.Depth < p.compiler.scopeDepth {
			break
		}
		if local.Name == name {
			p.error("Already a variable with this name in this scope.")
		}
	}
	p.addLocalNamed(name)
}

func (p *Parser) parseVariable(errMsg string) byte {
	p.consume(token.IDENTIFIER, errMsg)
	p.declareVariable()
	if p.compiler.scopeDepth > 0 {
		return 0
	}
	return identifierConstant(p, p.prev.Lexeme)
}

func (p *Parser) markInitialized() {
	if p.compiler.scopeDepth == 0 {
		return
	}
	p.compiler.locals[len(p.compiler.locals)-1].Depth = p.compiler.scopeDepth
}

func (p *Parser) defineVariable(global byte) {
	if p.compiler.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitOpByte(opcode.DEFINE_GLOBAL, global)
}

func (p *Parser) namedVariable(name string, canAssign bool) {
	var getOp, setOp opcode.Code
	arg := resolveLocal(p, p.compiler, name)
	if arg != -1 {
		getOp, setOp = opcode.GET_LOCAL, opcode.SET_LOCAL
	} else if u := resolveUpvalue(p, p.compiler, name); u != -1 {
		arg = u
		getOp, setOp = opcode.GET_UPVALUE, opcode.SET_UPVALUE
	} else {
		arg = int(identifierConstant(p, name))
		getOp, setOp = opcode.GET_GLOBAL, opcode.SET_GLOBAL
	}

	if canAssign && p.match(token.EQUAL) {
		p.expression()
		p.emitOpByte(setOp, byte(arg))
	} else {
		p.emitOpByte(getOp, byte(arg))
	}
}

// ---- declarations and statements ----

func (p *Parser) declaration() {
	switch {
	case p.match(token.CLASS):
		p.classDeclaration()
	case p.match(token.FUN):
		p.funDeclaration()
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) classDeclaration() {
	p.consume(token.IDENTIFIER, "Expect class name.")
	className := p.prev
	nameConstant := identifierConstant(p, className.Lexeme)
	p.declareVariable()

	p.emitOpByte(opcode.CLASS, nameConstant)
	p.defineVariable(nameConstant)

	cc := &ClassCompiler{enclosing: p.classCompiler}
	p.classCompiler = cc

	if p.match(token.LESS) {
		p.consume(token.IDENTIFIER, "Expect superclass name.")
		p.namedVariable(p.prev.Lexeme, false)
		if p.prev.Lexeme == className.Lexeme {
			p.error("A class can't inherit from itself.")
		}
		p.beginScope()
		p.addLocalNamed("super")
		p.markInitialized()

		p.namedVariable(className.Lexeme, false)
		p.emitOp(opcode.INHERIT)
		cc.hasSuperclass = true
	}

	p.namedVariable(className.Lexeme, false)
	p.consume(token.LEFT_BRACE, "Expect '{' before class body.")
	for !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
		p.method()
	}
	p.consume(token.RIGHT_BRACE, "Expect '}' after class body.")
	p.emitOp(opcode.POP)

	if cc.hasSuperclass {
		p.endScope()
	}
	p.classCompiler = cc.enclosing
}

func (p *Parser) method() {
	p.consume(token.IDENTIFIER, "Expect method name.")
	name := p.prev.Lexeme
	constant := identifierConstant(p, name)

	ft := TypeMethod
	if name == "init" {
		ft = TypeInitializer
	}
	p.function(ft)
	p.emitOpByte(opcode.METHOD, constant)
}

func (p *Parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.markInitialized()
	p.function(TypeFunction)
	p.defineVariable(global)
}

func (p *Parser) function(ft FuncType) {
	p.pushCompiler(ft)
	p.beginScope()

	p.consume(token.LEFT_PAREN, "Expect '(' after function name.")
	if !p.check(token.RIGHT_PAREN) {
		for {
			p.compiler.function.Arity++
			if p.compiler.function.Arity > 255 {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := p.parseVariable("Expect parameter name.")
			p.defineVariable(constant)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")
	p.consume(token.LEFT_BRACE, "Expect '{' before function body.")
	p.block()

	fn, upvalues := p.endCompiler()
	idx := p.makeConstant(heap.Obj(fn))
	p.emitOpByte(opcode.CLOSURE, idx)
	for _, uv := range upvalues {
		if uv.IsLocal {
			p.emitByte(1)
		} else {
			p.emitByte(0)
		}
		p.emitByte(uv.Index)
	}
}

func (p *Parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")
	if p.match(token.EQUAL) {
		p.expression()
	} else {
		p.emitOp(opcode.NIL)
	}
	p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	p.defineVariable(global)
}

func (p *Parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.LEFT_BRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) block() {
	for !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RIGHT_BRACE, "Expect '}' after block.")
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after value.")
	p.emitOp(opcode.PRINT)
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")
	p.emitOp(opcode.POP)
}

func (p *Parser) ifStatement() {
	p.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	thenJump := p.emitJump(opcode.JUMP_IF_FALSE)
	p.emitOp(opcode.POP)
	p.statement()

	elseJump := p.emitJump(opcode.JUMP)
	p.patchJump(thenJump)
	p.emitOp(opcode.POP)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := len(p.currentChunk().Code)
	p.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	exitJump := p.emitJump(opcode.JUMP_IF_FALSE)
	p.emitOp(opcode.POP)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(opcode.POP)
}

func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")
	switch {
	case p.match(token.SEMICOLON):
		// no initializer
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.currentChunk().Code)
	exitJump := -1
	if !p.match(token.SEMICOLON) {
		p.expression()
		p.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = p.emitJump(opcode.JUMP_IF_FALSE)
		p.emitOp(opcode.POP)
	}

	if !p.match(token.RIGHT_PAREN) {
		bodyJump := p.emitJump(opcode.JUMP)
		incrementStart := len(p.currentChunk().Code)
		p.expression()
		p.emitOp(opcode.POP)
		p.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(opcode.POP)
	}
	p.endScope()
}

func (p *Parser) returnStatement() {
	if p.compiler.funcType == TypeScript {
		p.error("Can't return from top-level code.")
	}
	if p.match(token.SEMICOLON) {
		p.emitReturn()
		return
	}
	if p.compiler.funcType == TypeInitializer {
		p.error("Can't return a value from an initializer.")
	}
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after return value.")
	p.emitOp(opcode.RETURN)
}

// ---- expressions (Pratt) ----

func (p *Parser) expression() { p.parsePrecedence(PrecAssignment) }

func (p *Parser) parsePrecedence(prec Precedence) {
	p.advance()
	prefix := rules[p.prev.Type].Prefix
	if prefix == nil {
		p.error("Expect expression.")
		return
	}
	canAssign := prec <= PrecAssignment
	prefix(p, canAssign)

	for prec <= rules[p.cur.Type].Precedence {
		p.advance()
		infix := rules[p.prev.Type].Infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.EQUAL) {
		p.error("Invalid assignment target.")
	}
}

func parseNumber(p *Parser, _ bool) {
	v, err := strconv.ParseFloat(p.prev.Lexeme, 64)
	if err != nil {
		p.error("Invalid number literal.")
		return
	}
	p.emitConstant(heap.Number(v))
}

func parseString(p *Parser, _ bool) {
	p.emitConstant(heap.Obj(p.h.CopyString(p.prev.Lexeme)))
}

func parseLiteral(p *Parser, _ bool) {
	switch p.prev.Type {
	case token.FALSE:
		p.emitOp(opcode.FALSE)
	case token.NIL:
		p.emitOp(opcode.NIL)
	case token.TRUE:
		p.emitOp(opcode.TRUE)
	}
}

func parseGrouping(p *Parser, _ bool) {
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
}

func parseUnary(p *Parser, _ bool) {
	opType := p.prev.Type
	p.parsePrecedence(PrecUnary)
	switch opType {
	case token.BANG:
		p.emitOp(opcode.NOT)
	case token.MINUS:
		p.emitOp(opcode.NEGATE)
	}
}

func parseBinary(p *Parser, _ bool) {
	opType := p.prev.Type
	rule := rules[opType]
	p.parsePrecedence(rule.Precedence + 1)
	switch opType {
	case token.BANG_EQUAL:
		p.emitOp(opcode.EQUAL)
		p.emitOp(opcode.NOT)
	case token.EQUAL_EQUAL:
		p.emitOp(opcode.EQUAL)
	case token.GREATER:
		p.emitOp(opcode.GREATER)
	case token.GREATER_EQUAL:
		p.emitOp(opcode.LESS)
		p.emitOp(opcode.NOT)
	case token.LESS:
		p.emitOp(opcode.LESS)
	case token.LESS_EQUAL:
		p.emitOp(opcode.GREATER)
		p.emitOp(opcode.NOT)
	case token.PLUS:
		p.emitOp(opcode.ADD)
	case token.MINUS:
		p.emitOp(opcode.SUBTRACT)
	case token.STAR:
		p.emitOp(opcode.MULTIPLY)
	case token.SLASH:
		p.emitOp(opcode.DIVIDE)
	}
}

func parseAnd(p *Parser, _ bool) {
	endJump := p.emitJump(opcode.JUMP_IF_FALSE)
	p.emitOp(opcode.POP)
	p.parsePrecedence(PrecAnd)
	p.patchJump(endJump)
}

func parseOr(p *Parser, _ bool) {
	elseJump := p.emitJump(opcode.JUMP_IF_FALSE)
	endJump := p.emitJump(opcode.JUMP)
	p.patchJump(elseJump)
	p.emitOp(opcode.POP)
	p.parsePrecedence(PrecOr)
	p.patchJump(endJump)
}

func parseVariableExpr(p *Parser, canAssign bool) {
	p.namedVariable(p.prev.Lexeme, canAssign)
}

func parseThis(p *Parser, _ bool) {
	if p.classCompiler == nil {
		p.error("Can't use 'this' outside of a class.")
		return
	}
	p.namedVariable("this", false)
}

func parseSuper(p *Parser, _ bool) {
	if p.classCompiler == nil {
		p.error("Can't use 'super' outside of a class.")
	} else if !p.classCompiler.hasSuperclass {
		p.error("Can't use 'super' in a class with no superclass.")
	}

	p.consume(token.DOT, "Expect '.' after 'super'.")
	p.consume(token.IDENTIFIER, "Expect superclass method name.")
	name := identifierConstant(p, p.prev.Lexeme)

	p.namedVariable("this", false)
	if p.match(token.LEFT_PAREN) {
		argCount := p.argumentList()
		p.namedVariable("super", false)
		p.emitOpByte(opcode.SUPER_INVOKE, name)
		p.emitByte(byte(argCount))
	} else {
		p.namedVariable("super", false)
		p.emitOpByte(opcode.GET_SUPER, name)
	}
}

func parseCall(p *Parser, _ bool) {
	argCount := p.argumentList()
	p.emitOpByte(opcode.CALL, byte(argCount))
}

func parseDot(p *Parser, canAssign bool) {
	p.consume(token.IDENTIFIER, "Expect property name after '.'.")
	name := identifierConstant(p, p.prev.Lexeme)

	switch {
	case canAssign && p.match(token.EQUAL):
		p.expression()
		p.emitOpByte(opcode.SET_PROPERTY, name)
	case p.match(token.LEFT_PAREN):
		argCount := p.argumentList()
		p.emitOpByte(opcode.INVOKE, name)
		p.emitByte(byte(argCount))
	default:
		p.emitOpByte(opcode.GET_PROPERTY, name)
	}
}

func (p *Parser) argumentList() int {
	count := 0
	if !p.check(token.RIGHT_PAREN) {
		for {
			p.expression()
			if count == 255 {
				p.error("Can't have more than 255 arguments.")
			}
			count++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return count
}
