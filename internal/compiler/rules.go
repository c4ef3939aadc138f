package compiler

import "github.com/xirelogy/corelox/internal/token"

// Precedence levels, lowest to highest.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type parseFn func(p *Parser, canAssign bool)

// ParseRule is the Pratt table entry for one token type: an optional
// prefix handler, an optional infix handler, and the infix precedence
// used to decide whether parsePrecedence should keep consuming.
type ParseRule struct {
	Prefix     parseFn
	Infix      parseFn
	Precedence Precedence
}

var rules map[token.Type]ParseRule

func init() {
	rules = map[token.Type]ParseRule{
		token.LEFT_PAREN:    {parseGrouping, parseCall, PrecCall},
		token.RIGHT_PAREN:   {nil, nil, PrecNone},
		token.LEFT_BRACE:    {nil, nil, PrecNone},
		token.RIGHT_BRACE:   {nil, nil, PrecNone},
		token.COMMA:         {nil, nil, PrecNone},
		token.DOT:           {nil, parseDot, PrecCall},
		token.MINUS:         {parseUnary, parseBinary, PrecTerm},
		token.PLUS:          {nil, parseBinary, PrecTerm},
		token.SEMICOLON:     {nil, nil, PrecNone},
		token.SLASH:         {nil, parseBinary, PrecFactor},
		token.STAR:          {nil, parseBinary, PrecFactor},
		token.BANG:          {parseUnary, nil, PrecNone},
		token.BANG_EQUAL:    {nil, parseBinary, PrecEquality},
		token.EQUAL:         {nil, nil, PrecNone},
		token.EQUAL_EQUAL:   {nil, parseBinary, PrecEquality},
		token.GREATER:       {nil, parseBinary, PrecComparison},
		token.GREATER_EQUAL: {nil, parseBinary, PrecComparison},
		token.LESS:          {nil, parseBinary, PrecComparison},
		token.LESS_EQUAL:    {nil, parseBinary, PrecComparison},
		token.IDENTIFIER:    {parseVariableExpr, nil, PrecNone},
		token.STRING:        {parseString, nil, PrecNone},
		token.NUMBER:        {parseNumber, nil, PrecNone},
		token.AND:           {nil, parseAnd, PrecAnd},
		token.CLASS:         {nil, nil, PrecNone},
		token.ELSE:          {nil, nil, PrecNone},
		token.FALSE:         {parseLiteral, nil, PrecNone},
		token.FOR:           {nil, nil, PrecNone},
		token.FUN:           {nil, nil, PrecNone},
		token.IF:            {nil, nil, PrecNone},
		token.NIL:           {parseLiteral, nil, PrecNone},
		token.OR:            {nil, parseOr, PrecOr},
		token.PRINT:         {nil, nil, PrecNone},
		token.RETURN:        {nil, nil, PrecNone},
		token.SUPER:         {parseSuper, nil, PrecNone},
		token.THIS:          {parseThis, nil, PrecNone},
		token.TRUE:          {parseLiteral, nil, PrecNone},
		token.VAR:           {nil, nil, PrecNone},
		token.WHILE:         {nil, nil, PrecNone},
		token.EOF:           {nil, nil, PrecNone},
		token.ERROR:         {nil, nil, PrecNone},
	}
}
