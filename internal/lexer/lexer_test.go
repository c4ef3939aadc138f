package lexer

import (
	"testing"

	"github.com/xirelogy/corelox/internal/token"
)

func TestLexerBasicTokens(t *testing.T) {
	input := `
fun add(a, b) {
  var c = a + b;
  if (c >= 10 and a != b) {
    return c;
  }
}
`

	expected := []token.Token{
		{Type: token.FUN, Lexeme: "fun"},
		{Type: token.IDENTIFIER, Lexeme: "add"},
		{Type: token.LEFT_PAREN, Lexeme: "("},
		{Type: token.IDENTIFIER, Lexeme: "a"},
		{Type: token.COMMA, Lexeme: ","},
		{Type: token.IDENTIFIER, Lexeme: "b"},
		{Type: token.RIGHT_PAREN, Lexeme: ")"},
		{Type: token.LEFT_BRACE, Lexeme: "{"},
		{Type: token.VAR, Lexeme: "var"},
		{Type: token.IDENTIFIER, Lexeme: "c"},
		{Type: token.EQUAL, Lexeme: "="},
		{Type: token.IDENTIFIER, Lexeme: "a"},
		{Type: token.PLUS, Lexeme: "+"},
		{Type: token.IDENTIFIER, Lexeme: "b"},
		{Type: token.SEMICOLON, Lexeme: ";"},
		{Type: token.IF, Lexeme: "if"},
		{Type: token.LEFT_PAREN, Lexeme: "("},
		{Type: token.IDENTIFIER, Lexeme: "c"},
		{Type: token.GREATER_EQUAL, Lexeme: ">="},
		{Type: token.NUMBER, Lexeme: "10"},
		{Type: token.AND, Lexeme: "and"},
		{Type: token.IDENTIFIER, Lexeme: "a"},
		{Type: token.BANG_EQUAL, Lexeme: "!="},
		{Type: token.IDENTIFIER, Lexeme: "b"},
		{Type: token.RIGHT_PAREN, Lexeme: ")"},
		{Type: token.LEFT_BRACE, Lexeme: "{"},
		{Type: token.RETURN, Lexeme: "return"},
		{Type: token.IDENTIFIER, Lexeme: "c"},
		{Type: token.SEMICOLON, Lexeme: ";"},
		{Type: token.RIGHT_BRACE, Lexeme: "}"},
		{Type: token.RIGHT_BRACE, Lexeme: "}"},
		{Type: token.EOF, Lexeme: ""},
	}

	l := New(input)
	for i, want := range expected {
		got := l.NextToken()
		if got.Type != want.Type || got.Lexeme != want.Lexeme {
			t.Fatalf("token %d: expected %v %q, got %v %q", i, want.Type, want.Lexeme, got.Type, got.Lexeme)
		}
	}
}

func TestLexerStringsAndComments(t *testing.T) {
	input := "// a comment\nvar a = \"hello\\nworld\";\nprint a;"
	expected := []token.Type{
		token.VAR, token.IDENTIFIER, token.EQUAL, token.STRING, token.SEMICOLON,
		token.PRINT, token.IDENTIFIER, token.SEMICOLON, token.EOF,
	}
	l := New(input)
	for i, want := range expected {
		got := l.NextToken()
		if got.Type != want {
			t.Fatalf("token %d: expected %v, got %v (%q)", i, want, got.Type, got.Lexeme)
		}
	}
}

func TestLexerStringHasNoEscapeInterpretation(t *testing.T) {
	l := New(`"a\nb"`)
	tok := l.NextToken()
	if tok.Type != token.STRING {
		t.Fatalf("expected STRING, got %v", tok.Type)
	}
	if tok.Lexeme != `a\nb` {
		t.Fatalf("expected literal backslash-n preserved, got %q", tok.Lexeme)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	l := New(`"unterminated`)
	tok := l.NextToken()
	if tok.Type != token.ERROR {
		t.Fatalf("expected ERROR token, got %v", tok.Type)
	}
}

func TestLexerUnexpectedCharacter(t *testing.T) {
	l := New("@")
	tok := l.NextToken()
	if tok.Type != token.ERROR || tok.Lexeme != "Unexpected character." {
		t.Fatalf("expected error token, got %v %q", tok.Type, tok.Lexeme)
	}
}

func TestLexerMultilineStringCountsLines(t *testing.T) {
	l := New("\"a\nb\"\nprint 1;")
	l.NextToken() // string
	next := l.NextToken()
	if next.Line != 3 {
		t.Fatalf("expected line 3 after the embedded newline and the one after the string, got %d", next.Line)
	}
}
