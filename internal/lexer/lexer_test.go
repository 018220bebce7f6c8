package lexer

import (
	"testing"
)

// ----------------------------------------------------------------------------
// Test Helpers (esbuild-style)
// ----------------------------------------------------------------------------

func expectToken(t *testing.T, input string, expected TokenKind) {
	t.Helper()
	l := New(input)
	tok := l.Next()
	if tok.Kind != expected {
		t.Errorf("input %q: expected %v, got %v", input, expected, tok.Kind)
	}
}

func expectTokenValue(t *testing.T, input string, expectedKind TokenKind, expectedValue string) {
	t.Helper()
	l := New(input)
	tok := l.Next()
	if tok.Kind != expectedKind {
		t.Errorf("input %q: expected kind %v, got %v", input, expectedKind, tok.Kind)
	}
	if tok.Value != expectedValue {
		t.Errorf("input %q: expected value %q, got %q", input, expectedValue, tok.Value)
	}
}

func expectTokens(t *testing.T, input string, expected []TokenKind) {
	t.Helper()
	l := New(input)
	for i, exp := range expected {
		tok := l.Next()
		if tok.Kind != exp {
			t.Errorf("input %q token %d: expected %v, got %v", input, i, exp, tok.Kind)
		}
	}
}

func expectError(t *testing.T, input string) {
	t.Helper()
	l := New(input)
	tok := l.Next()
	if tok.Kind != TokError {
		t.Errorf("input %q: expected error, got %v", input, tok.Kind)
	}
}

// ----------------------------------------------------------------------------
// Keyword Tests
// ----------------------------------------------------------------------------

func TestKeywords(t *testing.T) {
	for text, kind := range Keywords {
		expectTokenValue(t, text, kind, text)
	}
}

func TestReservedWords(t *testing.T) {
	expectError(t, "class")
	expectError(t, "let")
	expectError(t, "switch")
}

// ----------------------------------------------------------------------------
// Identifier Tests
// ----------------------------------------------------------------------------

func TestIdentifiers(t *testing.T) {
	expectTokenValue(t, "foo", TokIdent, "foo")
	expectTokenValue(t, "_bar", TokIdent, "_bar")
	expectTokenValue(t, "$", TokIdent, "$")
	expectTokenValue(t, "x$inline_0", TokIdent, "x$inline_0")
	expectTokenValue(t, "functional", TokIdent, "functional")
	expectTokenValue(t, "arguments", TokIdent, "arguments")
}

func TestIsIdentifier(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"a", true},
		{"$a1", true},
		{"1a", false},
		{"", false},
		{"var", false},
		{"class", false},
		{"a-b", false},
	}
	for _, c := range cases {
		if got := IsIdentifier(c.input); got != c.want {
			t.Errorf("IsIdentifier(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

// ----------------------------------------------------------------------------
// Literal Tests
// ----------------------------------------------------------------------------

func TestNumbers(t *testing.T) {
	expectTokenValue(t, "0", TokNumber, "0")
	expectTokenValue(t, "123", TokNumber, "123")
	expectTokenValue(t, "1.5", TokNumber, "1.5")
	expectTokenValue(t, ".5", TokNumber, ".5")
	expectTokenValue(t, "1e10", TokNumber, "1e10")
	expectTokenValue(t, "2.5E-3", TokNumber, "2.5E-3")
	expectTokenValue(t, "0xFF", TokNumber, "0xFF")
	expectError(t, "0x")
	expectError(t, "1e")
	expectError(t, "3in")
}

func TestStrings(t *testing.T) {
	expectTokenValue(t, `"hello"`, TokString, "hello")
	expectTokenValue(t, `'single'`, TokString, "single")
	expectTokenValue(t, `"a\"b"`, TokString, `a"b`)
	expectTokenValue(t, `'a\nb'`, TokString, "a\nb")
	expectTokenValue(t, `""`, TokString, "")
	expectError(t, `"unterminated`)
	expectError(t, "\"line\nbreak\"")
}

// ----------------------------------------------------------------------------
// Operator Tests
// ----------------------------------------------------------------------------

func TestOperators(t *testing.T) {
	cases := []struct {
		input string
		kind  TokenKind
	}{
		{"+", TokPlus},
		{"++", TokPlusPlus},
		{"+=", TokPlusEq},
		{"-", TokMinus},
		{"--", TokMinusMinus},
		{"===", TokEqEqEq},
		{"==", TokEqEq},
		{"=", TokEq},
		{"!==", TokBangEqEq},
		{"!=", TokBangEq},
		{"!", TokBang},
		{">>>=", TokGtGtGtEq},
		{">>>", TokGtGtGt},
		{">>=", TokGtGtEq},
		{">>", TokGtGt},
		{">=", TokGtEq},
		{"<<=", TokLtLtEq},
		{"&&", TokAmpAmp},
		{"||", TokPipePipe},
		{"?", TokQuestion},
		{":", TokColon},
	}
	for _, c := range cases {
		expectToken(t, c.input, c.kind)
	}
}

func TestAssignOps(t *testing.T) {
	if !TokEq.IsAssignOp() || !TokGtGtGtEq.IsAssignOp() {
		t.Error("expected assignment operators")
	}
	if TokEqEq.IsAssignOp() {
		t.Error("== is not an assignment operator")
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	expectError(t, "#")
	expectError(t, "@")
}

// ----------------------------------------------------------------------------
// Sequence Tests
// ----------------------------------------------------------------------------

func TestStatementSequence(t *testing.T) {
	expectTokens(t, "var x = f(1, 2);", []TokenKind{
		TokVar, TokIdent, TokEq, TokIdent, TokLParen, TokNumber, TokComma,
		TokNumber, TokRParen, TokSemicolon, TokEOF,
	})
	expectTokens(t, "f.call(this, a)", []TokenKind{
		TokIdent, TokDot, TokIdent, TokLParen, TokThis, TokComma, TokIdent,
		TokRParen, TokEOF,
	})
}

func TestComments(t *testing.T) {
	expectTokens(t, "a // line\n/* block\n */ b", []TokenKind{TokIdent, TokIdent, TokEOF})
	expectTokens(t, "/* unterminated", []TokenKind{TokEOF})
}

func TestNewlineBefore(t *testing.T) {
	toks := New("return\nx").Tokenize()
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(toks))
	}
	if toks[0].NewlineBefore {
		t.Error("first token should not have a newline before it")
	}
	if !toks[1].NewlineBefore {
		t.Error("expected newline before x")
	}

	toks = New("a /* x\ny */ b").Tokenize()
	if !toks[1].NewlineBefore {
		t.Error("newline inside a block comment should count")
	}
}

func TestTokenText(t *testing.T) {
	src := "foo + bar"
	toks := New(src).Tokenize()
	if got := toks[2].Text(src); got != "bar" {
		t.Errorf("expected bar, got %q", got)
	}
}
