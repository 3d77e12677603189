package lexer

import "testing"

func TestNextTokenRecognizesKeywordsAndPunctuation(t *testing.T) {
	input := `mechanism density leak { parameter gbar: [S/cm2] = 0.0003; }`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{MECHANISM, "mechanism"},
		{DENSITY, "density"},
		{IDENT, "leak"},
		{LBRACE, "{"},
		{PARAMETER, "parameter"},
		{IDENT, "gbar"},
		{COLON, ":"},
		{LBRACK, "["},
		{IDENT, "S"},
		{SLASH, "/"},
		{IDENT, "cm2"},
		{RBRACK, "]"},
		{ASSIGN, "="},
		{FLOAT, "0.0003"},
		{SEMI, ";"},
		{RBRACE, "}"},
		{EOF, ""},
	}

	l := New(input)
	for i, want := range tests {
		tok := l.NextToken()
		if tok.Type != want.expectedType {
			t.Fatalf("token %d: type = %v, want %v (literal %q)", i, tok.Type, want.expectedType, tok.Literal)
		}
		if tok.Literal != want.expectedLiteral {
			t.Fatalf("token %d: literal = %q, want %q", i, tok.Literal, want.expectedLiteral)
		}
	}
}

func TestNextTokenRecognizesPrimeAndComparisons(t *testing.T) {
	input := `m' <= n >= 1 == 2 != 3`
	tests := []TokenType{IDENT, PRIME, LE, IDENT, GE, INT, EQ, INT, NE, INT, EOF}

	l := New(input)
	for i, want := range tests {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: type = %v, want %v", i, tok.Type, want)
		}
	}
}

func TestNextTokenReportsPosition(t *testing.T) {
	l := New("a\nb")
	first := l.NextToken()
	if first.Pos.Line != 1 || first.Pos.Column != 1 {
		t.Fatalf("first token position = %+v, want line 1 col 1", first.Pos)
	}
	second := l.NextToken()
	if second.Pos.Line != 2 {
		t.Fatalf("second token line = %d, want 2", second.Pos.Line)
	}
}

func TestLookupIdentClassifiesKeywords(t *testing.T) {
	if LookupIdent("evolve") != EVOLVE {
		t.Error("expected \"evolve\" to classify as EVOLVE")
	}
	if LookupIdent("gbar") != IDENT {
		t.Error("expected an unrecognized name to classify as IDENT")
	}
}
