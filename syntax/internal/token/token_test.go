package token

import (
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			"empty",
			"",
			nil,
		},
		{
			"parens",
			"()",
			[]Token{{"(", LParen, 1}, {")", RParen, 1}},
		},
		{
			"func",
			"(func)",
			[]Token{{"(", LParen, 1}, {"func", Ident, 1}, {")", RParen, 1}},
		},
		{
			"whitespace",
			"  (  func  )  ",
			[]Token{{"(", LParen, 1}, {"func", Ident, 1}, {")", RParen, 1}},
		},
		{
			"newlines",
			"(\nfunc\n)",
			[]Token{{"(", LParen, 1}, {"func", Ident, 2}, {")", RParen, 3}},
		},
		{
			"number",
			"42",
			[]Token{{"42", Number, 1}},
		},
		{
			"negative_number",
			"-42",
			[]Token{{"-42", Number, 1}},
		},
		{
			"float_exp",
			"1.5e-3",
			[]Token{{"1.5e-3", Number, 1}},
		},
		{
			"minus_operator",
			"(- a 1)",
			[]Token{{"(", LParen, 1}, {"-", Ident, 1}, {"a", Ident, 1}, {"1", Number, 1}, {")", RParen, 1}},
		},
		{
			"comparison_operators",
			"<= != ==",
			[]Token{{"<=", Ident, 1}, {"!=", Ident, 1}, {"==", Ident, 1}},
		},
		{
			"string",
			`"Hello, \"Ben\"!"`,
			[]Token{{`Hello, \"Ben\"!`, String, 1}},
		},
		{
			"line_comment",
			";; comment\nx",
			[]Token{{"x", Ident, 2}},
		},
		{
			"block_comment",
			"(; nested (; inner ;) ;) y",
			[]Token{{"y", Ident, 1}},
		},
		{
			"dotted_ident",
			"math.add",
			[]Token{{"math.add", Ident, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(tt.expected), tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("token %d: got %+v, want %+v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestTypeString(t *testing.T) {
	tests := map[Type]string{
		LParen: "'('",
		RParen: "')'",
		Ident:  "identifier",
		String: "string",
		Number: "number",
		99:     "unknown",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", typ, got, want)
		}
	}
}
