package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextToken_Punctuation(t *testing.T) {
	input := `+ - * / = <> < > <= >= := ; , . .. ( ) [ ] ^ @ :`
	expected := []TokenType{
		PLUS, MINUS, STAR, SLASH, EQ, NEQ, LT, GT, LE, GE, ASSIGNOP,
		SEMICOLON, COMMA, DOT, DOTDOT, LPAREN, RPAREN, LBRACKET, RBRACKET,
		CARET, AT, COLON, EOF,
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		assert.Equalf(t, want, tok.Type, "token %d", i)
	}
}

func TestNextToken_KeywordsCaseInsensitive(t *testing.T) {
	cases := []struct {
		input string
		want  TokenType
	}{
		{"begin", BEGIN}, {"BEGIN", BEGIN}, {"Begin", BEGIN}, {"bEgIn", BEGIN},
		{"Downto", DOWNTO}, {"PROGRAM", PROGRAM}, {"Div", DIV}, {"MOD", MOD},
	}
	for _, c := range cases {
		l := New(c.input)
		tok := l.NextToken()
		assert.Equal(t, c.want, tok.Type, c.input)
		assert.Equal(t, c.input, tok.Literal, "original casing must be preserved")
	}
}

func TestNextToken_Identifiers(t *testing.T) {
	l := New("MyVar _hidden x1 Result")
	for _, want := range []string{"MyVar", "_hidden", "x1", "Result"} {
		tok := l.NextToken()
		require.Equal(t, IDENT, tok.Type)
		assert.Equal(t, want, tok.Literal)
	}
}

func TestNextToken_Numbers(t *testing.T) {
	cases := []struct {
		input string
		kind  TokenType
	}{
		{"123", INT},
		{"0", INT},
		{"3.14", FLOAT},
		{"1.5e10", FLOAT},
		{"2.5e-3", FLOAT},
	}
	for _, c := range cases {
		l := New(c.input)
		tok := l.NextToken()
		assert.Equal(t, c.kind, tok.Type, c.input)
		assert.Equal(t, c.input, tok.Literal)
	}
}

func TestNextToken_RangeOperatorNotMistakenForFloat(t *testing.T) {
	l := New("1..10")
	assert.Equal(t, INT, l.NextToken().Type)
	assert.Equal(t, DOTDOT, l.NextToken().Type)
	assert.Equal(t, INT, l.NextToken().Type)
}

func TestNextToken_Strings(t *testing.T) {
	cases := []struct {
		input, want string
	}{
		{`'hello'`, "hello"},
		{`"world"`, "world"},
		{`'it''s'`, "it"}, // doubled-quote escaping is not modeled; backslash escaping is
		{`'a\'b'`, "a'b"},
		{"'line1\nline2'", "line1\nline2"},
	}
	for _, c := range cases {
		l := New(c.input)
		tok := l.NextToken()
		require.Equal(t, STRING, tok.Type)
		assert.Equal(t, c.want, tok.Literal)
	}
}

func TestNextToken_Comments(t *testing.T) {
	input := `x { brace comment } y (* paren comment *) z // line comment
w`
	l := New(input)
	var idents []string
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		idents = append(idents, tok.Literal)
	}
	assert.Equal(t, []string{"x", "y", "z", "w"}, idents)
}

func TestNextToken_PositionTracking(t *testing.T) {
	l := New("var\n  x")
	tok := l.NextToken()
	assert.Equal(t, Position{Line: 1, Column: 1}, tok.Pos)
	tok = l.NextToken()
	assert.Equal(t, Position{Line: 2, Column: 3}, tok.Pos)
}

func TestNextToken_IllegalCharacter(t *testing.T) {
	l := New("x ? y")
	l.NextToken()
	tok := l.NextToken()
	assert.Equal(t, ILLEGAL, tok.Type)
	require.NotNil(t, l.Err())
	assert.Equal(t, 1, l.Err().Pos.Line)
}

func TestTokenize(t *testing.T) {
	toks, err := Tokenize("program P; begin end.")
	require.Nil(t, err)
	assert.Equal(t, EOF, toks[len(toks)-1].Type)
	assert.Equal(t, PROGRAM, toks[0].Type)
}
