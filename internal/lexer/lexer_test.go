package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonanalytic/stratum/internal/lexer"
	"github.com/horizonanalytic/stratum/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	var out []token.Kind
	for _, t := range toks {
		if t.Kind.IsTrivia() {
			continue
		}
		out = append(out, t.Kind)
	}
	return out
}

func TestLexArithmetic(t *testing.T) {
	toks, diags := lexer.Lex("1 + 2 * 3")
	require.False(t, diags.HasErrors())
	assert.Equal(t, []token.Kind{token.INT, token.PLUS, token.INT, token.STAR, token.INT, token.EOF}, kinds(toks))
}

func TestLexKeywordsAndIdent(t *testing.T) {
	toks, diags := lexer.Lex("let mut x = fx")
	require.False(t, diags.HasErrors())
	assert.Equal(t, []token.Kind{token.LET, token.MUT, token.IDENT, token.ASSIGN, token.FX, token.EOF}, kinds(toks))
}

func TestLexNumberForms(t *testing.T) {
	toks, diags := lexer.Lex("0xFF 0b101 0o17 1_000 3.14 2e10")
	require.False(t, diags.HasErrors())
	got := kinds(toks)
	want := []token.Kind{
		token.HEX_INT, token.BINARY_INT, token.OCTAL_INT, token.INT, token.FLOAT, token.FLOAT, token.EOF,
	}
	assert.Equal(t, want, got)
}

func TestLexSimpleString(t *testing.T) {
	toks, diags := lexer.Lex(`"hello"`)
	require.False(t, diags.HasErrors())
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, "hello", toks[0].Literal)
}

func TestLexInterpolatedString(t *testing.T) {
	toks, diags := lexer.Lex(`"sum is ${a + b}!"`)
	require.False(t, diags.HasErrors())
	got := kinds(toks)
	want := []token.Kind{
		token.STRING_START, token.INTERP_START,
		token.IDENT, token.PLUS, token.IDENT,
		token.INTERP_END, token.STRING_END, token.EOF,
	}
	assert.Equal(t, want, got)
}

func TestLexNestedInterpolationBraces(t *testing.T) {
	toks, diags := lexer.Lex(`"${ { 1 } }"`)
	require.False(t, diags.HasErrors())
	got := kinds(toks)
	want := []token.Kind{
		token.STRING_START, token.INTERP_START,
		token.LBRACE, token.INT, token.RBRACE,
		token.INTERP_END, token.STRING_END, token.EOF,
	}
	assert.Equal(t, want, got)
}

func TestLexPipeAndNullCoalesce(t *testing.T) {
	toks, _ := lexer.Lex("x |> f ?? 0")
	assert.Equal(t, []token.Kind{token.IDENT, token.PIPE_GT, token.IDENT, token.NULL_COALESCE, token.INT, token.EOF}, kinds(toks))
}

func TestLexUnterminatedStringReportsDiagnostic(t *testing.T) {
	_, diags := lexer.Lex(`"abc`)
	assert.True(t, diags.HasErrors())
}

func TestLexLineAndBlockComments(t *testing.T) {
	toks, diags := lexer.Lex("// comment\n/* block /* nested */ still */ 1")
	require.False(t, diags.HasErrors())
	assert.Equal(t, []token.Kind{token.INT, token.EOF}, kinds(toks))
}
