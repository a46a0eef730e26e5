package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonanalytic/stratum/internal/ast"
	"github.com/horizonanalytic/stratum/internal/lexer"
	"github.com/horizonanalytic/stratum/internal/parser"
)

func parseExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	toks, diags := lexer.Lex(src)
	require.False(t, diags.HasErrors())
	e, diags := parser.ParseExpression(toks)
	require.False(t, diags.HasErrors(), "%v", diags.Items())
	return e
}

func TestPrecedenceAddMul(t *testing.T) {
	e := parseExpr(t, "1 + 2 * 3")
	bin := e.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpAdd, bin.Op)
	rhs := bin.Right.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpMul, rhs.Op)
}

func TestPrecedenceLeftAssociative(t *testing.T) {
	e := parseExpr(t, "1 - 2 - 3")
	bin := e.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpSub, bin.Op)
	lhs := bin.Left.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpSub, lhs.Op)
	assert.Equal(t, int64(1), lhs.Left.(*ast.Literal).Value)
}

func TestPipeWithPlaceholder(t *testing.T) {
	e := parseExpr(t, "x |> f(_, 2)")
	bin := e.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpPipe, bin.Op)
	call := bin.Right.(*ast.CallExpr)
	_, isPlaceholder := call.Args[0].(*ast.Placeholder)
	assert.True(t, isPlaceholder)
}

func TestStructInitVsBlockDisambiguation(t *testing.T) {
	e := parseExpr(t, "Point { x: 1, y: 2 }")
	si, ok := e.(*ast.StructInitExpr)
	require.True(t, ok)
	assert.Equal(t, "Point", si.TypeName)
	assert.Len(t, si.Fields, 2)
}

func TestIdentFollowedByEmptyBraceIsBlockNotStruct(t *testing.T) {
	toks, _ := lexer.Lex("fx f() { if x {} }")
	mod, diags := parser.ParseModule(toks)
	require.False(t, diags.HasErrors())
	_ = mod
}

func TestLambdaBarForm(t *testing.T) {
	e := parseExpr(t, "|x| x + 1")
	lam := e.(*ast.LambdaExpr)
	require.Len(t, lam.Params, 1)
	assert.Equal(t, "x", lam.Params[0].Name)
}

func TestMatchEnumVariantPattern(t *testing.T) {
	e := parseExpr(t, `match opt { Option.Some(v) => v, Option.None => 0 }`)
	m := e.(*ast.MatchExpr)
	require.Len(t, m.Arms, 2)
	vp := m.Arms[0].Pattern.(*ast.VariantPattern)
	assert.Equal(t, "Option", vp.EnumName)
	assert.Equal(t, "Some", vp.VariantName)
}

func TestInterpolatedStringParses(t *testing.T) {
	e := parseExpr(t, `"sum is ${a + b}!"`)
	si := e.(*ast.StringInterpExpr)
	require.Len(t, si.Parts, 3)
	assert.Equal(t, "sum is ", si.Parts[0].Literal)
	assert.NotNil(t, si.Parts[1].Expr)
	assert.Equal(t, "!", si.Parts[2].Literal)
}

func TestFunctionItemParses(t *testing.T) {
	toks, _ := lexer.Lex(`fx add(a: Int, b: Int) -> Int { a + b }`)
	mod, diags := parser.ParseModule(toks)
	require.False(t, diags.HasErrors())
	require.Len(t, mod.Items, 1)
	fn := mod.Items[0].(*ast.FunctionItem)
	assert.Equal(t, "add", fn.Name)
	assert.Len(t, fn.Params, 2)
}
