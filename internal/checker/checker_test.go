package checker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonanalytic/stratum/internal/checker"
	"github.com/horizonanalytic/stratum/internal/lexer"
	"github.com/horizonanalytic/stratum/internal/parser"
)

func checkSrc(t *testing.T, src string) *checker.Result {
	t.Helper()
	toks, diags := lexer.Lex(src)
	require.False(t, diags.HasErrors())
	mod, diags := parser.ParseModule(toks)
	require.False(t, diags.HasErrors(), "%v", diags.Items())
	res, diags := checker.Check(mod)
	require.False(t, diags.HasErrors(), "%v", diags.Items())
	return res
}

func checkSrcErrors(t *testing.T, src string) []string {
	t.Helper()
	toks, diags := lexer.Lex(src)
	require.False(t, diags.HasErrors())
	mod, diags := parser.ParseModule(toks)
	require.False(t, diags.HasErrors())
	_, diags = checker.Check(mod)
	var codes []string
	for _, d := range diags.Items() {
		codes = append(codes, string(d.Code))
	}
	return codes
}

func TestFunctionReturnTypeOK(t *testing.T) {
	checkSrc(t, `fx add(a: Int, b: Int) -> Int { a + b }`)
}

func TestFunctionReturnTypeMismatch(t *testing.T) {
	codes := checkSrcErrors(t, `fx add(a: Int, b: Int) -> Int { "nope" }`)
	assert.Contains(t, codes, string(checker.ErrReturnTypeMismatch))
}

func TestUndefinedVariable(t *testing.T) {
	codes := checkSrcErrors(t, `fx f() -> Int { x + 1 }`)
	assert.Contains(t, codes, string(checker.ErrUndefinedVariable))
}

func TestStructInitMissingField(t *testing.T) {
	codes := checkSrcErrors(t, `
struct Point { x: Int, y: Int }
fx f() -> Point { Point { x: 1 } }
`)
	assert.Contains(t, codes, string(checker.ErrMissingField))
}

func TestStructInitExtraField(t *testing.T) {
	codes := checkSrcErrors(t, `
struct Point { x: Int, y: Int }
fx f() -> Point { Point { x: 1, y: 2, z: 3 } }
`)
	assert.Contains(t, codes, string(checker.ErrExtraField))
}

func TestNullableNarrowingInThenBranch(t *testing.T) {
	checkSrc(t, `
fx f(x: Int?) -> Int {
	if x != null {
		x + 1
	} else {
		0
	}
}
`)
}

func TestEnumVariantArgumentCountMismatch(t *testing.T) {
	codes := checkSrcErrors(t, `
enum Option { Some(Int), None }
fx f() -> Option { Option.Some(1, 2) }
`)
	assert.Contains(t, codes, string(checker.ErrWrongArgumentCount))
}

func TestMatchArmsIncompatibleTypes(t *testing.T) {
	codes := checkSrcErrors(t, `
enum Option { Some(Int), None }
fx f(o: Option) -> Int {
	match o {
		Option.Some(v) => v,
		Option.None => "zero",
	}
}
`)
	assert.Contains(t, codes, string(checker.ErrIncompatibleBranches))
}

func TestAwaitOutsideAsyncFunction(t *testing.T) {
	codes := checkSrcErrors(t, `
fx slow() -> Int { 1 }
fx f() -> Int { await slow() }
`)
	assert.Contains(t, codes, string(checker.ErrAwaitOutsideAsync))
}

func TestPlaceholderOutsidePipe(t *testing.T) {
	codes := checkSrcErrors(t, `fx f() -> Int { _ }`)
	assert.Contains(t, codes, string(checker.ErrPlaceholderOutsidePipe))
}
