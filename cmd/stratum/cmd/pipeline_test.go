package cmd

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonanalytic/stratum/internal/bytecode"
)

func TestCompileSourceSucceedsOnValidProgram(t *testing.T) {
	chunk, err := compileSource("fx main() { println(1 + 2 * 3) }", "valid.strat")
	require.NoError(t, err)
	assert.NotEmpty(t, chunk.Code)
}

func TestCompileSourceReportsParseErrors(t *testing.T) {
	_, err := compileSource("fx main() { let x = ; }", "broken.strat")
	assert.Error(t, err)
}

func TestDisassembleFactorialSnapshot(t *testing.T) {
	chunk, err := compileSource(
		"fx fact(n: Int) -> Int { if n <= 1 { 1 } else { n * fact(n - 1) } }",
		"fact.strat",
	)
	require.NoError(t, err)
	snaps.MatchSnapshot(t, "fact_disasm", bytecode.Disassemble(chunk, "fact.strat"))
}
