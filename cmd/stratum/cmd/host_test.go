package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunEndToEndFactorial(t *testing.T) {
	chunk, err := compileSource(
		"fx fact(n: Int) -> Int { if n <= 1 { 1 } else { n * fact(n - 1) } } fx main() { fact(5) }",
		"fact.strat",
	)
	require.NoError(t, err)

	machine := newHostVM()
	result, err := machine.Run(chunk)
	require.NoError(t, err)
	assert.Equal(t, int64(120), result)
}

func TestRunPrintsThroughPrintlnNative(t *testing.T) {
	chunk, err := compileSource("fx main() { println(1 + 2 * 3) }", "println.strat")
	require.NoError(t, err)

	machine := newHostVM()
	_, err = machine.Run(chunk)
	require.NoError(t, err)
}
