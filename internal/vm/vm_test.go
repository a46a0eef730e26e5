package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonanalytic/stratum/internal/bytecode"
	"github.com/horizonanalytic/stratum/internal/vm"
)

// buildScript assembles a top-level chunk: push constants / run ops, then
// Return. Tests wire a handful of opcodes directly since internal/compiler
// is the package responsible for real source-to-bytecode lowering.
func buildScript(build func(c *bytecode.Chunk)) *bytecode.Chunk {
	c := bytecode.NewChunk("<test>")
	build(c)
	c.WriteOp(bytecode.Return, 1)
	return c
}

func TestArithmeticPrecedence(t *testing.T) {
	// 1 + 2 * 3 == 7
	c := buildScript(func(c *bytecode.Chunk) {
		c.WriteConstant(int64(1), 1)
		c.WriteConstant(int64(2), 1)
		c.WriteConstant(int64(3), 1)
		c.WriteOp(bytecode.Mul, 1)
		c.WriteOp(bytecode.Add, 1)
	})
	machine := vm.New()
	result, err := machine.Run(c)
	require.NoError(t, err)
	assert.Equal(t, int64(7), result)
}

func TestDivisionByZero(t *testing.T) {
	c := buildScript(func(c *bytecode.Chunk) {
		c.WriteConstant(int64(1), 1)
		c.WriteConstant(int64(0), 1)
		c.WriteOp(bytecode.Div, 1)
	})
	machine := vm.New()
	_, err := machine.Run(c)
	require.Error(t, err)
	rerr, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	assert.Equal(t, vm.ErrDivisionByZero, rerr.Kind)
}

func TestTryCatchCatchesThrow(t *testing.T) {
	// push-handler, throw "boom", catch: leaves caught value on stack.
	c := bytecode.NewChunk("<test>")
	handlerIdx := c.WriteOp(bytecode.PushHandler, 1)
	c.WriteU16(0, 1) // catchIP placeholder, patched below
	c.WriteU16(0xFFFF, 1)
	c.WriteConstant("boom", 1)
	c.WriteOp(bytecode.Throw, 1)
	catchIP := len(c.Code)
	c.PatchU16(handlerIdx+1, uint16(catchIP))
	c.WriteOp(bytecode.Return, 1)

	machine := vm.New()
	result, err := machine.Run(c)
	require.NoError(t, err)
	assert.Equal(t, "boom", result)
}

