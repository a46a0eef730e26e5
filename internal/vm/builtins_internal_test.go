package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonanalytic/stratum/internal/bytecode"
)

// doublingClosure builds `fn(x) { return x * 2 }` directly as bytecode, for
// exercising the higher-order List methods without going through the
// compiler.
func doublingClosure() *Closure {
	chunk := bytecode.NewChunk("<double>")
	chunk.WriteOp(bytecode.LoadLocal, 1)
	chunk.WriteByte(1, 1)
	chunk.WriteConstant(int64(2), 1)
	chunk.WriteOp(bytecode.Mul, 1)
	chunk.WriteOp(bytecode.Return, 1)
	return &Closure{Function: &Function{Name: "double", Arity: 1, Chunk: chunk}}
}

// isEvenClosure builds `fn(x) { return x % 2 == 0 }`.
func isEvenClosure() *Closure {
	chunk := bytecode.NewChunk("<is_even>")
	chunk.WriteOp(bytecode.LoadLocal, 1)
	chunk.WriteByte(1, 1)
	chunk.WriteConstant(int64(2), 1)
	chunk.WriteOp(bytecode.Mod, 1)
	chunk.WriteConstant(int64(0), 1)
	chunk.WriteOp(bytecode.Eq, 1)
	chunk.WriteOp(bytecode.Return, 1)
	return &Closure{Function: &Function{Name: "is_even", Arity: 1, Chunk: chunk}}
}

func TestListMap(t *testing.T) {
	machine := New()
	l := &List{Items: []Value{int64(1), int64(2), int64(3)}}
	result, err := machine.invokeList(l, "map", []Value{doublingClosure()})
	require.NoError(t, err)
	assert.Equal(t, []Value{int64(2), int64(4), int64(6)}, result.(*List).Items)
}

func TestListFilterThenReducePipeline(t *testing.T) {
	machine := New()
	l := &List{Items: []Value{int64(1), int64(2), int64(3), int64(4)}}
	filtered, err := machine.invokeList(l, "filter", []Value{isEvenClosure()})
	require.NoError(t, err)

	sumChunk := bytecode.NewChunk("<sum>")
	sumChunk.WriteOp(bytecode.LoadLocal, 1)
	sumChunk.WriteByte(1, 1)
	sumChunk.WriteOp(bytecode.LoadLocal, 1)
	sumChunk.WriteByte(2, 1)
	sumChunk.WriteOp(bytecode.Add, 1)
	sumChunk.WriteOp(bytecode.Return, 1)
	sum := &Closure{Function: &Function{Name: "sum", Arity: 2, Chunk: sumChunk}}

	total, err := machine.invokeList(filtered.(*List), "reduce", []Value{sum, int64(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
}

func TestMapSetAndGet(t *testing.T) {
	m := NewMap()
	machine := New()
	_, err := machine.invokeMap(m, "set", []Value{"a", int64(1)})
	require.NoError(t, err)
	v, err := machine.invokeMap(m, "get", []Value{"a"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestHashKeyRejectsUnhashable(t *testing.T) {
	_, err := HashKey(&List{})
	require.Error(t, err)
}
