package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonanalytic/stratum/internal/bytecode"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleChunk() *bytecode.Chunk {
	chunk := bytecode.NewChunk("test.strat")
	chunk.WriteConstant(int64(42), 1)
	chunk.WriteOp(bytecode.Return, 1)
	return chunk
}

func TestKeyIsStableAndVersionSensitive(t *testing.T) {
	a := Key("fx main(){}", "0.1.0")
	b := Key("fx main(){}", "0.1.0")
	c := Key("fx main(){}", "0.2.0")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestPutThenGetRoundTrips(t *testing.T) {
	c := openTestCache(t)
	key := Key("fx main(){}", "0.1.0")

	_, ok, err := c.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)

	chunk := sampleChunk()
	require.NoError(t, c.Put(key, chunk, 1000))

	got, ok, err := c.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, chunk.SourceName, got.SourceName)
	assert.Equal(t, chunk.Constants, got.Constants)
	assert.Equal(t, chunk.Code, got.Code)
}

func TestGetOrCompileCallsCompileOnlyOnMiss(t *testing.T) {
	c := openTestCache(t)
	key := Key("fx main(){}", "0.1.0")
	calls := 0

	compile := func() (*bytecode.Chunk, error) {
		calls++
		return sampleChunk(), nil
	}

	chunk1, err := c.GetOrCompile(key, 1, compile)
	require.NoError(t, err)
	chunk2, err := c.GetOrCompile(key, 1, compile)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, chunk1.Code, chunk2.Code)
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	c := openTestCache(t)
	key := Key("fx main(){}", "0.1.0")

	require.NoError(t, c.Put(key, sampleChunk(), 1))

	updated := bytecode.NewChunk("updated.strat")
	updated.WriteOp(bytecode.Return, 1)
	require.NoError(t, c.Put(key, updated, 2))

	got, ok, err := c.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "updated.strat", got.SourceName)
}
