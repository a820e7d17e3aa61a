package idf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTable(t *testing.T, entries []Entry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idf.spi")
	require.NoError(t, os.WriteFile(path, Build(entries), 0o644))
	return path
}

func TestLookupSmallTable(t *testing.T) {
	path := writeTable(t, []Entry{
		{WordID: 10, DocCount: 4},
		{WordID: 20, DocCount: 9},
		{WordID: 30, DocCount: 1},
	})
	tbl, err := Open(path, 100)
	require.NoError(t, err)
	defer tbl.Close()

	docs, ok := tbl.Lookup(20)
	require.True(t, ok)
	assert.Equal(t, uint32(9), docs)

	_, ok = tbl.Lookup(25)
	assert.False(t, ok)
}

func TestLookupLargeTableUsesShiftIndex(t *testing.T) {
	var entries []Entry
	for i := uint64(0); i < 4096; i++ {
		entries = append(entries, Entry{WordID: i * 3, DocCount: uint32(i%50) + 1})
	}
	path := writeTable(t, entries)
	tbl, err := Open(path, 10000)
	require.NoError(t, err)
	defer tbl.Close()

	require.NotNil(t, tbl.index)

	docs, ok := tbl.Lookup(300)
	require.True(t, ok)
	assert.Equal(t, uint32(1), docs) // word 300 is index 100; (100%50)+1 == 1

	_, ok = tbl.Lookup(301)
	assert.False(t, ok)
}

func TestPlainAndNonPlainIDFFormulas(t *testing.T) {
	plain := PlainIDF(1000, 10)
	nonPlain := NonPlainIDF(1000, 10)
	assert.Greater(t, plain, 0.0)
	assert.Greater(t, nonPlain, 0.0)
	assert.NotEqual(t, plain, nonPlain)
}

func TestCachedTableServesFromCache(t *testing.T) {
	path := writeTable(t, []Entry{{WordID: 1, DocCount: 7}})
	tbl, err := Open(path, 50)
	require.NoError(t, err)
	cached := NewCachedTable(tbl, 16, time.Minute)
	defer cached.Close()

	docs, ok := cached.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, uint32(7), docs)

	docs, ok = cached.Lookup(1) // second call hits the cache path
	require.True(t, ok)
	assert.Equal(t, uint32(7), docs)
}
