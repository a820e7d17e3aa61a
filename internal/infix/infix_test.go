package infix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddKeywordEnumeratesInfixes(t *testing.T) {
	b := NewBuilder()
	b.AddKeyword([]byte("cats"), 7)

	for _, want := range []string{"ca", "at", "ts", "cat", "ats", "cats"} {
		ids := b.table[want]
		require.NotEmptyf(t, ids, "missing infix %q", want)
		assert.Equal(t, []int32{7}, ids)
	}
	// "catss" is not a substring of "cats", so nothing is recorded for it.
	assert.Empty(t, b.table["catss"])
}

func TestAddKeywordStripsMorphologyMarker(t *testing.T) {
	b := NewBuilder()
	b.AddKeyword([]byte("=run"), 1)
	assert.Contains(t, b.table, "ru")
	assert.NotContains(t, b.table, "=r")
}

func TestSaveAndLookupRoundTrip(t *testing.T) {
	b := NewBuilder()
	b.AddKeyword([]byte("cats"), 1)
	b.AddKeyword([]byte("dogs"), 2)
	b.AddKeyword([]byte("catalog"), 3)

	blob, headers := b.Save()
	require.NotEmpty(t, headers)

	ids, ok := Lookup(blob, headers, "cat")
	require.True(t, ok)
	assert.ElementsMatch(t, []int32{1, 3}, ids)

	_, ok = Lookup(blob, headers, "zzz")
	assert.False(t, ok)
}

func TestSaveMultipleBlocks(t *testing.T) {
	b := NewBuilder()
	for i := 0; i < 200; i++ {
		word := []byte{'a' + byte(i%26), 'a' + byte((i/26)%26), 'x', 'y'}
		b.AddKeyword(word, int32(i))
	}
	blob, headers := b.Save()
	assert.Greater(t, len(headers), 1)
	assert.NotEmpty(t, blob)
}
