package exceptions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupExactAndMissingRules(t *testing.T) {
	b := NewBuilder()
	b.Add([]byte("c++"), []byte("cpp"))
	b.Add([]byte("c#"), []byte("csharp"))
	b.Add([]byte("co"), []byte("company")) // shares prefix "c" with both above

	blob := b.Finalize()

	got, ok := Lookup(blob, []byte("c++"))
	require.True(t, ok)
	assert.Equal(t, "cpp", string(got))

	got, ok = Lookup(blob, []byte("c#"))
	require.True(t, ok)
	assert.Equal(t, "csharp", string(got))

	_, ok = Lookup(blob, []byte("c"))
	assert.False(t, ok, "prefix \"c\" was never registered as its own rule")

	_, ok = Lookup(blob, []byte("zzz"))
	assert.False(t, ok)
}

func TestLookupEmptyTrie(t *testing.T) {
	b := NewBuilder()
	blob := b.Finalize()
	_, ok := Lookup(blob, []byte("anything"))
	assert.False(t, ok)
}

func TestOverwriteRule(t *testing.T) {
	b := NewBuilder()
	b.Add([]byte("x"), []byte("first"))
	b.Add([]byte("x"), []byte("second"))
	blob := b.Finalize()
	got, ok := Lookup(blob, []byte("x"))
	require.True(t, ok)
	assert.Equal(t, "second", string(got))
}
