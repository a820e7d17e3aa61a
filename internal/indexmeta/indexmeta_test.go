package indexmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddGetRoundTrip(t *testing.T) {
	var m Meta
	require.NoError(t, m.AddString([]byte("corpus"), "wikipedia-en"))
	require.NoError(t, m.AddUint64([]byte("doc_count"), 12345))

	got, ok := m.GetString([]byte("corpus"))
	require.True(t, ok)
	assert.Equal(t, "wikipedia-en", got)

	n, ok := m.GetUint64([]byte("doc_count"))
	require.True(t, ok)
	assert.Equal(t, uint64(12345), n)
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	var m Meta
	require.NoError(t, m.AddString([]byte("a"), "1"))
	require.NoError(t, m.AddString([]byte("b"), "2"))

	buf, err := m.MarshalBinary()
	require.NoError(t, err)

	var got Meta
	require.NoError(t, got.UnmarshalBinary(buf))
	assert.Equal(t, m.KeyVals, got.KeyVals)
}

func TestAddRejectsOversizedKeyOrValue(t *testing.T) {
	var m Meta
	bigKey := make([]byte, MaxKeySize+1)
	err := m.Add(bigKey, []byte("v"))
	require.Error(t, err)

	bigValue := make([]byte, MaxValueSize+1)
	err = m.Add([]byte("k"), bigValue)
	require.Error(t, err)
}
