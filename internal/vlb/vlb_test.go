package vlb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripU32(t *testing.T) {
	vals := []uint32{0, 1, 127, 128, 129, 16383, 16384, 1 << 20, 1<<32 - 1}
	for _, v := range vals {
		buf := PutU32(nil, v)
		got, n := GetU32(buf)
		require.NotZero(t, n)
		assert.Equal(t, v, got)
		assert.LessOrEqual(t, len(buf), MaxBytes32)
	}
}

func TestRoundTripU64(t *testing.T) {
	vals := []uint64{0, 1, 127, 128, 1 << 40, 1<<64 - 1}
	for _, v := range vals {
		buf := PutU64(nil, v)
		got, n := GetU64(buf)
		require.NotZero(t, n)
		assert.Equal(t, v, got)
	}
}

func TestReaderSequence(t *testing.T) {
	var buf []byte
	buf = PutU32(buf, 10)
	buf = PutU32(buf, 200)
	buf = PutU32(buf, 0)
	r := NewReader(buf)
	assert.Equal(t, uint32(10), r.U32())
	assert.Equal(t, uint32(200), r.U32())
	assert.Equal(t, uint32(0), r.U32())
	assert.False(t, r.Remaining())
}

func TestKeywordRoundTrip(t *testing.T) {
	var buf []byte
	buf = PutKeyword(buf, []byte("hello"))
	buf = PutKeyword(buf, nil)
	kw, n := Keyword(buf)
	assert.Equal(t, []byte("hello"), kw)
	rest := buf[n:]
	kw2, n2 := Keyword(rest)
	assert.Empty(t, kw2)
	assert.Equal(t, 1, n2)
}

func TestShortBufferIsZero(t *testing.T) {
	v, n := GetU32([]byte{0x80, 0x80})
	assert.Zero(t, v)
	assert.Zero(t, n)
}
