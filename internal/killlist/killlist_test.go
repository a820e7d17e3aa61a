package killlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExistsAcrossSmallAndBulk(t *testing.T) {
	l := New()
	l.Add(5, 10, 15)
	assert.True(t, l.Exists(10))
	assert.False(t, l.Exists(11))

	l.flushLocked()
	assert.True(t, l.Exists(5))
	assert.Equal(t, 3, l.Len())
}

func TestAddFlushesOverCapacity(t *testing.T) {
	l := New()
	for i := uint64(0); i < SmallHashCap+10; i++ {
		l.Add(i)
	}
	// The 513th Add overflows the 512-entry small hash and flushes it; the
	// last 9 Adds land in the fresh small hash.
	assert.Equal(t, 9, len(l.small))
	assert.Equal(t, int(SmallHashCap+10), l.Len())
	assert.True(t, l.Exists(SmallHashCap+5))
}

func TestPersistAndLoadRoundTrip(t *testing.T) {
	l := New()
	l.Add(3, 1, 9, 9, 4)

	path := filepath.Join(t.TempDir(), "kill.spk")
	require.NoError(t, l.Persist(path))

	buf, err := os.ReadFile(path)
	require.NoError(t, err)

	loaded := Load(buf)
	assert.True(t, loaded.Exists(1))
	assert.True(t, loaded.Exists(3))
	assert.True(t, loaded.Exists(4))
	assert.True(t, loaded.Exists(9))
	assert.False(t, loaded.Exists(2))
	assert.Equal(t, 4, loaded.Len())
}

