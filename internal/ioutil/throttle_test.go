package ioutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottleDisabledByDefault(t *testing.T) {
	th := NewThrottle(0, 0)
	th.Before(1 << 20)
	th.Before(1 << 20)
}

func TestThrottleCapsIOPS(t *testing.T) {
	th := NewThrottle(2, 0)
	var slept time.Duration
	cur := time.Now()
	th.now = func() time.Time { return cur }
	th.sleep = func(d time.Duration) {
		slept += d
		cur = cur.Add(d)
	}
	th.windowStart = cur

	th.Before(1)
	th.Before(1)
	// Third call in the same window exceeds maxIOPS and must sleep until the
	// window rolls over.
	th.Before(1)
	assert.Positive(t, slept)
}

func TestWriterOffsetsAndContent(t *testing.T) {
	dir := t.TempDir()
	w, err := CreateWriter(filepath.Join(dir, "f.bin"), nil)
	require.NoError(t, err)

	off, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), off)

	off2, err := w.Write([]byte("world"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), off2)

	require.NoError(t, w.CloseAndFinalize())

	data, err := os.ReadFile(filepath.Join(dir, "f.bin"))
	require.NoError(t, err)
	assert.Equal(t, "helloworld", string(data))
}
