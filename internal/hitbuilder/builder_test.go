package hitbuilder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcpool/sphx-index/internal/vlb"
)

func newBuilder(t *testing.T, opts Options) (*Builder, string) {
	t.Helper()
	dir := t.TempDir()
	b, err := New(
		filepath.Join(dir, "new.spd"),
		filepath.Join(dir, "new.spp"),
		filepath.Join(dir, "new.spe"),
		opts,
	)
	require.NoError(t, err)
	return b, dir
}

// TestScenario1 matches spec.md §8 scenario 1: two words, the first with
// two docs (one of them two hits, inline format, hitless none).
func TestScenario1(t *testing.T) {
	b, dir := newBuilder(t, Options{InlineHitFormat: true})

	hits := []Hit{
		{WordID: 10, DocID: 1, WordPos: MakeWordPos(0, 1)},
		{WordID: 10, DocID: 1, WordPos: MakeWordPos(0, 5)},
		{WordID: 10, DocID: 2, WordPos: MakeWordPos(0, 1)},
		{WordID: 11, DocID: 1, WordPos: MakeWordPos(0, 1)},
	}
	for _, h := range hits {
		require.NoError(t, b.Feed(h, 0))
	}
	require.NoError(t, b.Feed(Hit{}, 0))
	require.NoError(t, b.CloseAndFinalize())

	entries := b.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(10), entries[0].WordID)
	assert.Equal(t, uint32(2), entries[0].DocCount)
	assert.Equal(t, uint32(3), entries[0].HitCount)
	assert.Equal(t, uint64(11), entries[1].WordID)
	assert.Equal(t, uint32(1), entries[1].DocCount)
	assert.Equal(t, uint32(1), entries[1].HitCount)

	hitlist, err := os.ReadFile(filepath.Join(dir, "new.spp"))
	require.NoError(t, err)
	r := vlb.NewReader(hitlist)
	// Word 10's doc 1 has 2 hits: deltas [1, 4] then FIELDEND on the
	// last, then terminator 0.
	assert.Equal(t, uint32(1), r.U32())
	assert.Equal(t, uint32(4)|FieldEndMask, r.U32())
	assert.Equal(t, uint32(0), r.U32())
	// Word 10's doc 2 and word 11's doc 1 are single-hit docs: inline
	// format skips the hitlist entirely, so no further bytes remain.
	assert.False(t, r.Remaining())
}

func TestSkiplistOmittedUnder129Docs(t *testing.T) {
	b, _ := newBuilder(t, Options{InlineHitFormat: true})
	for d := uint64(1); d <= 128; d++ {
		require.NoError(t, b.Feed(Hit{WordID: 1, DocID: d, WordPos: MakeWordPos(0, 1)}, 0))
	}
	require.NoError(t, b.Feed(Hit{}, 0))
	require.NoError(t, b.CloseAndFinalize())

	entries := b.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(128), entries[0].DocCount)
	assert.Zero(t, entries[0].SkiplistOffset)
}

func TestSkiplistPresentOver128Docs(t *testing.T) {
	b, dir := newBuilder(t, Options{InlineHitFormat: true})
	for d := uint64(1); d <= 129; d++ {
		require.NoError(t, b.Feed(Hit{WordID: 1, DocID: d, WordPos: MakeWordPos(0, 1)}, 0))
	}
	require.NoError(t, b.Feed(Hit{}, 0))
	require.NoError(t, b.CloseAndFinalize())

	entries := b.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(129), entries[0].DocCount)

	fi, err := os.Stat(filepath.Join(dir, "new.spe"))
	require.NoError(t, err)
	assert.Positive(t, fi.Size())
}

func TestDuplicateHitIsDiscarded(t *testing.T) {
	b, _ := newBuilder(t, Options{InlineHitFormat: false})
	require.NoError(t, b.Feed(Hit{WordID: 1, DocID: 1, WordPos: MakeWordPos(0, 5)}, 0))
	require.NoError(t, b.Feed(Hit{WordID: 1, DocID: 1, WordPos: MakeWordPos(0, 5)}, 0))
	require.NoError(t, b.Feed(Hit{}, 0))
	require.NoError(t, b.CloseAndFinalize())

	entries := b.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(1), entries[0].HitCount)
}

func TestPositionDecreaseIsFatal(t *testing.T) {
	b, _ := newBuilder(t, Options{})
	require.NoError(t, b.Feed(Hit{WordID: 1, DocID: 1, WordPos: MakeWordPos(0, 5)}, 0))
	err := b.Feed(Hit{WordID: 1, DocID: 1, WordPos: MakeWordPos(0, 2)}, 0)
	require.Error(t, err)
	// Sticky: further feeds return the same error.
	err2 := b.Feed(Hit{}, 0)
	assert.Equal(t, err, err2)
}

func TestHitlessAllRecordsCountsNotPositions(t *testing.T) {
	b, dir := newBuilder(t, Options{Hitless: HitlessAll})
	require.NoError(t, b.Feed(Hit{WordID: 1, DocID: 1, WordPos: MakeWordPos(0, 1)}, 0))
	require.NoError(t, b.Feed(Hit{WordID: 1, DocID: 1, WordPos: MakeWordPos(0, 2)}, 0))
	require.NoError(t, b.Feed(Hit{}, 0))
	require.NoError(t, b.CloseAndFinalize())

	entries := b.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(2), entries[0].HitCount)
	assert.True(t, entries[0].Hitless)

	fi, err := os.Stat(filepath.Join(dir, "new.spp"))
	require.NoError(t, err)
	assert.Zero(t, fi.Size())
}
