package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRoundsToPages(t *testing.T) {
	a, err := Init(1)
	require.NoError(t, err)
	assert.Equal(t, int64(PageBytes), a.CapacityBytes())
}

func TestAllocFreeRoundTrip(t *testing.T) {
	a, err := Init(64 * 1024)
	require.NoError(t, err)

	id := a.TaggedAlloc(1, 16)
	require.NotEqual(t, AllocID(-1), id)
	payload := a.Get(id)
	payload[0] = 0xdeadbeef
	assert.Equal(t, uint32(0xdeadbeef), a.Get(id)[0])
	assert.Equal(t, int32(1), a.Tag(id))

	before := a.TotalBytesUsed()
	assert.Positive(t, before)

	a.TaggedFreeIndex(1, id)
	assert.Zero(t, a.ActiveAllocs(1))
}

func TestTaggedFreeTagReclaimsEveryPage(t *testing.T) {
	a, err := Init(64 * 1024)
	require.NoError(t, err)

	var ids []AllocID
	for i := 0; i < 1000; i++ {
		id := a.TaggedAlloc(1, 16)
		require.NotEqual(t, AllocID(-1), id)
		ids = append(ids, id)
	}
	assert.Equal(t, int32(1000), a.ActiveAllocs(1))

	a.TaggedFreeTag(1)
	assert.Zero(t, a.ActiveAllocs(1))
	assert.Zero(t, a.TotalBytesUsed())

	// Every page must be back on the empty-freelist: a fresh allocation
	// sequence of the same size must succeed identically.
	for i := 0; i < 1000; i++ {
		id := a.TaggedAlloc(2, 16)
		require.NotEqual(t, AllocID(-1), id)
	}
}

func TestFreeTagOnUnknownTagIsNoOp(t *testing.T) {
	a, err := Init(64 * 1024)
	require.NoError(t, err)
	a.TaggedFreeTag(999) // no outstanding allocations under this tag
	assert.Zero(t, a.ActiveAllocs(999))
}

func TestOutOfMemory(t *testing.T) {
	a, err := Init(PageBytes) // exactly one page
	require.NoError(t, err)

	var last AllocID
	for i := 0; i < 1000; i++ {
		last = a.TaggedAlloc(1, 16)
		if last == -1 {
			break
		}
	}
	assert.Equal(t, AllocID(-1), last)
}

func TestBadSizeRejectsOversizeRequest(t *testing.T) {
	a, err := Init(64 * 1024)
	require.NoError(t, err)
	id := a.TaggedAlloc(1, PageBytes) // cannot fit header + payload in one page
	assert.Equal(t, AllocID(-1), id)
}

func TestMaxClassAllocation(t *testing.T) {
	a, err := Init(64 * 1024)
	require.NoError(t, err)
	// PageBytes - 8 is the largest payload that still fits the 2 header
	// DWORDs within the largest (4096B) size class.
	id := a.TaggedAlloc(1, PageBytes-8)
	assert.NotEqual(t, AllocID(-1), id)
}

func TestFreeByIndexDoesNotDisturbSiblingAllocs(t *testing.T) {
	a, err := Init(64 * 1024)
	require.NoError(t, err)

	id1 := a.TaggedAlloc(7, 32)
	id2 := a.TaggedAlloc(7, 32)
	require.NotEqual(t, AllocID(-1), id1)
	require.NotEqual(t, AllocID(-1), id2)

	a.Get(id2)[0] = 42
	a.TaggedFreeIndex(7, id1)
	assert.Equal(t, int32(1), a.ActiveAllocs(7))
	assert.Equal(t, uint32(42), a.Get(id2)[0])
}
