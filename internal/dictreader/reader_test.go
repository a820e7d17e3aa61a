package dictreader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcpool/sphx-index/internal/dict"
	"github.com/rpcpool/sphx-index/internal/hitbuilder"
	"github.com/rpcpool/sphx-index/internal/ioutil"
)

func buildDict(t *testing.T, path string, mode dict.Mode, entries []dict.Entry) []dict.Checkpoint {
	t.Helper()
	dir := t.TempDir()

	sw, err := dict.CreateScratchWriter(filepath.Join(dir, "block0"))
	require.NoError(t, err)
	require.NoError(t, sw.WriteBatch(entries))
	require.NoError(t, sw.Close())

	out, err := ioutil.CreateWriter(path, nil)
	require.NoError(t, err)
	_, err = out.Write([]byte{HeaderMarker})
	require.NoError(t, err)

	f := &dict.Finalizer{Mode: mode}
	checkpoints, err := f.Finalize([]string{filepath.Join(dir, "block0")}, 0, out)
	require.NoError(t, err)
	require.NoError(t, out.CloseAndFinalize())
	return checkpoints
}

func TestLookupWordDictMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.spi")
	checkpoints := buildDict(t, path, dict.WordDictMode, []dict.Entry{
		{Keyword: []byte("alpha"), DictEntry: hitbuilder.DictEntry{WordID: 1, DoclistOffset: 100, DocCount: 2, HitCount: 5}},
		{Keyword: []byte("beta"), DictEntry: hitbuilder.DictEntry{WordID: 2, DoclistOffset: 200, DocCount: 3, HitCount: 9}},
	})

	r, err := Open(path, dict.WordDictMode, checkpoints)
	require.NoError(t, err)
	defer r.Close()

	entry, ok, err := r.Lookup([]byte("beta"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(200), entry.DoclistOffset)
	assert.Equal(t, uint32(3), entry.DocCount)

	_, ok, err = r.Lookup([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLookupCRCDictMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.spi")
	checkpoints := buildDict(t, path, dict.CRCDictMode, []dict.Entry{
		{Keyword: []byte("alpha"), DictEntry: hitbuilder.DictEntry{WordID: 10, DoclistOffset: 1, DocCount: 1, HitCount: 1}},
		{Keyword: []byte("beta"), DictEntry: hitbuilder.DictEntry{WordID: 20, DoclistOffset: 2, DocCount: 1, HitCount: 1}},
	})

	r, err := Open(path, dict.CRCDictMode, checkpoints)
	require.NoError(t, err)
	defer r.Close()

	entry, ok, err := r.LookupWordID(20)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), entry.DoclistOffset)

	_, ok, err = r.LookupWordID(999)
	require.NoError(t, err)
	assert.False(t, ok)
}
