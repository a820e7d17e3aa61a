package sphxfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestRotatePromotesAndDemotes(t *testing.T) {
	dir := t.TempDir()
	newSet := Set{Dir: dir, Name: "idx", Lifecycle: LifecycleNew}
	curSet := Set{Dir: dir, Name: "idx", Lifecycle: LifecycleCur}
	oldSet := Set{Dir: dir, Name: "idx", Lifecycle: LifecycleOld}

	touch(t, curSet.Path("sph"))
	touch(t, newSet.Path("sph"))
	touch(t, newSet.Path("spa"))

	require.NoError(t, Rotate(dir, "idx"))

	assert.FileExists(t, oldSet.Path("sph"))
	assert.FileExists(t, curSet.Path("sph"))
	assert.FileExists(t, curSet.Path("spa"))
	assert.NoFileExists(t, newSet.Path("sph"))
	assert.NoFileExists(t, newSet.Path("spa"))
}

func TestRotateSkipsExtensionsNotPresent(t *testing.T) {
	dir := t.TempDir()
	newSet := Set{Dir: dir, Name: "idx", Lifecycle: LifecycleNew}
	curSet := Set{Dir: dir, Name: "idx", Lifecycle: LifecycleCur}

	touch(t, newSet.Path("sph"))
	require.NoError(t, Rotate(dir, "idx"))
	assert.FileExists(t, curSet.Path("sph"))

	for _, ext := range Extensions {
		if ext == "sph" {
			continue
		}
		assert.NoFileExists(t, curSet.Path(ext))
	}
}

func TestRemoveOldDeletesEverythingPresent(t *testing.T) {
	dir := t.TempDir()
	oldSet := Set{Dir: dir, Name: "idx", Lifecycle: LifecycleOld}
	touch(t, oldSet.Path("sph"))
	touch(t, oldSet.Path("spa"))

	require.NoError(t, RemoveOld(dir, "idx"))
	assert.NoFileExists(t, oldSet.Path("sph"))
	assert.NoFileExists(t, oldSet.Path("spa"))
}

func TestRemoveOldToleratesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, RemoveOld(dir, "nonexistent"))
}

func TestHeaderRoundTrip(t *testing.T) {
	h := NewHeader()
	buf, err := h.Bytes()
	require.NoError(t, err)

	got, err := ReadHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h.Magic, got.Magic)
	assert.Equal(t, h.Version, got.Version)
	assert.Equal(t, h.BuildID, got.BuildID)
}

func TestReadHeaderRejectsSwappedEndianness(t *testing.T) {
	h := NewHeader()
	buf, err := h.Bytes()
	require.NoError(t, err)

	swapped := swapUint32(Magic)
	buf[0] = byte(swapped)
	buf[1] = byte(swapped >> 8)
	buf[2] = byte(swapped >> 16)
	buf[3] = byte(swapped >> 24)

	_, err = ReadHeader(buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opposite byte order")
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	h := NewHeader()
	buf, err := h.Bytes()
	require.NoError(t, err)
	buf[0] = 0
	buf[1] = 0
	buf[2] = 0
	buf[3] = 0

	_, err = ReadHeader(buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad magic")
}

func TestReadHeaderRejectsFutureVersion(t *testing.T) {
	h := Header{Magic: Magic, Version: FormatVersion + 1, BuildID: NewHeader().BuildID}
	buf, err := h.Bytes()
	require.NoError(t, err)

	_, err = ReadHeader(buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format version")
}
