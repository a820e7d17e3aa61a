// Package dictreader provides read-only access to a finalized dictionary
// blob: the header marker and checkpoint list load once at open, and each
// lookup binary-searches the checkpoints before walking one block
// (spec.md §4.I).
//
// Grounded on bucketteer/read.go's mmap-and-seek-to-offset shape, widened
// from a single perfect-hash bucket table to the dictionary's
// checkpoint-plus-front-coded-block layout.
package dictreader

import (
	"fmt"
	"sort"

	"github.com/valyala/bytebufferpool"
	"golang.org/x/exp/mmap"

	"github.com/rpcpool/sphx-index/internal/dict"
	"github.com/rpcpool/sphx-index/internal/hitbuilder"
	"github.com/rpcpool/sphx-index/internal/vlb"
)

// HeaderMarker is the one-byte marker every dictionary blob begins with.
const HeaderMarker = 0xD1

// Reader is a ready-to-query, mmap-backed dictionary.
type Reader struct {
	ra          *mmap.ReaderAt
	mode        dict.Mode
	checkpoints []dict.Checkpoint
	scratch     *bytebufferpool.ByteBuffer
}

// Open mmaps path and keeps checkpoints in memory for lookups. checkpoints
// must be supplied by the caller: the finalizer returns them at build
// time, and they are not stored in the dictionary blob itself (the build
// command persists them in a separate sidecar via dict.EncodeCheckpoints).
func Open(path string, mode dict.Mode, checkpoints []dict.Checkpoint) (*Reader, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dictreader: open %q: %w", path, err)
	}
	var marker [1]byte
	if _, err := ra.ReadAt(marker[:], 0); err != nil {
		ra.Close()
		return nil, fmt.Errorf("dictreader: read header marker: %w", err)
	}
	if marker[0] != HeaderMarker {
		ra.Close()
		return nil, fmt.Errorf("dictreader: bad header marker 0x%x", marker[0])
	}
	return &Reader{ra: ra, mode: mode, checkpoints: checkpoints, scratch: bytebufferpool.Get()}, nil
}

// Close unmaps the dictionary file and returns the scratch buffer to its
// pool.
func (r *Reader) Close() error {
	bytebufferpool.Put(r.scratch)
	return r.ra.Close()
}

// Lookup resolves keyword (WordDictMode) to its DictEntry by binary
// searching the checkpoint list and walking the winning block.
func (r *Reader) Lookup(keyword []byte) (hitbuilder.DictEntry, bool, error) {
	return r.walk(func(cp dict.Checkpoint) bool {
		return string(cp.FirstKeyword) <= string(keyword)
	}, func(entry hitbuilder.DictEntry, kw []byte) int {
		switch {
		case string(kw) == string(keyword):
			return 0
		case string(kw) < string(keyword):
			return -1
		default:
			return 1
		}
	})
}

// LookupWordID resolves a word ID (CRCDictMode) the same way.
func (r *Reader) LookupWordID(wordID uint64) (hitbuilder.DictEntry, bool, error) {
	return r.walk(func(cp dict.Checkpoint) bool {
		return cp.WordID <= wordID
	}, func(entry hitbuilder.DictEntry, kw []byte) int {
		switch {
		case entry.WordID == wordID:
			return 0
		case entry.WordID < wordID:
			return -1
		default:
			return 1
		}
	})
}

func (r *Reader) walk(fits func(dict.Checkpoint) bool, cmp func(hitbuilder.DictEntry, []byte) int) (hitbuilder.DictEntry, bool, error) {
	// First checkpoint that does NOT fit; the winning block is the one
	// just before it.
	idx := sort.Search(len(r.checkpoints), func(i int) bool {
		return !fits(r.checkpoints[i])
	}) - 1
	if idx < 0 {
		return hitbuilder.DictEntry{}, false, nil
	}

	size := int64(r.ra.Len()) - r.checkpoints[idx].Offset
	if idx+1 < len(r.checkpoints) {
		size = r.checkpoints[idx+1].Offset - r.checkpoints[idx].Offset
	}
	r.scratch.Reset()
	if cap(r.scratch.B) < int(size) {
		r.scratch.B = make([]byte, size)
	} else {
		r.scratch.B = r.scratch.B[:size]
	}
	if _, err := r.ra.ReadAt(r.scratch.B, r.checkpoints[idx].Offset); err != nil {
		return hitbuilder.DictEntry{}, false, fmt.Errorf("dictreader: read block: %w", err)
	}

	return r.scanBlock(r.scratch.B, cmp)
}

func (r *Reader) scanBlock(block []byte, cmp func(hitbuilder.DictEntry, []byte) int) (hitbuilder.DictEntry, bool, error) {
	var prevKeyword []byte
	pos := 0
	for {
		if pos >= len(block) || block[pos] == 0 {
			return hitbuilder.DictEntry{}, false, nil
		}

		var keyword []byte
		var wordID uint64
		var n int
		if r.mode == dict.CRCDictMode {
			v, vn := vlb.GetU64(block[pos:])
			wordID, n = v, vn
		} else {
			kw, kn, end := dict.DecodeFrontCode(prevKeyword, block[pos:])
			if end {
				return hitbuilder.DictEntry{}, false, nil
			}
			keyword, n = kw, kn
			prevKeyword = keyword
		}
		pos += n

		entry := hitbuilder.DictEntry{Keyword: keyword, WordID: wordID}
		entry.DoclistOffset, pos = readI64(block, pos)
		var v uint64
		v, pos = readU64(block, pos)
		entry.DocCount = uint32(v)
		v, pos = readU64(block, pos)
		entry.HitCount = uint32(v)
		if entry.DocCount > hitbuilder.SkiplistBlock {
			v, pos = readU64(block, pos)
			entry.SkiplistOffset = uint32(v)
		}
		if entry.DocCount >= hitbuilder.HintThreshold {
			entry.Hint = block[pos]
			pos++
		}

		if c := cmp(entry, keyword); c == 0 {
			return entry, true, nil
		} else if c > 0 {
			return hitbuilder.DictEntry{}, false, nil
		}
	}
}

func readU64(buf []byte, pos int) (uint64, int) {
	v, n := vlb.GetU64(buf[pos:])
	return v, pos + n
}

func readI64(buf []byte, pos int) (int64, int) {
	v, n := vlb.GetU64(buf[pos:])
	return int64(v), pos + n
}
