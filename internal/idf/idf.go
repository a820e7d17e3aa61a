// Package idf implements the global IDF table: a memory-mapped, sorted
// array of (word_id, doc_count) records, an optional dense shift-hash
// index for large tables, and the plain/non-plain IDF formulas
// (spec.md §3.10, §4.J).
package idf

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/mmap"
)

const recordSize = 12 // word_id u64 + doc_count u32

// Entry is one (word_id, doc_count) record.
type Entry struct {
	WordID   uint64
	DocCount uint32
}

// Build serializes entries, which must already be sorted ascending by
// WordID, into the fixed-width on-disk array.
func Build(entries []Entry) []byte {
	buf := make([]byte, len(entries)*recordSize)
	for i, e := range entries {
		off := i * recordSize
		binary.LittleEndian.PutUint64(buf[off:off+8], e.WordID)
		binary.LittleEndian.PutUint32(buf[off+8:off+12], e.DocCount)
	}
	return buf
}

// shiftIndexThreshold is the minimum record count at which building the
// dense shift-hash index pays for itself; below it a binary search over
// the whole table is already O(log n) on a handful of cache lines.
const shiftIndexThreshold = 8 * 64

// Table is a read-only, mmap-backed global IDF table.
type Table struct {
	ra        *mmap.ReaderAt
	n         int
	first     uint64
	shift     uint
	index     []int32 // bucket -> first record index, or -1
	totalDocs uint64
}

// Open mmaps path and, if the table is large, builds the shift-hash index
// described in spec.md §4.J.
func Open(path string, totalDocs uint64) (*Table, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("idf: open %q: %w", path, err)
	}
	n := ra.Len() / recordSize
	t := &Table{ra: ra, n: n, totalDocs: totalDocs}
	if n > 0 {
		t.first = t.wordIDAt(0)
		if n >= shiftIndexThreshold {
			t.buildShiftIndex()
		}
	}
	return t, nil
}

// Close unmaps the table.
func (t *Table) Close() error { return t.ra.Close() }

func (t *Table) wordIDAt(i int) uint64 {
	var buf [8]byte
	t.ra.ReadAt(buf[:], int64(i*recordSize))
	return binary.LittleEndian.Uint64(buf[:])
}

func (t *Table) recordAt(i int) Entry {
	var buf [recordSize]byte
	t.ra.ReadAt(buf[:], int64(i*recordSize))
	return Entry{
		WordID:   binary.LittleEndian.Uint64(buf[0:8]),
		DocCount: binary.LittleEndian.Uint32(buf[8:12]),
	}
}

func (t *Table) buildShiftIndex() {
	last := t.wordIDAt(t.n - 1)
	span := last - t.first + 1

	// Size the hash table to roughly one bucket per 8 records, so the
	// table only gets built once it earns back its own footprint
	// (spec.md's "more than 8x the hash size" gate).
	buckets := t.n / 8
	if buckets < 1 {
		buckets = 1
	}
	shift := uint(0)
	for (span >> shift) > uint64(buckets) {
		shift++
	}
	t.shift = shift

	numBuckets := int(span>>shift) + 1
	index := make([]int32, numBuckets+1)
	for i := range index {
		index[i] = -1
	}
	for i := 0; i < t.n; i++ {
		b := int((t.wordIDAt(i) - t.first) >> shift)
		if index[b] == -1 {
			index[b] = int32(i)
		}
	}
	// Fill trailing gaps so every bucket names a valid (possibly empty)
	// search-start position.
	for i := len(index) - 2; i >= 0; i-- {
		if index[i] == -1 {
			index[i] = index[i+1]
		}
	}
	t.index = index
}

// Lookup binary-searches (optionally narrowed by the shift-hash index)
// for wordID's doc_count.
func (t *Table) Lookup(wordID uint64) (uint32, bool) {
	lo, hi := 0, t.n
	if t.index != nil && wordID >= t.first {
		b := int((wordID - t.first) >> t.shift)
		if b < len(t.index)-1 {
			lo = int(t.index[b])
			if lo < 0 {
				lo = t.n
			}
			hi = int(t.index[b+1])
			if hi < 0 {
				hi = t.n
			}
		}
	}
	if lo >= hi {
		return 0, false
	}
	i := lo + sort.Search(hi-lo, func(i int) bool {
		return t.wordIDAt(lo+i) >= wordID
	})
	if i >= hi {
		return 0, false
	}
	rec := t.recordAt(i)
	if rec.WordID != wordID {
		return 0, false
	}
	return rec.DocCount, true
}

// PlainIDF computes `log((total - docs + 1) / docs) / (2 * log(total + 1))`.
func PlainIDF(total, docs uint64) float64 {
	if docs == 0 {
		return 0
	}
	return math.Log(float64(total-docs+1)/float64(docs)) / (2 * math.Log(float64(total+1)))
}

// NonPlainIDF computes `log(total / docs) / (2 * log(total + 1))`.
func NonPlainIDF(total, docs uint64) float64 {
	if docs == 0 {
		return 0
	}
	return math.Log(float64(total)/float64(docs)) / (2 * math.Log(float64(total+1)))
}

// IDF computes the configured word's IDF weight against t.totalDocs.
func (t *Table) IDF(wordID uint64, plain bool) float64 {
	docs, ok := t.Lookup(wordID)
	if !ok {
		return 0
	}
	if plain {
		return PlainIDF(t.totalDocs, uint64(docs))
	}
	return NonPlainIDF(t.totalDocs, uint64(docs))
}
