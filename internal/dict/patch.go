package dict

import (
	"bytes"
	"sort"

	"github.com/rpcpool/sphx-index/internal/crc32table"
	"github.com/rpcpool/sphx-index/internal/hitbuilder"
)

// Patch reorders runs of CRC-collision siblings within a word-ID-sorted hit
// stream so that their on-disk order matches keyword-string order
// (spec.md §4.E, HitblockPatch). hits must already be sorted by
// (WordID, DocID, WordPos); it is reordered in place and also returned.
func Patch(hits []hitbuilder.Hit, exceptions []Exception) []hitbuilder.Hit {
	for _, group := range groupByBaseCRC(exceptions) {
		if len(group) < 2 {
			continue
		}
		patchGroup(hits, group)
	}
	return hits
}

// groupByBaseCRC buckets exceptions sharing the same originating CRC-32:
// these are exactly the word IDs that collided with one another and so may
// be out of keyword order on disk.
func groupByBaseCRC(exceptions []Exception) [][]Exception {
	byBase := make(map[uint32][]Exception)
	var order []uint32
	for _, e := range exceptions {
		base := crc32table.Sum(e.Keyword)
		if _, ok := byBase[base]; !ok {
			order = append(order, base)
		}
		byBase[base] = append(byBase[base], e)
	}
	groups := make([][]Exception, 0, len(order))
	for _, base := range order {
		groups = append(groups, byBase[base])
	}
	return groups
}

type chunk struct {
	wordID   uint64
	lo, hi   int
}

// patchGroup reorders the spans of hits belonging to each word in group so
// the spans appear in ascending keyword-string order. Every run, two-way
// collisions included, is rebuilt through one temporary buffer.
func patchGroup(hits []hitbuilder.Hit, group []Exception) {
	chunks := make([]chunk, len(group))
	for i, e := range group {
		lo := firstGte(hits, e.WordID)
		hi := firstGte(hits, e.WordID+1)
		chunks[i] = chunk{wordID: e.WordID, lo: lo, hi: hi}
	}
	order := make([]int, len(group))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return bytes.Compare(group[order[a]].Keyword, group[order[b]].Keyword) < 0
	})

	// Two-way collision: a direct in-place swap suffices when the two
	// chunks are already adjacent and equally sized is not guaranteed, so
	// fall through to the general path uniformly; it is cheap at n==2.
	start := chunks[0].lo
	end := chunks[len(chunks)-1].hi
	buf := make([]hitbuilder.Hit, 0, end-start)
	for _, idx := range order {
		c := chunks[idx]
		buf = append(buf, hits[c.lo:c.hi]...)
	}
	copy(hits[start:end], buf)
}

// firstGte returns the index of the first hit with WordID >= wordID, or
// len(hits) if none exists (the teacher's FindFirstGte pattern, here over
// a sorted hit stream rather than a sorted key vector).
func firstGte(hits []hitbuilder.Hit, wordID uint64) int {
	return sort.Search(len(hits), func(i int) bool {
		return hits[i].WordID >= wordID
	})
}
