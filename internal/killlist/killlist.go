// Package killlist implements the kill list: a small hash set of
// recent deletions backed by a sorted vector of the bulk, queried under a
// shared lock and mutated under an exclusive one (spec.md §3.9, §4.J).
//
// Grounded on store/freelist's sorted-slice-plus-mutex shape, generalized
// from free-offset bookkeeping to doc-ID tombstones, and on the teacher's
// preference for a plain RWMutex over a lock-free structure at this scale.
package killlist

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rpcpool/sphx-index/internal/ioutil"
	"github.com/rpcpool/sphx-index/internal/vlb"
)

// SmallHashCap is the maximum size of the recent-deletions hash before it
// is flushed into the sorted vector.
const SmallHashCap = 512

// List is a two-tier kill list: recent deletions in a small hash set (an
// unordered Go map), the bulk in a sorted vector. Exists unions both under a read lock; Add
// takes the write lock and flushes the small hash when it would overflow.
type List struct {
	mu    sync.RWMutex
	small map[uint64]struct{}
	bulk  []uint64 // sorted ascending, deduplicated
}

// New returns an empty kill list.
func New() *List {
	return &List{small: make(map[uint64]struct{})}
}

// Exists reports whether doc has been killed.
func (l *List) Exists(doc uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.small[doc]; ok {
		return true
	}
	i := sort.Search(len(l.bulk), func(i int) bool { return l.bulk[i] >= doc })
	return i < len(l.bulk) && l.bulk[i] == doc
}

// Add records docs as killed, flushing the small hash into the sorted
// vector via sort+unique if it would exceed SmallHashCap.
func (l *List) Add(docs ...uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range docs {
		l.small[d] = struct{}{}
	}
	if len(l.small) > SmallHashCap {
		l.flushLocked()
	}
}

func (l *List) flushLocked() {
	merged := make([]uint64, 0, len(l.bulk)+len(l.small))
	merged = append(merged, l.bulk...)
	for d := range l.small {
		merged = append(merged, d)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
	out := merged[:0]
	for i, d := range merged {
		if i == 0 || d != out[len(out)-1] {
			out = append(out, d)
		}
	}
	l.bulk = out
	l.small = make(map[uint64]struct{})
}

// Len reports the total number of killed documents currently tracked.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.bulk) + len(l.small)
}

// Persist flushes the list and writes it as a VLB-delta-coded sorted list.
func (l *List) Persist(path string) error {
	l.mu.Lock()
	l.flushLocked()
	docs := append([]uint64(nil), l.bulk...)
	l.mu.Unlock()

	w, err := ioutil.CreateWriter(path, nil)
	if err != nil {
		return fmt.Errorf("killlist: create %q: %w", path, err)
	}
	var buf []byte
	var prev uint64
	for _, d := range docs {
		buf = vlb.PutU64(buf, d-prev)
		prev = d
	}
	if _, err := w.Write(buf); err != nil {
		return err
	}
	return w.CloseAndFinalize()
}

// Load reads a kill list previously written by Persist.
func Load(buf []byte) *List {
	l := New()
	r := vlb.NewReader(buf)
	var prev uint64
	for r.Remaining() {
		delta := r.U64()
		prev += delta
		l.bulk = append(l.bulk, prev)
	}
	return l
}
