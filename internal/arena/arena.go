// Package arena implements the shared-memory slab arena: a fixed-capacity,
// page-and-size-class allocator for small tagged allocations (spec.md
// §3.8, §4.C). It is the storage backing live MVA (multi-valued attribute)
// updates.
//
// Design note (see design notes in SPEC_FULL.md / spec.md §9): the arena
// hands out self-relative DWORD indices rather than pointers, because the
// backing storage may be relocated or shared across processes. This
// implementation follows that model literally: Arena.base is a []uint32,
// and AllocID is an index into it; Get(AllocID) recomputes a slice header
// from base every call instead of caching a pointer.
//
// Bookkeeping (PageDesc, TagDesc, the per-tag allocation log) lives in
// ordinary Go memory alongside the arena, not packed into the payload
// region — only the two header DWORDs in front of each payload (backtrack
// index, tag value) live inside the arena's own byte range, matching
// spec.md §3.8's header layout exactly. The bookkeeping's storage location
// does not affect the relocatability invariant: only indices into `base`
// are ever handed to callers.
package arena

import (
	"errors"
	"fmt"
	"sync"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("arena")

// ErrOutOfMemory is returned (never panicked) when the arena has no room
// for a requested allocation, per spec.md §7's OutOfMemory policy.
var ErrOutOfMemory = errors.New("arena: out of memory")

// ErrBadSize is returned when a requested allocation cannot fit in any
// size class.
var ErrBadSize = errors.New("arena: bad size")

// ErrTooManyTags is returned once MaxTags distinct tags are live at once.
var ErrTooManyTags = errors.New("arena: too many tags")

const (
	// PageBytes is the fixed page size every size class partitions.
	PageBytes = 4096
	// dwordsPerPage is PageBytes in 4-byte DWORD units.
	dwordsPerPage = PageBytes / 4
	// headerDWords is the two-DWORD [backtrack][tag] header in front of
	// every tagged payload.
	headerDWords = 2

	// minSizeBits / maxSizeBits bound the power-of-two size classes this
	// arena supports: 2^4 (16B) through 2^12 (4096B), spec.md §3.8.
	minSizeBits = 4
	maxSizeBits = 12
	numClasses  = maxSizeBits - minSizeBits + 1

	// pageBitmapWords covers the maximum slot count per page: a class-16B
	// page holds 4096/16 = 256 slots, i.e. 256 bits = 8 uint32 words.
	pageBitmapWords = 8

	// logEntryCap is the number of payload indices an AllocsLogEntry
	// chunk holds, per spec.md §3.8's AllocsLogEntry{..., entries:i32[29]}.
	logEntryCap = 29

	// MaxTags bounds the number of distinct live tags, per spec.md §7.
	MaxTags = 1024

	noPage  = int32(-1)
	emptySl = int32(-1)
)

// pageDesc mirrors spec.md's PageDesc: size class, freelist chain
// pointers, used-slot count, and an occupancy bitmap.
type pageDesc struct {
	sizeBits int32
	prev     int32
	next     int32
	used     int32
	bitmap   [pageBitmapWords]uint32
}

// allocsLogEntry mirrors spec.md's AllocsLogEntry: a fixed-capacity chunk
// of payload indices belonging to one tag, chained to the next chunk.
type allocsLogEntry struct {
	used    int32
	next    int32
	entries [logEntryCap]int32
}

// tagDesc mirrors spec.md's TagDesc.
type tagDesc struct {
	tag          int32
	activeAllocs int32
	logHead      int32
}

// AllocID is a self-relative DWORD index into an Arena's backing storage.
type AllocID int32

// Arena is a page-partitioned, size-classed allocator over a fixed byte
// capacity. A single mutex serializes every tag operation and the
// RawAlloc/RawFree it triggers, per spec.md §5's concurrency model.
type Arena struct {
	mu sync.Mutex

	base []uint32 // capacity, DWORD-addressed

	pages        []pageDesc
	freeHeads    [numClasses]int32 // one per size class
	emptyHead    int32

	tags    map[int32]*tagDesc
	entries []allocsLogEntry
	freeLog []int32 // reusable allocsLogEntry slots

	totalBytesUsed int64
}

// Init creates an Arena rounded up to a whole number of 4096-byte pages
// covering at least maxBytes.
func Init(maxBytes int) (*Arena, error) {
	if maxBytes <= 0 {
		return nil, ErrBadSize
	}
	numPages := (maxBytes + PageBytes - 1) / PageBytes
	a := &Arena{
		base:      make([]uint32, numPages*dwordsPerPage),
		pages:     make([]pageDesc, numPages),
		tags:      make(map[int32]*tagDesc),
		emptyHead: noPage,
	}
	for i := range a.freeHeads {
		a.freeHeads[i] = noPage
	}
	for i := range a.pages {
		a.pages[i] = pageDesc{sizeBits: -1, prev: noPage, next: noPage}
		a.linkEmpty(int32(i))
	}
	log.Infow("arena initialized", "pages", numPages, "bytes", numPages*PageBytes)
	return a, nil
}

// CapacityBytes returns the total byte capacity of the arena.
func (a *Arena) CapacityBytes() int64 { return int64(len(a.pages)) * PageBytes }

// TotalBytesUsed returns Σ page.used·(1<<size_bits) across all pages, the
// debug counter spec.md §8 requires to match live state at all times.
func (a *Arena) TotalBytesUsed() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalBytesUsed
}

func classBits(c int) int32   { return int32(minSizeBits + c) }
func classBytes(c int) int32  { return 1 << classBits(c) }
func classDWords(c int) int32 { return classBytes(c) / 4 }
func slotsPerPage(c int) int32 { return PageBytes / classBytes(c) }

func sizeClassFor(payloadBytes int) (int, error) {
	need := payloadBytes + headerDWords*4
	if need > PageBytes {
		return 0, ErrBadSize
	}
	for c := 0; c < numClasses; c++ {
		if int(classBytes(c)) >= need {
			return c, nil
		}
	}
	return 0, ErrBadSize
}

// Get returns the payload slice for the given id: the slot's size class in
// DWORDs minus the two header DWORDs. It may be called without holding the
// arena lock as long as id's tag has not yet been freed (spec.md §5's
// reader pattern).
func (a *Arena) Get(id AllocID) []uint32 {
	// Length is not tracked per-allocation (only the size class is); the
	// class's DWORD count is recoverable from the page this index falls
	// in.
	pageIdx := (int32(id) - headerDWords) / dwordsPerPage
	p := &a.pages[pageIdx]
	n := classDWords(int(p.sizeBits)-minSizeBits) - headerDWords
	return a.base[int32(id) : int32(id)+n]
}

// Tag returns the tag stored in the allocation's header.
func (a *Arena) Tag(id AllocID) int32 {
	return int32(a.base[int32(id)-1])
}

func (a *Arena) linkEmpty(p int32) {
	a.pages[p].prev = noPage
	a.pages[p].next = a.emptyHead
	if a.emptyHead != noPage {
		a.pages[a.emptyHead].prev = p
	}
	a.emptyHead = p
}

func (a *Arena) unlinkEmpty(p int32) {
	pd := &a.pages[p]
	if pd.prev != noPage {
		a.pages[pd.prev].next = pd.next
	} else {
		a.emptyHead = pd.next
	}
	if pd.next != noPage {
		a.pages[pd.next].prev = pd.prev
	}
}

func (a *Arena) linkClass(c int, p int32) {
	pd := &a.pages[p]
	pd.prev = noPage
	pd.next = a.freeHeads[c]
	if a.freeHeads[c] != noPage {
		a.pages[a.freeHeads[c]].prev = p
	}
	a.freeHeads[c] = p
}

func (a *Arena) unlinkClass(c int, p int32) {
	pd := &a.pages[p]
	if pd.prev != noPage {
		a.pages[pd.prev].next = pd.next
	} else {
		a.freeHeads[c] = pd.next
	}
	if pd.next != noPage {
		a.pages[pd.next].prev = pd.prev
	}
}

// firstFreeBit returns the index of the first zero bit in bitmap, or -1.
func firstFreeBit(bitmap *[pageBitmapWords]uint32, limit int32) int32 {
	for w := 0; w < pageBitmapWords; w++ {
		word := bitmap[w]
		if word == ^uint32(0) {
			continue
		}
		for b := 0; b < 32; b++ {
			idx := int32(w*32 + b)
			if idx >= limit {
				return -1
			}
			if word&(1<<uint(b)) == 0 {
				return idx
			}
		}
	}
	return -1
}

func setBit(bitmap *[pageBitmapWords]uint32, i int32) {
	bitmap[i/32] |= 1 << uint(i%32)
}

func clearBit(bitmap *[pageBitmapWords]uint32, i int32) {
	bitmap[i/32] &^= 1 << uint(i%32)
}

// rawAlloc implements spec.md §4.C's RawAlloc algorithm: consume a
// semi-free page of the right class if one exists, else take a fresh page
// off the empty-freelist, else fail with OutOfMemory.
func (a *Arena) rawAlloc(payloadBytes int) (AllocID, error) {
	c, err := sizeClassFor(payloadBytes)
	if err != nil {
		return -1, err
	}

	var p int32
	if a.freeHeads[c] != noPage {
		p = a.freeHeads[c]
	} else if a.emptyHead != noPage {
		p = a.emptyHead
		a.unlinkEmpty(p)
		pd := &a.pages[p]
		pd.sizeBits = classBits(c)
		pd.used = 0
		pd.bitmap = [pageBitmapWords]uint32{}
		// Mask off trailing bits beyond this class's slot count so they
		// are never mistaken for free slots.
		limit := slotsPerPage(c)
		for i := limit; i < pageBitmapWords*32; i++ {
			setBit(&pd.bitmap, i)
		}
		a.linkClass(c, p)
	} else {
		return -1, ErrOutOfMemory
	}

	pd := &a.pages[p]
	slot := firstFreeBit(&pd.bitmap, slotsPerPage(c))
	if slot < 0 {
		return -1, ErrOutOfMemory
	}
	setBit(&pd.bitmap, slot)
	pd.used++
	a.totalBytesUsed += int64(classBytes(c))
	if pd.used == slotsPerPage(c) {
		a.unlinkClass(c, p)
	}

	payloadIdx := p*dwordsPerPage + slot*classDWords(c) + headerDWords
	return AllocID(payloadIdx), nil
}

// rawFree implements spec.md §4.C's RawFree algorithm.
func (a *Arena) rawFree(id AllocID) {
	idx := int32(id) - headerDWords
	p := idx / dwordsPerPage
	offset := idx % dwordsPerPage
	pd := &a.pages[p]
	c := int(pd.sizeBits) - minSizeBits
	slot := offset / classDWords(c)

	wasFull := pd.used == slotsPerPage(c)
	clearBit(&pd.bitmap, slot)
	pd.used--
	a.totalBytesUsed -= int64(classBytes(c))

	if wasFull {
		a.linkClass(c, p)
	}
	if pd.used == 0 {
		a.unlinkClass(c, p)
		a.linkEmpty(p)
	}
}

func (a *Arena) getOrCreateTag(tag int32) (*tagDesc, error) {
	td, ok := a.tags[tag]
	if ok {
		return td, nil
	}
	if len(a.tags) >= MaxTags {
		return nil, ErrTooManyTags
	}
	td = &tagDesc{tag: tag, logHead: noPage}
	a.tags[tag] = td
	return td, nil
}

func (a *Arena) allocLogEntry() int32 {
	if n := len(a.freeLog); n > 0 {
		idx := a.freeLog[n-1]
		a.freeLog = a.freeLog[:n-1]
		a.entries[idx] = allocsLogEntry{next: noPage}
		for i := range a.entries[idx].entries {
			a.entries[idx].entries[i] = emptySl
		}
		return idx
	}
	a.entries = append(a.entries, allocsLogEntry{next: noPage})
	idx := int32(len(a.entries) - 1)
	for i := range a.entries[idx].entries {
		a.entries[idx].entries[i] = emptySl
	}
	return idx
}

func encodeBacktrack(entryIdx, slot int32) uint32 {
	return uint32(entryIdx)*logEntryCap + uint32(slot)
}

func decodeBacktrack(bt uint32) (entryIdx, slot int32) {
	return int32(bt / logEntryCap), int32(bt % logEntryCap)
}

// TaggedAlloc allocates bytes under tag, returning a self-relative index,
// or -1 on OutOfMemory/BadSize, per spec.md §4.C.
func (a *Arena) TaggedAlloc(tag int32, bytes int) AllocID {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, err := a.rawAlloc(bytes)
	if err != nil {
		return -1
	}

	td, err := a.getOrCreateTag(tag)
	if err != nil {
		a.rawFree(id)
		return -1
	}

	entryIdx := td.logHead
	if entryIdx == noPage || a.entries[entryIdx].used >= logEntryCap {
		newIdx := a.allocLogEntry()
		a.entries[newIdx].next = td.logHead
		td.logHead = newIdx
		entryIdx = newIdx
	}
	entry := &a.entries[entryIdx]
	var slot int32 = -1
	for i, v := range entry.entries {
		if v == emptySl {
			slot = int32(i)
			break
		}
	}
	entry.entries[slot] = int32(id)
	entry.used++
	td.activeAllocs++

	a.base[int32(id)-2] = encodeBacktrack(entryIdx, slot)
	a.base[int32(id)-1] = uint32(tag)

	return id
}

// TaggedFreeIndex frees a single allocation by index, asserting the
// stored tag matches. The chain entry is cleared in O(1) via its
// backtrack header; if the tag's allocation count reaches zero the tag is
// removed.
func (a *Arena) TaggedFreeIndex(tag int32, id AllocID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.taggedFreeIndexLocked(tag, id)
}

func (a *Arena) taggedFreeIndexLocked(tag int32, id AllocID) {
	stored := int32(a.base[int32(id)-1])
	if stored != tag {
		log.Errorw("tag mismatch on free", "want", tag, "got", stored)
		return
	}
	td, ok := a.tags[tag]
	if !ok {
		log.Errorw("free of unknown tag", "tag", tag)
		return
	}

	bt := a.base[int32(id)-2]
	entryIdx, slot := decodeBacktrack(bt)
	entry := &a.entries[entryIdx]
	if entry.entries[slot] != int32(id) {
		log.Errorw("free-by-index backtrack mismatch", "tag", tag, "id", id)
		return
	}
	entry.entries[slot] = emptySl
	entry.used--
	td.activeAllocs--

	a.rawFree(id)

	if td.activeAllocs == 0 {
		a.reclaimTagChain(td)
		delete(a.tags, tag)
	}
}

func (a *Arena) reclaimTagChain(td *tagDesc) {
	for e := td.logHead; e != noPage; {
		next := a.entries[e].next
		a.freeLog = append(a.freeLog, e)
		e = next
	}
	td.logHead = noPage
}

// TaggedFreeTag walks every log entry for tag, frees every allocation
// still bearing that tag, and removes the tag. An allocation found to
// carry a different tag (re-tagged out from under the log) is a
// detectable error and is skipped rather than freed.
func (a *Arena) TaggedFreeTag(tag int32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	td, ok := a.tags[tag]
	if !ok {
		return // no outstanding allocations: no-op, per spec.md §8.
	}

	for e := td.logHead; e != noPage; e = a.entries[e].next {
		entry := &a.entries[e]
		for i, v := range entry.entries {
			if v == emptySl {
				continue
			}
			id := AllocID(v)
			stored := int32(a.base[int32(id)-1])
			if stored != tag {
				log.Errorw("allocation re-tagged under its owning tag's free", "tag", tag, "id", id, "now", stored)
				entry.entries[i] = emptySl
				continue
			}
			a.rawFree(id)
			entry.entries[i] = emptySl
			td.activeAllocs--
		}
	}
	a.reclaimTagChain(td)
	delete(a.tags, tag)
}

// ExamineTag calls visitor with the payload of every live allocation under
// tag, in unspecified order. Used to publish attribute updates.
func (a *Arena) ExamineTag(tag int32, visitor func(id AllocID, payload []uint32)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	td, ok := a.tags[tag]
	if !ok {
		return
	}
	for e := td.logHead; e != noPage; e = a.entries[e].next {
		for _, v := range a.entries[e].entries {
			if v == emptySl {
				continue
			}
			id := AllocID(v)
			visitor(id, a.Get(id))
		}
	}
}

// ActiveAllocs reports how many live allocations a tag currently owns.
func (a *Arena) ActiveAllocs(tag int32) int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	td, ok := a.tags[tag]
	if !ok {
		return 0
	}
	return td.activeAllocs
}

// String aids debugging/diagnostics output.
func (td *tagDesc) String() string {
	return fmt.Sprintf("tag=%d active=%d", td.tag, td.activeAllocs)
}
