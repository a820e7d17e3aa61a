package dict

import (
	"bytes"
	"sort"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/rpcpool/sphx-index/internal/crc32table"
)

var log = logging.Logger("dict")

// Exception records one side of a CRC collision (spec.md §4.E): either a
// keyword whose assigned word ID is not its CRC-32 because another keyword
// already claimed that slot, or the keyword that holds the CRC-32 itself.
type Exception struct {
	WordID  uint64
	Keyword []byte
}

type chainEntry struct {
	wordID  uint64
	keyword []byte
}

// Table interns keywords into 64-bit word IDs. It is safe for concurrent
// use by multiple ingestion threads.
type Table struct {
	mu         sync.Mutex
	slots      [][]*chainEntry
	used       map[uint64]bool
	exceptions []Exception
	warned     map[string]bool
	onClip     func(original []byte)
}

// NewTable returns an empty keyword table. onClip, if non-nil, is invoked
// the first time a given oversize keyword is clipped.
func NewTable(onClip func(original []byte)) *Table {
	return &Table{
		slots:  make([][]*chainEntry, NumHashSlots),
		used:   make(map[uint64]bool),
		warned: make(map[string]bool),
		onClip: onClip,
	}
}

// Intern resolves keyword to a stable word ID, allocating a new one on
// first sight and resolving CRC collisions per spec.md §4.E.
func (t *Table) Intern(keyword []byte) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	keyword = t.clip(keyword)

	crc := crc32table.Sum(keyword)
	slot := crc & hashMask
	chain := t.slots[slot]

	for i, e := range chain {
		if bytes.Equal(e.keyword, keyword) {
			if i != 0 {
				// Move to front: chains are scanned start to end on every
				// lookup, so the hottest keyword should cost the least.
				chain[0], chain[i] = chain[i], chain[0]
			}
			return e.wordID
		}
	}

	wordID := uint64(crc)
	collided := t.used[wordID]
	if collided {
		for k := uint64(1); ; k++ {
			cand := uint64(crc) + k
			if !t.used[cand] {
				wordID = cand
				break
			}
		}
	}

	t.used[wordID] = true
	entry := &chainEntry{wordID: wordID, keyword: keyword}
	t.slots[slot] = append([]*chainEntry{entry}, chain...)

	if collided {
		t.addException(wordID, keyword)
		for _, e := range chain {
			if e.wordID == uint64(crc) {
				t.addException(e.wordID, e.keyword)
				break
			}
		}
	}
	return wordID
}

func (t *Table) clip(keyword []byte) []byte {
	if len(keyword) < clipThreshold {
		return keyword
	}
	clipped := keyword[:clipThreshold]
	key := string(keyword)
	if !t.warned[key] {
		t.warned[key] = true
		if t.onClip != nil {
			t.onClip(keyword)
		} else {
			log.Warnw("keyword clipped", "len", len(keyword), "limit", clipThreshold)
		}
	}
	return clipped
}

// addException inserts e into the exceptions vector, keeping it sorted by
// word ID, unless that word ID is already recorded.
func (t *Table) addException(wordID uint64, keyword []byte) {
	i := sort.Search(len(t.exceptions), func(i int) bool {
		return t.exceptions[i].WordID >= wordID
	})
	if i < len(t.exceptions) && t.exceptions[i].WordID == wordID {
		return
	}
	kw := append([]byte(nil), keyword...)
	t.exceptions = append(t.exceptions, Exception{})
	copy(t.exceptions[i+1:], t.exceptions[i:])
	t.exceptions[i] = Exception{WordID: wordID, Keyword: kw}
}

// Exceptions returns the exceptions vector, sorted by word ID.
func (t *Table) Exceptions() []Exception {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Exception(nil), t.exceptions...)
}
