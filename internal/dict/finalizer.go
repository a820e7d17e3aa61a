package dict

import (
	"bytes"
	"container/heap"
	"fmt"

	"github.com/schollz/progressbar/v3"

	"github.com/rpcpool/sphx-index/internal/hitbuilder"
	"github.com/rpcpool/sphx-index/internal/ioutil"
	"github.com/rpcpool/sphx-index/internal/vlb"
)

const minScratchBufBytes = 8 * 1024

// Checkpoint names the first keyword of a 64-entry dictionary block and
// that block's file offset (spec.md §3.5).
type Checkpoint struct {
	FirstKeyword []byte
	WordID       uint64 // valid in CRCDictMode
	Offset       int64
}

// Finalizer performs the external merge of scratch blocks into the final,
// checkpointed, front-coded dictionary entry stream (spec.md §4.F).
type Finalizer struct {
	Mode Mode
	// OnKeyword, if set, is invoked for every keyword as it is written,
	// after its checkpoint ID is known, so the infix builder can enumerate
	// infixes against the right checkpoint (spec.md §4.F step 4).
	OnKeyword func(keyword []byte, checkpointIndex int)
	// Progress, if set, is advanced by one per merged keyword, the same
	// bar a caller would wrap a CAR file reader with.
	Progress *progressbar.ProgressBar
}

// mergeItem is one leg of the k-way merge, tracking its current head
// record and the reader it came from.
type mergeItem struct {
	rd  *scratchReader
	cur Entry
}

// mergeHeap orders merge legs by keyword string in WordDictMode, or by
// word ID in CRCDictMode, matching whichever key scratchPaths were sorted
// by before being flushed.
type mergeHeap struct {
	items []*mergeItem
	mode  Mode
}

func (h mergeHeap) Len() int { return len(h.items) }
func (h mergeHeap) Less(i, j int) bool {
	if h.mode == CRCDictMode {
		return h.items[i].cur.DictEntry.WordID < h.items[j].cur.DictEntry.WordID
	}
	return bytes.Compare(h.items[i].cur.Keyword, h.items[j].cur.Keyword) < 0
}
func (h mergeHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *mergeHeap) Push(x interface{}) {
	h.items = append(h.items, x.(*mergeItem))
}
func (h *mergeHeap) Pop() interface{} {
	n := len(h.items)
	item := h.items[n-1]
	h.items = h.items[:n-1]
	return item
}

// Finalize merges scratchPaths (each internally sorted) into out, emitting
// checkpoints every CheckpointInterval keywords, and returns the resulting
// checkpoint list.
func (f *Finalizer) Finalize(scratchPaths []string, memoryLimitBytes int, out *ioutil.Writer) ([]Checkpoint, error) {
	if len(scratchPaths) == 0 {
		return nil, nil
	}
	bufBytes := minScratchBufBytes
	if per := memoryLimitBytes / len(scratchPaths); per > bufBytes {
		bufBytes = per
	}

	var readers []*scratchReader
	defer func() {
		for _, rd := range readers {
			rd.close()
		}
	}()

	h := &mergeHeap{items: make([]*mergeItem, 0, len(scratchPaths)), mode: f.Mode}
	for _, path := range scratchPaths {
		rd, err := openScratchReader(path, bufBytes)
		if err != nil {
			return nil, fmt.Errorf("dict finalizer: open scratch %q: %w", path, err)
		}
		readers = append(readers, rd)
		entry, err := rd.next()
		if err != nil {
			continue // empty scratch block
		}
		heap.Push(h, &mergeItem{rd: rd, cur: entry})
	}
	heap.Init(h)

	var (
		checkpoints []Checkpoint
		prevKeyword []byte
		count       int
		buf         []byte
	)

	for h.Len() > 0 {
		item := heap.Pop(h).(*mergeItem)
		se := item.cur

		if next, err := item.rd.next(); err == nil {
			item.cur = next
			heap.Push(h, item)
		}

		if count%CheckpointInterval == 0 {
			if count > 0 {
				buf = EncodeFrontCodeTerminator(buf[:0])
				if _, err := out.Write(buf); err != nil {
					return nil, err
				}
			}
			checkpoints = append(checkpoints, Checkpoint{
				FirstKeyword: append([]byte(nil), se.Keyword...),
				WordID:       se.DictEntry.WordID,
				Offset:       out.Offset(),
			})
			prevKeyword = nil
		}

		buf = buf[:0]
		if f.Mode == CRCDictMode {
			buf = vlb.PutU64(buf, se.DictEntry.WordID)
		} else {
			buf = EncodeFrontCode(buf, prevKeyword, se.Keyword)
			prevKeyword = se.Keyword
		}
		buf = vlb.PutU64(buf, uint64(se.DictEntry.DoclistOffset))
		buf = vlb.PutU64(buf, uint64(se.DictEntry.DocCount))
		buf = vlb.PutU64(buf, uint64(se.DictEntry.HitCount))
		if se.DictEntry.DocCount > hitbuilder.SkiplistBlock {
			buf = vlb.PutU64(buf, uint64(se.DictEntry.SkiplistOffset))
		}
		if se.DictEntry.DocCount >= hitbuilder.HintThreshold {
			buf = append(buf, se.DictEntry.Hint)
		}
		if _, err := out.Write(buf); err != nil {
			return nil, err
		}

		if f.OnKeyword != nil {
			f.OnKeyword(se.Keyword, len(checkpoints)-1)
		}
		if f.Progress != nil {
			f.Progress.Add(1)
		}
		count++
	}

	if count > 0 {
		buf = EncodeFrontCodeTerminator(buf[:0])
		if _, err := out.Write(buf); err != nil {
			return nil, err
		}
	}

	return checkpoints, nil
}
