// Package hitbuilder implements the hit pipeline: it consumes a sorted
// stream of (word, doc, position) hits and emits the doclist, hitlist, and
// skiplist files plus queued dictionary entries (spec.md §4.D).
//
// Grounded on the teacher's append-only sequential writer shape
// (store/freelist.FreeList: bufio.Writer, sticky first-error, explicit
// Flush/Close) generalized from one fixed-shape record to the
// doclist/hitlist/skiplist trio, and on store/index/recordlist.go's
// length-prefixed record framing.
package hitbuilder

import (
	"fmt"

	logging "github.com/ipfs/go-log/v2"

	"github.com/rpcpool/sphx-index/internal/ioutil"
	"github.com/rpcpool/sphx-index/internal/vlb"
)

var log = logging.Logger("hitbuilder")

// Options configures the hit pipeline: hit format, hitless mode, and
// optional inline attribute deltas, drawn from spec.md §6's index
// settings.
type Options struct {
	InlineHitFormat bool
	Hitless         HitlessMode
	// HitlessWordIDs, used only when Hitless == HitlessSome, names the
	// words for which positions are suppressed.
	HitlessWordIDs map[uint64]bool
	// InlineAttrMins, one per configured inline attribute, is subtracted
	// from each document's attribute value before VLB-encoding the
	// delta.
	InlineAttrMins []uint64
}

func (o Options) isHitless(wordID uint64) bool {
	switch o.Hitless {
	case HitlessAll:
		return true
	case HitlessSome:
		return o.HitlessWordIDs[wordID]
	default:
		return false
	}
}

// skipEntry holds the decoding bases in force at the start of a skiplist
// block: the previous document's ID, the block's doclist offset, and the
// previous hitlist offset the block's first doclist entry is coded against.
type skipEntry struct {
	docID         uint64
	doclistOffset int64
	hitlistOffset int64
}

type docAccum struct {
	docID      uint64
	attrs      []uint64
	positions  []uint32 // raw WordPos values, in ascending order, deduped
}

// wordState tracks the in-progress word (spec.md §4.D's state machine).
type wordState struct {
	wordID         uint64
	active         bool
	doclistStart   int64
	hitlistStart   int64 // hitlist offset at the start of this word
	prevDocID      uint64
	prevHitlistOff int64
	docCount       uint32
	hitCount       uint32
	hitless        bool
	skipEntries    []skipEntry
	cur            *docAccum
}

// Builder is the per-indexing-pass hit-to-file pipeline. It is not safe
// for concurrent use: one indexing thread drives it end to end, per
// spec.md §5.
type Builder struct {
	opts Options

	doclist  *ioutil.Writer
	hitlist  *ioutil.Writer
	skiplist *ioutil.Writer

	word wordState

	entries []DictEntry
	err     error
}

// New opens the three parallel output files and returns a ready Builder.
func New(doclistPath, hitlistPath, skiplistPath string, opts Options) (*Builder, error) {
	dl, err := ioutil.CreateWriter(doclistPath, nil)
	if err != nil {
		return nil, fmt.Errorf("open doclist: %w", err)
	}
	hl, err := ioutil.CreateWriter(hitlistPath, nil)
	if err != nil {
		return nil, fmt.Errorf("open hitlist: %w", err)
	}
	sl, err := ioutil.CreateWriter(skiplistPath, nil)
	if err != nil {
		return nil, fmt.Errorf("open skiplist: %w", err)
	}
	return &Builder{opts: opts, doclist: dl, hitlist: hl, skiplist: sl}, nil
}

// Err returns the first sticky error encountered by the builder or any of
// its underlying writers.
func (b *Builder) Err() error {
	if b.err != nil {
		return b.err
	}
	if err := b.doclist.Err(); err != nil {
		return err
	}
	if err := b.hitlist.Err(); err != nil {
		return err
	}
	return b.skiplist.Err()
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
		log.Errorw("hit builder failed", "err", err)
	}
}

// Feed advances the state machine by one hit from the sorted input
// stream. Call Feed with the terminating sentinel hit (Hit{}.IsSentinel())
// once the stream is exhausted.
func (b *Builder) Feed(h Hit, fieldMaskHint uint32) error {
	if b.Err() != nil {
		return b.Err()
	}

	if h.IsSentinel() {
		b.closeDoc()
		b.closeWord()
		return b.Err()
	}

	if !b.word.active || h.WordID != b.word.wordID {
		b.closeDoc()
		b.closeWord()
		b.openWord(h.WordID)
	}

	if b.word.cur == nil || h.DocID != b.word.cur.docID {
		b.closeDoc()
		b.openDoc(h.DocID)
	}

	b.addHit(h.WordPos)
	return b.Err()
}

func (b *Builder) openWord(wordID uint64) {
	b.word = wordState{
		wordID:       wordID,
		active:       true,
		doclistStart: b.doclist.Offset(),
		hitlistStart: b.hitlist.Offset(),
		hitless:      b.opts.isHitless(wordID),
	}
}

func (b *Builder) openDoc(docID uint64) {
	b.word.cur = &docAccum{docID: docID}
}

func (b *Builder) addHit(wordPos uint32) {
	cur := b.word.cur
	if n := len(cur.positions); n > 0 {
		prev := cur.positions[n-1] &^ FieldEndMask
		if prev == wordPos {
			// Duplicate hit: a normal condition, not an error.
			return
		}
		if wordPos < prev {
			b.fail(fmt.Errorf("hitbuilder: word %d doc %d: position decreased %d -> %d", b.word.wordID, cur.docID, prev, wordPos))
			return
		}
	}
	cur.positions = append(cur.positions, wordPos)
}

// closeDoc finalizes the current document: writes its doclist entry and,
// unless it qualifies for the inline-hit shortcut, its hitlist bytes.
func (b *Builder) closeDoc() {
	cur := b.word.cur
	if cur == nil {
		return
	}
	b.word.cur = nil
	if b.Err() != nil {
		return
	}

	docIndex := b.word.docCount
	if docIndex%SkiplistBlock == 0 {
		b.word.skipEntries = append(b.word.skipEntries, skipEntry{
			docID:         b.word.prevDocID,
			doclistOffset: b.doclist.Offset(),
			hitlistOffset: b.word.prevHitlistOff,
		})
	}

	hitCount := uint32(len(cur.positions))

	var buf []byte
	buf = vlb.PutU64(buf, cur.docID-b.word.prevDocID)
	for i, v := range cur.attrs {
		min := uint64(0)
		if i < len(b.opts.InlineAttrMins) {
			min = b.opts.InlineAttrMins[i]
		}
		buf = vlb.PutU64(buf, v-min)
	}
	buf = vlb.PutU64(buf, uint64(hitCount))

	inline := b.opts.InlineHitFormat && hitCount == 1 && !b.word.hitless
	if inline {
		fieldNo, pos := SplitWordPos(cur.positions[0])
		buf = vlb.PutU32(buf, pos)
		buf = vlb.PutU32(buf, fieldNo)
	} else {
		mask := fieldMaskOf(cur.positions)
		buf = vlb.PutU32(buf, mask)
		hitlistOff := b.hitlist.Offset()
		buf = vlb.PutU64(buf, uint64(hitlistOff-b.word.prevHitlistOff))
		b.word.prevHitlistOff = hitlistOff
		if !b.word.hitless {
			b.writeHitlist(cur.positions)
		}
	}

	if _, err := b.doclist.Write(buf); err != nil {
		b.fail(err)
		return
	}

	b.word.prevDocID = cur.docID
	b.word.docCount++
	b.word.hitCount += hitCount
}

func fieldMaskOf(positions []uint32) uint32 {
	var mask uint32
	for _, p := range positions {
		fieldNo, _ := SplitWordPos(p)
		mask |= 1 << (fieldNo & 31)
	}
	return mask
}

// writeHitlist emits the per-doc hit position deltas, applying
// FieldEndMask to the last hit of every field as spec.md §4.D/§9
// describe: the marker is only known once the run of same-field hits
// ends, which is trivial here since the whole document's hits are
// buffered before any bytes are written.
func (b *Builder) writeHitlist(positions []uint32) {
	var buf []byte
	var prevRaw uint32
	for i, wp := range positions {
		raw := wp &^ FieldEndMask
		fieldNo, _ := SplitWordPos(raw)
		lastInField := i == len(positions)-1
		if !lastInField {
			nextField, _ := SplitWordPos(positions[i+1])
			lastInField = nextField != fieldNo
		}
		delta := raw - prevRaw
		enc := delta
		if lastInField {
			enc |= FieldEndMask
		}
		buf = vlb.PutU32(buf, enc)
		prevRaw = raw
	}
	buf = vlb.PutU32(buf, 0) // terminator
	if _, err := b.hitlist.Write(buf); err != nil {
		b.fail(err)
	}
}

// closeWord finalizes the current word: flushes the doclist terminator,
// writes the skiplist block if the word qualifies, and queues a
// DictEntry.
func (b *Builder) closeWord() {
	if !b.word.active {
		return
	}
	w := b.word
	b.word = wordState{}
	if b.Err() != nil {
		return
	}

	if _, err := b.doclist.Write(vlb.PutU64(nil, 0)); err != nil {
		b.fail(err)
		return
	}

	entry := DictEntry{
		WordID:        w.wordID,
		DoclistOffset: w.doclistStart,
		DocCount:      w.docCount,
		HitCount:      w.hitCount,
		Hitless:       w.hitless,
	}
	if w.docCount >= HintThreshold {
		entry.Hint = prefetchHint(w.doclistStart, b.doclist.Offset(), w.docCount)
	}
	if w.docCount > SkiplistBlock {
		off, err := b.writeSkiplist(w)
		if err != nil {
			b.fail(err)
			return
		}
		entry.SkiplistOffset = uint32(off)
	}

	b.entries = append(b.entries, entry)
}

// prefetchHint is a length-hint byte used to help readers size their
// doclist prefetch. The exact heuristic is not specified by the format;
// this implementation records the average per-document doclist byte
// span, clamped to a byte (see DESIGN.md).
func prefetchHint(start, end int64, docCount uint32) uint8 {
	if docCount == 0 {
		return 0
	}
	avg := (end - start) / int64(docCount)
	if avg > 255 {
		return 255
	}
	return uint8(avg)
}

// writeSkiplist emits the buffered skip entries for a word, skipping the
// implicit first entry (base_doc_id=0, offset=word's doclist_offset,
// base_hit_pos=0), and applying the three fixed bias subtractions of
// spec.md §3.3.
func (b *Builder) writeSkiplist(w wordState) (int64, error) {
	startOff := b.skiplist.Offset()
	var buf []byte
	// entries[0] is the implicit first block and is never written.
	prevDoc := uint64(0)
	prevDoclistOff := w.doclistStart
	prevHitlistOff := w.hitlistStart
	for i, e := range w.skipEntries {
		if i == 0 {
			prevDoc = e.docID
			prevDoclistOff = e.doclistOffset
			prevHitlistOff = e.hitlistOffset
			continue
		}
		buf = vlb.PutU64(buf, (e.docID-prevDoc)-SkiplistBlock)
		buf = vlb.PutU64(buf, uint64(e.doclistOffset-prevDoclistOff)-4*SkiplistBlock)
		buf = vlb.PutU64(buf, uint64(e.hitlistOffset-prevHitlistOff))
		prevDoc = e.docID
		prevDoclistOff = e.doclistOffset
		prevHitlistOff = e.hitlistOffset
	}
	if _, err := b.skiplist.Write(buf); err != nil {
		return 0, err
	}
	return startOff, nil
}

// Entries returns the DictEntry records queued since New, for the caller
// to hand to the dictionary finalizer (spec.md §4.F).
func (b *Builder) Entries() []DictEntry { return b.entries }

// CloseAndFinalize flushes and closes all three output files. Any sticky
// error encountered anywhere in the pipeline is returned here, per
// spec.md §4.D's "writer errors are sticky and surface at
// CloseAndFinalize".
func (b *Builder) CloseAndFinalize() error {
	if b.word.active {
		b.closeDoc()
		b.closeWord()
	}
	err := b.Err()
	if e := b.doclist.CloseAndFinalize(); err == nil {
		err = e
	}
	if e := b.hitlist.CloseAndFinalize(); err == nil {
		err = e
	}
	if e := b.skiplist.CloseAndFinalize(); err == nil {
		err = e
	}
	return err
}
