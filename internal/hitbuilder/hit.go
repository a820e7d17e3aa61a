package hitbuilder

// Hit is the (doc_id, word_id, word_pos) triple of spec.md §3.1. Hits must
// arrive in strictly ascending (WordID, DocID, WordPos) order; a sentinel
// Hit{WordID: 0, WordPos: EmptyHit} terminates the stream.
type Hit struct {
	WordID  uint64
	DocID   uint64
	WordPos uint32
}

// IsSentinel reports whether h is the stream-terminating sentinel.
func (h Hit) IsSentinel() bool {
	return h.WordID == 0 && h.WordPos == EmptyHit
}

// HitlessMode controls whether hit positions are recorded at all for a
// word, per spec.md §4.D.
type HitlessMode int

const (
	// HitlessNone always emits hit positions.
	HitlessNone HitlessMode = iota
	// HitlessAll never emits hit positions: only per-doc hit counts
	// survive.
	HitlessAll
	// HitlessSome decides per-word, driven by a caller-supplied set of
	// hitless word IDs (Options.HitlessWordIDs).
	HitlessSome
)

// DictEntry is the per-keyword record queued for the dictionary finalizer,
// matching spec.md §3.2.
type DictEntry struct {
	WordID         uint64
	Keyword        []byte // set only in word-dict mode; nil in CRC-dict mode
	DoclistOffset  int64
	DocCount       uint32
	HitCount       uint32
	SkiplistOffset uint32 // valid only if DocCount > SkiplistBlock
	Hint           uint8  // valid only if DocCount >= HintThreshold
	Hitless        bool   // positions suppressed for this word (HitlessAll, or a listed word under HitlessSome)
}

const (
	// SkiplistBlock is the number of documents per skiplist entry
	// (spec.md §3.3).
	SkiplistBlock = 128
	// HintThreshold is the minimum doc count at which a prefetch hint is
	// recorded (spec.md §3.2).
	HintThreshold = 256
)
