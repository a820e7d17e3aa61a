// Package config models the environment/config inputs spec.md §6 lists as
// consumed, not owned: tokenizer settings, dictionary settings, and index
// settings. There is no file parser here (that's out of scope); callers
// build an Options value with functional options the way store.New does
// it (store/option.go).
package config

import "github.com/rpcpool/sphx-index/internal/dict"

// HitFormat selects how a hitlist's per-document hit stream is encoded.
type HitFormat int

const (
	HitFormatPlain HitFormat = iota
	HitFormatInline
)

// HitlessMode controls whether (and for which fields) hit positions are
// dropped from the hitlist, keeping only per-document frequency.
type HitlessMode int

const (
	HitlessNone HitlessMode = iota
	HitlessSome
	HitlessAll
)

const (
	defaultMinWordLen   = 1
	defaultMaxWordLen   = 32
	defaultNgramLen     = 0
	defaultMinPrefixLen = 0
	defaultMinInfixLen  = 0
	defaultMaxSubstrLen = 0
)

// Options is the full set of tokenizer, dictionary, and index settings one
// index build consumes.
type Options struct {
	// Tokenizer settings.
	MinWordLen     int
	MaxWordLen     int
	UTF8Mode       bool
	NgramLen       int
	SynonymsFile   string
	ExceptionsFile string
	BlendChars     string
	BoundaryChars  string

	// Dictionary settings.
	Morphology string
	Stopwords  []string
	Wordforms  map[string]string
	DictMode   dict.Mode

	// Index settings.
	MinPrefixLen  int
	MinInfixLen   int
	MaxSubstrLen  int
	HitFormat     HitFormat
	HitlessMode   HitlessMode
	BigramIndex   bool
	FieldLenIndex bool
}

// Option mutates an Options value under construction.
type Option func(*Options)

// New builds an Options value from the teacher's corpus-wide defaults,
// applying opts in order.
func New(opts ...Option) Options {
	o := Options{
		MinWordLen: defaultMinWordLen,
		MaxWordLen: defaultMaxWordLen,
		NgramLen:   defaultNgramLen,
		UTF8Mode:   true,
		DictMode:   dict.CRCDictMode,

		MinPrefixLen: defaultMinPrefixLen,
		MinInfixLen:  defaultMinInfixLen,
		MaxSubstrLen: defaultMaxSubstrLen,
		HitFormat:    HitFormatInline,
		HitlessMode:  HitlessNone,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithWordLenRange sets the tokenizer's accepted word length range.
func WithWordLenRange(min, max int) Option {
	return func(o *Options) {
		o.MinWordLen = min
		o.MaxWordLen = max
	}
}

// WithUTF8Mode toggles UTF-8 aware tokenization versus single-byte.
func WithUTF8Mode(enabled bool) Option {
	return func(o *Options) {
		o.UTF8Mode = enabled
	}
}

// WithNgramLen sets the n-gram length for n-gram (e.g. CJK) tokenization.
// Zero disables n-gram tokenization.
func WithNgramLen(n int) Option {
	return func(o *Options) {
		o.NgramLen = n
	}
}

// WithSynonymsFile names the synonym/exception source file path; reading
// and parsing it is the caller's responsibility.
func WithSynonymsFile(path string) Option {
	return func(o *Options) {
		o.SynonymsFile = path
	}
}

// WithExceptionsFile names the tokenizer exception-mapping source file
// path, loaded into internal/exceptions by the caller.
func WithExceptionsFile(path string) Option {
	return func(o *Options) {
		o.ExceptionsFile = path
	}
}

// WithBlendChars sets the characters treated as word-internal punctuation
// (kept as part of a token rather than splitting it).
func WithBlendChars(chars string) Option {
	return func(o *Options) {
		o.BlendChars = chars
	}
}

// WithBoundaryChars sets the characters forced to always split a token,
// even inside what would otherwise be a blended run.
func WithBoundaryChars(chars string) Option {
	return func(o *Options) {
		o.BoundaryChars = chars
	}
}

// WithMorphology names the stemming/lemmatization pipeline identifier
// applied before interning a keyword.
func WithMorphology(name string) Option {
	return func(o *Options) {
		o.Morphology = name
	}
}

// WithStopwords sets the stopword list excluded from indexing.
func WithStopwords(words []string) Option {
	return func(o *Options) {
		o.Stopwords = words
	}
}

// WithWordforms sets the surface-form to normalized-form rewrite table.
func WithWordforms(forms map[string]string) Option {
	return func(o *Options) {
		o.Wordforms = forms
	}
}

// WithDictMode selects whether the dictionary assigns word IDs by CRC or
// keeps them keyed by the literal keyword (spec.md's dict=crc|keywords).
func WithDictMode(mode dict.Mode) Option {
	return func(o *Options) {
		o.DictMode = mode
	}
}

// WithMinPrefixLen sets the shortest prefix length the infix builder also
// indexes as a standalone prefix entry.
func WithMinPrefixLen(n int) Option {
	return func(o *Options) {
		o.MinPrefixLen = n
	}
}

// WithMinInfixLen sets the shortest infix length indexed; 0 disables
// infix indexing.
func WithMinInfixLen(n int) Option {
	return func(o *Options) {
		o.MinInfixLen = n
	}
}

// WithMaxSubstrLen caps the substring length the infix builder will index,
// bounding index size for long keywords.
func WithMaxSubstrLen(n int) Option {
	return func(o *Options) {
		o.MaxSubstrLen = n
	}
}

// WithHitFormat selects the hitlist's on-disk hit encoding.
func WithHitFormat(f HitFormat) Option {
	return func(o *Options) {
		o.HitFormat = f
	}
}

// WithHitlessMode selects which documents keep hit positions versus only
// a frequency count.
func WithHitlessMode(m HitlessMode) Option {
	return func(o *Options) {
		o.HitlessMode = m
	}
}

// WithBigramIndex toggles bigram (adjacent keyword pair) indexing.
func WithBigramIndex(enabled bool) Option {
	return func(o *Options) {
		o.BigramIndex = enabled
	}
}

// WithFieldLenIndex toggles per-document field-length indexing, used by
// rankers that normalize by field length.
func WithFieldLenIndex(enabled bool) Option {
	return func(o *Options) {
		o.FieldLenIndex = enabled
	}
}
