// Package infix implements the infix index: for every indexed keyword,
// every substring of 2 to 6 codepoints is enumerated and mapped to the
// checkpoint IDs of the keywords it occurs in, supporting "*word*"
// wildcard queries (spec.md §4.G).
//
// The specification's C structure templates 2-, 3-, and 5-DWORD hash keys
// for SBCS and increasingly wide UTF-8 infixes; a Go map keyed by the raw
// infix string is the idiomatic equivalent of that size-class dispatch
// (see DESIGN.md) and needs no separate code path per width.
package infix

import (
	"sort"
	"sync"
	"unicode/utf8"
)

const (
	// MinInfixLen and MaxInfixLen bound enumerated infix length in
	// codepoints.
	MinInfixLen = 2
	MaxInfixLen = 6

	// BlockSize is the number of infix entries per packed block
	// (spec.md §3.6).
	BlockSize = 64

	// MorphologyMarker prefixes an exact-form keyword; it is stripped
	// before infix enumeration since wildcard search operates on the
	// surface form.
	MorphologyMarker = '='
)

// Builder accumulates (infix -> checkpoint IDs) postings while the
// dictionary finalizer streams keywords past it.
type Builder struct {
	mu    sync.Mutex
	table map[string][]int32
}

// NewBuilder returns an empty infix builder.
func NewBuilder() *Builder {
	return &Builder{table: make(map[string][]int32)}
}

// AddKeyword enumerates every infix of keyword and records checkpointID
// against each, deduplicating consecutive equal IDs from the same
// keyword (spec.md §4.F step 4 feeds keywords in ascending order, one
// checkpoint at a time).
func (b *Builder) AddKeyword(keyword []byte, checkpointID int32) {
	kw := keyword
	if len(kw) > 0 && kw[0] == MorphologyMarker {
		kw = kw[1:]
	}
	runes := []rune(string(kw))
	n := len(runes)

	b.mu.Lock()
	defer b.mu.Unlock()
	for start := 0; start < n; start++ {
		maxLen := MaxInfixLen
		if n-start < maxLen {
			maxLen = n - start
		}
		for length := MinInfixLen; length <= maxLen; length++ {
			infix := string(runes[start : start+length])
			b.add(infix, checkpointID)
		}
	}
}

func (b *Builder) add(infix string, id int32) {
	ids := b.table[infix]
	if n := len(ids); n == 0 || ids[n-1] != id {
		b.table[infix] = append(ids, id)
	}
}

// BlockHeader names a packed block's first infix and its byte offset in
// the saved blob, for the binary-search lookup path (spec.md §3.6).
type BlockHeader struct {
	FirstInfix string
	Offset     int
}

// Save packs every accumulated infix into BlockSize-entry blocks, sorted
// by infix bytes and front-coded at codepoint granularity, and returns the
// serialized blob plus its block index.
func (b *Builder) Save() (blob []byte, headers []BlockHeader) {
	b.mu.Lock()
	keys := make([]string, 0, len(b.table))
	for k := range b.table {
		keys = append(keys, k)
	}
	b.mu.Unlock()
	sort.Strings(keys)

	var prev string
	for i, k := range keys {
		if i%BlockSize == 0 {
			if i > 0 {
				blob = append(blob, 0) // terminate previous block
			}
			headers = append(headers, BlockHeader{FirstInfix: k, Offset: len(blob)})
			prev = ""
		}
		blob = encodeEntry(blob, prev, k, b.table[k])
		prev = k
	}
	if len(keys) > 0 {
		blob = append(blob, 0)
	}
	return blob, headers
}
