package infix

import "sort"

// Lookup resolves infix (2-6 codepoints) to its posting list by
// binary-searching the block index, then walking the block's front-coded
// entries to find an exact match (spec.md §4.G Lookup).
func Lookup(blob []byte, headers []BlockHeader, infix string) ([]int32, bool) {
	if len(headers) == 0 {
		return nil, false
	}
	i := sort.Search(len(headers), func(i int) bool {
		return headers[i].FirstInfix > infix
	}) - 1
	if i < 0 {
		return nil, false
	}

	prev := ""
	pos := headers[i].Offset
	for {
		cur, ids, n, end := decodeEntry(prev, blob[pos:])
		if end {
			return nil, false
		}
		if cur == infix {
			return ids, true
		}
		if cur > infix {
			return nil, false
		}
		prev = cur
		pos += n
	}
}
