package infix

import (
	"unicode/utf8"

	"github.com/rpcpool/sphx-index/internal/vlb"
)

// encodeEntry appends one InfixEntry (spec.md §3.6) for infix against prev
// (both runs of codepoints), with ids already in ascending order. Byte
// order is edit_code, zint data_len, tail_bytes, zint deltas: data_len
// precedes the tail it describes so a reader can locate the tail's end
// without rescanning UTF-8 boundaries.
func encodeEntry(dst []byte, prev, cur string, ids []int32) []byte {
	kept := commonPrefixRunes(prev, cur)
	tail := tailBytes(cur, kept)
	newChars := utf8.RuneCountInString(tail)

	editCode := byte(kept<<4) | byte(newChars&0x0f)
	dst = append(dst, editCode)
	dst = vlb.PutU32(dst, uint32(len(tail)))
	dst = append(dst, tail...)

	prevID := int32(-1)
	for _, id := range ids {
		dst = vlb.PutU32(dst, uint32(id-prevID))
		prevID = id
	}
	dst = vlb.PutU32(dst, 0) // terminator; deltas start from -1 and ids are strictly ascending, so every delta is at least 1
	return dst
}

// decodeEntry reads one InfixEntry out of buf against prev, returning the
// decoded infix, its posting list, and the number of bytes consumed. end
// reports the zero edit_code block terminator.
//
// data_len (the encoded tail byte count) lets a reader skip the tail
// without walking UTF-8 rune boundaries; this decoder uses it directly
// rather than rescanning, since encodeEntry already knows the exact byte
// span.
func decodeEntry(prev string, buf []byte) (cur string, ids []int32, n int, end bool) {
	if len(buf) == 0 {
		return "", nil, 0, true
	}
	editCode := buf[0]
	if editCode == 0 {
		return "", nil, 1, true
	}
	kept := int(editCode >> 4)
	pos := 1

	keptBytes := runesByteLen([]rune(prev), kept)

	r := vlb.NewReader(buf[pos:])
	tailLen := int(r.U32())
	pos += r.Pos()

	tail := buf[pos : pos+tailLen]
	pos += tailLen
	cur = prev[:keptBytes] + string(tail)

	r = vlb.NewReader(buf[pos:])
	last := int32(-1)
	for {
		delta := r.U32()
		if delta == 0 {
			break
		}
		last += int32(delta)
		ids = append(ids, last)
	}
	pos += r.Pos()

	return cur, ids, pos, false
}

func commonPrefixRunes(a, b string) int {
	ar, br := []rune(a), []rune(b)
	n := len(ar)
	if len(br) < n {
		n = len(br)
	}
	for i := 0; i < n; i++ {
		if ar[i] != br[i] {
			return i
		}
	}
	return n
}

func runesByteLen(runes []rune, n int) int {
	if n > len(runes) {
		n = len(runes)
	}
	length := 0
	for i := 0; i < n; i++ {
		length += utf8.RuneLen(runes[i])
	}
	return length
}

func tailBytes(cur string, keptRunes int) string {
	runes := []rune(cur)
	return string(runes[keptRunes:])
}
