package dict

// EncodeFrontCode appends the front-coded representation of cur against
// prev to dst, per spec.md §3.5: a packed byte when the tail is short and
// shallow enough (delta <= 8, match <= 15), otherwise two raw bytes, then
// the tail itself. cur must sort strictly after prev and must not equal a
// prefix of prev, so the tail is always non-empty.
func EncodeFrontCode(dst, prev, cur []byte) []byte {
	match := commonPrefixLen(prev, cur)
	if match > 255 {
		match = 255
	}
	tail := cur[match:]
	delta := len(tail)

	if delta >= 1 && delta <= 8 && match <= 15 {
		dst = append(dst, 0x80|byte((delta-1)<<4)|byte(match))
	} else {
		dst = append(dst, byte(delta), byte(match))
	}
	return append(dst, tail...)
}

// EncodeFrontCodeTerminator appends the zero-byte block terminator.
func EncodeFrontCodeTerminator(dst []byte) []byte {
	return append(dst, 0)
}

// DecodeFrontCode decodes one front-coded keyword from buf against prev.
// end reports whether buf began with the zero-byte block terminator, in
// which case cur is nil and n is 1.
func DecodeFrontCode(prev, buf []byte) (cur []byte, n int, end bool) {
	if len(buf) == 0 {
		return nil, 0, true
	}
	b0 := buf[0]
	if b0 == 0 {
		return nil, 1, true
	}
	if b0&0x80 != 0 {
		delta := int((b0>>4)&0x07) + 1
		match := int(b0 & 0x0f)
		tail := buf[1 : 1+delta]
		cur = append(append([]byte(nil), prev[:match]...), tail...)
		return cur, 1 + delta, false
	}
	delta := int(b0)
	match := int(buf[1])
	tail := buf[2 : 2+delta]
	cur = append(append([]byte(nil), prev[:match]...), tail...)
	return cur, 2 + delta, false
}

func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
