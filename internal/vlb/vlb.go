// Package vlb implements the variable-length-byte integer codec used
// throughout the on-disk index formats: doclist deltas, hitlist deltas,
// skiplist entries, and dictionary front-coding lengths all ride on this
// codec.
//
// Encoding packs 7 value bits per byte. The high bit of each byte is a
// continuation flag: 1 means another byte follows, 0 marks the last byte.
// Bytes are emitted least-significant-group first, matching the layout of
// encoding/binary's Uvarint so that readers needing only the fast,
// branch-light decode path can share logic with stdlib-shaped buffers.
// Values are never zigzag-coded: every value this codec carries is already
// a non-negative delta or count.
package vlb

// MaxBytes32 is the largest number of bytes PutU32 ever writes.
const MaxBytes32 = 5

// MaxBytes64 is the largest number of bytes PutU64 ever writes.
const MaxBytes64 = 10

// PutU32 appends the VLB encoding of v to dst and returns the result.
func PutU32(dst []byte, v uint32) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// PutU64 appends the VLB encoding of v to dst and returns the result.
func PutU64(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// GetU32 decodes a VLB-encoded uint32 from buf, returning the value and the
// number of bytes consumed. n == 0 indicates buf was too short.
func GetU32(buf []byte) (uint32, int) {
	var v uint32
	var shift uint
	for i, b := range buf {
		if shift >= 32 {
			return 0, 0
		}
		v |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, i + 1
		}
		shift += 7
	}
	return 0, 0
}

// GetU64 decodes a VLB-encoded uint64 from buf, returning the value and the
// number of bytes consumed. n == 0 indicates buf was too short.
func GetU64(buf []byte) (uint64, int) {
	var v uint64
	var shift uint
	for i, b := range buf {
		if shift >= 64 {
			return 0, 0
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, i + 1
		}
		shift += 7
	}
	return 0, 0
}

// Reader decodes a sequential stream of VLB values out of an in-memory
// buffer, the hot loop used by the dictionary block reader and the doclist
// and hitlist decoders. It does not validate the continuation bit beyond
// what is necessary to stop: callers that over-read past the end of a
// well-formed buffer get a zero value, not a panic.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential VLB decoding starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current read offset into the underlying buffer.
func (r *Reader) Pos() int { return r.pos }

// SetPos repositions the reader.
func (r *Reader) SetPos(pos int) { r.pos = pos }

// Remaining reports whether unread bytes remain.
func (r *Reader) Remaining() bool { return r.pos < len(r.buf) }

// U32 decodes the next value as a uint32.
func (r *Reader) U32() uint32 {
	v, n := GetU32(r.buf[r.pos:])
	r.pos += n
	return v
}

// U64 decodes the next value as a uint64.
func (r *Reader) U64() uint64 {
	v, n := GetU64(r.buf[r.pos:])
	r.pos += n
	return v
}

// Keyword decodes a length-prefixed keyword: a single length byte capped at
// 127, followed by that many raw bytes. This shares the length byte's
// continuation-free shape with a one-byte VLB value, so readers that only
// handle the single-byte fast path can still parse it.
func Keyword(buf []byte) (kw []byte, n int) {
	if len(buf) == 0 {
		return nil, 0
	}
	l := int(buf[0] & 0x7f)
	if len(buf) < 1+l {
		return nil, 0
	}
	return buf[1 : 1+l], 1 + l
}

// PutKeyword appends a length-prefixed keyword to dst. Keywords longer than
// 127 bytes are truncated to their first 127 bytes.
func PutKeyword(dst []byte, kw []byte) []byte {
	if len(kw) > 0x7f {
		kw = kw[:0x7f]
	}
	dst = append(dst, byte(len(kw)))
	return append(dst, kw...)
}
