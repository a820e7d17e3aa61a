package dict

import (
	"fmt"

	"github.com/rpcpool/sphx-index/internal/vlb"
)

// EncodeCheckpoints serializes a checkpoint list as a small sidecar blob:
// a count, followed by each checkpoint's (keyword-or-word-id, offset)
// pair. Readers load this once at open, the same way the finalizer
// returns it once at build time.
func EncodeCheckpoints(mode Mode, checkpoints []Checkpoint) []byte {
	buf := vlb.PutU64(nil, uint64(len(checkpoints)))
	for _, cp := range checkpoints {
		if mode == CRCDictMode {
			buf = vlb.PutU64(buf, cp.WordID)
		} else {
			buf = vlb.PutKeyword(buf, cp.FirstKeyword)
		}
		buf = vlb.PutU64(buf, uint64(cp.Offset))
	}
	return buf
}

// DecodeCheckpoints parses the blob EncodeCheckpoints produces.
func DecodeCheckpoints(mode Mode, buf []byte) ([]Checkpoint, error) {
	n, pos := vlb.GetU64(buf)
	checkpoints := make([]Checkpoint, 0, n)
	for i := uint64(0); i < n; i++ {
		if pos >= len(buf) {
			return nil, fmt.Errorf("dict: truncated checkpoint blob at entry %d", i)
		}
		var cp Checkpoint
		if mode == CRCDictMode {
			v, vn := vlb.GetU64(buf[pos:])
			cp.WordID = v
			pos += vn
		} else {
			kw, n := vlb.Keyword(buf[pos:])
			cp.FirstKeyword = append([]byte(nil), kw...)
			pos += n
		}
		off, offN := vlb.GetU64(buf[pos:])
		cp.Offset = int64(off)
		pos += offN
		checkpoints = append(checkpoints, cp)
	}
	return checkpoints, nil
}
