package dict

import (
	"bufio"
	"fmt"
	"os"

	"github.com/klauspost/compress/s2"

	"github.com/rpcpool/sphx-index/internal/hitbuilder"
	"github.com/rpcpool/sphx-index/internal/vlb"
)

// Entry is one keyword-sort-block record: a keyword plus the
// DictEntry the hit builder produced for it (spec.md §4.F step 1).
type Entry struct {
	Keyword   []byte
	DictEntry hitbuilder.DictEntry
}

// ScratchWriter appends sorted keyword/entry pairs to a compressed scratch
// file. Callers sort a batch in memory, write it with WriteBatch, and
// start a fresh scratch file for the next batch: the finalizer merges the
// resulting files.
type ScratchWriter struct {
	f   *os.File
	w   *s2.Writer
	err error
}

// CreateScratchWriter opens a new scratch file at path, compressed with
// s2 (klauspost/compress), matching the corpus's preference for s2 over
// gzip on write-once throughput-bound scratch data.
func CreateScratchWriter(path string) (*ScratchWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &ScratchWriter{f: f, w: s2.NewWriter(f)}, nil
}

// WriteBatch writes entries, which must already be sorted in the
// finalizer's merge order: by keyword in WordDictMode, by word ID in
// CRCDictMode.
func (sw *ScratchWriter) WriteBatch(entries []Entry) error {
	if sw.err != nil {
		return sw.err
	}
	var buf []byte
	for _, e := range entries {
		buf = buf[:0]
		buf = vlb.PutKeyword(buf, e.Keyword)
		buf = vlb.PutU64(buf, e.DictEntry.WordID)
		buf = vlb.PutU64(buf, uint64(e.DictEntry.DoclistOffset))
		buf = vlb.PutU64(buf, uint64(e.DictEntry.DocCount))
		buf = vlb.PutU64(buf, uint64(e.DictEntry.HitCount))
		buf = vlb.PutU64(buf, uint64(e.DictEntry.SkiplistOffset))
		buf = append(buf, e.DictEntry.Hint)
		if e.DictEntry.Hitless {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		if _, err := sw.w.Write(buf); err != nil {
			sw.err = fmt.Errorf("scratch write: %w", err)
			return sw.err
		}
	}
	return nil
}

// Close flushes and closes the scratch file.
func (sw *ScratchWriter) Close() error {
	if err := sw.w.Close(); err != nil {
		return err
	}
	return sw.f.Close()
}

// scratchReader decodes one scratch file's records sequentially, for use
// as one leg of the finalizer's k-way merge.
type scratchReader struct {
	f    *os.File
	r    *s2.Reader
	br   *bufio.Reader
	done bool
}

func openScratchReader(path string, bufBytes int) (*scratchReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := s2.NewReader(f)
	return &scratchReader{f: f, r: r, br: bufio.NewReaderSize(r, bufBytes)}, nil
}

// next reads one record, reporting io.EOF-equivalent via done.
func (sr *scratchReader) next() (Entry, error) {
	lenByte, err := sr.br.ReadByte()
	if err != nil {
		sr.done = true
		return Entry{}, err
	}
	kwLen := int(lenByte & 0x7f)
	kw := make([]byte, kwLen)
	if _, err := readFull(sr.br, kw); err != nil {
		return Entry{}, err
	}
	var fields [5]uint64
	for i := range fields {
		v, err := readVLB(sr.br)
		if err != nil {
			return Entry{}, err
		}
		fields[i] = v
	}
	hintByte, err := sr.br.ReadByte()
	if err != nil {
		return Entry{}, err
	}
	hitlessByte, err := sr.br.ReadByte()
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Keyword: kw,
		DictEntry: hitbuilder.DictEntry{
			WordID:         fields[0],
			DoclistOffset:  int64(fields[1]),
			DocCount:       uint32(fields[2]),
			HitCount:       uint32(fields[3]),
			SkiplistOffset: uint32(fields[4]),
			Hint:           hintByte,
			Hitless:        hitlessByte != 0,
		},
	}, nil
}

func (sr *scratchReader) close() error {
	return sr.f.Close()
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// readVLB decodes one VLB-encoded uint64 directly off a byte reader.
func readVLB(r *bufio.Reader) (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
}
