package ioutil

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// bufSize matches the Linux pipe size, as store/freelist and store/index
// both choose for their bufio.Writer/Reader sizing.
const bufSize = 16 * 4096

// Writer is a throttled, buffered append-only file handle shared by the
// doclist/hitlist/skiplist/dictionary writers. Errors are sticky: once Err
// is non-nil every subsequent Write is a no-op that preserves the first
// error, matching spec.md's "writer objects carry a sticky error flag"
// propagation policy.
type Writer struct {
	file     *os.File
	buf      *bufio.Writer
	throttle *Throttle
	offset   int64
	err      error
}

// CreateWriter creates (or truncates) path and wraps it in a throttled
// buffered Writer. throttle may be nil to disable throttling.
func CreateWriter(path string, throttle *Throttle) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &Writer{
		file:     f,
		buf:      bufio.NewWriterSize(f, bufSize),
		throttle: throttle,
	}, nil
}

// Preallocate hints the filesystem to reserve size bytes starting at the
// writer's current offset, matching compactindexsized's fallocate use on
// Linux. Any fallocate error is ignored, since this is purely an
// optimization.
func (w *Writer) Preallocate(size int64) {
	if w.err != nil || size <= 0 {
		return
	}
	if err := unix.Fallocate(int(w.file.Fd()), 0, w.offset, size); err != nil {
		// Not every filesystem supports fallocate; this is advisory only.
		_ = err
	}
}

// Write appends p, returning the byte offset at which it was written. A
// sticky error short-circuits and returns the prior offset unchanged.
func (w *Writer) Write(p []byte) (off int64, err error) {
	if w.err != nil {
		return w.offset, w.err
	}
	if w.throttle != nil {
		w.throttle.Before(len(p))
	}
	off = w.offset
	n, err := w.buf.Write(p)
	w.offset += int64(n)
	if err != nil {
		w.err = fmt.Errorf("write at offset %d: %w", off, err)
		return off, w.err
	}
	return off, nil
}

// Offset returns the current logical write offset (bytes written so far,
// including buffered-but-not-yet-flushed data).
func (w *Writer) Offset() int64 { return w.offset }

// Err returns the first sticky error encountered, if any.
func (w *Writer) Err() error { return w.err }

// Flush flushes buffered data to the OS. It is a no-op if a sticky error is
// already set, surfacing that error instead, matching spec.md §4.F/§7's
// "any operation after the first error ... preserves the first error's
// message".
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.buf.Flush(); err != nil {
		w.err = fmt.Errorf("flush: %w", err)
		return w.err
	}
	return nil
}

// CloseAndFinalize flushes, syncs, and closes the file. The sticky error
// (if any) is returned even if Close itself would otherwise succeed.
func (w *Writer) CloseAndFinalize() error {
	ferr := w.Flush()
	if err := w.file.Sync(); err != nil && ferr == nil {
		ferr = fmt.Errorf("sync: %w", err)
	}
	if err := w.file.Close(); err != nil && ferr == nil {
		ferr = fmt.Errorf("close: %w", err)
	}
	return ferr
}

// Reader is a buffered sequential reader over an index file. The
// dictionary finalizer's merge pass does not use it: it reads its
// s2-compressed scratch files through internal/dict's own reader.
type Reader struct {
	file *os.File
	buf  *bufio.Reader
}

// OpenReader opens path for buffered sequential reads.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: f, buf: bufio.NewReaderSize(f, bufSize)}, nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) { return r.buf.Read(p) }

// Close closes the underlying file.
func (r *Reader) Close() error { return r.file.Close() }
