// Package ioutil provides the throttled write path and buffered file
// handles shared by the doclist, hitlist, skiplist and dictionary writers.
//
// Grounded on store/freelist.FreeList (bufio.Writer over an append-only
// file, sticky-error-free Flush/Sync/Close) and store/config.go's burst
// rate knob, generalized from a single fixed-shape record to an arbitrary
// byte stream.
package ioutil

import (
	"sync"
	"time"
)

// Throttle enforces a maximum IOPS and maximum bytes-per-second budget
// using short sleeps rather than a goroutine-driven leaky bucket or
// timer. This mirrors the original engine's io throttle: a mutex-guarded
// counter reset once per second, not a time.Ticker.
type Throttle struct {
	maxIOPS      int
	maxBytesSec  int64
	mu           sync.Mutex
	windowStart  time.Time
	iopsInWindow int
	bytesInWindow int64
	now          func() time.Time
	sleep        func(time.Duration)
}

// NewThrottle builds a Throttle. maxIOPS == 0 or maxBytesSec == 0 disables
// the corresponding cap.
func NewThrottle(maxIOPS int, maxBytesSec int64) *Throttle {
	return &Throttle{
		maxIOPS:     maxIOPS,
		maxBytesSec: maxBytesSec,
		windowStart: time.Now(),
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// Before must be called immediately before issuing an I/O of the given
// size. It blocks until the operation is permitted under the configured
// budget.
func (t *Throttle) Before(nbytes int) {
	if t.maxIOPS == 0 && t.maxBytesSec == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		elapsed := t.now().Sub(t.windowStart)
		if elapsed >= time.Second {
			t.windowStart = t.now()
			t.iopsInWindow = 0
			t.bytesInWindow = 0
			elapsed = 0
		}

		overIOPS := t.maxIOPS != 0 && t.iopsInWindow >= t.maxIOPS
		overBytes := t.maxBytesSec != 0 && t.bytesInWindow >= t.maxBytesSec
		if !overIOPS && !overBytes {
			break
		}
		remaining := time.Second - elapsed
		t.mu.Unlock()
		t.sleep(remaining)
		t.mu.Lock()
	}

	t.iopsInWindow++
	t.bytesInWindow += int64(nbytes)
}
