// Package cache pages an ordered alignment stream into a bounded,
// index-addressable buffer.
//
// Records are pulled one window at a time. Once the caller's scan position
// has moved far enough past the oldest window, that window is evicted and
// handed back to the caller as finalized.
package cache

import (
	"errors"
	"fmt"
	"io"

	"layoutrefine/internal/delta"
)

// CapacityFactor is the number of windows the cache may hold at once.
const CapacityFactor = 1000

var (
	// ErrEvicted is returned for an index that was already unloaded.
	// The window is too small for the overlap density of the input.
	ErrEvicted = errors.New("cache: index already evicted; increase window size")
	// ErrCapacityExceeded is returned when more records are pending than the
	// cache may hold.
	ErrCapacityExceeded = errors.New("cache: capacity exceeded; increase window size")
	// ErrWindowSize is returned by New for a non-positive window.
	ErrWindowSize = errors.New("cache: window size must be positive")
)

// Window is the cache. It owns every buffered record until that record is
// returned from TryUnload or Drain.
type Window struct {
	src        delta.Source
	windowSize int
	capacity   int64

	buf       []*delta.Alignment
	origin    int64 // logical index of buf[0]
	pulled    int64
	exhausted bool
}

// New creates a cache over src. Nothing is read until the first Get.
func New(src delta.Source, windowSize int) (*Window, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrWindowSize, windowSize)
	}
	return &Window{
		src:        src,
		windowSize: windowSize,
		capacity:   int64(windowSize) * CapacityFactor,
	}, nil
}

// Get returns the record at logical index. ok is false once the input ends
// before index.
func (w *Window) Get(index int64) (a *delta.Alignment, ok bool, err error) {
	rel := index - w.origin
	if rel < 0 {
		return nil, false, fmt.Errorf("%w: index %d, origin %d", ErrEvicted, index, w.origin)
	}
	for rel >= int64(len(w.buf)) {
		if w.exhausted {
			return nil, false, nil
		}
		if rel >= w.capacity {
			return nil, false, fmt.Errorf("%w: index %d, origin %d, capacity %d", ErrCapacityExceeded, index, w.origin, w.capacity)
		}
		if _, err := w.load(); err != nil {
			return nil, false, err
		}
	}
	return w.buf[rel], true, nil
}

// TryUnload evicts the oldest window once current has reached the last window
// of capacity, then pulls the next window to replace it. It returns the
// evicted records, or nil when nothing was evicted.
func (w *Window) TryUnload(current int64) ([]*delta.Alignment, error) {
	if current-w.origin < w.capacity-int64(w.windowSize) || w.exhausted {
		return nil, nil
	}
	n, err := w.load()
	if err != nil {
		return nil, err
	}
	if n == 0 || len(w.buf) < w.windowSize {
		return nil, nil
	}
	out := make([]*delta.Alignment, w.windowSize)
	copy(out, w.buf[:w.windowSize])
	clear(w.buf[:w.windowSize])
	w.buf = w.buf[w.windowSize:]
	w.origin += int64(w.windowSize)
	return out, nil
}

// Drain hands back every buffered record and empties the cache.
func (w *Window) Drain() []*delta.Alignment {
	out := w.buf
	w.origin += int64(len(w.buf))
	w.buf = nil
	return out
}

// Origin is the logical index of the oldest buffered record.
func (w *Window) Origin() int64 { return w.origin }

// Len is the number of buffered records.
func (w *Window) Len() int { return len(w.buf) }

// Capacity is the maximum number of records pending finalization.
func (w *Window) Capacity() int64 { return w.capacity }

// Pulled is the number of records read from the source so far.
func (w *Window) Pulled() int64 { return w.pulled }

// Exhausted reports whether the source has been read to the end.
func (w *Window) Exhausted() bool { return w.exhausted }

// load pulls up to one window from the source.
func (w *Window) load() (int, error) {
	n := 0
	for ; n < w.windowSize && !w.exhausted; n++ {
		a, err := w.src.Next()
		if errors.Is(err, io.EOF) {
			w.exhausted = true
			break
		}
		if err != nil {
			return n, fmt.Errorf("cache: read record %d: %w", w.pulled, err)
		}
		w.buf = append(w.buf, a)
		w.pulled++
	}
	return n, nil
}
