// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"sync"
)

// HistoryStore holds bounded rolling histories of band energies and beat
// flags, safe for one writer (the pipeline) and any number of readers.
// All four series are appended to atomically, so index i in every snapshot
// slice refers to the same frame.
//
// Both critical sections are bounded: Append is O(1), Snapshot copies at
// most Cap entries per series. The producer is never blocked by a reader
// for longer than one bounded copy.
type HistoryStore struct {
	mu     sync.Mutex
	bass   floatRing
	mid    floatRing
	treble floatRing
	beats  boolRing
}

// NewHistoryStore creates a store keeping the most recent capacity frames.
func NewHistoryStore(capacity int) (*HistoryStore, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("history capacity must be >= 1, got %d", capacity)
	}
	return &HistoryStore{
		bass:   floatRing{buf: make([]float64, capacity)},
		mid:    floatRing{buf: make([]float64, capacity)},
		treble: floatRing{buf: make([]float64, capacity)},
		beats:  boolRing{buf: make([]bool, capacity)},
	}, nil
}

// Append pushes one entry onto every series, evicting the oldest entry of
// each once capacity is reached. Must only be called from the single
// producer context.
func (h *HistoryStore) Append(energies BandEnergies, beat bool) {
	h.mu.Lock()
	h.bass.push(energies.Bass)
	h.mid.push(energies.Mid)
	h.treble.push(energies.Treble)
	h.beats.push(beat)
	h.mu.Unlock()
}

// Snapshot returns consistent point-in-time copies of all four series in
// arrival order (oldest first). The returned slices are independent of the
// store and always have identical length, even when Append races the call.
func (h *HistoryStore) Snapshot() (bass, mid, treble []float64, beats []bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bass.copyOut(), h.mid.copyOut(), h.treble.copyOut(), h.beats.copyOut()
}

// Len returns the current number of entries per series.
func (h *HistoryStore) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bass.size
}

// Cap returns the configured capacity.
func (h *HistoryStore) Cap() int {
	return len(h.bass.buf)
}

// floatRing is a fixed-capacity FIFO over a pre-allocated backing array.
// head indexes the oldest entry.
type floatRing struct {
	buf  []float64
	head int
	size int
}

func (r *floatRing) push(v float64) {
	if r.size == len(r.buf) {
		// Full: overwrite the oldest entry and advance.
		r.buf[r.head] = v
		r.head = (r.head + 1) % len(r.buf)
		return
	}
	r.buf[(r.head+r.size)%len(r.buf)] = v
	r.size++
}

func (r *floatRing) copyOut() []float64 {
	out := make([]float64, r.size)
	n := copy(out, r.buf[r.head:min(r.head+r.size, len(r.buf))])
	copy(out[n:], r.buf[:r.size-n])
	return out
}

type boolRing struct {
	buf  []bool
	head int
	size int
}

func (r *boolRing) push(v bool) {
	if r.size == len(r.buf) {
		r.buf[r.head] = v
		r.head = (r.head + 1) % len(r.buf)
		return
	}
	r.buf[(r.head+r.size)%len(r.buf)] = v
	r.size++
}

func (r *boolRing) copyOut() []bool {
	out := make([]bool, r.size)
	n := copy(out, r.buf[r.head:min(r.head+r.size, len(r.buf))])
	copy(out[n:], r.buf[:r.size-n])
	return out
}
