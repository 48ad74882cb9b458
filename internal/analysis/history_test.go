// SPDX-License-Identifier: MIT
package analysis

import (
	"sync"
	"testing"
)

func newTestStore(t testing.TB, capacity int) *HistoryStore {
	t.Helper()
	store, err := NewHistoryStore(capacity)
	if err != nil {
		t.Fatalf("NewHistoryStore failed: %v", err)
	}
	return store
}

func TestAppendThenSnapshot(t *testing.T) {
	store := newTestStore(t, 200)

	store.Append(BandEnergies{Bass: 1, Mid: 2, Treble: 3}, true)
	bass, mid, treble, beats := store.Snapshot()

	if len(bass) != 1 || len(mid) != 1 || len(treble) != 1 || len(beats) != 1 {
		t.Fatalf("All series must have length 1, got %d/%d/%d/%d",
			len(bass), len(mid), len(treble), len(beats))
	}
	if bass[0] != 1 || mid[0] != 2 || treble[0] != 3 || !beats[0] {
		t.Errorf("Last entries must equal the appended values, got %v %v %v %v",
			bass[0], mid[0], treble[0], beats[0])
	}
}

func TestSnapshotArrivalOrder(t *testing.T) {
	store := newTestStore(t, 10)

	for i := 0; i < 7; i++ {
		store.Append(BandEnergies{Bass: float64(i)}, false)
	}

	bass, _, _, _ := store.Snapshot()
	for i, v := range bass {
		if v != float64(i) {
			t.Fatalf("Snapshot out of arrival order at %d: got %v", i, bass)
		}
	}
}

func TestCapacityEviction(t *testing.T) {
	const (
		capacity = 200
		appends  = 250
	)
	store := newTestStore(t, capacity)

	for i := 1; i <= appends; i++ {
		store.Append(BandEnergies{
			Bass:   float64(i),
			Mid:    float64(i) + 0.5,
			Treble: float64(i) + 0.25,
		}, i%2 == 0)
	}

	bass, mid, treble, beats := store.Snapshot()
	if len(bass) != capacity || len(mid) != capacity || len(treble) != capacity || len(beats) != capacity {
		t.Fatalf("All series must have length %d after overflow, got %d/%d/%d/%d",
			capacity, len(bass), len(mid), len(treble), len(beats))
	}

	// The oldest 50 entries were evicted: the snapshot starts at append #51.
	if bass[0] != 51 {
		t.Errorf("First surviving entry = %v, want 51", bass[0])
	}
	if bass[capacity-1] != appends {
		t.Errorf("Last entry = %v, want %d", bass[capacity-1], appends)
	}

	// Index alignment across all four series.
	for i := range bass {
		if mid[i] != bass[i]+0.5 || treble[i] != bass[i]+0.25 {
			t.Fatalf("Series misaligned at index %d: bass=%v mid=%v treble=%v",
				i, bass[i], mid[i], treble[i])
		}
		if beats[i] != (int(bass[i])%2 == 0) {
			t.Fatalf("Beat flag misaligned at index %d", i)
		}
	}
}

func TestLenAndCap(t *testing.T) {
	store := newTestStore(t, 5)

	if store.Cap() != 5 {
		t.Errorf("Cap = %d, want 5", store.Cap())
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}

	for i := 0; i < 8; i++ {
		store.Append(BandEnergies{}, false)
	}
	if store.Len() != 5 {
		t.Errorf("Len = %d, want 5 after overflow", store.Len())
	}
}

func TestNewHistoryStoreValidation(t *testing.T) {
	if _, err := NewHistoryStore(0); err == nil {
		t.Error("NewHistoryStore(0) should fail")
	}
	if _, err := NewHistoryStore(-1); err == nil {
		t.Error("NewHistoryStore(-1) should fail")
	}
}

// TestConcurrentSnapshotConsistency races one producer against several
// readers; every snapshot must stay internally consistent (equal lengths,
// index-aligned values) no matter how the lock interleaves.
func TestConcurrentSnapshotConsistency(t *testing.T) {
	store := newTestStore(t, 64)

	const (
		writes  = 5000
		readers = 4
	)

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 1; i <= writes; i++ {
			v := float64(i)
			store.Append(BandEnergies{Bass: v, Mid: v + 0.5, Treble: v + 0.25}, i%3 == 0)
		}
	}()

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				bass, mid, treble, beats := store.Snapshot()
				if len(mid) != len(bass) || len(treble) != len(bass) || len(beats) != len(bass) {
					t.Errorf("Snapshot length mismatch: %d/%d/%d/%d",
						len(bass), len(mid), len(treble), len(beats))
					return
				}
				for i := range bass {
					if mid[i] != bass[i]+0.5 || treble[i] != bass[i]+0.25 {
						t.Errorf("Snapshot misaligned at %d", i)
						return
					}
				}
				select {
				case <-done:
					return
				default:
				}
			}
		}()
	}

	wg.Wait()
}

func TestAppendZeroAllocs(t *testing.T) {
	store := newTestStore(t, 200)
	entry := BandEnergies{Bass: 1, Mid: 2, Treble: 3}

	allocs := testing.AllocsPerRun(1000, func() {
		store.Append(entry, false)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Append, got %.1f", allocs)
	}
}

func BenchmarkSnapshot(b *testing.B) {
	store := newTestStore(b, 200)
	for i := 0; i < 300; i++ {
		store.Append(BandEnergies{Bass: float64(i)}, i%15 == 0)
	}

	b.ReportAllocs()
	for b.Loop() {
		_, _, _, _ = store.Snapshot()
	}
}
