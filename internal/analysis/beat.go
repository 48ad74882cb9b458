// SPDX-License-Identifier: MIT
package analysis

import "fmt"

// BeatDetectorParams holds the tunable parameters of the detector.
type BeatDetectorParams struct {
	WindowSize int     // W: bass values kept for the adaptive baseline.
	MinHistory int     // Values required before detection may fire.
	Threshold  float64 // Bass must exceed the recent average by this factor.
	Cooldown   int64   // Minimum frames between consecutive beats.
}

// DefaultBeatDetectorParams returns the standard detector tuning.
func DefaultBeatDetectorParams() BeatDetectorParams {
	return BeatDetectorParams{
		WindowSize: 20,
		MinHistory: 5,
		Threshold:  1.5,
		Cooldown:   15,
	}
}

// BeatDetector is a deterministic state machine that flags transient
// increases in bass energy. Each Update call appends the value to a bounded
// recent window and fires iff the value exceeds the window average (excluding
// itself) by the configured factor AND the cooldown since the last beat has
// elapsed.
//
// The gap calculation uses a continuously incrementing frame counter, never
// the window length: the window length stops changing once full, which would
// silently corrupt the cooldown math.
//
// Owned exclusively by the single producer context; no internal locking.
type BeatDetector struct {
	params BeatDetectorParams

	window []float64 // Ring buffer of the last WindowSize bass values.
	head   int       // Next write position.
	count  int       // Valid entries, <= WindowSize.
	sum    float64   // Running sum of the window contents.

	sampleIndex int64 // Frames processed, increments by exactly 1 per Update.
	lastBeat    int64 // Sample index of the last beat.
}

// NewBeatDetector creates a detector with the given parameters.
func NewBeatDetector(params BeatDetectorParams) (*BeatDetector, error) {
	if params.MinHistory < 2 {
		return nil, fmt.Errorf("min history must be >= 2, got %d", params.MinHistory)
	}
	if params.WindowSize < params.MinHistory {
		return nil, fmt.Errorf("window size %d must be >= min history %d",
			params.WindowSize, params.MinHistory)
	}
	if params.Threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive, got %f", params.Threshold)
	}
	if params.Cooldown < 1 {
		return nil, fmt.Errorf("cooldown must be >= 1, got %d", params.Cooldown)
	}

	return &BeatDetector{
		params: params,
		window: make([]float64, params.WindowSize),
		// Sentinel: the very first eligible frame already satisfies the
		// cooldown (gap = index + Cooldown >= Cooldown).
		lastBeat: -params.Cooldown,
	}, nil
}

// Update records one bass energy value and reports whether a beat fired.
// The value is always recorded, even when detection cannot fire yet.
// Allocation-free.
func (d *BeatDetector) Update(bass float64) bool {
	if d.count == len(d.window) {
		d.sum -= d.window[d.head]
	} else {
		d.count++
	}
	d.window[d.head] = bass
	d.head = (d.head + 1) % len(d.window)
	d.sum += bass
	d.sampleIndex++

	if d.count < d.params.MinHistory {
		return false
	}

	// Average of the window excluding the value just appended.
	recentAvg := (d.sum - bass) / float64(d.count-1)
	gap := d.sampleIndex - d.lastBeat

	if bass > recentAvg*d.params.Threshold && gap >= d.params.Cooldown {
		d.lastBeat = d.sampleIndex
		return true
	}
	return false
}

// SampleIndex returns the number of frames processed so far.
func (d *BeatDetector) SampleIndex() int64 {
	return d.sampleIndex
}
