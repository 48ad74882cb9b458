// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
)

// ErrEmptyFrame is returned by Pipeline.Process for zero-length frames,
// which are rejected before any analysis runs.
var ErrEmptyFrame = errors.New("analysis: empty frame")

// Pipeline orchestrates the per-frame analysis chain: spectral band
// extraction, beat detection and history storage, in that order. It is the
// sole mutation entry point for the detector state and the history buffers
// and must not be invoked concurrently with itself; it is designed to be
// called from a dedicated real-time callback context.
type Pipeline struct {
	analyzer *SpectralAnalyzer
	detector *BeatDetector
	history  *HistoryStore
}

// NewPipeline wires an analyzer, a detector and a history store together.
func NewPipeline(analyzer *SpectralAnalyzer, detector *BeatDetector, history *HistoryStore) (*Pipeline, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analysis: pipeline requires a non-nil analyzer")
	}
	if detector == nil {
		return nil, fmt.Errorf("analysis: pipeline requires a non-nil detector")
	}
	if history == nil {
		return nil, fmt.Errorf("analysis: pipeline requires a non-nil history store")
	}
	return &Pipeline{analyzer: analyzer, detector: detector, history: history}, nil
}

// Process analyzes one frame and records the result. The returned energies
// and beat flag mirror what was appended to the history, so callers can
// forward them to per-frame transports without re-reading the store.
// Only the final Append takes a lock.
func (p *Pipeline) Process(frame []float64) (BandEnergies, bool, error) {
	if len(frame) == 0 {
		return BandEnergies{}, false, ErrEmptyFrame
	}

	energies := p.analyzer.Compute(frame)
	beat := p.detector.Update(energies.Bass)
	p.history.Append(energies, beat)

	return energies, beat, nil
}

// History returns the shared rolling history for consumers.
func (p *Pipeline) History() *HistoryStore {
	return p.history
}

// FramesProcessed returns the total number of frames fed to the pipeline.
func (p *Pipeline) FramesProcessed() int64 {
	return p.detector.SampleIndex()
}
