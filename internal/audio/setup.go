// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"

	"github.com/vanwars/kate-audio-experiments-sarah/internal/analysis"
	"github.com/vanwars/kate-audio-experiments-sarah/internal/config"
)

// NewAnalysisPipeline builds the full per-frame analysis chain from
// configuration. The sample rate is passed separately because file analysis
// uses the file's rate rather than the configured capture rate.
func NewAnalysisPipeline(cfg *config.Config, sampleRate float64) (*analysis.Pipeline, error) {
	windowType, err := analysis.ParseWindowFunc(cfg.Audio.FFTWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	limits := analysis.BandLimits{
		BassLow:    cfg.Analysis.BassLowHz,
		BassHigh:   cfg.Analysis.BassHighHz,
		MidHigh:    cfg.Analysis.MidHighHz,
		TrebleHigh: cfg.Analysis.TrebleHighHz,
	}
	analyzer, err := analysis.NewSpectralAnalyzer(cfg.Audio.FramesPerBuffer, sampleRate, limits, windowType)
	if err != nil {
		return nil, fmt.Errorf("failed to create spectral analyzer: %w", err)
	}

	detector, err := analysis.NewBeatDetector(analysis.BeatDetectorParams{
		WindowSize: cfg.Analysis.RecentWindow,
		MinHistory: cfg.Analysis.MinHistory,
		Threshold:  cfg.Analysis.BeatThreshold,
		Cooldown:   int64(cfg.Analysis.BeatCooldown),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create beat detector: %w", err)
	}

	history, err := analysis.NewHistoryStore(cfg.History.Capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create history store: %w", err)
	}

	return analysis.NewPipeline(analyzer, detector, history)
}
