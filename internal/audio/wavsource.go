// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/vanwars/kate-audio-experiments-sarah/internal/config"
	applog "github.com/vanwars/kate-audio-experiments-sarah/internal/log"
	"github.com/vanwars/kate-audio-experiments-sarah/internal/transport"
)

// FileSummary reports the result of an offline file analysis.
type FileSummary struct {
	Path       string
	SampleRate float64
	Channels   int
	Frames     int64
	Beats      int64
	Duration   time.Duration
}

// AnalyzeFile runs the full analysis pipeline over a WAV file, frame by
// frame, using the file's own sample rate. Channel 0 is analyzed; a trailing
// partial frame is zero padded. Each frame's results are forwarded to
// frameOut when it is non-nil.
func AnalyzeFile(path string, cfg *config.Config, frameOut transport.Transport) (*FileSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file: %s", path)
	}

	format := decoder.Format()
	sampleRate := float64(format.SampleRate)
	channels := format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("WAV file reports %d channels", channels)
	}

	pipeline, err := NewAnalysisPipeline(cfg, sampleRate)
	if err != nil {
		return nil, err
	}

	applog.Infof("Audio: analyzing %s (%.0f Hz, %d channel(s), %d-bit)",
		path, sampleRate, channels, decoder.BitDepth)

	frameSize := cfg.Audio.FramesPerBuffer
	intBuf := &goaudio.IntBuffer{
		Data:   make([]int, frameSize*channels),
		Format: format,
	}
	frame := make([]float64, frameSize)
	norm := float64(int(1) << (decoder.BitDepth - 1))

	var beats int64
	for {
		n, err := decoder.PCMBuffer(intBuf)
		if err != nil {
			return nil, fmt.Errorf("failed to read PCM data: %w", err)
		}
		if n == 0 {
			break
		}

		frameSamples := n / channels
		for i := range frame {
			if i < frameSamples {
				frame[i] = float64(intBuf.Data[i*channels]) / norm
			} else {
				frame[i] = 0
			}
		}

		energies, beat, err := pipeline.Process(frame)
		if err != nil {
			return nil, err
		}
		if beat {
			beats++
		}

		if frameOut != nil {
			_ = frameOut.Send(transport.FrameStats{
				Bass:   energies.Bass,
				Mid:    energies.Mid,
				Treble: energies.Treble,
				Beat:   beat,
				RMS:    rmsLevel(frame),
			})
		}
	}

	frames := pipeline.FramesProcessed()
	duration := time.Duration(float64(frames*int64(frameSize)) / sampleRate * float64(time.Second))

	return &FileSummary{
		Path:       path,
		SampleRate: sampleRate,
		Channels:   channels,
		Frames:     frames,
		Beats:      beats,
		Duration:   duration,
	}, nil
}
