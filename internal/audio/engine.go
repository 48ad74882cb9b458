// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/vanwars/kate-audio-experiments-sarah/internal/analysis"
	"github.com/vanwars/kate-audio-experiments-sarah/internal/config"
	applog "github.com/vanwars/kate-audio-experiments-sarah/internal/log"
	"github.com/vanwars/kate-audio-experiments-sarah/internal/transport"
)

// Engine owns the capture stream and drives the analysis pipeline from the
// audio callback. All per-frame buffers are allocated up front; the callback
// itself performs no allocations.
type Engine struct {
	config   *config.Config
	pipeline *analysis.Pipeline
	frameOut transport.Transport // Optional per-frame sink, may be nil.

	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	monoFrame  []float64     // Reused mono frame, FramesPerBuffer samples.
	inputLevel atomic.Uint64 // math.Float64bits of the latest frame RMS.

	streamActive bool
}

// NewEngine resolves the capture device and prepares the engine.
// PortAudio must already be initialized. frameOut may be nil when no
// per-frame transport is wanted.
func NewEngine(cfg *config.Config, pipeline *analysis.Pipeline, frameOut transport.Transport) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("engine requires a non-nil config")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("engine requires a non-nil pipeline")
	}

	device, err := ResolveInputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input device: %w", err)
	}

	latency := device.DefaultHighInputLatency
	if cfg.Audio.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	applog.Infof("Audio: using device %q (latency %s)", device.Name, latency)

	return &Engine{
		config:       cfg,
		pipeline:     pipeline,
		frameOut:     frameOut,
		inputDevice:  device,
		inputLatency: latency,
		monoFrame:    make([]float64, cfg.Audio.FramesPerBuffer),
	}, nil
}

// StartInputStream opens and starts the capture stream. Analysis results
// begin flowing into the pipeline's history as soon as this returns.
func (e *Engine) StartInputStream() error {
	if e.streamActive {
		return fmt.Errorf("input stream already active")
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   e.inputDevice,
			Channels: e.config.Audio.Channels,
			Latency:  e.inputLatency,
		},
		SampleRate:      e.config.Audio.SampleRate,
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	e.inputStream = stream
	e.streamActive = true
	applog.Infof("Audio: input stream started (%.0f Hz, %d frames/buffer, %d channel(s))",
		e.config.Audio.SampleRate, e.config.Audio.FramesPerBuffer, e.config.Audio.Channels)
	return nil
}

// processInputStream is the real-time capture callback. It downmixes the
// interleaved input to the reused mono frame, updates the input level meter
// and pushes the frame through the pipeline. Must not block or allocate.
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()

	downmixInto(e.monoFrame, in, e.config.Audio.Channels)
	e.inputLevel.Store(math.Float64bits(rmsLevel(e.monoFrame)))

	energies, beat, err := e.pipeline.Process(e.monoFrame)
	if err != nil {
		return
	}

	if e.frameOut != nil {
		_ = e.frameOut.Send(transport.FrameStats{
			Bass:   energies.Bass,
			Mid:    energies.Mid,
			Treble: energies.Treble,
			Beat:   beat,
			RMS:    e.InputLevel(),
		})
	}
}

// StopInputStream stops and closes the capture stream.
func (e *Engine) StopInputStream() error {
	if !e.streamActive || e.inputStream == nil {
		return nil
	}

	if err := e.inputStream.Stop(); err != nil {
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	if err := e.inputStream.Close(); err != nil {
		return fmt.Errorf("failed to close input stream: %w", err)
	}

	e.inputStream = nil
	e.streamActive = false
	applog.Infof("Audio: input stream stopped")
	return nil
}

// Close releases the engine's resources. Safe to call after StopInputStream.
func (e *Engine) Close() error {
	return e.StopInputStream()
}

// DeviceName returns the name of the capture device in use.
func (e *Engine) DeviceName() string {
	if e.inputDevice == nil {
		return "unknown"
	}
	return e.inputDevice.Name
}

// InputLevel returns the RMS level of the most recent frame. Safe to call
// from any goroutine.
func (e *Engine) InputLevel() float64 {
	return math.Float64frombits(e.inputLevel.Load())
}

// History returns the rolling analysis history fed by the capture callback.
func (e *Engine) History() *analysis.HistoryStore {
	return e.pipeline.History()
}

// downmixInto copies channel 0 of an interleaved float32 buffer into dst.
// Missing samples, when the callback delivers a short buffer, are zeroed.
func downmixInto(dst []float64, in []float32, channels int) {
	if channels < 1 {
		channels = 1
	}
	for i := range dst {
		idx := i * channels
		if idx < len(in) {
			dst[i] = float64(in[idx])
		} else {
			dst[i] = 0
		}
	}
}

// rmsLevel computes the root mean square of a frame.
func rmsLevel(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}
