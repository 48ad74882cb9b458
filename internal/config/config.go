// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the analysis engine.
const (
	// Default values for the audio capture configuration.
	DefaultChannels        = 1     // Mono audio
	DefaultDeviceID        = MinDeviceID
	DefaultFramesPerBuffer = 1024  // One analysis frame per callback
	DefaultLowLatency      = false // Standard latency mode
	DefaultSampleRate      = 44100 // CD-quality audio
	DefaultFFTWindow       = "Hann"

	// Default band boundaries (Hz). A band covers [low, high).
	DefaultBassLowHz    = 20
	DefaultBassHighHz   = 250
	DefaultMidHighHz    = 4000
	DefaultTrebleHighHz = 16000

	// Default beat detection parameters.
	DefaultRecentWindow  = 20  // Bass values kept for the adaptive baseline
	DefaultMinHistory    = 5   // Values required before detection may fire
	DefaultBeatThreshold = 1.5 // Bass must exceed recentAvg by this factor
	DefaultBeatCooldown  = 15  // Minimum frames between beats

	// Default rolling history capacity (frames).
	DefaultHistorySize = 200

	// Hardware and processing limits.
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer (power of 2)
)

// Config holds all runtime configuration, loaded from YAML and/or
// overridden by command line flags and environment variables.
type Config struct {
	Debug    bool   `yaml:"debug"`     // Enable debug mode (verbose per-frame output).
	LogLevel string `yaml:"log_level"` // Logging level ("debug", "info", "warn", "error").

	Audio     AudioConfig     `yaml:"audio"`     // Capture settings.
	Analysis  AnalysisConfig  `yaml:"analysis"`  // Band extraction and beat detection settings.
	History   HistoryConfig   `yaml:"history"`   // Rolling history settings.
	Transport TransportConfig `yaml:"transport"` // Data transport settings.

	// Runtime-only fields set by the CLI, never loaded from file.
	Command   string `yaml:"-"` // One-off command ("list", "analyze") instead of live mode.
	InputFile string `yaml:"-"` // WAV file path for the analyze command.
	TUIMode   bool   `yaml:"-"` // Live terminal visualizer enabled.
}

// AudioConfig holds settings for the audio input stream.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default/loopback discovery).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Samples per analysis frame (power of 2).
	Channels        int     `yaml:"input_channels"`    // Captured channels; analysis uses channel 0.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from PortAudio.
	FFTWindow       string  `yaml:"fft_window"`        // Window function name ("Hann", "Hamming", "Blackman", "Rectangular").
}

// AnalysisConfig holds the tunable parameters of the analysis pipeline.
type AnalysisConfig struct {
	BassLowHz    float64 `yaml:"bass_low_hz"`
	BassHighHz   float64 `yaml:"bass_high_hz"`
	MidHighHz    float64 `yaml:"mid_high_hz"`
	TrebleHighHz float64 `yaml:"treble_high_hz"`

	RecentWindow  int     `yaml:"recent_window"`  // W: bass values in the adaptive baseline window.
	MinHistory    int     `yaml:"min_history"`    // Values required before a beat may fire.
	BeatThreshold float64 `yaml:"beat_threshold"` // Multiplicative threshold over the recent average.
	BeatCooldown  int     `yaml:"beat_cooldown"`  // Minimum frames between consecutive beats.
}

// HistoryConfig holds settings for the shared rolling history.
type HistoryConfig struct {
	Capacity int `yaml:"capacity"` // Entries kept per series before FIFO eviction.
}

// TransportConfig holds settings for publishing history snapshots.
type TransportConfig struct {
	ConsoleEnabled bool `yaml:"console_enabled"` // Print per-frame band values to stdout.

	WebSocketEnabled  bool          `yaml:"websocket_enabled"`
	WebSocketAddr     string        `yaml:"websocket_addr"`     // e.g. ":8080"
	WebSocketInterval time.Duration `yaml:"websocket_interval"` // Interval between snapshot broadcasts.

	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"` // e.g. "127.0.0.1:9090"
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between snapshot packets.
}

// NewConfig creates a Config with default values. This is the base
// configuration before applying a config file, environment overrides
// or command line flags.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			Channels:        DefaultChannels,
			LowLatency:      DefaultLowLatency,
			FFTWindow:       DefaultFFTWindow,
		},
		Analysis: AnalysisConfig{
			BassLowHz:     DefaultBassLowHz,
			BassHighHz:    DefaultBassHighHz,
			MidHighHz:     DefaultMidHighHz,
			TrebleHighHz:  DefaultTrebleHighHz,
			RecentWindow:  DefaultRecentWindow,
			MinHistory:    DefaultMinHistory,
			BeatThreshold: DefaultBeatThreshold,
			BeatCooldown:  DefaultBeatCooldown,
		},
		History: HistoryConfig{
			Capacity: DefaultHistorySize,
		},
		Transport: TransportConfig{
			ConsoleEnabled:    false,
			WebSocketEnabled:  false,
			WebSocketAddr:     ":8080",
			WebSocketInterval: 50 * time.Millisecond, // ~20Hz, matches the visualizer cadence.
			UDPEnabled:        false,
			UDPTargetAddress:  "127.0.0.1:9090",
			UDPSendInterval:   33 * time.Millisecond, // ~30Hz
		},
	}
}
