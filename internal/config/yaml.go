// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanwars/kate-audio-experiments-sarah/pkg/bitint"
)

// LoadConfig loads configuration from a YAML file at path. If path is empty,
// it searches default locations ("config.yaml"); if no file is found the
// built-in defaults are used. Environment variable overrides are applied
// after loading, and the final configuration is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{"config.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f out of range [%d, %d]",
			c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if !bitint.IsPowerOfTwo(c.Audio.FramesPerBuffer) || c.Audio.FramesPerBuffer > MaxBufferFrames {
		suggestion := bitint.NextPowerOfTwo(c.Audio.FramesPerBuffer)
		if suggestion > MaxBufferFrames {
			suggestion = MaxBufferFrames
		}
		return fmt.Errorf("audio.frames_per_buffer must be a power of 2 <= %d, got %d (try %d)",
			MaxBufferFrames, c.Audio.FramesPerBuffer, suggestion)
	}
	if c.Audio.Channels < 1 {
		return fmt.Errorf("audio.input_channels must be >= 1, got %d", c.Audio.Channels)
	}
	if c.Audio.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, c.Audio.InputDevice)
	}

	a := c.Analysis
	if !(a.BassLowHz < a.BassHighHz && a.BassHighHz < a.MidHighHz && a.MidHighHz < a.TrebleHighHz) {
		return fmt.Errorf("analysis band boundaries must be strictly ascending, got %.0f/%.0f/%.0f/%.0f",
			a.BassLowHz, a.BassHighHz, a.MidHighHz, a.TrebleHighHz)
	}
	if a.BassLowHz < 0 {
		return fmt.Errorf("analysis.bass_low_hz must be >= 0, got %.0f", a.BassLowHz)
	}
	if a.MinHistory < 2 {
		return fmt.Errorf("analysis.min_history must be >= 2, got %d", a.MinHistory)
	}
	if a.RecentWindow < a.MinHistory {
		return fmt.Errorf("analysis.recent_window (%d) must be >= analysis.min_history (%d)",
			a.RecentWindow, a.MinHistory)
	}
	if a.BeatThreshold <= 0 {
		return fmt.Errorf("analysis.beat_threshold must be > 0, got %f", a.BeatThreshold)
	}
	if a.BeatCooldown < 1 {
		return fmt.Errorf("analysis.beat_cooldown must be >= 1, got %d", a.BeatCooldown)
	}

	if c.History.Capacity < 1 {
		return fmt.Errorf("history.capacity must be >= 1, got %d", c.History.Capacity)
	}

	if c.Transport.WebSocketEnabled && c.Transport.WebSocketAddr == "" {
		return fmt.Errorf("transport.websocket_addr must be set when WebSocket is enabled")
	}
	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}

	return nil
}

// applyEnvOverrides applies BEATSCOPE_* environment variables on top of
// whatever was loaded from defaults or file.
func (cfg *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("BEATSCOPE_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	if val, ok := os.LookupEnv("BEATSCOPE_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}
	if val, ok := os.LookupEnv("BEATSCOPE_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("BEATSCOPE_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
	}
	if val, ok := os.LookupEnv("BEATSCOPE_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
		}
	}
	if val, ok := os.LookupEnv("BEATSCOPE_WEBSOCKET_ADDR"); ok {
		cfg.Transport.WebSocketAddr = val
	}
}
