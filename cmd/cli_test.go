// SPDX-License-Identifier: MIT
package cmd

import (
	"testing"

	"github.com/vanwars/kate-audio-experiments-sarah/internal/config"
)

func TestParseArgsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := parseArgs(nil)
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
	if cfg.Command != "" {
		t.Errorf("Command = %q, want live mode (empty)", cfg.Command)
	}
	if cfg.TUIMode {
		t.Error("TUIMode should default to false")
	}
	if cfg.Audio.SampleRate != config.DefaultSampleRate {
		t.Errorf("SampleRate = %f, want %d", cfg.Audio.SampleRate, config.DefaultSampleRate)
	}
}

func TestParseArgsFlagOverrides(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := parseArgs([]string{
		"--device", "3",
		"--sample-rate", "48000",
		"--frames-per-buffer", "2048",
		"--low-latency",
		"--console",
		"--tui",
		"--verbose",
	})
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}

	if cfg.Audio.InputDevice != 3 {
		t.Errorf("InputDevice = %d, want 3", cfg.Audio.InputDevice)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("SampleRate = %f, want 48000", cfg.Audio.SampleRate)
	}
	if cfg.Audio.FramesPerBuffer != 2048 {
		t.Errorf("FramesPerBuffer = %d, want 2048", cfg.Audio.FramesPerBuffer)
	}
	if !cfg.Audio.LowLatency {
		t.Error("LowLatency should be set")
	}
	if !cfg.Transport.ConsoleEnabled {
		t.Error("ConsoleEnabled should be set")
	}
	if !cfg.TUIMode {
		t.Error("TUIMode should be set")
	}
	if !cfg.Debug || cfg.LogLevel != "debug" {
		t.Errorf("verbose should enable debug logging, got Debug=%v LogLevel=%q", cfg.Debug, cfg.LogLevel)
	}
}

func TestParseArgsUnchangedFlagsKeepFileValues(t *testing.T) {
	t.Chdir(t.TempDir())

	// Defaults on the flag set must not clobber config defaults when the
	// flag was never passed.
	cfg, err := parseArgs([]string{"list"})
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
	if cfg.Command != "list" {
		t.Errorf("Command = %q, want \"list\"", cfg.Command)
	}
	if cfg.Audio.InputDevice != config.DefaultDeviceID {
		t.Errorf("InputDevice = %d, want %d", cfg.Audio.InputDevice, config.DefaultDeviceID)
	}
}

func TestParseArgsAnalyzeRequiresFile(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := parseArgs([]string{"analyze"}); err == nil {
		t.Error("analyze without a file should fail")
	}

	cfg, err := parseArgs([]string{"analyze", "track.wav"})
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
	if cfg.Command != "analyze" || cfg.InputFile != "track.wav" {
		t.Errorf("Command/InputFile = %q/%q, want analyze/track.wav", cfg.Command, cfg.InputFile)
	}
}

func TestParseArgsRejectsInvalidFlagValues(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := parseArgs([]string{"--frames-per-buffer", "1000"}); err == nil {
		t.Error("Non power of 2 frames-per-buffer should fail validation")
	}
	if _, err := parseArgs([]string{"--sample-rate", "100"}); err == nil {
		t.Error("Out of range sample rate should fail validation")
	}
}
