// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"

	"github.com/vanwars/kate-audio-experiments-sarah/internal/config"
	applog "github.com/vanwars/kate-audio-experiments-sarah/internal/log"
)

// Initialize sets up the PortAudio subsystem.
// This must be called before any audio operations and paired with Terminate.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
// This should be deferred immediately after Initialize().
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// Device describes an audio device independently of PortAudio types,
// for listings and the TUI header.
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
}

// GetDevices returns all available audio devices. PortAudio must already
// be initialized.
func GetDevices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
		}
	}
	return devices, nil
}

// loopbackKeywords mark device names that capture system audio output
// rather than a microphone.
var loopbackKeywords = []string{
	"blackhole", "soundflower", "loopback", "multi-output",
	"aggregate", "virtual", "system audio",
}

// matchesLoopbackName reports whether a device name looks like a loopback
// or virtual capture device.
func matchesLoopbackName(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range loopbackKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// FindLoopbackDevice returns the first input-capable device whose name
// suggests it captures system audio, or false if none exists.
func FindLoopbackDevice() (*portaudio.DeviceInfo, bool, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, false, err
	}
	for _, info := range infos {
		if info.MaxInputChannels > 0 && matchesLoopbackName(info.Name) {
			return info, true, nil
		}
	}
	return nil, false, nil
}

// ResolveInputDevice picks the capture device for the given configured ID.
// An explicit ID selects that device. The default ID (-1) prefers a
// loopback device so system audio is analyzed, falling back to the default
// input (microphone) when none is installed.
func ResolveInputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID != config.MinDeviceID {
		infos, err := portaudio.Devices()
		if err != nil {
			return nil, err
		}
		if deviceID < 0 || deviceID >= len(infos) {
			return nil, fmt.Errorf("invalid device ID: %d", deviceID)
		}
		return infos[deviceID], nil
	}

	loopback, found, err := FindLoopbackDevice()
	if err != nil {
		return nil, err
	}
	if found {
		applog.Infof("Audio: capturing system audio via loopback device %q", loopback.Name)
		return loopback, nil
	}

	applog.Infof("Audio: no loopback device found, capturing from default input (microphone)")
	applog.Infof("Audio: to analyze system audio on macOS install BlackHole and route output through a Multi-Output Device")
	return portaudio.DefaultInputDevice()
}

// ListDevices prints information about all available audio devices:
// ID, name, direction, channel counts, default sample rate and latencies.
func ListDevices() error {
	infos, err := portaudio.Devices()
	if err != nil {
		return err
	}

	fmt.Printf("\nAvailable Audio Devices\n\n")
	for i, device := range infos {
		deviceType := ""
		switch {
		case device.MaxInputChannels > 0 && device.MaxOutputChannels > 0:
			deviceType = "Input/Output"
		case device.MaxInputChannels > 0:
			deviceType = "Input"
		case device.MaxOutputChannels > 0:
			deviceType = "Output"
		}
		marker := ""
		if device.MaxInputChannels > 0 && matchesLoopbackName(device.Name) {
			marker = "  <- loopback"
		}

		fmt.Printf("[%d] %s (%s)%s\n", i, device.Name, deviceType, marker)
		fmt.Printf("    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)
		fmt.Printf("    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)
		fmt.Printf("    Latency: Low=%.2fms, High=%.2fms\n\n",
			device.DefaultLowInputLatency.Seconds()*1000,
			device.DefaultHighInputLatency.Seconds()*1000)
	}

	return nil
}
