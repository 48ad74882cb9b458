// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"io"
	"os"
)

// signalFloor is the RMS level below which the input is considered silent.
const signalFloor = 0.001

// ConsoleTransport prints one line per analyzed frame, mirroring the
// history series plus an input-level indicator. Intended for debugging
// capture setups (is the loopback device actually delivering signal?).
type ConsoleTransport struct {
	out io.Writer
}

// NewConsoleTransport creates a console transport writing to w.
// A nil writer defaults to stdout.
func NewConsoleTransport(w io.Writer) *ConsoleTransport {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleTransport{out: w}
}

// Send prints FrameStats as "bass,mid,treble,beat | RMS: level". Other
// payload types are ignored. Only called from the single producer context.
func (t *ConsoleTransport) Send(data any) error {
	stats, ok := data.(FrameStats)
	if !ok {
		return nil
	}

	beat := 0
	if stats.Beat {
		beat = 1
	}
	indicator := "-"
	if stats.RMS > signalFloor {
		indicator = "+"
	}

	_, err := fmt.Fprintf(t.out, "%4d,%4d,%4d,%d | RMS: %.4f %s\n",
		int(stats.Bass), int(stats.Mid), int(stats.Treble), beat, stats.RMS, indicator)
	return err
}

// Close is a no-op; the transport does not own its writer.
func (t *ConsoleTransport) Close() error {
	return nil
}

var _ Transport = (*ConsoleTransport)(nil)
