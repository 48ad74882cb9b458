// SPDX-License-Identifier: MIT
/*
Package transport publishes analysis results to external consumers.

Two publishing models coexist:
  - push: the capture engine forwards per-frame FrameStats to a Transport
    (console output for diagnostics).
  - pull: periodic publishers (WebSocket, UDP) snapshot the shared history
    at their own cadence, fully decoupled from the producer.
*/
package transport

// Transport defines a generic interface for sending processed data or
// events. Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// HistorySnapshotter is the consumer-side view of the rolling history.
// Satisfied by analysis.HistoryStore.
type HistorySnapshotter interface {
	Snapshot() (bass, mid, treble []float64, beats []bool)
}

// FrameStats carries the per-frame analysis results pushed to transports
// by the capture engine.
type FrameStats struct {
	Bass   float64
	Mid    float64
	Treble float64
	Beat   bool
	RMS    float64
}
