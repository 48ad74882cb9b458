// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	applog "github.com/vanwars/kate-audio-experiments-sarah/internal/log"
)

// packetMagic identifies history snapshot packets ("BEAT").
const packetMagic uint32 = 0x42454154

// snapshotter is the subset of the history store the publisher needs.
type snapshotter interface {
	Snapshot() (bass, mid, treble []float64, beats []bool)
}

// Publisher periodically snapshots the rolling history, packs it into a
// binary packet and sends it via a Sender. It runs in its own goroutine
// managed by Start and Stop.
//
// Packet layout (big endian):
//
//	uint32  magic ("BEAT")
//	uint32  sequence number
//	uint32  entry count N
//	N ×     float32 bass, float32 mid, float32 treble
//	N ×     uint8 beat flag (0/1)
type Publisher struct {
	sender   *Sender
	history  snapshotter
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sequenceNum  uint32
	packetBuffer *bytes.Buffer // Reused across packets.
}

// NewPublisher creates a publisher sending one snapshot per interval.
// An interval <= 0 defaults to 33ms (~30Hz).
func NewPublisher(interval time.Duration, sender *Sender, history snapshotter) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	if history == nil {
		return nil, fmt.Errorf("udp publisher: history cannot be nil")
	}
	if interval <= 0 {
		interval = 33 * time.Millisecond
		applog.Warnf("UDP: invalid publish interval, defaulting to %s", interval)
	}

	return &Publisher{
		sender:       sender,
		history:      history,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start launches the publish loop. Safe to call multiple times; subsequent
// calls are no-ops while running.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDP: publisher already running")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("UDP: publisher started (interval %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				if err := p.publishSnapshot(); err != nil {
					applog.Errorf("UDP: publish error: %v", err)
				}
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publish loop to terminate and waits for it to exit.
// Safe to call multiple times.
func (p *Publisher) Stop() {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return
	}
	ticker := p.ticker
	p.mu.Unlock()

	p.stopOnce.Do(func() {
		ticker.Stop()
		close(p.doneChan)
	})
	p.wg.Wait()

	p.mu.Lock()
	p.ticker = nil
	p.doneChan = nil
	p.mu.Unlock()
}

// publishSnapshot builds and sends one packet from the current history.
// Empty histories are skipped.
func (p *Publisher) publishSnapshot() error {
	bass, mid, treble, beats := p.history.Snapshot()
	if len(bass) == 0 {
		return nil
	}

	p.sequenceNum++
	if err := encodePacket(p.packetBuffer, p.sequenceNum, bass, mid, treble, beats); err != nil {
		return err
	}
	return p.sender.Send(p.packetBuffer.Bytes())
}

// encodePacket writes one snapshot packet into buf, resetting it first.
func encodePacket(buf *bytes.Buffer, seq uint32, bass, mid, treble []float64, beats []bool) error {
	buf.Reset()

	if err := binary.Write(buf, binary.BigEndian, packetMagic); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, seq); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, uint32(len(bass))); err != nil {
		return err
	}
	for i := range bass {
		if err := binary.Write(buf, binary.BigEndian, float32(bass[i])); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.BigEndian, float32(mid[i])); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.BigEndian, float32(treble[i])); err != nil {
			return err
		}
	}
	for _, beat := range beats {
		var b byte
		if beat {
			b = 1
		}
		if err := buf.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}
