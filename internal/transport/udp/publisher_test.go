// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"math"
	"net"
	"testing"
	"time"
)

type fakeHistory struct {
	bass, mid, treble []float64
	beats             []bool
}

func (f *fakeHistory) Snapshot() ([]float64, []float64, []float64, []bool) {
	return f.bass, f.mid, f.treble, f.beats
}

func TestEncodePacketRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	bass := []float64{1.5, 2.5}
	mid := []float64{3.5, 4.5}
	treble := []float64{5.5, 6.5}
	beats := []bool{true, false}

	if err := encodePacket(&buf, 42, bass, mid, treble, beats); err != nil {
		t.Fatalf("encodePacket failed: %v", err)
	}

	r := bytes.NewReader(buf.Bytes())
	var magic, seq, count uint32
	for _, dst := range []*uint32{&magic, &seq, &count} {
		if err := binary.Read(r, binary.BigEndian, dst); err != nil {
			t.Fatalf("header read failed: %v", err)
		}
	}

	if magic != packetMagic {
		t.Errorf("magic = %#x, want %#x", magic, packetMagic)
	}
	if seq != 42 {
		t.Errorf("seq = %d, want 42", seq)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	for i := 0; i < int(count); i++ {
		var b, m, tr float32
		for _, dst := range []*float32{&b, &m, &tr} {
			if err := binary.Read(r, binary.BigEndian, dst); err != nil {
				t.Fatalf("entry read failed: %v", err)
			}
		}
		if math.Abs(float64(b)-bass[i]) > 1e-6 ||
			math.Abs(float64(m)-mid[i]) > 1e-6 ||
			math.Abs(float64(tr)-treble[i]) > 1e-6 {
			t.Errorf("entry %d = %v/%v/%v, want %v/%v/%v", i, b, m, tr, bass[i], mid[i], treble[i])
		}
	}

	flags := make([]byte, count)
	if _, err := r.Read(flags); err != nil {
		t.Fatalf("flags read failed: %v", err)
	}
	if flags[0] != 1 || flags[1] != 0 {
		t.Errorf("beat flags = %v, want [1 0]", flags)
	}
	if r.Len() != 0 {
		t.Errorf("%d trailing bytes in packet", r.Len())
	}
}

func TestPublisherSendsPackets(t *testing.T) {
	listener, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket failed: %v", err)
	}
	defer listener.Close()

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	defer sender.Close()

	history := &fakeHistory{
		bass:   []float64{10, 20},
		mid:    []float64{1, 2},
		treble: []float64{3, 4},
		beats:  []bool{false, true},
	}

	pub, err := NewPublisher(5*time.Millisecond, sender, history)
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}
	pub.Start()
	defer pub.Stop()

	packet := make([]byte, 65536)
	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := listener.ReadFrom(packet)
	if err != nil {
		t.Fatalf("ReadFrom failed: %v", err)
	}

	if n < 12 {
		t.Fatalf("packet too short: %d bytes", n)
	}
	if magic := binary.BigEndian.Uint32(packet[:4]); magic != packetMagic {
		t.Errorf("magic = %#x, want %#x", magic, packetMagic)
	}
	if count := binary.BigEndian.Uint32(packet[8:12]); count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestPublisherSkipsEmptyHistory(t *testing.T) {
	listener, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket failed: %v", err)
	}
	defer listener.Close()

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	defer sender.Close()

	pub, err := NewPublisher(time.Millisecond, sender, &fakeHistory{})
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}
	pub.Start()
	time.Sleep(20 * time.Millisecond)
	pub.Stop()

	listener.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	if n, _, err := listener.ReadFrom(make([]byte, 1024)); err == nil {
		t.Errorf("Expected no packets for empty history, got %d bytes", n)
	}
}

func TestPublisherStartStopLifecycle(t *testing.T) {
	listener, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket failed: %v", err)
	}
	defer listener.Close()

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	defer sender.Close()

	pub, err := NewPublisher(time.Millisecond, sender, &fakeHistory{})
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}

	// Double Start is a no-op, double Stop must not panic or hang.
	pub.Start()
	pub.Start()
	pub.Stop()
	pub.Stop()

	// Restart after Stop works.
	pub.Start()
	pub.Stop()
}

func TestSenderClosedRejectsSend(t *testing.T) {
	listener, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket failed: %v", err)
	}
	defer listener.Close()

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}

	if err := sender.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := sender.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
	if err := sender.Send([]byte{1}); err == nil {
		t.Error("Send after Close should fail")
	}
}
