// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	applog "github.com/vanwars/kate-audio-experiments-sarah/internal/log"
)

// historyPayload is the JSON document broadcast to WebSocket clients.
// The four arrays are index-aligned and equally long.
type historyPayload struct {
	Bass   []float64 `json:"bass"`
	Mid    []float64 `json:"mid"`
	Treble []float64 `json:"treble"`
	Beats  []bool    `json:"beats"`
}

// HistoryBroadcaster serves the rolling history over WebSocket. Clients
// connect to /history and receive a full snapshot at a fixed interval;
// they are expected to re-render the whole series each time, so missed
// broadcasts only cost resolution, never correctness.
type HistoryBroadcaster struct {
	history  HistorySnapshotter
	interval time.Duration

	upgrader websocket.Upgrader
	server   *http.Server
	listener net.Listener

	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex

	mu       sync.Mutex
	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewHistoryBroadcaster creates a broadcaster for the given history.
// If interval is not positive it defaults to 50ms (~20Hz).
func NewHistoryBroadcaster(addr string, history HistorySnapshotter, interval time.Duration) *HistoryBroadcaster {
	if interval <= 0 {
		interval = 50 * time.Millisecond
		applog.Warnf("WebSocket: invalid broadcast interval, defaulting to %s", interval)
	}

	b := &HistoryBroadcaster{
		history:  history,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local visualization clients only.
			},
		},
		clients: make(map[*websocket.Conn]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/history", b.handleWebSocket)
	b.server = &http.Server{Addr: addr, Handler: mux}

	return b
}

// Start binds the listener and launches the server and broadcast goroutines.
// Safe to call once per broadcaster.
func (b *HistoryBroadcaster) Start() error {
	listener, err := net.Listen("tcp", b.server.Addr)
	if err != nil {
		return err
	}
	b.listener = listener

	b.mu.Lock()
	b.ticker = time.NewTicker(b.interval)
	b.doneChan = make(chan struct{})
	ticker := b.ticker
	doneChan := b.doneChan
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		applog.Infof("WebSocket: history server listening on %s", listener.Addr())
		if err := b.server.Serve(listener); err != http.ErrServerClosed {
			applog.Errorf("WebSocket: server error: %v", err)
		}
	}()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ticker.C:
				b.broadcast()
			case <-doneChan:
				return
			}
		}
	}()

	return nil
}

// Addr returns the bound listener address, useful when Start was given ":0".
func (b *HistoryBroadcaster) Addr() net.Addr {
	if b.listener == nil {
		return nil
	}
	return b.listener.Addr()
}

// handleWebSocket upgrades HTTP connections and registers the client.
// A reader goroutine watches for disconnects and deregisters.
func (b *HistoryBroadcaster) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Errorf("WebSocket: upgrade error: %v", err)
		return
	}

	b.clientsMu.Lock()
	b.clients[conn] = true
	total := len(b.clients)
	b.clientsMu.Unlock()
	applog.Infof("WebSocket: client connected, total: %d", total)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				b.clientsMu.Lock()
				delete(b.clients, conn)
				b.clientsMu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

// broadcast snapshots the history and sends it to every connected client.
// Skips the snapshot entirely when nobody is listening.
func (b *HistoryBroadcaster) broadcast() {
	b.clientsMu.Lock()
	if len(b.clients) == 0 {
		b.clientsMu.Unlock()
		return
	}
	b.clientsMu.Unlock()

	bass, mid, treble, beats := b.history.Snapshot()
	jsonData, err := json.Marshal(historyPayload{Bass: bass, Mid: mid, Treble: treble, Beats: beats})
	if err != nil {
		applog.Errorf("WebSocket: marshal error: %v", err)
		return
	}

	b.clientsMu.Lock()
	for client := range b.clients {
		if err := client.WriteMessage(websocket.TextMessage, jsonData); err != nil {
			client.Close()
			delete(b.clients, client)
		}
	}
	b.clientsMu.Unlock()
}

// Close stops the broadcast loop, disconnects all clients and shuts down
// the HTTP server. Idempotent.
func (b *HistoryBroadcaster) Close() error {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		if b.ticker != nil {
			b.ticker.Stop()
			close(b.doneChan)
		}
		b.mu.Unlock()
	})

	b.clientsMu.Lock()
	for client := range b.clients {
		client.Close()
		delete(b.clients, client)
	}
	b.clientsMu.Unlock()

	err := b.server.Close()
	b.wg.Wait()
	return err
}
