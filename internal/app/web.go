// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/gyro_bias/internal/config"
	"github.com/relabs-tech/gyro_bias/internal/tracking"
)

// RunWeb subscribes to TOPIC_BIAS and serves the latest snapshot over
// HTTP, as a PNG status card and as a websocket stream.
func RunWeb(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	store := newSnapshotStore()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribe(client, cfg.TopicBias, func(payload []byte) {
		var s tracking.Snapshot
		if err := json.Unmarshal(payload, &s); err != nil {
			log.Warn("MQTT payload unmarshal error", "err", err)
			return
		}
		store.Set(s)
	}); err != nil {
		return err
	}
	log.Info("subscribed", "topic", cfg.TopicBias)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		store.Close()
		return nil
	})
	g.Go(func() error {
		handler := newWebHandler(store, "web", log)
		return serveHTTP(ctx, fmt.Sprintf(":%d", cfg.WebServerPort), handler, log)
	})
	return g.Wait()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// newWebHandler builds the HTTP routes. Static files are served from
// staticDir as the root.
func newWebHandler(store *snapshotStore, staticDir string, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/bias", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := store.Get()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			log.Warn("json encode error", "err", err)
		}
	})

	mux.HandleFunc("GET /api/bias.png", func(w http.ResponseWriter, r *http.Request) {
		var card *tracking.Snapshot
		if snap, ok := store.Get(); ok {
			card = &snap
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if err := WriteStatusCardPNG(w, card); err != nil {
			log.Warn("png encode error", "err", err)
		}
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "err", err)
			return
		}
		streamSnapshots(r.Context(), conn, store, log)
	})

	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

// streamSnapshots pushes every stored snapshot to conn until the client
// goes away or the store is closed.
func streamSnapshots(ctx context.Context, conn *websocket.Conn, store *snapshotStore, log *slog.Logger) {
	defer conn.Close()

	updates, cancel := store.Subscribe()
	defer cancel()

	// drain client frames so close and ping are processed
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if snap, ok := store.Get(); ok {
		if err := writeSnapshot(conn, snap); err != nil {
			return
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-gone:
			return
		case snap, ok := <-updates:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
					time.Now().Add(time.Second))
				return
			}
			if err := writeSnapshot(conn, snap); err != nil {
				log.Debug("websocket write failed", "err", err)
				return
			}
		}
	}
}

func writeSnapshot(conn *websocket.Conn, snap tracking.Snapshot) error {
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteJSON(snap)
}

// snapshotStore holds the latest snapshot and fans updates out to
// subscribers. Slow subscribers only see the newest value.
type snapshotStore struct {
	mu     sync.RWMutex
	last   tracking.Snapshot
	have   bool
	subs   map[chan tracking.Snapshot]struct{}
	closed bool
}

func newSnapshotStore() *snapshotStore {
	return &snapshotStore{subs: make(map[chan tracking.Snapshot]struct{})}
}

// Set stores s and notifies subscribers.
func (st *snapshotStore) Set(s tracking.Snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.last = s
	st.have = true
	for ch := range st.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// Get returns the latest snapshot, if any.
func (st *snapshotStore) Get() (tracking.Snapshot, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.last, st.have
}

// Subscribe returns a channel of updates and a function to unsubscribe.
// The channel is closed when the store is closed.
func (st *snapshotStore) Subscribe() (<-chan tracking.Snapshot, func()) {
	ch := make(chan tracking.Snapshot, 1)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		close(ch)
		return ch, func() {}
	}
	st.subs[ch] = struct{}{}
	return ch, func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		if _, ok := st.subs[ch]; ok {
			delete(st.subs, ch)
			close(ch)
		}
	}
}

// Close ends all subscriptions.
func (st *snapshotStore) Close() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.closed = true
	for ch := range st.subs {
		delete(st.subs, ch)
		close(ch)
	}
}
