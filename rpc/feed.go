// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package rpc

import (
	"encoding/hex"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/m8ttyB/nearcore/logger"
	"github.com/m8ttyB/nearcore/logger/glog"
	"github.com/m8ttyB/nearcore/trie"
)

// keyValueView is the hex-encoded wire shape of a trie.KeyValue.
type keyValueView struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ChangeFeedEvent is one published batch of trie mutations, grouped by the
// cause that produced them (trie.Cause, e.g. "ActionReceiptProcessingStarted").
type ChangeFeedEvent struct {
	Cause   string         `json:"cause"`
	Updates []keyValueView `json:"updates"`
}

// Hub fans a sequence of ChangeFeedEvent out to every websocket connection
// registered against it. cmd/chunkapply publishes to it once per Apply call
// so a connected client sees the same trie.Changes the caller would
// otherwise have to poll state.CommittedUpdatesPerCause for.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub returns an empty Hub ready to register connections.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// Publish converts one cause's batch of KeyValue writes into a
// ChangeFeedEvent and broadcasts it to every connected client. A client
// whose write fails is dropped rather than allowed to stall the others.
func (h *Hub) Publish(cause trie.Cause, updates []trie.KeyValue) {
	event := ChangeFeedEvent{Cause: string(cause), Updates: make([]keyValueView, len(updates))}
	for i, kv := range updates {
		event.Updates[i] = keyValueView{Key: hex.EncodeToString(kv.Key), Value: hex.EncodeToString(kv.Value)}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			glog.V(logger.Warn).Infof("rpc: dropping change-feed client after write error: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// PublishAll broadcasts every cause in perCause (as CommittedUpdatesPerCause
// returns it: all writes since the TrieUpdate was opened, not only the last
// apply call's), in whatever order the map ranges over them.
// Callers that need a stable order should iterate the causes themselves
// and call Publish directly instead.
func (h *Hub) PublishAll(perCause map[trie.Cause][]trie.KeyValue) {
	for cause, updates := range perCause {
		h.Publish(cause, updates)
	}
}
