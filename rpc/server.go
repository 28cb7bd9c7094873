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

// Package rpc exposes read-only JSON views of a runtime.State, plus a
// websocket change feed that streams the KeyValue writes produced by each
// chunk-apply call. It never mutates state itself; every write happens
// inside runtime.Apply/ApplyGenesisState, driven by cmd/chunkapply.
package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/holiman/uint256"
	"github.com/rs/cors"
	"github.com/rs/xhandler"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/logger"
	"github.com/m8ttyB/nearcore/logger/glog"
	"github.com/m8ttyB/nearcore/types"
)

// StateReader is the read-only slice of runtime.State the rpc package
// depends on. Keeping it as an interface, rather than importing *runtime.State
// directly into every handler signature, lets tests stand up a server
// against a fake without building a real trie.
type StateReader interface {
	GetAccount(id common.AccountID) (*types.Account, bool, error)
	GetAccessKey(id common.AccountID, pk types.PublicKey) (*types.AccessKey, bool, error)
}

type accountView struct {
	Amount                *uint256.Int `json:"amount"`
	Locked                *uint256.Int `json:"locked"`
	CodeHash              common.Hash  `json:"code_hash"`
	StorageUsage          uint64       `json:"storage_usage"`
	StorageRentCheckpoint uint64       `json:"storage_rent_checkpoint"`
}

type accessKeyView struct {
	Nonce      uint64              `json:"nonce"`
	Permission types.Permission    `json:"permission"`
	FunctionCall *types.FunctionCallPermission `json:"function_call,omitempty"`
}

// Server serves read endpoints and a change-feed websocket over a
// StateReader. The zero value is not usable; construct with NewServer.
type Server struct {
	state    StateReader
	feed     *Hub
	upgrader websocket.Upgrader
}

// NewServer returns a Server backed by state, with an empty change feed.
// Callers that want to stream chunk-apply results to clients should keep
// the returned Server's Feed() and call Publish/PublishAll after each
// runtime.Apply.
func NewServer(state StateReader) *Server {
	return &Server{
		state: state,
		feed:  NewHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Feed returns the Hub new chunk-apply results should be published to.
func (s *Server) Feed() *Hub { return s.feed }

// Handler builds the mux this Server answers on: /account/<id> for a JSON
// account + access-key snapshot, /feed for the websocket change feed.
func (s *Server) Handler() http.Handler {
	chain := xhandler.Chain{}
	chain.UseC(corsMiddleware())

	mux := http.NewServeMux()
	mux.Handle("/account/", chain.Handler(context.Background(), xhandler.HandlerFuncC(s.handleAccount)))
	mux.HandleFunc("/feed", s.handleFeed)
	return mux
}

// corsMiddleware wraps the xhandler chain with a permissive CORS policy,
// matching how a read-only JSON/websocket surface is normally exposed to
// browser-based explorers.
func corsMiddleware() func(xhandler.HandlerC) xhandler.HandlerC {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	})
	return func(next xhandler.HandlerC) xhandler.HandlerC {
		return xhandler.HandlerFuncC(func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
			c.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTPC(ctx, w, r)
			})).ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := common.AccountID(strings.TrimPrefix(r.URL.Path, "/account/"))
	if id == "" {
		http.Error(w, "missing account id", http.StatusBadRequest)
		return
	}

	acc, exists, err := s.state.GetAccount(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}

	view := accountView{
		Amount:                &acc.Amount,
		Locked:                &acc.Locked,
		CodeHash:              acc.CodeHash,
		StorageUsage:          acc.StorageUsage,
		StorageRentCheckpoint: acc.StorageRentCheckpoint,
	}
	if pk := r.URL.Query().Get("public_key"); pk != "" {
		ak, exists, err := s.state.GetAccessKey(id, types.PublicKey(pk))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !exists {
			http.Error(w, "access key not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(accessKeyView{Nonce: ak.Nonce, Permission: ak.Permission, FunctionCall: ak.FunctionCall})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.V(logger.Warn).Infof("rpc: websocket upgrade failed: %v", err)
		return
	}
	s.feed.register(conn)
	defer s.feed.unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
