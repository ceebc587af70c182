// This file is part of gossipd, a gossip overlay node in Golang.
// Copyright (C) 2019, 2020 Bernd Fix  >Y<
//
// gossipd is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// gossipd is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later

// Package admin exposes a read-only HTTP introspection surface over a
// running node: a JSON stats snapshot and a JSON-RPC peer listing. It
// cannot inject announcements or otherwise mutate gossip state.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bfix/gospel/logger"
	"github.com/gorilla/mux"
	gorpc "github.com/gorilla/rpc"
	gorpcjson "github.com/gorilla/rpc/json"
)

// Stats is the JSON shape returned by GET /stats.
type Stats struct {
	PeerCount        int            `json:"peer_count"`
	APIConnections   int            `json:"api_connections"`
	P2PConnections   int            `json:"p2p_connections"`
	CacheSize        int            `json:"cache_size"`
	SubscriberCounts map[string]int `json:"subscriber_counts"`
}

// StatsProvider is implemented by package node's Node; admin depends only
// on this narrow interface so it never needs node's queue/worker types.
type StatsProvider interface {
	Stats() Stats
	PeerAddrs() []string
}

// PeersArgs is unused; Admin.Peers takes no arguments.
type PeersArgs struct{}

// PeersReply is the result of the Admin.Peers JSON-RPC method.
type PeersReply struct {
	Peers []string `json:"peers"`
}

// peersService backs the gorilla/rpc JSON-RPC "Admin" service.
type peersService struct {
	node StatsProvider
}

// Peers returns the current peer set.
func (s *peersService) Peers(r *http.Request, args *PeersArgs, reply *PeersReply) error {
	reply.Peers = s.node.PeerAddrs()
	return nil
}

// Server is the admin HTTP server. It has no Stop method; it shuts down
// when the context passed to Start is cancelled.
type Server struct {
	httpSrv *http.Server
}

// Start binds addr and serves /stats and /rpc until ctx is cancelled.
func Start(ctx context.Context, addr string, node StatsProvider) (*Server, error) {
	router := mux.NewRouter()

	router.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(node.Stats())
	}).Methods(http.MethodGet)

	rpcServer := gorpc.NewServer()
	rpcServer.RegisterCodec(gorpcjson.NewCodec(), "application/json")
	if err := rpcServer.RegisterService(&peersService{node: node}, "Admin"); err != nil {
		return nil, err
	}
	router.Handle("/rpc", rpcServer)

	srv := &Server{httpSrv: &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}}
	go func() {
		if err := srv.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf(logger.WARN, "[admin] server stopped: %s\n", err.Error())
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.httpSrv.Shutdown(shutdownCtx)
	}()
	logger.Printf(logger.INFO, "[admin] listening on %s\n", addr)
	return srv, nil
}
