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

package node

import (
	"context"
	"net"

	"gossipd/store"
	"gossipd/wire"

	"github.com/bfix/gospel/logger"
)

// startP2PListener binds addr and accepts peer connections in a loop,
// spawning a P2P client worker per connection (spec component C6).
func (n *Node) startP2PListener(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		l.Close()
	}()
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					logger.Printf(logger.WARN, "[p2p] accept failed: %s\n", err.Error())
					return
				}
			}
			n.attachP2PWorker(conn, true)
		}
	}()
	return nil
}

// attachP2PWorker registers conn in the P2P connection table and starts
// its read loop. accepted is true for connections taken from the P2P
// listener and false for outbound connections the outbound handler
// dialed; both paths share the same worker so replies to a freshly
// dialed PUSH/PULL are heard.
func (n *Node) attachP2PWorker(conn net.Conn, accepted bool) string {
	caddr := conn.RemoteAddr().String()
	initial, err := parseHostPort(caddr)
	if err != nil {
		// Cannot happen for a real net.Conn remote address, but the
		// connection table still needs a service-address placeholder.
		initial = wire.PeerAddr{}
	}
	n.P2PConn.Put(caddr, &store.P2PPeer{Conn: conn, ServiceAddr: initial}, 0)
	kind := "dialed"
	if accepted {
		kind = "accepted"
	}
	logger.Printf(logger.INFO, "[p2p] %s peer: %s\n", kind, caddr)
	go n.p2pClientWorker(caddr, conn)
	return caddr
}

// p2pClientWorker reads frames from one peer connection and enqueues each
// onto incoming, tagged with the sender's connection-address (§4.4). On
// close it removes the connection-table entry and enqueues a synthetic
// connection-closed record so the inbound handler can try to preserve
// degree.
func (n *Node) p2pClientWorker(caddr string, conn net.Conn) {
	defer func() {
		n.P2PConn.Delete(caddr, 0)
		conn.Close()
		logger.Printf(logger.INFO, "[p2p] peer disconnected: %s\n", caddr)
		if n.Events != nil {
			n.Events.Publish("peer.disconnected", map[string]string{"addr": caddr})
		}
		n.Incoming.Push(IncomingItem{Sender: caddr, Type: connClosed})
	}()

	for {
		f, err := wire.ReadFrame(conn)
		if err != nil {
			logger.Printf(logger.DBG, "[p2p] %s: %s\n", caddr, err.Error())
			return
		}
		n.Incoming.Push(IncomingItem{Sender: caddr, Type: f.Type, Body: f.Body})
	}
}
