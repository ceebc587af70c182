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
	"time"

	"gossipd/store"
	"gossipd/wire"

	"github.com/bfix/gospel/logger"
)

// runP2POutbound drains the p2p_send queue (spec component C9). It is the
// only place new outbound peer sockets are created; the inbound handler
// and announce worker communicate solely by enqueueing intents here.
//
// Admission to the connection table is decided synchronously, right
// here, in this single consumer goroutine: P2PTable.Admit folds the
// existing-entry lookup and the reservation into one locked step, so the
// degree cap can never be exceeded no matter how many SENDs are queued
// back to back. Only the dial and the actual write — the part that can
// block on a slow or unreachable peer — are offloaded to a goroutine,
// per §4.7/§5's "avoid head-of-line blocking".
func (n *Node) runP2POutbound(ctx context.Context) {
	for {
		item, ok := n.P2PSend.Pop()
		if !ok {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch item.action {
		case actionSend:
			n.dispatchSend(item.to, item.frame)
		case actionSendAll:
			go n.sendAll(item.body)
		}
	}
}

// dispatchSend implements the SEND intent's admission decision: write to
// an existing connection, skip a destination whose dial is already in
// flight, reserve a fresh slot and dial, or drop if the table is at
// degree. The lookup and the reservation happen together, atomically, in
// P2PTable.Admit; only the dial/write that follows a successful
// reservation is handed to a goroutine.
func (n *Node) dispatchSend(addr string, f *wire.Frame) {
	peer, isNew := n.P2PConn.Admit(addr, n.Degree)
	if peer == nil {
		logger.Printf(logger.DBG, "[p2p] dropping SEND to %s: at degree\n", addr)
		return
	}
	if !isNew {
		if peer.Pending {
			logger.Printf(logger.DBG, "[p2p] dropping SEND to %s: dial in progress\n", addr)
			return
		}
		go n.writeFrame(addr, peer, f)
		return
	}
	go n.dialAndSend(addr, f)
}

// writeFrame writes f to an already-established peer connection.
func (n *Node) writeFrame(addr string, peer *store.P2PPeer, f *wire.Frame) {
	if err := wire.WriteFrame(peer.Conn, f); err != nil {
		logger.Printf(logger.WARN, "[p2p] send to %s failed: %s\n", addr, err.Error())
	}
}

// dialAndSend completes a reservation already made by dispatchSend: dial
// the peer, attach a client worker to the new socket, and write f. On
// dial failure the reservation is released so the slot it held becomes
// available to the next candidate.
func (n *Node) dialAndSend(addr string, f *wire.Frame) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		logger.Printf(logger.WARN, "[p2p] dial %s failed: %s\n", addr, err.Error())
		n.P2PConn.Delete(addr, 0)
		return
	}
	caddr := n.attachP2PWorker(conn, false)
	if caddr != addr {
		// The peer's connection-address should equal the address we
		// dialed; keep the table keyed consistently with where writes
		// are addressed, replacing the reservation in place.
		if peer, ok := n.P2PConn.Get(caddr, 0); ok {
			n.P2PConn.Delete(caddr, 0)
			n.P2PConn.Put(addr, peer, 0)
		}
	}
	if peer, ok := n.P2PConn.Get(addr, 0); ok {
		if err := wire.WriteFrame(peer.Conn, f); err != nil {
			logger.Printf(logger.WARN, "[p2p] send to %s failed: %s\n", addr, err.Error())
		}
	}
	if n.Events != nil {
		n.Events.Publish("peer.connected", map[string]string{"addr": addr})
	}
}

// sendAll implements the SEND_ALL intent: wrap announceBody in a
// SEND_CONTENT envelope and write it to every currently connected peer.
// No new dials happen here; broadcast only ever targets connections that
// already exist.
func (n *Node) sendAll(announceBody []byte) {
	sc := &wire.SendContent{Inner: &wire.Frame{Type: wire.MSG_ANNOUNCE, Body: announceBody}}
	f, err := sc.Frame()
	if err != nil {
		logger.Printf(logger.WARN, "[p2p] SEND_ALL encode failed: %s\n", err.Error())
		return
	}
	for _, peer := range n.P2PConn.Connections() {
		peer := peer
		go func() {
			if err := wire.WriteFrame(peer.Conn, f); err != nil {
				logger.Printf(logger.WARN, "[p2p] broadcast write failed: %s\n", err.Error())
			}
		}()
	}
}
