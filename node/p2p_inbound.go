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
	"math/rand"

	"gossipd/wire"

	"github.com/bfix/gospel/logger"
)

// runP2PInbound drains the incoming queue (spec component C8): the
// gossip-membership state logic and announcement ingress.
func (n *Node) runP2PInbound(ctx context.Context) {
	for {
		item, ok := n.Incoming.Pop()
		if !ok {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch item.Type {
		case wire.MSG_P2P_PUSH:
			p, err := wire.ParsePush(item.Body)
			if err != nil {
				logger.Printf(logger.WARN, "[p2p] %s: malformed PUSH: %s\n", item.Sender, err.Error())
				continue
			}
			n.rewriteServiceAddr(item.Sender, p.Addr)
			n.Peers.Add(p.Addr)

		case wire.MSG_P2P_PULL:
			p, err := wire.ParsePull(item.Body)
			if err != nil {
				logger.Printf(logger.WARN, "[p2p] %s: malformed PULL: %s\n", item.Sender, err.Error())
				continue
			}
			n.rewriteServiceAddr(item.Sender, p.Addr)
			resp := &wire.PullResponse{Peers: n.Peers.Snapshot()}
			n.P2PSend.Push(SendTo(item.Sender, resp.Frame()))

		case wire.MSG_P2P_PULL_RESPONSE:
			r, err := wire.ParsePullResponse(item.Body)
			if err != nil {
				logger.Printf(logger.WARN, "[p2p] %s: malformed PULL_RESPONSE: %s\n", item.Sender, err.Error())
				continue
			}
			for _, a := range r.Peers {
				n.Peers.Add(a)
			}
			n.augmentConnections()

		case wire.MSG_P2P_SEND_CONTENT:
			sc, err := wire.ParseSendContent(item.Body)
			if err != nil {
				logger.Printf(logger.WARN, "[p2p] %s: malformed SEND_CONTENT: %s\n", item.Sender, err.Error())
				continue
			}
			if sc.Inner.Type == wire.MSG_ANNOUNCE {
				a, err := wire.ParseAnnounce(sc.Inner.Body)
				if err != nil {
					logger.Printf(logger.WARN, "[p2p] %s: malformed inner ANNOUNCE: %s\n", item.Sender, err.Error())
					continue
				}
				reduced := a.ReduceTTL()
				// A single enqueue handles both local delivery and
				// re-broadcast: the announce worker always posts one
				// SEND_ALL per accepted item, using this already
				// TTL-reduced body, so loop prevention rests on TTL
				// rather than on the resend flag (§4.5, §9).
				n.Announce.Push(AnnounceItem{Body: reduced.Encode(), Resend: false})
			}

		case connClosed:
			n.augmentConnections()

		default:
			logger.Printf(logger.WARN, "[p2p] %s: unexpected type %d on incoming\n", item.Sender, item.Type)
		}
	}
}

// rewriteServiceAddr records a peer's advertised service-address on its
// connection-table entry, each time it sends a PUSH or PULL.
func (n *Node) rewriteServiceAddr(caddr string, addr wire.PeerAddr) {
	entry, ok := n.P2PConn.Get(caddr, 0)
	if !ok {
		return
	}
	entry.ServiceAddr = addr
	n.P2PConn.Put(caddr, entry, 0)
}

// augmentConnections tries to bring the P2P connection table up to
// degree by probing fresh peers from the peer set with a PUSH or PULL,
// chosen with equal probability (§4.6). "Fresh" means neither already a
// connection-table key nor already advertised as a service-address by any
// live connection.
//
// inFlight starts at the table's current size and is incremented once
// per candidate picked in this pass, rather than re-reading P2PConn.Size()
// on every iteration: the dials this loop triggers via SendTo have not
// registered in the table yet (they are processed later, by the outbound
// consumer), so re-reading Size() mid-loop would see a stale count and
// let every remaining peer through. Counting locally against degree here
// is a courtesy that avoids queueing SENDs doomed to be dropped anyway;
// the actual degree invariant is enforced atomically downstream by
// P2PTable.Admit regardless of what this loop decides.
func (n *Node) augmentConnections() {
	connected := n.P2PConn.Connections()
	haveServiceAddr := make(map[wire.PeerAddr]bool, len(connected))
	for _, c := range connected {
		haveServiceAddr[c.ServiceAddr] = true
	}
	inFlight := n.P2PConn.Size()
	for _, addr := range n.Peers.Snapshot() {
		if inFlight >= n.Degree {
			return
		}
		if haveServiceAddr[addr] {
			continue
		}
		if _, isConnAddr := n.P2PConn.Get(addr.String(), 0); isConnAddr {
			continue
		}
		if addr.Equal(n.Self) {
			continue // self-loop: see DESIGN.md / open question in spec.md §9
		}
		var f *wire.Frame
		if rand.Intn(2) == 0 { //nolint:gosec // peer selection, not security sensitive
			f = (&wire.Push{Addr: n.Self}).Frame()
		} else {
			f = (&wire.Pull{Addr: n.Self}).Frame()
		}
		n.P2PSend.Push(SendTo(addr.String(), f))
		inFlight++
	}
}
