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

// Package node wires together the stores of package store and the codec
// of package wire into the cooperating worker topology described by the
// system's component design: two listeners, three queues, and the
// workers that drain them.
package node

import (
	"context"
	"sync"

	"gossipd/config"
	"gossipd/store"
	"gossipd/wire"

	"github.com/bfix/gospel/logger"
)

// connClosed is a synthetic type tag, outside the valid wire range, used
// to enqueue a "peer connection closed" record onto the incoming queue
// from a P2P client worker without inventing a real wire message for it.
const connClosed wire.MsgType = 0

// AnnounceItem is one item on the announce queue.
type AnnounceItem struct {
	Body   []byte // a marshalled ANNOUNCE body
	Resend bool   // true if locally originated; every item is broadcast regardless
}

// IncomingItem is one item on the incoming queue, tagged with the P2P
// connection-address it arrived on.
type IncomingItem struct {
	Sender string
	Type   wire.MsgType
	Body   []byte
}

// sendAction distinguishes the two kinds of intent the outbound handler
// consumes from p2p_send.
type sendAction int

const (
	actionSend sendAction = iota
	actionSendAll
)

// P2PSendItem is one item on the p2p_send queue.
type P2PSendItem struct {
	action sendAction
	to     string     // actionSend: destination connection-address
	frame  *wire.Frame // actionSend: frame to write
	body   []byte      // actionSendAll: raw ANNOUNCE body to wrap and broadcast
}

// SendTo constructs a unicast p2p_send intent.
func SendTo(to string, f *wire.Frame) P2PSendItem {
	return P2PSendItem{action: actionSend, to: to, frame: f}
}

// SendAll constructs a broadcast p2p_send intent carrying a raw ANNOUNCE
// body, to be wrapped in a SEND_CONTENT envelope by the outbound handler.
func SendAll(announceBody []byte) P2PSendItem {
	return P2PSendItem{action: actionSendAll, body: announceBody}
}

// Node owns every shared store and queue and the self-advertised P2P
// service-address used in outgoing PUSH/PULL.
type Node struct {
	Cache   *store.Cache
	Peers   *store.PeerSet
	APIConn *store.APITable
	P2PConn *store.P2PTable

	Self wire.PeerAddr // this node's own advertised P2P service-address

	Announce *Queue[AnnounceItem]
	Incoming *Queue[IncomingItem]
	P2PSend  *Queue[P2PSendItem]

	Degree int

	// Audit and Events are optional sinks; either may be nil, in which
	// case callers skip notifying them. Admin reads stores directly.
	Audit  AuditSink
	Events EventSink

	wg sync.WaitGroup
}

// AuditSink receives diagnostic events about cache mutations. Node.Audit
// is nil when [audit] is absent from configuration.
type AuditSink interface {
	Record(event string, msgID uint16, dataType uint16, ttl uint8)
}

// EventSink receives operational events for external observers.
// Node.Events is nil when [events] is absent.
type EventSink interface {
	Publish(event string, fields map[string]string)
}

// New assembles a Node from parsed configuration. self is this node's own
// P2P service-address, as resolved from [gossip].p2p_address.
func New(cfg *config.GossipConfig, self wire.PeerAddr, audit AuditSink, events EventSink) *Node {
	return &Node{
		Cache:    store.NewCache(),
		Peers:    store.NewPeerSet(),
		APIConn:  store.NewAPITable(),
		P2PConn:  store.NewP2PTable(),
		Self:     self,
		Announce: NewQueue[AnnounceItem](),
		Incoming: NewQueue[IncomingItem](),
		P2PSend:  NewQueue[P2PSendItem](),
		Degree:   cfg.Degree,
		Audit:    audit,
		Events:   events,
	}
}

// Run starts the API listener, P2P listener, and the three queue-draining
// workers, then sends the initial bootstrap PULL. It blocks until ctx is
// cancelled.
func (n *Node) Run(ctx context.Context, apiAddr, p2pAddr, bootstrapper string) error {
	n.wg.Add(3)
	go func() { defer n.wg.Done(); n.runAnnounceWorker(ctx) }()
	go func() { defer n.wg.Done(); n.runP2PInbound(ctx) }()
	go func() { defer n.wg.Done(); n.runP2POutbound(ctx) }()

	if err := n.startAPIListener(ctx, apiAddr); err != nil {
		return err
	}
	if err := n.startP2PListener(ctx, p2pAddr); err != nil {
		return err
	}
	n.Bootstrap(bootstrapper)

	<-ctx.Done()
	logger.Println(logger.INFO, "[node] shutting down")
	return nil
}

// Wait blocks until every queue worker has exited after ctx is cancelled.
func (n *Node) Wait() {
	// Each worker blocks in Pop and checks ctx only once an item arrives,
	// so one zero-value item per queue wakes it to observe cancellation.
	n.Announce.Push(AnnounceItem{})
	n.Incoming.Push(IncomingItem{})
	n.P2PSend.Push(P2PSendItem{})
	n.wg.Wait()
}
