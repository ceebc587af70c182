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

	"gossipd/wire"

	"github.com/bfix/gospel/logger"
)

// runAnnounceWorker drains the announce queue (spec component C7). Cache
// insertion is kept serial and lock-held only across pointer-shuffling;
// subscriber notification runs concurrently and never holds the cache
// lock, matching §4.5's separation of storage from forwarding.
func (n *Node) runAnnounceWorker(ctx context.Context) {
	for {
		item, ok := n.Announce.Pop()
		if !ok {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		a, err := wire.ParseAnnounce(item.Body)
		if err != nil {
			logger.Printf(logger.WARN, "[announce] malformed body: %s\n", err.Error())
			continue
		}

		msgID := n.Cache.AddData(a.DataType, a.Payload, a.TTL)
		if n.Audit != nil {
			n.Audit.Record("announce.received", msgID, a.DataType, a.TTL)
		}
		if n.Events != nil {
			n.Events.Publish("announce.received", map[string]string{
				"msg_id": uintToStr(msgID), "data_type": uintToStr(a.DataType),
			})
		}

		for _, sub := range n.Cache.Subscribers(a.DataType) {
			sub := sub
			go n.notifySubscriber(sub, msgID, a.DataType, a.Payload)
		}

		// The announce worker always broadcasts once per accepted item;
		// the inbound handler is responsible for producing the already
		// TTL-reduced body before it enqueues a remote announce here, so
		// loop prevention relies on TTL, not on resend (§4.5, §9).
		n.P2PSend.Push(SendAll(item.Body))
		_ = item.Resend // kept for documentation parity with §4.5; always broadcasts
	}
}

// notifySubscriber writes one NOTIFICATION to a subscriber's API socket.
// If the socket no longer exists (client disconnected between the
// subscriber snapshot and now), the send is silently dropped.
func (n *Node) notifySubscriber(addr string, msgID, dataType uint16, payload []byte) {
	conn, ok := n.APIConn.Get(addr, 0)
	if !ok {
		return
	}
	notif := &wire.Notification{MsgID: msgID, DataType: dataType, Payload: payload}
	if err := wire.WriteFrame(conn, notif.Frame()); err != nil {
		logger.Printf(logger.WARN, "[announce] notify %s failed: %s\n", addr, err.Error())
	}
}
