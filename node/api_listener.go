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

	"gossipd/wire"

	"github.com/bfix/gospel/logger"
)

// startAPIListener binds addr, accepts local clients in a loop, and spawns
// an API client worker per connection (spec component C5). Listener
// teardown closes the listening socket only; it does not own worker
// lifetimes, which self-terminate on their socket's close.
func (n *Node) startAPIListener(ctx context.Context, addr string) error {
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
					logger.Printf(logger.WARN, "[api] accept failed: %s\n", err.Error())
					return
				}
			}
			logger.Printf(logger.INFO, "[api] client connected: %s\n", conn.RemoteAddr())
			go n.apiClientWorker(conn)
		}
	}()
	return nil
}

// apiClientWorker runs the per-connection state machine of §4.3: read
// frames, dispatch by type, and tear down cleanly on any protocol error
// or peer-initiated close.
func (n *Node) apiClientWorker(conn net.Conn) {
	oaddr := conn.RemoteAddr().String()
	n.APIConn.Put(oaddr, conn, 0)
	defer func() {
		n.APIConn.Delete(oaddr, 0)
		n.Cache.RemoveSubscriber(oaddr)
		conn.Close()
		logger.Printf(logger.INFO, "[api] client disconnected: %s\n", oaddr)
	}()

	for {
		f, err := wire.ReadFrame(conn)
		if err != nil {
			logger.Printf(logger.DBG, "[api] %s: %s\n", oaddr, err.Error())
			return
		}
		switch f.Type {
		case wire.MSG_ANNOUNCE:
			n.Announce.Push(AnnounceItem{Body: f.Body, Resend: true})

		case wire.MSG_NOTIFY:
			nf, err := wire.ParseNotify(f.Body)
			if err != nil {
				logger.Printf(logger.WARN, "[api] %s: malformed NOTIFY: %s\n", oaddr, err.Error())
				return
			}
			n.Cache.AddSubscriber(nf.DataType, oaddr)

		case wire.MSG_VALIDATION:
			v, err := wire.ParseValidation(f.Body)
			if err != nil {
				logger.Printf(logger.WARN, "[api] %s: malformed VALIDATION: %s\n", oaddr, err.Error())
				return
			}
			if !v.Valid {
				if !n.Cache.MakeInvalid(v.MsgID) {
					logger.Printf(logger.WARN, "[api] %s: VALIDATION for unknown msg_id %d\n", oaddr, v.MsgID)
				}
				if n.Audit != nil {
					n.Audit.Record("validation.invalid", v.MsgID, 0, 0)
				}
			}
			if n.Events != nil {
				n.Events.Publish("validation.received", map[string]string{
					"msg_id": uintToStr(v.MsgID), "valid": boolToStr(v.Valid),
				})
			}

		default:
			logger.Printf(logger.WARN, "[api] %s: unexpected type %d\n", oaddr, f.Type)
			return
		}
	}
}
