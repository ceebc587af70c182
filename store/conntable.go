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

package store

import (
	"net"

	"gossipd/util"
	"gossipd/wire"
)

// APITable is the connection table for the API plane (spec component C4):
// connection-address -> socket. Entries are inserted on accept and removed
// on close.
type APITable struct {
	*util.Map[string, net.Conn]
}

// NewAPITable allocates an empty API connection table.
func NewAPITable() *APITable {
	return &APITable{util.NewMap[string, net.Conn]()}
}

// P2PPeer is the value held per entry of the P2P connection table: the
// live socket plus the peer's advertised service-address, which starts
// out equal to the connection-address and is rewritten upon the peer's
// first PUSH or PULL. Pending marks a slot reserved by Admit whose dial
// has not yet completed; such an entry carries a nil Conn and must never
// be written to or counted as a service-address match.
type P2PPeer struct {
	Conn        net.Conn
	ServiceAddr wire.PeerAddr
	Pending     bool
}

// P2PTable is the connection table for the P2P plane (spec component C4).
type P2PTable struct {
	*util.Map[string, *P2PPeer]
}

// NewP2PTable allocates an empty P2P connection table.
func NewP2PTable() *P2PTable {
	return &P2PTable{util.NewMap[string, *P2PPeer]()}
}

// Connections returns a snapshot of the live (non-pending) sockets, safe
// to range over without holding the table lock.
func (t *P2PTable) Connections() []*P2PPeer {
	var out []*P2PPeer
	_ = t.ProcessRange(func(_ string, v *P2PPeer, _ int) error {
		if !v.Pending {
			out = append(out, v)
		}
		return nil
	}, true)
	return out
}

// HasServiceAddr reports whether any live entry currently advertises addr
// as its service-address.
func (t *P2PTable) HasServiceAddr(addr wire.PeerAddr) bool {
	found := false
	_ = t.ProcessRange(func(_ string, v *P2PPeer, _ int) error {
		if !v.Pending && v.ServiceAddr.Equal(addr) {
			found = true
		}
		return nil
	}, true)
	return found
}

// Admit atomically decides what an outbound SEND to addr should do: under
// a single critical section (no other Get/Put/Delete on this table can
// interleave), it either returns addr's existing entry (live or still
// pending from an earlier reservation) with isNew=false, or — if addr is
// unknown and the table is still under degree — inserts a pending
// placeholder and returns it with isNew=true, or returns a nil peer if
// the table is already at degree. Folding the lookup and the reservation
// into one locked step is what makes admission indivisible: two SENDs to
// the same fresh address can never both see "not present, size < degree"
// and both reserve a slot, and the degree check itself can never be
// stale (spec.md §8 scenario 3: connection table size never exceeds
// degree).
func (t *P2PTable) Admit(addr string, degree int) (peer *P2PPeer, isNew bool) {
	_ = t.Process(func(pid int) error {
		if existing, ok := t.Get(addr, pid); ok {
			peer = existing
			return nil
		}
		if t.Size() >= degree {
			return nil
		}
		placeholder := &P2PPeer{Pending: true}
		t.Put(addr, placeholder, pid)
		peer = placeholder
		isNew = true
		return nil
	}, false)
	return peer, isNew
}
