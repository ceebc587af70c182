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
	"testing"

	"gossipd/wire"
)

func TestP2PTableServiceAddrRewrite(t *testing.T) {
	table := NewP2PTable()
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	caddr := "198.51.100.1:54321"
	initial := wire.PeerAddr{IP: [4]byte{198, 51, 100, 1}, Port: 54321}
	table.Put(caddr, &P2PPeer{Conn: c1, ServiceAddr: initial}, 0)

	if !table.HasServiceAddr(initial) {
		t.Fatalf("expected initial service addr present")
	}

	advertised := wire.PeerAddr{IP: [4]byte{10, 0, 0, 5}, Port: 9000}
	entry, ok := table.Get(caddr, 0)
	if !ok {
		t.Fatalf("entry missing")
	}
	entry.ServiceAddr = advertised
	table.Put(caddr, entry, 0)

	if table.HasServiceAddr(initial) {
		t.Fatalf("stale service addr still present")
	}
	if !table.HasServiceAddr(advertised) {
		t.Fatalf("rewritten service addr missing")
	}
}

func TestP2PTableAdmitAtomicity(t *testing.T) {
	table := NewP2PTable()

	peer, isNew := table.Admit("198.51.100.1:9000", 2)
	if peer == nil || !isNew || !peer.Pending {
		t.Fatalf("expected first Admit to reserve a new pending slot, got peer=%+v isNew=%v", peer, isNew)
	}
	peer, isNew = table.Admit("198.51.100.2:9000", 2)
	if peer == nil || !isNew || !peer.Pending {
		t.Fatalf("expected second Admit to reserve a new pending slot, got peer=%+v isNew=%v", peer, isNew)
	}
	if peer, _ := table.Admit("198.51.100.3:9000", 2); peer != nil {
		t.Fatalf("expected third Admit to be refused at degree 2, got %+v", peer)
	}
	if table.Size() != 2 {
		t.Fatalf("table size = %d, want 2", table.Size())
	}

	peer, isNew = table.Admit("198.51.100.1:9000", 2)
	if isNew || peer == nil || !peer.Pending {
		t.Fatalf("re-admitting a pending addr should return its existing placeholder, not reserve a new one")
	}
	if table.Size() != 2 {
		t.Fatalf("re-admitting an existing addr must not grow the table, size = %d", table.Size())
	}

	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	table.Put("198.51.100.1:9000", &P2PPeer{Conn: c1}, 0)
	peer, isNew = table.Admit("198.51.100.1:9000", 2)
	if isNew || peer == nil || peer.Pending {
		t.Fatalf("Admit on a now-live addr should return the live, non-pending entry")
	}
}

func TestAPITableInsertRemove(t *testing.T) {
	table := NewAPITable()
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	table.Put("127.0.0.1:1234", c1, 0)
	if table.Size() != 1 {
		t.Fatalf("size = %d, want 1", table.Size())
	}
	table.Delete("127.0.0.1:1234", 0)
	if table.Size() != 0 {
		t.Fatalf("size = %d, want 0 after delete", table.Size())
	}
}
