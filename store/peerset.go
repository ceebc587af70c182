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
	"sync"

	"gossipd/wire"
)

// PeerSet is the node's known peer-set (spec component C3): an
// insertion-order-preserving collection of advertised service-addresses,
// with duplicates rejected.
type PeerSet struct {
	mu      sync.Mutex
	order   []wire.PeerAddr
	present map[wire.PeerAddr]bool
}

// NewPeerSet allocates an empty peer set.
func NewPeerSet() *PeerSet {
	return &PeerSet{present: make(map[wire.PeerAddr]bool)}
}

// Add inserts addr if not already present; reports whether it was added.
func (p *PeerSet) Add(addr wire.PeerAddr) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.present[addr] {
		return false
	}
	p.present[addr] = true
	p.order = append(p.order, addr)
	return true
}

// Has reports whether addr is a member of the peer set.
func (p *PeerSet) Has(addr wire.PeerAddr) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.present[addr]
}

// Snapshot returns the peer set in insertion order, safe to range over
// without holding the lock.
func (p *PeerSet) Snapshot() []wire.PeerAddr {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]wire.PeerAddr, len(p.order))
	copy(out, p.order)
	return out
}

// Size returns the number of known peers.
func (p *PeerSet) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}
