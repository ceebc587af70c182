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

package wire

import "fmt"

// PeerAddr is a peer's advertised P2P service-address: four octets of IPv4
// followed by a port. IPv6 has no representation on this wire format.
type PeerAddr struct {
	IP   [4]byte
	Port uint16
}

// String renders the address in the textual "ipv4:port" form used
// throughout the configuration and connection-table keys.
func (a PeerAddr) String() string {
	return fmt.Sprintf("%d.%d.%d.%d:%d", a.IP[0], a.IP[1], a.IP[2], a.IP[3], a.Port)
}

// Equal reports whether a and b name the same service-address.
func (a PeerAddr) Equal(b PeerAddr) bool {
	return a.IP == b.IP && a.Port == b.Port
}

const peerAddrSize = 6 // 4 octets + u16 port

func parsePeerAddr(b []byte) (PeerAddr, error) {
	var a PeerAddr
	if len(b) < peerAddrSize {
		return a, ErrShortBody
	}
	copy(a.IP[:], b[:4])
	a.Port = be16(b[4:6])
	return a, nil
}

func (a PeerAddr) encode(buf []byte) {
	copy(buf[:4], a.IP[:])
	putBE16(buf[4:6], a.Port)
}
