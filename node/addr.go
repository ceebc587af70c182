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
	"fmt"
	"net"
	"strconv"

	"gossipd/config"
	"gossipd/wire"
)

// ParseEndpoint converts a resolved configuration endpoint (host already a
// literal IPv4 address, per config.Parse) into a wire.PeerAddr.
func ParseEndpoint(ep config.Endpoint) (wire.PeerAddr, error) {
	return parseHostPort(ep.String())
}

// parseHostPort turns a "host:port" string (as returned by
// net.Conn.RemoteAddr) into a wire.PeerAddr. It is only ever applied to
// addresses already known to be IPv4, since that is all the node ever
// listens or dials on.
func parseHostPort(hostport string) (wire.PeerAddr, error) {
	var a wire.PeerAddr
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return a, err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return a, fmt.Errorf("not an IP address: %q", host)
	}
	v4 := ip.To4()
	if v4 == nil {
		return a, fmt.Errorf("not an IPv4 address: %q", host)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return a, err
	}
	copy(a.IP[:], v4)
	a.Port = uint16(port)
	return a, nil
}
