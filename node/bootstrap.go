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

import "gossipd/wire"

// Bootstrap sends an initial PULL to the configured bootstrapper (spec
// component C10). Arrival of the PULL_RESPONSE on incoming drives peer-set
// growth through the standard inbound path; if the bootstrapper is
// unreachable, the node still runs and remains isolated until a peer
// connects in, since dial failures in the outbound handler are logged and
// dropped rather than fatal.
func (n *Node) Bootstrap(bootstrapper string) {
	if bootstrapper == "" {
		return
	}
	pull := &wire.Pull{Addr: n.Self}
	n.P2PSend.Push(SendTo(bootstrapper, pull.Frame()))
}
