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

import "gossipd/admin"

// Stats satisfies admin.StatsProvider with a snapshot of node-wide counts.
func (n *Node) Stats() admin.Stats {
	return admin.Stats{
		PeerCount:        n.Peers.Size(),
		APIConnections:   n.APIConn.Size(),
		P2PConnections:   n.P2PConn.Size(),
		CacheSize:        n.Cache.Size(),
		SubscriberCounts: n.Cache.SubscriberCounts(),
	}
}

// PeerAddrs satisfies admin.StatsProvider with the string form of the
// current peer set, for the Admin.Peers JSON-RPC method.
func (n *Node) PeerAddrs() []string {
	snap := n.Peers.Snapshot()
	out := make([]string, len(snap))
	for i, addr := range snap {
		out[i] = addr.String()
	}
	return out
}
