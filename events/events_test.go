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

package events

import "testing"

func TestNilSinkPublishIsNoop(t *testing.T) {
	var s *Sink
	s.Publish("peer.connected", map[string]string{"addr": "127.0.0.1:9000"}) // must not panic
}

func TestOpenDoesNotDialEagerly(t *testing.T) {
	// redis.NewClient is lazy: constructing a Sink against an address with
	// nothing listening must not itself error or block.
	s := Open("127.0.0.1:1", 0)
	if s == nil || s.client == nil {
		t.Fatalf("Open returned a sink with no client")
	}
	defer s.Close()
}
