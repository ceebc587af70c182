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

import (
	"github.com/bfix/gospel/data"
)

// HeaderSize is the length in bytes of every frame's header.
const HeaderSize = 4

// Header encapsulates the common part of every wire frame: its total size
// (header included) and its message type.
type Header struct {
	MsgSize uint16 `order:"big"`
	MsgType uint16 `order:"big"`
}

// GetHeader parses the header of a frame from its first HeaderSize bytes.
func GetHeader(b []byte) (h *Header, err error) {
	if b == nil || len(b) < HeaderSize {
		return nil, ErrInvalidHeader
	}
	h = new(Header)
	err = data.Unmarshal(h, b[:HeaderSize])
	return
}

// Marshal serializes the header on its own (used by per-kind encoders that
// assemble size+type+body by hand).
func (h *Header) Marshal() ([]byte, error) {
	return data.Marshal(h)
}
