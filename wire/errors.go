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

import "errors"

// Protocol error kinds surfaced by ReadFrame and per-kind parsers. Callers
// close the offending connection and never propagate these further.
var (
	ErrClientDisconnected = errors.New("client disconnected")
	ErrInvalidHeader      = errors.New("invalid frame header")
	ErrInvalidSize        = errors.New("invalid frame size")
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrShortBody          = errors.New("frame body shorter than declared")
)
