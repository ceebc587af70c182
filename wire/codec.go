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
	"io"
)

// Frame is a generic, unparsed wire frame: a type tag and its raw body.
// The codec only establishes frame boundaries and the type tag; semantic
// parsing of the body belongs to each per-kind reader in this package.
type Frame struct {
	Type MsgType
	Body []byte
}

// ReadFrame reads exactly one frame from r: four header bytes, then
// exactly size-4 body bytes. Short or malformed reads surface as the
// sentinel errors in errors.go so callers can classify and close the
// connection without attempting to interpret a partial frame.
func ReadFrame(r io.Reader) (*Frame, error) {
	hdr := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, hdr)
	if err != nil {
		if n == 0 {
			return nil, ErrClientDisconnected
		}
		return nil, ErrInvalidHeader
	}
	h, err := GetHeader(hdr)
	if err != nil {
		return nil, err
	}
	if h.MsgSize < HeaderSize {
		return nil, ErrInvalidSize
	}
	if !MsgType(h.MsgType).Valid() {
		return nil, ErrInvalidMessageType
	}
	body := make([]byte, int(h.MsgSize)-HeaderSize)
	if len(body) > 0 {
		if _, err = io.ReadFull(r, body); err != nil {
			return nil, ErrShortBody
		}
	}
	return &Frame{Type: MsgType(h.MsgType), Body: body}, nil
}

// Encode serializes the frame as size|type|body, ready to write to a conn.
func (f *Frame) Encode() ([]byte, error) {
	h := &Header{
		MsgSize: uint16(HeaderSize + len(f.Body)),
		MsgType: uint16(f.Type),
	}
	hdr, err := h.Marshal()
	if err != nil {
		return nil, err
	}
	return append(hdr, f.Body...), nil
}

// WriteFrame encodes and writes f to w in a single call.
func WriteFrame(w io.Writer, f *Frame) error {
	buf, err := f.Encode()
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}
