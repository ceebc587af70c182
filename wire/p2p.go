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

import "bytes"

// Push carries a peer's own advertised service-address. Pull has the
// identical layout and asks the recipient for its peer set.
type Push struct {
	Addr PeerAddr
}

// ParsePush decodes a P2P_PUSH body.
func ParsePush(body []byte) (*Push, error) {
	a, err := parsePeerAddr(body)
	if err != nil {
		return nil, err
	}
	return &Push{Addr: a}, nil
}

// Encode serializes the P2P_PUSH body.
func (p *Push) Encode() []byte {
	buf := make([]byte, peerAddrSize)
	p.Addr.encode(buf)
	return buf
}

// Frame wraps p as a complete wire frame.
func (p *Push) Frame() *Frame {
	return &Frame{Type: MSG_P2P_PUSH, Body: p.Encode()}
}

// Pull asks the recipient for its peer set, advertising the sender's own
// service-address in the same layout as Push.
type Pull struct {
	Addr PeerAddr
}

// ParsePull decodes a P2P_PULL body.
func ParsePull(body []byte) (*Pull, error) {
	a, err := parsePeerAddr(body)
	if err != nil {
		return nil, err
	}
	return &Pull{Addr: a}, nil
}

// Encode serializes the P2P_PULL body.
func (p *Pull) Encode() []byte {
	buf := make([]byte, peerAddrSize)
	p.Addr.encode(buf)
	return buf
}

// Frame wraps p as a complete wire frame.
func (p *Pull) Frame() *Frame {
	return &Frame{Type: MSG_P2P_PULL, Body: p.Encode()}
}

// PullResponse carries the responder's peer set.
// Body layout: count(u16) | count x (ipv4(4) | port(u16)).
//
// The count field is encoded by hand rather than through the generic
// struct-tag marshaller used for the frame header: that marshaller
// resolves the "size" tag of a slice-of-struct field via
// reflect.Value.Int(), which only accepts signed-kind fields, while this
// wire format's count is unsigned. Round-tripping it by hand sidesteps
// that mismatch entirely.
type PullResponse struct {
	Peers []PeerAddr
}

// ParsePullResponse decodes a P2P_PULL_RESPONSE body.
func ParsePullResponse(body []byte) (*PullResponse, error) {
	if len(body) < 2 {
		return nil, ErrShortBody
	}
	count := int(be16(body[0:2]))
	need := 2 + count*peerAddrSize
	if len(body) < need {
		return nil, ErrShortBody
	}
	peers := make([]PeerAddr, count)
	pos := 2
	for i := 0; i < count; i++ {
		a, err := parsePeerAddr(body[pos : pos+peerAddrSize])
		if err != nil {
			return nil, err
		}
		peers[i] = a
		pos += peerAddrSize
	}
	return &PullResponse{Peers: peers}, nil
}

// Encode serializes the P2P_PULL_RESPONSE body.
func (r *PullResponse) Encode() []byte {
	buf := make([]byte, 2+len(r.Peers)*peerAddrSize)
	putBE16(buf[0:2], uint16(len(r.Peers)))
	pos := 2
	for _, a := range r.Peers {
		a.encode(buf[pos : pos+peerAddrSize])
		pos += peerAddrSize
	}
	return buf
}

// Frame wraps r as a complete wire frame.
func (r *PullResponse) Frame() *Frame {
	return &Frame{Type: MSG_P2P_PULL_RESPONSE, Body: r.Encode()}
}

// SendContent is an envelope carrying an inner frame between peers,
// currently always an ANNOUNCE. Its own size includes the inner frame in
// its entirety.
type SendContent struct {
	Inner *Frame
}

// ParseSendContent decodes a P2P_SEND_CONTENT body by parsing the inner
// frame it carries.
func ParseSendContent(body []byte) (*SendContent, error) {
	inner, err := ReadFrame(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return &SendContent{Inner: inner}, nil
}

// Encode serializes the P2P_SEND_CONTENT body (the inner frame, verbatim).
func (s *SendContent) Encode() ([]byte, error) {
	return s.Inner.Encode()
}

// Frame wraps s as a complete wire frame.
func (s *SendContent) Frame() (*Frame, error) {
	body, err := s.Encode()
	if err != nil {
		return nil, err
	}
	return &Frame{Type: MSG_P2P_SEND_CONTENT, Body: body}, nil
}
