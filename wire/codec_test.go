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
	"bytes"
	"testing"
)

func TestAnnounceRoundTrip(t *testing.T) {
	a := &Announce{TTL: 3, DataType: 1001, Payload: []byte("hi")}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, a.Frame()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.Type != MSG_ANNOUNCE {
		t.Fatalf("type = %v", f.Type)
	}
	got, err := ParseAnnounce(f.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.TTL != a.TTL || got.DataType != a.DataType || !bytes.Equal(got.Payload, a.Payload) {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, a)
	}
}

func TestAnnounceReduceTTL(t *testing.T) {
	cases := []struct{ in, want uint8 }{
		{3, 2},
		{1, 0},
		{0, 0},
	}
	for _, c := range cases {
		a := &Announce{TTL: c.in}
		got := a.ReduceTTL()
		if got.TTL != c.want {
			t.Errorf("ReduceTTL(%d) = %d, want %d", c.in, got.TTL, c.want)
		}
	}
}

func TestPullResponseRoundTrip(t *testing.T) {
	r := &PullResponse{Peers: []PeerAddr{
		{IP: [4]byte{10, 0, 0, 1}, Port: 9000},
		{IP: [4]byte{10, 0, 0, 2}, Port: 9001},
	}}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, r.Frame()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got, err := ParsePullResponse(f.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.Peers) != len(r.Peers) {
		t.Fatalf("len = %d, want %d", len(got.Peers), len(r.Peers))
	}
	for i, p := range r.Peers {
		if !got.Peers[i].Equal(p) {
			t.Errorf("peer %d = %v, want %v", i, got.Peers[i], p)
		}
	}
}

func TestSendContentWrapsAnnounce(t *testing.T) {
	inner := (&Announce{TTL: 2, DataType: 7, Payload: []byte("x")}).Frame()
	sc := &SendContent{Inner: inner}
	f, err := sc.Frame()
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	parsed, err := ParseSendContent(f.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Inner.Type != MSG_ANNOUNCE {
		t.Fatalf("inner type = %v", parsed.Inner.Type)
	}
	a, err := ParseAnnounce(parsed.Inner.Body)
	if err != nil {
		t.Fatalf("parse inner: %v", err)
	}
	if a.TTL != 2 || a.DataType != 7 || string(a.Payload) != "x" {
		t.Fatalf("inner mismatch: %+v", a)
	}
}

func TestReadFrameShortHeader(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0, 1}))
	if err != ErrInvalidHeader {
		t.Fatalf("err = %v, want ErrInvalidHeader", err)
	}
}

func TestReadFrameClientDisconnected(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil))
	if err != ErrClientDisconnected {
		t.Fatalf("err = %v, want ErrClientDisconnected", err)
	}
}

func TestReadFrameInvalidMessageType(t *testing.T) {
	h := &Header{MsgSize: 4, MsgType: 9999}
	buf, _ := h.Marshal()
	_, err := ReadFrame(bytes.NewReader(buf))
	if err != ErrInvalidMessageType {
		t.Fatalf("err = %v, want ErrInvalidMessageType", err)
	}
}

func TestValidationEncodeBool(t *testing.T) {
	v := &Validation{MsgID: 42, Valid: false}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, v.Frame()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f, _ := ReadFrame(&buf)
	got, err := ParseValidation(f.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.MsgID != 42 || got.Valid != false {
		t.Fatalf("got %+v", got)
	}
}
