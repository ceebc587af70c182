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
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"gossipd/config"
	"gossipd/wire"
)

// startTestNode brings up a Node on fixed loopback ports and returns it
// along with a cancel func that tears the whole thing down.
func startTestNode(t *testing.T, apiPort, p2pPort, degree int, self wire.PeerAddr) (*Node, func()) {
	t.Helper()
	cfg := &config.GossipConfig{Degree: degree}
	n := New(cfg, self, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := n.startAPIListener(ctx, loopback(apiPort)); err != nil {
		t.Fatalf("api listener: %v", err)
	}
	if err := n.startP2PListener(ctx, loopback(p2pPort)); err != nil {
		t.Fatalf("p2p listener: %v", err)
	}
	n.wg.Add(3)
	go func() { defer n.wg.Done(); n.runAnnounceWorker(ctx) }()
	go func() { defer n.wg.Done(); n.runP2PInbound(ctx) }()
	go func() { defer n.wg.Done(); n.runP2POutbound(ctx) }()
	return n, func() { cancel(); n.Wait() }
}

func loopback(port int) string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	return conn
}

func readFrame(t *testing.T, conn net.Conn) *wire.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	f, err := wire.ReadFrame(conn)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestLocalAnnounceFanoutOneSubscriber(t *testing.T) {
	self := wire.PeerAddr{IP: [4]byte{127, 0, 0, 1}, Port: 19102}
	n, stop := startTestNode(t, 19101, 19102, 4, self)
	defer stop()

	a := dial(t, "127.0.0.1:19101")
	defer a.Close()
	notify := &wire.Notify{DataType: 1001}
	if err := wire.WriteFrame(a, notify.Frame()); err != nil {
		t.Fatalf("write NOTIFY: %v", err)
	}

	b := dial(t, "127.0.0.1:19101")
	defer b.Close()
	ann := &wire.Announce{TTL: 3, DataType: 1001, Payload: []byte("hi")}
	if err := wire.WriteFrame(b, ann.Frame()); err != nil {
		t.Fatalf("write ANNOUNCE: %v", err)
	}

	f := readFrame(t, a)
	if f.Type != wire.MSG_NOTIFICATION {
		t.Fatalf("got type %d, want NOTIFICATION", f.Type)
	}
	notif, err := wire.ParseNotification(f.Body)
	if err != nil {
		t.Fatalf("parse NOTIFICATION: %v", err)
	}
	if notif.DataType != 1001 || string(notif.Payload) != "hi" {
		t.Fatalf("unexpected notification: %+v", notif)
	}

	entry, ok := n.Cache.Get(notif.MsgID)
	if !ok {
		t.Fatalf("cache has no entry for msg_id %d", notif.MsgID)
	}
	if entry.TTL != 3 || entry.Valid != 0 {
		t.Fatalf("cache entry = %+v, want ttl=3 valid=0", entry)
	}
}

func TestValidationFeedbackMarksInvalid(t *testing.T) {
	self := wire.PeerAddr{IP: [4]byte{127, 0, 0, 1}, Port: 19112}
	n, stop := startTestNode(t, 19111, 19112, 4, self)
	defer stop()

	a := dial(t, "127.0.0.1:19111")
	defer a.Close()
	notify := &wire.Notify{DataType: 2002}
	wire.WriteFrame(a, notify.Frame())

	b := dial(t, "127.0.0.1:19111")
	defer b.Close()
	ann := &wire.Announce{TTL: 1, DataType: 2002, Payload: []byte("x")}
	wire.WriteFrame(b, ann.Frame())

	f := readFrame(t, a)
	notif, _ := wire.ParseNotification(f.Body)

	val := &wire.Validation{MsgID: notif.MsgID, Valid: false}
	if err := wire.WriteFrame(a, val.Frame()); err != nil {
		t.Fatalf("write VALIDATION: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if entry, ok := n.Cache.Get(notif.MsgID); ok && entry.Valid == 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("cache entry for %d never became invalid", notif.MsgID)
}

func TestBootstrapPullResponseGrowsPeerSetWithinDegree(t *testing.T) {
	selfB := wire.PeerAddr{IP: [4]byte{127, 0, 0, 1}, Port: 19202}
	bootstrapper, stopB := startTestNode(t, 19201, 19202, 4, selfB)
	defer stopB()

	p1 := wire.PeerAddr{IP: [4]byte{127, 0, 0, 1}, Port: 19302}
	_, stopP1 := startTestNode(t, 19301, 19302, 4, p1)
	defer stopP1()

	p2 := wire.PeerAddr{IP: [4]byte{127, 0, 0, 1}, Port: 19402}
	_, stopP2 := startTestNode(t, 19401, 19402, 4, p2)
	defer stopP2()

	bootstrapper.Peers.Add(p1)
	bootstrapper.Peers.Add(p2)

	selfN := wire.PeerAddr{IP: [4]byte{127, 0, 0, 1}, Port: 19502}
	n, stopN := startTestNode(t, 19501, 19502, 4, selfN)
	defer stopN()

	n.Bootstrap("127.0.0.1:19202")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if n.Peers.Size() >= 2 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if got := n.Peers.Size(); got < 2 {
		t.Fatalf("peer set size = %d, want >= 2", got)
	}
	if !n.Peers.Has(p1) || !n.Peers.Has(p2) {
		t.Fatalf("peer set = %v, want to contain %v and %v", n.Peers.Snapshot(), p1, p2)
	}

	deadline = time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if n.P2PConn.Size() > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if got := n.P2PConn.Size(); got == 0 || got > n.Degree {
		t.Fatalf("p2p connection table size = %d, want in (0, %d]", got, n.Degree)
	}
}

func TestRemoteAnnounceForwardedWithTTLDecrement(t *testing.T) {
	self := wire.PeerAddr{IP: [4]byte{127, 0, 0, 1}, Port: 19602}
	a, stop := startTestNode(t, 19601, 19602, 4, self)
	defer stop()

	peerConn := dial(t, "127.0.0.1:19602")
	defer peerConn.Close()
	other := dial(t, "127.0.0.1:19602")
	defer other.Close()
	deadline := time.Now().Add(2 * time.Second)
	for a.P2PConn.Size() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	sub := dial(t, "127.0.0.1:19601")
	defer sub.Close()
	notify := &wire.Notify{DataType: 3003}
	wire.WriteFrame(sub, notify.Frame())

	inner := &wire.Announce{TTL: 2, DataType: 3003, Payload: []byte("remote")}
	sc := &wire.SendContent{Inner: &wire.Frame{Type: wire.MSG_ANNOUNCE, Body: inner.Encode()}}
	scf, err := sc.Frame()
	if err != nil {
		t.Fatalf("encode SEND_CONTENT: %v", err)
	}
	if err := wire.WriteFrame(peerConn, scf); err != nil {
		t.Fatalf("write SEND_CONTENT: %v", err)
	}

	f := readFrame(t, sub)
	notif, err := wire.ParseNotification(f.Body)
	if err != nil {
		t.Fatalf("parse NOTIFICATION: %v", err)
	}
	if string(notif.Payload) != "remote" {
		t.Fatalf("payload = %q, want %q", notif.Payload, "remote")
	}

	// The inbound handler reduces TTL before ever enqueueing the item, so
	// the cache stores the already-decremented hop count (§4.4, §4.5).
	entry, ok := a.Cache.Get(notif.MsgID)
	if !ok || entry.TTL != 1 {
		t.Fatalf("cache entry = %+v, want ttl=1", entry)
	}

	// The other connected peer receives the TTL-reduced announce.
	fwd := readFrame(t, other)
	if fwd.Type != wire.MSG_P2P_SEND_CONTENT {
		t.Fatalf("forwarded type = %d, want SEND_CONTENT", fwd.Type)
	}
	fsc, err := wire.ParseSendContent(fwd.Body)
	if err != nil {
		t.Fatalf("parse forwarded SEND_CONTENT: %v", err)
	}
	fa, err := wire.ParseAnnounce(fsc.Inner.Body)
	if err != nil || fa.TTL != 1 || string(fa.Payload) != "remote" {
		t.Fatalf("forwarded announce = %+v (err %v), want ttl=1 payload %q", fa, err, "remote")
	}
}

func TestMalformedFrameClosesAPIConnection(t *testing.T) {
	self := wire.PeerAddr{IP: [4]byte{127, 0, 0, 1}, Port: 19802}
	n, stop := startTestNode(t, 19801, 19802, 4, self)
	defer stop()

	conn := dial(t, "127.0.0.1:19801")
	defer conn.Close()

	// an unknown message type is a protocol error that must close the
	// connection and clean up its connection-table entry.
	bad := &wire.Frame{Type: wire.MsgType(9999), Body: nil}
	// MsgType 9999 fails Valid() on the server's ReadFrame; the header is
	// built and written by hand so exactly the 4 header bytes go on the
	// wire. WriteFrame itself does not check the type.
	hdr := wire.Header{MsgSize: wire.HeaderSize, MsgType: uint16(bad.Type)}
	raw, err := hdr.Marshal()
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	if _, err := conn.Write(raw); err != nil {
		t.Fatalf("write malformed header: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Fatalf("expected connection close after malformed frame, got no error")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if n.APIConn.Size() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("api connection table still has %d entries after disconnect", n.APIConn.Size())
}
