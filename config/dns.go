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

package config

import (
	"fmt"
	"net"

	"github.com/bfix/gospel/logger"
	"github.com/miekg/dns"
)

// ErrNoAResult is returned when a DNS query for a hostname's A record
// produced no usable answer.
var ErrNoAResult = fmt.Errorf("no A record found")

// ResolveIPv4 returns host unchanged if it already parses as an IPv4
// dotted-quad; otherwise it resolves host's A record via a single DNS
// query, since the P2P wire format has no way to carry anything but four
// literal octets.
func ResolveIPv4(host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4.String(), nil
		}
		return "", fmt.Errorf("%q is not an IPv4 address", host)
	}
	m := &dns.Msg{}
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)
	in, err := dns.Exchange(m, net.JoinHostPort("8.8.8.8", "53"))
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", host, err)
	}
	for _, ans := range in.Answer {
		if a, ok := ans.(*dns.A); ok {
			logger.Printf(logger.DBG, "[config] resolved %s -> %s\n", host, a.A.String())
			return a.A.String(), nil
		}
	}
	return "", ErrNoAResult
}
