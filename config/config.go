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
	"strconv"
	"strings"

	"github.com/bfix/gospel/logger"
	"gopkg.in/ini.v1"
)

// Endpoint is a resolved "host:port" pair; Host is always a literal IPv4
// dotted-quad by the time it leaves Parse, regardless of whether the INI
// file named an address or a DNS hostname.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// GossipConfig is the [gossip] section of the configuration file.
type GossipConfig struct {
	Bootstrapper Endpoint
	P2PAddress   Endpoint
	APIAddress   Endpoint
	Degree       int

	// Extra carries every [gossip] key this struct does not name,
	// passed through unchanged, same as the original implementation's
	// leftover-config dictionary.
	Extra map[string]string
}

// AuditConfig is the optional [audit] section enabling a diagnostic
// SQL event log (see the audit package). Zero value means disabled.
type AuditConfig struct {
	Driver string // "sqlite3" or "mysql"
	DSN    string
}

// Enabled reports whether an audit sink should be started.
func (a AuditConfig) Enabled() bool { return a.Driver != "" }

// EventsConfig is the optional [events] section enabling a Redis-backed
// event publisher (see the events package). Zero value means disabled.
type EventsConfig struct {
	Addr string
	DB   int
}

// Enabled reports whether an event sink should be started.
func (e EventsConfig) Enabled() bool { return e.Addr != "" }

// AdminConfig is the optional [admin] section enabling the read-only
// HTTP introspection surface (see the admin package). Zero value means
// disabled.
type AdminConfig struct {
	Listen string
}

// Enabled reports whether the admin HTTP surface should be started.
func (a AdminConfig) Enabled() bool { return a.Listen != "" }

// Config is the aggregated node configuration.
type Config struct {
	Hostkey map[string]string // [hostkey] is opaque, passed through as-is
	Gossip  GossipConfig
	Audit   AuditConfig
	Events  EventsConfig
	Admin   AdminConfig
}

// Cfg is the global configuration, populated by Parse.
var Cfg *Config

// Parse reads and validates an INI configuration file, resolving any
// hostnames in [gossip] to literal IPv4 addresses.
func Parse(fileName string) (err error) {
	f, err := ini.Load(fileName)
	if err != nil {
		return err
	}
	c := new(Config)

	c.Hostkey = make(map[string]string)
	if sec, err := f.GetSection("hostkey"); err == nil {
		for _, key := range sec.Keys() {
			c.Hostkey[key.Name()] = key.Value()
		}
	}

	gossip, err := f.GetSection("gossip")
	if err != nil {
		return fmt.Errorf("missing [gossip] section: %w", err)
	}
	known := map[string]bool{
		"bootstrapper": true, "p2p_address": true, "api_address": true, "degree": true,
	}
	c.Gossip.Extra = make(map[string]string)
	for _, key := range gossip.Keys() {
		if !known[key.Name()] {
			c.Gossip.Extra[key.Name()] = key.Value()
		}
	}
	if c.Gossip.Bootstrapper, err = resolveEndpoint(gossip.Key("bootstrapper").String()); err != nil {
		return fmt.Errorf("[gossip] bootstrapper: %w", err)
	}
	if c.Gossip.P2PAddress, err = resolveEndpoint(gossip.Key("p2p_address").String()); err != nil {
		return fmt.Errorf("[gossip] p2p_address: %w", err)
	}
	if c.Gossip.APIAddress, err = resolveEndpoint(gossip.Key("api_address").String()); err != nil {
		return fmt.Errorf("[gossip] api_address: %w", err)
	}
	if c.Gossip.Degree, err = gossip.Key("degree").Int(); err != nil || c.Gossip.Degree <= 0 {
		return fmt.Errorf("[gossip] degree must be a positive integer")
	}

	if sec, err := f.GetSection("audit"); err == nil {
		c.Audit.Driver = sec.Key("driver").String()
		c.Audit.DSN = sec.Key("dsn").String()
	}
	if sec, err := f.GetSection("events"); err == nil {
		c.Events.Addr = sec.Key("addr").String()
		c.Events.DB, _ = sec.Key("db").Int()
	}
	if sec, err := f.GetSection("admin"); err == nil {
		c.Admin.Listen = sec.Key("listen").String()
	}

	Cfg = c
	logger.Printf(logger.INFO, "[config] loaded %s (degree=%d)\n", fileName, c.Gossip.Degree)
	return nil
}

// resolveEndpoint splits "host:port" and resolves host to a literal IPv4
// address if it is not one already.
func resolveEndpoint(hostport string) (ep Endpoint, err error) {
	idx := strings.LastIndex(hostport, ":")
	if idx < 0 {
		return ep, fmt.Errorf("expected host:port, got %q", hostport)
	}
	host, portStr := hostport[:idx], hostport[idx+1:]
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return ep, fmt.Errorf("invalid port in %q: %w", hostport, err)
	}
	ip, err := ResolveIPv4(host)
	if err != nil {
		return ep, err
	}
	return Endpoint{Host: ip, Port: port}, nil
}
