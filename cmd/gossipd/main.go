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

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gossipd/admin"
	"gossipd/audit"
	"gossipd/config"
	"gossipd/events"
	"gossipd/node"

	"github.com/bfix/gospel/logger"
)

func main() {
	defer func() {
		logger.Println(logger.INFO, "[gossipd] Bye.")
		logger.Flush()
	}()
	logger.Println(logger.INFO, "[gossipd] Starting service...")

	var (
		cfgFile  string
		logLevel int
	)
	flag.StringVar(&cfgFile, "c", "gossipd.ini", "gossipd configuration file")
	flag.IntVar(&logLevel, "L", logger.INFO, "gossipd log level (default: INFO)")
	flag.Parse()

	if err := config.Parse(cfgFile); err != nil {
		logger.Printf(logger.ERROR, "[gossipd] invalid configuration file: %s\n", err.Error())
		return
	}
	logger.SetLogLevel(logLevel)
	cfg := config.Cfg

	self, err := node.ParseEndpoint(cfg.Gossip.P2PAddress)
	if err != nil {
		logger.Printf(logger.ERROR, "[gossipd] invalid p2p_address: %s\n", err.Error())
		return
	}

	var auditSink *audit.Sink
	if cfg.Audit.Enabled() {
		if auditSink, err = audit.Open(cfg.Audit.Driver, cfg.Audit.DSN); err != nil {
			logger.Printf(logger.ERROR, "[gossipd] audit: %s\n", err.Error())
			return
		}
		defer auditSink.Close()
	}
	var eventSink *events.Sink
	if cfg.Events.Enabled() {
		eventSink = events.Open(cfg.Events.Addr, cfg.Events.DB)
		defer eventSink.Close()
	}

	// A nil *audit.Sink or *events.Sink must not be boxed into a non-nil
	// interface value, or Node's nil checks on the interface never fire.
	var auditIface node.AuditSink
	if auditSink != nil {
		auditIface = auditSink
	}
	var eventIface node.EventSink
	if eventSink != nil {
		eventIface = eventSink
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := node.New(&cfg.Gossip, self, auditIface, eventIface)

	if cfg.Admin.Enabled() {
		if _, err := admin.Start(ctx, cfg.Admin.Listen, n); err != nil {
			logger.Printf(logger.ERROR, "[gossipd] admin: %s\n", err.Error())
			cancel()
			return
		}
	}

	go func() {
		apiAddr := cfg.Gossip.APIAddress.String()
		p2pAddr := cfg.Gossip.P2PAddress.String()
		bootstrapper := cfg.Gossip.Bootstrapper.String()
		if err := n.Run(ctx, apiAddr, p2pAddr, bootstrapper); err != nil {
			logger.Printf(logger.ERROR, "[gossipd] node: %s\n", err.Error())
		}
	}()

	sigCh := make(chan os.Signal, 5)
	signal.Notify(sigCh)
	tick := time.NewTicker(5 * time.Minute)

loop:
	for {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGKILL, syscall.SIGINT, syscall.SIGTERM:
				logger.Printf(logger.INFO, "[gossipd] terminating service (on signal '%s')\n", sig)
				break loop
			case syscall.SIGHUP:
				logger.Println(logger.INFO, "[gossipd] SIGHUP")
			default:
				logger.Println(logger.INFO, "[gossipd] unhandled signal: "+sig.String())
			}
		case now := <-tick.C:
			logger.Println(logger.INFO, "[gossipd] heart beat at "+now.String())
		}
	}

	cancel()
	n.Wait()
}
