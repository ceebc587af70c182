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

// Package events is an optional, best-effort publisher of operational
// events (peer churn, announce/validation throughput) onto a Redis
// channel. Nothing in the gossip core ever subscribes to or depends on
// these events; an external observer is free to miss them.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bfix/gospel/logger"
	"github.com/go-redis/redis/v8"
)

// Channel is the fixed Redis pub/sub channel every event is published on.
const Channel = "gossipd.events"

// Sink publishes JSON event records to Redis. A nil *Sink is valid and
// Publish on it is a no-op.
type Sink struct {
	client *redis.Client
}

// Open constructs a Redis client for addr/db. No connection is made until
// the first Publish; a transient Redis outage only costs a log line.
func Open(addr string, db int) *Sink {
	return &Sink{client: redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})}
}

// record is the JSON shape published for every event.
type record struct {
	Event  string            `json:"event"`
	Fields map[string]string `json:"fields"`
	At     string            `json:"at"`
}

// Publish sends one event. Failures are logged and otherwise ignored: a
// dropped event must never affect gossip correctness.
func (s *Sink) Publish(event string, fields map[string]string) {
	if s == nil {
		return
	}
	rec := record{Event: event, Fields: fields, At: time.Now().UTC().Format(time.RFC3339)}
	buf, err := json.Marshal(rec)
	if err != nil {
		logger.Printf(logger.WARN, "[events] marshal failed: %s\n", err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.client.Publish(ctx, Channel, buf).Err(); err != nil {
		logger.Printf(logger.WARN, "[events] publish failed: %s\n", err.Error())
	}
}

// Close releases the underlying Redis client.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}
