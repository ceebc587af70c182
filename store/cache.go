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

package store

import (
	"strconv"
	"sync"

	"gossipd/util"
)

// Valid is the tri-state validity flag of a cached message: it starts
// Unconfirmed; MakeInvalid and MakeValid set it to Invalid or Confirmed
// without regard to its current state.
type Valid int

const (
	Unconfirmed Valid = iota
	Confirmed
	Invalid
)

// Entry is everything the cache remembers about one announced message.
type Entry struct {
	DataType uint16
	Payload  []byte
	TTL      uint8
	Valid    Valid
}

// Cache is the message store (spec component C2): it maps announced
// payloads to message-ids, tracks which data-types they belong to, and
// which API clients are subscribed to which data-type. A single mutex
// guards all three relations; it is held only across pointer-shuffling,
// never across socket I/O — callers that need to iterate subscribers take
// a snapshot via Subscribers and release the lock before sending.
type Cache struct {
	mu sync.Mutex

	entries     map[uint16]*Entry
	byDataType  map[uint16][]uint16 // data_type -> ordered msg_id list
	subscribers map[uint16][]string // data_type -> ordered subscriber addrs
}

// NewCache allocates an empty message cache.
func NewCache() *Cache {
	return &Cache{
		entries:     make(map[uint16]*Entry),
		byDataType:  make(map[uint16][]uint16),
		subscribers: make(map[uint16][]string),
	}
}

// AddData allocates a fresh msg_id (uniform random over the full 16-bit
// space, retried on collision), records the entry as unconfirmed, and
// appends the id to its data-type's list. The returned id is always a key
// of the cache and always a member of its data-type's list.
func (c *Cache) AddData(dataType uint16, payload []byte, ttl uint8) uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var id uint16
	for {
		id = util.RndUInt16()
		if _, exists := c.entries[id]; !exists {
			break
		}
	}
	c.entries[id] = &Entry{DataType: dataType, Payload: payload, TTL: ttl, Valid: Unconfirmed}
	c.byDataType[dataType] = append(c.byDataType[dataType], id)
	return id
}

// Get returns the cache entry for id, if any.
func (c *Cache) Get(id uint16) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

// MakeInvalid marks id as confirmed invalid. A missing id is logged by the
// caller and otherwise has no effect here — cache operations never fail.
func (c *Cache) MakeInvalid(id uint16) (ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return false
	}
	e.Valid = Invalid
	return true
}

// MakeValid marks id as confirmed valid.
func (c *Cache) MakeValid(id uint16) (ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return false
	}
	e.Valid = Confirmed
	return true
}

// AddSubscriber appends addr to the subscriber list of dataType, unless
// already present.
func (c *Cache) AddSubscriber(dataType uint16, addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.subscribers[dataType] {
		if s == addr {
			return
		}
	}
	c.subscribers[dataType] = append(c.subscribers[dataType], addr)
}

// RemoveSubscriber sweeps every data-type's subscriber list and drops
// addr. Invoked once, on API-client teardown.
func (c *Cache) RemoveSubscriber(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for dt, subs := range c.subscribers {
		out := subs[:0]
		for _, s := range subs {
			if s != addr {
				out = append(out, s)
			}
		}
		c.subscribers[dt] = out
	}
}

// Subscribers returns a snapshot list of dataType's subscribers, safe to
// range over without holding the cache lock.
func (c *Cache) Subscribers(dataType uint16) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	subs := c.subscribers[dataType]
	out := make([]string, len(subs))
	copy(out, subs)
	return out
}

// Size returns the number of cached entries.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SubscriberCounts returns the number of subscribers per data-type, keyed
// by its decimal string form for convenient JSON encoding.
func (c *Cache) SubscriberCounts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.subscribers))
	for dt, subs := range c.subscribers {
		if len(subs) == 0 {
			continue
		}
		out[strconv.Itoa(int(dt))] = len(subs)
	}
	return out
}
