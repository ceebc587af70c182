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

// Package audit is an optional, non-authoritative diagnostic event log:
// one row per cache mutation, purely for operator visibility. The message
// cache remains the sole authority for correctness; nothing here is ever
// read back by the core.
package audit

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bfix/gospel/logger"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

const createTable = `
CREATE TABLE IF NOT EXISTS gossip_audit (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	msg_id    INTEGER NOT NULL,
	data_type INTEGER NOT NULL,
	ttl       INTEGER NOT NULL,
	event     TEXT NOT NULL,
	at        DATETIME NOT NULL
)`

// Sink writes audit rows to a SQL database. A nil *Sink is valid and
// Record on it is a no-op, so callers never need to branch on whether
// auditing is enabled.
type Sink struct {
	db *sql.DB
}

// Open connects to the database named by driver/dsn and ensures the audit
// table exists. driver is "sqlite3" or "mysql", matching the two SQL
// backends this repository's dependency set supports.
func Open(driver, dsn string) (*Sink, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("audit: ping %s: %w", driver, err)
	}
	ddl := createTable
	if driver == "mysql" {
		// MySQL spells SQLite's AUTOINCREMENT keyword AUTO_INCREMENT.
		ddl = strings.Replace(ddl, "AUTOINCREMENT", "AUTO_INCREMENT", 1)
	}
	if _, err := db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("audit: create table: %w", err)
	}
	return &Sink{db: db}, nil
}

// Record inserts one audit row. Errors are logged, not returned: audit
// failures must never affect the gossip core's own correctness.
func (s *Sink) Record(event string, msgID uint16, dataType uint16, ttl uint8) {
	if s == nil {
		return
	}
	_, err := s.db.Exec(
		`INSERT INTO gossip_audit (msg_id, data_type, ttl, event, at) VALUES (?, ?, ?, ?, ?)`,
		msgID, dataType, ttl, event, time.Now().UTC(),
	)
	if err != nil {
		logger.Printf(logger.WARN, "[audit] insert failed: %s\n", err.Error())
	}
}

// Close releases the underlying database handle.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}
