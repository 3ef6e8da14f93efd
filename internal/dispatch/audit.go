// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// AuditLog persists one row per dispatched action in a sqlite database.
type AuditLog struct {
	db *sql.DB
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS action_log (
	id         TEXT PRIMARY KEY,
	timestamp  DATETIME NOT NULL,
	action     TEXT NOT NULL,
	request    TEXT NOT NULL,
	response   TEXT NOT NULL
)`

// OpenAuditLog opens (creating if needed) the audit database at path.
func OpenAuditLog(path string) (*AuditLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating audit table: %w", err)
	}
	return &AuditLog{db: db}, nil
}

// Record stores one request/response pair and returns the entry's id.
func (a *AuditLog) Record(ctx context.Context, action, request, response string) (string, error) {
	id := uuid.NewString()
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO action_log (id, timestamp, action, request, response) VALUES (?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), action, request, response)
	if err != nil {
		return "", fmt.Errorf("recording action %q: %w", action, err)
	}
	return id, nil
}

// Close releases the underlying database handle.
func (a *AuditLog) Close() error { return a.db.Close() }
