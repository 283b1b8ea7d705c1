// Package ledger keeps an optional sqlite history of merge runs so operators
// can see when a catalog was last enriched and with what result.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS merge_runs (
	id          TEXT PRIMARY KEY,
	at          TEXT NOT NULL,
	channel_url TEXT NOT NULL,
	channel_id  TEXT NOT NULL DEFAULT '',
	playlist_id TEXT NOT NULL DEFAULT '',
	file        TEXT NOT NULL,
	action      TEXT NOT NULL DEFAULT '',
	exit_code   INTEGER NOT NULL,
	detail      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS merge_runs_at ON merge_runs(at);`

// timeLayout is fixed width so the at column sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one resolve invocation.
type Run struct {
	ID         string
	At         time.Time
	ChannelURL string
	ChannelID  string
	PlaylistID string
	File       string
	Action     string
	ExitCode   int
	Detail     string
}

// Ledger is an open merge history database.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger at path.
func Open(path string) (*Ledger, error) {
	path = filepath.Clean(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("ledger: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores r, assigning an id and timestamp when unset, and returns the stored run.
func (l *Ledger) Record(ctx context.Context, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	r.At = r.At.UTC()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO merge_runs (id, at, channel_url, channel_id, playlist_id, file, action, exit_code, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.At.Format(timeLayout), r.ChannelURL, r.ChannelID, r.PlaylistID, r.File, r.Action, r.ExitCode, r.Detail)
	if err != nil {
		return Run{}, fmt.Errorf("ledger: record: %w", err)
	}
	return r, nil
}

// Recent returns up to limit runs, newest first. limit <= 0 means 20.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, at, channel_url, channel_id, playlist_id, file, action, exit_code, detail
		 FROM merge_runs ORDER BY at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: query: %w", err)
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		var at string
		if err := rows.Scan(&r.ID, &at, &r.ChannelURL, &r.ChannelID, &r.PlaylistID, &r.File, &r.Action, &r.ExitCode, &r.Detail); err != nil {
			return nil, fmt.Errorf("ledger: scan: %w", err)
		}
		r.At, err = time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("ledger: run %s: bad timestamp %q", r.ID, at)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
