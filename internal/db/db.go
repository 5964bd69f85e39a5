package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{sql: conn}, nil
}

func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) Migrate() error {
	_, err := d.sql.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create metadata: %w", err)
	}

	_, err = d.sql.Exec(`
		CREATE TABLE IF NOT EXISTS uploads (
			id         TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			file_name  TEXT NOT NULL DEFAULT '',
			file_size  INTEGER NOT NULL DEFAULT 0,
			outcome    TEXT NOT NULL,
			message    TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create uploads: %w", err)
	}

	_, err = d.sql.Exec(`
		CREATE TABLE IF NOT EXISTS status_events (
			id          INTEGER PRIMARY KEY,
			session_id  TEXT NOT NULL,
			file_name   TEXT NOT NULL DEFAULT '',
			file_size   INTEGER NOT NULL,
			received_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create status_events: %w", err)
	}

	if _, err := d.sql.Exec(`CREATE INDEX IF NOT EXISTS idx_uploads_created_at ON uploads(created_at DESC)`); err != nil {
		return fmt.Errorf("index uploads: %w", err)
	}
	if _, err := d.sql.Exec(`CREATE INDEX IF NOT EXISTS idx_status_events_received_at ON status_events(received_at DESC)`); err != nil {
		return fmt.Errorf("index status_events: %w", err)
	}
	return nil
}

func (d *DB) InsertUpload(r UploadRecord) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := d.sql.Exec(
		`INSERT INTO uploads (id, session_id, file_name, file_size, outcome, message, created_at)
		 VALUES (?,?,?,?,?,?,?)`,
		r.ID, r.SessionID, r.FileName, r.FileSize, string(r.Outcome), r.Message, r.CreatedAt.UnixMilli(),
	)
	return err
}

// RecentUploads returns up to limit uploads, newest first.
func (d *DB) RecentUploads(limit int) ([]UploadRecord, error) {
	rows, err := d.sql.Query(
		`SELECT id, session_id, file_name, file_size, outcome, message, created_at
		 FROM uploads
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UploadRecord
	for rows.Next() {
		var r UploadRecord
		var outcome string
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.SessionID, &r.FileName, &r.FileSize, &outcome, &r.Message, &createdAt); err != nil {
			return nil, err
		}
		r.Outcome = Outcome(outcome)
		r.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) InsertEvent(e EventRecord) error {
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now()
	}
	_, err := d.sql.Exec(
		`INSERT INTO status_events (session_id, file_name, file_size, received_at) VALUES (?,?,?,?)`,
		e.SessionID, e.FileName, e.FileSize, e.ReceivedAt.UnixMilli(),
	)
	return err
}

// RecentEvents returns up to limit status events, newest first.
func (d *DB) RecentEvents(limit int) ([]EventRecord, error) {
	rows, err := d.sql.Query(
		`SELECT id, session_id, file_name, file_size, received_at
		 FROM status_events
		 ORDER BY received_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var e EventRecord
		var receivedAt int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.FileName, &e.FileSize, &receivedAt); err != nil {
			return nil, err
		}
		e.ReceivedAt = time.UnixMilli(receivedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (d *DB) SetMeta(key, value string) error {
	_, err := d.sql.Exec("INSERT OR REPLACE INTO metadata (key, value) VALUES (?,?)", key, value)
	return err
}

func (d *DB) GetMeta(key string) (string, error) {
	var value string
	err := d.sql.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}
