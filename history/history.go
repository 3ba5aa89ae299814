// Package history keeps a local log of lifecycle transitions in a
// SQLite database, so an operator can see what happened on a host
// after the fact. Recording is best-effort: the lifecycle never fails
// because the history database is unavailable.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS transitions (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	at      TIMESTAMP NOT NULL,
	op      TEXT NOT NULL,
	server  TEXT NOT NULL,
	pid     INTEGER NOT NULL,
	outcome TEXT NOT NULL
);
`

// Entry is one recorded lifecycle transition.
type Entry struct {
	Time    time.Time
	Op      string
	Server  string
	PID     int
	Outcome string
}

// Store is a transition log backed by a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends one transition.
func (s *Store) Record(op, server string, pid int, outcome string) error {
	_, err := s.db.Exec(
		"INSERT INTO transitions (at, op, server, pid, outcome) VALUES (?, ?, ?, ?, ?)",
		time.Now().UTC(), op, server, pid, outcome,
	)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// Recent returns up to n transitions, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(
		"SELECT at, op, server, pid, outcome FROM transitions ORDER BY id DESC LIMIT ?", n,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Time, &e.Op, &e.Server, &e.PID, &e.Outcome); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
