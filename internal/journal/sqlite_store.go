package journal

import (
	"fmt"
	"sync"
	"time"

	"crawshaw.io/sqlite"
)

// DefaultMaxEntries bounds the journal when no explicit limit is configured.
const DefaultMaxEntries = 1000

// SQLiteRecorder is an implementation of Recorder that uses SQLite.
// A single connection is shared, so every statement runs under mu.
type SQLiteRecorder struct {
	conn       *sqlite.Conn
	dbPath     string
	maxEntries int
	mu         sync.Mutex
}

// NewSQLiteRecorder creates a new SQLiteRecorder instance. maxEntries <= 0
// selects DefaultMaxEntries.
func NewSQLiteRecorder(maxEntries int) *SQLiteRecorder {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &SQLiteRecorder{maxEntries: maxEntries}
}

// Initialize opens the database at dbPath and creates the table.
func (s *SQLiteRecorder) Initialize(dbPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dbPath = dbPath

	conn, err := sqlite.OpenConn(dbPath, sqlite.SQLITE_OPEN_CREATE|sqlite.SQLITE_OPEN_READWRITE)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	s.conn = conn

	if err := s.createTable(); err != nil {
		s.conn.Close()
		s.conn = nil
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

func (s *SQLiteRecorder) createTable() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS bridge_calls (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		action TEXT NOT NULL,
		outcome TEXT NOT NULL,
		error_type TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		duration_ns INTEGER NOT NULL,
		timestamp INTEGER NOT NULL
	);`

	stmt, err := s.conn.Prepare(createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare create table statement: %w", err)
	}
	defer stmt.Reset()

	if _, err := stmt.Step(); err != nil {
		return fmt.Errorf("failed to execute create table statement: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteRecorder) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Record inserts an entry and trims the table to maxEntries rows.
func (s *SQLiteRecorder) Record(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("journal not initialized")
	}

	insertSQL := `
	INSERT INTO bridge_calls (request_id, action, outcome, error_type, error, duration_ns, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?);`

	stmt, err := s.conn.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Reset()

	// Bind parameters - indices in sqlite are 1-based
	stmt.BindText(1, entry.RequestID)
	stmt.BindText(2, entry.Action)
	stmt.BindText(3, entry.Outcome)
	stmt.BindText(4, entry.ErrorType)
	stmt.BindText(5, entry.Error)
	stmt.BindInt64(6, int64(entry.Duration))
	stmt.BindInt64(7, entry.Timestamp.UnixNano())

	if _, err := stmt.Step(); err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}

	return s.trim()
}

func (s *SQLiteRecorder) trim() error {
	trimSQL := `
	DELETE FROM bridge_calls
	WHERE seq <= (SELECT MAX(seq) FROM bridge_calls) - ?;`

	stmt, err := s.conn.Prepare(trimSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare trim statement: %w", err)
	}
	defer stmt.Reset()

	stmt.BindInt64(1, int64(s.maxEntries))
	if _, err := stmt.Step(); err != nil {
		return fmt.Errorf("failed to trim journal: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *SQLiteRecorder) Recent(limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil, fmt.Errorf("journal not initialized")
	}
	if limit <= 0 {
		return []Entry{}, nil
	}

	selectSQL := `
	SELECT request_id, action, outcome, error_type, error, duration_ns, timestamp
	FROM bridge_calls
	ORDER BY seq DESC
	LIMIT ?;`

	stmt, err := s.conn.Prepare(selectSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Reset()

	stmt.BindInt64(1, int64(limit))

	entries := []Entry{}
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, fmt.Errorf("failed to execute select statement: %w", err)
		}
		if !hasRow {
			break
		}

		// Column indices are 0-based
		entries = append(entries, Entry{
			RequestID: stmt.ColumnText(0),
			Action:    stmt.ColumnText(1),
			Outcome:   stmt.ColumnText(2),
			ErrorType: stmt.ColumnText(3),
			Error:     stmt.ColumnText(4),
			Duration:  time.Duration(stmt.ColumnInt64(5)),
			Timestamp: time.Unix(0, stmt.ColumnInt64(6)),
		})
	}

	return entries, nil
}
