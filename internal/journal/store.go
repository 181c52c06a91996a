// Package journal records AnkiConnect bridge calls for diagnostics.
// It never stores request params or results, only call outcomes.
package journal

import (
	"time"
)

// Outcome values stored with each entry.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Entry is one recorded bridge call.
type Entry struct {
	RequestID string        `json:"request_id"`
	Action    string        `json:"action"`
	Outcome   string        `json:"outcome"`
	ErrorType string        `json:"error_type,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	Timestamp time.Time     `json:"timestamp"`
}

// Recorder defines the interface for storing and listing bridge call entries.
type Recorder interface {
	// Initialize opens the underlying storage at dbPath.
	Initialize(dbPath string) error

	// Close closes the recorder and releases any resources.
	Close() error

	// Record stores one entry.
	Record(entry Entry) error

	// Recent returns up to limit entries, newest first.
	Recent(limit int) ([]Entry, error)
}
