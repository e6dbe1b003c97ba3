package task

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var (
	// ErrNotFound is returned for unknown task ids.
	ErrNotFound = errors.New("task not found")
	// ErrAlreadyResolved is returned when a terminal task is resolved again.
	ErrAlreadyResolved = errors.New("task already resolved")
)

// Record tracks one asynchronous transcription request.
type Record struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	// ResultPath is the storage key of the subtitle file, set when completed.
	ResultPath string `json:"result_path,omitempty"`
	// ErrorMessage is set when failed.
	ErrorMessage string     `json:"error_message,omitempty"`
	Language     string     `json:"language,omitempty"`
	Format       string     `json:"format,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// CreateOptions carries the request attributes stored on a new record.
type CreateOptions struct {
	Language string
	Format   string
}

func newRecord(id string, opts CreateOptions, now time.Time) *Record {
	return &Record{
		ID:        id,
		Status:    StatusProcessing,
		Language:  opts.Language,
		Format:    opts.Format,
		CreatedAt: now,
	}
}

// Complete moves a processing record to completed.
func (r *Record) Complete(path string, now time.Time) error {
	if r.Status.IsTerminal() {
		return ErrAlreadyResolved
	}
	r.Status = StatusCompleted
	r.ResultPath = path
	r.FinishedAt = &now
	return nil
}

// Fail moves a processing record to failed.
func (r *Record) Fail(message string, now time.Time) error {
	if r.Status.IsTerminal() {
		return ErrAlreadyResolved
	}
	r.Status = StatusFailed
	r.ErrorMessage = message
	r.FinishedAt = &now
	return nil
}

// Clone returns a deep copy so callers never share mutable state with a store.
func (r *Record) Clone() *Record {
	c := *r
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}
