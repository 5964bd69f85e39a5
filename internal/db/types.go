package db

import "time"

// Outcome is the terminal state of one submission.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

type UploadRecord struct {
	ID        string
	SessionID string
	FileName  string
	FileSize  int64
	Outcome   Outcome
	Message   string // server message on success, error text otherwise
	CreatedAt time.Time
}

type EventRecord struct {
	ID         int64
	SessionID  string
	FileName   string
	FileSize   int64
	ReceivedAt time.Time
}
