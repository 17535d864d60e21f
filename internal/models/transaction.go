package models

import "time"

// Transaction statuses. A transaction starts as new, moves to processing when
// a transfer is prepared, and ends in exactly one of the terminal statuses.
const (
	StatusNew        = "new"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
	StatusReclaimed  = "reclaimed"
)

// IsTerminalStatus reports whether no further status transition is permitted.
// Unrecognized processor statuses are stored verbatim and are not terminal.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusProcessed, StatusFailed, StatusCanceled, StatusReclaimed:
		return true
	}
	return false
}

// Transaction is the platform-facing record of an owed payment for completed
// work. Value is derived from quantity and the job's unit price at read time
// and is never stored on the row itself.
type Transaction struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenant_id"`
	UserID     int64     `json:"user_id"`
	AdminID    *int64    `json:"admin_id,omitempty"`
	JobID      int64     `json:"job_id"`
	Quantity   float64   `json:"quantity"`
	Value      float64   `json:"value"`
	Status     string    `json:"status"`
	TransferID *int64    `json:"transfer_id,omitempty"`
	Job        *Job      `json:"job,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
