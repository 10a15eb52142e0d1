package models

import "time"

// NotifyTask represents a queued email notification job.
type NotifyTask struct {
	ID          int64      `json:"id"`
	TaskType    string     `json:"task_type"`
	EventID     int64      `json:"event_id"`
	Recipient   string     `json:"recipient"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}

// Notify task types.
const (
	NotifyEventCreated         = "event_created"
	NotifyEventCancelled       = "event_cancelled"
	NotifyReservationConfirmed = "reservation_confirmed"
)

// Notify task statuses.
const (
	NotifyStatusPending   = "pending"
	NotifyStatusRetry     = "retry"
	NotifyStatusCompleted = "completed"
	NotifyStatusFailed    = "failed"
)
