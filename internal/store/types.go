package store

import "time"

// Outcome of a broadcast attempt.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Broadcast is one send attempt that reached the directory service.
type Broadcast struct {
	ID         string        `json:"id"`
	Body       string        `json:"body"`
	Recipients []string      `json:"recipients"`
	Status     string        `json:"status"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time     `json:"created_at"`
}

// BroadcastStats aggregates the history.
type BroadcastStats struct {
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
	Recipients int `json:"recipients"`
}
