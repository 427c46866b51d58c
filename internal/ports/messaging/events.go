package messaging

import "time"

// OutcomeEvent is the JSON payload published to the outcome queue after every run.
type OutcomeEvent struct {
	RunID      string    `json:"runId"`
	Date       string    `json:"date"`
	Direction  string    `json:"direction"`
	Status     string    `json:"status"`
	Kind       string    `json:"kind,omitempty"`
	Message    string    `json:"message,omitempty"`
	ClockIn    string    `json:"clockIn,omitempty"`
	ClockOut   string    `json:"clockOut,omitempty"`
	DryRun     bool      `json:"dryRun"`
	OccurredAt time.Time `json:"occurredAt"`
}
