package scheduler

import "time"

type TimerStatus string

const (
	TimerPending TimerStatus = "PENDING"
	TimerFired   TimerStatus = "FIRED"
	TimerStale   TimerStatus = "STALE"
)

// Timer is a durable resume request for a claim parked on a TIMER step.
// At most one exists per (ClaimID, ExpectedStepOrder).
type Timer struct {
	ID                string      `json:"timer_id"`
	ClaimID           string      `json:"claim_id"`
	ExpectedStepOrder int         `json:"expected_step_order"`
	NextStepOrder     *int        `json:"next_step_order"`
	DueAt             time.Time   `json:"due_at"`
	Status            TimerStatus `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
	FiredAt           *time.Time  `json:"fired_at,omitempty"`
}
