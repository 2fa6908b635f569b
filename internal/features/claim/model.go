package claim

import "time"

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusDeclined Status = "DECLINED"
)

// Claim is an insurance claim. CurrentStepOrder is nil once the claim's
// workflow has completed, halted or was never assigned.
type Claim struct {
	ID               string     `json:"claim_id"`
	PolicyID         string     `json:"policy_id"`
	CustomerID       string     `json:"customer_id"`
	Description      string     `json:"description"`
	FiledAt          time.Time  `json:"claim_date"`
	Status           Status     `json:"claim_status"`
	Amount           float64    `json:"amount"`
	RiskScore        int        `json:"risk_score"`
	WorkflowID       string     `json:"workflow_id,omitempty"`
	CurrentStepOrder *int       `json:"current_step_order"`
	AdminID          string     `json:"admin_id,omitempty"`
	StatusLog        []LogEntry `json:"status_log,omitempty"`
}

// LogEntry is one line of a claim's append-only status log.
type LogEntry struct {
	Seq       int64     `json:"seq"`
	Entry     string    `json:"entry"`
	CreatedAt time.Time `json:"created_at"`
}

type FileClaimInput struct {
	PolicyID    string  `json:"policy_id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type DecisionInput struct {
	NewStatus Status `json:"newStatus"`
}

// History is the filing customer's record used for risk scoring.
type History struct {
	ClaimCount    int
	DeclinedCount int
}

type WorkflowMetric struct {
	WorkflowID         string  `json:"workflow_id"`
	WorkflowName       string  `json:"workflow_name"`
	TotalClaims        int     `json:"total_claims"`
	AvgProcessingHours float64 `json:"avg_processing_time_hrs"`
}

// OverdueClaim is a PENDING claim older than the configured SLA.
type OverdueClaim struct {
	ClaimID      string    `json:"claim_id"`
	WorkflowID   string    `json:"workflow_id"`
	StepName     string    `json:"step_name"`
	AssignedTo   string    `json:"assigned_role"`
	CustomerID   string    `json:"customer_id"`
	Amount       float64   `json:"amount"`
	FiledAt      time.Time `json:"due_date"`
	HoursOverdue int       `json:"hours_overdue"`
}
