package policy

import "time"

type Status string

const (
	StatusPendingInitialApproval Status = "PENDING_INITIAL_APPROVAL"
	StatusPendingFinalApproval   Status = "PENDING_FINAL_APPROVAL"
	StatusAwaitingPayment        Status = "INACTIVE_AWAITING_PAYMENT"
	StatusActive                 Status = "ACTIVE"
)

type Type string

const (
	TypeHealth   Type = "HEALTH"
	TypeLife     Type = "LIFE"
	TypeAuto     Type = "AUTO"
	TypeHome     Type = "HOME"
	TypeTravel   Type = "TRAVEL"
	TypeAccident Type = "ACCIDENT"
)

// Types is ordered so product ids are matched the same way every time.
var Types = []Type{TypeHealth, TypeLife, TypeHome, TypeAuto, TypeTravel, TypeAccident}

func (t Type) Valid() bool {
	for _, v := range Types {
		if t == v {
			return true
		}
	}
	return false
}

// FinalApproverRole is the only role allowed to give final approval.
const FinalApproverRole = "Security Officer"

type Policy struct {
	ID                  string     `json:"policy_id"`
	Type                Type       `json:"policy_type"`
	PremiumAmount       float64    `json:"premium_amount"`
	CoverageDetails     string     `json:"coverage_details"`
	Status              Status     `json:"status"`
	PolicyDate          time.Time  `json:"policy_date"`
	StartDate           time.Time  `json:"start_date"`
	EndDate             time.Time  `json:"end_date"`
	InitialApproverID   string     `json:"initial_approver_id,omitempty"`
	InitialApprovalDate *time.Time `json:"initial_approval_date,omitempty"`
	FinalApproverID     string     `json:"final_approver_id,omitempty"`
	FinalApprovalDate   *time.Time `json:"final_approval_date,omitempty"`
}

type Payment struct {
	ID            string    `json:"payment_id"`
	PolicyID      string    `json:"policy_id"`
	CustomerID    string    `json:"customer_id"`
	Amount        float64   `json:"amount"`
	Gateway       string    `json:"payment_gateway"`
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"payment_status"`
	PaidAt        time.Time `json:"paid_at"`
}

type PurchaseInput struct {
	ProductID       string  `json:"product_id"`
	PolicyType      Type    `json:"policy_type"`
	PremiumAmount   float64 `json:"premium_amount"`
	CoverageDetails *string `json:"coverage_details"`
}

type QuoteInput struct {
	ProductID   string `json:"product_id"`
	DateOfBirth string `json:"date_of_birth"`
}

type Quote struct {
	ProductID    string  `json:"product_id"`
	Age          int     `json:"age"`
	BasePremium  float64 `json:"base_premium"`
	Discount     float64 `json:"discount"`
	FinalPremium float64 `json:"final_premium"`
}
