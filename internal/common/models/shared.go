package models

import (
	"time"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
)

type ActorKind string

const (
	ActorCustomer ActorKind = "CUSTOMER"
	ActorAdmin    ActorKind = "ADMIN"
	ActorSystem   ActorKind = "SYSTEM"
)

type AuditAction string

const (
	AuditActionClaimFiled            AuditAction = "CLAIM_FILED"
	AuditActionClaimApproved         AuditAction = "CLAIM_STATUS_UPDATE_APPROVED"
	AuditActionClaimDeclined         AuditAction = "CLAIM_STATUS_UPDATE_DECLINED"
	AuditActionClaimAdvanced         AuditAction = "CLAIM_WORKFLOW_RETRIGGERED"
	AuditActionPolicyPurchased       AuditAction = "POLICY_PURCHASED"
	AuditActionPolicyInitialApproval AuditAction = "POLICY_INITIAL_APPROVAL"
	AuditActionPolicyFinalApproval   AuditAction = "POLICY_FINAL_APPROVAL"
	AuditActionPolicyActivated       AuditAction = "POLICY_ACTIVATED"
	AuditActionWorkflowCreated       AuditAction = "WORKFLOW_CREATED"
	AuditActionWorkflowUpdated       AuditAction = "WORKFLOW_UPDATED"
	AuditActionWorkflowDeleted       AuditAction = "WORKFLOW_DELETED"
	AuditActionStepCreated           AuditAction = "WORKFLOW_STEP_CREATED"
	AuditActionStepUpdated           AuditAction = "WORKFLOW_STEP_UPDATED"
	AuditActionStepDeleted           AuditAction = "WORKFLOW_STEP_DELETED"
)

// Actor identifies who triggered an operation.
type Actor struct {
	ID   string    `json:"id"`
	Kind ActorKind `json:"kind"`
	Role string    `json:"role,omitempty"`
}

func SystemActor() Actor {
	return Actor{ID: "system", Kind: ActorSystem}
}

// Log is the document written by the logger's Mongo sink.
type Log struct {
	Message      string    `bson:"message" json:"message"`
	Level        string    `bson:"level" json:"level"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	Caller       string    `bson:"caller,omitempty" json:"caller,omitempty"`
	ClaimId      string    `bson:"claim_id,omitempty" json:"claim_id,omitempty"`
	CustomerId   string    `bson:"customer_id,omitempty" json:"customer_id,omitempty"`
	AppId        string    `bson:"app_id" json:"app_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
