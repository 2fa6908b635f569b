package notification

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusRead    Status = "READ"
)

type Type string

const (
	TypeClaim    Type = "CLAIM"
	TypePolicy   Type = "POLICY"
	TypeWorkflow Type = "WORKFLOW"
)

type Notification struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"notification_id"`
	CustomerID string             `bson:"customer_id" json:"customer_id"`
	Message    string             `bson:"message" json:"message"`
	Type       Type               `bson:"type" json:"type"`
	EntityID   string             `bson:"entity_id,omitempty" json:"entity_id,omitempty"`
	Status     Status             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"notification_date" json:"notification_date"`
	ReadAt     *time.Time         `bson:"read_at,omitempty" json:"read_at,omitempty"`
}
