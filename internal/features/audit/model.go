package audit

import (
	"time"

	common_models "go-claims/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is one append-only audit record.
type Event struct {
	ID        primitive.ObjectID        `bson:"_id,omitempty" json:"id"`
	ActorID   string                    `bson:"actor_id" json:"actor_id"`
	ActorKind common_models.ActorKind   `bson:"actor_kind" json:"actor_kind"`
	Action    common_models.AuditAction `bson:"action" json:"action"`
	EntityID  string                    `bson:"entity_id,omitempty" json:"entity_id,omitempty"`
	Details   map[string]any            `bson:"details,omitempty" json:"details,omitempty"`
	Timestamp time.Time                 `bson:"timestamp" json:"timestamp"`
}
