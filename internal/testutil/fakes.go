// Package testutil holds recording doubles for the services that sit at the
// edges of a use case: audit, notifications and the engine queue.
package testutil

import (
	"context"
	"sync"

	common_models "go-claims/internal/common/models"
	"go-claims/internal/features/audit"
	"go-claims/internal/features/notification"
)

type AuditRecord struct {
	Actor    common_models.Actor
	Action   common_models.AuditAction
	EntityID string
	Details  map[string]any
}

// Auditor implements audit.AuditService.
type Auditor struct {
	mu      sync.Mutex
	Records []AuditRecord
}

func (a *Auditor) Record(_ context.Context, actor common_models.Actor, action common_models.AuditAction, entityID string, details map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Records = append(a.Records, AuditRecord{Actor: actor, Action: action, EntityID: entityID, Details: details})
}

func (a *Auditor) ListLogs(context.Context, map[string]interface{}, int64, int64) ([]audit.Event, error) {
	return nil, nil
}

func (a *Auditor) Actions() []common_models.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]common_models.AuditAction, 0, len(a.Records))
	for _, r := range a.Records {
		out = append(out, r.Action)
	}
	return out
}

// Notifier implements notification.NotificationService.
type Notifier struct {
	mu   sync.Mutex
	Sent []notification.Notification
}

func (n *Notifier) Notify(_ context.Context, msg notification.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, msg)
}

func (n *Notifier) ListForCustomer(context.Context, string, string) ([]notification.Notification, error) {
	return nil, nil
}

func (n *Notifier) MarkRead(context.Context, string, string) error {
	return nil
}

func (n *Notifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.Sent))
	for _, s := range n.Sent {
		out = append(out, s.Message)
	}
	return out
}

// Queue implements queue.Enqueuer by recording claim ids.
type Queue struct {
	mu  sync.Mutex
	IDs []string
}

func (q *Queue) Enqueue(claimID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.IDs = append(q.IDs, claimID)
}

// Drain returns and clears the recorded ids.
func (q *Queue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := q.IDs
	q.IDs = nil
	return ids
}
