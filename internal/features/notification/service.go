package notification

import (
	"context"
	"strings"
	"time"

	"go-claims/internal/common/errs"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type NotificationService interface {
	// Notify stores n and pushes it to the customer's open sockets. Failures
	// are logged; the caller's operation has already succeeded.
	Notify(ctx context.Context, n Notification)
	// ListForCustomer filters by status when it is PENDING or READ and
	// ignores any other value.
	ListForCustomer(ctx context.Context, customerID, status string) ([]Notification, error)
	MarkRead(ctx context.Context, id, customerID string) error
}

type NotificationServiceImpl struct {
	Repo   NotificationRepository
	Hub    *Hub
	logger *zap.Logger
}

func NewNotificationService(repo NotificationRepository, hub *Hub, logger *zap.Logger) NotificationService {
	return &NotificationServiceImpl{
		Repo:   repo,
		Hub:    hub,
		logger: logger,
	}
}

func (s *NotificationServiceImpl) Notify(ctx context.Context, n Notification) {
	if n.CustomerID == "" {
		return
	}
	n.Status = StatusPending
	n.CreatedAt = time.Now().UTC()

	// Detached from the request so a cancelled caller still gets its notification stored.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.Repo.Create(writeCtx, &n); err != nil {
		s.logger.Error("Failed to store notification",
			zap.String("customerId", n.CustomerID), zap.String("entityId", n.EntityID), zap.Error(err))
		return
	}
	if s.Hub != nil {
		s.Hub.Push(n.CustomerID, n)
	}
}

func (s *NotificationServiceImpl) ListForCustomer(ctx context.Context, customerID, status string) ([]Notification, error) {
	filter := Status(strings.ToUpper(status))
	if filter != StatusPending && filter != StatusRead {
		filter = ""
	}
	return s.Repo.ListByCustomer(ctx, customerID, filter)
}

func (s *NotificationServiceImpl) MarkRead(ctx context.Context, id, customerID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.NotFound("Notification not found.")
	}
	found, err := s.Repo.MarkRead(ctx, oid, customerID)
	if err != nil {
		return err
	}
	if !found {
		return errs.NotFound("Notification not found.")
	}
	return nil
}
