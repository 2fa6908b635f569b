package audit

import (
	"context"
	"sync"
	"time"

	common_models "go-claims/internal/common/models"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type AuditService interface {
	// Record queues an event. It never blocks the caller and never fails:
	// a full buffer or a storage error is logged and the event is dropped.
	Record(ctx context.Context, actor common_models.Actor, action common_models.AuditAction, entityID string, details map[string]any)
	ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]Event, error)
}

type AuditServiceImpl struct {
	Repo   AuditRepository
	logger *zap.Logger
	events chan Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAuditService(lc fx.Lifecycle, repo AuditRepository, logger *zap.Logger) AuditService {
	s := newAuditService(repo, logger, 512)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			s.Close(ctx)
			return nil
		},
	})
	return s
}

func newAuditService(repo AuditRepository, logger *zap.Logger, buffer int) *AuditServiceImpl {
	s := &AuditServiceImpl{
		Repo:   repo,
		logger: logger,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go s.process()
	return s
}

func (s *AuditServiceImpl) Record(_ context.Context, actor common_models.Actor, action common_models.AuditAction, entityID string, details map[string]any) {
	event := Event{
		ActorID:   actor.ID,
		ActorKind: actor.Kind,
		Action:    action,
		EntityID:  entityID,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Warn("Audit recorder closed, dropping event", zap.String("action", string(action)))
		return
	}

	select {
	case s.events <- event:
	default:
		s.logger.Warn("Audit buffer full, dropping event",
			zap.String("action", string(action)), zap.String("entityId", entityID))
	}
}

func (s *AuditServiceImpl) process() {
	defer close(s.done)
	for event := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.Repo.Create(ctx, event); err != nil {
			s.logger.Error("Failed to write audit event",
				zap.String("action", string(event.Action)),
				zap.String("entityId", event.EntityID),
				zap.Error(err))
		}
		cancel()
	}
}

// Close stops accepting events and waits for the buffer to drain.
func (s *AuditServiceImpl) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()

	select {
	case <-s.done:
	case <-ctx.Done():
	}
}

func (s *AuditServiceImpl) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]Event, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit
	return s.Repo.List(ctx, filters, limit, offset)
}
