package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	common_models "go-claims/internal/common/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	mu     sync.Mutex
	events []Event
	fail   bool
}

func (r *memRepo) Create(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("mongo unavailable")
	}
	r.events = append(r.events, event)
	return nil
}

func (r *memRepo) List(_ context.Context, filters map[string]interface{}, limit, offset int64) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Event{}
	for i := int(offset); i < len(r.events) && int64(len(out)) < limit; i++ {
		out = append(out, r.events[i])
	}
	return out, nil
}

func TestRecordIsPersistedAsynchronously(t *testing.T) {
	repo := &memRepo{}
	s := newAuditService(repo, zap.NewNop(), 8)

	actor := common_models.Actor{ID: "A1", Kind: common_models.ActorAdmin}
	s.Record(context.Background(), actor, common_models.AuditActionClaimApproved, "CLM_1", map[string]any{"newStatus": "APPROVED"})
	s.Close(context.Background())

	require.Len(t, repo.events, 1)
	got := repo.events[0]
	assert.Equal(t, "A1", got.ActorID)
	assert.Equal(t, common_models.ActorAdmin, got.ActorKind)
	assert.Equal(t, "CLM_1", got.EntityID)
	assert.False(t, got.Timestamp.IsZero())
}

func TestRecordSwallowsStorageFailure(t *testing.T) {
	repo := &memRepo{fail: true}
	s := newAuditService(repo, zap.NewNop(), 8)

	assert.NotPanics(t, func() {
		s.Record(context.Background(), common_models.SystemActor(), common_models.AuditActionWorkflowCreated, "WF", nil)
	})
	s.Close(context.Background())
	assert.Empty(t, repo.events)
}

func TestRecordDoesNotBlockWhenBufferIsFull(t *testing.T) {
	block := make(chan struct{})
	repo := &blockingRepo{release: block}
	s := newAuditService(repo, zap.NewNop(), 1)

	start := time.Now()
	for i := 0; i < 10; i++ {
		s.Record(context.Background(), common_models.SystemActor(), common_models.AuditActionClaimFiled, "CLM", nil)
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	close(block)
	s.Close(context.Background())
}

type blockingRepo struct {
	memRepo
	release chan struct{}
}

func (r *blockingRepo) Create(ctx context.Context, event Event) error {
	<-r.release
	return r.memRepo.Create(ctx, event)
}

func TestListLogsNormalizesPaging(t *testing.T) {
	repo := &memRepo{}
	for i := 0; i < 15; i++ {
		repo.events = append(repo.events, Event{EntityID: "E"})
	}
	s := newAuditService(repo, zap.NewNop(), 1)
	defer s.Close(context.Background())

	logs, err := s.ListLogs(context.Background(), nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 10)

	logs, err = s.ListLogs(context.Background(), nil, 2, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 5)
}
