package claim_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"go-claims/internal/common/errs"
	common_models "go-claims/internal/common/models"
	"go-claims/internal/config"
	"go-claims/internal/features/claim"
	"go-claims/internal/features/policy"
	"go-claims/internal/features/workflow"
	"go-claims/internal/testutil"
	"go-claims/internal/testutil/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const workflowID = "CLAIM_APPROVAL_V1"

type fixture struct {
	store    *memstore.Store
	audit    *testutil.Auditor
	notifier *testutil.Notifier
	queue    *testutil.Queue
	service  claim.ClaimService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	f := &fixture{
		store:    store,
		audit:    &testutil.Auditor{},
		notifier: &testutil.Notifier{},
		queue:    &testutil.Queue{},
	}
	cfg := &config.Config{
		DefaultWorkflowID: workflowID,
		OverdueDays:       7,
		HighRiskThreshold: 7,
	}
	workflows := workflow.NewWorkflowService(store.Workflows(), store, f.audit, zap.NewNop())
	f.service = claim.NewClaimService(
		store.Claims(), store.Policies(), store.Workflows(), workflows,
		store, f.audit, f.notifier, f.queue, nil, cfg, zap.NewNop(),
	)

	ctx := context.Background()
	require.NoError(t, store.Policies().Create(ctx, policy.Policy{ID: "POL_1", Type: policy.TypeHealth, Status: policy.StatusActive}))
	require.NoError(t, store.Policies().LinkCustomer(ctx, "C1", "POL_1"))
	require.NoError(t, store.Policies().Create(ctx, policy.Policy{ID: "POL_2", Type: policy.TypeAuto, Status: policy.StatusActive}))
	return f
}

func (f *fixture) addSteps(t *testing.T, orders ...int) {
	t.Helper()
	ctx := context.Background()
	if def, _ := f.store.Workflows().Get(ctx, workflowID); def == nil {
		require.NoError(t, f.store.Workflows().Create(ctx, workflow.Definition{ID: workflowID, Name: "Claim Approval"}))
	}
	for _, order := range orders {
		require.NoError(t, f.store.Workflows().CreateStep(ctx, workflow.Step{
			ID:         fmt.Sprintf("STEP_%d", order),
			WorkflowID: workflowID,
			Order:      order,
			Name:       fmt.Sprintf("Review %d", order),
			TaskType:   workflow.TaskManual,
		}))
	}
}

func TestFileClaim(t *testing.T) {
	f := newFixture(t)
	f.addSteps(t, 10, 20)

	c, err := f.service.FileClaim(context.Background(), "C1", claim.FileClaimInput{
		PolicyID:    "POL_1",
		Description: "  Broken arm  ",
		Amount:      1500,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(c.ID, "CLM_"))
	assert.Equal(t, claim.StatusPending, c.Status)
	assert.Equal(t, "Broken arm", c.Description)
	assert.Equal(t, 1, c.RiskScore)
	assert.Equal(t, workflowID, c.WorkflowID)
	require.NotNil(t, c.CurrentStepOrder)
	assert.Equal(t, 10, *c.CurrentStepOrder, "starts at the lowest step order")

	stored, err := f.service.GetClaim(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, stored.StatusLog, 1)
	assert.Equal(t, "Claim submitted by user.", stored.StatusLog[0].Entry)

	assert.Equal(t, []string{c.ID}, f.queue.Drain())
	assert.Equal(t, []common_models.AuditAction{common_models.AuditActionClaimFiled}, f.audit.Actions())
	require.Len(t, f.notifier.Sent, 1)
	assert.Contains(t, f.notifier.Sent[0].Message, c.ID)
}

func TestFileClaimCreatesDefaultWorkflow(t *testing.T) {
	f := newFixture(t)

	c, err := f.service.FileClaim(context.Background(), "C1", claim.FileClaimInput{
		PolicyID: "POL_1", Description: "Lost luggage", Amount: 200,
	})
	require.NoError(t, err)

	def, err := f.store.Workflows().Get(context.Background(), workflowID)
	require.NoError(t, err)
	require.NotNil(t, def)
	require.NotNil(t, c.CurrentStepOrder)
	assert.Equal(t, 1, *c.CurrentStepOrder, "a workflow without steps starts at 1")
}

func TestFileClaimScoresHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		status := claim.StatusApproved
		if i == 0 {
			status = claim.StatusDeclined
		}
		require.NoError(t, f.store.Claims().Insert(ctx, claim.Claim{
			ID:         fmt.Sprintf("CLM_OLD_%d", i),
			PolicyID:   "POL_1",
			CustomerID: "C1",
			Status:     status,
			Amount:     100,
			FiledAt:    time.Now().Add(-time.Duration(i+1) * time.Hour),
		}))
	}

	c, err := f.service.FileClaim(ctx, "C1", claim.FileClaimInput{
		PolicyID: "POL_1", Description: "House fire", Amount: 12_000_000,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, c.RiskScore)
	high, err := f.service.HighRiskClaims(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, c.ID, high[0].ID)
}

func TestFileClaimRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input claim.FileClaimInput
		kind  error
	}{
		{"missing description", claim.FileClaimInput{PolicyID: "POL_1", Amount: 10}, errs.ErrValidation},
		{"blank description", claim.FileClaimInput{PolicyID: "POL_1", Description: "   ", Amount: 10}, errs.ErrValidation},
		{"zero amount", claim.FileClaimInput{PolicyID: "POL_1", Description: "x"}, errs.ErrValidation},
		{"negative amount", claim.FileClaimInput{PolicyID: "POL_1", Description: "x", Amount: -5}, errs.ErrValidation},
		{"unknown policy", claim.FileClaimInput{PolicyID: "POL_404", Description: "x", Amount: 10}, errs.ErrNotFound},
		{"unlinked policy", claim.FileClaimInput{PolicyID: "POL_2", Description: "x", Amount: 10}, errs.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.FileClaim(ctx, "C1", tt.input)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	claims, err := f.service.ListCustomerClaims(ctx, "C1")
	require.NoError(t, err)
	assert.Empty(t, claims)
	assert.Empty(t, f.queue.Drain())
}

func TestDecideClaimMovesToNextStep(t *testing.T) {
	f := newFixture(t)
	f.addSteps(t, 1, 2)
	ctx := context.Background()

	c, err := f.service.FileClaim(ctx, "C1", claim.FileClaimInput{PolicyID: "POL_1", Description: "Dent", Amount: 800})
	require.NoError(t, err)
	f.queue.Drain()

	require.NoError(t, f.service.DecideClaim(ctx, c.ID, "A1", claim.StatusApproved))

	stored, err := f.service.GetClaim(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusApproved, stored.Status)
	require.NotNil(t, stored.CurrentStepOrder)
	assert.Equal(t, 2, *stored.CurrentStepOrder)
	assert.Equal(t, "Claim approved by admin A1.", stored.StatusLog[len(stored.StatusLog)-1].Entry)
	assert.Equal(t, []string{c.ID}, f.queue.Drain())

	err = f.service.DecideClaim(ctx, c.ID, "A2", claim.StatusDeclined)
	assert.ErrorIs(t, err, errs.ErrConflict, "a decided claim cannot be decided again")
}

func TestDecideClaimOnLastStepFinishesWorkflow(t *testing.T) {
	f := newFixture(t)
	f.addSteps(t, 1)
	ctx := context.Background()

	c, err := f.service.FileClaim(ctx, "C1", claim.FileClaimInput{PolicyID: "POL_1", Description: "Dent", Amount: 800})
	require.NoError(t, err)
	f.queue.Drain()

	require.NoError(t, f.service.DecideClaim(ctx, c.ID, "A1", claim.StatusDeclined))

	stored, err := f.service.GetClaim(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusDeclined, stored.Status)
	assert.Nil(t, stored.CurrentStepOrder)
	assert.Empty(t, f.queue.Drain())
}

func TestDecideClaimRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.service.DecideClaim(ctx, "CLM_1", "A1", "ESCALATED"), errs.ErrValidation)
	assert.ErrorIs(t, f.service.DecideClaim(ctx, "CLM_missing", "A1", claim.StatusApproved), errs.ErrNotFound)
}

func TestOverdueClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Claims().Insert(ctx, claim.Claim{
		ID: "CLM_OLD", PolicyID: "POL_1", CustomerID: "C1", Status: claim.StatusPending,
		Amount: 50, WorkflowID: workflowID, FiledAt: time.Now().UTC().Add(-10 * 24 * time.Hour),
	}))
	require.NoError(t, f.store.Claims().Insert(ctx, claim.Claim{
		ID: "CLM_NEW", PolicyID: "POL_1", CustomerID: "C1", Status: claim.StatusPending,
		Amount: 50, WorkflowID: workflowID, FiledAt: time.Now().UTC().Add(-time.Hour),
	}))

	overdue, err := f.service.OverdueClaims(ctx)
	require.NoError(t, err)

	require.Len(t, overdue, 1)
	assert.Equal(t, "CLM_OLD", overdue[0].ClaimID)
	assert.Equal(t, "Unassigned", overdue[0].AssignedTo)
	assert.Equal(t, "Process Claim CLM_OLD", overdue[0].StepName)
	assert.GreaterOrEqual(t, overdue[0].HoursOverdue, 239)
}
