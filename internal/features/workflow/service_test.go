package workflow_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go-claims/internal/common/errs"
	common_models "go-claims/internal/common/models"
	"go-claims/internal/features/claim"
	"go-claims/internal/features/workflow"
	"go-claims/internal/testutil"
	"go-claims/internal/testutil/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var admin = common_models.Actor{ID: "A1", Kind: common_models.ActorAdmin}

func newService() (workflow.WorkflowService, *memstore.Store, *testutil.Auditor) {
	store := memstore.New()
	auditor := &testutil.Auditor{}
	return workflow.NewWorkflowService(store.Workflows(), store, auditor, zap.NewNop()), store, auditor
}

func TestCreateDefinition(t *testing.T) {
	s, _, auditor := newService()
	ctx := context.Background()

	def, err := s.CreateDefinition(ctx, admin, workflow.DefinitionInput{WorkflowID: "AUTO_V2", Name: " Auto claims "})
	require.NoError(t, err)
	assert.Equal(t, "Auto claims", def.Name)

	_, err = s.CreateDefinition(ctx, admin, workflow.DefinitionInput{WorkflowID: "AUTO_V2", Name: "Again"})
	assert.ErrorIs(t, err, errs.ErrConflict)

	_, err = s.CreateDefinition(ctx, admin, workflow.DefinitionInput{WorkflowID: "auto-v3", Name: "Lower"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = s.CreateDefinition(ctx, admin, workflow.DefinitionInput{WorkflowID: "AUTO_V3"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	assert.Equal(t, []common_models.AuditAction{common_models.AuditActionWorkflowCreated}, auditor.Actions())
}

func TestStepsAreOrderedAndUnique(t *testing.T) {
	s, _, _ := newService()
	ctx := context.Background()
	_, err := s.CreateDefinition(ctx, admin, workflow.DefinitionInput{WorkflowID: "WF", Name: "WF"})
	require.NoError(t, err)

	_, err = s.AddStep(ctx, admin, "WF", workflow.StepInput{StepOrder: 20, StepName: "Review", TaskType: workflow.TaskManual})
	require.NoError(t, err)
	step, err := s.AddStep(ctx, admin, "WF", workflow.StepInput{
		StepOrder: 10, StepName: "Route", TaskType: workflow.TaskRule,
		Configuration: json.RawMessage(`{"ruleName":"assignByAmount","threshold":"5000","targetAdminId":"A7"}`),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(step.ID, "STEP_WF_"))
	assert.JSONEq(t, `{"ruleName":"assignByAmount","threshold":5000,"targetAdminId":"A7"}`, string(step.Configuration))

	_, err = s.AddStep(ctx, admin, "WF", workflow.StepInput{StepOrder: 10, StepName: "Dup", TaskType: workflow.TaskManual})
	assert.ErrorIs(t, err, errs.ErrConflict)

	def, err := s.GetDefinition(ctx, "WF")
	require.NoError(t, err)
	require.Len(t, def.Steps, 2)
	assert.Equal(t, 10, def.Steps[0].Order)
	assert.Equal(t, 20, def.Steps[1].Order)
}

func TestAddStepRejectsBadInput(t *testing.T) {
	s, _, _ := newService()
	ctx := context.Background()
	_, err := s.CreateDefinition(ctx, admin, workflow.DefinitionInput{WorkflowID: "WF", Name: "WF"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input workflow.StepInput
		kind  error
	}{
		{"zero order", workflow.StepInput{StepName: "x", TaskType: workflow.TaskManual}, errs.ErrValidation},
		{"bad task type", workflow.StepInput{StepOrder: 1, StepName: "x", TaskType: "EMAIL"}, errs.ErrValidation},
		{"missing rule config", workflow.StepInput{StepOrder: 1, StepName: "x", TaskType: workflow.TaskRule,
			Configuration: json.RawMessage(`{"ruleName":"reassignClaim"}`)}, errs.ErrValidation},
		{"nested config", workflow.StepInput{StepOrder: 1, StepName: "x", TaskType: workflow.TaskAPI,
			Configuration: json.RawMessage(`{"task":["a"]}`)}, errs.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddStep(ctx, admin, "WF", tt.input)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	_, err = s.AddStep(ctx, admin, "MISSING", workflow.StepInput{StepOrder: 1, StepName: "x", TaskType: workflow.TaskManual})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateAndDeleteStep(t *testing.T) {
	s, _, _ := newService()
	ctx := context.Background()
	_, err := s.CreateDefinition(ctx, admin, workflow.DefinitionInput{WorkflowID: "WF", Name: "WF"})
	require.NoError(t, err)
	first, err := s.AddStep(ctx, admin, "WF", workflow.StepInput{StepOrder: 1, StepName: "One", TaskType: workflow.TaskManual})
	require.NoError(t, err)
	_, err = s.AddStep(ctx, admin, "WF", workflow.StepInput{StepOrder: 2, StepName: "Two", TaskType: workflow.TaskManual})
	require.NoError(t, err)

	err = s.UpdateStep(ctx, admin, "WF", first.ID, workflow.StepInput{StepOrder: 2, StepName: "One", TaskType: workflow.TaskManual})
	assert.ErrorIs(t, err, errs.ErrConflict)

	err = s.UpdateStep(ctx, admin, "WF", first.ID, workflow.StepInput{
		StepOrder: 1, StepName: "Wait", TaskType: workflow.TaskTimer,
		Configuration: json.RawMessage(`{"durationSeconds":90}`),
	})
	require.NoError(t, err)

	steps, err := s.ListSteps(ctx, "WF")
	require.NoError(t, err)
	assert.Equal(t, workflow.TaskTimer, steps[0].TaskType)

	require.NoError(t, s.DeleteStep(ctx, admin, "WF", first.ID))
	assert.ErrorIs(t, s.DeleteStep(ctx, admin, "WF", first.ID), errs.ErrNotFound)
}

func TestDeleteDefinitionInUse(t *testing.T) {
	s, store, _ := newService()
	ctx := context.Background()
	_, err := s.CreateDefinition(ctx, admin, workflow.DefinitionInput{WorkflowID: "WF", Name: "WF"})
	require.NoError(t, err)
	_, err = s.CreateDefinition(ctx, admin, workflow.DefinitionInput{WorkflowID: "IDLE", Name: "Idle"})
	require.NoError(t, err)
	require.NoError(t, store.Claims().Insert(ctx, claim.Claim{ID: "CLM_1", WorkflowID: "WF", Status: claim.StatusPending}))

	assert.ErrorIs(t, s.DeleteDefinition(ctx, admin, "WF"), errs.ErrConflict)
	assert.NoError(t, s.DeleteDefinition(ctx, admin, "IDLE"))
	assert.ErrorIs(t, s.DeleteDefinition(ctx, admin, "IDLE"), errs.ErrNotFound)
}

func TestEnsureDefinitionAndImport(t *testing.T) {
	s, _, _ := newService()
	ctx := context.Background()

	require.NoError(t, s.EnsureDefinition(ctx, "CLAIM_APPROVAL_V1"))
	require.NoError(t, s.EnsureDefinition(ctx, "CLAIM_APPROVAL_V1"))

	seed := workflow.Seed{
		WorkflowID: "CLAIM_APPROVAL_V1",
		Name:       "Claim Approval",
		Steps: []workflow.SeedStep{
			{Order: 1, Name: "Route", TaskType: workflow.TaskRule,
				Configuration: map[string]any{"ruleName": "assignByAmount", "threshold": 100000, "targetAdminId": "A1"}},
			{Order: 2, Name: "Review", TaskType: workflow.TaskManual},
		},
	}
	added, err := s.Import(ctx, admin, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = s.Import(ctx, admin, seed)
	require.NoError(t, err)
	assert.Zero(t, added, "existing steps are left alone")
}
