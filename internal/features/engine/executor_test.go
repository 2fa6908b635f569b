package engine_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go-claims/internal/common/errs"
	"go-claims/internal/config"
	"go-claims/internal/features/claim"
	"go-claims/internal/features/engine"
	"go-claims/internal/features/notification"
	"go-claims/internal/features/scheduler"
	"go-claims/internal/features/workflow"
	"go-claims/internal/testutil"
	"go-claims/internal/testutil/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

const workflowID = "WF_TEST"

type fixture struct {
	t         *testing.T
	store     *memstore.Store
	queue     *testutil.Queue
	notifier  *testutil.Notifier
	rules     *engine.RuleRegistry
	scheduler scheduler.SchedulerService
	executor  engine.Executor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	f := &fixture{
		t:        t,
		store:    store,
		queue:    &testutil.Queue{},
		notifier: &testutil.Notifier{},
		rules:    engine.NewRuleRegistry(),
	}

	cfg := &config.Config{TimerPollSchedule: "@every 1h", TimerBatchSize: 10}
	s, err := scheduler.NewSchedulerService(fxtest.NewLifecycle(t), store.Timers(), store.Claims(), store, f.queue, nil, cfg, zap.NewNop())
	require.NoError(t, err)
	f.scheduler = s

	es := engine.NewStore(store, store.Claims(), store.Workflows(), s)
	f.executor = engine.NewExecutor(es, f.rules, f.queue, f.notifier, nil, zap.NewNop())

	require.NoError(t, store.Workflows().Create(context.Background(), workflow.Definition{ID: workflowID, Name: "Test"}))
	return f
}

func (f *fixture) step(order int, taskType workflow.TaskType, cfg string) {
	f.t.Helper()
	var blob []byte
	if cfg != "" {
		blob = []byte(cfg)
	}
	require.NoError(f.t, f.store.Workflows().CreateStep(context.Background(), workflow.Step{
		ID:            fmt.Sprintf("STEP_%d", order),
		WorkflowID:    workflowID,
		Order:         order,
		Name:          fmt.Sprintf("Step %d", order),
		TaskType:      taskType,
		Configuration: blob,
	}))
}

func (f *fixture) claim(id string, amount float64, riskScore int) {
	f.t.Helper()
	ctx := context.Background()
	first, err := f.store.Workflows().FirstStepOrder(ctx, workflowID)
	require.NoError(f.t, err)
	require.NoError(f.t, f.store.Claims().Insert(ctx, claim.Claim{
		ID:               id,
		PolicyID:         "POL_1",
		CustomerID:       "C1",
		Description:      "test",
		FiledAt:          time.Now().UTC(),
		Status:           claim.StatusPending,
		Amount:           amount,
		RiskScore:        riskScore,
		WorkflowID:       workflowID,
		CurrentStepOrder: first,
	}))
}

func (f *fixture) get(id string) *claim.Claim {
	f.t.Helper()
	c, err := f.store.Claims().Get(context.Background(), id)
	require.NoError(f.t, err)
	require.NotNil(f.t, c)
	return c
}

func (f *fixture) log(id string) []string {
	f.t.Helper()
	entries, err := f.store.Claims().StatusLog(context.Background(), id)
	require.NoError(f.t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Entry)
	}
	return out
}

// drain runs queued advances until the queue is empty, like the worker pool.
func (f *fixture) drain() {
	f.t.Helper()
	for i := 0; i < 20; i++ {
		ids := f.queue.Drain()
		if len(ids) == 0 {
			return
		}
		for _, id := range ids {
			_ = f.executor.Advance(context.Background(), id)
		}
	}
	f.t.Fatal("workflow did not settle")
}

func intp(v int) *int { return &v }

func TestSmallClaimIsRoutedThenWaitsForAdjuster(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskRule, `{"ruleName":"assignByAmount","threshold":100000,"targetAdminId":"A1"}`)
	f.step(2, workflow.TaskManual, `{"assignedRole":"Claims Adjuster"}`)
	f.claim("CLM_1", 5000, 1)

	require.NoError(t, f.executor.Advance(context.Background(), "CLM_1"))

	c := f.get("CLM_1")
	assert.Equal(t, "A1", c.AdminID)
	assert.Equal(t, intp(2), c.CurrentStepOrder)
	assert.Equal(t, []string{"Claim assigned to admin A1 by workflow rule."}, f.log("CLM_1"))

	f.drain()

	c = f.get("CLM_1")
	assert.Equal(t, intp(2), c.CurrentStepOrder, "manual step waits")
	assert.Equal(t, claim.StatusPending, c.Status)
}

func TestLargeClaimIsNotRouted(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskRule, `{"ruleName":"assignByAmount","threshold":100000,"targetAdminId":"A1"}`)
	f.step(2, workflow.TaskManual, "")
	f.claim("CLM_1", 100000, 5)

	require.NoError(t, f.executor.Advance(context.Background(), "CLM_1"))

	c := f.get("CLM_1")
	assert.Empty(t, c.AdminID)
	assert.Equal(t, intp(2), c.CurrentStepOrder)
	assert.Empty(t, f.log("CLM_1"))
}

func TestAdvanceIsIdempotentOnManualStep(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskManual, "")
	f.claim("CLM_1", 10, 1)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, f.executor.Advance(ctx, "CLM_1"))
	}

	assert.Equal(t, intp(1), f.get("CLM_1").CurrentStepOrder)
	assert.Empty(t, f.log("CLM_1"))
	assert.Empty(t, f.queue.Drain())
}

func TestDecisionResumesIntoNotificationStep(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskManual, "")
	f.step(2, workflow.TaskAPI, `{"task":"sendNotification","template":"claimStatus"}`)
	f.claim("CLM_1", 10, 1)
	ctx := context.Background()

	// What DecideClaim commits for an approval on step 1.
	require.NoError(t, f.store.Claims().SetStatus(ctx, "CLM_1", claim.StatusApproved))
	require.NoError(t, f.store.Claims().SetStepOrder(ctx, "CLM_1", intp(2)))

	require.NoError(t, f.executor.Advance(ctx, "CLM_1"))

	assert.Nil(t, f.get("CLM_1").CurrentStepOrder)
	require.Len(t, f.notifier.Sent, 1)
	sent := f.notifier.Sent[0]
	assert.Equal(t, "C1", sent.CustomerID)
	assert.Equal(t, notification.TypeWorkflow, sent.Type)
	assert.Contains(t, sent.Message, "APPROVED")
}

func TestTimerDefersThenResumes(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskTimer, `{"durationSeconds":30}`)
	f.step(2, workflow.TaskRule, `{"ruleName":"autoApproveSimple"}`)
	f.claim("CLM_1", 10, 1)
	ctx := context.Background()

	require.NoError(t, f.executor.Advance(ctx, "CLM_1"))
	require.NoError(t, f.executor.Advance(ctx, "CLM_1"))

	assert.Equal(t, intp(1), f.get("CLM_1").CurrentStepOrder)
	assert.Empty(t, f.queue.Drain())
	timers, err := f.scheduler.ListForClaim(ctx, "CLM_1")
	require.NoError(t, err)
	require.Len(t, timers, 1, "re-running a timer step keeps one timer")
	assert.Equal(t, intp(2), timers[0].NextStepOrder)
	assert.WithinDuration(t, timers[0].CreatedAt.Add(30*time.Second), timers[0].DueAt, time.Second)

	f.store.Timers().Due()
	fired, err := f.scheduler.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	f.drain()

	c := f.get("CLM_1")
	assert.Equal(t, claim.StatusApproved, c.Status)
	assert.Nil(t, c.CurrentStepOrder)
	assert.Equal(t, []string{"Claim auto-approved by workflow rule."}, f.log("CLM_1"))
	require.Len(t, f.notifier.Sent, 1)
}

func TestTimerGoesStaleWhenClaimMoves(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskTimer, `{"durationSeconds":30}`)
	f.step(2, workflow.TaskManual, "")
	f.step(3, workflow.TaskManual, "")
	f.claim("CLM_1", 10, 1)
	ctx := context.Background()

	require.NoError(t, f.executor.Advance(ctx, "CLM_1"))
	require.NoError(t, f.store.Claims().SetStepOrder(ctx, "CLM_1", intp(3)))

	f.store.Timers().Due()
	fired, err := f.scheduler.Poll(ctx)
	require.NoError(t, err)

	assert.Zero(t, fired)
	assert.Equal(t, intp(3), f.get("CLM_1").CurrentStepOrder)
	assert.Empty(t, f.queue.Drain())
}

func TestMissingRuleConfigHaltsWorkflow(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskRule, `{"ruleName":"assignByAmount","targetAdminId":"A1"}`)
	f.step(2, workflow.TaskManual, "")
	f.claim("CLM_1", 10, 1)

	err := f.executor.Advance(context.Background(), "CLM_1")

	assert.ErrorIs(t, err, errs.ErrConfiguration)
	c := f.get("CLM_1")
	assert.Nil(t, c.CurrentStepOrder)
	assert.Empty(t, c.AdminID)
	assert.Equal(t, []string{
		"Workflow Engine CRITICAL Error: Missing threshold or targetAdminId in assignByAmount rule config.",
	}, f.log("CLM_1"))
	assert.Empty(t, f.queue.Drain())
}

func TestFailedStepRollsBackItsWrites(t *testing.T) {
	f := newFixture(t)
	f.rules.Register("explode", func(ctx context.Context, run *engine.Run) (engine.Verdict, error) {
		if err := run.Store.SetStatus(ctx, run.Claim.ID, claim.StatusApproved); err != nil {
			return engine.Proceed, err
		}
		if err := run.Store.AppendLog(ctx, run.Claim.ID, "approved by explode"); err != nil {
			return engine.Proceed, err
		}
		return engine.Proceed, errors.New("downstream unavailable")
	})
	f.step(1, workflow.TaskRule, `{"ruleName":"explode"}`)
	f.claim("CLM_1", 10, 1)

	err := f.executor.Advance(context.Background(), "CLM_1")

	require.Error(t, err)
	c := f.get("CLM_1")
	assert.Equal(t, claim.StatusPending, c.Status)
	assert.Nil(t, c.CurrentStepOrder)
	require.Len(t, f.log("CLM_1"), 1)
	assert.Contains(t, f.log("CLM_1")[0], "Workflow Engine CRITICAL Error:")
}

func TestUnknownTaskTypeStopsWorkflow(t *testing.T) {
	f := newFixture(t)
	f.step(1, "EMAIL", "")
	f.step(2, workflow.TaskManual, "")
	f.claim("CLM_1", 10, 1)

	require.NoError(t, f.executor.Advance(context.Background(), "CLM_1"))

	assert.Nil(t, f.get("CLM_1").CurrentStepOrder)
	assert.Equal(t, []string{"Workflow Error: Unknown task type 'EMAIL' at step 1."}, f.log("CLM_1"))
}

func TestUnknownRuleAndTaskAreSkipped(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskRule, `{"ruleName":"notARule"}`)
	f.step(2, workflow.TaskAPI, `{"task":"notATask"}`)
	f.step(3, workflow.TaskManual, "")
	f.claim("CLM_1", 10, 1)

	require.NoError(t, f.executor.Advance(context.Background(), "CLM_1"))
	f.drain()

	assert.Equal(t, intp(3), f.get("CLM_1").CurrentStepOrder)
	assert.Empty(t, f.log("CLM_1"))
}

func TestCheckStatusHaltsOnMismatch(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskRule, `{"ruleName":"checkStatus","expectedStatus":"APPROVED"}`)
	f.step(2, workflow.TaskRule, `{"ruleName":"autoApproveSimple"}`)
	f.claim("CLM_1", 10, 1)

	require.NoError(t, f.executor.Advance(context.Background(), "CLM_1"))

	c := f.get("CLM_1")
	assert.Nil(t, c.CurrentStepOrder)
	assert.Equal(t, claim.StatusPending, c.Status)
	assert.Empty(t, f.log("CLM_1"))
	assert.Empty(t, f.queue.Drain())
}

func TestReassignClaimEscalates(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskRule, `{"ruleName":"reassignClaim","targetAdminId":"SUP1"}`)
	f.claim("CLM_1", 10, 1)

	require.NoError(t, f.executor.Advance(context.Background(), "CLM_1"))

	c := f.get("CLM_1")
	assert.Equal(t, "SUP1", c.AdminID)
	assert.Nil(t, c.CurrentStepOrder)
	assert.Equal(t, []string{"Claim escalated and reassigned."}, f.log("CLM_1"))
	require.Len(t, f.notifier.Sent, 1)
}

func TestEvaluateScript(t *testing.T) {
	script := `pass = amount < 1000
if risk_score > 5 { assign_to = "A9" }`

	t.Run("halts and assigns", func(t *testing.T) {
		f := newFixture(t)
		f.step(1, workflow.TaskRule, fmt.Sprintf(`{"ruleName":"evaluateScript","script":%q}`, script))
		f.step(2, workflow.TaskManual, "")
		f.claim("CLM_1", 5000, 8)

		require.NoError(t, f.executor.Advance(context.Background(), "CLM_1"))

		c := f.get("CLM_1")
		assert.Equal(t, "A9", c.AdminID)
		assert.Nil(t, c.CurrentStepOrder)
		assert.Equal(t, []string{"Claim assigned to admin A9 by script rule."}, f.log("CLM_1"))
	})

	t.Run("passes", func(t *testing.T) {
		f := newFixture(t)
		f.step(1, workflow.TaskRule, fmt.Sprintf(`{"ruleName":"evaluateScript","script":%q}`, script))
		f.step(2, workflow.TaskManual, "")
		f.claim("CLM_1", 500, 1)

		require.NoError(t, f.executor.Advance(context.Background(), "CLM_1"))

		c := f.get("CLM_1")
		assert.Empty(t, c.AdminID)
		assert.Equal(t, intp(2), c.CurrentStepOrder)
	})
}

func TestAdvanceWithoutCurrentStep(t *testing.T) {
	f := newFixture(t)
	f.claim("CLM_1", 10, 1)

	require.NoError(t, f.executor.Advance(context.Background(), "CLM_1"))
	assert.Nil(t, f.get("CLM_1").CurrentStepOrder)

	err := f.executor.Advance(context.Background(), "CLM_missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestStepOrderWithoutStepCompletes(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskManual, "")
	f.claim("CLM_1", 10, 1)
	require.NoError(t, f.store.Claims().SetStepOrder(context.Background(), "CLM_1", intp(7)))

	require.NoError(t, f.executor.Advance(context.Background(), "CLM_1"))

	assert.Nil(t, f.get("CLM_1").CurrentStepOrder)
}

func TestRecoverQueuesInFlightClaims(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskManual, "")
	f.claim("CLM_A", 10, 1)
	f.claim("CLM_B", 10, 1)
	require.NoError(t, f.store.Claims().SetStepOrder(context.Background(), "CLM_B", nil))

	n, err := f.executor.Recover(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"CLM_A"}, f.queue.Drain())
}

func TestAssignByAmountNeedsTargetWhateverTheAmount(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskRule, `{"ruleName":"assignByAmount","threshold":100}`)
	f.step(2, workflow.TaskManual, "")
	f.claim("CLM_1", 5000, 1)

	err := f.executor.Advance(context.Background(), "CLM_1")

	assert.ErrorIs(t, err, errs.ErrConfiguration, "an incomplete step fails even when no assignment is due")
	assert.Nil(t, f.get("CLM_1").CurrentStepOrder)
}

func TestCancelledAdvanceLeavesClaimAtStep(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskRule, `{"ruleName":"evaluateScript","script":"pass = true"}`)
	f.step(2, workflow.TaskManual, "")
	f.claim("CLM_1", 500, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.executor.Advance(ctx, "CLM_1")

	require.Error(t, err)
	assert.Equal(t, intp(1), f.get("CLM_1").CurrentStepOrder, "an interrupted step stays retryable")
	assert.Empty(t, f.log("CLM_1"))
	assert.Empty(t, f.queue.Drain())

	n, err := f.executor.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, f.executor.Advance(context.Background(), "CLM_1"))
	assert.Equal(t, intp(2), f.get("CLM_1").CurrentStepOrder)
}

func TestConcurrentAdvanceRunsStepOnce(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskRule, `{"ruleName":"reassignClaim","targetAdminId":"SUP1"}`)
	f.step(2, workflow.TaskManual, "")
	f.claim("CLM_1", 10, 1)

	const workers = 16
	var wg sync.WaitGroup
	errc := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errc <- f.executor.Advance(context.Background(), "CLM_1")
		}()
	}
	wg.Wait()
	close(errc)

	for err := range errc {
		assert.NoError(t, err)
	}
	c := f.get("CLM_1")
	assert.Equal(t, "SUP1", c.AdminID)
	assert.Equal(t, intp(2), c.CurrentStepOrder)
	assert.Equal(t, []string{"Claim escalated and reassigned."}, f.log("CLM_1"))
	assert.Equal(t, []string{"CLM_1"}, f.queue.Drain())
	assert.Len(t, f.notifier.Messages(), 1)
}

func TestConcurrentTimerStepSchedulesOnce(t *testing.T) {
	f := newFixture(t)
	f.step(1, workflow.TaskTimer, `{"durationSeconds":30}`)
	f.step(2, workflow.TaskManual, "")
	f.claim("CLM_1", 10, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.executor.Advance(context.Background(), "CLM_1"))
		}()
	}
	wg.Wait()

	timers, err := f.scheduler.ListForClaim(context.Background(), "CLM_1")
	require.NoError(t, err)
	assert.Len(t, timers, 1)
	assert.Equal(t, intp(1), f.get("CLM_1").CurrentStepOrder)
}
