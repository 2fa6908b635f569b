package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-claims/internal/common/errs"
	"go-claims/internal/features/claim"
	"go-claims/internal/features/notification"
	"go-claims/internal/features/workflow"
	"go-claims/internal/metrics"
	"go-claims/internal/queue"

	"go.uber.org/zap"
)

type Executor interface {
	// Advance runs the claim's current workflow step under a row lock on the
	// claim. Calling it again once the step has moved on runs the new step or
	// does nothing; an old step never runs twice.
	Advance(ctx context.Context, claimID string) error
	// Recover queues every claim that still has a current step.
	Recover(ctx context.Context) (int, error)
}

type stepOutcome string

const (
	outcomeNoop        stepOutcome = "noop"
	outcomeCompleted   stepOutcome = "completed"
	outcomeAdvanced    stepOutcome = "advanced"
	outcomePaused      stepOutcome = "paused"
	outcomeDeferred    stepOutcome = "deferred"
	outcomeHalted      stepOutcome = "halted"
	outcomeError       stepOutcome = "error"
	outcomeFailed      stepOutcome = "failed"
	outcomeInterrupted stepOutcome = "interrupted"
)

type stepResult struct {
	outcome  stepOutcome
	taskType workflow.TaskType
	next     *int
	claim    claim.Claim
	notices  []string
}

func (r stepResult) label() string {
	if r.taskType == "" {
		return "none"
	}
	return string(r.taskType)
}

type ExecutorImpl struct {
	Store               Store
	Rules               *RuleRegistry
	Queue               queue.Enqueuer
	NotificationService notification.NotificationService
	Metrics             *metrics.Metrics
	tasks               map[string]APITask
	logger              *zap.Logger
}

func NewExecutor(store Store, rules *RuleRegistry, q queue.Enqueuer, notificationService notification.NotificationService, m *metrics.Metrics, logger *zap.Logger) Executor {
	return newExecutor(store, rules, q, notificationService, m, logger)
}

func newExecutor(store Store, rules *RuleRegistry, q queue.Enqueuer, notificationService notification.NotificationService, m *metrics.Metrics, logger *zap.Logger) *ExecutorImpl {
	return &ExecutorImpl{
		Store:               store,
		Rules:               rules,
		Queue:               q,
		NotificationService: notificationService,
		Metrics:             m,
		tasks:               defaultTasks(),
		logger:              logger,
	}
}

// RegisterTask adds or replaces the handler for an API task name.
func (e *ExecutorImpl) RegisterTask(name string, task APITask) {
	e.tasks[name] = task
}

func (e *ExecutorImpl) Advance(ctx context.Context, claimID string) error {
	start := time.Now()
	log := e.logger.With(zap.String("claimId", claimID))

	var res stepResult
	err := e.Store.RunInTx(ctx, func(ctx context.Context) error {
		res = stepResult{}
		return e.step(ctx, claimID, &res)
	})
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			log.Warn("Claim not found during workflow execution")
			return err
		}
		if interrupted(ctx, err) {
			log.Warn("Workflow step interrupted, claim left at its step", zap.Error(err))
			e.Metrics.StepExecuted(res.label(), string(outcomeInterrupted), time.Since(start).Seconds())
			return err
		}
		log.Error("Workflow step failed, halting workflow", zap.Error(err))
		e.Metrics.StepExecuted(res.label(), string(outcomeFailed), time.Since(start).Seconds())
		e.markHalted(ctx, claimID, err)
		return err
	}

	e.Metrics.StepExecuted(res.label(), string(res.outcome), time.Since(start).Seconds())

	switch res.outcome {
	case outcomeAdvanced:
		if res.next != nil {
			log.Debug("Advancing workflow", zap.Int("nextStep", *res.next))
			e.Queue.Enqueue(claimID)
		} else {
			log.Info("Workflow finished")
		}
	case outcomeCompleted:
		log.Info("Workflow completed, no step at current order")
	case outcomeHalted:
		log.Info("Workflow branch halted")
	}

	for _, template := range res.notices {
		e.NotificationService.Notify(ctx, notification.Notification{
			CustomerID: res.claim.CustomerID,
			Type:       notification.TypeWorkflow,
			EntityID:   claimID,
			Message: notification.Render(template, notification.MessageData{
				ClaimID:    claimID,
				PolicyID:   res.claim.PolicyID,
				CustomerID: res.claim.CustomerID,
				Amount:     res.claim.Amount,
				Status:     string(res.claim.Status),
			}),
		})
	}
	return nil
}

// step executes one workflow step inside the caller's transaction.
func (e *ExecutorImpl) step(ctx context.Context, claimID string, res *stepResult) error {
	c, err := e.Store.LockClaim(ctx, claimID)
	if err != nil {
		return err
	}
	if c == nil {
		return errs.NotFound(fmt.Sprintf("Claim %s not found.", claimID))
	}
	if c.WorkflowID == "" || c.CurrentStepOrder == nil {
		res.outcome = outcomeNoop
		return nil
	}
	current := *c.CurrentStepOrder

	step, err := e.Store.GetStep(ctx, c.WorkflowID, current)
	if err != nil {
		return err
	}
	if step == nil {
		res.outcome = outcomeCompleted
		return e.Store.SetStepOrder(ctx, claimID, nil)
	}
	res.taskType = step.TaskType

	if !step.TaskType.Valid() {
		res.outcome = outcomeError
		if err := e.Store.SetStepOrder(ctx, claimID, nil); err != nil {
			return err
		}
		return e.Store.AppendLog(ctx, claimID,
			fmt.Sprintf("Workflow Error: Unknown task type '%s' at step %d.", step.TaskType, current))
	}

	cfg, err := workflow.ParseStepConfig(step.TaskType, step.Configuration)
	if err != nil {
		return err
	}

	next, err := e.Store.NextStepOrder(ctx, c.WorkflowID, current)
	if err != nil {
		return err
	}

	run := &Run{Claim: c, Step: *step, Store: e.Store}
	log := e.logger.With(zap.String("claimId", claimID), zap.Int("step", current), zap.String("taskType", string(step.TaskType)))

	switch cfg := cfg.(type) {
	case workflow.RuleConfig:
		run.Config = cfg
		rule, ok := e.Rules.Lookup(cfg.RuleName)
		if !ok {
			log.Warn("Unknown rule name, treating as completed", zap.String("rule", cfg.RuleName))
			break
		}
		verdict, err := rule(ctx, run)
		if err != nil {
			return err
		}
		if verdict == Halt {
			res.outcome = outcomeHalted
			if err := e.Store.SetStepOrder(ctx, claimID, nil); err != nil {
				return err
			}
		}

	case workflow.ManualConfig:
		assignee := c.AdminID
		if assignee == "" {
			assignee = cfg.AssignedRole
		}
		log.Info("Waiting for manual action", zap.String("assignee", assignee))
		res.outcome = outcomePaused

	case workflow.TimerConfig:
		delay := time.Duration(cfg.Duration()) * time.Second
		if err := e.Store.ScheduleTimer(ctx, claimID, current, next, delay); err != nil {
			return err
		}
		log.Info("Timer scheduled", zap.Duration("delay", delay))
		res.outcome = outcomeDeferred

	case workflow.APIConfig:
		task, ok := e.tasks[cfg.Task]
		if !ok {
			log.Warn("Unknown API task, treating as completed", zap.String("task", cfg.Task))
			break
		}
		if err := task(ctx, run, cfg); err != nil {
			return err
		}
	}

	res.claim = *c
	res.notices = run.notices
	if res.outcome != "" {
		return nil
	}

	res.outcome = outcomeAdvanced
	res.next = next
	return e.Store.SetStepOrder(ctx, claimID, next)
}

// interrupted reports whether the step stopped because its context ended.
// The transaction rolled back, so the claim is still at its step and a later
// Advance or Recover picks it up again.
func interrupted(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil
}

// markHalted records the failure in a fresh transaction, since the step's
// own transaction was rolled back. The claim is left for manual attention.
func (e *ExecutorImpl) markHalted(ctx context.Context, claimID string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	err := e.Store.RunInTx(ctx, func(ctx context.Context) error {
		if err := e.Store.SetStepOrder(ctx, claimID, nil); err != nil {
			return err
		}
		return e.Store.AppendLog(ctx, claimID, "Workflow Engine CRITICAL Error: "+errs.Message(cause, cause.Error()))
	})
	if err != nil {
		e.logger.Error("Failed to mark workflow halted",
			zap.String("claimId", claimID), zap.NamedError("cause", cause), zap.Error(err))
	}
}

func (e *ExecutorImpl) Recover(ctx context.Context) (int, error) {
	ids, err := e.Store.InFlight(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		e.Queue.Enqueue(id)
	}
	if len(ids) > 0 {
		e.logger.Info("Re-queued in-flight claims", zap.Int("count", len(ids)))
	}
	return len(ids), nil
}
