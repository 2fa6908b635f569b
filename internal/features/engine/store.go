package engine

import (
	"context"
	"time"

	"go-claims/internal/database"
	"go-claims/internal/features/claim"
	"go-claims/internal/features/scheduler"
	"go-claims/internal/features/workflow"
)

// Store is the unit of work the executor runs a step against. Every method
// other than RunInTx joins the transaction carried by ctx.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	LockClaim(ctx context.Context, claimID string) (*claim.Claim, error)
	GetStep(ctx context.Context, workflowID string, order int) (*workflow.Step, error)
	NextStepOrder(ctx context.Context, workflowID string, after int) (*int, error)

	SetStepOrder(ctx context.Context, claimID string, step *int) error
	AssignAdmin(ctx context.Context, claimID, adminID string) error
	SetStatus(ctx context.Context, claimID string, status claim.Status) error
	AppendLog(ctx context.Context, claimID, entry string) error
	ScheduleTimer(ctx context.Context, claimID string, expected int, next *int, delay time.Duration) error

	InFlight(ctx context.Context) ([]string, error)
}

type repositoryStore struct {
	tx        database.Transactor
	claims    claim.ClaimRepository
	workflows workflow.WorkflowRepository
	timers    scheduler.SchedulerService
}

func NewStore(tx database.Transactor, claims claim.ClaimRepository, workflows workflow.WorkflowRepository, timers scheduler.SchedulerService) Store {
	return &repositoryStore{
		tx:        tx,
		claims:    claims,
		workflows: workflows,
		timers:    timers,
	}
}

func (s *repositoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.tx.RunInTx(ctx, fn)
}

func (s *repositoryStore) LockClaim(ctx context.Context, claimID string) (*claim.Claim, error) {
	return s.claims.Lock(ctx, claimID)
}

func (s *repositoryStore) GetStep(ctx context.Context, workflowID string, order int) (*workflow.Step, error) {
	return s.workflows.GetStep(ctx, workflowID, order)
}

func (s *repositoryStore) NextStepOrder(ctx context.Context, workflowID string, after int) (*int, error) {
	return s.workflows.NextStepOrder(ctx, workflowID, after)
}

func (s *repositoryStore) SetStepOrder(ctx context.Context, claimID string, step *int) error {
	return s.claims.SetStepOrder(ctx, claimID, step)
}

func (s *repositoryStore) AssignAdmin(ctx context.Context, claimID, adminID string) error {
	return s.claims.SetAdmin(ctx, claimID, adminID)
}

func (s *repositoryStore) SetStatus(ctx context.Context, claimID string, status claim.Status) error {
	return s.claims.SetStatus(ctx, claimID, status)
}

func (s *repositoryStore) AppendLog(ctx context.Context, claimID, entry string) error {
	return s.claims.AppendLog(ctx, claimID, entry)
}

func (s *repositoryStore) ScheduleTimer(ctx context.Context, claimID string, expected int, next *int, delay time.Duration) error {
	return s.timers.Schedule(ctx, claimID, expected, next, delay)
}

func (s *repositoryStore) InFlight(ctx context.Context) ([]string, error) {
	return s.claims.ListInFlight(ctx)
}
