package scheduler

import (
	"context"
	"fmt"
	"time"

	"go-claims/internal/config"
	"go-claims/internal/database"
	"go-claims/internal/features/claim"
	"go-claims/internal/metrics"
	"go-claims/internal/queue"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type SchedulerService interface {
	// Schedule records a resume for claimID at delay from now. When called
	// with a transaction in ctx the timer commits with it. Scheduling the
	// same claim and step twice keeps the first timer.
	Schedule(ctx context.Context, claimID string, expectedStep int, nextStep *int, delay time.Duration) error
	// Poll resolves due timers: each moves its claim from the expected step
	// to the next one only if the claim has not moved since. It returns how
	// many timers fired.
	Poll(ctx context.Context) (int, error)
	ListForClaim(ctx context.Context, claimID string) ([]Timer, error)
}

type SchedulerServiceImpl struct {
	Repo    TimerRepository
	Claims  claim.ClaimRepository
	Tx      database.Transactor
	Queue   queue.Enqueuer
	Metrics *metrics.Metrics
	logger  *zap.Logger
	batch   int
	now     func() time.Time

	cron *cron.Cron
}

func NewSchedulerService(
	lc fx.Lifecycle,
	repo TimerRepository,
	claims claim.ClaimRepository,
	tx database.Transactor,
	q queue.Enqueuer,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) (SchedulerService, error) {
	s := newSchedulerService(repo, claims, tx, q, m, cfg.TimerBatchSize, logger)

	if err := s.InitializeScheduler(cfg.TimerPollSchedule); err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.cron.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.StopScheduler(ctx)
			return nil
		},
	})
	return s, nil
}

func newSchedulerService(repo TimerRepository, claims claim.ClaimRepository, tx database.Transactor, q queue.Enqueuer, m *metrics.Metrics, batch int, logger *zap.Logger) *SchedulerServiceImpl {
	if batch < 1 {
		batch = 1
	}
	return &SchedulerServiceImpl{
		Repo:    repo,
		Claims:  claims,
		Tx:      tx,
		Queue:   q,
		Metrics: m,
		logger:  logger,
		batch:   batch,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// InitializeScheduler registers the poll job. An overrunning poll makes the
// next tick skip rather than overlap.
func (s *SchedulerServiceImpl) InitializeScheduler(schedule string) error {
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.Poll(context.Background()); err != nil {
			s.logger.Error("Timer poll failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid timer poll schedule %q: %w", schedule, err)
	}
	return nil
}

func (s *SchedulerServiceImpl) StopScheduler(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *SchedulerServiceImpl) Schedule(ctx context.Context, claimID string, expectedStep int, nextStep *int, delay time.Duration) error {
	now := s.now()
	t := Timer{
		ID:                "TMR_" + uuid.NewString(),
		ClaimID:           claimID,
		ExpectedStepOrder: expectedStep,
		NextStepOrder:     nextStep,
		DueAt:             now.Add(delay),
		Status:            TimerPending,
		CreatedAt:         now,
	}

	created, err := s.Repo.InsertIfAbsent(ctx, t)
	if err != nil {
		return err
	}
	if !created {
		s.logger.Debug("Timer already scheduled", zap.String("claimId", claimID), zap.Int("step", expectedStep))
	}
	return nil
}

func (s *SchedulerServiceImpl) Poll(ctx context.Context) (int, error) {
	var resume []string
	fired, stale := 0, 0

	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		resume, fired, stale = nil, 0, 0

		due, err := s.Repo.ClaimDue(ctx, s.now(), s.batch)
		if err != nil {
			return err
		}

		for _, t := range due {
			moved, err := s.Claims.CompareAndSetStep(ctx, t.ClaimID, t.ExpectedStepOrder, t.NextStepOrder)
			if err != nil {
				return err
			}

			status := TimerStale
			if moved {
				status = TimerFired
				fired++
				if t.NextStepOrder != nil {
					resume = append(resume, t.ClaimID)
				}
			} else {
				stale++
			}
			if err := s.Repo.Resolve(ctx, t.ID, status, s.now()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for i := 0; i < fired; i++ {
		s.Metrics.TimerResolved(string(TimerFired))
	}
	for i := 0; i < stale; i++ {
		s.Metrics.TimerResolved(string(TimerStale))
	}
	if fired+stale > 0 {
		s.logger.Info("Timers resolved", zap.Int("fired", fired), zap.Int("stale", stale))
	}

	for _, claimID := range resume {
		s.Queue.Enqueue(claimID)
	}
	return fired, nil
}

func (s *SchedulerServiceImpl) ListForClaim(ctx context.Context, claimID string) ([]Timer, error) {
	return s.Repo.ListByClaim(ctx, claimID)
}
