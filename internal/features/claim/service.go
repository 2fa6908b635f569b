package claim

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go-claims/internal/common/errs"
	common_models "go-claims/internal/common/models"
	"go-claims/internal/config"
	"go-claims/internal/database"
	"go-claims/internal/features/audit"
	"go-claims/internal/features/notification"
	"go-claims/internal/features/policy"
	"go-claims/internal/features/workflow"
	"go-claims/internal/metrics"
	"go-claims/internal/queue"
	"go-claims/pkg/risk"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const firstStepFallback = 1

type ClaimService interface {
	// FileClaim validates and inserts a PENDING claim at the first step of the
	// default workflow, then hands the claim to the engine.
	FileClaim(ctx context.Context, customerID string, input FileClaimInput) (*Claim, error)
	// DecideClaim records an admin decision on a PENDING claim and moves it to
	// the next workflow step in the same transaction.
	DecideClaim(ctx context.Context, claimID, adminID string, decision Status) error

	GetClaim(ctx context.Context, id string) (*Claim, error)
	ListCustomerClaims(ctx context.Context, customerID string) ([]Claim, error)
	ListPendingClaims(ctx context.Context) ([]Claim, error)
	ListAssignedClaims(ctx context.Context, adminID string) ([]Claim, error)
	// HighRiskClaims lists every high-risk claim when customerID is empty.
	HighRiskClaims(ctx context.Context, customerID string) ([]Claim, error)
	OverdueClaims(ctx context.Context) ([]OverdueClaim, error)
	WorkflowMetrics(ctx context.Context, customerID string) ([]WorkflowMetric, error)
}

type ClaimServiceImpl struct {
	Repo                ClaimRepository
	Policies            policy.PolicyRepository
	Workflows           workflow.WorkflowRepository
	WorkflowService     workflow.WorkflowService
	Tx                  database.Transactor
	AuditService        audit.AuditService
	NotificationService notification.NotificationService
	Queue               queue.Enqueuer
	Metrics             *metrics.Metrics
	config              *config.Config
	logger              *zap.Logger
	now                 func() time.Time
}

func NewClaimService(
	repo ClaimRepository,
	policies policy.PolicyRepository,
	workflows workflow.WorkflowRepository,
	workflowService workflow.WorkflowService,
	tx database.Transactor,
	auditService audit.AuditService,
	notificationService notification.NotificationService,
	q queue.Enqueuer,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) ClaimService {
	return &ClaimServiceImpl{
		Repo:                repo,
		Policies:            policies,
		Workflows:           workflows,
		WorkflowService:     workflowService,
		Tx:                  tx,
		AuditService:        auditService,
		NotificationService: notificationService,
		Queue:               q,
		Metrics:             m,
		config:              cfg,
		logger:              logger,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

func (s *ClaimServiceImpl) FileClaim(ctx context.Context, customerID string, input FileClaimInput) (*Claim, error) {
	description := strings.TrimSpace(input.Description)
	if input.PolicyID == "" || description == "" || input.Amount == 0 {
		return nil, errs.Validation("Policy ID, description, and amount are required.")
	}
	if math.IsNaN(input.Amount) || math.IsInf(input.Amount, 0) || input.Amount <= 0 {
		return nil, errs.Validation("Invalid claim amount.")
	}

	workflowID := s.config.DefaultWorkflowID
	// Runs outside the filing transaction: a failure here must not abort it.
	if err := s.WorkflowService.EnsureDefinition(ctx, workflowID); err != nil {
		s.logger.Warn("Could not verify default workflow", zap.String("workflowId", workflowID), zap.Error(err))
	}

	c := Claim{
		ID:          "CLM_" + uuid.NewString(),
		PolicyID:    input.PolicyID,
		CustomerID:  customerID,
		Description: description,
		FiledAt:     s.now(),
		Status:      StatusPending,
		Amount:      input.Amount,
		WorkflowID:  workflowID,
	}

	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.Policies.Get(ctx, input.PolicyID)
		if err != nil {
			return err
		}
		if p == nil {
			return errs.NotFound(fmt.Sprintf("Policy %s not found in system.", input.PolicyID))
		}
		linked, err := s.Policies.IsLinked(ctx, customerID, input.PolicyID)
		if err != nil {
			return err
		}
		if !linked {
			return errs.Forbidden(fmt.Sprintf("Policy %s is not linked to your account.", input.PolicyID))
		}

		history, err := s.Repo.History(ctx, customerID)
		if err != nil {
			return err
		}
		c.RiskScore = risk.Score(c.Amount, history.ClaimCount, history.DeclinedCount)

		first, err := s.Workflows.FirstStepOrder(ctx, workflowID)
		if err != nil {
			return err
		}
		if first == nil {
			n := firstStepFallback
			first = &n
		}
		c.CurrentStepOrder = first

		if err := s.Repo.Insert(ctx, c); err != nil {
			if database.IsUniqueViolation(err) {
				return errs.Conflict("Duplicate claim detected. This claim may already exist.")
			}
			if database.IsForeignKeyViolation(err) {
				return errs.Validation("Reference not found. Ensure policy and workflow exist.")
			}
			return err
		}
		return s.Repo.AppendLog(ctx, c.ID, "Claim submitted by user.")
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.ClaimFiled()
	s.logger.Info("Claim filed",
		zap.String("claimId", c.ID), zap.String("customerId", customerID),
		zap.Float64("amount", c.Amount), zap.Int("riskScore", c.RiskScore))

	actor := common_models.Actor{ID: customerID, Kind: common_models.ActorCustomer}
	s.AuditService.Record(ctx, actor, common_models.AuditActionClaimFiled, c.ID, map[string]any{
		"policyId":  c.PolicyID,
		"amount":    c.Amount,
		"riskScore": c.RiskScore,
	})
	s.NotificationService.Notify(ctx, notification.Notification{
		CustomerID: customerID,
		Type:       notification.TypeClaim,
		EntityID:   c.ID,
		Message:    notification.Render("claimReceived", notification.MessageData{ClaimID: c.ID, Amount: c.Amount}),
	})
	s.Queue.Enqueue(c.ID)
	return &c, nil
}

func (s *ClaimServiceImpl) DecideClaim(ctx context.Context, claimID, adminID string, decision Status) error {
	if decision != StatusApproved && decision != StatusDeclined {
		return errs.Validation("Invalid status provided. Must be APPROVED or DECLINED.")
	}

	var (
		customerID string
		next       *int
	)
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.Repo.Lock(ctx, claimID)
		if err != nil {
			return err
		}
		if c == nil {
			return errs.NotFound("Claim not found or was not in PENDING status.")
		}
		if c.Status != StatusPending {
			return errs.Conflict(fmt.Sprintf("Claim %s is %s and can no longer be decided.", claimID, c.Status))
		}
		customerID = c.CustomerID

		if c.WorkflowID != "" && c.CurrentStepOrder != nil {
			next, err = s.Workflows.NextStepOrder(ctx, c.WorkflowID, *c.CurrentStepOrder)
			if err != nil {
				return err
			}
		}

		if err := s.Repo.SetStatus(ctx, claimID, decision); err != nil {
			return err
		}
		entry := fmt.Sprintf("Claim %s by admin %s.", strings.ToLower(string(decision)), adminID)
		if err := s.Repo.AppendLog(ctx, claimID, entry); err != nil {
			return err
		}
		return s.Repo.SetStepOrder(ctx, claimID, next)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Claim decided",
		zap.String("claimId", claimID), zap.String("adminId", adminID), zap.String("decision", string(decision)))

	action := common_models.AuditActionClaimApproved
	template := "claimApproved"
	if decision == StatusDeclined {
		action = common_models.AuditActionClaimDeclined
		template = "claimDeclined"
	}
	actor := common_models.Actor{ID: adminID, Kind: common_models.ActorAdmin}
	s.AuditService.Record(ctx, actor, action, claimID, map[string]any{
		"oldStatus": string(StatusPending),
		"newStatus": string(decision),
	})
	s.NotificationService.Notify(ctx, notification.Notification{
		CustomerID: customerID,
		Type:       notification.TypeClaim,
		EntityID:   claimID,
		Message:    notification.Render(template, notification.MessageData{ClaimID: claimID, Status: string(decision)}),
	})
	if next != nil {
		s.Queue.Enqueue(claimID)
	}
	return nil
}

func (s *ClaimServiceImpl) GetClaim(ctx context.Context, id string) (*Claim, error) {
	c, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errs.NotFound(fmt.Sprintf("Claim %s not found.", id))
	}
	c.StatusLog, err = s.Repo.StatusLog(ctx, id)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ClaimServiceImpl) ListCustomerClaims(ctx context.Context, customerID string) ([]Claim, error) {
	return s.Repo.ListByCustomer(ctx, customerID)
}

func (s *ClaimServiceImpl) ListPendingClaims(ctx context.Context) ([]Claim, error) {
	return s.Repo.ListPending(ctx)
}

func (s *ClaimServiceImpl) ListAssignedClaims(ctx context.Context, adminID string) ([]Claim, error) {
	return s.Repo.ListByAdmin(ctx, adminID)
}

func (s *ClaimServiceImpl) HighRiskClaims(ctx context.Context, customerID string) ([]Claim, error) {
	return s.Repo.ListHighRisk(ctx, customerID, s.config.HighRiskThreshold)
}

func (s *ClaimServiceImpl) OverdueClaims(ctx context.Context) ([]OverdueClaim, error) {
	now := s.now()
	cutoff := now.Add(-time.Duration(s.config.OverdueDays) * 24 * time.Hour)

	claims, err := s.Repo.ListPendingFiledBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	overdue := make([]OverdueClaim, 0, len(claims))
	for _, c := range claims {
		assigned := c.AdminID
		if assigned == "" {
			assigned = "Unassigned"
		}
		overdue = append(overdue, OverdueClaim{
			ClaimID:      c.ID,
			WorkflowID:   c.WorkflowID,
			StepName:     "Process Claim " + c.ID,
			AssignedTo:   assigned,
			CustomerID:   c.CustomerID,
			Amount:       c.Amount,
			FiledAt:      c.FiledAt,
			HoursOverdue: int(now.Sub(c.FiledAt).Hours()),
		})
	}
	return overdue, nil
}

func (s *ClaimServiceImpl) WorkflowMetrics(ctx context.Context, customerID string) ([]WorkflowMetric, error) {
	return s.Repo.WorkflowMetrics(ctx, customerID, s.now())
}
