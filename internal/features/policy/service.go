package policy

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
	"go-claims/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	mockGateway      = "MOCK_PAYMENT"
	paymentSucceeded = "SUCCESS"
	policyTermMonths = 12

	quoteDiscountAge  = 40
	quoteDiscountRate = 0.08
)

type PolicyService interface {
	// Approve moves the policy one step along the approval chain. The
	// read-decide-write runs under a row lock on the policy.
	Approve(ctx context.Context, policyID, adminID, adminRole string) (Status, error)
	// Activate records a mock payment and makes an approved policy ACTIVE.
	Activate(ctx context.Context, policyID, customerID string) (*Payment, error)
	Purchase(ctx context.Context, customerID string, input PurchaseInput) (*Policy, error)

	GetPolicy(ctx context.Context, id string) (*Policy, error)
	ListCustomerPolicies(ctx context.Context, customerID string) ([]Policy, error)
	ListPendingPolicies(ctx context.Context) ([]Policy, error)
	Catalog() []Product
	// Quote prices a catalog product for a customer born on the given date.
	Quote(input QuoteInput) (*Quote, error)
}

type PolicyServiceImpl struct {
	Repo                PolicyRepository
	Tx                  database.Transactor
	AuditService        audit.AuditService
	NotificationService notification.NotificationService
	Metrics             *metrics.Metrics
	approvalRequired    bool
	logger              *zap.Logger
	now                 func() time.Time
}

func NewPolicyService(
	repo PolicyRepository,
	tx database.Transactor,
	auditService audit.AuditService,
	notificationService notification.NotificationService,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) PolicyService {
	return &PolicyServiceImpl{
		Repo:                repo,
		Tx:                  tx,
		AuditService:        auditService,
		NotificationService: notificationService,
		Metrics:             m,
		approvalRequired:    cfg.PolicyApprovalRequired,
		logger:              logger,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

func (s *PolicyServiceImpl) Approve(ctx context.Context, policyID, adminID, adminRole string) (Status, error) {
	var (
		oldStatus Status
		newStatus Status
		action    common_models.AuditAction
		owners    []string
	)

	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.Repo.Lock(ctx, policyID)
		if err != nil {
			return err
		}
		if p == nil {
			s.Metrics.ApprovalAttempt("not_found")
			return errs.NotFound("Policy not found.")
		}
		oldStatus = p.Status

		switch p.Status {
		case StatusPendingInitialApproval:
			if err := s.Repo.RecordInitialApproval(ctx, p.ID, adminID, s.now()); err != nil {
				return err
			}
			newStatus = StatusPendingFinalApproval
			action = common_models.AuditActionPolicyInitialApproval

		case StatusPendingFinalApproval:
			if adminRole != FinalApproverRole {
				s.Metrics.ApprovalAttempt("role_denied")
				return errs.Forbidden(fmt.Sprintf("Forbidden: Final approval requires %q role.", FinalApproverRole))
			}
			if adminID == p.InitialApproverID {
				s.Metrics.ApprovalAttempt("four_eyes_denied")
				return errs.Forbidden("Forbidden: Four-eyes principle violation. Final approver must be different from the initial approver.")
			}
			if err := s.Repo.RecordFinalApproval(ctx, p.ID, adminID, s.now()); err != nil {
				return err
			}
			newStatus = StatusAwaitingPayment
			action = common_models.AuditActionPolicyFinalApproval

		default:
			s.Metrics.ApprovalAttempt("invalid_state")
			return errs.Conflict(fmt.Sprintf("Policy is in status %q and cannot be approved.", p.Status))
		}

		owners, err = s.Repo.Owners(ctx, p.ID)
		return err
	})
	if err != nil {
		return "", err
	}

	s.Metrics.ApprovalAttempt("approved")
	s.logger.Info("Policy approval recorded",
		zap.String("policyId", policyID), zap.String("adminId", adminID), zap.String("newStatus", string(newStatus)))

	actor := common_models.Actor{ID: adminID, Kind: common_models.ActorAdmin, Role: adminRole}
	s.AuditService.Record(ctx, actor, action, policyID, map[string]any{
		"oldStatus": string(oldStatus),
		"newStatus": string(newStatus),
	})
	for _, customerID := range owners {
		s.NotificationService.Notify(ctx, notification.Notification{
			CustomerID: customerID,
			Type:       notification.TypePolicy,
			EntityID:   policyID,
			Message:    notification.Render("policyStatus", notification.MessageData{PolicyID: policyID, Status: string(newStatus)}),
		})
	}
	return newStatus, nil
}

func (s *PolicyServiceImpl) Activate(ctx context.Context, policyID, customerID string) (*Payment, error) {
	var payment Payment

	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.Repo.LockOwned(ctx, policyID, customerID)
		if err != nil {
			return err
		}
		if p == nil {
			return errs.NotFound("Policy not found or does not belong to this customer.")
		}
		if p.Status != StatusAwaitingPayment {
			return errs.Conflict(fmt.Sprintf("Policy status is %q, activation not required or already active.", p.Status))
		}

		payment = Payment{
			ID:            "MOCKPAY_" + uuid.NewString(),
			PolicyID:      p.ID,
			CustomerID:    customerID,
			Amount:        p.PremiumAmount,
			Gateway:       mockGateway,
			TransactionID: "MOCK_TXN_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16]),
			Status:        paymentSucceeded,
			PaidAt:        s.now(),
		}
		if err := s.Repo.InsertPayment(ctx, payment); err != nil {
			return err
		}
		return s.Repo.SetStatus(ctx, p.ID, StatusActive)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Policy activated", zap.String("policyId", policyID), zap.String("customerId", customerID))
	actor := common_models.Actor{ID: customerID, Kind: common_models.ActorCustomer}
	s.AuditService.Record(ctx, actor, common_models.AuditActionPolicyActivated, policyID, map[string]any{
		"paymentId":     payment.ID,
		"transactionId": payment.TransactionID,
		"amount":        payment.Amount,
	})
	s.NotificationService.Notify(ctx, notification.Notification{
		CustomerID: customerID,
		Type:       notification.TypePolicy,
		EntityID:   policyID,
		Message:    notification.Render("policyActivated", notification.MessageData{PolicyID: policyID}),
	})
	return &payment, nil
}

func (s *PolicyServiceImpl) Purchase(ctx context.Context, customerID string, input PurchaseInput) (*Policy, error) {
	policyType := input.PolicyType
	if policyType == "" {
		policyType = typeFromProduct(input.ProductID)
	}
	if !policyType.Valid() {
		return nil, errs.Validation("policy_type or a valid product_id is required.")
	}
	if math.IsNaN(input.PremiumAmount) || math.IsInf(input.PremiumAmount, 0) || input.PremiumAmount <= 0 {
		return nil, errs.Validation("premium_amount must be a positive number.")
	}

	coverage := fmt.Sprintf("Standard %s coverage", policyType)
	if input.CoverageDetails != nil {
		coverage = *input.CoverageDetails
	}

	status := StatusPendingInitialApproval
	if !s.approvalRequired {
		status = StatusAwaitingPayment
	}

	today := s.now().Truncate(24 * time.Hour)
	p := Policy{
		ID:              "POL_" + uuid.NewString(),
		Type:            policyType,
		PremiumAmount:   input.PremiumAmount,
		CoverageDetails: coverage,
		Status:          status,
		PolicyDate:      today,
		StartDate:       today,
		EndDate:         today.AddDate(0, policyTermMonths, 0),
	}

	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.Repo.Create(ctx, p); err != nil {
			return err
		}
		return s.Repo.LinkCustomer(ctx, customerID, p.ID)
	})
	if err != nil {
		return nil, err
	}

	actor := common_models.Actor{ID: customerID, Kind: common_models.ActorCustomer}
	s.AuditService.Record(ctx, actor, common_models.AuditActionPolicyPurchased, p.ID, map[string]any{
		"policyType":    string(p.Type),
		"premiumAmount": p.PremiumAmount,
		"status":        string(p.Status),
	})
	s.NotificationService.Notify(ctx, notification.Notification{
		CustomerID: customerID,
		Type:       notification.TypePolicy,
		EntityID:   p.ID,
		Message:    notification.Render("policyCreated", notification.MessageData{PolicyID: p.ID}),
	})
	return &p, nil
}

// typeFromProduct finds the first policy type named inside a catalog product id.
func typeFromProduct(productID string) Type {
	id := strings.ToUpper(productID)
	for _, t := range Types {
		if strings.Contains(id, string(t)) {
			return t
		}
	}
	return ""
}

func (s *PolicyServiceImpl) GetPolicy(ctx context.Context, id string) (*Policy, error) {
	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errs.NotFound("Policy not found.")
	}
	return p, nil
}

func (s *PolicyServiceImpl) ListCustomerPolicies(ctx context.Context, customerID string) ([]Policy, error) {
	return s.Repo.ListByCustomer(ctx, customerID)
}

func (s *PolicyServiceImpl) ListPendingPolicies(ctx context.Context) ([]Policy, error) {
	return s.Repo.ListPendingApproval(ctx)
}

func (s *PolicyServiceImpl) Catalog() []Product {
	return catalog
}

func (s *PolicyServiceImpl) Quote(input QuoteInput) (*Quote, error) {
	product, ok := findProduct(input.ProductID)
	if !ok {
		return nil, errs.NotFound("Policy product not found.")
	}
	dob, err := time.Parse(time.DateOnly, input.DateOfBirth)
	if err != nil {
		return nil, errs.Validation("date_of_birth must be a date in YYYY-MM-DD form.")
	}
	now := s.now()
	if dob.After(now) {
		return nil, errs.Validation("date_of_birth is in the future.")
	}

	q := &Quote{
		ProductID:   product.ProductID,
		Age:         ageOn(dob, now),
		BasePremium: product.PremiumAmount,
	}
	if product.AgeDiscount && q.Age > quoteDiscountAge {
		q.Discount = math.Round(product.PremiumAmount*quoteDiscountRate*100) / 100
	}
	q.FinalPremium = q.BasePremium - q.Discount
	return q, nil
}

// ageOn is the age in whole years on day now.
func ageOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}
