package policy_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go-claims/internal/common/errs"
	common_models "go-claims/internal/common/models"
	"go-claims/internal/config"
	"go-claims/internal/features/policy"
	"go-claims/internal/testutil"
	"go-claims/internal/testutil/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store    *memstore.Store
	audit    *testutil.Auditor
	notifier *testutil.Notifier
	service  policy.PolicyService
}

func newFixture(approvalRequired bool) *fixture {
	store := memstore.New()
	f := &fixture{
		store:    store,
		audit:    &testutil.Auditor{},
		notifier: &testutil.Notifier{},
	}
	cfg := &config.Config{PolicyApprovalRequired: approvalRequired}
	f.service = policy.NewPolicyService(store.Policies(), store, f.audit, f.notifier, nil, cfg, zap.NewNop())
	return f
}

func (f *fixture) purchase(t *testing.T, customerID string) *policy.Policy {
	t.Helper()
	p, err := f.service.Purchase(context.Background(), customerID, policy.PurchaseInput{
		PolicyType:    policy.TypeHealth,
		PremiumAmount: 1200,
	})
	require.NoError(t, err)
	return p
}

func TestPurchaseStartsApprovalChain(t *testing.T) {
	f := newFixture(true)

	p := f.purchase(t, "C1")

	assert.True(t, strings.HasPrefix(p.ID, "POL_"))
	assert.Equal(t, policy.StatusPendingInitialApproval, p.Status)
	assert.Equal(t, "Standard HEALTH coverage", p.CoverageDetails)
	assert.Equal(t, p.StartDate.AddDate(0, 12, 0), p.EndDate)

	linked, err := f.store.Policies().IsLinked(context.Background(), "C1", p.ID)
	require.NoError(t, err)
	assert.True(t, linked)

	assert.Equal(t, []common_models.AuditAction{common_models.AuditActionPolicyPurchased}, f.audit.Actions())
	require.Len(t, f.notifier.Sent, 1)
	assert.Equal(t, "C1", f.notifier.Sent[0].CustomerID)
}

func TestPurchaseWithoutApprovalAwaitsPayment(t *testing.T) {
	f := newFixture(false)

	p := f.purchase(t, "C1")

	assert.Equal(t, policy.StatusAwaitingPayment, p.Status)
}

func TestPurchaseResolvesTypeFromProduct(t *testing.T) {
	f := newFixture(true)
	coverage := "Glass and theft"

	p, err := f.service.Purchase(context.Background(), "C1", policy.PurchaseInput{
		ProductID:       "CAT_AUTO_COMPREHENSIVE",
		PremiumAmount:   300,
		CoverageDetails: &coverage,
	})
	require.NoError(t, err)

	assert.Equal(t, policy.TypeAuto, p.Type)
	assert.Equal(t, coverage, p.CoverageDetails)
}

func TestPurchaseValidation(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	_, err := f.service.Purchase(ctx, "C1", policy.PurchaseInput{ProductID: "CAT_UNKNOWN", PremiumAmount: 10})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.service.Purchase(ctx, "C1", policy.PurchaseInput{PolicyType: policy.TypeLife, PremiumAmount: 0})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.service.Purchase(ctx, "C1", policy.PurchaseInput{PolicyType: "PET", PremiumAmount: 10})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestApproveFourEyes(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()
	p := f.purchase(t, "C1")

	status, err := f.service.Approve(ctx, p.ID, "A1", "Claims Adjuster")
	require.NoError(t, err)
	assert.Equal(t, policy.StatusPendingFinalApproval, status)

	// The initial approver may not finalize, whatever their role.
	_, err = f.service.Approve(ctx, p.ID, "A1", policy.FinalApproverRole)
	assert.ErrorIs(t, err, errs.ErrForbidden)
	assert.Contains(t, err.Error(), "Four-eyes")

	_, err = f.service.Approve(ctx, p.ID, "A2", "Claims Adjuster")
	assert.ErrorIs(t, err, errs.ErrForbidden)
	assert.Contains(t, err.Error(), `"Security Officer"`)

	stored, err := f.service.GetPolicy(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.StatusPendingFinalApproval, stored.Status, "rejected approvals leave the policy untouched")
	assert.Empty(t, stored.FinalApproverID)

	status, err = f.service.Approve(ctx, p.ID, "A2", policy.FinalApproverRole)
	require.NoError(t, err)
	assert.Equal(t, policy.StatusAwaitingPayment, status)

	stored, err = f.service.GetPolicy(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "A1", stored.InitialApproverID)
	assert.Equal(t, "A2", stored.FinalApproverID)
	assert.NotNil(t, stored.FinalApprovalDate)

	_, err = f.service.Approve(ctx, p.ID, "A3", policy.FinalApproverRole)
	assert.ErrorIs(t, err, errs.ErrConflict)

	assert.Equal(t, []common_models.AuditAction{
		common_models.AuditActionPolicyPurchased,
		common_models.AuditActionPolicyInitialApproval,
		common_models.AuditActionPolicyFinalApproval,
	}, f.audit.Actions())
}

func TestApproveFourEyesHoldsForEveryRole(t *testing.T) {
	for _, role := range []string{"Claims Adjuster", "Underwriter", policy.FinalApproverRole, ""} {
		f := newFixture(true)
		ctx := context.Background()
		p := f.purchase(t, "C1")

		_, err := f.service.Approve(ctx, p.ID, "A1", role)
		require.NoError(t, err, role)

		_, err = f.service.Approve(ctx, p.ID, "A1", policy.FinalApproverRole)
		assert.ErrorIs(t, err, errs.ErrForbidden, role)
	}
}

func TestConcurrentFinalApprovalsSucceedOnce(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()
	p := f.purchase(t, "C1")
	_, err := f.service.Approve(ctx, p.ID, "A0", "Claims Adjuster")
	require.NoError(t, err)

	const admins = 12
	var wg sync.WaitGroup
	errc := make(chan error, admins)
	for i := 1; i <= admins; i++ {
		wg.Add(1)
		go func(adminID string) {
			defer wg.Done()
			_, err := f.service.Approve(ctx, p.ID, adminID, policy.FinalApproverRole)
			errc <- err
		}(fmt.Sprintf("A%d", i))
	}
	wg.Wait()
	close(errc)

	succeeded := 0
	for err := range errc {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, errs.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	stored, err := f.service.GetPolicy(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.StatusAwaitingPayment, stored.Status)
	assert.NotEmpty(t, stored.FinalApproverID)
	assert.Equal(t, []common_models.AuditAction{
		common_models.AuditActionPolicyPurchased,
		common_models.AuditActionPolicyInitialApproval,
		common_models.AuditActionPolicyFinalApproval,
	}, f.audit.Actions())
}

func TestConcurrentActivationRecordsOnePayment(t *testing.T) {
	f := newFixture(false)
	p := f.purchase(t, "C1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.service.Activate(context.Background(), p.ID, "C1")
		}()
	}
	wg.Wait()

	assert.Len(t, f.store.Payments(), 1)
}

func TestApproveUnknownPolicy(t *testing.T) {
	f := newFixture(true)

	_, err := f.service.Approve(context.Background(), "POL_missing", "A1", policy.FinalApproverRole)

	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestActivate(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	p := f.purchase(t, "C1")

	_, err := f.service.Activate(ctx, p.ID, "C2")
	assert.ErrorIs(t, err, errs.ErrNotFound, "another customer's policy")

	payment, err := f.service.Activate(ctx, p.ID, "C1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(payment.ID, "MOCKPAY_"))
	assert.True(t, strings.HasPrefix(payment.TransactionID, "MOCK_TXN_"))
	assert.Len(t, strings.TrimPrefix(payment.TransactionID, "MOCK_TXN_"), 16)
	assert.Equal(t, 1200.0, payment.Amount)
	assert.Equal(t, "SUCCESS", payment.Status)

	stored, err := f.service.GetPolicy(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.StatusActive, stored.Status)

	_, err = f.service.Activate(ctx, p.ID, "C1")
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Len(t, f.store.Payments(), 1)
}

func TestActivateBeforeApproval(t *testing.T) {
	f := newFixture(true)
	p := f.purchase(t, "C1")

	_, err := f.service.Activate(context.Background(), p.ID, "C1")

	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Empty(t, f.store.Payments())
}

func TestCatalog(t *testing.T) {
	f := newFixture(true)

	products := f.service.Catalog()

	require.NotEmpty(t, products)
	for _, p := range products {
		assert.True(t, p.PolicyType.Valid(), p.ProductID)
		assert.Positive(t, p.PremiumAmount, p.ProductID)
	}
}

func dobYearsAgo(years int) string {
	return time.Now().UTC().AddDate(-years, 0, -1).Format(time.DateOnly)
}

func TestQuoteDiscountsOlderCustomersOnFlaggedProducts(t *testing.T) {
	f := newFixture(true)

	q, err := f.service.Quote(policy.QuoteInput{ProductID: "CAT_LIFE_TERM", DateOfBirth: dobYearsAgo(45)})
	require.NoError(t, err)
	assert.Equal(t, 45, q.Age)
	assert.Equal(t, 12000.0, q.BasePremium)
	assert.Equal(t, 960.0, q.Discount)
	assert.Equal(t, 11040.0, q.FinalPremium)

	q, err = f.service.Quote(policy.QuoteInput{ProductID: "CAT_LIFE_TERM", DateOfBirth: dobYearsAgo(40)})
	require.NoError(t, err)
	assert.Zero(t, q.Discount)

	q, err = f.service.Quote(policy.QuoteInput{ProductID: "CAT_HEALTH_BASIC", DateOfBirth: dobYearsAgo(60)})
	require.NoError(t, err)
	assert.Zero(t, q.Discount)
	assert.Equal(t, 8500.0, q.FinalPremium)
}

func TestQuoteRejectsBadInput(t *testing.T) {
	f := newFixture(true)
	tomorrow := time.Now().UTC().AddDate(0, 0, 2).Format(time.DateOnly)

	_, err := f.service.Quote(policy.QuoteInput{ProductID: "CAT_UNKNOWN", DateOfBirth: dobYearsAgo(30)})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = f.service.Quote(policy.QuoteInput{ProductID: "CAT_LIFE_TERM", DateOfBirth: "01/02/1980"})
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = f.service.Quote(policy.QuoteInput{ProductID: "CAT_LIFE_TERM", DateOfBirth: tomorrow})
	assert.ErrorIs(t, err, errs.ErrValidation)
}
