package policy

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-claims/internal/database"
)

type PolicyRepository interface {
	Create(ctx context.Context, p Policy) error
	LinkCustomer(ctx context.Context, customerID, policyID string) error
	// Get, Lock and LockOwned return nil when no row matches.
	Get(ctx context.Context, id string) (*Policy, error)
	Lock(ctx context.Context, id string) (*Policy, error)
	LockOwned(ctx context.Context, policyID, customerID string) (*Policy, error)
	IsLinked(ctx context.Context, customerID, policyID string) (bool, error)
	// Owners returns the customers linked to a policy.
	Owners(ctx context.Context, policyID string) ([]string, error)

	RecordInitialApproval(ctx context.Context, id, adminID string, at time.Time) error
	RecordFinalApproval(ctx context.Context, id, adminID string, at time.Time) error
	SetStatus(ctx context.Context, id string, status Status) error
	InsertPayment(ctx context.Context, p Payment) error

	ListByCustomer(ctx context.Context, customerID string) ([]Policy, error)
	ListPendingApproval(ctx context.Context) ([]Policy, error)
}

type PolicyRepositoryImpl struct {
	DB *database.SQLDB
}

func NewPolicyRepository(db *database.SQLDB) PolicyRepository {
	return &PolicyRepositoryImpl{DB: db}
}

const policyColumns = `p.policy_id, p.policy_type, p.premium_amount, p.coverage_details, p.status, p.policy_date, p.start_date, p.end_date,
	p.initial_approver_id, p.initial_approval_date, p.final_approver_id, p.final_approval_date`

func (r *PolicyRepositoryImpl) Create(ctx context.Context, p Policy) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO policy (policy_id, policy_type, premium_amount, coverage_details, status, policy_date, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Type), p.PremiumAmount, p.CoverageDetails, string(p.Status), p.PolicyDate, p.StartDate, p.EndDate,
	)
	return err
}

func (r *PolicyRepositoryImpl) LinkCustomer(ctx context.Context, customerID, policyID string) error {
	_, err := r.DB.Exec(ctx, `INSERT INTO customer_policy (customer_id, policy_id) VALUES (?, ?)`, customerID, policyID)
	return err
}

func (r *PolicyRepositoryImpl) Get(ctx context.Context, id string) (*Policy, error) {
	return r.one(ctx, `SELECT `+policyColumns+` FROM policy p WHERE p.policy_id = ?`, id)
}

func (r *PolicyRepositoryImpl) Lock(ctx context.Context, id string) (*Policy, error) {
	return r.one(ctx, `SELECT `+policyColumns+` FROM policy p WHERE p.policy_id = ? FOR UPDATE`, id)
}

func (r *PolicyRepositoryImpl) LockOwned(ctx context.Context, policyID, customerID string) (*Policy, error) {
	lock := ` FOR UPDATE`
	if r.DB.Dialect == database.DialectPostgres {
		lock = ` FOR UPDATE OF p`
	}
	return r.one(ctx,
		`SELECT `+policyColumns+` FROM policy p
		 JOIN customer_policy cp ON p.policy_id = cp.policy_id
		 WHERE p.policy_id = ? AND cp.customer_id = ?`+lock,
		policyID, customerID,
	)
}

func (r *PolicyRepositoryImpl) one(ctx context.Context, query string, args ...any) (*Policy, error) {
	p, err := scanPolicy(r.DB.QueryRow(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *PolicyRepositoryImpl) IsLinked(ctx context.Context, customerID, policyID string) (bool, error) {
	var n int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM customer_policy WHERE customer_id = ? AND policy_id = ?`,
		customerID, policyID,
	).Scan(&n)
	return n > 0, err
}

func (r *PolicyRepositoryImpl) Owners(ctx context.Context, policyID string) ([]string, error) {
	rows, err := r.DB.Query(ctx, `SELECT customer_id FROM customer_policy WHERE policy_id = ?`, policyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

func (r *PolicyRepositoryImpl) RecordInitialApproval(ctx context.Context, id, adminID string, at time.Time) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE policy SET status = ?, initial_approver_id = ?, initial_approval_date = ? WHERE policy_id = ?`,
		string(StatusPendingFinalApproval), adminID, at, id,
	)
	return err
}

func (r *PolicyRepositoryImpl) RecordFinalApproval(ctx context.Context, id, adminID string, at time.Time) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE policy SET status = ?, final_approver_id = ?, final_approval_date = ? WHERE policy_id = ?`,
		string(StatusAwaitingPayment), adminID, at, id,
	)
	return err
}

func (r *PolicyRepositoryImpl) SetStatus(ctx context.Context, id string, status Status) error {
	_, err := r.DB.Exec(ctx, `UPDATE policy SET status = ? WHERE policy_id = ?`, string(status), id)
	return err
}

func (r *PolicyRepositoryImpl) InsertPayment(ctx context.Context, p Payment) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO policy_payment (payment_id, policy_id, customer_id, amount, payment_gateway, transaction_id, payment_status, paid_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.PolicyID, p.CustomerID, p.Amount, p.Gateway, p.TransactionID, p.Status, p.PaidAt,
	)
	return err
}

func (r *PolicyRepositoryImpl) ListByCustomer(ctx context.Context, customerID string) ([]Policy, error) {
	return r.list(ctx,
		`SELECT `+policyColumns+` FROM policy p
		 JOIN customer_policy cp ON p.policy_id = cp.policy_id
		 WHERE cp.customer_id = ?
		 ORDER BY p.policy_date DESC`,
		customerID,
	)
}

func (r *PolicyRepositoryImpl) ListPendingApproval(ctx context.Context) ([]Policy, error) {
	return r.list(ctx,
		`SELECT `+policyColumns+` FROM policy p
		 WHERE p.status = ? OR p.status = ?
		 ORDER BY p.policy_date ASC`,
		string(StatusPendingInitialApproval), string(StatusPendingFinalApproval),
	)
}

func (r *PolicyRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]Policy, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	policies := []Policy{}
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, *p)
	}
	return policies, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPolicy(s scanner) (*Policy, error) {
	var p Policy
	var policyType, status string
	var coverage, initialID, finalID sql.NullString
	var initialAt, finalAt sql.NullTime
	err := s.Scan(&p.ID, &policyType, &p.PremiumAmount, &coverage, &status, &p.PolicyDate, &p.StartDate, &p.EndDate,
		&initialID, &initialAt, &finalID, &finalAt)
	if err != nil {
		return nil, err
	}
	p.Type = Type(policyType)
	p.Status = Status(status)
	p.CoverageDetails = coverage.String
	p.InitialApproverID = initialID.String
	p.FinalApproverID = finalID.String
	if initialAt.Valid {
		p.InitialApprovalDate = &initialAt.Time
	}
	if finalAt.Valid {
		p.FinalApprovalDate = &finalAt.Time
	}
	return &p, nil
}
