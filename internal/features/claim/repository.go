package claim

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-claims/internal/database"
)

type ClaimRepository interface {
	Insert(ctx context.Context, c Claim) error
	// Get and Lock return nil when the claim does not exist. Lock holds a
	// row lock until the surrounding transaction ends.
	Get(ctx context.Context, id string) (*Claim, error)
	Lock(ctx context.Context, id string) (*Claim, error)
	StatusLog(ctx context.Context, id string) ([]LogEntry, error)
	AppendLog(ctx context.Context, id, entry string) error

	SetStepOrder(ctx context.Context, id string, step *int) error
	// CompareAndSetStep moves the claim to next only if it is still at expected.
	CompareAndSetStep(ctx context.Context, id string, expected int, next *int) (bool, error)
	SetAdmin(ctx context.Context, id, adminID string) error
	SetStatus(ctx context.Context, id string, status Status) error

	History(ctx context.Context, customerID string) (History, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Claim, error)
	ListPending(ctx context.Context) ([]Claim, error)
	ListByAdmin(ctx context.Context, adminID string) ([]Claim, error)
	// ListHighRisk filters by customer unless customerID is empty.
	ListHighRisk(ctx context.Context, customerID string, minScore int) ([]Claim, error)
	ListPendingFiledBefore(ctx context.Context, cutoff time.Time) ([]Claim, error)
	ListInFlight(ctx context.Context) ([]string, error)
	// WorkflowMetrics counts claims per workflow; customerID narrows the count when set.
	WorkflowMetrics(ctx context.Context, customerID string, now time.Time) ([]WorkflowMetric, error)
}

type ClaimRepositoryImpl struct {
	DB *database.SQLDB
}

func NewClaimRepository(db *database.SQLDB) ClaimRepository {
	return &ClaimRepositoryImpl{DB: db}
}

const claimColumns = `claim_id, policy_id, customer_id, description, filed_at, claim_status, amount, risk_score, workflow_id, current_step_order, admin_id`

func (r *ClaimRepositoryImpl) Insert(ctx context.Context, c Claim) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO claim (`+claimColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.PolicyID, c.CustomerID, c.Description, c.FiledAt, string(c.Status), c.Amount, c.RiskScore,
		nullString(c.WorkflowID), database.IntArg(c.CurrentStepOrder), nullString(c.AdminID),
	)
	return err
}

func (r *ClaimRepositoryImpl) Get(ctx context.Context, id string) (*Claim, error) {
	return r.one(ctx, `SELECT `+claimColumns+` FROM claim WHERE claim_id = ?`, id)
}

func (r *ClaimRepositoryImpl) Lock(ctx context.Context, id string) (*Claim, error) {
	return r.one(ctx, `SELECT `+claimColumns+` FROM claim WHERE claim_id = ? FOR UPDATE`, id)
}

func (r *ClaimRepositoryImpl) one(ctx context.Context, query string, args ...any) (*Claim, error) {
	c, err := scanClaim(r.DB.QueryRow(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *ClaimRepositoryImpl) StatusLog(ctx context.Context, id string) ([]LogEntry, error) {
	rows, err := r.DB.Query(ctx, `SELECT seq, entry, created_at FROM claim_status_log WHERE claim_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []LogEntry{}
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.Seq, &e.Entry, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *ClaimRepositoryImpl) AppendLog(ctx context.Context, id, entry string) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO claim_status_log (claim_id, entry, created_at) VALUES (?, ?, ?)`,
		id, entry, time.Now().UTC(),
	)
	return err
}

func (r *ClaimRepositoryImpl) SetStepOrder(ctx context.Context, id string, step *int) error {
	_, err := r.DB.Exec(ctx, `UPDATE claim SET current_step_order = ? WHERE claim_id = ?`, database.IntArg(step), id)
	return err
}

func (r *ClaimRepositoryImpl) CompareAndSetStep(ctx context.Context, id string, expected int, next *int) (bool, error) {
	res, err := r.DB.Exec(ctx,
		`UPDATE claim SET current_step_order = ? WHERE claim_id = ? AND current_step_order = ?`,
		database.IntArg(next), id, expected,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	// MySQL reports 0 affected rows when the new value equals the old one;
	// that only happens when next == expected, which the engine never produces.
	return n > 0, nil
}

func (r *ClaimRepositoryImpl) SetAdmin(ctx context.Context, id, adminID string) error {
	_, err := r.DB.Exec(ctx, `UPDATE claim SET admin_id = ? WHERE claim_id = ?`, adminID, id)
	return err
}

func (r *ClaimRepositoryImpl) SetStatus(ctx context.Context, id string, status Status) error {
	_, err := r.DB.Exec(ctx, `UPDATE claim SET claim_status = ? WHERE claim_id = ?`, string(status), id)
	return err
}

func (r *ClaimRepositoryImpl) History(ctx context.Context, customerID string) (History, error) {
	var h History
	var declined sql.NullInt64
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*), SUM(CASE WHEN claim_status = 'DECLINED' THEN 1 ELSE 0 END) FROM claim WHERE customer_id = ?`,
		customerID,
	).Scan(&h.ClaimCount, &declined)
	h.DeclinedCount = int(declined.Int64)
	return h, err
}

func (r *ClaimRepositoryImpl) ListByCustomer(ctx context.Context, customerID string) ([]Claim, error) {
	return r.list(ctx, `SELECT `+claimColumns+` FROM claim WHERE customer_id = ? ORDER BY filed_at DESC`, customerID)
}

func (r *ClaimRepositoryImpl) ListPending(ctx context.Context) ([]Claim, error) {
	return r.list(ctx, `SELECT `+claimColumns+` FROM claim WHERE claim_status = 'PENDING' ORDER BY filed_at ASC`)
}

func (r *ClaimRepositoryImpl) ListByAdmin(ctx context.Context, adminID string) ([]Claim, error) {
	return r.list(ctx, `SELECT `+claimColumns+` FROM claim WHERE admin_id = ? ORDER BY filed_at DESC`, adminID)
}

func (r *ClaimRepositoryImpl) ListHighRisk(ctx context.Context, customerID string, minScore int) ([]Claim, error) {
	if customerID == "" {
		return r.list(ctx, `SELECT `+claimColumns+` FROM claim WHERE risk_score >= ? ORDER BY amount DESC`, minScore)
	}
	return r.list(ctx,
		`SELECT `+claimColumns+` FROM claim WHERE risk_score >= ? AND customer_id = ? ORDER BY amount DESC`,
		minScore, customerID,
	)
}

func (r *ClaimRepositoryImpl) ListPendingFiledBefore(ctx context.Context, cutoff time.Time) ([]Claim, error) {
	return r.list(ctx,
		`SELECT `+claimColumns+` FROM claim WHERE claim_status = 'PENDING' AND filed_at < ? ORDER BY filed_at ASC`,
		cutoff,
	)
}

func (r *ClaimRepositoryImpl) ListInFlight(ctx context.Context) ([]string, error) {
	rows, err := r.DB.Query(ctx, `SELECT claim_id FROM claim WHERE current_step_order IS NOT NULL AND workflow_id IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ClaimRepositoryImpl) WorkflowMetrics(ctx context.Context, customerID string, now time.Time) ([]WorkflowMetric, error) {
	query := `SELECT w.workflow_id, w.name, c.filed_at
		FROM workflows w
		LEFT JOIN claim c ON w.workflow_id = c.workflow_id`
	args := []any{}
	if customerID != "" {
		query += ` AND c.customer_id = ?`
		args = append(args, customerID)
	}
	query += ` ORDER BY w.workflow_id`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Ages are summed here rather than in SQL so both dialects share one query.
	metrics := []WorkflowMetric{}
	index := map[string]int{}
	totals := map[string]float64{}
	for rows.Next() {
		var id, name string
		var filed sql.NullTime
		if err := rows.Scan(&id, &name, &filed); err != nil {
			return nil, err
		}
		i, ok := index[id]
		if !ok {
			i = len(metrics)
			index[id] = i
			metrics = append(metrics, WorkflowMetric{WorkflowID: id, WorkflowName: name})
		}
		if filed.Valid {
			metrics[i].TotalClaims++
			totals[id] += now.Sub(filed.Time).Hours()
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range metrics {
		if metrics[i].TotalClaims > 0 {
			metrics[i].AvgProcessingHours = totals[metrics[i].WorkflowID] / float64(metrics[i].TotalClaims)
		}
	}
	return metrics, nil
}

func (r *ClaimRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]Claim, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claims := []Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClaim(s scanner) (*Claim, error) {
	var c Claim
	var status string
	var workflowID, adminID sql.NullString
	var step sql.NullInt64
	err := s.Scan(&c.ID, &c.PolicyID, &c.CustomerID, &c.Description, &c.FiledAt, &status,
		&c.Amount, &c.RiskScore, &workflowID, &step, &adminID)
	if err != nil {
		return nil, err
	}
	c.Status = Status(status)
	c.WorkflowID = workflowID.String
	c.AdminID = adminID.String
	c.CurrentStepOrder = database.NullableInt(step)
	return &c, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
