package scheduler

import (
	"context"
	"database/sql"
	"time"

	"go-claims/internal/database"
)

type TimerRepository interface {
	// InsertIfAbsent reports false when a timer for the same claim and step
	// already exists.
	InsertIfAbsent(ctx context.Context, t Timer) (bool, error)
	// ClaimDue locks up to limit due PENDING timers, skipping rows another
	// poller already holds.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]Timer, error)
	Resolve(ctx context.Context, id string, status TimerStatus, at time.Time) error
	ListByClaim(ctx context.Context, claimID string) ([]Timer, error)
}

type TimerRepositoryImpl struct {
	DB *database.SQLDB
}

func NewTimerRepository(db *database.SQLDB) TimerRepository {
	return &TimerRepositoryImpl{DB: db}
}

const timerColumns = `timer_id, claim_id, expected_step_order, next_step_order, due_at, status, created_at, fired_at`

func (r *TimerRepositoryImpl) InsertIfAbsent(ctx context.Context, t Timer) (bool, error) {
	insert := `INSERT INTO workflow_timers (` + timerColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`
	if r.DB.Dialect == database.DialectMySQL {
		insert = `INSERT IGNORE INTO workflow_timers (` + timerColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`
	} else {
		insert += ` ON CONFLICT (claim_id, expected_step_order) DO NOTHING`
	}

	res, err := r.DB.Exec(ctx, insert,
		t.ID, t.ClaimID, t.ExpectedStepOrder, database.IntArg(t.NextStepOrder), t.DueAt, string(t.Status), t.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *TimerRepositoryImpl) ClaimDue(ctx context.Context, now time.Time, limit int) ([]Timer, error) {
	return r.list(ctx,
		`SELECT `+timerColumns+` FROM workflow_timers
		 WHERE status = ? AND due_at <= ?
		 ORDER BY due_at
		 LIMIT ?
		 FOR UPDATE SKIP LOCKED`,
		string(TimerPending), now, limit,
	)
}

func (r *TimerRepositoryImpl) Resolve(ctx context.Context, id string, status TimerStatus, at time.Time) error {
	_, err := r.DB.Exec(ctx, `UPDATE workflow_timers SET status = ?, fired_at = ? WHERE timer_id = ?`, string(status), at, id)
	return err
}

func (r *TimerRepositoryImpl) ListByClaim(ctx context.Context, claimID string) ([]Timer, error) {
	return r.list(ctx, `SELECT `+timerColumns+` FROM workflow_timers WHERE claim_id = ? ORDER BY created_at`, claimID)
}

func (r *TimerRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]Timer, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	timers := []Timer{}
	for rows.Next() {
		var t Timer
		var status string
		var next sql.NullInt64
		var fired sql.NullTime
		if err := rows.Scan(&t.ID, &t.ClaimID, &t.ExpectedStepOrder, &next, &t.DueAt, &status, &t.CreatedAt, &fired); err != nil {
			return nil, err
		}
		t.Status = TimerStatus(status)
		t.NextStepOrder = database.NullableInt(next)
		if fired.Valid {
			t.FiredAt = &fired.Time
		}
		timers = append(timers, t)
	}
	return timers, rows.Err()
}
