package workflow

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go-claims/internal/database"
)

type WorkflowRepository interface {
	List(ctx context.Context) ([]Definition, error)
	// Get returns nil when the workflow does not exist. Steps are not loaded.
	Get(ctx context.Context, id string) (*Definition, error)
	Create(ctx context.Context, def Definition) error
	Update(ctx context.Context, def Definition) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	CountClaims(ctx context.Context, id string) (int, error)

	ListSteps(ctx context.Context, workflowID string) ([]Step, error)
	GetStep(ctx context.Context, workflowID string, order int) (*Step, error)
	GetStepByID(ctx context.Context, workflowID, stepID string) (*Step, error)
	// FirstStepOrder and NextStepOrder return nil when no such step exists.
	FirstStepOrder(ctx context.Context, workflowID string) (*int, error)
	NextStepOrder(ctx context.Context, workflowID string, after int) (*int, error)
	CreateStep(ctx context.Context, step Step) error
	UpdateStep(ctx context.Context, step Step) (bool, error)
	DeleteStep(ctx context.Context, workflowID, stepID string) (bool, error)
	DeleteSteps(ctx context.Context, workflowID string) error
}

type WorkflowRepositoryImpl struct {
	DB *database.SQLDB
}

func NewWorkflowRepository(db *database.SQLDB) WorkflowRepository {
	return &WorkflowRepositoryImpl{DB: db}
}

func (r *WorkflowRepositoryImpl) List(ctx context.Context) ([]Definition, error) {
	rows, err := r.DB.Query(ctx, `SELECT workflow_id, name, description, created_at FROM workflows ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defs := []Definition{}
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, rows.Err()
}

func (r *WorkflowRepositoryImpl) Get(ctx context.Context, id string) (*Definition, error) {
	row := r.DB.QueryRow(ctx, `SELECT workflow_id, name, description, created_at FROM workflows WHERE workflow_id = ?`, id)
	def, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return def, err
}

func (r *WorkflowRepositoryImpl) Create(ctx context.Context, def Definition) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO workflows (workflow_id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		def.ID, def.Name, nullString(def.Description), def.CreatedAt,
	)
	return err
}

func (r *WorkflowRepositoryImpl) Update(ctx context.Context, def Definition) (bool, error) {
	res, err := r.DB.Exec(ctx,
		`UPDATE workflows SET name = ?, description = ? WHERE workflow_id = ?`,
		def.Name, nullString(def.Description), def.ID,
	)
	return affected(res, err)
}

func (r *WorkflowRepositoryImpl) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.Exec(ctx, `DELETE FROM workflows WHERE workflow_id = ?`, id)
	return affected(res, err)
}

func (r *WorkflowRepositoryImpl) CountClaims(ctx context.Context, id string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM claim WHERE workflow_id = ?`, id).Scan(&n)
	return n, err
}

const stepColumns = `step_id, workflow_id, step_order, step_name, task_type, configuration`

func (r *WorkflowRepositoryImpl) ListSteps(ctx context.Context, workflowID string) ([]Step, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+stepColumns+` FROM workflow_steps WHERE workflow_id = ? ORDER BY step_order`, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := []Step{}
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, *s)
	}
	return steps, rows.Err()
}

func (r *WorkflowRepositoryImpl) GetStep(ctx context.Context, workflowID string, order int) (*Step, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+stepColumns+` FROM workflow_steps WHERE workflow_id = ? AND step_order = ?`, workflowID, order)
	s, err := scanStep(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *WorkflowRepositoryImpl) GetStepByID(ctx context.Context, workflowID, stepID string) (*Step, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+stepColumns+` FROM workflow_steps WHERE workflow_id = ? AND step_id = ?`, workflowID, stepID)
	s, err := scanStep(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *WorkflowRepositoryImpl) FirstStepOrder(ctx context.Context, workflowID string) (*int, error) {
	var n sql.NullInt64
	err := r.DB.QueryRow(ctx, `SELECT MIN(step_order) FROM workflow_steps WHERE workflow_id = ?`, workflowID).Scan(&n)
	if err != nil {
		return nil, err
	}
	return database.NullableInt(n), nil
}

func (r *WorkflowRepositoryImpl) NextStepOrder(ctx context.Context, workflowID string, after int) (*int, error) {
	var n sql.NullInt64
	err := r.DB.QueryRow(ctx,
		`SELECT MIN(step_order) FROM workflow_steps WHERE workflow_id = ? AND step_order > ?`,
		workflowID, after,
	).Scan(&n)
	if err != nil {
		return nil, err
	}
	return database.NullableInt(n), nil
}

func (r *WorkflowRepositoryImpl) CreateStep(ctx context.Context, step Step) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO workflow_steps (`+stepColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		step.ID, step.WorkflowID, step.Order, step.Name, string(step.TaskType), string(step.Configuration),
	)
	return err
}

func (r *WorkflowRepositoryImpl) UpdateStep(ctx context.Context, step Step) (bool, error) {
	res, err := r.DB.Exec(ctx,
		`UPDATE workflow_steps SET step_order = ?, step_name = ?, task_type = ?, configuration = ?
		 WHERE step_id = ? AND workflow_id = ?`,
		step.Order, step.Name, string(step.TaskType), string(step.Configuration), step.ID, step.WorkflowID,
	)
	return affected(res, err)
}

func (r *WorkflowRepositoryImpl) DeleteStep(ctx context.Context, workflowID, stepID string) (bool, error) {
	res, err := r.DB.Exec(ctx, `DELETE FROM workflow_steps WHERE step_id = ? AND workflow_id = ?`, stepID, workflowID)
	return affected(res, err)
}

func (r *WorkflowRepositoryImpl) DeleteSteps(ctx context.Context, workflowID string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM workflow_steps WHERE workflow_id = ?`, workflowID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDefinition(s scanner) (*Definition, error) {
	var def Definition
	var desc sql.NullString
	if err := s.Scan(&def.ID, &def.Name, &desc, &def.CreatedAt); err != nil {
		return nil, err
	}
	def.Description = desc.String
	return &def, nil
}

func scanStep(s scanner) (*Step, error) {
	var step Step
	var taskType string
	var cfg sql.NullString
	if err := s.Scan(&step.ID, &step.WorkflowID, &step.Order, &step.Name, &taskType, &cfg); err != nil {
		return nil, err
	}
	step.TaskType = TaskType(taskType)
	if cfg.Valid && cfg.String != "" {
		step.Configuration = json.RawMessage(cfg.String)
	}
	return &step, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

