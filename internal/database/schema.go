package database

import (
	"context"
	"fmt"
	"strings"
)

// Column types that differ between the two supported dialects.
type columnTypes struct {
	timestamp string
	serial    string
	text      string
}

func (d *SQLDB) types() columnTypes {
	if d.Dialect == DialectMySQL {
		return columnTypes{timestamp: "DATETIME(6)", serial: "BIGINT AUTO_INCREMENT", text: "LONGTEXT"}
	}
	return columnTypes{timestamp: "TIMESTAMP", serial: "BIGSERIAL", text: "TEXT"}
}

func (d *SQLDB) schema() []string {
	t := d.types()
	r := strings.NewReplacer("{ts}", t.timestamp, "{serial}", t.serial, "{text}", t.text)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS workflows (
			workflow_id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description {text},
			created_at {ts} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS workflow_steps (
			step_id VARCHAR(96) PRIMARY KEY,
			workflow_id VARCHAR(64) NOT NULL REFERENCES workflows(workflow_id),
			step_order INT NOT NULL,
			step_name VARCHAR(255) NOT NULL,
			task_type VARCHAR(16) NOT NULL,
			configuration {text},
			CONSTRAINT workflow_id_step_order UNIQUE (workflow_id, step_order)
		)`,
		`CREATE TABLE IF NOT EXISTS policy (
			policy_id VARCHAR(64) PRIMARY KEY,
			policy_type VARCHAR(16) NOT NULL,
			premium_amount DECIMAL(15,2) NOT NULL,
			coverage_details {text},
			status VARCHAR(32) NOT NULL,
			policy_date {ts} NOT NULL,
			start_date {ts} NOT NULL,
			end_date {ts} NOT NULL,
			initial_approver_id VARCHAR(64),
			initial_approval_date {ts} NULL,
			final_approver_id VARCHAR(64),
			final_approval_date {ts} NULL
		)`,
		`CREATE TABLE IF NOT EXISTS customer_policy (
			customer_policy_id {serial} PRIMARY KEY,
			customer_id VARCHAR(64) NOT NULL,
			policy_id VARCHAR(64) NOT NULL REFERENCES policy(policy_id),
			CONSTRAINT customer_policy_pair UNIQUE (customer_id, policy_id)
		)`,
		`CREATE TABLE IF NOT EXISTS policy_payment (
			payment_id VARCHAR(64) PRIMARY KEY,
			policy_id VARCHAR(64) NOT NULL REFERENCES policy(policy_id),
			customer_id VARCHAR(64) NOT NULL,
			amount DECIMAL(15,2) NOT NULL,
			payment_gateway VARCHAR(32) NOT NULL,
			transaction_id VARCHAR(64) NOT NULL,
			payment_status VARCHAR(16) NOT NULL,
			paid_at {ts} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS claim (
			claim_id VARCHAR(64) PRIMARY KEY,
			policy_id VARCHAR(64) NOT NULL REFERENCES policy(policy_id),
			customer_id VARCHAR(64) NOT NULL,
			description {text} NOT NULL,
			filed_at {ts} NOT NULL,
			claim_status VARCHAR(16) NOT NULL,
			amount DECIMAL(15,2) NOT NULL,
			risk_score INT NOT NULL,
			workflow_id VARCHAR(64) REFERENCES workflows(workflow_id),
			current_step_order INT,
			admin_id VARCHAR(64)
		)`,
		`CREATE TABLE IF NOT EXISTS claim_status_log (
			seq {serial} PRIMARY KEY,
			claim_id VARCHAR(64) NOT NULL REFERENCES claim(claim_id),
			entry {text} NOT NULL,
			created_at {ts} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS workflow_timers (
			timer_id VARCHAR(64) PRIMARY KEY,
			claim_id VARCHAR(64) NOT NULL REFERENCES claim(claim_id),
			expected_step_order INT NOT NULL,
			next_step_order INT,
			due_at {ts} NOT NULL,
			status VARCHAR(16) NOT NULL,
			created_at {ts} NOT NULL,
			fired_at {ts} NULL,
			CONSTRAINT workflow_timer_key UNIQUE (claim_id, expected_step_order)
		)`,
	}

	for i, s := range stmts {
		stmts[i] = r.Replace(s)
	}
	return stmts
}

// Migrate applies the schema idempotently.
func (d *SQLDB) Migrate(ctx context.Context) error {
	for _, stmt := range d.schema() {
		if _, err := d.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
