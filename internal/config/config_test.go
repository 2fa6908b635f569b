package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SQL_DRIVER", "postgres")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "CLAIM_APPROVAL_V1", cfg.DefaultWorkflowID)
	assert.True(t, cfg.PolicyApprovalRequired)
	assert.Equal(t, 7, cfg.OverdueDays)
	assert.Equal(t, 7, cfg.HighRiskThreshold)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SQL_DRIVER", "mysql")
	t.Setenv("ENGINE_WORKERS", "9")
	t.Setenv("TIMER_BATCH_SIZE", "-3")
	t.Setenv("POLICY_APPROVAL_REQUIRED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.SQLDriver)
	assert.Equal(t, 9, cfg.EngineWorkers)
	assert.Equal(t, 50, cfg.TimerBatchSize, "invalid values fall back to the default")
	assert.False(t, cfg.PolicyApprovalRequired)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("SQL_DRIVER", "sqlite")

	_, err := LoadConfig()

	assert.Error(t, err)
}
