package logger

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	common_models "go-claims/internal/common/models"
	"go-claims/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type recordingSink struct {
	mu      sync.Mutex
	records []common_models.Log
}

func (s *recordingSink) Insert(_ context.Context, record common_models.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *recordingSink) snapshot() []common_models.Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]common_models.Log(nil), s.records...)
}

func TestDBCoreTeesEntriesWithClaimFields(t *testing.T) {
	sink := &recordingSink{}
	writer := NewDBLogWriter(sink, &config.Config{AppId: "go-claims-test"})
	base := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(io.Discard), zapcore.DebugLevel)
	log := zap.New(NewDBCore(base, writer))

	log.Warn("step halted", zap.String("claimId", "CLM_1"), zap.String("customerId", "CUST_9"))

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	got := sink.snapshot()[0]
	assert.Equal(t, "step halted", got.Message)
	assert.Equal(t, "CLM_1", got.ClaimId)
	assert.Equal(t, "CUST_9", got.CustomerId)
	assert.Equal(t, 30, got.LogLevelId)
	assert.Equal(t, "go-claims-test", got.AppId)
}

func TestMapLevelToInt(t *testing.T) {
	assert.Equal(t, 10, mapLevelToInt(zapcore.DebugLevel))
	assert.Equal(t, 40, mapLevelToInt(zapcore.ErrorLevel))
	assert.Equal(t, 20, mapLevelToInt(zapcore.DPanicLevel))
}
