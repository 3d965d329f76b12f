package logger

import (
	"context"
	"testing"

	obscontext "github.com/smallbiznis/agencydesk/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContext_AddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-42")
	ctx = obscontext.WithActor(ctx, obscontext.Actor{ID: "agent-1", Role: "agent"})

	WithContext(ctx, base).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "agent-1", fields["actor_id"])
	assert.Equal(t, "agent", fields["actor_role"])
	assert.NotContains(t, fields, "trace_id")
}

func TestWithAgent(t *testing.T) {
	assert.Nil(t, WithAgent(nil, "x"))

	core, logs := observer.New(zapcore.InfoLevel)
	WithAgent(zap.New(core), " a-9 ").Info("ok")
	assert.Equal(t, "a-9", logs.All()[0].ContextMap()["agent_id"])
}

func TestNew_RejectsInvalidLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "loud"})
	assert.Error(t, err)
}

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("  select * from commission_packs"))
	assert.Equal(t, "UPDATE", operationFromSQL("UPDATE agent_commissions SET total_amount = 1"))
	assert.Equal(t, "INSERT", operationFromSQL("(INSERT INTO revenue_records VALUES (1))"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}
