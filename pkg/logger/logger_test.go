package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "pharmaledger/internal/core/context"
)

func TestFromContext_AddsActorAndTrace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{zap.New(core).Sugar()}

	ctx := WithLogger(context.Background(), l)
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "actor-1"})
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})

	Info(ctx, "invoice created", "no_invoice", "INV-1")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "invoice created", entries[0].Message)
		assert.Equal(t, "actor-1", fields["actor_id"])
		assert.Equal(t, "t-1", fields["trace_id"])
		assert.Equal(t, "r-1", fields["request_id"])
		assert.Equal(t, "INV-1", fields["no_invoice"])
	}
}

func TestNew_FallsBackToInfoOnBadLevel(t *testing.T) {
	l, err := New(Config{Level: "loud", OutputPaths: []string{"stderr"}})
	assert.NoError(t, err)
	assert.NotNil(t, l)
	assert.False(t, l.Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Desugar().Core().Enabled(zap.InfoLevel))
}

func TestWithComponent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := (&Logger{zap.New(core).Sugar()}).WithComponent("stock")
	l.Infow("upsert")
	assert.Equal(t, "stock", logs.All()[0].ContextMap()["component"])
}
