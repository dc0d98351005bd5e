package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetUser(ctx))
	assert.Equal(t, "", GetUserID(ctx))
	assert.False(t, HasRole(ctx, "pharmacist"))

	ctx = WithUser(ctx, &UserContext{UserID: "u-1", Roles: []string{"pharmacist"}})
	assert.Equal(t, "u-1", GetUserID(ctx))
	assert.True(t, HasRole(ctx, "pharmacist"))
	assert.False(t, HasRole(ctx, "admin"))
}

func TestTraceContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetRequestID(ctx))

	tc := NewTraceContext()
	ctx = WithTrace(ctx, tc)
	assert.Equal(t, tc.RequestID, GetRequestID(ctx))
	assert.NotEmpty(t, GetTrace(ctx).TraceID)
}
