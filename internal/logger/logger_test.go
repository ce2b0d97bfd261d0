package logger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewRequestIDIsUUID(t *testing.T) {
	id := NewRequestID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, NewRequestID())
}

func TestWithContextCarriesIDs(t *testing.T) {
	Init("debug", "text")
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, 7)
	assert.Equal(t, "req-1", ctx.Value(RequestIDKey))
	assert.Equal(t, uint64(7), ctx.Value(UserIDKey))
	assert.NotNil(t, WithContext(ctx))
}
