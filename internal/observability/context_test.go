package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RunIDFromContext(ctx))

	ctx = WithRunID(ctx, "run-42")
	assert.Equal(t, "run-42", RunIDFromContext(ctx))
}

func TestRunIDWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), runIDKey, 7)
	assert.Empty(t, RunIDFromContext(ctx))
}
