package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionRoundTrip(t *testing.T) {
	ctx := WithCollection(context.Background(), "orders")

	got, err := GetCollectionFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "orders", got)
	assert.True(t, HasCollection(ctx))
}

func TestGetCollectionFromContext_Missing(t *testing.T) {
	_, err := GetCollectionFromContext(context.Background())
	assert.ErrorIs(t, err, ErrCollectionNotFound)
	assert.False(t, HasCollection(context.Background()))
}

func TestDocumentIDRoundTrip(t *testing.T) {
	ctx := WithDocumentID(context.Background(), "doc-123")

	got, err := GetDocumentIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "doc-123", got)
}

func TestOperationRoundTrip(t *testing.T) {
	ctx := WithOperation(context.Background(), "query")

	got, err := GetOperationFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "query", got)
	assert.Equal(t, "query", GetOperationOrDefault(ctx, "unknown"))
}

func TestSubscriptionIDRoundTrip(t *testing.T) {
	ctx := WithSubscriptionID(context.Background(), "sub-1")

	got, err := GetSubscriptionIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", got)
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")

	got, err := GetRequestIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "req-42", got)
	assert.True(t, HasRequestID(ctx))
}

func TestOrDefaultFallsBack(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "default", GetCollectionOrDefault(ctx, "default"))
	assert.Equal(t, "none", GetDocumentIDOrDefault(ctx, "none"))
	assert.Equal(t, "unknown", GetOperationOrDefault(ctx, "unknown"))
	assert.Equal(t, "", GetRequestIDOrDefault(ctx, ""))
}
