package utils

import (
	"context"
	"errors"

	"docstore/internal/shared/contextkeys"
)

// Common context errors
var (
	ErrCollectionNotFound    = errors.New("collection not found in context")
	ErrCollectionNotString   = errors.New("collection in context is not a string")
	ErrDocumentIDNotFound    = errors.New("documentID not found in context")
	ErrDocumentIDNotString   = errors.New("documentID in context is not a string")
	ErrOperationNotFound     = errors.New("operation not found in context")
	ErrOperationNotString    = errors.New("operation in context is not a string")
	ErrSubscriptionNotFound  = errors.New("subscriptionID not found in context")
	ErrSubscriptionNotString = errors.New("subscriptionID in context is not a string")
	ErrRequestIDNotFound     = errors.New("requestID not found in context")
	ErrRequestIDNotString    = errors.New("requestID in context is not a string")
)

// GetCollectionFromContext retrieves the collection name from the context.
// It returns the collection name and an error if the value is not found or is not a string.
func GetCollectionFromContext(ctx context.Context) (string, error) {
	val := ctx.Value(contextkeys.CollectionKey)
	if val == nil {
		return "", ErrCollectionNotFound
	}
	collection, ok := val.(string)
	if !ok {
		return "", ErrCollectionNotString
	}
	return collection, nil
}

// GetDocumentIDFromContext retrieves the document ID from the context.
func GetDocumentIDFromContext(ctx context.Context) (string, error) {
	val := ctx.Value(contextkeys.DocumentIDKey)
	if val == nil {
		return "", ErrDocumentIDNotFound
	}
	documentID, ok := val.(string)
	if !ok {
		return "", ErrDocumentIDNotString
	}
	return documentID, nil
}

// GetOperationFromContext retrieves the operation name from the context.
func GetOperationFromContext(ctx context.Context) (string, error) {
	val := ctx.Value(contextkeys.OperationKey)
	if val == nil {
		return "", ErrOperationNotFound
	}
	operation, ok := val.(string)
	if !ok {
		return "", ErrOperationNotString
	}
	return operation, nil
}

// GetSubscriptionIDFromContext retrieves the subscription ID from the context.
func GetSubscriptionIDFromContext(ctx context.Context) (string, error) {
	val := ctx.Value(contextkeys.SubscriptionIDKey)
	if val == nil {
		return "", ErrSubscriptionNotFound
	}
	subscriptionID, ok := val.(string)
	if !ok {
		return "", ErrSubscriptionNotString
	}
	return subscriptionID, nil
}

// GetRequestIDFromContext retrieves the request ID from the context.
func GetRequestIDFromContext(ctx context.Context) (string, error) {
	val := ctx.Value(contextkeys.RequestIDKey)
	if val == nil {
		return "", ErrRequestIDNotFound
	}
	requestID, ok := val.(string)
	if !ok {
		return "", ErrRequestIDNotString
	}
	return requestID, nil
}

// Context builder functions

// WithCollection adds the collection name to context
func WithCollection(ctx context.Context, collection string) context.Context {
	return context.WithValue(ctx, contextkeys.CollectionKey, collection)
}

// WithDocumentID adds the document ID to context
func WithDocumentID(ctx context.Context, documentID string) context.Context {
	return context.WithValue(ctx, contextkeys.DocumentIDKey, documentID)
}

// WithOperation adds the operation name to context
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, contextkeys.OperationKey, operation)
}

// WithSubscriptionID adds the subscription ID to context
func WithSubscriptionID(ctx context.Context, subscriptionID string) context.Context {
	return context.WithValue(ctx, contextkeys.SubscriptionIDKey, subscriptionID)
}

// WithRequestID adds a caller-supplied request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextkeys.RequestIDKey, requestID)
}

// Optional getters that return default values instead of errors

// GetCollectionOrDefault retrieves the collection name from context or returns a default value
func GetCollectionOrDefault(ctx context.Context, def string) string {
	if v, err := GetCollectionFromContext(ctx); err == nil {
		return v
	}
	return def
}

// GetDocumentIDOrDefault retrieves the document ID from context or returns a default value
func GetDocumentIDOrDefault(ctx context.Context, def string) string {
	if v, err := GetDocumentIDFromContext(ctx); err == nil {
		return v
	}
	return def
}

// GetOperationOrDefault retrieves the operation name from context or returns a default value
func GetOperationOrDefault(ctx context.Context, def string) string {
	if v, err := GetOperationFromContext(ctx); err == nil {
		return v
	}
	return def
}

// GetRequestIDOrDefault retrieves the request ID from context or returns a default value
func GetRequestIDOrDefault(ctx context.Context, def string) string {
	if v, err := GetRequestIDFromContext(ctx); err == nil {
		return v
	}
	return def
}

// HasX checks
func HasCollection(ctx context.Context) bool {
	_, err := GetCollectionFromContext(ctx)
	return err == nil
}

func HasDocumentID(ctx context.Context) bool {
	_, err := GetDocumentIDFromContext(ctx)
	return err == nil
}

func HasRequestID(ctx context.Context) bool {
	_, err := GetRequestIDFromContext(ctx)
	return err == nil
}
