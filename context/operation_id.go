// Package context provides context utilities for tracking repository operations
package context

import (
	stdctx "context"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey int

const (
	// OperationIDKey is the context key for operation IDs
	OperationIDKey contextKey = iota
)

// NewOperationID generates a new unique operation ID
func NewOperationID() string {
	return uuid.New().String()
}

// WithOperationID adds an operation ID to the context
func WithOperationID(parent stdctx.Context, operationID string) stdctx.Context {
	return stdctx.WithValue(parent, OperationIDKey, operationID)
}

// OperationIDFromContext extracts the operation ID from the context
func OperationIDFromContext(ctx stdctx.Context) string {
	if ctx == nil {
		return ""
	}
	if operationID, ok := ctx.Value(OperationIDKey).(string); ok {
		return operationID
	}
	return ""
}

// EnsureOperationID returns ctx unchanged if it already carries an operation
// ID, otherwise a child context tagged with a fresh one.
func EnsureOperationID(ctx stdctx.Context) (stdctx.Context, string) {
	if ctx == nil {
		ctx = stdctx.Background()
	}
	if id := OperationIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := NewOperationID()
	return WithOperationID(ctx, id), id
}
