package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyBrokerID  contextKey = "broker_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithBrokerID adds a broker ID to the context
func WithBrokerID(ctx context.Context, brokerID string) context.Context {
	return context.WithValue(ctx, ContextKeyBrokerID, brokerID)
}

// BrokerIDFromContext extracts the broker ID from context
func BrokerIDFromContext(ctx context.Context) string {
	if brokerID, ok := ctx.Value(ContextKeyBrokerID).(string); ok {
		return brokerID
	}
	return ""
}
