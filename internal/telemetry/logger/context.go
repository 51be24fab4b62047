package logger

import "context"

// contextKey is a type for context keys to avoid collisions.
type contextKey string

const (
	loggerKey contextKey = "stmkit.logger"
	txnIDKey  contextKey = "stmkit.txn_id"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithTxnID adds a transaction ID to the context.
func WithTxnID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, txnIDKey, id)
}

// TxnIDFromContext extracts the transaction ID from context.
func TxnIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(txnIDKey).(string); ok {
		return id
	}
	return ""
}

// L is a shorthand for FromContext that also enriches the logger
// with the transaction ID from the context.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	if id := TxnIDFromContext(ctx); id != "" {
		l = l.With("txn_id", id)
	}
	return l
}
