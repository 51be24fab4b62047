package logger

import (
	"bytes"
	"context"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf)

	ctx := WithLogger(context.Background(), l)

	retrieved := FromContext(ctx)
	if retrieved == nil {
		t.Fatal("FromContext returned nil")
	}
	retrieved.Info("test message")

	if buf.Len() == 0 {
		t.Error("Logger from context should produce output")
	}
}

func TestFromContext_Default(t *testing.T) {
	if l := FromContext(context.Background()); l == nil {
		t.Error("FromContext should return default logger, got nil")
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if got := TxnIDFromContext(ctx); got != "" {
		t.Errorf("TxnIDFromContext() on empty context = %q, want empty", got)
	}

	ctx = WithTxnID(ctx, "01JB2Q8ZK3M5X7Y9A1B2C3D4E5")
	if got := TxnIDFromContext(ctx); got != "01JB2Q8ZK3M5X7Y9A1B2C3D4E5" {
		t.Errorf("TxnIDFromContext() = %q", got)
	}
}

func TestL(t *testing.T) {
	tests := []struct {
		name  string
		txnID string
	}{
		{"no id", ""},
		{"txn id", "01JB2Q8ZK3M5X7Y9A1B2C3D4E5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := WithLogger(context.Background(), newJSONLogger(t, &buf))
			if tt.txnID != "" {
				ctx = WithTxnID(ctx, tt.txnID)
			}

			L(ctx).Info("test message")
			entry := decode(t, &buf)

			if got, _ := entry["txn_id"].(string); got != tt.txnID {
				t.Errorf("txn_id = %q, want %q", got, tt.txnID)
			}
		})
	}
}
