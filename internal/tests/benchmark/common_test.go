package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/yndnr/stmkit/internal/ledger"
	"github.com/yndnr/stmkit/pkg/agent"
	"github.com/yndnr/stmkit/pkg/stm"
)

// AccountCounts defines the ledger sizes for benchmarking. Fewer accounts
// mean more conflicting transfers.
var AccountCounts = []int{2, 16, 256}

// newLedger creates a ledger with count accounts of initial balance each.
func newLedger(b *testing.B, count int, initial int64) (*ledger.Ledger, []string) {
	b.Helper()
	d := agent.NewDispatcher()
	b.Cleanup(func() { d.Shutdown(context.Background()) })

	l, err := ledger.New(stm.NewRuntime(), d, ledger.WithHistoryLimit(1024))
	if err != nil {
		b.Fatalf("ledger.New failed: %v", err)
	}
	ids := make([]string, count)
	for i := range ids {
		ids[i] = fmt.Sprintf("acct-%d", i)
		if err := l.Open(ids[i], initial); err != nil {
			b.Fatalf("Open failed: %v", err)
		}
	}
	return l, ids
}

// reportMemory reports heap usage after a GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.HeapAlloc)/1024/1024, prefix+"_heap_MB")
}
