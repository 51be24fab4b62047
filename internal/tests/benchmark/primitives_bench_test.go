package benchmark

import (
	"context"
	"testing"

	"github.com/yndnr/stmkit/pkg/agent"
	"github.com/yndnr/stmkit/pkg/cell"
	"github.com/yndnr/stmkit/pkg/stm"
)

func inc(n int64) int64 { return n + 1 }

// BenchmarkCellUpdate benchmarks uncontended cell updates.
func BenchmarkCellUpdate(b *testing.B) {
	c, _ := cell.New[int64](0)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := c.Update(inc); err != nil {
			b.Fatalf("Update failed: %v", err)
		}
	}
}

// BenchmarkCellUpdate_Contended benchmarks cell updates from all Ps.
func BenchmarkCellUpdate_Contended(b *testing.B) {
	c, _ := cell.New[int64](0)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := c.Update(inc); err != nil {
				b.Errorf("Update failed: %v", err)
				return
			}
		}
	})
}

// BenchmarkRefRead benchmarks read-only transactions.
func BenchmarkRefRead(b *testing.B) {
	ctx := context.Background()
	rt := stm.NewRuntime()
	ref, _ := stm.NewRef[int64](42)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, err := stm.Atomically(ctx, rt, func(tx *stm.Txn) (int64, error) {
			return ref.Read(tx), nil
		})
		if err != nil {
			b.Fatalf("Atomically failed: %v", err)
		}
	}
}

// BenchmarkRefAlter_Contended benchmarks alter on one hot ref.
func BenchmarkRefAlter_Contended(b *testing.B) {
	benchmarkHotRef(b, func(tx *stm.Txn, ref *stm.Ref[int64]) {
		ref.Alter(tx, inc)
	})
}

// BenchmarkRefCommute_Contended benchmarks commute on one hot ref.
func BenchmarkRefCommute_Contended(b *testing.B) {
	benchmarkHotRef(b, func(tx *stm.Txn, ref *stm.Ref[int64]) {
		ref.Commute(tx, inc)
	})
}

func benchmarkHotRef(b *testing.B, op func(*stm.Txn, *stm.Ref[int64])) {
	ctx := context.Background()
	rt := stm.NewRuntime()
	ref, _ := stm.NewRef[int64](0)

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			err := rt.Do(ctx, func(tx *stm.Txn) error {
				op(tx, ref)
				return nil
			})
			if err != nil {
				b.Errorf("Do failed: %v", err)
				return
			}
		}
	})
	b.StopTimer()
	if got := ref.Deref(); got != int64(b.N) {
		b.Fatalf("ref = %d, want %d", got, b.N)
	}
}

// BenchmarkAgentSend benchmarks send throughput per class, including
// draining the mailbox.
func BenchmarkAgentSend(b *testing.B) {
	for _, class := range []agent.Class{agent.ClassCPU, agent.ClassIO} {
		b.Run(class.String(), func(b *testing.B) {
			d := agent.NewDispatcher()
			defer d.Shutdown(context.Background())
			a, _ := agent.New(d, int64(0))
			action := func(n int64) (int64, error) { return n + 1, nil }

			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if err := a.SendClass(action, class); err != nil {
					b.Fatalf("Send failed: %v", err)
				}
			}
			if err := a.Await(context.Background()); err != nil {
				b.Fatalf("Await failed: %v", err)
			}
			b.StopTimer()
			if got := a.Deref(); got != int64(b.N) {
				b.Fatalf("agent = %d, want %d", got, b.N)
			}
		})
	}
}
