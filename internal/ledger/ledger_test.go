package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/stmkit/pkg/agent"
	"github.com/yndnr/stmkit/pkg/stm"
)

func newLedger(t *testing.T, opts ...Option) *Ledger {
	t.Helper()
	d := agent.NewDispatcher()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = d.Shutdown(ctx)
	})
	l, err := New(stm.NewRuntime(), d, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}

func syncAudit(t *testing.T, l *Ledger) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
}

type countingObserver struct {
	mu      sync.Mutex
	results map[string]int
}

func (o *countingObserver) Transferred(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.results == nil {
		o.results = make(map[string]int)
	}
	o.results[result]++
}

func (o *countingObserver) count(result string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.results[result]
}

func TestOpen(t *testing.T) {
	l := newLedger(t)

	if err := l.Open("alice", 100); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if b, err := l.Balance("alice"); err != nil || b != 100 {
		t.Errorf("Balance(alice) = (%d, %v), want (100, nil)", b, err)
	}

	tests := []struct {
		name    string
		id      string
		initial int64
		wantErr error
	}{
		{"duplicate", "alice", 5, ErrAccountConflict},
		{"empty id", "", 5, ErrInvalidArgument},
		{"negative", "bob", -1, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := l.Open(tt.id, tt.initial); !errors.Is(err, tt.wantErr) {
				t.Errorf("Open(%q, %d) error = %v, want %v", tt.id, tt.initial, err, tt.wantErr)
			}
		})
	}

	if b, _ := l.Balance("alice"); b != 100 {
		t.Errorf("duplicate Open changed balance to %d", b)
	}
	if _, err := l.Balance("nobody"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Balance(nobody) error = %v, want ErrAccountNotFound", err)
	}
}

func TestTransfer(t *testing.T) {
	obs := &countingObserver{}
	l := newLedger(t, WithObserver(obs))
	_ = l.Open("a", 100)
	_ = l.Open("b", 0)
	ctx := context.Background()

	if err := l.Transfer(ctx, "a", "b", 30); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if b, _ := l.Balance("a"); b != 70 {
		t.Errorf("Balance(a) = %d, want 70", b)
	}
	if b, _ := l.Balance("b"); b != 30 {
		t.Errorf("Balance(b) = %d, want 30", b)
	}
	if obs.count("ok") != 1 {
		t.Errorf("ok transfers = %d, want 1", obs.count("ok"))
	}
}

func TestTransfer_Overdraft(t *testing.T) {
	obs := &countingObserver{}
	l := newLedger(t, WithObserver(obs))
	_ = l.Open("a", 10)
	_ = l.Open("b", 0)

	err := l.Transfer(context.Background(), "a", "b", 11)
	if !errors.Is(err, stm.ErrInvalidState) {
		t.Errorf("Transfer() error = %v, want ErrInvalidState", err)
	}
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Transfer() error = %v, want ErrInsufficientFunds in chain", err)
	}
	if b, _ := l.Balance("a"); b != 10 {
		t.Errorf("Balance(a) = %d, want 10", b)
	}
	if b, _ := l.Balance("b"); b != 0 {
		t.Errorf("Balance(b) = %d, want 0", b)
	}
	if obs.count("rejected") != 1 {
		t.Errorf("rejected transfers = %d, want 1", obs.count("rejected"))
	}

	syncAudit(t, l)
	for _, e := range l.Audit() {
		if e.Kind == KindTransfer {
			t.Errorf("rejected transfer was audited: %+v", e)
		}
	}
}

func TestTransfer_InvalidArguments(t *testing.T) {
	l := newLedger(t)
	_ = l.Open("a", 10)
	_ = l.Open("b", 10)
	ctx := context.Background()

	tests := []struct {
		name     string
		from, to string
		amount   int64
		wantErr  error
	}{
		{"zero amount", "a", "b", 0, ErrInvalidArgument},
		{"negative amount", "a", "b", -5, ErrInvalidArgument},
		{"same account", "a", "a", 1, ErrInvalidArgument},
		{"unknown source", "x", "b", 1, ErrAccountNotFound},
		{"unknown target", "a", "x", 1, ErrAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.Transfer(ctx, tt.from, tt.to, tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Transfer() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransfer_ConcurrentPreservesTotal(t *testing.T) {
	l := newLedger(t)
	const (
		accounts = 8
		initial  = 1000
		workers  = 8
		perWork  = 200
	)
	for i := 0; i < accounts; i++ {
		_ = l.Open(fmt.Sprintf("acct-%d", i), initial)
	}
	want := int64(accounts * initial)
	ctx := context.Background()

	stop := make(chan struct{})
	var bad atomic.Int64
	var checker sync.WaitGroup
	checker.Add(1)
	go func() {
		defer checker.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			total, err := l.Total(ctx)
			if err == nil && total != want {
				bad.Store(total)
			}
		}
	}()

	var committed atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				from := rand.IntN(accounts)
				to := (from + 1 + rand.IntN(accounts-1)) % accounts
				err := l.Transfer(ctx, fmt.Sprintf("acct-%d", from), fmt.Sprintf("acct-%d", to), int64(1+rand.IntN(50)))
				switch {
				case err == nil:
					committed.Add(1)
				case errors.Is(err, stm.ErrInvalidState):
				default:
					t.Errorf("Transfer() error = %v", err)
				}
			}
		}()
	}
	wg.Wait()
	close(stop)
	checker.Wait()

	if v := bad.Load(); v != 0 {
		t.Errorf("Total observed %d during transfers, want %d", v, want)
	}
	total, err := l.Total(ctx)
	if err != nil || total != want {
		t.Errorf("Total() = (%d, %v), want (%d, nil)", total, err, want)
	}

	balances, _ := l.Snapshot(ctx)
	for id, b := range balances {
		if b < 0 {
			t.Errorf("balance of %s = %d, want >= 0", id, b)
		}
	}

	syncAudit(t, l)
	transfers := 0
	for _, e := range l.Audit() {
		if e.Kind == KindTransfer {
			transfers++
		}
	}
	if int64(transfers) != committed.Load() {
		t.Errorf("audited transfers = %d, want %d", transfers, committed.Load())
	}
}

func TestDeposit_Concurrent(t *testing.T) {
	l := newLedger(t)
	_ = l.Open("pool", 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := l.Deposit(ctx, "pool", 2); err != nil {
					t.Errorf("Deposit() error = %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if b, _ := l.Balance("pool"); b != 2000 {
		t.Errorf("Balance(pool) = %d, want 2000", b)
	}
	if err := l.Deposit(ctx, "pool", 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Deposit(0) error = %v, want ErrInvalidArgument", err)
	}
	if err := l.Deposit(ctx, "nobody", 1); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Deposit(nobody) error = %v, want ErrAccountNotFound", err)
	}
}

func TestAudit(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	_ = l.Open("a", 50)
	_ = l.Open("b", 0)
	_ = l.Transfer(ctx, "a", "b", 20)
	_ = l.Deposit(ctx, "b", 5)
	syncAudit(t, l)

	entries := l.Audit()
	if len(entries) != 4 {
		t.Fatalf("Audit() has %d entries, want 4: %+v", len(entries), entries)
	}
	kinds := []Kind{KindOpen, KindOpen, KindTransfer, KindDeposit}
	for i, k := range kinds {
		if entries[i].Kind != k {
			t.Errorf("entries[%d].Kind = %s, want %s", i, entries[i].Kind, k)
		}
	}
	tr := entries[2]
	if tr.From != "a" || tr.To != "b" || tr.Amount != 20 || tr.TxnID == "" {
		t.Errorf("transfer entry = %+v", tr)
	}
}

func TestAudit_HistoryLimit(t *testing.T) {
	l := newLedger(t, WithHistoryLimit(3))
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		_ = l.Open(id, 1)
	}
	syncAudit(t, l)

	entries := l.Audit()
	if len(entries) != 3 {
		t.Fatalf("Audit() has %d entries, want 3", len(entries))
	}
	if entries[0].To != "c" || entries[2].To != "e" {
		t.Errorf("Audit() kept %v..%v, want c..e", entries[0].To, entries[2].To)
	}
}

func TestAudit_ReturnedSliceIsStable(t *testing.T) {
	l := newLedger(t)
	_ = l.Open("a", 1)
	syncAudit(t, l)
	before := l.Audit()

	_ = l.Open("b", 1)
	syncAudit(t, l)

	if len(before) != 1 || before[0].To != "a" {
		t.Errorf("earlier Audit() result changed: %+v", before)
	}
}

func TestTransfer_RateLimited(t *testing.T) {
	lim, err := NewLimiter(0.001, 2)
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}
	obs := &countingObserver{}
	l := newLedger(t, WithLimiter(lim), WithObserver(obs))
	_ = l.Open("a", 100)
	_ = l.Open("b", 0)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Transfer(ctx, "a", "b", 1); err != nil {
			t.Fatalf("Transfer() #%d error = %v", i, err)
		}
	}
	if err := l.Transfer(ctx, "a", "b", 1); !errors.Is(err, ErrRateLimited) {
		t.Errorf("third Transfer() error = %v, want ErrRateLimited", err)
	}
	if b, _ := l.Balance("b"); b != 2 {
		t.Errorf("Balance(b) = %d, want 2", b)
	}
	if obs.count("limited") != 1 {
		t.Errorf("limited = %d, want 1", obs.count("limited"))
	}
	if l.Limiter() != lim {
		t.Error("Limiter() should return the configured limiter")
	}
}

func TestAccounts(t *testing.T) {
	l := newLedger(t, WithShardCount(4))
	for _, id := range []string{"carol", "alice", "bob"} {
		_ = l.Open(id, 0)
	}
	got := l.Accounts()
	want := []string{"alice", "bob", "carol"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Accounts() = %v, want %v", got, want)
			break
		}
	}
}
