package cell

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func nonNegative(n int) error {
	if n < 0 {
		return fmt.Errorf("value %d below zero", n)
	}
	return nil
}

type countingObserver struct {
	swapped  atomic.Int64
	retries  atomic.Int64
	rejected atomic.Int64
}

func (o *countingObserver) Swapped(_ string, retries int) {
	o.swapped.Add(1)
	o.retries.Add(int64(retries))
}

func (o *countingObserver) Rejected(string) {
	o.rejected.Add(1)
}

func TestNew(t *testing.T) {
	c, err := New(7, WithName[int]("hits"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := c.Deref(); got != 7 {
		t.Errorf("Deref() = %d, want 7", got)
	}
	if got := c.Version(); got != 0 {
		t.Errorf("Version() = %d, want 0", got)
	}
	if got := c.Name(); got != "hits" {
		t.Errorf("Name() = %q, want hits", got)
	}
}

func TestNew_InvalidInitial(t *testing.T) {
	_, err := New(-1, WithValidator(nonNegative))
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("New() error = %v, want ErrInvalidState", err)
	}
}

func TestUpdate(t *testing.T) {
	var seen [][2]int
	c, _ := New(1, WithWatch(func(old, new int) {
		seen = append(seen, [2]int{old, new})
	}))

	got, err := c.Update(func(n int) int { return n * 10 })
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got != 10 {
		t.Errorf("Update() = %d, want 10", got)
	}
	if v, ver := c.Snapshot(); v != 10 || ver != 1 {
		t.Errorf("Snapshot() = (%d, %d), want (10, 1)", v, ver)
	}
	if len(seen) != 1 || seen[0] != [2]int{1, 10} {
		t.Errorf("watch calls = %v, want [[1 10]]", seen)
	}
}

func TestUpdate_NilFunction(t *testing.T) {
	c, _ := New(0)
	if _, err := c.Update(nil); !errors.Is(err, ErrMissingArgument) {
		t.Errorf("Update(nil) error = %v, want ErrMissingArgument", err)
	}
}

func TestUpdate_ValidatorRejects(t *testing.T) {
	obs := &countingObserver{}
	watched := false
	c, _ := New(3,
		WithValidator(nonNegative),
		WithObserver[int](obs),
		WithWatch(func(int, int) { watched = true }),
	)

	calls := 0
	_, err := c.Update(func(n int) int {
		calls++
		return n - 5
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Update() error = %v, want ErrInvalidState", err)
	}
	if calls != 1 {
		t.Errorf("update function called %d times, want 1", calls)
	}
	if v, ver := c.Snapshot(); v != 3 || ver != 0 {
		t.Errorf("Snapshot() = (%d, %d), want (3, 0)", v, ver)
	}
	if watched {
		t.Error("watch should not fire on rejection")
	}
	if got := obs.rejected.Load(); got != 1 {
		t.Errorf("rejected = %d, want 1", got)
	}
}

func TestSet(t *testing.T) {
	c, _ := New("a", WithValidator(func(s string) error {
		if s == "" {
			return errors.New("empty")
		}
		return nil
	}))

	if got, err := c.Set("b"); err != nil || got != "b" {
		t.Errorf("Set(b) = (%q, %v), want (b, nil)", got, err)
	}
	if _, err := c.Set(""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Set(\"\") error = %v, want ErrInvalidState", err)
	}
	if got := c.Deref(); got != "b" {
		t.Errorf("Deref() = %q, want b", got)
	}
}

func TestCompareAndSet(t *testing.T) {
	c, _ := New(1, WithValidator(nonNegative))

	ok, err := c.CompareAndSet(0, 2)
	if err != nil || !ok {
		t.Fatalf("CompareAndSet(0, 2) = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = c.CompareAndSet(0, 3)
	if err != nil || ok {
		t.Errorf("CompareAndSet with stale version = (%v, %v), want (false, nil)", ok, err)
	}
	if _, err := c.CompareAndSet(1, -1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("CompareAndSet(1, -1) error = %v, want ErrInvalidState", err)
	}
	if v, ver := c.Snapshot(); v != 2 || ver != 1 {
		t.Errorf("Snapshot() = (%d, %d), want (2, 1)", v, ver)
	}
}

func TestCompareAndSet_OneWinnerPerVersion(t *testing.T) {
	const goroutines = 16

	var mu sync.Mutex
	var calls [][2]int
	c, _ := New(0, WithWatch[int](func(old, new int) {
		mu.Lock()
		calls = append(calls, [2]int{old, new})
		mu.Unlock()
	}))

	var wins atomic.Int64
	var winner atomic.Int64
	var wg sync.WaitGroup
	for i := 1; i <= goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := c.CompareAndSet(0, i)
			if err != nil {
				t.Errorf("CompareAndSet() error = %v", err)
			}
			if ok {
				wins.Add(1)
				winner.Store(int64(i))
			}
		}()
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Fatalf("winners = %d, want 1", got)
	}
	v, ver := c.Snapshot()
	if int64(v) != winner.Load() || ver != 1 {
		t.Errorf("Snapshot() = (%d, %d), want (%d, 1)", v, ver, winner.Load())
	}
	if len(calls) != 1 || calls[0] != [2]int{0, v} {
		t.Errorf("watch calls = %v, want [[0 %d]]", calls, v)
	}
}

func TestUpdate_Concurrent(t *testing.T) {
	const goroutines, increments = 16, 1000

	obs := &countingObserver{}
	c, _ := New(0, WithObserver[int](obs))

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				if _, err := c.Update(func(n int) int { return n + 1 }); err != nil {
					t.Errorf("Update() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	want := goroutines * increments
	if got := c.Deref(); got != want {
		t.Errorf("Deref() = %d, want %d", got, want)
	}
	if got := c.Version(); got != uint64(want) {
		t.Errorf("Version() = %d, want %d", got, want)
	}
	if got := obs.swapped.Load(); got != int64(want) {
		t.Errorf("swapped = %d, want %d", got, want)
	}
}
