package guard

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestTryAcquireRelease(t *testing.T) {
	r := New()
	if err := r.TryAcquire("arena-1"); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if err := r.TryAcquire("arena-1"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if err := r.TryAcquire("arena-2"); err != nil {
		t.Fatalf("other arena should be independent: %v", err)
	}
	r.Release("arena-1")
	if r.Active("arena-1") {
		t.Error("arena-1 still active after release")
	}
	if err := r.TryAcquire("arena-1"); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	r.Release("missing")
	if r.Len() != 2 {
		t.Errorf("expected 2 active, got %d", r.Len())
	}
}

func TestTryAcquireMutualExclusion(t *testing.T) {
	r := New()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.TryAcquire("arena") == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
}
