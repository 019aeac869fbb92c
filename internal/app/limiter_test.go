package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchLimiter_AcquireRelease(t *testing.T) {
	l := NewFetchLimiter(1)

	ctx := context.Background()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		_ = l.Acquire(ctx)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatalf("second acquire should block")
	case <-time.After(50 * time.Millisecond):
	}

	l.Release()
	select {
	case <-acquired:
	case <-time.After(250 * time.Millisecond):
		t.Fatalf("second acquire should have proceeded")
	}

	l.Release()
	if !l.sem.TryAcquire(1) {
		t.Fatalf("expected a free slot after releases")
	}
}

func TestFetchLimiter_DefaultLimit(t *testing.T) {
	if got := NewFetchLimiter(0).Limit(); got != 1 {
		t.Fatalf("limit: want 1, got %d", got)
	}
}

func TestFetchLimiter_AcquireHonorsContext(t *testing.T) {
	l := NewFetchLimiter(1)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := l.Acquire(ctx); err == nil {
		t.Fatalf("expected error")
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Fatalf("expected acquire to wait for context timeout")
	}

	l.Release()
}

func TestGuideFetcher_WithLimiterCapsConcurrency(t *testing.T) {
	var inFlight, peak int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		_, _ = w.Write([]byte(onePayload))
	}))
	defer ts.Close()

	f := newTestFetcher(ts.URL).WithLimiter(NewFetchLimiter(1))

	var wg sync.WaitGroup
	for _, id := range []string{"1", "2", "3"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := f.Fetch(context.Background(), id, guideDay()); err != nil {
				t.Errorf("fetch %s: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&peak); got != 1 {
		t.Fatalf("peak concurrency: want 1, got %d", got)
	}
}
