package gate

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(limit int, window time.Duration, clk *fakeClock) *FixedWindowLimiter {
	l := NewFixedWindowLimiter(limit, window)
	l.now = clk.Now
	return l
}

func TestLimiter_EleventhCallDenied(t *testing.T) {
	clk := newFakeClock()
	l := newTestLimiter(10, time.Minute, clk)

	for i := 1; i <= 10; i++ {
		if !l.TryAcquire("u1") {
			t.Fatalf("call %d should be allowed", i)
		}
		clk.Advance(time.Second)
	}
	if l.TryAcquire("u1") {
		t.Fatalf("11th call within the window should be denied")
	}
}

func TestLimiter_RetryAfterAndBoundaryReset(t *testing.T) {
	clk := newFakeClock()
	l := newTestLimiter(2, time.Minute, clk)

	l.Acquire("u1")
	clk.Advance(20 * time.Second)
	l.Acquire("u1")

	d := l.Acquire("u1")
	if d.Allowed {
		t.Fatalf("third call should be denied")
	}
	if d.RetryAfter != 40*time.Second {
		t.Fatalf("RetryAfter = %v; want 40s", d.RetryAfter)
	}

	// Exactly at the reset instant a new window opens.
	clk.Advance(40 * time.Second)
	d = l.Acquire("u1")
	if !d.Allowed || d.RetryAfter != 0 {
		t.Fatalf("call at reset instant should open a new window, got %+v", d)
	}
	if !l.TryAcquire("u1") {
		t.Fatalf("second call of new window should be allowed")
	}
	if l.TryAcquire("u1") {
		t.Fatalf("third call of new window should be denied")
	}
}

func TestLimiter_UsersAreIndependent(t *testing.T) {
	clk := newFakeClock()
	l := newTestLimiter(1, time.Minute, clk)

	if !l.TryAcquire("a") {
		t.Fatalf("first call for a should be allowed")
	}
	if l.TryAcquire("a") {
		t.Fatalf("a should be limited")
	}
	if !l.TryAcquire("b") {
		t.Fatalf("b's quota must not be consumed by a")
	}
}

func TestLimiter_Defaults(t *testing.T) {
	l := NewFixedWindowLimiter(0, 0)
	if l.limit != 10 || l.window != time.Minute {
		t.Fatalf("defaults = %d/%v; want 10/1m", l.limit, l.window)
	}
}

func TestLimiter_ConcurrentAdmissionsNeverExceedLimit(t *testing.T) {
	clk := newFakeClock()
	l := newTestLimiter(50, time.Hour, clk)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire("hot") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 50 {
		t.Fatalf("allowed = %d; want 50", allowed)
	}
}

func TestLimiter_GCDropsExpiredWindows(t *testing.T) {
	clk := newFakeClock()
	l := newTestLimiter(1, time.Second, clk)

	l.Acquire("stale")
	clk.Advance(2 * time.Second)
	for i := 0; i < 5000; i++ {
		l.Acquire("fresh")
	}
	l.mu.Lock()
	_, ok := l.windows["stale"]
	l.mu.Unlock()
	if ok {
		t.Fatalf("expired window should have been collected")
	}
}
