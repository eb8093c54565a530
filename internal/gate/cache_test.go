package gate

import (
	"fmt"
	"testing"
	"time"
)

type payload struct {
	Budgets  []string `json:"budgets"`
	Expenses []string `json:"expenses"`
}

func newTestCache(ttl time.Duration, threshold int, clk *fakeClock) *Cache {
	c := NewCache(ttl, threshold)
	c.now = clk.Now
	return c
}

func TestCache_SetThenGetAndExpiry(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(time.Hour, 1000, clk)
	data := payload{Budgets: []string{"Food"}, Expenses: []string{"12.50"}}

	if err := c.Set("u1", "how am I doing?", data, "fine"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := c.Get("u1", "how am I doing?", data)
	if !ok || got != "fine" {
		t.Fatalf("Get = %q,%v; want fine,true", got, ok)
	}

	clk.Advance(59 * time.Minute)
	if _, ok := c.Get("u1", "how am I doing?", data); !ok {
		t.Fatalf("entry should still be live before TTL")
	}

	clk.Advance(time.Minute)
	if _, ok := c.Get("u1", "how am I doing?", data); ok {
		t.Fatalf("entry should be expired at TTL")
	}
	if c.size() != 0 {
		t.Fatalf("expired entry should be deleted on lookup, len=%d", c.size())
	}
}

func TestCache_KeyComponents(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(time.Hour, 1000, clk)
	data := payload{Expenses: []string{"a", "b"}}
	_ = c.Set("u1", "p", data, "r")

	if _, ok := c.Get("u2", "p", data); ok {
		t.Fatalf("other user must miss")
	}
	if _, ok := c.Get("u1", "p ", data); ok {
		t.Fatalf("prompt must match exactly")
	}
	if _, ok := c.Get("u1", "p", payload{Expenses: []string{"b", "a"}}); ok {
		t.Fatalf("reordered payload is expected to miss")
	}
}

func TestCache_SetOverwrites(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(time.Hour, 1000, clk)
	_ = c.Set("u1", "p", nil, "old")
	_ = c.Set("u1", "p", nil, "new")
	if got, _ := c.Get("u1", "p", nil); got != "new" {
		t.Fatalf("Get = %q; want new", got)
	}
	if c.size() != 1 {
		t.Fatalf("len = %d; want 1", c.size())
	}
}

func TestCache_SweepOnlyPastThreshold(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(time.Minute, 3, clk)

	for i := 0; i < 3; i++ {
		_ = c.Set("u", fmt.Sprintf("old-%d", i), nil, "x")
	}
	clk.Advance(2 * time.Minute)

	// At the threshold nothing is swept.
	if c.size() != 3 {
		t.Fatalf("len = %d; want 3", c.size())
	}
	// Exceeding it sweeps every expired entry and keeps the fresh one.
	_ = c.Set("u", "fresh", nil, "y")
	if c.size() != 1 {
		t.Fatalf("len after sweep = %d; want 1", c.size())
	}
	if got, ok := c.Get("u", "fresh", nil); !ok || got != "y" {
		t.Fatalf("fresh entry lost: %q,%v", got, ok)
	}
}

func TestCache_UnencodablePayload(t *testing.T) {
	c := NewCache(time.Hour, 10)
	bad := map[string]any{"ch": make(chan int)}
	if err := c.Set("u", "p", bad, "r"); err == nil {
		t.Fatalf("expected encode error")
	}
	if _, ok := c.Get("u", "p", bad); ok {
		t.Fatalf("unencodable payload must miss")
	}
}

func TestFingerprint_DeterministicAndOrderSensitive(t *testing.T) {
	a1, a2, _ := Fingerprint(payload{Expenses: []string{"1", "2"}})
	b1, b2, _ := Fingerprint(payload{Expenses: []string{"1", "2"}})
	c1, c2, _ := Fingerprint(payload{Expenses: []string{"2", "1"}})
	if a1 != b1 || a2 != b2 {
		t.Fatalf("fingerprint must be deterministic")
	}
	if a1 == c1 && a2 == c2 {
		t.Fatalf("fingerprint must be order sensitive")
	}
}
