package advertiser

import (
	"errors"
	"testing"
	"time"
)

func TestTTLCache_FetchAndExpiry(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := newTTLCache(func() time.Time { return current })

	calls := 0
	fn := func() (any, error) {
		calls++
		return calls, nil
	}

	v, err := cache.fetch("coupons/list", 30*time.Second, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(int) != 1 {
		t.Errorf("expected first value, got %v", v)
	}

	// Still fresh.
	current = current.Add(29 * time.Second)
	v, _ = cache.fetch("coupons/list", 30*time.Second, fn)
	if v.(int) != 1 || calls != 1 {
		t.Errorf("expected cached value, got %v (calls=%d)", v, calls)
	}

	// Expired at exactly the TTL boundary.
	current = current.Add(time.Second)
	v, _ = cache.fetch("coupons/list", 30*time.Second, fn)
	if v.(int) != 2 || calls != 2 {
		t.Errorf("expected refetch after expiry, got %v (calls=%d)", v, calls)
	}
}

func TestTTLCache_InvalidateDropsWholeFamily(t *testing.T) {
	cache := newTTLCache(nil)

	for _, key := range []string{"coupons/list", "coupons/summary", "subscription/plans"} {
		k := key
		cache.fetch(k, time.Minute, func() (any, error) { return k, nil })
	}

	cache.invalidate("coupons")

	refetched := 0
	fn := func() (any, error) {
		refetched++
		return "fresh", nil
	}
	cache.fetch("coupons/list", time.Minute, fn)
	cache.fetch("coupons/summary", time.Minute, fn)
	if refetched != 2 {
		t.Errorf("expected both coupon entries dropped, refetched %d", refetched)
	}

	// The other family survives.
	v, _ := cache.fetch("subscription/plans", time.Minute, fn)
	if v != "subscription/plans" {
		t.Errorf("expected subscription entry untouched, got %v", v)
	}
}

func TestTTLCache_ErrorNotCached(t *testing.T) {
	cache := newTTLCache(nil)

	boom := errors.New("upstream down")
	_, err := cache.fetch("coupons/list", time.Minute, func() (any, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}

	v, err := cache.fetch("coupons/list", time.Minute, func() (any, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Errorf("expected retry after error, got %v / %v", v, err)
	}
}

func TestKeyFamily(t *testing.T) {
	cases := map[string]string{
		"coupons/list":       "coupons",
		"subscription/plans": "subscription",
		"bare":               "bare",
	}
	for key, want := range cases {
		if got := keyFamily(key); got != want {
			t.Errorf("keyFamily(%q) = %q, want %q", key, got, want)
		}
	}
}
