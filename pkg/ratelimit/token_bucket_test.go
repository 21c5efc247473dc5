package ratelimit

import "testing"

func TestTokenBucketExhaustsBurst(t *testing.T) {
	// No refill, 3 token burst
	tb := NewTokenBucket(3, 0)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d within burst must be allowed", i+1)
		}
	}

	if tb.Allow() {
		t.Fatal("request beyond the burst must be denied")
	}
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(1, 0)

	if !tb.Allow() {
		t.Fatal("first request must be allowed")
	}

	if tb.Allow() {
		t.Fatal("bucket must be empty")
	}

	tb.Reset()

	if !tb.Allow() {
		t.Fatal("reset must refill the bucket")
	}
}

func TestIPRateLimiterIsolatesClients(t *testing.T) {
	limiter := NewIPRateLimiter(1, 0)
	defer limiter.Stop()

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("first request from first client must be allowed")
	}

	if limiter.Allow("10.0.0.1") {
		t.Fatal("second request from first client must be denied")
	}

	if !limiter.Allow("10.0.0.2") {
		t.Fatal("another client must have its own bucket")
	}
}
