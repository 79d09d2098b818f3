package graph

import (
	"math/rand"
	"testing"
	"time"
)

func TestRetryPolicyValidateRejectsZeroMaxAttempts(t *testing.T) {
	rp := &RetryPolicy{MaxAttempts: 0}
	if err := rp.Validate(); err != ErrInvalidRetryPolicy {
		t.Fatalf("expected ErrInvalidRetryPolicy, got %v", err)
	}
}

func TestRetryPolicyValidateRejectsMaxDelayBelowBaseDelay(t *testing.T) {
	rp := &RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: time.Second}
	if err := rp.Validate(); err != ErrInvalidRetryPolicy {
		t.Fatalf("expected ErrInvalidRetryPolicy, got %v", err)
	}
}

func TestRetryPolicyValidateAcceptsZeroMaxDelayAsUncapped(t *testing.T) {
	rp := &RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
	if err := rp.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestComputeBackoffCapsAtMaxDelay(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := time.Second
	maxDelay := 5 * time.Second

	delay := computeBackoff(10, base, maxDelay, rng)
	if delay < maxDelay {
		t.Fatalf("expected capped delay to be at least maxDelay, got %v", delay)
	}
	if delay > maxDelay+base {
		t.Fatalf("expected capped delay to stay within maxDelay+jitter bound, got %v", delay)
	}
}

func TestComputeBackoffGrowsExponentiallyBeforeCap(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := 100 * time.Millisecond
	maxDelay := time.Hour

	d0 := computeBackoff(0, base, maxDelay, rng)
	d1 := computeBackoff(1, base, maxDelay, rng)
	d2 := computeBackoff(2, base, maxDelay, rng)

	if d1 < d0 || d2 < d1 {
		t.Fatalf("expected non-decreasing backoff across attempts, got %v, %v, %v", d0, d1, d2)
	}
}

func TestComputeBackoffIsDeterministicWithSeededRNG(t *testing.T) {
	base := 200 * time.Millisecond
	maxDelay := 10 * time.Second

	d1 := computeBackoff(3, base, maxDelay, rand.New(rand.NewSource(42)))
	d2 := computeBackoff(3, base, maxDelay, rand.New(rand.NewSource(42)))
	if d1 != d2 {
		t.Fatalf("expected identical backoff for identical seeded RNGs, got %v vs %v", d1, d2)
	}
}
