package limiter

import (
	"context"
	"testing"
	"time"
)

func TestFailureCutsRateDownToMin(t *testing.T) {
	a := New(8, 1, 16, 1, 0.5)

	for i := 0; i < 10; i++ {
		a.Failure()
	}
	if got := a.Limit(); got != 1 {
		t.Fatalf("limit after repeated failures = %v, want min 1", got)
	}
}

func TestSuccessClimbsToMaxAfterQuietPeriod(t *testing.T) {
	a := New(2, 1, 4, 1, 0.5)

	// No recent failure, so each success steps the rate up.
	for i := 0; i < 10; i++ {
		a.Success()
	}
	if got := a.Limit(); got != 4 {
		t.Fatalf("limit after successes = %v, want max 4", got)
	}
}

func TestSuccessHeldBackRightAfterFailure(t *testing.T) {
	a := New(4, 1, 8, 1, 0.5)

	a.Failure()
	want := a.Limit()
	a.Success()
	if got := a.Limit(); got != want {
		t.Fatalf("limit climbed to %v right after a failure, want %v", got, want)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	a := New(1, 1, 1, 1, 0.5)

	// Drain the single available token, then expect the next Wait to block
	// until the context gives up.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := a.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	if err := a.Wait(ctx); err == nil {
		t.Fatal("second Wait should fail once the context expires")
	}
}
