package throttle

import (
	"context"
	"testing"
	"time"
)

func TestWait_EnforcesWindowCap(t *testing.T) {
	tr := New(map[string]Limit{
		"match": {Calls: 2, Window: 200 * time.Millisecond},
	}, 0, time.Second)

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 4; i++ {
		if err := tr.Wait(ctx, "match"); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	elapsed := time.Since(start)

	// Calls 1-2 are immediate; 3-4 must each wait for a window slot, so the
	// third call cannot start before the first's timestamp expires.
	if elapsed < 200*time.Millisecond {
		t.Errorf("4 calls at cap 2/200ms finished in %v, want >= 200ms", elapsed)
	}
}

func TestWait_CancelledWhileWaiting(t *testing.T) {
	tr := New(map[string]Limit{
		"match": {Calls: 1, Window: time.Minute},
	}, 0, time.Second)

	if err := tr.Wait(context.Background(), "match"); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := tr.Wait(ctx, "match"); err != context.DeadlineExceeded {
		t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestBackoff_MultiplierDoublesAndCaps(t *testing.T) {
	tr := New(map[string]Limit{"match": {Calls: 10, Window: time.Minute}}, 0, time.Second)

	want := []int{1, 2, 4, 8, 8}
	for i, w := range want {
		tr.OnRateExceeded("match", time.Millisecond)
		if got := tr.Multiplier("match"); got != w {
			t.Errorf("after %d failures: multiplier = %d, want %d", i+1, got, w)
		}
	}

	if got := tr.Stats()["match"].MaxMultiplier; got != 8 {
		t.Errorf("MaxMultiplier = %d, want 8", got)
	}
	if got := tr.Stats()["match"].RateExceededEvents; got != 5 {
		t.Errorf("RateExceededEvents = %d, want 5", got)
	}

	tr.OnSuccess("match")
	if got := tr.Multiplier("match"); got != 1 {
		t.Errorf("multiplier after success = %d, want 1", got)
	}
}

func TestBackoff_BlocksUntilNextAllowed(t *testing.T) {
	tr := New(map[string]Limit{"match": {Calls: 10, Window: time.Minute}}, 0, time.Second)

	tr.OnRateExceeded("match", 150*time.Millisecond)

	start := time.Now()
	if err := tr.Wait(context.Background(), "match"); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("Wait() returned after %v, want >= 150ms backoff", elapsed)
	}
}

func TestBackoff_ClearsWindow(t *testing.T) {
	tr := New(map[string]Limit{"match": {Calls: 2, Window: time.Hour}}, 0, time.Second)

	ctx := context.Background()
	tr.Wait(ctx, "match")
	tr.Wait(ctx, "match")

	// With the hour-long window full, a third call would block forever;
	// a rate-exceeded event must clear the window so only the backoff
	// deadline gates the next call.
	tr.OnRateExceeded("match", 50*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- tr.Wait(ctx, "match") }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() still blocked after backoff expired; window not cleared")
	}
}

func TestDailyQuota(t *testing.T) {
	tr := New(map[string]Limit{"match": {Calls: 100, Window: time.Second}}, 3, time.Second)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := tr.Wait(ctx, "match"); err != nil {
			t.Fatalf("call %d: Wait() error = %v", i+1, err)
		}
	}
	if err := tr.Wait(ctx, "match"); err != ErrDailyQuotaExceeded {
		t.Errorf("Wait() error = %v, want ErrDailyQuotaExceeded", err)
	}

	used, cap := tr.DailyUsage()
	if used != 3 || cap != 3 {
		t.Errorf("DailyUsage() = %d/%d, want 3/3", used, cap)
	}
}

func TestSeedDailyUsage(t *testing.T) {
	tr := New(map[string]Limit{"match": {Calls: 100, Window: time.Second}}, 5, time.Second)
	tr.SeedDailyUsage(5)

	if err := tr.Wait(context.Background(), "match"); err != ErrDailyQuotaExceeded {
		t.Errorf("Wait() error = %v, want ErrDailyQuotaExceeded after seeding to cap", err)
	}
}

func TestEffectiveLimit(t *testing.T) {
	tests := []struct {
		provider, override, want int
	}{
		{60, 0, 60},
		{0, 30, 30},
		{60, 30, 30},
		{30, 60, 30}, // override may only lower, never raise
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := EffectiveLimit(tt.provider, tt.override); got != tt.want {
			t.Errorf("EffectiveLimit(%d, %d) = %d, want %d", tt.provider, tt.override, got, tt.want)
		}
	}
}
