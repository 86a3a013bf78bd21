package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func keys(n int) []*Item {
	items := make([]*Item, n)
	for i := range items {
		items[i] = &Item{Key: string(rune('a' + i)), Priority: PriorityNormal}
	}
	return items
}

func TestRun_DrainsEverything(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}

	results := Run(context.Background(), keys(8), Config{Workers: 3, MaxRetries: 2},
		func(ctx context.Context, item *Item) Outcome {
			mu.Lock()
			seen[item.Key]++
			mu.Unlock()
			return Outcome{Kind: Done}
		})

	if results.Processed != 8 {
		t.Errorf("Processed = %d, want 8", results.Processed)
	}
	if len(seen) != 8 {
		t.Errorf("saw %d distinct items, want 8", len(seen))
	}
	for k, n := range seen {
		if n != 1 {
			t.Errorf("item %q processed %d times", k, n)
		}
	}
	if len(results.Failed) != 0 || len(results.NotFound) != 0 || len(results.Pending) != 0 {
		t.Errorf("unexpected non-empty lists: %+v", results)
	}
}

func TestRun_RetryGoesHighPriorityThenFails(t *testing.T) {
	transient := errors.New("connection reset")
	var mu sync.Mutex
	attempts := 0
	var prioritiesSeen []Priority

	results := Run(context.Background(),
		[]*Item{{Key: "flaky", Priority: PriorityNormal}},
		Config{Workers: 1, MaxRetries: 2},
		func(ctx context.Context, item *Item) Outcome {
			mu.Lock()
			attempts++
			prioritiesSeen = append(prioritiesSeen, item.Priority)
			mu.Unlock()
			return Outcome{Kind: Retry, Err: transient}
		})

	// 1 original + 2 retries.
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	for i, p := range prioritiesSeen[1:] {
		if p != PriorityHigh {
			t.Errorf("retry %d ran at priority %v, want high", i+1, p)
		}
	}
	if len(results.Failed) != 1 {
		t.Fatalf("Failed = %v, want exactly one entry", results.Failed)
	}
	f := results.Failed[0]
	if f.Key != "flaky" || !errors.Is(f.Err, transient) || f.Retries != 2 {
		t.Errorf("failed item = %+v", f)
	}
	if len(results.NotFound) != 0 {
		t.Errorf("retryable failure leaked into not-found: %v", results.NotFound)
	}
}

func TestRun_RetrySucceedsSecondTime(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	results := Run(context.Background(),
		[]*Item{{Key: "flaky", Priority: PriorityNormal}},
		Config{Workers: 2, MaxRetries: 3},
		func(ctx context.Context, item *Item) Outcome {
			mu.Lock()
			attempts++
			n := attempts
			mu.Unlock()
			if n == 1 {
				return Outcome{Kind: Retry, Err: errors.New("timeout")}
			}
			return Outcome{Kind: Done}
		})

	if results.Processed != 1 || len(results.Failed) != 0 {
		t.Errorf("results = %+v, want one clean completion", results)
	}
}

func TestRun_NotFoundIsRecordedOnceNeverRetried(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	results := Run(context.Background(),
		[]*Item{{Key: "obscure", Priority: PriorityNormal}},
		Config{Workers: 1, MaxRetries: 5},
		func(ctx context.Context, item *Item) Outcome {
			mu.Lock()
			attempts++
			mu.Unlock()
			return Outcome{Kind: NotFound}
		})

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on not-found)", attempts)
	}
	if len(results.NotFound) != 1 || results.NotFound[0] != "obscure" {
		t.Errorf("NotFound = %v", results.NotFound)
	}
	if len(results.Failed) != 0 {
		t.Errorf("not-found leaked into failed: %v", results.Failed)
	}
}

func TestRun_FatalStopsTheRun(t *testing.T) {
	fatal := errors.New("invalid credentials")
	var mu sync.Mutex
	processed := 0

	results := Run(context.Background(), keys(20), Config{Workers: 1, MaxRetries: 0},
		func(ctx context.Context, item *Item) Outcome {
			mu.Lock()
			processed++
			mu.Unlock()
			if processed == 1 {
				return Outcome{Kind: Fatal, Err: fatal}
			}
			return Outcome{Kind: Done}
		})

	if !errors.Is(results.FatalErr, fatal) {
		t.Errorf("FatalErr = %v, want %v", results.FatalErr, fatal)
	}
	if len(results.Pending) == 0 {
		t.Error("expected pending items after a fatal stop")
	}
}

func TestRun_PriorityOrderWithSingleWorker(t *testing.T) {
	items := []*Item{
		{Key: "low", Priority: PriorityLow},
		{Key: "normal", Priority: PriorityNormal},
		{Key: "high", Priority: PriorityHigh},
	}

	var order []string
	Run(context.Background(), items, Config{Workers: 1, MaxRetries: 0},
		func(ctx context.Context, item *Item) Outcome {
			order = append(order, item.Key)
			return Outcome{Kind: Done}
		})

	want := []string{"high", "normal", "low"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("drain order = %v, want %v", order, want)
		}
	}
}

func TestRun_FIFOWithinPriority(t *testing.T) {
	items := make([]*Item, 5)
	for i := range items {
		items[i] = &Item{Key: string(rune('1' + i)), Priority: PriorityNormal}
	}

	var order []string
	Run(context.Background(), items, Config{Workers: 1, MaxRetries: 0},
		func(ctx context.Context, item *Item) Outcome {
			order = append(order, item.Key)
			return Outcome{Kind: Done}
		})

	for i := 1; i < len(order); i++ {
		if order[i-1] > order[i] {
			t.Fatalf("drain order = %v, want enqueue order within one priority", order)
		}
	}
}

func TestRun_CancellationReportsPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	results := make(chan Results, 1)
	go func() {
		results <- Run(ctx, keys(10), Config{Workers: 1, MaxRetries: 0},
			func(ctx context.Context, item *Item) Outcome {
				select {
				case started <- struct{}{}:
				default:
				}
				time.Sleep(20 * time.Millisecond)
				return Outcome{Kind: Done}
			})
	}()

	<-started
	cancel()

	select {
	case r := <-results:
		if r.Processed+len(r.Pending) != 10 {
			t.Errorf("processed %d + pending %d != 10", r.Processed, len(r.Pending))
		}
		if len(r.Pending) == 0 {
			t.Error("expected some pending items after early cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
