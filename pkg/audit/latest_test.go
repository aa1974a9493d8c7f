package audit

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

func TestLatestMemo_MemoizesPerKey(t *testing.T) {
	var calls atomic.Int64
	memo := newLatestMemo(func(_ context.Context, _ deps.Ecosystem, name string) (string, error) {
		calls.Add(1)
		return "9.9.9", nil
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		v, err := memo.Get(ctx, deps.EcosystemNpm, "lodash")
		if err != nil || v != "9.9.9" {
			t.Fatalf("Get = (%q, %v)", v, err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("lookup called %d times, want 1", calls.Load())
	}

	if _, err := memo.Get(ctx, deps.EcosystemPyPI, "lodash"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("lookup called %d times, want 2 (distinct ecosystem is a distinct key)", calls.Load())
	}
}

func TestLatestMemo_CoalescesInFlightLookups(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int64
	memo := newLatestMemo(func(_ context.Context, _ deps.Ecosystem, _ string) (string, error) {
		calls.Add(1)
		<-release
		return "1.0.0", nil
	})

	ctx := context.Background()
	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = memo.Get(ctx, deps.EcosystemNpm, "shared")
		}()
	}

	// Let every goroutine reach the memo before the lookup resolves.
	for calls.Load() == 0 {
		runtime.Gosched()
	}
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("lookup called %d times, want 1 (in-flight coalescing)", calls.Load())
	}
	for i, v := range results {
		if v != "1.0.0" {
			t.Errorf("caller %d got %q, want 1.0.0", i, v)
		}
	}
}

func TestLatestMemo_ErrorsAreMemoized(t *testing.T) {
	lookupErr := errors.New("registry down")
	var calls atomic.Int64
	memo := newLatestMemo(func(_ context.Context, _ deps.Ecosystem, _ string) (string, error) {
		calls.Add(1)
		return "", lookupErr
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := memo.Get(ctx, deps.EcosystemNpm, "down"); !errors.Is(err, lookupErr) {
			t.Fatalf("Get returned %v, want lookup error", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("lookup called %d times, want 1", calls.Load())
	}
}

func TestLatestMemo_WaiterHonorsCancellation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	memo := newLatestMemo(func(_ context.Context, _ deps.Ecosystem, _ string) (string, error) {
		close(started)
		<-release
		return "1.0.0", nil
	})

	go memo.Get(context.Background(), deps.EcosystemNpm, "slow") //nolint:errcheck
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := memo.Get(ctx, deps.EcosystemNpm, "slow"); !errors.Is(err, context.Canceled) {
		t.Fatalf("waiter returned %v, want context.Canceled", err)
	}
}
