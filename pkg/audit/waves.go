package audit

import (
	"context"
	"sync"
	"time"

	"github.com/stackaudit/stackaudit/pkg/observability"
)

// runWaves processes items under the engine's two-level batching
// discipline: items are chunked into fixed-size batches, and a fixed
// number of batches execute concurrently as one wave. Within a wave every
// item runs in parallel; the next wave starts only after the whole wave
// has drained, which keeps table mutation single-writer between waves and
// makes progress reporting monotonic.
//
// fn must handle its own per-item failures (degrading locally); runWaves
// only fails on cancellation. When the context is cancelled the current
// wave drains before the error is returned, so no partial wave is left
// in flight.
func runWaves[T any](ctx context.Context, stage string, items []T, batchSize, concurrent int, fn func(context.Context, T)) error {
	total := len(items)
	observability.Audit().OnStageStart(ctx, stage, total)
	start := time.Now()

	waveSize := batchSize * concurrent
	processed := 0

	for offset := 0; offset < total; offset += waveSize {
		if err := ctx.Err(); err != nil {
			observability.Audit().OnStageComplete(ctx, stage, time.Since(start), err)
			return err
		}

		end := min(offset+waveSize, total)
		wave := items[offset:end]

		var wg sync.WaitGroup
		for _, item := range wave {
			item := item
			wg.Add(1)
			go func() {
				defer wg.Done()
				fn(ctx, item)
			}()
		}
		wg.Wait()

		processed = end
		observability.Audit().OnStageProgress(ctx, stage, processed, total)
	}

	err := ctx.Err()
	observability.Audit().OnStageComplete(ctx, stage, time.Since(start), err)
	return err
}

// chunk splits items into slices of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}
