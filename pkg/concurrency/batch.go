// Package concurrency fans independent analysis calls out over a bounded
// set of goroutines. The engine itself stays synchronous.
package concurrency

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/denizumutdereli/moodlens/pkg/checkin"
	"github.com/denizumutdereli/moodlens/pkg/core"
	"github.com/denizumutdereli/moodlens/pkg/sentiment"
)

// DefaultMaxItems bounds a single batch when no limit is configured.
const DefaultMaxItems = 1000

// Batch analyses many texts or check-ins at once. Results keep input order.
type Batch struct {
	adapter  *checkin.Adapter
	workers  int
	maxItems int

	// Stats
	batches  atomic.Uint64
	items    atomic.Uint64
	rejected atomic.Uint64
}

// NewBatch creates a Batch. workers <= 0 selects GOMAXPROCS and
// maxItems <= 0 selects DefaultMaxItems. A nil adapter uses the default one.
func NewBatch(adapter *checkin.Adapter, workers, maxItems int) *Batch {
	if adapter == nil {
		adapter = checkin.Default()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Batch{adapter: adapter, workers: workers, maxItems: maxItems}
}

// Workers returns the goroutine limit.
func (b *Batch) Workers() int { return b.workers }

// MaxItems returns the per-call item limit.
func (b *Batch) MaxItems() int { return b.maxItems }

// AnalyzeTexts scores each text with the adapter's engine.
func (b *Batch) AnalyzeTexts(ctx context.Context, texts []string) ([]sentiment.Result, error) {
	e := b.adapter.Engine()
	return run(ctx, b, len(texts), func(i int) sentiment.Result {
		return e.Analyze(texts[i])
	})
}

// AnalyzeCheckins scores each check-in through the adapter.
func (b *Batch) AnalyzeCheckins(ctx context.Context, inputs []checkin.Input) ([]sentiment.Result, error) {
	return run(ctx, b, len(inputs), func(i int) sentiment.Result {
		return b.adapter.Analyze(inputs[i])
	})
}

func run(ctx context.Context, b *Batch, n int, analyze func(int) sentiment.Result) ([]sentiment.Result, error) {
	if n > b.maxItems {
		b.rejected.Add(1)
		return nil, fmt.Errorf("%w: %d items, limit %d", core.ErrBatchTooLarge, n, b.maxItems)
	}

	results := make([]sentiment.Result, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = analyze(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.batches.Add(1)
	b.items.Add(uint64(n))
	return results, nil
}

// Stats returns batch counters.
func (b *Batch) Stats() map[string]any {
	return map[string]any{
		"workers":   b.workers,
		"max_items": b.maxItems,
		"batches":   b.batches.Load(),
		"items":     b.items.Load(),
		"rejected":  b.rejected.Load(),
	}
}
