package services

import (
	"context"
	"sync"
)

// MutationConcurrency is the bound on simultaneously outstanding catalog
// calls during a delta refresh: per-entity refresh requests and the one
// batched mutation all draw from the same limit.
const MutationConcurrency = 10

// Gateway executes catalog operations under a shared concurrency bound.
// Admission is FIFO with no priority: operations start in the order given,
// with at most the configured number in flight at once.
type Gateway struct {
	limit int
}

// NewGateway creates a gateway with the default concurrency bound.
func NewGateway() *Gateway {
	return &Gateway{limit: MutationConcurrency}
}

// NewGatewayWithLimit creates a gateway with a specific bound.
func NewGatewayWithLimit(limit int) *Gateway {
	if limit < 1 {
		limit = 1
	}
	return &Gateway{limit: limit}
}

// RunAll starts every operation (gated by the concurrency bound, in input
// order), waits for all of them, and returns the first error observed.
// A failing operation does not cancel its in-flight siblings: everything
// that was started runs to completion before RunAll returns.
func (g *Gateway) RunAll(ctx context.Context, ops []func(context.Context) error) error {
	if len(ops) == 0 {
		return nil
	}

	sem := make(chan struct{}, g.limit)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, op := range ops {
		// Admission blocks here, keeping starts in queue order.
		sem <- struct{}{}
		wg.Add(1)
		go func(op func(context.Context) error) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := op(ctx); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(op)
	}

	wg.Wait()
	return firstErr
}
