package limit

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/bryanwahyu/solidity-sec/internal/domain/ai"
)

// Gate caps total concurrent in-flight calls to one model service across all
// running analyses. The inference services are shared, rate-limited resources;
// a per-analysis cap alone cannot protect them.
type Gate struct {
	inner ai.Client
	sem   *semaphore.Weighted
}

func Wrap(inner ai.Client, maxInflight int) *Gate {
	if maxInflight <= 0 {
		maxInflight = 4
	}
	return &Gate{inner: inner, sem: semaphore.NewWeighted(int64(maxInflight))}
}

func (g *Gate) Model() string { return g.inner.Model() }

func (g *Gate) Generate(ctx context.Context, req ai.Request) (string, error) {
	// Acquire respects ctx, so an analysis past its deadline never queues.
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer g.sem.Release(1)
	return g.inner.Generate(ctx, req)
}
