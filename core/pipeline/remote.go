package pipeline

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// RemoteParams configures an embedder backed by an embedding service.
type RemoteParams struct {
	BaseURL string
	APIKey  string
	Model   string

	// BatchSize is the number of names per request, 0 sends all names at once.
	BatchSize int
	// MaxConcurrentRequests caps the requests in flight, 0 means 1.
	MaxConcurrentRequests int64
	// RequestsPerSecond paces the requests, 0 disables pacing.
	RequestsPerSecond float64
}

// batchRunner fans batches out to a request function while keeping
// the output in input order.
type batchRunner struct {
	batchSize int
	sem       *semaphore.Weighted
	limiter   *rate.Limiter
}

func newBatchRunner(params RemoteParams) *batchRunner {
	concurrency := params.MaxConcurrentRequests
	if concurrency <= 0 {
		concurrency = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if params.RequestsPerSecond > 0 {
		burst := int(math.Ceil(params.RequestsPerSecond))
		limiter = rate.NewLimiter(rate.Limit(params.RequestsPerSecond), burst)
	}

	return &batchRunner{
		batchSize: params.BatchSize,
		sem:       semaphore.NewWeighted(concurrency),
		limiter:   limiter,
	}
}

func (r *batchRunner) run(ctx context.Context, texts []string, request func(ctx context.Context, batch []string) ([][]float32, error)) ([][]float32, error) {
	parts := batches(texts, r.batchSize)
	results := make([][][]float32, len(parts))

	eg, ectx := errgroup.WithContext(ctx)
	for i, batch := range parts {
		eg.Go(func() error {
			if err := r.sem.Acquire(ectx, 1); err != nil {
				return err
			}
			defer r.sem.Release(1)

			if err := r.limiter.Wait(ectx); err != nil {
				return err
			}

			vectors, err := request(ectx, batch)
			if err != nil {
				return err
			}
			results[i] = vectors
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for _, vectors := range results {
		out = append(out, vectors...)
	}
	return out, nil
}
