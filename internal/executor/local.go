package executor

import (
	"context"
	"log"

	"github.com/genstudio/api/internal/model"
)

// LocalBackend runs generation on the shared in-process worker pool.
type LocalBackend struct {
	pool *WorkerPool
	run  RunFunc
}

func NewLocalBackend(pool *WorkerPool, run RunFunc) *LocalBackend {
	return &LocalBackend{pool: pool, run: run}
}

// Submit queues the generation call on the worker pool and returns as soon
// as the task is accepted. The job runs under a fresh background context:
// it must outlive the HTTP request that submitted it.
func (b *LocalBackend) Submit(ctx context.Context, mediaItemID string, req *model.GenerateVideoRequest) error {
	r := *req
	return b.pool.Submit(ctx, func() {
		if err := b.run(context.Background(), mediaItemID, &r); err != nil {
			log.Printf("[executor] local job %s: %v", mediaItemID, err)
		}
	})
}
