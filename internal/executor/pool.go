package executor

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrPoolClosed is returned by Submit after Shutdown has begun.
var ErrPoolClosed = errors.New("worker pool is shut down")

// WorkerPool runs tasks on a fixed number of goroutines with a bounded
// pending queue. When the queue is full Submit blocks instead of rejecting,
// so callers get backpressure rather than lost work.
type WorkerPool struct {
	tasks chan func()
	wg    sync.WaitGroup

	// mu is held for reading across the whole Submit, including the
	// blocking send, so Shutdown cannot close the channel under a sender.
	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts workers goroutines draining a queue of queueDepth
// pending tasks.
func NewWorkerPool(workers, queueDepth int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 1 {
		queueDepth = 1
	}

	p := &WorkerPool{
		tasks: make(chan func(), queueDepth),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}

	return p
}

// Submit queues a task for execution. It blocks while the queue is full and
// returns ctx.Err() if the context expires first.
func (p *WorkerPool) Submit(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting new tasks and waits for queued and in-flight
// tasks to drain. If ctx expires first the remaining work is abandoned and
// ctx.Err() is returned.
func (p *WorkerPool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.tasks) // safe: no Submit holds the read lock here
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		log.Printf("[pool] shutdown timed out with tasks still in flight")
		return ctx.Err()
	}
}
