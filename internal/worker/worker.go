package worker

import (
	"context"
	"log/slog"
	"sync"
)

// ProcessFunc handles one job. Returned errors are logged with the pool name;
// they do not stop the worker.
type ProcessFunc[J any] func(ctx context.Context, job J) error

// Pool runs a fixed number of goroutines draining a buffered job queue.
type Pool[J any] struct {
	name       string
	numWorkers int
	jobs       chan J
	processor  ProcessFunc[J]
	wg         sync.WaitGroup
	stopOnce   sync.Once
}

func NewPool[J any](name string, numWorkers, bufferSize int, processor ProcessFunc[J]) *Pool[J] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &Pool[J]{
		name:       name,
		numWorkers: numWorkers,
		jobs:       make(chan J, bufferSize),
		processor:  processor,
	}
}

func (p *Pool[J]) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool[J]) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if err := p.processor(ctx, job); err != nil {
				slog.Debug("job failed", "pool", p.name, "worker", id, "error", err)
			}
		}
	}
}

// Submit enqueues job, blocking while the queue is full. It gives up and
// returns ctx.Err() once ctx is done.
func (p *Pool[J]) Submit(ctx context.Context, job J) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.jobs <- job:
		return nil
	}
}

// Stop closes the queue and waits for workers to finish. Jobs still queued
// are processed unless the Start context has been cancelled. Safe to call
// more than once; Submit must not be called after Stop.
func (p *Pool[J]) Stop() {
	p.stopOnce.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}
