// Package workerpool fans indexed jobs out to a fixed number of goroutines.
package workerpool

import (
	"context"
	"runtime"
	"sync"
)

// ProcessFunc handles one job index
type ProcessFunc func(ctx context.Context, index int) error

// WorkerPool manages a pool of workers for parallel evaluation
type WorkerPool struct {
	workerCount int
	jobQueue    chan int
	resultQueue chan error
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	process     ProcessFunc
}

// NewWorkerPool creates a new worker pool. A non-positive count uses one worker per CPU.
func NewWorkerPool(parent context.Context, workerCount int, process ProcessFunc) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(parent)
	return &WorkerPool{
		workerCount: workerCount,
		jobQueue:    make(chan int, workerCount*2),
		resultQueue: make(chan error, workerCount*2),
		ctx:         ctx,
		cancel:      cancel,
		process:     process,
	}
}

// Workers returns the number of workers
func (wp *WorkerPool) Workers() int { return wp.workerCount }

// Run feeds indices [0,total) to the workers and waits. The first error cancels the
// remaining jobs and is returned; otherwise the context error, if any.
func (wp *WorkerPool) Run(total int) error {
	defer wp.cancel()

	wp.start()
	go func() {
		defer close(wp.jobQueue)
		for i := 0; i < total; i++ {
			if err := wp.submit(i); err != nil {
				return
			}
		}
	}()
	go func() {
		wp.wg.Wait()
		close(wp.resultQueue)
	}()

	var firstErr error
	for err := range wp.resultQueue {
		if err != nil && firstErr == nil {
			firstErr = err
			wp.cancel()
		}
	}
	if firstErr != nil {
		return firstErr
	}
	return wp.ctx.Err()
}

func (wp *WorkerPool) start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) submit(index int) error {
	select {
	case wp.jobQueue <- index:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for {
		select {
		case index, ok := <-wp.jobQueue:
			if !ok {
				return
			}
			if wp.ctx.Err() != nil {
				return
			}
			err := wp.process(wp.ctx, index)
			select {
			case wp.resultQueue <- err:
			case <-wp.ctx.Done():
				return
			}
		case <-wp.ctx.Done():
			return
		}
	}
}
