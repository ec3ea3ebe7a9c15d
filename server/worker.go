package server

import (
	"context"
	"fmt"
	"sync"
)

// job is a unit of work executed on a pool goroutine.
type job struct {
	fn   func() any
	done chan jobResult
}

// jobResult holds the return value from a job.
type jobResult struct {
	value any
	err   error
}

// WorkerPool bounds how many programs execute at once. Each job builds its
// own VM, so jobs never share a value stack.
type WorkerPool struct {
	jobs chan job
	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewWorkerPool starts size worker goroutines. size < 1 means 1.
func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	p := &WorkerPool{
		jobs: make(chan job, 64),
		quit: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.loop()
	}
	return p
}

// loop processes jobs until the pool stops.
func (p *WorkerPool) loop() {
	defer p.wg.Done()
	for {
		select {
		case j := <-p.jobs:
			j.done <- execute(j.fn)
		case <-p.quit:
			return
		}
	}
}

// execute runs a job, recovering from panics.
func execute(fn func() any) jobResult {
	var result jobResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("%v", r)
			}
		}()
		result.value = fn()
	}()
	return result
}

// Do submits fn and blocks until it completes or ctx is done. A panic in
// fn is returned as an error.
func (p *WorkerPool) Do(ctx context.Context, fn func() any) (any, error) {
	j := job{
		fn:   fn,
		done: make(chan jobResult, 1),
	}

	select {
	case p.jobs <- j:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.quit:
		return nil, errPoolStopped
	}

	select {
	case result := <-j.done:
		return result.value, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.quit:
		return nil, errPoolStopped
	}
}

// Stop shuts down the worker goroutines and waits for them to exit.
func (p *WorkerPool) Stop() {
	p.once.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}
