// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel provides the worker pool and dirty-tile bitmap used to
// process tile planes in parallel.
//
// Parallelism is at whole-tile granularity: jobs submitted together must
// touch disjoint tiles, so no cross-job locking is needed.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs tile jobs on a fixed set of goroutines.
//
// Each worker owns a queue and steals from the other queues when its own
// is empty, which balances tiles of uneven cost.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// A few jobs of slack per worker hides submission latency.
	depth := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), depth)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]

	for {
		select {
		case <-p.done:
			drain(own)
			return
		case job := <-own:
			job()
		default:
			if job := p.steal(id); job != nil {
				job()
				continue
			}
			select {
			case <-p.done:
				drain(own)
				return
			case job := <-own:
				job()
			}
		}
	}
}

func drain(q chan func()) {
	for {
		select {
		case job := <-q:
			job()
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case job := <-p.queues[i]:
			return job
		default:
		}
	}
	return nil
}

// Run executes all jobs and waits for them to finish. Jobs are spread
// round-robin over the workers. On a closed pool the jobs run on the
// calling goroutine.
func (p *WorkerPool) Run(jobs []func()) {
	if len(jobs) == 0 {
		return
	}
	if !p.running.Load() {
		for _, job := range jobs {
			job()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(jobs))
	for i, job := range jobs {
		wrapped := func() {
			defer wg.Done()
			job()
		}
		select {
		case p.queues[i%p.workers] <- wrapped:
		case <-p.done:
			wrapped()
		}
	}
	wg.Wait()
}

// Close stops accepting jobs, finishes queued ones and stops the workers.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still accepts jobs.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
