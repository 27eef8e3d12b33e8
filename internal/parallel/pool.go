// Package parallel provides a persistent worker pool for fanning full-grid
// passes out across CPU cores as row bands.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines fed from a shared queue.
//
// Grid passes produce one closure per row band, all of comparable cost, so a
// single shared queue balances well without per-worker queues or stealing.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queue   chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool creates a pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// Workers start immediately and wait for work.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &WorkerPool{
		workers: workers,
		queue:   make(chan func(), workers*2),
		done:    make(chan struct{}),
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			// Drain remaining work before exiting.
			for {
				select {
				case work := <-p.queue:
					work()
				default:
					return
				}
			}
		case work := <-p.queue:
			work()
		}
	}
}

// ExecuteAll runs every item and waits for all to complete.
// If the pool is closed, the items run on the calling goroutine instead,
// so passes still make progress during shutdown races.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	if !p.running.Load() {
		for _, fn := range work {
			fn()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(work))
	for _, fn := range work {
		fn := fn
		select {
		case p.queue <- func() { defer wg.Done(); fn() }:
		case <-p.done:
			fn()
			wg.Done()
		}
	}
	wg.Wait()
}

// ForEachBand splits the row range [0, rows) into roughly equal bands, one
// per worker, and runs fn(y0, y1) for each band in parallel. It returns after
// every band has completed.
func (p *WorkerPool) ForEachBand(rows int, fn func(y0, y1 int)) {
	if rows <= 0 {
		return
	}

	bands := p.workers
	if bands > rows {
		bands = rows
	}
	if bands == 1 {
		fn(0, rows)
		return
	}

	work := make([]func(), 0, bands)
	step := (rows + bands - 1) / bands
	for y0 := 0; y0 < rows; y0 += step {
		y0, y1 := y0, y0+step
		if y1 > rows {
			y1 = rows
		}
		work = append(work, func() { fn(y0, y1) })
	}
	p.ExecuteAll(work)
}

// Close gracefully shuts down the pool: it stops accepting work, lets queued
// work finish and stops all workers. Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int { return p.workers }
