package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs batches of jobs on a fixed set of goroutines.
//
// Each worker owns a queue and steals from the other queues when its own
// runs dry, so slow tiles do not leave the remaining workers idle.
//
// WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool starts a pool. If workers is 0 or negative, GOMAXPROCS is
// used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
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
			p.drain(own)
			return
		case job := <-own:
			job()
			continue
		default:
		}

		if job := p.steal(id); job != nil {
			job()
			continue
		}

		select {
		case <-p.done:
			p.drain(own)
			return
		case job := <-own:
			job()
		}
	}
}

func (p *WorkerPool) drain(q chan func()) {
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

// Run calls fn for every index in [0, n) across the workers and waits
// for all of them. Jobs not yet started when ctx is done are skipped.
// The first error returned by fn, or ctx's error, is returned.
//
// A closed pool runs the jobs on the calling goroutine.
func (p *WorkerPool) Run(ctx context.Context, n int, fn func(i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}

	var (
		wg    sync.WaitGroup
		once  sync.Once
		first error
	)
	fail := func(err error) {
		once.Do(func() { first = err })
	}
	job := func(i int) {
		if ctx.Err() != nil {
			return
		}
		if err := fn(i); err != nil {
			fail(err)
		}
	}

	if !p.running.Load() || n == 1 {
		for i := range n {
			job(i)
		}
	} else {
		wg.Add(n)
		for i := range n {
			wrapped := func() {
				defer wg.Done()
				job(i)
			}
			select {
			case p.queues[i%p.workers] <- wrapped:
			case <-p.done:
				wrapped()
			}
		}
		wg.Wait()
	}

	if first != nil {
		return first
	}
	return ctx.Err()
}

// Close stops the workers after the queued jobs finish. Close is safe
// to call more than once.
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

// IsRunning reports whether the pool still accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
