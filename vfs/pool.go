package vfs

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"

	"github.com/motioncam/mcraw-vfs/mcraw"
)

// defaultIOThreads is the default size of the fixed IO worker pool.
const defaultIOThreads = 4

// ioQueueDepth bounds how many pending tasks submit can queue ahead of
// the workers before it blocks the caller. It's sized well above
// defaultIOThreads so a burst of concurrent ReadFile calls enqueues and
// returns instead of stalling on busy workers.
const ioQueueDepth = 64

// ioPool runs disk-bound decode tasks on a small fixed set of worker
// goroutines. Each worker owns a private decoder cache keyed by source
// path, so no synchronization is needed around the cache itself; a
// Decoder is never touched from more than one goroutine.
type ioPool struct {
	tasks chan func(decoders map[string]mcraw.Decoder)
	done  chan struct{}
}

func newIOPool(workers int) *ioPool {
	if workers <= 0 {
		workers = defaultIOThreads
	}
	p := &ioPool{
		tasks: make(chan func(decoders map[string]mcraw.Decoder), ioQueueDepth),
		done:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *ioPool) worker() {
	decoders := make(map[string]mcraw.Decoder)
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			task(decoders)
		case <-p.done:
			// Run whatever is still queued so every submitted read
			// reaches its callback.
			for {
				select {
				case task := <-p.tasks:
					task(decoders)
				default:
					return
				}
			}
		}
	}
}

// submit schedules task to run on some worker, with access to that
// worker's private decoder cache. It only blocks once ioQueueDepth tasks
// are already queued; it never blocks merely because every worker is
// currently busy decoding.
func (p *ioPool) submit(task func(decoders map[string]mcraw.Decoder)) {
	p.tasks <- task
}

func (p *ioPool) close() {
	close(p.done)
}

// processingPool bounds CPU-bound DNG-encode work to hardware
// concurrency. Unlike ioPool it doesn't need per-worker state, so it's a
// semaphore-gated goroutine spawner rather than a fixed worker set.
type processingPool struct {
	sem *semaphore.Weighted
}

func newProcessingPool() *processingPool {
	n := int64(runtime.NumCPU())
	if n < 1 {
		n = 1
	}
	return &processingPool{sem: semaphore.NewWeighted(n)}
}

// submit runs task on its own goroutine once a slot is free. It never
// blocks the caller: both acquiring the slot and running the task happen
// on the spawned goroutine.
func (p *processingPool) submit(task func()) {
	go func() {
		ctx := context.Background()
		if err := p.sem.Acquire(ctx, 1); err != nil {
			logger.Errorf("vfs: acquiring processing pool slot: %v", err)
			return
		}
		defer p.sem.Release(1)
		task()
	}()
}
