package detect

import (
	"runtime"
	"sync"

	"github.com/teslashibe/go-facefind/internal/log"
)

// poolQueueDepth bounds the async backlog; submitters block once the
// queue is full rather than growing it without limit.
const poolQueueDepth = 64

// The execution pool is process-wide: created when the first detector
// arrives, shared by all instances, torn down when the last one
// closes. Teardown stops intake and drains queued work rather than
// cancelling it.
var (
	poolMu   sync.Mutex
	pool     *workerPool
	poolRefs int
)

type workerPool struct {
	tasks   chan func()
	wg      sync.WaitGroup
	workers int
}

func acquirePool() {
	poolMu.Lock()
	defer poolMu.Unlock()
	poolRefs++
	if pool == nil {
		pool = newWorkerPool(runtime.NumCPU())
		log.Debug("execution pool created", "workers", pool.workers)
	}
}

func releasePool() {
	poolMu.Lock()
	var drained *workerPool
	if poolRefs > 0 {
		poolRefs--
		if poolRefs == 0 {
			drained = pool
			pool = nil
		}
	}
	poolMu.Unlock()

	// Drain outside the lock so new detectors can build a fresh pool
	// while the old one finishes its backlog.
	if drained != nil {
		drained.shutdown()
		log.Debug("execution pool drained")
	}
}

func currentPool() *workerPool {
	poolMu.Lock()
	defer poolMu.Unlock()
	return pool
}

func newWorkerPool(workers int) *workerPool {
	if workers < 1 {
		workers = 1
	}
	p := &workerPool{
		tasks:   make(chan func(), poolQueueDepth),
		workers: workers,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

func (p *workerPool) work() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// submit blocks while the queue is full. The pool cannot have been
// shut down here: shutdown requires zero live detectors, and only
// live detectors submit.
func (p *workerPool) submit(task func()) {
	p.tasks <- task
}

func (p *workerPool) shutdown() {
	close(p.tasks)
	p.wg.Wait()
}
