// File: ultruntime/scheduler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor and Scheduler are the reference execution-stream collaborator:
// a fixed pool of worker goroutines draining per-worker local queues and a
// shared global queue (Executor), and a pool-draining loop that pops ULT
// descriptors off attached api.Pool instances and submits their bodies to
// an Executor (Scheduler). Neither is required by the synchronization
// core itself; they exist so pool.Pool and ultsync.Cond have something
// concrete driving them end to end, the way an ES would in production.

package ultruntime

import (
	"context"
	"sync"

	"github.com/momentics/ultpool/api"
	"github.com/momentics/ultpool/backing"
	"github.com/momentics/ultpool/ult"
)

// TaskFunc is a unit of work an Executor runs.
type TaskFunc func()

type resizeRequest struct {
	newCount int
	done     chan struct{}
}

// Executor is a fixed-then-resizable pool of worker goroutines. Each
// worker drains its own local queue before pulling from the shared global
// queue, so workers do not all contend on one structure under light load.
type Executor struct {
	mu      sync.Mutex
	workers []*worker
	global  chan TaskFunc
	resize  chan resizeRequest
	closing chan struct{}
	wg      sync.WaitGroup
}

type worker struct {
	local *backing.RingSPSC
	quit  chan struct{}
}

var _ api.Executor = (*Executor)(nil)

// NewExecutor starts an Executor with numWorkers workers.
func NewExecutor(numWorkers int) *Executor {
	if numWorkers < 1 {
		numWorkers = 1
	}
	e := &Executor{
		global:  make(chan TaskFunc, 1024),
		resize:  make(chan resizeRequest),
		closing: make(chan struct{}),
	}
	for i := 0; i < numWorkers; i++ {
		e.startWorker()
	}
	go e.manageResizes()
	return e
}

func (e *Executor) startWorker() {
	w := &worker{local: backing.NewRingSPSC(256), quit: make(chan struct{})}
	e.workers = append(e.workers, w)
	e.wg.Add(1)
	go e.runWorker(w)
}

func (e *Executor) runWorker(w *worker) {
	defer e.wg.Done()
	for {
		if task, ok := w.local.Pop(); ok {
			task.(TaskFunc)()
			continue
		}
		select {
		case task := <-e.global:
			task()
		case <-w.quit:
			return
		case <-e.closing:
			return
		}
	}
}

// manageResizes serializes Resize calls against worker start/stop so the
// workers slice is never read and mutated concurrently.
func (e *Executor) manageResizes() {
	for {
		select {
		case req := <-e.resize:
			e.mu.Lock()
			cur := len(e.workers)
			switch {
			case req.newCount > cur:
				for i := cur; i < req.newCount; i++ {
					e.startWorker()
				}
			case req.newCount < cur:
				for i := req.newCount; i < cur; i++ {
					close(e.workers[i].quit)
				}
				e.workers = e.workers[:req.newCount]
			}
			e.mu.Unlock()
			close(req.done)
		case <-e.closing:
			return
		}
	}
}

// Submit schedules task on the least-loaded worker's local queue, falling
// back to the global queue if every local queue is full.
func (e *Executor) Submit(task func()) error {
	e.mu.Lock()
	workers := e.workers
	e.mu.Unlock()

	if len(workers) > 0 {
		best := workers[0]
		for _, w := range workers[1:] {
			if w.local.Size() < best.local.Size() {
				best = w
			}
		}
		if best.local.Size() < 256 {
			best.local.Push(TaskFunc(task))
			return nil
		}
	}
	select {
	case e.global <- TaskFunc(task):
	default:
		// Global queue saturated too; block the caller rather than drop
		// the task, matching Pool.Push's never-drop contract.
		e.global <- TaskFunc(task)
	}
	return nil
}

// NumWorkers returns the current worker count.
func (e *Executor) NumWorkers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.workers)
}

// Resize blocks until the worker count has been adjusted to newCount.
func (e *Executor) Resize(newCount int) {
	if newCount < 1 {
		newCount = 1
	}
	done := make(chan struct{})
	e.resize <- resizeRequest{newCount: newCount, done: done}
	<-done
}

// Close stops all workers and waits for their goroutines to exit.
func (e *Executor) Close() {
	close(e.closing)
	e.wg.Wait()
}

// Scheduler is the reference ES-side consumer of one or more api.Pool
// instances: it retains each attached pool, pops a unit (expected to be a
// *ult.Descriptor) from them in round-robin order on each Tick, and
// submits its body to an Executor. It does not change the ULT's state.
type Scheduler struct {
	exec *Executor

	mu    sync.Mutex
	pools []api.Pool
	next  int
}

var _ api.Scheduler = (*Scheduler)(nil)

// NewScheduler returns a Scheduler that runs popped ULT bodies on exec.
func NewScheduler(exec *Executor) *Scheduler {
	return &Scheduler{exec: exec}
}

// AttachPool retains p and adds it to this scheduler's round-robin set.
func (s *Scheduler) AttachPool(p api.Pool) {
	p.Retain()
	s.mu.Lock()
	s.pools = append(s.pools, p)
	s.mu.Unlock()
}

// DetachPool releases p and removes it from the round-robin set. A no-op
// if p was never attached.
func (s *Scheduler) DetachPool(p api.Pool) {
	s.mu.Lock()
	found := false
	for i, q := range s.pools {
		if q == p {
			s.pools = append(s.pools[:i], s.pools[i+1:]...)
			if s.next > i {
				s.next--
			}
			found = true
			break
		}
	}
	s.mu.Unlock()
	if found {
		p.Release()
	}
}

// Tick pops at most one unit across the attached pools, in round-robin
// order starting just past the pool served last time, and runs it.
func (s *Scheduler) Tick() bool {
	s.mu.Lock()
	pools := append([]api.Pool(nil), s.pools...)
	start := s.next
	s.mu.Unlock()
	if len(pools) == 0 {
		return false
	}

	for i := 0; i < len(pools); i++ {
		idx := (start + i) % len(pools)
		unit, ok := pools[idx].Pop()
		if !ok {
			continue
		}
		s.mu.Lock()
		s.next = (idx + 1) % len(pools)
		s.mu.Unlock()
		s.runUnit(unit)
		return true
	}
	return false
}

// runUnit submits the popped descriptor's body to the executor with a
// context carrying the ULT identity, so anything the body calls (notably
// ultsync.Cond.Wait) can recover it via CurrentULT. The descriptor's state
// is left as it was; runUnit does not mark it RUNNING.
func (s *Scheduler) runUnit(unit any) {
	d, ok := unit.(*ult.Descriptor)
	if !ok {
		// Non-ULT payloads (plain closures pushed directly) just run.
		if fn, ok := unit.(func()); ok {
			_ = s.exec.Submit(fn)
		}
		return
	}
	body, ok := d.Unit.(func(context.Context))
	if !ok {
		return
	}
	ctx := WithULT(context.Background(), d)
	_ = s.exec.Submit(func() {
		body(ctx)
	})
}
