// File: backing/eapache_fifo.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// EapacheFIFO is a mutex-guarded, growable array-based FIFO built on
// github.com/eapache/queue. It is the right backing for PRIVATE pools,
// which require the owner to serialize access itself anyway: there is no
// benefit to a lock-free structure when only one goroutine ever touches
// the pool, and eapache/queue's amortized O(1) ring buffer avoids the
// reslice-and-copy cost of a plain slice-based FIFO.

package backing

import (
	"sync"
	"time"

	"github.com/eapache/queue"
)

// EapacheFIFO wraps a github.com/eapache/queue.Queue with a mutex and a
// condition variable so PopTimedWait can genuinely block the native
// thread instead of spinning.
type EapacheFIFO struct {
	mu   sync.Mutex
	cond *sync.Cond
	q    *queue.Queue
}

// NewEapacheFIFO creates an empty FIFO backing.
func NewEapacheFIFO() *EapacheFIFO {
	f := &EapacheFIFO{q: queue.New()}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Push enqueues unit and wakes any thread blocked in PopTimedWait.
func (f *EapacheFIFO) Push(unit any) {
	f.mu.Lock()
	f.q.Add(unit)
	f.mu.Unlock()
	f.cond.Signal()
}

// Pop is non-blocking; ok is false when empty.
func (f *EapacheFIFO) Pop() (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.q.Length() == 0 {
		return nil, false
	}
	return f.q.Remove(), true
}

// PopTimedWait blocks the calling native thread on the internal condition
// variable until a unit is pushed or the absolute deadline elapses.
func (f *EapacheFIFO) PopTimedWait(deadline time.Time) (any, bool) {
	timer := time.AfterFunc(time.Until(deadline), func() { f.cond.Broadcast() })
	defer timer.Stop()

	f.mu.Lock()
	defer f.mu.Unlock()
	for f.q.Length() == 0 {
		if !time.Now().Before(deadline) {
			return nil, false
		}
		f.cond.Wait()
	}
	return f.q.Remove(), true
}

// Remove removes a specific unit by linear scan; ok is false if absent.
func (f *EapacheFIFO) Remove(unit any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.q.Length()
	found := false
	for i := 0; i < n; i++ {
		v := f.q.Remove()
		if !found && v == unit {
			found = true
			continue
		}
		f.q.Add(v)
	}
	return found
}

// Size returns the number of units currently queued.
func (f *EapacheFIFO) Size() int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int32(f.q.Length())
}

// Free releases the backing store.
func (f *EapacheFIFO) Free() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.q = queue.New()
}
