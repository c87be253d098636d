// File: backing/lockfree_mpmc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// LockFreeMPMC is a bounded multi-producer/multi-consumer queue using
// per-cell sequence numbers, the pattern described by Dmitry Vyukov for
// MPMC queues. Safe for concurrent Push/Pop from any number of native
// threads without an external mutex.

package backing

import (
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"
)

type mpmcCell struct {
	sequence atomic.Uint64
	data     any
}

// LockFreeMPMC is a fixed-capacity, power-of-two-sized MPMC ring.
type LockFreeMPMC struct {
	head  uint64
	_     cpu.CacheLinePad
	tail  uint64
	_     cpu.CacheLinePad
	mask  uint64
	cells []mpmcCell
}

// NewLockFreeMPMC allocates a queue with capacity rounded up to a power
// of two (minimum 2).
func NewLockFreeMPMC(capacity int) *LockFreeMPMC {
	if capacity < 2 {
		capacity = 2
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	q := &LockFreeMPMC{
		mask:  uint64(size - 1),
		cells: make([]mpmcCell, size),
	}
	for i := range q.cells {
		q.cells[i].sequence.Store(uint64(i))
	}
	return q
}

// Push enqueues unit, spinning while the ring is momentarily full (i.e.
// consumers have fallen behind); it never silently drops a unit.
func (q *LockFreeMPMC) Push(unit any) {
	for {
		tail := atomic.LoadUint64(&q.tail)
		index := tail & q.mask
		c := &q.cells[index]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(tail)

		if dif == 0 {
			if atomic.CompareAndSwapUint64(&q.tail, tail, tail+1) {
				c.data = unit
				c.sequence.Store(tail + 1)
				return
			}
		} else if dif < 0 {
			runtime.Gosched() // full, wait for a consumer
		} else {
			// tail moved under us, retry
		}
	}
}

// Pop is non-blocking; ok is false when empty.
func (q *LockFreeMPMC) Pop() (any, bool) {
	for {
		head := atomic.LoadUint64(&q.head)
		index := head & q.mask
		c := &q.cells[index]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(head+1)

		if dif == 0 {
			if atomic.CompareAndSwapUint64(&q.head, head, head+1) {
				item := c.data
				c.data = nil
				c.sequence.Store(head + q.mask + 1)
				return item, true
			}
		} else if dif < 0 {
			return nil, false // empty
		} else {
			// head moved under us, retry
		}
	}
}

// PopTimedWait blocks the calling native thread, polling with a short
// backoff, until a unit is available or deadline elapses.
func (q *LockFreeMPMC) PopTimedWait(deadline time.Time) (any, bool) {
	backoff := time.Microsecond
	const maxBackoff = time.Millisecond
	for {
		if v, ok := q.Pop(); ok {
			return v, true
		}
		if !time.Now().Before(deadline) {
			return nil, false
		}
		time.Sleep(backoff)
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// Remove drains the queue looking for unit, then reinserts everything
// else. Concurrent Push/Pop during a Remove may interleave with the
// drain; callers needing strict exclusivity should serialize around
// Remove externally, the same discipline the spec leaves to callers for
// duplicate-push prevention.
func (q *LockFreeMPMC) Remove(unit any) bool {
	var drained []any
	for {
		v, ok := q.Pop()
		if !ok {
			break
		}
		drained = append(drained, v)
	}
	found := false
	for _, v := range drained {
		if !found && v == unit {
			found = true
			continue
		}
		q.Push(v)
	}
	return found
}

// Size approximates the number of units currently queued.
func (q *LockFreeMPMC) Size() int32 {
	return int32(atomic.LoadUint64(&q.tail) - atomic.LoadUint64(&q.head))
}

// Free releases the backing store.
func (q *LockFreeMPMC) Free() {
	q.cells = nil
}
