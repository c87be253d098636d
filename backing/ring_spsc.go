// File: backing/ring_spsc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RingSPSC is a lock-free ring buffer backing for single-producer/
// single-consumer pools, padded to prevent false sharing between the head
// and tail cursors. Adapted from the hot-path ring buffer used elsewhere
// in this runtime's ancestry for cross-thread data transfer.

package backing

import (
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"
)

// RingSPSC is a bounded, power-of-two-sized ring buffer. Push spins until
// a slot frees up rather than failing, so callers never lose a unit; this
// is only safe because SPSC pools have exactly one producer to spin.
type RingSPSC struct {
	head uint64
	_    cpu.CacheLinePad
	tail uint64
	_    cpu.CacheLinePad
	mask uint64
	data []any
}

// NewRingSPSC allocates a ring of the given size, rounded up to the next
// power of two (minimum 2).
func NewRingSPSC(size int) *RingSPSC {
	if size < 2 {
		size = 2
	}
	n := 1
	for n < size {
		n <<= 1
	}
	return &RingSPSC{
		mask: uint64(n - 1),
		data: make([]any, n),
	}
}

// Push enqueues unit, spinning while the ring is full.
func (r *RingSPSC) Push(unit any) {
	for {
		head := atomic.LoadUint64(&r.head)
		tail := atomic.LoadUint64(&r.tail)
		if tail-head < uint64(len(r.data)) {
			r.data[tail&r.mask] = unit
			atomic.StoreUint64(&r.tail, tail+1)
			return
		}
		runtime.Gosched()
	}
}

// Pop is non-blocking; ok is false when empty.
func (r *RingSPSC) Pop() (any, bool) {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	if head == tail {
		return nil, false
	}
	v := r.data[head&r.mask]
	r.data[head&r.mask] = nil
	atomic.StoreUint64(&r.head, head+1)
	return v, true
}

// PopTimedWait blocks the calling native thread, polling with a short
// backoff, until a unit is available or deadline elapses.
func (r *RingSPSC) PopTimedWait(deadline time.Time) (any, bool) {
	backoff := time.Microsecond
	const maxBackoff = time.Millisecond
	for {
		if v, ok := r.Pop(); ok {
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

// Remove scans for unit and compacts it out. SPSC pools call this rarely
// (e.g. canceling a not-yet-popped ULT); callers are responsible for not
// racing Remove against a concurrent Push/Pop on the same unit, mirroring
// the backing's single-producer/single-consumer contract.
func (r *RingSPSC) Remove(unit any) bool {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	found := false
	kept := make([]any, 0, tail-head)
	for i := head; i < tail; i++ {
		v := r.data[i&r.mask]
		if !found && v == unit {
			found = true
			continue
		}
		kept = append(kept, v)
	}
	if !found {
		return false
	}
	for i := head; i < tail; i++ {
		r.data[i&r.mask] = nil
	}
	atomic.StoreUint64(&r.head, 0)
	atomic.StoreUint64(&r.tail, uint64(len(kept)))
	copy(r.data, kept)
	return true
}

// Size returns the number of units currently queued.
func (r *RingSPSC) Size() int32 {
	return int32(atomic.LoadUint64(&r.tail) - atomic.LoadUint64(&r.head))
}

// Free releases the backing store. RingSPSC holds no resources beyond the
// slice itself, so Free only drops the reference for the GC.
func (r *RingSPSC) Free() {
	r.data = nil
}
