// File: backing/backing.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Backing is the pluggable capability set a Pool delegates storage to:
// push, pop, pop_timedwait, remove, size, free. It is modeled as an
// interface rather than a class hierarchy so array-based FIFOs, lock-free
// rings, and externally synchronized queues can all satisfy it.

package backing

import "time"

// Backing is the queue contract a pool.Pool operates against. Each
// implementation is responsible for any internal locking consistent with
// the access mode the owning pool declares; Backing itself makes no
// promises about concurrent-call safety beyond what each constructor's
// doc comment states.
type Backing interface {
	// Push enqueues unit. The backing does not check for duplicates;
	// callers (the pool) must uphold that a unit is queued at most once.
	Push(unit any)

	// Pop is non-blocking; ok is false when empty.
	Pop() (unit any, ok bool)

	// PopTimedWait blocks the calling native thread until a unit is
	// available or the absolute deadline elapses.
	PopTimedWait(deadline time.Time) (unit any, ok bool)

	// Remove removes a specific unit; ok is false if not present.
	Remove(unit any) (ok bool)

	// Size returns the number of units currently queued.
	Size() int32

	// Free releases any resources held by the backing. The backing must
	// not be used afterward.
	Free()
}
