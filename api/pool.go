// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Defines the pool contract: the pluggable queue abstraction that schedulers
// draw runnable work units from, plus BytePool and ObjectPool interfaces
// for buffer and object reuse. No type in this module implements those
// two; ult and ultsync recycle objects through internal/objpool instead.

package api

import "time"

// AccessMode constrains which native threads may produce into or consume
// from a Pool. PRIVATE pools require the owner to serialize access itself;
// MPMC pools provide their own internal synchronization.
type AccessMode int

const (
	PoolPrivate AccessMode = iota
	PoolSPSC
	PoolMPSC
	PoolSPMC
	PoolMPMC
)

func (m AccessMode) String() string {
	switch m {
	case PoolPrivate:
		return "PRIVATE"
	case PoolSPSC:
		return "SPSC"
	case PoolMPSC:
		return "MPSC"
	case PoolSPMC:
		return "SPMC"
	case PoolMPMC:
		return "MPMC"
	default:
		return "UNKNOWN"
	}
}

// Pool is the ordered queue of runnable work units, with accounting for
// units temporarily absent from the backing store (blocked or migrating)
// and retention counting for the schedulers currently holding it.
type Pool interface {
	// Push enqueues unit, enforcing single-producer discipline when the
	// pool's AccessMode requires it.
	Push(unit any, producerID uint64) error

	// Remove removes a specific unit, returning ErrNotFound if absent.
	Remove(unit any, consumerID uint64) error

	// Pop is non-blocking; ok is false when the pool is empty.
	Pop() (unit any, ok bool)

	// PopTimedWait blocks the calling native thread until a unit is
	// available or the absolute deadline elapses.
	PopTimedWait(deadline time.Time) (unit any, ok bool)

	// Size returns the backing store's queued count only.
	Size() int32

	// TotalSize returns Size plus units blocked or migrating toward this
	// pool; an approximation consistent with some recent interleaving.
	TotalSize() int32

	// Retain registers a scheduler as holding this pool.
	Retain()

	// Release unregisters a scheduler; returns the new retain count and
	// panics if the prior count was already zero.
	Release() int32
}

// BytePool provides reusable []byte buffers for all high-intensity operations.
type BytePool interface {
	// Acquire returns a slice of at least n bytes.
	Acquire(n int) []byte

	// Release returns a buffer to the pool.
	Release(buf []byte)
}

// ObjectPool provides generic pooling of Go objects allocated transiently.
type ObjectPool[T any] interface {
	// Get returns an available instance from pool.
	Get() T

	// Put returns an instance for reuse.
	Put(obj T)
}
