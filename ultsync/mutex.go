// File: ultsync/mutex.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Mutex is the collaborator contract condition variables are built on:
// exclusive lock with Lock/Spinlock/Unlock/Equal. Equal lets Cond compare
// two mutex handles for identity rather than value, since the contract
// does not require mutexes to be comparable with ==.
//
// This package does not verify that the mutex passed to Cond.Wait is
// actually held by the caller; that is left to the caller, matching the
// source this runtime is patterned after.

package ultsync

import (
	"runtime"
	"sync/atomic"
)

// Mutex is the lock contract condition variables consume.
type Mutex interface {
	// Lock blocks until the lock is acquired, yielding the native thread
	// between attempts.
	Lock()
	// Spinlock blocks until the lock is acquired by busy-waiting without
	// yielding; used on short, latency-sensitive critical sections such
	// as the condition variable's own waiter-list lock.
	Spinlock()
	// Unlock releases the lock. Unlocking an unlocked Mutex is undefined.
	Unlock()
	// Equal reports whether other identifies the same lock instance.
	Equal(other Mutex) bool
}

// SpinMutex is a simple CAS-based exclusive lock, suitable both as the
// condition variable's internal waiter-list lock and as a user-provided
// mutex in tests and examples that don't need OS-level blocking.
type SpinMutex struct {
	locked atomic.Bool
}

// NewSpinMutex returns an unlocked SpinMutex.
func NewSpinMutex() *SpinMutex {
	return &SpinMutex{}
}

// Lock acquires the lock, yielding the goroutine between failed attempts.
func (m *SpinMutex) Lock() {
	for !m.locked.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

// Spinlock acquires the lock by busy-waiting without yielding.
func (m *SpinMutex) Spinlock() {
	for !m.locked.CompareAndSwap(false, true) {
	}
}

// TryLock attempts to acquire the lock without blocking.
func (m *SpinMutex) TryLock() bool {
	return m.locked.CompareAndSwap(false, true)
}

// Unlock releases the lock.
func (m *SpinMutex) Unlock() {
	m.locked.Store(false)
}

// Equal reports whether other is the same *SpinMutex instance.
func (m *SpinMutex) Equal(other Mutex) bool {
	o, ok := other.(*SpinMutex)
	return ok && o == m
}
