// File: ultsync/cond.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cond is a FIFO waiter queue protected by an internal spinlock, bound on
// first use to one external Mutex. It wakes ULT waiters by transitioning
// them to READY and re-pushing them into their home pool, and wakes
// external (non-ULT) waiters by storing into a polled flag on the
// waiter's own stack frame. A sentinel node is preallocated at creation
// so the common empty-to-one-waiter path never allocates.

package ultsync

import (
	"context"
	"sync/atomic"

	"github.com/momentics/ultpool/api"
	"github.com/momentics/ultpool/internal/objpool"
	"github.com/momentics/ultpool/ult"
	"github.com/momentics/ultpool/ultruntime"
)

type waiterKind int

const (
	waiterULT waiterKind = iota
	waiterExternal
)

// waiterNode is one entry in the FIFO waiter list.
type waiterNode struct {
	kind waiterKind
	ult  *ult.Descriptor // kind == waiterULT
	flag *atomic.Int32   // kind == waiterExternal; the "stack flag"
	next *waiterNode
}

var nodePool = objpool.NewSyncPool(func() *waiterNode { return &waiterNode{} })

// Cond is a condition variable bridging ULT and native-thread waiters.
type Cond struct {
	mu          *SpinMutex
	waiterMutex Mutex // nil when waiters is empty
	sentinel    waiterNode
	head        *waiterNode // the sentinel when empty or holding waiter 1; a pool node once waiter 1 has been woken
	tail        *waiterNode
	numWaiters  int
	closed      bool
}

// NewCond returns a new, empty condition variable.
func NewCond() *Cond {
	c := &Cond{mu: NewSpinMutex()}
	c.head = &c.sentinel
	c.tail = &c.sentinel
	return c
}

// Wait identifies the caller via ctx (a ULT if ctx carries one via
// ultruntime.WithULT, otherwise an external native thread), enqueues a
// waiter, releases m, and blocks until signaled. On return the caller
// holds m again.
//
// All concurrently queued waiters must agree on the same Mutex instance;
// a Wait with a different one fails with api.ErrInvMutex and does not
// enqueue, leaving cond and m untouched.
func (c *Cond) Wait(ctx context.Context, m Mutex) error {
	d, isULT := ultruntime.CurrentULT(ctx)

	c.mu.Spinlock()
	if c.waiterMutex == nil {
		c.waiterMutex = m
	} else if !c.waiterMutex.Equal(m) {
		c.mu.Unlock()
		return api.ErrInvMutex
	}

	var flag *atomic.Int32
	var node *waiterNode
	if c.numWaiters == 0 {
		// The sentinel is reused as storage for the first waiter rather
		// than allocating; head and tail already point at it from
		// NewCond or the previous drain back to empty.
		node = &c.sentinel
		node.next = nil
	} else {
		node = nodePool.Get()
		node.next = nil
		c.tail.next = node
		c.tail = node
	}

	if isULT {
		node.kind = waiterULT
		node.ult = d
	} else {
		flag = &atomic.Int32{}
		node.kind = waiterExternal
		node.flag = flag
	}
	c.numWaiters++

	if isULT {
		// The state transition happens before releasing cond.mu so a
		// concurrent Signal observes a descriptor already BLOCKED.
		ult.SetBlocked(d)
	}

	c.mu.Unlock()
	m.Unlock()

	if isULT {
		// Wait point: control continues only when Signal/Broadcast has
		// set the ULT READY and re-pushed it into its home pool. Until
		// SetReady runs the ULT is absent from every pool.
		for d.State() != ult.Ready {
			// Busy-polls the descriptor state on the calling goroutine;
			// Wait does not yield to a scheduler while the ULT is BLOCKED.
		}
	} else {
		for flag.Load() == 0 {
			// busy-poll the stack flag; an implementation may substitute
			// a futex-style primitive as long as the wake side stores
			// into the same flag.
		}
	}

	m.Lock()
	return nil
}

// Signal wakes the head waiter, if any, in FIFO wait order. A no-op
// returning nil when there are no waiters.
func (c *Cond) Signal() error {
	c.mu.Spinlock()
	defer c.mu.Unlock()
	if c.numWaiters == 0 {
		return nil
	}
	c.wakeHeadLocked()
	c.numWaiters--
	if c.numWaiters == 0 {
		c.waiterMutex = nil
	}
	return nil
}

// Broadcast wakes every waiter, in FIFO wait order, and resets the
// condition variable to its empty state.
func (c *Cond) Broadcast() error {
	c.mu.Spinlock()
	defer c.mu.Unlock()
	for c.numWaiters > 0 {
		c.wakeHeadLocked()
		c.numWaiters--
	}
	c.waiterMutex = nil
	return nil
}

// wakeHeadLocked detaches and wakes the current head waiter, whether or
// not it happens to be the embedded sentinel, and re-seats head onto
// whatever follows it. Caller must hold c.mu.
func (c *Cond) wakeHeadLocked() {
	n := c.head
	switch n.kind {
	case waiterULT:
		// dec_num_blocked happens inside SetReady, just before the
		// re-push, so TotalSize can read one low between the two.
		if err := ult.SetReady(n.ult, 0); err != nil {
			// Re-push failure is a backing/accounting bug, not a
			// recoverable condvar state; surfaced via panic per the
			// same "invariant violation traps" policy as Pool.Release.
			panic("ultsync: failed to re-push woken ULT into its home pool: " + err.Error())
		}
		n.ult = nil
	case waiterExternal:
		n.flag.Store(1)
		n.flag = nil
	}

	next := n.next
	n.next = nil
	if n != &c.sentinel {
		// The sentinel is an embedded field, not pool-allocated; only
		// real nodes go back to nodePool. The sentinel itself becomes
		// free to reuse once a later Wait finds numWaiters == 0 again.
		nodePool.Put(n)
	}
	if next == nil {
		c.head = &c.sentinel
		c.tail = &c.sentinel
	} else {
		c.head = next
	}
}

// NumWaiters returns the current waiter count.
func (c *Cond) NumWaiters() int {
	c.mu.Spinlock()
	defer c.mu.Unlock()
	return c.numWaiters
}

// Close releases cond. Calling Close with waiters still present is a
// programmer error; production behavior beyond this panic is
// deliberately undefined by the source this runtime is patterned after.
func (c *Cond) Close() error {
	c.mu.Spinlock()
	defer c.mu.Unlock()
	if c.numWaiters != 0 {
		panic("ultsync: Close called with waiters still present")
	}
	c.closed = true
	return nil
}
