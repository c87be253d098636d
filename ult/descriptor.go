// File: ult/descriptor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Descriptor is the user-level thread attribute block: its schedulable
// state plus the back-reference to the pool it returns to when readied.
// A ULT is present in exactly one pool iff its state is READY; BLOCKED
// means absent from every pool and accounted in some pool's blocked
// count; RUNNING means absent and unaccounted.

package ult

import (
	"sync/atomic"

	"github.com/momentics/ultpool/internal/objpool"
)

// State is the schedulable status of a ULT.
type State int32

const (
	Ready State = iota
	Running
	Blocked
	Terminated
)

func (s State) String() string {
	switch s {
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Blocked:
		return "BLOCKED"
	case Terminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// HomePool is the narrow contract Descriptor needs from its owning pool:
// enough to push the ULT back in and to adjust the blocked count. Defined
// here rather than importing package pool to avoid an import cycle (pool
// constructs and returns units, ult describes what a unit is).
type HomePool interface {
	Push(unit any, producerID uint64) error
	IncNumBlocked()
	DecNumBlocked()
}

// Descriptor is a work unit's attribute block.
type Descriptor struct {
	state State32
	Pool  HomePool
	Unit  any
}

// State32 is an atomic State with relaxed and store-with-release helpers.
type State32 struct {
	v atomic.Int32
}

func (s *State32) Load() State        { return State(s.v.Load()) }
func (s *State32) StoreRelaxed(v State) { s.v.Store(int32(v)) }
func (s *State32) Store(v State)      { s.v.Store(int32(v)) }

// descriptorPool recycles Descriptors across create/terminate cycles.
var descriptorPool = objpool.NewSyncPool(func() *Descriptor { return &Descriptor{} })

// New returns a READY descriptor bound to home, reusing a recycled
// Descriptor when one is available.
func New(home HomePool, unit any) *Descriptor {
	d := descriptorPool.Get()
	d.state.Store(Ready)
	d.Pool = home
	d.Unit = unit
	return d
}

// Release returns a TERMINATED descriptor to the recycling pool. Callers
// must not touch d afterward.
func Release(d *Descriptor) {
	d.Pool = nil
	d.Unit = nil
	descriptorPool.Put(d)
}

// AddThread marks d READY (relaxed store, synchronized by the subsequent
// push's release) and pushes its unit into its home pool.
func AddThread(d *Descriptor, producerID uint64) error {
	d.state.StoreRelaxed(Ready)
	return d.Pool.Push(d.Unit, producerID)
}

// SetBlocked transitions d to BLOCKED and increments its home pool's
// blocked count. Must be called by the ULT itself before it waits to be
// readied (ultsync.Cond.Wait does this for ULT waiters).
func SetBlocked(d *Descriptor) {
	d.state.Store(Blocked)
	d.Pool.IncNumBlocked()
}

// SetReady transitions d to READY, decrements its home pool's blocked
// count, and pushes its unit back into the pool.
func SetReady(d *Descriptor, producerID uint64) error {
	d.state.Store(Ready)
	d.Pool.DecNumBlocked()
	return d.Pool.Push(d.Unit, producerID)
}

// SetTerminated marks d TERMINATED. The descriptor is not in any pool
// after this call.
func SetTerminated(d *Descriptor) {
	d.state.Store(Terminated)
}

// State returns d's current schedulable status.
func (d *Descriptor) State() State {
	return d.state.Load()
}
