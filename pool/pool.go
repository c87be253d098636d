// File: pool/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool is the ordered queue of runnable work units schedulers draw from:
// a pluggable backing store plus accounting for units temporarily absent
// from it (blocked, migrating) and for the schedulers currently holding
// the pool. See api.Pool for the contract this satisfies.

package pool

import (
	"sync"
	"time"

	"github.com/momentics/ultpool/api"
	"github.com/momentics/ultpool/backing"
	"github.com/momentics/ultpool/internal/xatomic"
)

// Pool implements api.Pool over a pluggable backing.Backing.
type Pool struct {
	back backing.Backing
	mode api.AccessMode

	numBlocked    xatomic.Int32
	numMigrations xatomic.Int32
	numScheds     xatomic.Int32

	producerMu sync.Mutex
	producerID uint64 // 0 == unset
	consumerMu sync.Mutex
	consumerID uint64 // 0 == unset
}

var _ api.Pool = (*Pool)(nil)

// New creates a pool over back with the given access mode. The pool owns
// back after this call; callers must not touch back directly.
func New(back backing.Backing, mode api.AccessMode) *Pool {
	return &Pool{back: back, mode: mode}
}

// restrictsProducer reports whether mode permits at most one producer.
func restrictsProducer(mode api.AccessMode) bool {
	return mode == api.PoolSPSC || mode == api.PoolSPMC
}

// restrictsConsumer reports whether mode permits at most one consumer.
func restrictsConsumer(mode api.AccessMode) bool {
	return mode == api.PoolSPSC || mode == api.PoolMPSC
}

// setProducer enforces single-producer discipline when mode requires it.
// A zero producerID disables the check for that call (the caller did not
// opt into identity tracking).
func (p *Pool) setProducer(producerID uint64) error {
	if !restrictsProducer(p.mode) || producerID == 0 {
		return nil
	}
	p.producerMu.Lock()
	defer p.producerMu.Unlock()
	if p.producerID == 0 {
		p.producerID = producerID
		return nil
	}
	if p.producerID != producerID {
		return api.ErrInvPoolAccess
	}
	return nil
}

func (p *Pool) setConsumer(consumerID uint64) error {
	if !restrictsConsumer(p.mode) || consumerID == 0 {
		return nil
	}
	p.consumerMu.Lock()
	defer p.consumerMu.Unlock()
	if p.consumerID == 0 {
		p.consumerID = consumerID
		return nil
	}
	if p.consumerID != consumerID {
		return api.ErrInvPoolAccess
	}
	return nil
}

// Push enqueues unit. On a producer-access violation the backing is left
// untouched.
func (p *Pool) Push(unit any, producerID uint64) error {
	if err := p.setProducer(producerID); err != nil {
		return err
	}
	p.back.Push(unit)
	return nil
}

// Remove removes a specific unit; returns api.ErrNotFound if absent.
func (p *Pool) Remove(unit any, consumerID uint64) error {
	if err := p.setConsumer(consumerID); err != nil {
		return err
	}
	if !p.back.Remove(unit) {
		return api.ErrNotFound
	}
	return nil
}

// Pop is non-blocking; ok is false when the pool is empty.
func (p *Pool) Pop() (any, bool) {
	return p.back.Pop()
}

// PopTimedWait blocks the calling native thread until a unit is
// available or the absolute deadline elapses.
func (p *Pool) PopTimedWait(deadline time.Time) (any, bool) {
	return p.back.PopTimedWait(deadline)
}

// Size returns the backing store's queued count only.
func (p *Pool) Size() int32 {
	return p.back.Size()
}

// TotalSize is Size plus blocked plus in-flight-migration counts, each
// loaded independently; callers must treat the sum as an approximation
// consistent with some recent interleaving, not an atomic snapshot.
func (p *Pool) TotalSize() int32 {
	return p.Size() + p.numBlocked.Load() + p.numMigrations.Load()
}

// Retain registers a scheduler as holding this pool.
func (p *Pool) Retain() {
	p.numScheds.Inc()
}

// Release unregisters a scheduler. Panics if the prior retain count was
// already zero — an unmatched release is a programmer error.
func (p *Pool) Release() int32 {
	for {
		cur := p.numScheds.Load()
		if cur <= 0 {
			panic("pool: Release called with num_scheds already zero")
		}
		if p.numScheds.CompareAndSwap(cur, cur-1) {
			return cur - 1
		}
	}
}

// NumScheds returns the current retain count.
func (p *Pool) NumScheds() int32 {
	return p.numScheds.Load()
}

// IncNumBlocked accounts a ULT bound to this pool transitioning to
// BLOCKED. Called by the synchronization layer, not by application code.
func (p *Pool) IncNumBlocked() {
	p.numBlocked.Inc()
}

// DecNumBlocked accounts a ULT bound to this pool leaving BLOCKED.
func (p *Pool) DecNumBlocked() {
	p.numBlocked.Dec()
}

// IncNumMigrations brackets the start of an in-flight migration toward
// this pool, so TotalSize does not transiently undercount.
func (p *Pool) IncNumMigrations() {
	p.numMigrations.Inc()
}

// DecNumMigrations brackets the end of an in-flight migration.
func (p *Pool) DecNumMigrations() {
	p.numMigrations.Dec()
}

// Close tears the pool down. It panics if schedulers still hold the pool
// or if units remain queued, blocked, or migrating — freeing a pool with
// outstanding state is a programmer error, not a recoverable one.
func (p *Pool) Close() error {
	if n := p.numScheds.Load(); n != 0 {
		panic("pool: Close called with outstanding schedulers")
	}
	if n := p.TotalSize(); n != 0 {
		panic("pool: Close called with nonzero total size")
	}
	p.back.Free()
	return nil
}

// AccessMode returns the pool's configured access mode.
func (p *Pool) AccessMode() api.AccessMode {
	return p.mode
}
