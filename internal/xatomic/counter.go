// File: internal/xatomic/counter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// 32-bit signed atomic counters, cache-line padded to avoid false sharing
// between a pool's retain count and its blocked/migration counts when they
// live in adjacent fields of the same struct.

package xatomic

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Int32 is a padded, signed 32-bit atomic counter.
type Int32 struct {
	v atomic.Int32
	_ cpu.CacheLinePad
}

// Load reads the counter with acquire semantics.
func (c *Int32) Load() int32 {
	return c.v.Load()
}

// LoadRelaxed reads the counter for callers that only need a recent
// value. It is the same sync/atomic load as Load, so it orders no weaker.
func (c *Int32) LoadRelaxed() int32 {
	return c.v.Load()
}

// StoreRelaxed writes the counter. It is a plain sync/atomic store, which
// in Go also orders as a release.
func (c *Int32) StoreRelaxed(val int32) {
	c.v.Store(val)
}

// Inc increments the counter by one and returns the new value.
func (c *Int32) Inc() int32 {
	return c.v.Add(1)
}

// Dec decrements the counter by one and returns the new value.
func (c *Int32) Dec() int32 {
	return c.v.Add(-1)
}

// CompareAndSwap performs the usual CAS.
func (c *Int32) CompareAndSwap(old, new int32) bool {
	return c.v.CompareAndSwap(old, new)
}
