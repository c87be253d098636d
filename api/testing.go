// Package api
// Author: momentics
//
// Mock/testing utilities; currently a function-field mock of the Pool contract.

package api

import "time"

// MockPool is a test and mock-friendly implementation of Pool.
type MockPool struct {
	PushFunc         func(unit any, producerID uint64) error
	RemoveFunc       func(unit any, consumerID uint64) error
	PopFunc          func() (any, bool)
	PopTimedWaitFunc func(deadline time.Time) (any, bool)
	SizeFunc         func() int32
	TotalSizeFunc    func() int32
	RetainFunc       func()
	ReleaseFunc      func() int32
}

func (m *MockPool) Push(unit any, producerID uint64) error   { return m.PushFunc(unit, producerID) }
func (m *MockPool) Remove(unit any, consumerID uint64) error { return m.RemoveFunc(unit, consumerID) }
func (m *MockPool) Pop() (any, bool)                         { return m.PopFunc() }
func (m *MockPool) PopTimedWait(deadline time.Time) (any, bool) {
	return m.PopTimedWaitFunc(deadline)
}
func (m *MockPool) Size() int32      { return m.SizeFunc() }
func (m *MockPool) TotalSize() int32 { return m.TotalSizeFunc() }
func (m *MockPool) Retain()          { m.RetainFunc() }
func (m *MockPool) Release() int32   { return m.ReleaseFunc() }

// Extend with mocks for all additional core contracts as architecture evolves.
