// Package api
// Author: momentics
//
// Scheduler contract for the collaborator that draws runnable work from
// pools: it retains a pool while holding it, pops units off it (blocking
// the native thread via PopTimedWait when it wants to idle rather than
// spin), and releases it when done. Scheduler policy itself — which pool
// to draw from next, fairness across pools, work-stealing — is explicitly
// not defined here; this is only the seam the runtime core depends on.

package api

// Scheduler abstracts the ES-side consumer of one or more Pools.
type Scheduler interface {
	// AttachPool retains p for the lifetime of this scheduler's use of it.
	AttachPool(p Pool)

	// DetachPool releases a previously attached pool.
	DetachPool(p Pool)

	// Tick draws and runs at most one unit from the scheduler's pools,
	// reporting whether any work was found.
	Tick() (ran bool)
}
