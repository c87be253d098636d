// Package api
// Author: momentics
//
// Executor contract for the execution-stream collaborator: worker routines
// that run submitted tasks. Popping ULTs from a Pool is the Scheduler's
// job; it hands their bodies to an Executor. ES lifecycle and OS-thread
// binding are out of scope for this module.

package api

// Executor abstracts parallel task and custom eventloop execution.
type Executor interface {
    // Submit schedules task for execution.
    Submit(task func()) error

    // NumWorkers returns current number of active worker routines.
    NumWorkers() int

    // Resize adjusts the concurrency at runtime.
    Resize(newCount int)
}
