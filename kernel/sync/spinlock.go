// Package sync provides the spinlock the scheduler-side callers of the
// context-switch primitive use to model the "scheduling decision already
// made under a lock" precondition.
package sync

import (
	"runtime"
	"sync/atomic"
)

// spinAttempts is the number of failed acquisition attempts before the
// spinning task yields the processor.
const spinAttempts = 100

var (
	// yieldFn is swapped by tests; on the hosted model it surrenders the
	// processor to the Go scheduler.
	yieldFn = runtime.Gosched
)

// Spinlock implements a lock where each task trying to acquire it busy-waits
// till the lock becomes available.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the currently active
// task. Any attempt to re-acquire a lock already held by the current task
// will cause a deadlock.
func (l *Spinlock) Acquire() {
	for attempt := 0; ; attempt++ {
		if atomic.SwapUint32(&l.state, 1) == 0 {
			return
		}

		if attempt >= spinAttempts {
			yieldFn()
			attempt = 0
		}
	}
}

// TryToAcquire attempts to acquire the lock and returns true if the lock
// could be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock allowing other tasks to acquire it.
// Calling Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}
