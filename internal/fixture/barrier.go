package fixture

import "sync"

// Barrier is a fan-in completion barrier for one load run.
//
// The pending count starts at 1; that unit stands for the dispatch loop
// itself and is released by Seal. Without it, loads that complete
// synchronously during dispatch would drive the count to zero before every
// load had been dispatched.
//
// The callback fires at most once per Reset, either when the count reaches
// zero after Seal or immediately on Fail. It is invoked without the lock held.
//
// Each Reset starts a numbered run. Complete and Abort carry the run they
// belong to and are ignored once a later Reset has happened, so operations
// left in flight by a failed run cannot release units of the next one.
//
// Thread-safety: all methods are safe for concurrent use.
type Barrier struct {
	mu      sync.Mutex
	pending int
	sealed  bool
	fired   bool
	run     uint64
	onDone  func(error)
}

// NewBarrier returns a reset barrier with no callback.
func NewBarrier() *Barrier {
	b := &Barrier{}
	b.Reset(nil)
	return b
}

// Reset starts a new run: pending = 1, not sealed, not fired. It returns
// the run number for Complete and Abort.
func (b *Barrier) Reset(onDone func(error)) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.run++
	b.pending = 1
	b.sealed = false
	b.fired = false
	b.onDone = onDone
	return b.run
}

// Add registers one more in-flight operation.
func (b *Barrier) Add() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending++
}

// Done completes one operation of the current run and fires if the run is
// finished. Calls after the callback has fired are no-ops.
func (b *Barrier) Done() {
	b.mu.Lock()
	cb := b.releaseLocked()
	b.mu.Unlock()

	if cb != nil {
		cb(nil)
	}
}

// Complete runs commit and releases one unit, both under the barrier lock,
// provided run is still current and has not fired. Otherwise nothing happens
// and Complete reports false.
func (b *Barrier) Complete(run uint64, commit func()) bool {
	b.mu.Lock()
	if run != b.run || b.fired {
		b.mu.Unlock()
		return false
	}
	if commit != nil {
		commit()
	}
	cb := b.releaseLocked()
	b.mu.Unlock()

	if cb != nil {
		cb(nil)
	}
	return true
}

func (b *Barrier) releaseLocked() func(error) {
	if b.pending > 0 {
		b.pending--
	}
	return b.takeLocked(b.pending == 0 && b.sealed)
}

// Seal marks dispatch as finished and releases the initial unit.
func (b *Barrier) Seal() {
	b.mu.Lock()
	b.sealed = true
	b.mu.Unlock()
	b.Done()
}

// Fail fires the callback immediately with err. Later completions are ignored.
func (b *Barrier) Fail(err error) {
	b.mu.Lock()
	cb := b.takeLocked(true)
	b.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}

// Abort is Fail for a specific run. A stale run is ignored.
func (b *Barrier) Abort(run uint64, err error) {
	b.mu.Lock()
	if run != b.run {
		b.mu.Unlock()
		return
	}
	cb := b.takeLocked(true)
	b.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}

// takeLocked marks the barrier fired and returns the callback to run, or a
// no-op when nothing should fire. Caller holds b.mu.
func (b *Barrier) takeLocked(ready bool) func(error) {
	if !ready || b.fired {
		return nil
	}
	b.fired = true
	if b.onDone == nil {
		return func(error) {}
	}
	return b.onDone
}

// Pending returns the outstanding operation count, including the dispatch
// unit until Seal.
func (b *Barrier) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// Fired reports whether the callback has run for the current run.
func (b *Barrier) Fired() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fired
}

// Ready reports whether the barrier was reset and has not been sealed or
// fired since.
func (b *Barrier) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.sealed && !b.fired
}
