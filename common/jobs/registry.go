package jobs

import (
	"context"
	"sync"
)

// DetachReason records why a handle left the registry before its runner
// finished.
type DetachReason int

const (
	// DetachNone means the runner still owned its handle at completion.
	DetachNone DetachReason = iota
	// DetachHalted means a cancel request removed the handle.
	DetachHalted
	// DetachSuperseded means a newer submission for the same ID replaced it.
	DetachSuperseded
)

// Handle is the cancellable reference to one running job unit.
type Handle struct {
	cancel context.CancelFunc

	// gen is the registration generation for this job ID, stamped under the
	// registry mutex. A handle whose generation is no longer the latest has
	// been replaced by a newer submission, whatever removed it first.
	gen uint64

	// detached is set under the registry mutex when the handle is removed
	// by something other than its own runner.
	detached DetachReason
}

// Registry tracks the in-flight handle for each active job ID, enforcing
// at most one active unit per ID.
type Registry struct {
	mu      sync.Mutex
	handles map[string]*Handle
	gens    map[string]uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[string]*Handle),
		gens:    make(map[string]uint64),
	}
}

// Register inserts a new handle for the job ID. Any existing handle is
// cancelled and discarded first, so a resubmission supersedes the unit it
// replaces. Cancellation is fire-and-forget: the superseded runner winds
// down on its own.
func (r *Registry) Register(id string, cancel context.CancelFunc) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.handles[id]; ok {
		old.detached = DetachSuperseded
		old.cancel()
	}

	r.gens[id]++
	h := &Handle{cancel: cancel, gen: r.gens[id]}
	r.handles[id] = h
	return h
}

// Cancel signals cancellation on the handle for the job ID, removes it and
// reports whether one existed.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[id]
	if !ok {
		return false
	}
	h.detached = DetachHalted
	h.cancel()
	delete(r.handles, id)
	return true
}

// Release removes the runner's own handle once its unit reaches a terminal
// state, so a later cancel request correctly reports no running process. It
// returns DetachNone when the runner owned the handle to the end, otherwise
// the reason the handle was detached earlier — where a halt followed by a
// resubmission reports DetachSuperseded, since the resubmitted unit owns the
// record. Idempotent.
func (r *Registry) Release(id string, h *Handle) DetachReason {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.handles[id]; ok && current == h {
		delete(r.handles, id)
		return DetachNone
	}
	if r.gens[id] != h.gen {
		// A newer unit registered after this handle was detached. That unit
		// owns the record now, even if this one was halted first.
		return DetachSuperseded
	}
	return h.detached
}

// Len returns the number of active handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
