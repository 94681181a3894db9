package service

import (
	"sync"

	"github.com/opsfin/be-cc-approvals/internal/apperr"
)

// inflight tracks one boolean flag per named operation so the same
// operation cannot be dispatched twice while a call is outstanding.
// Unrelated operations remain independently dispatchable.
type inflight struct {
	mu  sync.Mutex
	ops map[string]bool
}

// begin marks an operation in flight, refusing duplicates.
func (f *inflight) begin(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ops == nil {
		f.ops = make(map[string]bool)
	}
	if f.ops[op] {
		return apperr.New(apperr.CodeConflictBlocked, "operation already in progress: "+op)
	}
	f.ops[op] = true
	return nil
}

// end clears the flag whether the call succeeded or failed.
func (f *inflight) end(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ops, op)
}
