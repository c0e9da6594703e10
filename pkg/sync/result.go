package sync

import (
	"fmt"
	"strings"
)

// State is the per-external-key synchronization state.
type State string

// Synchronization states.
const (
	StateAbsent        State = "absent"
	StateCreated       State = "created"
	StateSynced        State = "synced"
	StateMarkedDeleted State = "marked-deleted"
)

// ItemError records a per-item failure that did not abort the run.
type ItemError struct {
	ExternalKey string
	Err         error
}

// Result represents the complete outcome of one sync pass.
type Result struct {
	Created       int
	Patched       int
	Unchanged     int
	Skipped       int // status gate or scope guard
	MarkedDeleted int
	Deleted       int
	Restored      int

	// States maps every touched external key to its final state.
	States map[string]State

	// Errors lists every per-item failure. The run's exit status
	// reflects whether any occurred.
	Errors []ItemError
}

func newResult() *Result {
	return &Result{States: make(map[string]State)}
}

// HasErrors reports whether any per-item failure occurred.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// TotalMutations returns the number of remote mutations issued.
// Restores travel as patches and are already counted there.
func (r *Result) TotalMutations() int {
	return r.Created + r.Patched + r.MarkedDeleted + r.Deleted
}

// Summary returns a human-readable summary of the sync result.
func (r *Result) Summary() string {
	parts := []string{
		fmt.Sprintf("%d created", r.Created),
		fmt.Sprintf("%d patched", r.Patched),
		fmt.Sprintf("%d unchanged", r.Unchanged),
	}
	if r.Restored > 0 {
		parts = append(parts, fmt.Sprintf("%d restored", r.Restored))
	}
	if r.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", r.Skipped))
	}
	if r.MarkedDeleted > 0 {
		parts = append(parts, fmt.Sprintf("%d marked deleted", r.MarkedDeleted))
	}
	if r.Deleted > 0 {
		parts = append(parts, fmt.Sprintf("%d deleted", r.Deleted))
	}
	summary := strings.Join(parts, ", ")
	if len(r.Errors) > 0 {
		summary += fmt.Sprintf(" (%d item errors)", len(r.Errors))
	}
	return summary
}

func (r *Result) addError(externalKey string, err error) {
	r.Errors = append(r.Errors, ItemError{ExternalKey: externalKey, Err: err})
}
