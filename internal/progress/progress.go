// Package progress tracks verification progress and renders it to the
// terminal.
package progress

import (
	"sync"
	"time"
)

// Progress is a monotonic counter triple with the time of its last change.
type Progress struct {
	Done      int
	Total     int
	Errors    int
	Timestamp time.Time
}

// Merge combines two snapshots field-wise under max semantics, keeping the
// later timestamp. Merging is commutative and idempotent, so snapshots
// taken by concurrent observers combine in any order.
func (p Progress) Merge(q Progress) Progress {
	out := Progress{
		Done:   max(p.Done, q.Done),
		Total:  max(p.Total, q.Total),
		Errors: max(p.Errors, q.Errors),
	}
	if q.Timestamp.After(p.Timestamp) {
		out.Timestamp = q.Timestamp
	} else {
		out.Timestamp = p.Timestamp
	}
	return out
}

// VerifyProgress aggregates the progress streams of one verification run.
// Producers mutate through methods; consumers take snapshots.
type VerifyProgress struct {
	mu       sync.Mutex
	local    Progress
	external Progress
	// fixable counts rate-limited probing: Total grows per 429 received,
	// Done per rate-limited URL that eventually succeeded, Errors per URL
	// that ran out of retries.
	fixable Progress
}

// NewVerifyProgress fixes the totals for the run ahead of time.
func NewVerifyProgress(localTotal, externalTotal int) *VerifyProgress {
	now := time.Now()
	return &VerifyProgress{
		local:    Progress{Total: localTotal, Timestamp: now},
		external: Progress{Total: externalTotal, Timestamp: now},
		fixable:  Progress{Timestamp: now},
	}
}

// LocalDone records one finished local reference check.
func (v *VerifyProgress) LocalDone(ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.local.Done++
	if !ok {
		v.local.Errors++
	}
	v.local.Timestamp = time.Now()
}

// ExternalDone records one finished external reference check.
func (v *VerifyProgress) ExternalDone(ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.external.Done++
	if !ok {
		v.external.Errors++
	}
	v.external.Timestamp = time.Now()
}

// RetryEvent records a 429 response that scheduled a retry.
func (v *VerifyProgress) RetryEvent() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fixable.Total++
	v.fixable.Timestamp = time.Now()
}

// RetryResolved records a rate-limited URL that succeeded on a later try.
func (v *VerifyProgress) RetryResolved() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fixable.Done++
	v.fixable.Timestamp = time.Now()
}

// RetryExhausted records a rate-limited URL that ran out of retries.
func (v *VerifyProgress) RetryExhausted() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fixable.Errors++
	v.fixable.Timestamp = time.Now()
}

// Snapshot returns copies of the three counters.
func (v *VerifyProgress) Snapshot() (local, external, fixable Progress) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.local, v.external, v.fixable
}
