package schedule

import (
	"context"
	"encoding/json"
	"sync"

	"p9e.in/eicr/models"
)

// BatchPath names the route a bulk action took to the record owner.
type BatchPath string

const (
	// PathAtomic: one FieldBulkUpdater call covering every record.
	PathAtomic BatchPath = "atomic"
	// PathPerRecord: one RecordBulkUpdater call per target record.
	PathPerRecord BatchPath = "per_record"
	// PathDeferred: single-field updates drained by the Queue.
	PathDeferred BatchPath = "deferred"
)

// UpdateFailure is one sub-update the owner rejected.
type UpdateFailure struct {
	ID    string       `json:"id"`
	Field models.Field `json:"field,omitempty"`
	Err   error        `json:"-"`
}

// MarshalJSON includes the error text.
func (f UpdateFailure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		ID    string       `json:"id"`
		Field models.Field `json:"field,omitempty"`
		Error string       `json:"error"`
	}{f.ID, f.Field, msg})
}

// BatchResult summarises a finished bulk action. CircuitIDs lists the
// records the action reached.
type BatchResult struct {
	Path       BatchPath       `json:"path"`
	Targets    int             `json:"targets"`
	Applied    int             `json:"applied"`
	CircuitIDs []string        `json:"circuitIds,omitempty"`
	Failures   []UpdateFailure `json:"failures,omitempty"`
}

// Complete reports whether every sub-update was applied.
func (r BatchResult) Complete() bool {
	return len(r.Failures) == 0
}

// Batch tracks a bulk action that may still be draining.
type Batch struct {
	mu      sync.Mutex
	result  BatchResult
	pending int
	done    chan struct{}
}

func newBatch(path BatchPath, targets int) *Batch {
	b := &Batch{
		result:  BatchResult{Path: path, Targets: targets},
		pending: targets,
		done:    make(chan struct{}),
	}
	if targets == 0 {
		close(b.done)
	}
	return b
}

// completedBatch returns a batch that is already finished.
func completedBatch(res BatchResult) *Batch {
	b := &Batch{result: res, done: make(chan struct{})}
	close(b.done)
	return b
}

// Path returns the route this batch took.
func (b *Batch) Path() BatchPath {
	return b.result.Path
}

// recordDone accounts for one finished target record.
func (b *Batch) recordDone(id string, failures []UpdateFailure) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == 0 {
		return
	}
	if len(failures) == 0 {
		b.result.Applied++
		b.result.CircuitIDs = append(b.result.CircuitIDs, id)
	} else {
		b.result.Failures = append(b.result.Failures, failures...)
	}
	b.pending--
	if b.pending == 0 {
		close(b.done)
	}
}

// Done is closed when every target record has been processed.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Result returns the current result; it is final once Done is closed.
func (b *Batch) Result() BatchResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	res := b.result
	res.CircuitIDs = append([]string(nil), b.result.CircuitIDs...)
	res.Failures = append([]UpdateFailure(nil), b.result.Failures...)
	return res
}

// Wait blocks until the batch finishes or ctx ends. Cancelling ctx stops
// the wait, not the queued updates.
func (b *Batch) Wait(ctx context.Context) (BatchResult, error) {
	select {
	case <-b.done:
		return b.Result(), nil
	case <-ctx.Done():
		return b.Result(), ctx.Err()
	}
}
