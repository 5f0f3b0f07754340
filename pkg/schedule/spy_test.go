package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"p9e.in/eicr/models"
)

type recordCall struct {
	id      string
	updates models.FieldUpdates
}

// spyStore records every call and forwards to a MemoryStore. On its own it
// only offers the single-field surface.
type spyStore struct {
	mem *MemoryStore

	mu          sync.Mutex
	updates     []FieldUpdate
	removes     []string
	recordCalls []recordCall
	fieldCalls  int
	failUpdate  func(id string, f models.Field) error
}

func newSpy(records ...models.CircuitTestResult) *spyStore {
	return &spyStore{mem: NewMemoryStore(records...)}
}

func (s *spyStore) List(ctx context.Context) ([]models.CircuitTestResult, error) {
	return s.mem.List(ctx)
}

func (s *spyStore) Update(ctx context.Context, id string, field models.Field, value string) error {
	s.mu.Lock()
	s.updates = append(s.updates, FieldUpdate{ID: id, Field: field, Value: value})
	fail := s.failUpdate
	s.mu.Unlock()
	if fail != nil {
		if err := fail(id, field); err != nil {
			return err
		}
	}
	return s.mem.Update(ctx, id, field, value)
}

func (s *spyStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	s.removes = append(s.removes, id)
	s.mu.Unlock()
	return s.mem.Remove(ctx, id)
}

func (s *spyStore) updateCalls() []FieldUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FieldUpdate(nil), s.updates...)
}

// recordSpy adds RecordBulkUpdater.
type recordSpy struct {
	*spyStore
}

func (s recordSpy) BulkUpdate(ctx context.Context, id string, updates models.FieldUpdates) error {
	s.mu.Lock()
	s.recordCalls = append(s.recordCalls, recordCall{id: id, updates: updates})
	s.mu.Unlock()
	return s.mem.BulkUpdate(ctx, id, updates)
}

// atomicSpy adds FieldBulkUpdater on top of recordSpy.
type atomicSpy struct {
	recordSpy
}

func (s atomicSpy) BulkFieldUpdate(ctx context.Context, field models.Field, value string) (int, error) {
	s.mu.Lock()
	s.fieldCalls++
	s.mu.Unlock()
	return s.mem.BulkFieldUpdate(ctx, field, value)
}

func circuits(n int) []models.CircuitTestResult {
	out := make([]models.CircuitTestResult, n)
	for i := range out {
		out[i] = models.CircuitTestResult{
			ID:                 "c" + string(rune('a'+i)),
			CircuitDesignation: string(rune('1' + i)),
		}
	}
	return out
}

func idsOf(recs []models.CircuitTestResult) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

// runQueue starts q and returns a stop function that waits for Run to exit.
func runQueue(t *testing.T, q *Queue) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = q.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("queue did not stop")
		}
	}
}
