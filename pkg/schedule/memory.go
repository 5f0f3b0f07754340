package schedule

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"p9e.in/eicr/models"
)

// MemoryStore keeps a schedule's circuits in memory: a map keyed by id plus
// the insertion order used for rendering. It implements Store,
// FieldBulkUpdater and RecordBulkUpdater.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*models.CircuitTestResult
	order []string
}

// NewMemoryStore seeds a store with records in the given order. Records
// without an id get one.
func NewMemoryStore(records ...models.CircuitTestResult) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]*models.CircuitTestResult)}
	for _, r := range records {
		s.Insert(r)
	}
	return s
}

// Insert appends rec after the highest position and returns its id.
// Inserting an id that already exists replaces the record in place.
func (s *MemoryStore) Insert(rec models.CircuitTestResult) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, ok := s.byID[rec.ID]; !ok {
		rec.Position = 0
		for _, r := range s.byID {
			if r.Position >= rec.Position {
				rec.Position = r.Position + 1
			}
		}
		s.order = append(s.order, rec.ID)
	}
	s.byID[rec.ID] = &rec
	return rec.ID
}

// Get returns a copy of one record.
func (s *MemoryStore) Get(id string) (models.CircuitTestResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return models.CircuitTestResult{}, false
	}
	return *rec, true
}

// Len returns the number of records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *MemoryStore) List(ctx context.Context) ([]models.CircuitTestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CircuitTestResult, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, field models.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.Set(field, value)
}

func (s *MemoryStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) BulkFieldUpdate(ctx context.Context, field models.Field, value string) (int, error) {
	if _, err := models.ParseField(string(field)); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Validate against a scratch record first so a bad value touches nothing.
	var scratch models.CircuitTestResult
	if err := scratch.Set(field, value); err != nil {
		return 0, err
	}
	for _, id := range s.order {
		if err := s.byID[id].Set(field, value); err != nil {
			return 0, err
		}
	}
	return len(s.order), nil
}

func (s *MemoryStore) BulkUpdate(ctx context.Context, id string, updates models.FieldUpdates) error {
	if err := updates.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.Apply(updates)
}
