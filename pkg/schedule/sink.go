// Package schedule implements the editable circuit schedule: per-row edits
// with derived values, header bulk fills, RCD presets, and the rules for how
// a bulk edit reaches the record owner.
//
// The package never owns records. Every change is requested through a
// MutationSink; a sink may additionally implement FieldBulkUpdater and/or
// RecordBulkUpdater, and the Table prefers those over per-field updates.
package schedule

import (
	"context"
	"errors"

	"p9e.in/eicr/models"
)

var (
	ErrNotFound = errors.New("circuit not found")
)

// MutationSink applies single-field mutations to the owner's records.
type MutationSink interface {
	Update(ctx context.Context, id string, field models.Field, value string) error
	Remove(ctx context.Context, id string) error
}

// FieldBulkUpdater sets one field on every record in one atomic step and
// returns the number of records touched.
type FieldBulkUpdater interface {
	BulkFieldUpdate(ctx context.Context, field models.Field, value string) (int, error)
}

// RecordBulkUpdater sets several fields on one record in a single call.
type RecordBulkUpdater interface {
	BulkUpdate(ctx context.Context, id string, updates models.FieldUpdates) error
}

// Store is a MutationSink that can also list its records in render order.
type Store interface {
	MutationSink
	List(ctx context.Context) ([]models.CircuitTestResult, error)
}

// SingleFieldOnly hides any batch capability of s, leaving only the
// per-field mutation surface.
func SingleFieldOnly(s Store) Store {
	return singleFieldStore{s}
}

type singleFieldStore struct {
	Store
}
