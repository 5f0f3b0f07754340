package schedule

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"p9e.in/eicr/models"
)

// Table mediates between a Store, the header bulk controls and the row
// editor. It buffers nothing: every request goes straight to the store or,
// on the fallback path, onto the Queue.
type Table struct {
	store    Store
	queue    *Queue
	notifier Notifier
	logger   *zap.Logger
}

// NewTable wires a table over store. queue is only used when the store lacks
// the batch capabilities; it may be nil if the store has them.
func NewTable(store Store, queue *Queue, notifier Notifier, logger *zap.Logger) *Table {
	if notifier == nil {
		notifier = discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Table{store: store, queue: queue, notifier: notifier, logger: logger}
}

// Rows returns the circuits in render order.
func (t *Table) Rows(ctx context.Context) ([]models.CircuitTestResult, error) {
	return t.store.List(ctx)
}

// Row returns one circuit by id.
func (t *Table) Row(ctx context.Context, id string) (models.CircuitTestResult, error) {
	rows, err := t.store.List(ctx)
	if err != nil {
		return models.CircuitTestResult{}, err
	}
	for _, r := range rows {
		if r.ID == id {
			return r, nil
		}
	}
	return models.CircuitTestResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Editor returns a row editor emitting through this table.
func (t *Table) Editor() *RowEditor {
	return NewRowEditor(t.store, t.notifier, t.logger)
}

// Header returns the header bulk-fill controls for this table.
func (t *Table) Header() *HeaderControls {
	return &HeaderControls{table: t, notifier: t.notifier}
}

// OnUpdate applies one field mutation to one record.
func (t *Table) OnUpdate(ctx context.Context, id string, field models.Field, value string) error {
	return t.store.Update(ctx, id, field, value)
}

// OnRemove deletes one record.
func (t *Table) OnRemove(ctx context.Context, id string) error {
	return t.store.Remove(ctx, id)
}

// BulkFieldUpdate sets field to value on every record. It prefers one
// atomic FieldBulkUpdater call, then one RecordBulkUpdater call per record,
// and otherwise queues a single-field update per record.
func (t *Table) BulkFieldUpdate(ctx context.Context, field models.Field, value string) (*Batch, error) {
	if _, err := models.ParseField(string(field)); err != nil {
		return nil, err
	}

	rows, err := t.store.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	if bulk, ok := t.store.(FieldBulkUpdater); ok {
		n, err := bulk.BulkFieldUpdate(ctx, field, value)
		if err != nil {
			return nil, fmt.Errorf("bulk update %s: %w", field, err)
		}
		t.logger.Info("bulk field update",
			zap.String("field", string(field)),
			zap.String("path", string(PathAtomic)),
			zap.Int("records", n))
		return completedBatch(BatchResult{Path: PathAtomic, Targets: n, Applied: n, CircuitIDs: ids}), nil
	}

	return t.applyToRecords(ctx, ids, models.FieldUpdates{field: value})
}

// ApplyRCDPreset applies the preset's four RCD fields to every target id and
// raises one notification naming the preset and the circuit count.
func (t *Table) ApplyRCDPreset(ctx context.Context, ids []string, preset models.RCDPreset) (*Batch, error) {
	batch, err := t.applyToRecords(ctx, ids, preset.Updates())
	if err != nil {
		return nil, err
	}
	t.notifier.Notify(models.NewSuccessNotification(
		"RCD Preset Applied",
		fmt.Sprintf("%s applied to %d %s", preset.Label, len(ids), plural(len(ids), "circuit", "circuits")),
	))
	return batch, nil
}

// applyToRecords sends updates to each id, atomically per record when the
// store supports it and through the queue otherwise.
func (t *Table) applyToRecords(ctx context.Context, ids []string, updates models.FieldUpdates) (*Batch, error) {
	if err := updates.Validate(); err != nil {
		return nil, err
	}

	if bulk, ok := t.store.(RecordBulkUpdater); ok {
		res := BatchResult{Path: PathPerRecord, Targets: len(ids)}
		for _, id := range ids {
			if err := bulk.BulkUpdate(ctx, id, updates); err != nil {
				res.Failures = append(res.Failures, UpdateFailure{ID: id, Err: err})
				continue
			}
			res.Applied++
			res.CircuitIDs = append(res.CircuitIDs, id)
		}
		t.logger.Info("per-record bulk update",
			zap.Int("records", len(ids)),
			zap.Int("fields", len(updates)),
			zap.Int("failed", len(res.Failures)))
		return completedBatch(res), nil
	}

	if t.queue == nil {
		return nil, fmt.Errorf("store has no batch capability and no queue is configured")
	}
	batch := newBatch(PathDeferred, len(ids))
	for _, id := range ids {
		t.queue.enqueue(ctx, t.store, id, updates, batch)
	}
	t.logger.Info("deferred bulk update queued",
		zap.Int("records", len(ids)),
		zap.Int("fields", len(updates)),
		zap.Int("queue_len", t.queue.Len()))
	return batch, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
