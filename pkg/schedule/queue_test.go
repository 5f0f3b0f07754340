package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p9e.in/eicr/models"
)

func TestQueueDrainsInEnqueueOrder(t *testing.T) {
	spy := newSpy(circuits(3)...)
	q := NewQueue(0, nil)
	batch := newBatch(PathDeferred, 3)

	ctx := context.Background()
	q.enqueue(ctx, spy, "cc", models.FieldUpdates{models.FieldNotes: "third"}, batch)
	q.enqueue(ctx, spy, "ca", models.FieldUpdates{models.FieldNotes: "first"}, batch)
	q.enqueue(ctx, spy, "cb", models.FieldUpdates{models.FieldZs: "0.4", models.FieldNotes: "second"}, batch)
	assert.Equal(t, 3, q.Len())

	stop := runQueue(t, q)
	defer stop()
	res := waitBatch(t, batch)
	assert.Equal(t, 3, res.Applied)

	calls := spy.updateCalls()
	require.Len(t, calls, 4)
	assert.Equal(t, "cc", calls[0].ID)
	assert.Equal(t, "ca", calls[1].ID)
	// Within a record, fields follow schedule column order.
	assert.Equal(t, FieldUpdate{ID: "cb", Field: models.FieldZs, Value: "0.4"}, calls[2])
	assert.Equal(t, FieldUpdate{ID: "cb", Field: models.FieldNotes, Value: "second"}, calls[3])
}

func TestQueueFlushesOnStop(t *testing.T) {
	spy := newSpy(circuits(5)...)
	// A slow tick leaves work queued when Run is stopped.
	q := NewQueue(time.Hour, nil)
	batch := newBatch(PathDeferred, 5)
	for _, id := range idsOf(circuits(5)) {
		q.enqueue(context.Background(), spy, id, models.FieldUpdates{models.FieldAFDDTest: models.PassMark}, batch)
	}

	stop := runQueue(t, q)
	stop()

	assert.Zero(t, q.Len())
	res := waitBatch(t, batch)
	assert.Equal(t, 5, res.Applied)
}

func TestQueueIgnoresCallerCancellation(t *testing.T) {
	spy := newSpy(circuits(1)...)
	q := NewQueue(0, nil)
	batch := newBatch(PathDeferred, 1)

	ctx, cancel := context.WithCancel(context.Background())
	q.enqueue(ctx, spy, "ca", models.FieldUpdates{models.FieldNotes: "kept"}, batch)
	cancel()

	stop := runQueue(t, q)
	defer stop()
	waitBatch(t, batch)

	r, _ := spy.mem.Get("ca")
	assert.Equal(t, "kept", r.Notes)
}

func TestBatchWaitHonoursContext(t *testing.T) {
	b := newBatch(PathDeferred, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := b.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	b.recordDone("c1", nil)
	res, err := b.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, []string{"c1"}, res.CircuitIDs)
}

func TestEmptyBatchIsDone(t *testing.T) {
	b := newBatch(PathDeferred, 0)
	select {
	case <-b.Done():
	default:
		t.Fatal("empty batch should be done")
	}
}
