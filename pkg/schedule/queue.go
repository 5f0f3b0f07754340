package schedule

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"p9e.in/eicr/models"
)

// DefaultTick is the pause between two drained records, about one display
// frame.
const DefaultTick = 16 * time.Millisecond

// task is one record's worth of single-field updates.
type task struct {
	ctx     context.Context
	sink    MutationSink
	id      string
	updates models.FieldUpdates
	batch   *Batch
}

// Queue drains deferred single-field updates one record per tick so that a
// large bulk action never monopolises the owner. Tasks run in enqueue order
// and cannot be cancelled once enqueued; stopping Run finishes whatever is
// still queued before returning.
type Queue struct {
	mu      sync.Mutex
	tasks   []task
	wake    chan struct{}
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewQueue creates a queue that processes at most one record per tick.
// A tick <= 0 disables pacing.
func NewQueue(tick time.Duration, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if tick > 0 {
		limit = rate.Every(tick)
	}
	return &Queue{
		wake:    make(chan struct{}, 1),
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Len returns the number of records waiting to be drained.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// enqueue never blocks. The caller's cancellation does not reach the task.
func (q *Queue) enqueue(ctx context.Context, sink MutationSink, id string, updates models.FieldUpdates, batch *Batch) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task{
		ctx:     context.WithoutCancel(ctx),
		sink:    sink,
		id:      id,
		updates: updates,
		batch:   batch,
	})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) pop() (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return task{}, false
	}
	t := q.tasks[0]
	q.tasks[0] = task{}
	q.tasks = q.tasks[1:]
	return t, true
}

// Run drains the queue until ctx is done, then flushes the remaining tasks
// without pacing.
func (q *Queue) Run(ctx context.Context) error {
	for {
		t, ok := q.pop()
		if !ok {
			select {
			case <-q.wake:
				continue
			case <-ctx.Done():
				q.flush()
				return nil
			}
		}
		if err := q.limiter.Wait(ctx); err != nil {
			q.run(t)
			q.flush()
			return nil
		}
		q.run(t)
	}
}

func (q *Queue) flush() {
	for {
		t, ok := q.pop()
		if !ok {
			return
		}
		q.run(t)
	}
}

func (q *Queue) run(t task) {
	var failures []UpdateFailure
	for _, f := range t.updates.Fields() {
		if err := t.sink.Update(t.ctx, t.id, f, t.updates[f]); err != nil {
			q.logger.Warn("deferred update failed",
				zap.String("circuit_id", t.id),
				zap.String("field", string(f)),
				zap.Error(err))
			failures = append(failures, UpdateFailure{ID: t.id, Field: f, Err: err})
		}
	}
	if t.batch != nil {
		t.batch.recordDone(t.id, failures)
	}
}
