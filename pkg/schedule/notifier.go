package schedule

import (
	"sync"

	"go.uber.org/zap"

	"p9e.in/eicr/models"
)

// Notifier surfaces a short message to the user.
type Notifier interface {
	Notify(n models.Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(models.Notification)

func (f NotifierFunc) Notify(n models.Notification) { f(n) }

// Recorder collects notifications, e.g. to return them with an HTTP response.
type Recorder struct {
	mu    sync.Mutex
	items []models.Notification
}

func (r *Recorder) Notify(n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// Notifications returns what has been recorded so far.
func (r *Recorder) Notifications() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.items...)
}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	Logger *zap.Logger
}

func (l LogNotifier) Notify(n models.Notification) {
	logger := l.Logger
	if logger == nil {
		return
	}
	fields := []zap.Field{zap.String("title", n.Title), zap.String("description", n.Description)}
	if n.Variant == models.NotificationVariantWarning {
		logger.Warn("notification", fields...)
		return
	}
	logger.Info("notification", fields...)
}

// Notifiers fans a notification out to several notifiers.
type Notifiers []Notifier

func (ns Notifiers) Notify(n models.Notification) {
	for _, x := range ns {
		if x != nil {
			x.Notify(n)
		}
	}
}

type discard struct{}

func (discard) Notify(models.Notification) {}
