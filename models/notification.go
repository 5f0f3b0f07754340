package models

import (
	"fmt"
	"time"
)

// NotificationVariant defines how a notification is presented
type NotificationVariant string

const (
	NotificationVariantSuccess NotificationVariant = "success"
	NotificationVariantWarning NotificationVariant = "warning"
)

// DefaultNotificationDuration is used when a notification sets none.
const DefaultNotificationDuration = 3 * time.Second

// Notification is a short user-facing message raised by a schedule action
// (bulk fill confirmation, ring continuity result or warning).
type Notification struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Duration    time.Duration       `json:"duration,omitempty"`
	Variant     NotificationVariant `json:"variant"`
}

// NewSuccessNotification builds a success notification.
func NewSuccessNotification(title, description string) Notification {
	return Notification{
		Title:       title,
		Description: description,
		Duration:    DefaultNotificationDuration,
		Variant:     NotificationVariantSuccess,
	}
}

// NewWarningNotification builds a warning notification.
func NewWarningNotification(title, description string) Notification {
	return Notification{
		Title:       title,
		Description: description,
		Duration:    DefaultNotificationDuration,
		Variant:     NotificationVariantWarning,
	}
}

// String renders the notification on one line, for logs and the CLI.
func (n Notification) String() string {
	if n.Description == "" {
		return fmt.Sprintf("[%s] %s", n.Variant, n.Title)
	}
	return fmt.Sprintf("[%s] %s: %s", n.Variant, n.Title, n.Description)
}
