// Package notifier defines the port for telling the site's editors about
// new inbox activity.
package notifier

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a notifier is missing its destination.
var ErrNotConfigured = errors.New("notifier: not configured")

// Notification is the payload sent through a Notifier.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Source  string `json:"source"` // subject that triggered it, e.g. "messages.created"
}

// Notifier delivers notifications to one destination.
type Notifier interface {
	// Name returns the unique identifier for this notifier (e.g. "slack", "email").
	Name() string

	// Send delivers a notification.
	Send(ctx context.Context, n Notification) error
}
