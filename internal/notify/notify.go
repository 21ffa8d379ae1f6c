// Package notify shows desktop notifications when the active identity
// changes.
package notify

import (
	"fmt"

	"github.com/xabinapal/gitflip/internal/config"
	"github.com/xabinapal/gitflip/internal/utils"
)

// Notifier reports switch outcomes.
type Notifier interface {
	// NotifySwitch announces that profile is now active at scope.
	NotifySwitch(profile, name, email, scope string) error
	// NotifyFailure announces that switching to profile failed.
	NotifyFailure(profile string, err error) error
}

// Option configures a Notifier.
type Option func(*notifier)

// WithBackend replaces the desktop backend.
func WithBackend(backend Backend) Option {
	return func(n *notifier) {
		n.backend = backend
	}
}

type notifier struct {
	enabled bool
	backend Backend
}

// New creates a Notifier. When notifications are disabled in cfg every
// call is a no-op.
func New(cfg config.NotificationConfig, opts ...Option) Notifier {
	n := &notifier{
		enabled: cfg.Enabled,
		backend: beeepBackend{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *notifier) NotifySwitch(profile, name, email, scope string) error {
	if !n.enabled {
		return nil
	}
	title := "gitflip: " + profile
	message := fmt.Sprintf("Now committing as %s (%s)", utils.FormatIdentity(name, email), scope)
	return n.backend.Notify(title, message, "")
}

func (n *notifier) NotifyFailure(profile string, err error) error {
	if !n.enabled {
		return nil
	}
	title := "gitflip: switch failed"
	message := fmt.Sprintf("Could not switch to '%s'.\nError: %v", profile, err)
	return n.backend.Alert(title, message, "")
}

// Discard is a Notifier that never shows anything.
var Discard Notifier = &notifier{}
