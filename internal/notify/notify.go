// Package notify raises alerts for the human operator when a contact asks to
// escalate past the automated attendant.
package notify

import (
	"context"

	"github.com/gen2brain/beeep"

	"github.com/atendeai/clinicbot/pkg/logging"
)

// Alert describes a single operator alert.
type Alert struct {
	Title   string
	Message string
	// Sound plays an audible cue alongside the notification.
	Sound bool
	// Wait asks the backend to keep the notification up until dismissed.
	// Backends that cannot honor it treat the alert as fire-and-forget.
	Wait bool
}

// Notifier delivers operator alerts. The dialog engine decides when to fire;
// delivery semantics belong to the implementation.
type Notifier interface {
	Alert(ctx context.Context, a Alert) error
}

// DesktopNotifier shows alerts as desktop notifications on the machine
// running the bot, the setup the clinic reception uses.
type DesktopNotifier struct {
	logger *logging.Logger
}

// NewDesktopNotifier creates a desktop notifier.
func NewDesktopNotifier(logger *logging.Logger) *DesktopNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &DesktopNotifier{logger: logger}
}

// Alert shows the notification, with a beep when a.Sound is set.
func (n *DesktopNotifier) Alert(_ context.Context, a Alert) error {
	var err error
	if a.Sound {
		err = beeep.Alert(a.Title, a.Message, "")
	} else {
		err = beeep.Notify(a.Title, a.Message, "")
	}
	if err != nil {
		n.logger.Error("notify: desktop alert failed", "error", err, "title", a.Title)
		return err
	}
	n.logger.Info("notify: operator alerted", "title", a.Title)
	return nil
}

// StubNotifier logs alerts without delivering them, for tests and headless
// deployments.
type StubNotifier struct {
	logger *logging.Logger
}

// NewStubNotifier creates a stub notifier.
func NewStubNotifier(logger *logging.Logger) *StubNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubNotifier{logger: logger}
}

// Alert logs but doesn't deliver.
func (n *StubNotifier) Alert(_ context.Context, a Alert) error {
	n.logger.Info("stub notifier: would alert operator", "title", a.Title, "message", a.Message)
	return nil
}

// Ensure interface compliance
var _ Notifier = (*DesktopNotifier)(nil)
var _ Notifier = (*StubNotifier)(nil)
