package notify

import "github.com/gen2brain/beeep"

// Backend delivers notifications to the desktop.
type Backend interface {
	// Notify shows an informational notification.
	Notify(title, message, iconPath string) error
	// Alert shows a notification that asks for attention.
	Alert(title, message, iconPath string) error
}

// beeepBackend sends notifications through beeep.
type beeepBackend struct{}

func (beeepBackend) Notify(title, message, iconPath string) error {
	return beeep.Notify(title, message, iconPath)
}

func (beeepBackend) Alert(title, message, iconPath string) error {
	return beeep.Alert(title, message, iconPath)
}
