// Package secrets stores per-profile tokens in the OS keyring.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/xabinapal/gitflip/internal/utils"
)

const (
	// ServiceName is the keyring service all gitflip secrets are filed under.
	ServiceName = "gitflip"

	// TestKeyringEnvVar, when set to a directory, replaces the OS keyring with
	// a file-backed store. Only meant for tests.
	TestKeyringEnvVar = "GITFLIP_TEST_KEYRING_DIR"

	availabilityProbe = "__availability_check__"
)

var (
	// ErrKeyringUnavailable is returned when no secure keyring is available.
	ErrKeyringUnavailable = errors.New("secure keyring is not available on this system")
	// ErrSecretNotFound is returned when nothing is stored under a key.
	ErrSecretNotFound = errors.New("secret not found in keyring")
	// ErrKeyringAccessDenied is returned when access to the keyring is denied.
	ErrKeyringAccessDenied = errors.New("access to keyring denied")
	// ErrEmptyKey is returned for operations on an empty key.
	ErrEmptyKey = errors.New("key cannot be empty")
)

// Store is an opaque key to secret mapping.
type Store interface {
	// Set stores secret under key.
	Set(key, secret string) error
	// Get returns the secret under key or ErrSecretNotFound.
	Get(key string) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// IsAvailable checks that the backend can be used.
	IsAvailable() error
}

// DefaultStore returns the OS keyring, or a file store when
// GITFLIP_TEST_KEYRING_DIR is set.
func DefaultStore() Store {
	if testDir := os.Getenv(TestKeyringEnvVar); testDir != "" {
		fileStore, err := NewFileStore(testDir)
		if err != nil {
			return &osKeyring{}
		}
		return fileStore
	}
	return &osKeyring{}
}

type osKeyring struct{}

func (k *osKeyring) IsAvailable() error {
	_, err := gokeyring.Get(ServiceName, availabilityProbe)
	if err == nil || errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}

	errStr := err.Error()
	switch runtime.GOOS {
	case "linux":
		if utils.ContainsAny(errStr, "secret service", "dbus", "org.freedesktop.secrets") {
			return fmt.Errorf("%w: D-Bus secret service not available - please install and start gnome-keyring, kwallet, or another secret service provider", ErrKeyringUnavailable)
		}
	case "darwin":
		if utils.ContainsAny(errStr, "keychain", "security") {
			return fmt.Errorf("%w: macOS Keychain not accessible", ErrKeyringUnavailable)
		}
	case "windows":
		if utils.ContainsAny(errStr, "credential", "wincred") {
			return fmt.Errorf("%w: Windows Credential Manager not accessible", ErrKeyringUnavailable)
		}
	}

	// Unknown availability check errors surface from the real operation instead
	return nil
}

func (k *osKeyring) Set(key, secret string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if secret == "" {
		return errors.New("secret cannot be empty")
	}
	if err := k.IsAvailable(); err != nil {
		return err
	}

	if err := gokeyring.Set(ServiceName, key, secret); err != nil {
		return wrapKeyringError(err, "failed to store secret")
	}
	return nil
}

func (k *osKeyring) Get(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	if err := k.IsAvailable(); err != nil {
		return "", err
	}

	secret, err := gokeyring.Get(ServiceName, key)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", ErrSecretNotFound
		}
		return "", wrapKeyringError(err, "failed to retrieve secret")
	}
	return secret, nil
}

func (k *osKeyring) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := k.IsAvailable(); err != nil {
		return err
	}

	if err := gokeyring.Delete(ServiceName, key); err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return nil
		}
		return wrapKeyringError(err, "failed to delete secret")
	}
	return nil
}

func wrapKeyringError(err error, context string) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	if utils.ContainsAny(errStr, "denied", "permission", "not allowed", "unauthorized") {
		return fmt.Errorf("%w: %s: %v", ErrKeyringAccessDenied, context, err)
	}
	if utils.ContainsAny(errStr, "no keyring", "unavailable", "secret service") {
		return fmt.Errorf("%w: %s: %v", ErrKeyringUnavailable, context, err)
	}
	return fmt.Errorf("%s: %w", context, err)
}
