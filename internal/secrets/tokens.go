package secrets

import (
	"errors"
	"fmt"
)

// TokenPrefix namespaces profile tokens inside the store.
const TokenPrefix = "gitflip.token."

// Tokens stores one HTTPS token per profile id.
type Tokens struct {
	store Store
}

// NewTokens wraps store.
func NewTokens(store Store) *Tokens {
	return &Tokens{store: store}
}

// Key returns the namespaced store key for a profile id.
func Key(profileID string) string {
	return TokenPrefix + profileID
}

// Store saves the token for profileID.
func (t *Tokens) Store(profileID, token string) error {
	if profileID == "" {
		return ErrEmptyKey
	}
	if err := t.store.Set(Key(profileID), token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Get returns the token for profileID. A missing token is reported through
// ok, not as an error.
func (t *Tokens) Get(profileID string) (string, bool, error) {
	if profileID == "" {
		return "", false, nil
	}
	token, err := t.store.Get(Key(profileID))
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read token: %w", err)
	}
	return token, true, nil
}

// Delete removes the token for profileID.
func (t *Tokens) Delete(profileID string) error {
	if profileID == "" {
		return nil
	}
	if err := t.store.Delete(Key(profileID)); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Has reports whether a non-empty token is stored for profileID. Store
// errors read as false.
func (t *Tokens) Has(profileID string) bool {
	token, ok, err := t.Get(profileID)
	return err == nil && ok && token != ""
}

// IsAvailable reports whether the underlying store can be used.
func (t *Tokens) IsAvailable() error {
	return t.store.IsAvailable()
}
