package secrets

import (
	"errors"
	"testing"
)

func TestDefaultStoreUsesTestDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(TestKeyringEnvVar, dir)

	store := DefaultStore()
	if _, ok := store.(*FileStore); !ok {
		t.Fatalf("DefaultStore() = %T, want *FileStore", store)
	}
}

func TestDefaultStoreOSKeyring(t *testing.T) {
	t.Setenv(TestKeyringEnvVar, "")
	if _, ok := DefaultStore().(*osKeyring); !ok {
		t.Error("DefaultStore() should return the OS keyring")
	}
}

func TestOSKeyringRejectsEmptyKey(t *testing.T) {
	k := &osKeyring{}
	if err := k.Set("", "x"); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Set(\"\") error = %v", err)
	}
	if _, err := k.Get(""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Get(\"\") error = %v", err)
	}
	if err := k.Delete(""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Delete(\"\") error = %v", err)
	}
}

func TestWrapKeyringError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"access denied", errors.New("permission denied"), ErrKeyringAccessDenied},
		{"unavailable", errors.New("org.freedesktop secret service unavailable"), ErrKeyringUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapKeyringError(tt.err, "ctx"); !errors.Is(got, tt.want) {
				t.Errorf("wrapKeyringError() = %v, want %v", got, tt.want)
			}
		})
	}

	plain := errors.New("boom")
	if got := wrapKeyringError(plain, "ctx"); !errors.Is(got, plain) {
		t.Errorf("wrapKeyringError() should wrap unknown errors, got %v", got)
	}
	if wrapKeyringError(nil, "ctx") != nil {
		t.Error("wrapKeyringError(nil) should be nil")
	}
}

func TestMockStore(t *testing.T) {
	m := NewMockStore()
	if err := m.Set("a", "1"); err != nil {
		t.Fatal(err)
	}
	if got, err := m.Get("a"); err != nil || got != "1" {
		t.Errorf("Get() = %q, %v", got, err)
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d", m.Count())
	}

	m.SetFailing(true)
	if err := m.IsAvailable(); !errors.Is(err, ErrKeyringUnavailable) {
		t.Errorf("IsAvailable() = %v", err)
	}
	if _, err := m.Get("a"); !errors.Is(err, ErrKeyringUnavailable) {
		t.Errorf("Get() = %v", err)
	}
	m.SetFailing(false)

	if err := m.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get("a"); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("Get() after Delete() = %v", err)
	}
}
