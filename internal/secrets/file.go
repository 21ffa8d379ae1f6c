package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xabinapal/gitflip/internal/utils"
)

// FileStore keeps one file per key in a directory. Only meant for tests.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory path is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create keyring directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// IsAvailable implements Store.
func (f *FileStore) IsAvailable() error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("%w: directory not accessible: %v", ErrKeyringUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: path is not a directory", ErrKeyringUnavailable)
	}
	return nil
}

// keyPath maps key to a file inside the store directory.
func (f *FileStore) keyPath(key string) (string, error) {
	fullPath := filepath.Join(f.dir, utils.SanitizeKey(key))

	absDir, err := filepath.Abs(f.dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if !strings.HasPrefix(absPath, absDir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key: path traversal detected")
	}
	return fullPath, nil
}

// Set implements Store.
func (f *FileStore) Set(key, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if key == "" {
		return ErrEmptyKey
	}
	path, err := f.keyPath(key)
	if err != nil {
		return err
	}

	// Replace rather than follow an existing file or symlink
	_ = os.Remove(path)

	// #nosec G304 - path is confined to the store directory by keyPath
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create secret file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(secret); err != nil {
		return fmt.Errorf("failed to write secret: %w", err)
	}
	return nil
}

// Get implements Store.
func (f *FileStore) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if key == "" {
		return "", ErrEmptyKey
	}
	path, err := f.keyPath(key)
	if err != nil {
		return "", err
	}

	// #nosec G304 - path is confined to the store directory by keyPath
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrSecretNotFound
		}
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return string(data), nil
}

// Delete implements Store.
func (f *FileStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if key == "" {
		return ErrEmptyKey
	}
	path, err := f.keyPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}
