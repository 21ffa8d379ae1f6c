package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// State is the persisted form of the store.
type State struct {
	Profiles        []Profile `yaml:"profiles"`
	ActiveProfileID string    `yaml:"active_profile_id,omitempty"`
}

func (s State) clone() State {
	out := State{ActiveProfileID: s.ActiveProfileID}
	if len(s.Profiles) > 0 {
		out.Profiles = make([]Profile, len(s.Profiles))
		copy(out.Profiles, s.Profiles)
	}
	return out
}

// Backend persists store state.
type Backend interface {
	// Load returns the stored state, or an empty state when nothing was saved.
	Load() (State, error)
	// Save replaces the stored state.
	Save(State) error
}

// FileBackend stores state as YAML in a single file.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend writing to path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the state file path.
func (b *FileBackend) Path() string {
	return b.path
}

// Load reads the state file.
func (b *FileBackend) Load() (State, error) {
	// #nosec G304 - path is the state file in the user's data directory
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("failed to read profile state: %w", err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("failed to parse profile state: %w", err)
	}
	return st, nil
}

// Save writes the state file through a temporary file and rename.
func (b *FileBackend) Save(st State) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal profile state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".profiles-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write profile state: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set state file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		return fmt.Errorf("failed to replace profile state: %w", err)
	}
	return nil
}

// MemoryBackend keeps state in memory.
type MemoryBackend struct {
	mu    sync.Mutex
	state State
	saves int
	// SaveErr, when set, is returned by Save without storing anything.
	SaveErr error
}

// NewMemoryBackend creates a backend seeded with st.
func NewMemoryBackend(st State) *MemoryBackend {
	return &MemoryBackend{state: st.clone()}
}

// Load returns a copy of the held state.
func (m *MemoryBackend) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone(), nil
}

// Save replaces the held state.
func (m *MemoryBackend) Save(st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.state = st.clone()
	m.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
