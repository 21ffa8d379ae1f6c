package profile

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"pkt.systems/pslog"
)

// Store holds the ordered profile list and the active profile pointer.
// Every mutation is persisted through the Backend before it becomes visible,
// and an Event is published once the write succeeds.
type Store struct {
	mu      sync.Mutex
	backend Backend
	bus     *Bus
	log     pslog.Logger
	state   State
	newID   func() string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithBus publishes store events on bus.
func WithBus(bus *Bus) StoreOption {
	return func(s *Store) { s.bus = bus }
}

// WithLogger sets the store logger.
func WithLogger(logger pslog.Logger) StoreOption {
	return func(s *Store) { s.log = logger }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewStore loads state from backend.
func NewStore(backend Backend, opts ...StoreOption) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("profile store requires a backend")
	}
	s := &Store{
		backend: backend,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	st, err := backend.Load()
	if err != nil {
		return nil, err
	}
	s.state = st.clone()
	if s.log != nil {
		s.log.Debug("profile store loaded", "profiles", len(st.Profiles), "active", st.ActiveProfileID)
	}
	return s, nil
}

// Bus returns the event bus, which may be nil.
func (s *Store) Bus() *Bus {
	return s.bus
}

// List returns all profiles in insertion order.
func (s *Store) List() []Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone().Profiles
}

// Get returns the profile with the given id.
func (s *Store) Get(id string) (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Profile{}, false
	}
	return s.state.Profiles[i], true
}

// Add stores a copy of data under a freshly generated id and returns it.
// Any id already set on data is ignored.
func (s *Store) Add(data Profile) (Profile, error) {
	s.mu.Lock()
	id := s.generateID()
	data.ID = id
	next := s.state.clone()
	next.Profiles = append(next.Profiles, data)
	if err := s.commit(next); err != nil {
		s.mu.Unlock()
		return Profile{}, err
	}
	s.mu.Unlock()

	if s.log != nil {
		s.log.Info("profile added", "profile", id, "name", data.Name)
	}
	s.bus.Publish(Event{Type: EventAdded, ProfileID: id})
	return data, nil
}

// Update merges patch into the profile with the given id. It reports false
// when no such profile exists.
func (s *Store) Update(id string, patch Patch) (Profile, bool, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Profile{}, false, nil
	}
	next := s.state.clone()
	next.Profiles[i] = patch.Apply(next.Profiles[i])
	updated := next.Profiles[i]
	if err := s.commit(next); err != nil {
		s.mu.Unlock()
		return Profile{}, true, err
	}
	s.mu.Unlock()

	if s.log != nil {
		s.log.Info("profile updated", "profile", id)
	}
	s.bus.Publish(Event{Type: EventUpdated, ProfileID: id})
	return updated, true, nil
}

// Replace overwrites the stored profile that has p.ID.
func (s *Store) Replace(p Profile) (bool, error) {
	s.mu.Lock()
	i := s.indexOf(p.ID)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	next := s.state.clone()
	next.Profiles[i] = p
	if err := s.commit(next); err != nil {
		s.mu.Unlock()
		return true, err
	}
	s.mu.Unlock()

	if s.log != nil {
		s.log.Info("profile updated", "profile", p.ID)
	}
	s.bus.Publish(Event{Type: EventUpdated, ProfileID: p.ID})
	return true, nil
}

// Remove deletes the profile with the given id, clearing the active pointer
// if it referenced it. It reports whether a profile was deleted.
func (s *Store) Remove(id string) (bool, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	next := s.state.clone()
	next.Profiles = append(next.Profiles[:i], next.Profiles[i+1:]...)
	if next.ActiveProfileID == id {
		next.ActiveProfileID = ""
	}
	if err := s.commit(next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.mu.Unlock()

	if s.log != nil {
		s.log.Info("profile removed", "profile", id)
	}
	s.bus.Publish(Event{Type: EventRemoved, ProfileID: id})
	return true, nil
}

// ActiveID returns the active profile id when it references a stored profile.
func (s *Store) ActiveID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.state.ActiveProfileID
	if id == "" || s.indexOf(id) < 0 {
		return "", false
	}
	return id, true
}

// Active returns the active profile.
func (s *Store) Active() (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(s.state.ActiveProfileID)
	if s.state.ActiveProfileID == "" || i < 0 {
		return Profile{}, false
	}
	return s.state.Profiles[i], true
}

// SetActive records id as the active profile. The id is not checked; an
// unknown id reads back as no active profile.
func (s *Store) SetActive(id string) error {
	s.mu.Lock()
	next := s.state.clone()
	next.ActiveProfileID = id
	if err := s.commit(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	if s.log != nil {
		s.log.Info("active profile set", "profile", id)
	}
	s.bus.Publish(Event{Type: EventActivated, ProfileID: id})
	return nil
}

// commit persists next and makes it current. Callers hold s.mu.
func (s *Store) commit(next State) error {
	if err := s.backend.Save(next); err != nil {
		return fmt.Errorf("failed to persist profiles: %w", err)
	}
	s.state = next
	return nil
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.state.Profiles {
		if s.state.Profiles[i].ID == id {
			return i
		}
	}
	return -1
}

// generateID returns an id not used by any stored profile. Callers hold s.mu.
func (s *Store) generateID() string {
	for {
		id := s.newID()
		if id != "" && s.indexOf(id) < 0 {
			return id
		}
	}
}
