package session

import "sync"

// Store persists the access/refresh token pair and signals every mutation
// on its event bus.
//
// SetTokens is a partial update: an empty string leaves the corresponding
// stored value untouched rather than clearing it. Clear removes both.
// Reads must be safe when the persistence medium is unavailable and return
// "" in that case.
type Store interface {
	AccessToken() string
	RefreshToken() string
	SetTokens(access, refresh string)
	Clear()

	// Epoch increments on every Clear. The refresh coordinator compares
	// epochs around an exchange to discard results that straddle a logout.
	Epoch() uint64

	Events() *Bus
}

// MemoryStore keeps the token pair in process memory. It is the default
// store and the right choice for tests and short-lived programs.
type MemoryStore struct {
	mu      sync.Mutex
	access  string
	refresh string
	epoch   uint64
	bus     *Bus
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bus: NewBus()}
}

// AccessToken returns the stored access token, or "".
func (s *MemoryStore) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

// RefreshToken returns the stored refresh token, or "".
func (s *MemoryStore) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

// SetTokens overwrites each non-empty value and publishes EventSessionChanged.
func (s *MemoryStore) SetTokens(access, refresh string) {
	s.mu.Lock()
	if access != "" {
		s.access = access
	}
	if refresh != "" {
		s.refresh = refresh
	}
	s.mu.Unlock()
	s.bus.Publish(EventSessionChanged)
}

// Clear removes both values and publishes EventSessionChanged.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	s.epoch++
	s.mu.Unlock()
	s.bus.Publish(EventSessionChanged)
}

// Epoch returns the number of Clear calls so far.
func (s *MemoryStore) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Events returns the store's notification bus.
func (s *MemoryStore) Events() *Bus {
	return s.bus
}
