package sdk

import "sync"

// Credential is an opaque bearer token. Its expiry is implied by the claims
// it carries; see DecodeClaims.
type Credential string

// TokenStore persists the bearer credential. Implementations perform no
// validation of the token shape.
type TokenStore interface {
	// Get returns the stored credential or ErrNoCredential.
	Get() (Credential, error)
	// Set replaces the stored credential.
	Set(Credential) error
	// Clear removes the stored credential. Clearing an empty store is not an error.
	Clear() error
}

// MemoryStore is a process-local TokenStore.
type MemoryStore struct {
	mu    sync.RWMutex
	token Credential
}

// Ensure MemoryStore implements TokenStore at compile time.
var _ TokenStore = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with token; pass "" for an empty store.
func NewMemoryStore(token Credential) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Get() (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoCredential
	}
	return s.token, nil
}

func (s *MemoryStore) Set(token Credential) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
