package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/insights/internal/shared"
	"golang.org/x/oauth2"
)

// Keys of the persisted auth context.
const (
	KeyState       = "spotify_auth_state"
	KeyVerifier    = "code_verifier"
	KeyAccessToken = "access_token"
)

// Store is the persisted auth context: a plain string key/value store with no TTL.
//
// Get returns [shared.ErrKeyNotFound] for missing keys. Delete of a missing key is not an error.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStore is an in-process [Store].
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrKeyNotFound, key)
	}
	return v, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// lookup reads key, folding "not found" into ok=false.
func lookup(store Store, key string) (value string, ok bool, err error) {
	value, err = store.Get(key)
	if errors.Is(err, shared.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// AccessToken returns the persisted access token or [shared.ErrNotAuthenticated].
func AccessToken(store Store) (string, error) {
	token, ok, err := lookup(store, KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	if !ok || token == "" {
		return "", shared.ErrNotAuthenticated
	}
	return token, nil
}

// Logout removes the persisted access token. Pending login state is left alone.
func Logout(store Store) error {
	if err := store.Delete(KeyAccessToken); err != nil {
		return fmt.Errorf("failed to remove access token: %w", err)
	}
	return nil
}

type storeTokenSource struct {
	store Store
}

// TokenSource returns an [oauth2.TokenSource] that reads the persisted access token on every call,
// so a logout or a fresh login is picked up by the next request.
//
// Tokens carry no expiry; there is no refresh.
func TokenSource(store Store) oauth2.TokenSource {
	return storeTokenSource{store: store}
}

func (s storeTokenSource) Token() (*oauth2.Token, error) {
	token, err := AccessToken(s.store)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}
