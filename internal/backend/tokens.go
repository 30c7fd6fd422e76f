package backend

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

// tokenKey is the key the access token is stored under.
const tokenKey = "token"

// ErrNoToken is returned when no access token has been stored.
var ErrNoToken = errors.New("backend: no access token stored")

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Token() (string, error)
	SetToken(token string) error
	ClearToken() error
}

// KeyringStore keeps the token in the operating system keyring.
type KeyringStore struct {
	Service string
}

func (s KeyringStore) Token() (string, error) {
	token, err := keyring.Get(s.Service, tokenKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("backend: read token: %w", err)
	}
	return token, nil
}

func (s KeyringStore) SetToken(token string) error {
	if err := keyring.Set(s.Service, tokenKey, token); err != nil {
		return fmt.Errorf("backend: store token: %w", err)
	}
	return nil
}

func (s KeyringStore) ClearToken() error {
	err := keyring.Delete(s.Service, tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("backend: delete token: %w", err)
	}
	return nil
}

// MemoryStore keeps the token in memory only.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *MemoryStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) ClearToken() error {
	return s.SetToken("")
}
