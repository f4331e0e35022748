// Package secret holds process-lifetime credentials: the NVE API key and
// the service's own bearer token. Secrets have no rotation or lifecycle
// beyond the process.
package secret

import (
	"fmt"
	"os"
	"strings"
)

var ErrSecretNotFound = fmt.Errorf("secret not found")

// Well-known secret names.
const (
	KeyAPIKey   = "api_key"
	KeyAPIToken = "api_token"
)

type Store interface {
	// Get retrieves a secret by its name.
	Get(key string) (string, error)
	// Set stores a secret under the given name.
	Set(key, value string) error

	Close() error
}

type InMemoryStore struct {
	secrets map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		secrets: make(map[string]string),
	}
}

func (s *InMemoryStore) Get(key string) (string, error) {
	value, exists := s.secrets[key]
	if !exists {
		return "", ErrSecretNotFound
	}
	return value, nil
}

func (s *InMemoryStore) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if value == "" {
		return fmt.Errorf("value cannot be empty")
	}
	s.secrets[key] = value
	return nil
}

func (s *InMemoryStore) Close() error {
	if len(s.secrets) > 0 {
		s.secrets = make(map[string]string) // Clear secrets on close
	}
	return nil
}

// EnvStore resolves secrets from prefixed environment variables, e.g.
// with prefix "FLOMVAKT_" the secret "api_key" reads FLOMVAKT_API_KEY.
type EnvStore struct {
	prefix string
}

func NewEnvStore(prefix string) *EnvStore {
	return &EnvStore{prefix: prefix}
}

func (s *EnvStore) Get(key string) (string, error) {
	name := s.prefix + strings.ToUpper(key)
	value, exists := os.LookupEnv(name)
	if !exists || value == "" {
		return "", ErrSecretNotFound
	}
	return value, nil
}

func (s *EnvStore) Set(key, value string) error {
	return fmt.Errorf("env store is read-only")
}

func (s *EnvStore) Close() error {
	return nil
}
