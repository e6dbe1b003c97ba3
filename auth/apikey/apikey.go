// Package apikey checks static API keys against bcrypt hashes from
// configuration, so plaintext keys never sit in config files.
package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Key is one configured API key.
type Key struct {
	Name string `mapstructure:"name"`
	// Hash is the bcrypt hash of the key, as printed by Hash.
	Hash string `mapstructure:"hash"`
}

// Store verifies presented keys. Accepted keys are remembered by digest so
// bcrypt runs once per key rather than once per request.
type Store struct {
	keys []Key

	mu       sync.RWMutex
	accepted map[[sha256.Size]byte]string
}

// NewStore checks that every hash is a bcrypt hash.
func NewStore(keys []Key) (*Store, error) {
	for _, k := range keys {
		if k.Name == "" {
			return nil, errors.New("apikey: key name is required")
		}
		if _, err := bcrypt.Cost([]byte(k.Hash)); err != nil {
			return nil, fmt.Errorf("apikey: key %q: %w", k.Name, err)
		}
	}
	return &Store{keys: keys, accepted: make(map[[sha256.Size]byte]string)}, nil
}

// Verify returns the name of the key matching presented.
func (s *Store) Verify(presented string) (string, bool) {
	if presented == "" {
		return "", false
	}
	digest := sha256.Sum256([]byte(presented))

	s.mu.RLock()
	name, ok := s.accepted[digest]
	s.mu.RUnlock()
	if ok {
		return name, true
	}

	for _, k := range s.keys {
		if bcrypt.CompareHashAndPassword([]byte(k.Hash), []byte(presented)) == nil {
			s.mu.Lock()
			s.accepted[digest] = k.Name
			s.mu.Unlock()
			return k.Name, true
		}
	}
	return "", false
}

// Len returns the number of configured keys.
func (s *Store) Len() int { return len(s.keys) }

// Generate returns a new random key and its bcrypt hash.
func Generate() (key, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("apikey: %w", err)
	}
	key = "wsk_" + base64.RawURLEncoding.EncodeToString(buf)
	hash, err = Hash(key)
	return key, hash, err
}

// Hash returns the bcrypt hash to put in configuration for key.
func Hash(key string) (string, error) {
	if len(key) > 72 {
		return "", errors.New("apikey: keys longer than 72 bytes are not supported")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("apikey: %w", err)
	}
	return string(h), nil
}
