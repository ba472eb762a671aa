// Package auth guards write operations. API keys authenticate HTTP and
// MCP callers; a bcrypt-hashed password additionally protects deletes.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"sync"
)

const (
	// APIKeyPrefix marks sharefastly API keys.
	APIKeyPrefix = "sf_"

	// APIKeyMinLen is the prefix plus 16 random bytes in hex.
	APIKeyMinLen = len(APIKeyPrefix) + 32
)

// APIKey is a configured key and the user it authenticates.
type APIKey struct {
	UserID string
	hash   [sha256.Size]byte
}

// Store holds the configured API keys. Keys are kept only as SHA-256
// digests.
type Store struct {
	mu   sync.RWMutex
	keys []*APIKey
}

// NewStore creates an empty key store.
func NewStore() *Store {
	return &Store{}
}

// RegisterAPIKey adds key for userID.
func (s *Store) RegisterAPIKey(userID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys = append(s.keys, &APIKey{UserID: userID, hash: sha256.Sum256([]byte(key))})
}

// Len returns the number of registered keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.keys)
}

// ValidateAPIKey returns the matching key or nil. Every registered key
// is compared so the time taken does not depend on which one matched.
func (s *Store) ValidateAPIKey(key string) *APIKey {
	h := sha256.Sum256([]byte(key))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *APIKey

	for _, k := range s.keys {
		if subtle.ConstantTimeCompare(h[:], k.hash[:]) == 1 {
			found = k
		}
	}

	return found
}

// GenerateAPIKey returns a new random key with the sharefastly prefix.
func GenerateAPIKey() string {
	return APIKeyPrefix + RandomHex(16)
}

// RandomHex generates a cryptographically random hex string of the given byte length.
func RandomHex(byteLen int) string {
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}

	return hex.EncodeToString(b)
}
