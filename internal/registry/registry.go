// Package registry maps join and watch tokens to live game sessions.
package registry

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/aguszorza/apuestas-game/internal/game"
)

// ErrGameNotFound is returned for tokens that were never issued or were invalidated.
var ErrGameNotFound = errors.New("game not found")

// tokenBytes of randomness encode to a 16-character URL-safe token.
const tokenBytes = 12

// Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	join  map[string]*game.Session
	watch map[string]*game.Session
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		join:  make(map[string]*game.Session),
		watch: make(map[string]*game.Session),
	}
}

// NewToken returns a random URL-safe token.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Create issues a join token and a watch token for s.
func (r *Registry) Create(s *game.Session) (join, watch string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if join, err = r.freshToken(); err != nil {
		return "", "", err
	}
	r.join[join] = s
	if watch, err = r.freshToken(); err != nil {
		delete(r.join, join)
		return "", "", err
	}
	r.watch[watch] = s
	return join, watch, nil
}

// freshToken draws until the token is unused by either map. Assumes lock is held.
func (r *Registry) freshToken() (string, error) {
	for {
		tok, err := NewToken()
		if err != nil {
			return "", err
		}
		_, j := r.join[tok]
		_, w := r.watch[tok]
		if !j && !w {
			return tok, nil
		}
	}
}

// LookupJoin resolves a join token.
func (r *Registry) LookupJoin(token string) (*game.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.join[token]; ok {
		return s, nil
	}
	return nil, ErrGameNotFound
}

// LookupWatch resolves a watch token.
func (r *Registry) LookupWatch(token string) (*game.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.watch[token]; ok {
		return s, nil
	}
	return nil, ErrGameNotFound
}

// Invalidate forgets both tokens of a game. Unknown tokens are ignored.
func (r *Registry) Invalidate(join, watch string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.join, join)
	delete(r.watch, watch)
}

// Len returns the number of registered games.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.join)
}
