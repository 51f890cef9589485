// Package auth issues and verifies the per-game keys the host uses to start a game.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidKey is returned for keys that are malformed, expired, badly signed
// or issued for another game.
var ErrInvalidKey = errors.New("invalid game key")

// DefaultKeyTTL bounds the lifetime of a game key.
const DefaultKeyTTL = 12 * time.Hour

const issuer = "apuestas"

// Keys signs game keys with a shared HMAC secret.
type Keys struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewKeys returns a signer using secret. An empty secret is replaced by a random
// one, which invalidates keys across restarts.
func NewKeys(secret []byte) (*Keys, error) {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate key secret: %w", err)
		}
	}
	return &Keys{secret: secret, ttl: DefaultKeyTTL, now: time.Now}, nil
}

// IssueGameKey returns a signed key bound to gameID.
func (k *Keys) IssueGameKey(gameID uuid.UUID) (string, error) {
	now := k.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   gameID.String(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(k.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("sign game key: %w", err)
	}
	return signed, nil
}

// VerifyGameKey checks the signature and expiry of key and returns the game it
// was issued for.
func (k *Keys) VerifyGameKey(key string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(key, claims, func(*jwt.Token) (interface{}, error) {
		return k.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(k.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidKey)
	}
	return id, nil
}
