package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nordbooks/tenauth/pkg/idx"
)

var (
	// ErrInvalidToken reports a token that failed signature or claim checks.
	ErrInvalidToken = errors.New("jwtx: invalid token")
)

// SessionSigner mints and verifies Ed25519-signed session tokens. Keys are
// ephemeral: a restart invalidates outstanding tokens, which is acceptable
// because the durable session state is owned by the session manager, not
// the token.
type SessionSigner struct {
	priv   ed25519.PrivateKey
	pub    ed25519.PublicKey
	issuer string
	ttl    time.Duration
}

// NewEphemeralSigner generates a fresh Ed25519 keypair for this process.
func NewEphemeralSigner(issuer string, ttl time.Duration) (*SessionSigner, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate session signing key: %w", err)
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionSigner{priv: priv, pub: pub, issuer: issuer, ttl: ttl}, nil
}

// Sign mints a session token for the given identity.
func (s *SessionSigner) Sign(userID, username, tenantID, role string, now time.Time) (string, error) {
	claims := SessionClaims{
		TenantID: tenantID,
		Role:     role,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			ID:        idx.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.priv)
}

// Verify checks signature, issuer and expiry, and returns the claims.
func (s *SessionSigner) Verify(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return s.pub, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
