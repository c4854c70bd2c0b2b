package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionSignerRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner("tenauth", time.Hour)
	require.NoError(t, err)

	now := time.Now().UTC()
	raw, err := signer.Sign("01J0USER", "maria", "acme", "admin", now)
	require.NoError(t, err)

	claims, err := signer.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "01J0USER", claims.Subject)
	require.Equal(t, "maria", claims.Username)
	require.Equal(t, "acme", claims.TenantID)
	require.Equal(t, "admin", claims.Role)
}

func TestSessionSignerRejectsExpired(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner("tenauth", time.Minute)
	require.NoError(t, err)

	raw, err := signer.Sign("01J0USER", "maria", "acme", "admin", time.Now().Add(-2*time.Minute))
	require.NoError(t, err)

	_, err = signer.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionSignerRejectsForeignToken(t *testing.T) {
	t.Parallel()

	a, err := NewEphemeralSigner("tenauth", time.Hour)
	require.NoError(t, err)
	b, err := NewEphemeralSigner("tenauth", time.Hour)
	require.NoError(t, err)

	raw, err := a.Sign("01J0USER", "maria", "acme", "admin", time.Now())
	require.NoError(t, err)

	// Signed by a different process key.
	_, err = b.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Wrong issuer.
	other, err := NewEphemeralSigner("someone-else", time.Hour)
	require.NoError(t, err)
	raw, err = other.Sign("01J0USER", "maria", "acme", "admin", time.Now())
	require.NoError(t, err)
	_, err = other.Verify(raw)
	require.NoError(t, err)
	_, err = a.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Garbage input.
	_, err = a.Verify("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
