package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/nordbooks/tenauth/internal/auth/domain"
	"github.com/nordbooks/tenauth/internal/auth/store"
	"github.com/nordbooks/tenauth/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func testUser(username, tenantID string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		TenantID:     tenantID,
		Role:         domain.RoleUser,
		IsActive:     true,
	}
}

func TestUsersCreateAndFind(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	empty, err := st.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := testUser("maria", "acme")
	u.Email = "maria@acme.example"
	require.NoError(t, st.Users().CreateUser(ctx, u))

	got, err := st.Users().FindActiveByUsername(ctx, "maria")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "acme", got.TenantID)
	require.Equal(t, "maria@acme.example", got.Email)
	require.Nil(t, got.LastLoginAt)
	require.False(t, got.CreatedAt.IsZero())

	byID, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, got.Username, byID.Username)

	empty, err = st.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestUsersFindIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.Users().CreateUser(ctx, testUser("Maria", "acme")))

	_, err := st.Users().FindActiveByUsername(ctx, "maria")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsersFindSkipsInactive(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	u := testUser("maria", "acme")
	u.IsActive = false
	require.NoError(t, st.Users().CreateUser(ctx, u))

	_, err := st.Users().FindActiveByUsername(ctx, "maria")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsersUsernameCollision(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.Users().CreateUser(ctx, testUser("maria", "acme")))

	// Same username in a different tenant still collides: uniqueness is global.
	err := st.Users().CreateUser(ctx, testUser("maria", "beta"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUsersTouchLastLogin(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	u := testUser("maria", "acme")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, st.Users().TouchLastLogin(ctx, u.ID, at))

	got, err := st.Users().FindActiveByUsername(ctx, "maria")
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	require.True(t, got.LastLoginAt.Equal(at))

	require.ErrorIs(t, st.Users().TouchLastLogin(ctx, "missing", at), store.ErrNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	sentinel := store.ErrAlreadyExists
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, testUser("maria", "acme")); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = st.Users().FindActiveByUsername(ctx, "maria")
	require.ErrorIs(t, err, store.ErrNotFound)
}
