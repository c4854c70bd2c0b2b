package service

import (
	"context"
	"testing"
	"time"

	"github.com/nordbooks/tenauth/internal/auth/domain"
	"github.com/nordbooks/tenauth/pkg/cryptox"
	"github.com/nordbooks/tenauth/pkg/idx"
	"github.com/stretchr/testify/require"
)

func legacyUser(username string) domain.User {
	now := time.Now().UTC()
	return domain.User{
		ID:          idx.New().String(),
		Username:    username,
		TenantID:    "acme",
		Role:        domain.RoleAdmin,
		IsActive:    true,
		LastLoginAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestMigrateInsertsHashedCredential(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	m := &Migrator{Store: st, Logger: discardLogger()}

	require.NoError(t, m.Migrate(ctx, legacyUser("310000001"), "AutomationBT2023"))

	got, err := st.Users().FindActiveByUsername(ctx, "310000001")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, got.Role)
	require.NotEqual(t, "AutomationBT2023", got.PasswordHash, "credential must not be stored in clear")
	require.NoError(t, cryptox.VerifyPassword("AutomationBT2023", got.PasswordHash))
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	m := &Migrator{Store: st, Logger: discardLogger()}

	require.NoError(t, m.Migrate(ctx, legacyUser("310000001"), "AutomationBT2023"))
	require.Equal(t, 1, st.users.count())

	// Running the migration again for the same username never produces a
	// second row, even with a fresh user id.
	require.NoError(t, m.Migrate(ctx, legacyUser("310000001"), "AutomationBT2023"))
	require.Equal(t, 1, st.users.count())
}

func TestMigratorWorkerLifecycle(t *testing.T) {
	st := newFakeStore()
	m := NewMigrator(st, discardLogger(), 4)

	m.Start()
	m.Schedule(legacyUser("310000001"), "AutomationBT2023")
	m.Stop() // drains the queue before returning

	got, err := st.Users().FindActiveByUsername(context.Background(), "310000001")
	require.NoError(t, err)
	require.Equal(t, "acme", got.TenantID)
}

func TestScheduleNeverBlocksWhenQueueFull(t *testing.T) {
	st := newFakeStore()
	m := NewMigrator(st, discardLogger(), 1)

	// Worker not started: the queue fills and further jobs are dropped.
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Schedule(legacyUser("a"), "pw")
		m.Schedule(legacyUser("b"), "pw")
		m.Schedule(legacyUser("c"), "pw")
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Schedule blocked on a full queue")
	}
}
