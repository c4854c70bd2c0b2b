package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/nordbooks/tenauth/internal/auth/domain"
	"github.com/nordbooks/tenauth/internal/auth/store/drivers/sqlite"
	"github.com/nordbooks/tenauth/internal/auth/tenant/yamldir"
	"github.com/stretchr/testify/require"
)

const e2eTenants = `
tenants:
  - id: acme
    display_name: Acme Ltd
    identification_number: "310000001"
    config:
      EMAIL: office@acme.example
    fallback_passwords:
      - AutomationBT2023
  - id: beta
    display_name: Beta GmbH
    config:
      ADMIN_USERNAME: beta-admin
      ADMIN_PASSWORD: beta-secret
`

// Runs the full legacy bootstrap scenario against a real sqlite store and a
// yaml tenant directory: first login resolves through the probe, migration
// self-heals the identity into the primary store, second login never probes.
func TestEndToEndLegacyBootstrap(t *testing.T) {
	ctx := context.Background()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	dir, err := yamldir.Parse([]byte(e2eTenants), slog.Default())
	require.NoError(t, err)

	migrator := &Migrator{Store: st, Logger: discardLogger()}
	auth := &Authenticator{
		Store:     st,
		Directory: dir,
		Sessions:  newTestSessions(t),
		Prober: &Prober{
			Directory: dir,
			Fallbacks: dir.FallbackPasswords(),
		},
		Migrator: &syncScheduler{m: migrator},
	}

	// First login: acme has no ADMIN_USERNAME, so the identification-number
	// fallback rule resolves it.
	sess, err := auth.Login(ctx, "310000001", "AutomationBT2023")
	require.NoError(t, err)
	require.Equal(t, "acme", sess.User.TenantID)
	require.Equal(t, domain.RoleAdmin, sess.User.Role)
	require.Equal(t, "Acme Ltd", sess.Tenant.Tenant.DisplayName)
	require.Equal(t, "office@acme.example", sess.User.Email)

	// The migrated row is in the primary store exactly once.
	migrated, err := st.Users().FindActiveByUsername(ctx, "310000001")
	require.NoError(t, err)
	require.Equal(t, "acme", migrated.TenantID)

	// Second login succeeds via the primary store. Replace the prober with
	// one whose directory would fail loudly if consulted.
	auth.Prober = &Prober{Directory: failingDirectory{}}
	sess2, err := auth.Login(ctx, "310000001", "AutomationBT2023")
	require.NoError(t, err)
	require.Equal(t, "acme", sess2.User.TenantID)
	require.Equal(t, migrated.ID, sess2.User.ID)

	// Wrong password now fails fast.
	_, err = auth.Login(ctx, "310000001", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

type failingDirectory struct{}

func (failingDirectory) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	panic("legacy probe must not run once the identity is migrated")
}

func (failingDirectory) LoadConfig(ctx context.Context, tenantID string) (domain.TenantConfig, error) {
	panic("legacy probe must not run once the identity is migrated")
}
