package service

import (
	"context"
	"errors"
	"time"

	"github.com/nordbooks/tenauth/internal/auth/domain"
	"github.com/nordbooks/tenauth/internal/auth/session"
	"github.com/nordbooks/tenauth/internal/auth/store"
	"github.com/nordbooks/tenauth/internal/auth/tenant"
	"github.com/nordbooks/tenauth/pkg/cryptox"
	"github.com/nordbooks/tenauth/pkg/idx"
	"github.com/nordbooks/tenauth/pkg/slogx"
)

// MigrationScheduler accepts a legacy-authenticated identity for eventual
// insertion into the primary store. Scheduling must never block or fail the
// login that triggered it.
type MigrationScheduler interface {
	Schedule(user domain.User, password string)
}

// Authenticator orchestrates the two-tier login flow: primary credential
// store first, legacy tenant-config probe second, with asynchronous
// migration of legacy identities into the primary store.
type Authenticator struct {
	Store     store.Store
	Directory tenant.Directory
	Sessions  *session.Manager
	Prober    *Prober
	Migrator  MigrationScheduler
}

// Login authenticates username/password and commits the resulting session.
//
// A primary-store lookup failure is treated like a miss: the flow degrades
// to the legacy probe rather than failing the login outright. A known
// primary-store user with a wrong password fails immediately and is never
// reinterpreted as an unknown user by the legacy path.
func (a *Authenticator) Login(ctx context.Context, username, password string) (domain.Session, error) {
	l := slogx.FromContext(ctx)

	user, err := a.Store.Users().FindActiveByUsername(ctx, username)
	switch {
	case err == nil:
		if cryptox.VerifyPassword(password, user.PasswordHash) != nil {
			l.Info("login rejected: password mismatch for known user", "username", username)
			return domain.Session{}, ErrInvalidCredentials
		}

		now := time.Now().UTC()
		if terr := a.Store.Users().TouchLastLogin(ctx, user.ID, now); terr != nil {
			// Best-effort stamp; the login still succeeds.
			l.Warn("failed to stamp last login", "user_id", user.ID, "error", terr)
		} else {
			user.LastLoginAt = &now
		}

		tc := a.resolveTenant(ctx, user.TenantID)
		return a.commit(ctx, user, tc)

	case errors.Is(err, store.ErrNotFound):
		// Unknown to the primary store; try the legacy path.

	default:
		// Store unavailable: degrade to the legacy probe instead of
		// surfacing an infrastructure failure to the login caller.
		l.Warn("credential store lookup failed, falling back to legacy probe", "error", err)
	}

	tc, ok := a.Prober.Probe(ctx, username, password)
	if !ok {
		return domain.Session{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	user = domain.User{
		ID:          idx.New().String(),
		Username:    username,
		Email:       tc.Config.Email,
		TenantID:    tc.Tenant.ID,
		Role:        domain.RoleAdmin,
		IsActive:    true,
		LastLoginAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Fire-and-forget: the migration's outcome is observed only through
	// logs and through the next login taking the primary-store path.
	a.Migrator.Schedule(user, password)

	return a.commit(ctx, user, tc)
}

// Logout destroys the current session.
func (a *Authenticator) Logout(ctx context.Context) error {
	return a.Sessions.Clear()
}

// CurrentSession returns the active session, repaired and re-paired with its
// tenant context, or nil when nobody is logged in.
func (a *Authenticator) CurrentSession(ctx context.Context) (*domain.Session, error) {
	user, err := a.Sessions.Current()
	if err != nil || user == nil {
		return nil, err
	}

	tc := a.resolveTenant(ctx, user.TenantID)
	return &domain.Session{User: *user, Tenant: tc}, nil
}

// resolveTenant loads the tenant record and its config bundle for the given
// id. Both lookups are best-effort: a session with a partially resolved
// tenant context is still more useful than a failed login.
func (a *Authenticator) resolveTenant(ctx context.Context, tenantID string) domain.TenantContext {
	l := slogx.FromContext(ctx)
	tc := domain.TenantContext{Tenant: domain.Tenant{ID: tenantID}}

	tenants, err := a.Directory.ListTenants(ctx)
	if err != nil {
		l.Warn("failed to list tenants while resolving tenant context",
			"tenant_id", tenantID, "error", err)
	} else {
		for _, t := range tenants {
			if t.ID == tenantID {
				tc.Tenant = t
				break
			}
		}
	}

	cfg, err := a.Directory.LoadConfig(ctx, tenantID)
	if err != nil {
		l.Warn("failed to load tenant config while resolving tenant context",
			"tenant_id", tenantID, "error", err)
		return tc
	}
	tc.Config = cfg
	return tc
}

func (a *Authenticator) commit(ctx context.Context, user domain.User, tc domain.TenantContext) (domain.Session, error) {
	if err := a.Sessions.Commit(user); err != nil {
		return domain.Session{}, err
	}
	slogx.FromContext(ctx).Info("login succeeded",
		"user_id", user.ID, "tenant_id", user.TenantID, "role", user.Role)
	return domain.Session{User: user, Tenant: tc}, nil
}
