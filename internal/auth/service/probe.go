package service

import (
	"context"
	"time"

	"github.com/nordbooks/tenauth/internal/auth/domain"
	"github.com/nordbooks/tenauth/internal/auth/tenant"
	"github.com/nordbooks/tenauth/pkg/cryptox"
	"github.com/nordbooks/tenauth/pkg/slogx"
)

const (
	DefaultProbeTenantTimeout = 2 * time.Second
	DefaultProbeTotalTimeout  = 30 * time.Second
)

// Prober implements the legacy authentication path: it walks every tenant in
// directory order and tests the supplied credentials against each tenant's
// configuration bundle.
//
// The walk is strictly sequential. First match wins, so directory order is
// the tie-break policy when more than one tenant would accept the same
// credentials.
type Prober struct {
	Directory tenant.Directory

	// Fallbacks holds the per-tenant legacy bootstrap passwords, keyed by
	// tenant id. They only apply when the supplied username equals the
	// tenant's identification number.
	Fallbacks map[string][]string

	// TenantTimeout bounds each tenant's config load; TotalTimeout caps the
	// whole probe. Zero values fall back to the package defaults.
	TenantTimeout time.Duration
	TotalTimeout  time.Duration
}

// Probe tests the credentials against every tenant and returns the first
// matching tenant with its loaded config. A tenant whose config fails to
// load is skipped, not fatal. Returns ok=false when no tenant matches.
func (p *Prober) Probe(ctx context.Context, username, password string) (domain.TenantContext, bool) {
	l := slogx.FromContext(ctx)

	totalTimeout := p.TotalTimeout
	if totalTimeout <= 0 {
		totalTimeout = DefaultProbeTotalTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, totalTimeout)
	defer cancel()

	tenants, err := p.Directory.ListTenants(ctx)
	if err != nil {
		l.Error("legacy probe: failed to list tenants", "error", err)
		return domain.TenantContext{}, false
	}

	for _, t := range tenants {
		if ctx.Err() != nil {
			l.Warn("legacy probe aborted before exhausting tenants",
				"error", ctx.Err())
			return domain.TenantContext{}, false
		}

		cfg, err := p.loadConfig(ctx, t.ID)
		if err != nil {
			// Recover locally: skip this tenant, keep probing.
			l.Warn("legacy probe: tenant config load failed, skipping",
				"tenant_id", t.ID, "error", err)
			continue
		}

		if p.matches(t, cfg, username, password) {
			l.Info("legacy probe matched tenant", "tenant_id", t.ID)
			return domain.TenantContext{Tenant: t, Config: cfg}, true
		}
	}

	return domain.TenantContext{}, false
}

func (p *Prober) loadConfig(ctx context.Context, tenantID string) (domain.TenantConfig, error) {
	timeout := p.TenantTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTenantTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return p.Directory.LoadConfig(ctx, tenantID)
}

// matches applies the two legacy rules in order: explicit admin credentials
// when the bundle defines both, otherwise the identification-number plus
// fallback-password rule.
func (p *Prober) matches(t domain.Tenant, cfg domain.TenantConfig, username, password string) bool {
	if cfg.HasAdminCredentials() {
		return cryptox.VerifyLegacyPassword(username, cfg.AdminUsername) &&
			cryptox.VerifyLegacyPassword(password, cfg.AdminPassword)
	}

	if t.IdentificationNumber == "" || username != t.IdentificationNumber {
		return false
	}
	for _, fallback := range p.Fallbacks[t.ID] {
		if cryptox.VerifyLegacyPassword(password, fallback) {
			return true
		}
	}
	return false
}
