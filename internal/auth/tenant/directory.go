package tenant

import (
	"context"
	"errors"

	"github.com/nordbooks/tenauth/internal/auth/domain"
)

// ErrUnknownTenant reports a tenant id the directory has never heard of.
var ErrUnknownTenant = errors.New("tenant: unknown tenant")

// Directory enumerates known tenants and loads each tenant's configuration
// bundle on demand. Enumeration order is significant: the legacy prober
// treats it as the first-match-wins tie-break order.
type Directory interface {
	ListTenants(ctx context.Context) ([]domain.Tenant, error)
	LoadConfig(ctx context.Context, tenantID string) (domain.TenantConfig, error)
}
