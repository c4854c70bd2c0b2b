package tenant

import (
	"log/slog"

	"github.com/nordbooks/tenauth/internal/auth/domain"
)

// Raw bundle keys the auth core recognizes.
const (
	KeyAdminUsername = "ADMIN_USERNAME"
	KeyAdminPassword = "ADMIN_PASSWORD"
	KeyEmail         = "EMAIL"
)

// ParseConfig maps a raw key-value settings bundle onto the typed
// TenantConfig. Unrecognized keys are ignored with a warning so a tenant
// bundle full of unrelated application settings doesn't fail the load.
func ParseConfig(tenantID string, raw map[string]string, logger *slog.Logger) domain.TenantConfig {
	var cfg domain.TenantConfig
	for k, v := range raw {
		switch k {
		case KeyAdminUsername:
			cfg.AdminUsername = v
		case KeyAdminPassword:
			cfg.AdminPassword = v
		case KeyEmail:
			cfg.Email = v
		default:
			logger.Warn("ignoring unrecognized tenant config key",
				"tenant_id", tenantID, "key", k)
		}
	}
	return cfg
}
