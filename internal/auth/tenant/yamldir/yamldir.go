// Package yamldir implements the tenant directory over a single YAML file.
// The file is the deployment-time source of truth for tenants, their
// settings bundles and the legacy bootstrap fallback passwords; its order
// is preserved and becomes the legacy probe order.
package yamldir

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/nordbooks/tenauth/internal/auth/domain"
	"github.com/nordbooks/tenauth/internal/auth/tenant"
	"gopkg.in/yaml.v3"
)

type tenantsFile struct {
	Tenants []tenantEntry `yaml:"tenants"`
}

type tenantEntry struct {
	ID                   string            `yaml:"id"`
	DisplayName          string            `yaml:"display_name"`
	IdentificationNumber string            `yaml:"identification_number"`
	Config               map[string]string `yaml:"config"`
	FallbackPasswords    []string          `yaml:"fallback_passwords"`
}

type Directory struct {
	logger    *slog.Logger
	tenants   []domain.Tenant
	configs   map[string]domain.TenantConfig
	fallbacks map[string][]string
}

// Load reads and parses the tenants file. Config bundles are validated
// (typed, unknown keys warned about) once at load time.
func Load(path string, logger *slog.Logger) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tenants file: %w", err)
	}
	return Parse(raw, logger)
}

// Parse builds a Directory from raw YAML. Split out of Load for tests.
func Parse(raw []byte, logger *slog.Logger) (*Directory, error) {
	var file tenantsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse tenants file: %w", err)
	}

	d := &Directory{
		logger:    logger,
		configs:   make(map[string]domain.TenantConfig, len(file.Tenants)),
		fallbacks: make(map[string][]string, len(file.Tenants)),
	}

	for _, entry := range file.Tenants {
		if entry.ID == "" {
			return nil, fmt.Errorf("tenants file: entry without id")
		}
		if _, dup := d.configs[entry.ID]; dup {
			return nil, fmt.Errorf("tenants file: duplicate tenant id %q", entry.ID)
		}

		d.tenants = append(d.tenants, domain.Tenant{
			ID:                   entry.ID,
			DisplayName:          entry.DisplayName,
			IdentificationNumber: entry.IdentificationNumber,
		})
		d.configs[entry.ID] = tenant.ParseConfig(entry.ID, entry.Config, logger)
		if len(entry.FallbackPasswords) > 0 {
			d.fallbacks[entry.ID] = entry.FallbackPasswords
		}
	}

	return d, nil
}

// ListTenants returns tenants in file order.
func (d *Directory) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	out := make([]domain.Tenant, len(d.tenants))
	copy(out, d.tenants)
	return out, nil
}

// LoadConfig returns the parsed configuration bundle for one tenant.
func (d *Directory) LoadConfig(ctx context.Context, tenantID string) (domain.TenantConfig, error) {
	if err := ctx.Err(); err != nil {
		return domain.TenantConfig{}, err
	}

	cfg, ok := d.configs[tenantID]
	if !ok {
		return domain.TenantConfig{}, tenant.ErrUnknownTenant
	}
	return cfg, nil
}

// FallbackPasswords returns the per-tenant legacy bootstrap passwords baked
// into the tenants file. The map is keyed by tenant id.
func (d *Directory) FallbackPasswords() map[string][]string {
	out := make(map[string][]string, len(d.fallbacks))
	for id, pws := range d.fallbacks {
		out[id] = append([]string(nil), pws...)
	}
	return out
}
