package domain

// Tenant is an isolated customer organization. All users and credentials are
// scoped to one.
type Tenant struct {
	ID                   string
	DisplayName          string
	IdentificationNumber string // secondary login-matching key in the legacy path
}

// TenantConfig is the typed view of a tenant's key-value settings bundle.
// Only the keys the auth core understands are carried; anything else in the
// raw bundle is dropped with a warning at load time.
type TenantConfig struct {
	AdminUsername string
	AdminPassword string
	Email         string
}

// HasAdminCredentials reports whether the bundle defines a complete explicit
// admin credential pair.
func (c TenantConfig) HasAdminCredentials() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
}

// TenantContext pairs a tenant with its loaded configuration. It replaces
// the historical process-global "currently loaded tenant config": the
// resolved context travels with the session instead of living in shared
// mutable state.
type TenantContext struct {
	Tenant Tenant
	Config TenantConfig
}
