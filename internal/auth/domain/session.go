package domain

// Session is the process's single current authenticated identity plus its
// resolved tenant context. At most one Session is alive at a time; a new
// login replaces the previous one.
type Session struct {
	User   User
	Tenant TenantContext
}
