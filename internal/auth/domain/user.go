package domain

import "time"

// Well-known roles. Role is a free-form string in storage; these are the two
// values the auth core itself assigns.
const (
	RoleUser  = "user"  // self-registered accounts
	RoleAdmin = "admin" // legacy-migrated tenant administrators
)

type User struct {
	ID           string
	Username     string // unique, case-sensitive equality
	PasswordHash string // argon2 encoded
	Email        string
	TenantID     string
	Role         string
	IsActive     bool       // only active users are eligible for login
	LastLoginAt  *time.Time // nullable, stamped on every successful login
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
