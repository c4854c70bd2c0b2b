package jwtx

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the claim set carried by a signed session token. The
// subject is the user id; the tenant and role claims let downstream
// collaborators scope their queries without another lookup.
type SessionClaims struct {
	TenantID string `json:"tid"`
	Role     string `json:"role"`
	Username string `json:"uname"`

	jwt.RegisteredClaims
}
