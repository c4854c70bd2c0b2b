package httpx

import (
	"context"

	"github.com/nordbooks/tenauth/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID   ctxKey = "user_id"
	CtxKeyTenantID ctxKey = "tenant_id"
	CtxKeyClaims   ctxKey = "claims"
)

// UserIDFromCtx returns the authenticated user id, or "" when the request
// carried no verified token.
func UserIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// ClaimsFromCtx returns the full verified claims, or nil.
func ClaimsFromCtx(ctx context.Context) *jwtx.SessionClaims {
	if v, ok := ctx.Value(CtxKeyClaims).(*jwtx.SessionClaims); ok {
		return v
	}
	return nil
}
