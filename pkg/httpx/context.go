package httpx

import (
	"context"

	"github.com/cinderauth/cinder/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID   ctxKey = "user_id"
	CtxKeyClaims   ctxKey = "claims"
	CtxKeyRawToken ctxKey = "raw_token"
)

// ClaimsFromContext returns the verified claims attached by the
// authentication middleware, if any.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

// RawTokenFromContext returns the raw bearer token the claims were
// verified from.
func RawTokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(CtxKeyRawToken).(string)
	return t, ok
}

// UserIDFromContext returns the authenticated subject id.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxKeyUserID).(string)
	return id, ok
}

func contextWithAuth(ctx context.Context, c jwtx.Claims, raw string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	ctx = context.WithValue(ctx, CtxKeyRawToken, raw)
	return ctx
}
