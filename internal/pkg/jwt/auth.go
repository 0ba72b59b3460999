package jwt

import "context"

type jwtContextKey struct{}

// SetAuth stores claims in the context. The authentication middleware
// calls this after verifying the bearer token; tests call it directly
// to simulate an authenticated request.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}

// GetAuth returns the claims stored in the context, or nil when the
// request was never authenticated.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}
	return &clm
}
