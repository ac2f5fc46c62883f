package auth

import "context"

type profileContextKey struct{}
type tokenContextKey struct{}

// ContextWithProfile attaches the authenticated profile to the context and
// mirrors its identity into the user/roles keys read by audit logging.
func ContextWithProfile(ctx context.Context, p Profile) context.Context {
	ctx = context.WithValue(ctx, profileContextKey{}, &p)
	return ContextWithUser(ctx, p.ID, []string{p.Role})
}

// ProfileFromContext extracts the authenticated profile from the context.
func ProfileFromContext(ctx context.Context) (Profile, bool) {
	if ctx == nil {
		return Profile{}, false
	}
	v, ok := ctx.Value(profileContextKey{}).(*Profile)
	if !ok || v == nil {
		return Profile{}, false
	}
	return *v, true
}

// ContextWithToken stores the raw bearer token inside the context.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the bearer token if it was previously attached.
func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
