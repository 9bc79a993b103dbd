package auth

import "context"

type requestTokenKey struct{}

// WithRequestToken stores a per-request PAT on the context. The HTTP
// middleware calls this after reading the X-Azure-DevOps-PAT header.
func WithRequestToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, requestTokenKey{}, token)
}

func requestTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(requestTokenKey{}).(string)
	return token, ok
}
