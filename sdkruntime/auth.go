package sdkruntime

import "context"

// AuthProvider supplies the bearer token sent with every request.
type AuthProvider interface {
	Token(ctx context.Context, region Region) (string, error)
}

// AuthProviderFunc adapts a function to AuthProvider.
type AuthProviderFunc func(ctx context.Context, region Region) (string, error)

func (f AuthProviderFunc) Token(ctx context.Context, region Region) (string, error) {
	return f(ctx, region)
}
