package sdkruntime

import "context"

// StaticAuthProvider returns the same token for every region.
type StaticAuthProvider struct {
	token string
}

func NewStaticAuthProvider(token string) *StaticAuthProvider {
	return &StaticAuthProvider{token: token}
}

func (p *StaticAuthProvider) Token(context.Context, Region) (string, error) {
	return p.token, nil
}
