package sdkruntime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const (
	DefaultGrantType = "client_credentials"
	DefaultAudience  = "wlloyalty.net"
)

// ClientCredentialsConfig configures a ClientCredentialsProvider. GrantType
// and Audience fall back to DefaultGrantType and DefaultAudience.
type ClientCredentialsConfig struct {
	ClientID     string
	ClientSecret string
	GrantType    string
	Audience     string
	Scope        string
	// Authorities overrides DefaultAuthorities per region.
	Authorities map[Region]string
	HTTPClient  *http.Client
}

type cachedToken struct {
	value     string
	expiresAt int64 // unix seconds
}

// ClientCredentialsProvider fetches tokens with the OAuth client-credentials
// grant and reuses a token until it expires. Concurrent callers racing on an
// expired token may each fetch one; the last write wins.
type ClientCredentialsProvider struct {
	cfg    ClientCredentialsConfig
	cached atomic.Pointer[cachedToken]
	now    func() time.Time
}

func NewClientCredentialsProvider(cfg ClientCredentialsConfig) *ClientCredentialsProvider {
	if cfg.GrantType == "" {
		cfg.GrantType = DefaultGrantType
	}
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &ClientCredentialsProvider{cfg: cfg, now: time.Now}
}

type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
	Audience     string `json:"audience"`
	Scope        string `json:"scope,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Token returns the cached token while it is still valid, otherwise requests
// a new one from the region's authority.
func (p *ClientCredentialsProvider) Token(ctx context.Context, region Region) (string, error) {
	now := p.now().Unix()
	if t := p.cached.Load(); t != nil && t.value != "" && t.expiresAt > now {
		return t.value, nil
	}

	authority, err := p.authority(region)
	if err != nil {
		return "", err
	}
	tokenURL := strings.TrimSuffix(authority, "/") + "/oauth/token"
	resp, err := p.fetch(ctx, tokenURL)
	if err != nil {
		return "", fmt.Errorf("sdkruntime: fetch token from %s: %w", tokenURL, err)
	}

	p.cached.Store(&cachedToken{value: resp.AccessToken, expiresAt: p.now().Unix() + resp.ExpiresIn})
	return resp.AccessToken, nil
}

func (p *ClientCredentialsProvider) authority(region Region) (string, error) {
	if u, ok := p.cfg.Authorities[region]; ok && u != "" {
		return u, nil
	}
	if u, ok := DefaultAuthorities[region]; ok {
		return u, nil
	}
	return "", fmt.Errorf("sdkruntime: region %q is not supported", region)
}

func (p *ClientCredentialsProvider) fetch(ctx context.Context, tokenURL string) (*tokenResponse, error) {
	payload, err := json.Marshal(tokenRequest{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		GrantType:    p.cfg.GrantType,
		Audience:     p.cfg.Audience,
		Scope:        p.cfg.Scope,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, newAPIError(res.StatusCode, body)
	}
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, errors.New("token response has no access_token")
	}
	return &tr, nil
}
