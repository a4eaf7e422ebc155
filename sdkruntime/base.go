package sdkruntime

import "net/http"

// Base holds what every controller of a generated SDK shares.
type Base struct {
	authProvider AuthProvider
	baseURL      string
	apiKey       string
	region       Region
	httpClient   *http.Client
}

// Option customizes a Base.
type Option func(*Base)

// WithHTTPClient sets the client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Base) {
		if c != nil {
			b.httpClient = c
		}
	}
}

// WithRegion pins the region instead of deriving it from the base URL.
func WithRegion(r Region) Option {
	return func(b *Base) { b.region = r }
}

func NewBase(authProvider AuthProvider, baseURL, apiKey string, opts ...Option) *Base {
	b := &Base{
		authProvider: authProvider,
		baseURL:      baseURL,
		apiKey:       apiKey,
		httpClient:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Base) BaseURL() string { return b.baseURL }

// Region returns the pinned region, or the one implied by the base URL.
func (b *Base) Region() Region {
	if b.region != "" {
		return b.region
	}
	return RegionFromBaseURL(b.baseURL)
}
