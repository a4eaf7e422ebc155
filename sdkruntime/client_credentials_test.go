package sdkruntime

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, hits *atomic.Int32, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oauth/token", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, _ := io.ReadAll(r.Body)
		var req map[string]string
		assert.NoError(t, json.Unmarshal(raw, &req))
		assert.Equal(t, "id", req["client_id"])
		assert.Equal(t, "secret", req["client_secret"])
		assert.Equal(t, DefaultGrantType, req["grant_type"])
		assert.Equal(t, DefaultAudience, req["audience"])

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientCredentials_CachesUntilExpiry(t *testing.T) {
	var hits atomic.Int32
	srv := tokenServer(t, &hits, http.StatusOK, `{"access_token":"abc","expires_in":60,"token_type":"Bearer"}`)

	p := NewClientCredentialsProvider(ClientCredentialsConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		Authorities:  map[Region]string{RegionEU: srv.URL},
		HTTPClient:   srv.Client(),
	})
	now := time.Unix(1_000, 0)
	p.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		tok, err := p.Token(context.Background(), RegionEU)
		require.NoError(t, err)
		assert.Equal(t, "abc", tok)
	}
	assert.Equal(t, int32(1), hits.Load())

	now = now.Add(61 * time.Second)
	_, err := p.Token(context.Background(), RegionEU)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientCredentials_FailureIsWrapped(t *testing.T) {
	var hits atomic.Int32
	srv := tokenServer(t, &hits, http.StatusUnauthorized, `{"error":"access_denied"}`)

	p := NewClientCredentialsProvider(ClientCredentialsConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		Authorities:  map[Region]string{RegionUS: srv.URL},
		HTTPClient:   srv.Client(),
	})
	_, err := p.Token(context.Background(), RegionUS)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch token from "+srv.URL+"/oauth/token")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestClientCredentials_EmptyAccessToken(t *testing.T) {
	var hits atomic.Int32
	srv := tokenServer(t, &hits, http.StatusOK, `{"expires_in":60}`)

	p := NewClientCredentialsProvider(ClientCredentialsConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		Authorities:  map[Region]string{RegionEU: srv.URL},
		HTTPClient:   srv.Client(),
	})
	_, err := p.Token(context.Background(), RegionEU)
	require.ErrorContains(t, err, "access_token")
}

func TestClientCredentials_UnknownRegion(t *testing.T) {
	p := NewClientCredentialsProvider(ClientCredentialsConfig{ClientID: "id"})
	_, err := p.Token(context.Background(), Region("apac"))
	require.ErrorContains(t, err, `region "apac"`)
}

func TestStaticAuthProvider(t *testing.T) {
	p := NewStaticAuthProvider("fixed")
	for _, r := range []Region{RegionEU, RegionUS} {
		tok, err := p.Token(context.Background(), r)
		require.NoError(t, err)
		assert.Equal(t, "fixed", tok)
	}
}
