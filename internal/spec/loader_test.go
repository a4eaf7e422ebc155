package spec

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpec(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600))
	return path
}

func requireCode(t *testing.T, err error, codes ...ErrorCode) *SpecError {
	t.Helper()
	require.Error(t, err)
	var se *SpecError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, codes, se.Code, "unexpected code for %v", err)
	return se
}

func TestLoad_EmptyInput(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "  ")
	requireCode(t, err, InputError)
}

func TestLoad_BlocksFileURL(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "file:///etc/hosts")
	requireCode(t, err, InputError)
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "ftp://example.com/spec.yaml")
	requireCode(t, err, InputError)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	se := requireCode(t, err, InputError)
	assert.NotEmpty(t, se.Location)
}

func TestLoad_NetworkError(t *testing.T) {
	t.Parallel()
	// Unused port to provoke a quick network failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Load(ctx, "http://127.0.0.1:1/spec.yaml",
		WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2), WithBackoffBase(10*time.Millisecond))
	requireCode(t, err, NetworkError)
}

func TestLoad_V3_InvalidSpec(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "bad.yaml", `openapi: 3.0.0
info:
  title: Bad
  version: "1.0.0"
paths:
  "/pet":
    get:
      responses: {}
`)
	se := requireCode(t, mustFail(Load(context.Background(), path)), ValidationError, ParseError)
	assert.NotEmpty(t, se.Location)
}

func TestLoad_RejectsSwagger2(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "swagger.yaml", `swagger: "2.0"
info:
  title: Sample
  version: "1.0.0"
paths: {}
`)
	se := requireCode(t, mustFail(Load(context.Background(), path)), ParseError)
	assert.Contains(t, se.Message, "Swagger 2.0")
}

func TestLoad_UnknownVersion(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "none.yaml", `info: {title: x}`)
	requireCode(t, mustFail(Load(context.Background(), path)), ParseError)
}

func TestLoad_File(t *testing.T) {
	t.Parallel()
	doc, err := Load(context.Background(), filepath.Join("testdata", "rewards.yaml"))
	require.NoError(t, err)
	require.NotNil(t, doc.T)
	assert.True(t, filepath.IsAbs(doc.Location))
	assert.Equal(t, "Rewards API", doc.T.Info.Title)
	assert.Equal(t, []string{"/users", "/users/{id}", "/health", "/tiers"}, doc.Order.Paths)
}

func TestLoad_URLSendsAPIKey(t *testing.T) {
	t.Parallel()
	raw, err := os.ReadFile(filepath.Join("testdata", "rewards.yaml"))
	require.NoError(t, err)

	var gotKey atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.Header.Get(APIKeyHeader))
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	doc, err := Load(context.Background(), srv.URL+"/spec.yaml", WithAPIKey(" secret "), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey.Load())
	assert.Equal(t, srv.URL+"/spec.yaml", doc.Location)
	assert.Len(t, doc.Order.Paths, 4)
}

func TestLoad_URLRetriesTransientErrors(t *testing.T) {
	t.Parallel()
	raw, err := os.ReadFile(filepath.Join("testdata", "rewards.yaml"))
	require.NoError(t, err)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	_, err = Load(context.Background(), srv.URL, WithMaxRetries(3), WithBackoffBase(time.Millisecond), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestLoad_URLClientErrorIsNotRetried(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL, WithMaxRetries(3), WithBackoffBase(time.Millisecond), WithHTTPClient(srv.Client()))
	se := requireCode(t, err, NetworkError)
	assert.Contains(t, se.Message, "403")
	assert.Equal(t, int32(1), hits.Load())
}

func TestLoadData(t *testing.T) {
	t.Parallel()
	doc, err := LoadData(context.Background(), []byte(`{
  "openapi": "3.0.0",
  "info": {"title": "Inline", "version": "1"},
  "paths": {
    "/b": {"get": {"operationId": "B.get", "responses": {"200": {"description": "ok"}}}},
    "/a": {"get": {"operationId": "A.get", "responses": {"200": {"description": "ok"}}}}
  }
}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"/b", "/a"}, doc.Order.Paths)
	assert.Empty(t, doc.Location)
}

func mustFail(_ *Document, err error) error { return err }
