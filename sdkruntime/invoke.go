package sdkruntime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// Reserved top-level members of a parameter value. Every other member is a
// path parameter.
const (
	queryKey   = "query"
	headersKey = "headers"
	bodyKey    = "body"
)

// Call is the verb and parameter value of one generated method invocation.
// Parameters may be nil for operations that take none.
type Call struct {
	Method     string
	Parameters any
}

// Request is the assembled form of a Call.
type Request struct {
	PathParams map[string]string
	Query      url.Values
	Headers    http.Header
	Body       []byte // nil when absent
}

var placeholderRe = regexp.MustCompile(`\{([^{}/]+)\}`)

// Invoke performs one API call against endpoint, a path template relative to
// the base URL, and decodes a successful JSON response into T.
func Invoke[T any](ctx context.Context, b *Base, endpoint string, call Call) (T, error) {
	var zero T
	req, err := NewRequest(call.Parameters)
	if err != nil {
		return zero, err
	}
	path, err := ExpandPath(endpoint, req.PathParams)
	if err != nil {
		return zero, err
	}

	target := strings.TrimSuffix(b.baseURL, "/") + path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, call.Method, target, body)
	if err != nil {
		return zero, err
	}

	httpReq.Header.Set("x-api-key", b.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.Headers.Get("Authorization") == "" {
		token, err := b.token(ctx)
		if err != nil {
			return zero, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	for name, values := range req.Headers {
		httpReq.Header[name] = values
	}

	res, err := b.httpClient.Do(httpReq)
	if err != nil {
		return zero, err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return zero, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return zero, newAPIError(res.StatusCode, raw)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return zero, nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("sdkruntime: decode %s %s response: %w", call.Method, path, err)
	}
	return out, nil
}

func (b *Base) token(ctx context.Context) (string, error) {
	if b.authProvider == nil {
		return "", errors.New("sdkruntime: no AuthProvider configured")
	}
	return b.authProvider.Token(ctx, b.Region())
}

// NewRequest splits a parameter value into its request parts. The value is
// read through its JSON form: the members "query", "headers" and "body" are
// taken as such and every other top-level member is a path parameter.
func NewRequest(parameters any) (*Request, error) {
	req := &Request{
		PathParams: map[string]string{},
		Query:      url.Values{},
		Headers:    http.Header{},
	}
	if parameters == nil {
		return req, nil
	}
	encoded, err := json.Marshal(parameters)
	if err != nil {
		return nil, fmt.Errorf("sdkruntime: encode parameters: %w", err)
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &members); err != nil {
		return nil, fmt.Errorf("sdkruntime: parameters must encode to a JSON object: %w", err)
	}

	for name, raw := range members {
		switch name {
		case queryKey:
			fields, err := objectMembers(name, raw)
			if err != nil {
				return nil, err
			}
			for key, value := range fields {
				for _, v := range scalarValues(value) {
					req.Query.Add(key, v)
				}
			}
		case headersKey:
			fields, err := objectMembers(name, raw)
			if err != nil {
				return nil, err
			}
			for key, value := range fields {
				for _, v := range scalarValues(value) {
					req.Headers.Add(key, v)
				}
			}
		case bodyKey:
			if !isNull(raw) {
				req.Body = []byte(raw)
			}
		default:
			if values := scalarValues(raw); len(values) > 0 {
				req.PathParams[name] = strings.Join(values, ",")
			}
		}
	}
	return req, nil
}

// ExpandPath substitutes every {name} in template with the escaped path
// parameter of the same name. A placeholder without a value is an error.
func ExpandPath(template string, params map[string]string) (string, error) {
	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := params[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return url.PathEscape(v)
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("%w: %s in %s", ErrUnresolvedPlaceholder, strings.Join(missing, ", "), template)
	}
	return out, nil
}

func objectMembers(name string, raw json.RawMessage) (map[string]json.RawMessage, error) {
	if isNull(raw) {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("sdkruntime: %s must encode to a JSON object: %w", name, err)
	}
	return fields, nil
}

// scalarValues renders a JSON value as request text: strings unquoted,
// numbers and booleans verbatim, arrays as one value per element, objects as
// compact JSON. null yields nothing.
func scalarValues(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return []string{s}
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			var out []string
			for _, item := range items {
				out = append(out, scalarValues(item)...)
			}
			return out
		}
	case '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			return []string{buf.String()}
		}
	}
	return []string{string(raw)}
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
