package sdkruntime

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnresolvedPlaceholder is returned when an endpoint template contains a
// {name} that the parameter value does not supply.
var ErrUnresolvedPlaceholder = errors.New("sdkruntime: unresolved path placeholder")

// APIError is a non-success HTTP response. Body holds the response decoded as
// JSON exactly as the server sent it; it is nil when the body is not JSON, in
// which case Raw still carries the bytes.
type APIError struct {
	StatusCode int
	Body       any
	Raw        []byte
}

func newAPIError(status int, raw []byte) *APIError {
	e := &APIError{StatusCode: status, Raw: raw}
	var body any
	if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		e.Body = body
	}
	return e
}

func (e *APIError) Error() string {
	if len(e.Raw) > 0 {
		return fmt.Sprintf("sdkruntime: http %d: %s", e.StatusCode, e.Raw)
	}
	return fmt.Sprintf("sdkruntime: http %d", e.StatusCode)
}

// Decode unmarshals the raw error body into v.
func (e *APIError) Decode(v any) error {
	return json.Unmarshal(e.Raw, v)
}
