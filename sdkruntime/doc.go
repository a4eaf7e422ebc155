// Package sdkruntime executes the HTTP calls of a generated SDK.
//
// Generated controllers embed *Base and delegate every method to Invoke,
// forwarding their parameter value untouched. Invoke flattens that value's
// JSON form into path parameters, query, headers and body, attaches the API
// key and a bearer token from the configured AuthProvider, and issues exactly
// one request. Non-success responses are returned as *APIError carrying the
// server's JSON body; transport errors are returned as they are.
//
// The package has no dependencies outside the standard library, so its
// sources can be copied into a generated module as is. It does not retry and
// does not impose timeouts; callers control both through the context and the
// *http.Client they supply.
package sdkruntime
