// Package transport implements an http.RoundTripper that authorizes requests with
// the session access token and recovers from an expired token.
//
// When a request is rejected with a 401 Unauthorized response the RoundTripper
// refreshes the access token and replays the request exactly once with the new
// token. The replayed response is returned whatever its status, so a server that
// keeps rejecting tokens can not cause a refresh loop.
//
// The RoundTripper integrates with the higher-level session.Session but can also
// be used directly to secure arbitrary HTTP traffic.
package transport
