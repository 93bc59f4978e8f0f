// Package mock provides an in-process API server that facilitates testing of the
// client-side session flow.
//
// The server implements the login, refresh and protected resource endpoints,
// counts every call and lets tests expire access tokens or revoke refresh tokens
// on demand, without performing actual network round-trips outside httptest.
package mock
