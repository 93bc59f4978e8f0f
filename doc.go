// Package session provides a client-side authenticated session for a bearer token API.
//
// The package glues the store, auth, refresh and transport packages into a
// single Session that:
//  1. exchanges credentials for an access/refresh token pair (Login),
//  2. authorizes protected requests with the access token (Fetch, HTTPClient) and
//  3. transparently refreshes an expired access token and replays the request once.
//
// Concurrent requests that observe an expired token share a single refresh.
// Failures are typed (see the sessionerr package) so callers can tell a rejected
// login from an expired session or a failing resource.
//
// Example:
//
//	aSession, _ := session.New(ctx, &session.Config{BaseURL: "https://api.example.com"})
//	if _, err := aSession.Login(ctx, &auth.Credentials{Username: "u", Password: "p"}); err != nil {
//		return err
//	}
//	resp, err := aSession.Resource(ctx)
//	if sessionerr.IsSessionExpired(err) {
//		// prompt for a new login
//	}
package session
