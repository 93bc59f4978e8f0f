// Package sessionerr defines the typed failures returned by the session packages.
//
// Callers branch on the failure kind with errors.As:
//   - NetworkError: the server could not be reached.
//   - AuthError: the login was rejected.
//   - SessionExpiredError: the refresh token was rejected or no token is stored; a new login is required.
//   - ResourceError: a protected resource replied with a non success status other than an expiry.
package sessionerr
