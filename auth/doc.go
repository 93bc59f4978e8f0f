// Package auth exchanges user credentials for a session token pair.
//
// Client.Login posts the credentials to the login endpoint and, on success,
// writes the returned pair into the session store. Failures are returned as
// typed errors from the sessionerr package and never mutate the store; the
// caller decides whether to resubmit.
package auth
