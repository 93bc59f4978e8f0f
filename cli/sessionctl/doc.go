// Command sessionctl logs in to a bearer token API and calls its protected resource,
// refreshing the access token when the server rejects it.
package main
