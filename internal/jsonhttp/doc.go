// Package jsonhttp collects the small JSON-over-HTTP helper shared by the login and refresh
// clients. It is not part of the public API.
package jsonhttp
