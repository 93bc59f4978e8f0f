// Package store defines the session token store used by the login, refresh and
// transport helpers.
//
// A Store keeps at most one TokenPair. It is layered on a pluggable KV where the
// access and refresh tokens live in two named slots. The package ships with an
// in-memory KV that is sufficient for most CLI or unit-test scenarios and a
// file KV, backed by viant/afs, that survives process restarts.
package store
