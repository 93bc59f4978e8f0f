package session

import (
	"github.com/rs/zerolog"
	"github.com/viant/session/store"
	"net/http"
)

// Option represents session option
type Option func(s *Session)

// WithStore sets token store, an in-memory store is used by default
func WithStore(aStore store.Store) Option {
	return func(s *Session) {
		s.store = aStore
	}
}

// WithHTTPClient sets base http client; its Transport carries every call and its Timeout bounds them
func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) {
		s.baseClient = client
	}
}

// WithLogger sets logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithClearOnReject controls whether a rejected refresh token is removed from the store
func WithClearOnReject(clear bool) Option {
	return func(s *Session) {
		s.clearOnReject = clear
	}
}
