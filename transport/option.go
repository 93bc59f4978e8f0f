package transport

import (
	"github.com/rs/zerolog"
	"net/http"
)

type Option func(*RoundTripper)

// WithTransport sets the underlying transport
func WithTransport(transport http.RoundTripper) Option {
	return func(t *RoundTripper) {
		t.transport = transport
	}
}

// WithLogger sets logger
func WithLogger(logger zerolog.Logger) Option {
	return func(t *RoundTripper) {
		t.logger = logger
	}
}
