package auth

import (
	"github.com/rs/zerolog"
	"net/http"
)

type Option func(*Client)

// WithHTTPClient sets http client used for the login call
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}
