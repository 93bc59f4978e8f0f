package refresh

import (
	"github.com/rs/zerolog"
	"net/http"
)

type Option func(*Refresher)

// WithHTTPClient sets http client used for the refresh call
func WithHTTPClient(client *http.Client) Option {
	return func(r *Refresher) {
		r.httpClient = client
	}
}

// WithLogger sets logger
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Refresher) {
		r.logger = logger
	}
}

// WithClearOnReject controls whether a refresh token rejected by the server is removed from the store (default true).
// A transport failure never clears the store.
func WithClearOnReject(clear bool) Option {
	return func(r *Refresher) {
		r.clearOnReject = clear
	}
}

// WithObserver sets refresh lifecycle observer
func WithObserver(observer Observer) Option {
	return func(r *Refresher) {
		r.observer = observer
	}
}
