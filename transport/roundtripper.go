package transport

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/viant/session/sessionerr"
	"github.com/viant/session/store"
	"net/http"
)

// RequestIDHeader carries the correlation id, identical on the original request and its replay
const RequestIDHeader = "X-Request-Id"

// Refresher obtains a new access token once the given one was rejected
type Refresher interface {
	RefreshExpired(ctx context.Context, expired string) (string, error)
}

type RoundTripper struct {
	store     store.Store
	refresher Refresher
	transport http.RoundTripper
	logger    zerolog.Logger
}

// New creates a RoundTripper authorizing requests with the access token held by aStore
func New(aStore store.Store, refresher Refresher, options ...Option) *RoundTripper {
	ret := &RoundTripper{
		store:     aStore,
		refresher: refresher,
		transport: http.DefaultTransport,
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if offOrigin(req) {
		// the session token is only sent to the host it was requested for
		resp, err := r.transport.RoundTrip(req)
		if err != nil {
			return nil, &sessionerr.NetworkError{Op: req.Method, URL: req.URL.Redacted(), Err: err}
		}
		return resp, nil
	}
	ctx := req.Context()
	body, err := readBody(req)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	pair, err := r.store.Get(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &sessionerr.SessionExpiredError{Err: sessionerr.ErrNoAccessToken}
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	requestID := r.requestID(req)
	logger := r.logger.With().Str("request_id", requestID).Str("method", req.Method).Str("url", req.URL.Redacted()).Logger()

	// 1) Send the request with the current access token.
	resp, err := r.send(clone(req, body), pair, requestID)
	if err != nil {
		return nil, err
	}

	// 2) If it wasn’t a 401, just return it.
	if resp.StatusCode != http.StatusUnauthorized {
		logger.Debug().Int("status", resp.StatusCode).Msg("protected request")
		return resp, nil
	}
	// Drain the prior body so we don’t leak.
	drain(resp)

	// 3) Refresh; a failed refresh ends the request without a replay.
	logger.Info().Msg("access token rejected, refreshing")
	accessToken, err := r.refresher.RefreshExpired(ctx, pair.AccessToken)
	if err != nil {
		logger.Info().Err(err).Msg("refresh failed")
		return nil, err
	}

	// 4) Replay the request once with the new token, whatever its outcome.
	resp, err = r.send(clone(req, body), &store.TokenPair{AccessToken: accessToken}, requestID)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("status", resp.StatusCode).Msg("protected request replayed")
	return resp, nil
}

func (r *RoundTripper) send(req *http.Request, pair *store.TokenPair, requestID string) (*http.Response, error) {
	pair.Token().SetAuthHeader(req)
	req.Header.Set(RequestIDHeader, requestID)
	resp, err := r.transport.RoundTrip(req)
	if err != nil {
		return nil, &sessionerr.NetworkError{Op: req.Method, URL: req.URL.Redacted(), Err: err}
	}
	return resp, nil
}

func (r *RoundTripper) requestID(req *http.Request) string {
	if id := req.Header.Get(RequestIDHeader); id != "" {
		return id
	}
	if id := getRequestID(req.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}
