package auth

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/viant/session/internal/jsonhttp"
	"github.com/viant/session/sessionerr"
	"github.com/viant/session/store"
	"net/http"
)

// Client obtains the initial token pair
type Client struct {
	loginURL   string
	store      store.Store
	httpClient *http.Client
	logger     zerolog.Logger
}

// Login submits credentials to the login endpoint, stores and returns the issued token pair.
// Any non success reply is returned as *sessionerr.AuthError, a transport failure as *sessionerr.NetworkError;
// in both cases the store is left untouched.
func (c *Client) Login(ctx context.Context, credentials *Credentials) (*store.TokenPair, error) {
	if credentials == nil {
		return nil, errors.New("credentials were nil")
	}
	c.logger.Debug().Str("url", c.loginURL).Str("username", credentials.Username).Msg("login")
	reply, err := jsonhttp.Post(ctx, c.httpClient, c.loginURL, credentials)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", c.loginURL).Msg("login request failed")
		return nil, err
	}
	if !reply.OK() {
		c.logger.Info().Int("status", reply.StatusCode).Str("username", credentials.Username).Msg("login rejected")
		return nil, &sessionerr.AuthError{StatusCode: reply.StatusCode, Message: sessionerr.Message(reply.Body)}
	}
	pair := &store.TokenPair{}
	if err = reply.Decode(pair); err != nil {
		return nil, &sessionerr.AuthError{StatusCode: reply.StatusCode, Message: err.Error()}
	}
	if pair.AccessToken == "" {
		return nil, &sessionerr.AuthError{StatusCode: reply.StatusCode, Message: "reply has no access token"}
	}
	if err = c.store.Set(ctx, pair); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	c.logger.Info().Str("username", credentials.Username).Bool("refreshable", pair.RefreshToken != "").Msg("logged in")
	return pair.Clone(), nil
}

// Logout discards the stored session
func (c *Client) Logout(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	c.logger.Info().Msg("logged out")
	return nil
}

// New creates a login client posting to loginURL and writing into aStore
func New(loginURL string, aStore store.Store, options ...Option) *Client {
	ret := &Client{
		loginURL:   loginURL,
		store:      aStore,
		httpClient: http.DefaultClient,
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}
