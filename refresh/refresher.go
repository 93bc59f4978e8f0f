package refresh

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/viant/session/internal/jsonhttp"
	"github.com/viant/session/sessionerr"
	"github.com/viant/session/store"
	"golang.org/x/sync/singleflight"
	"net/http"
)

// single session per refresher, so every call shares one key
const refreshKey = "refresh"

type (
	request struct {
		RefreshToken string `json:"refresh_token"`
	}

	reply struct {
		AccessToken string `json:"access_token"`
	}
)

// Refresher obtains new access tokens with the stored refresh token
type Refresher struct {
	refreshURL    string
	store         store.Store
	httpClient    *http.Client
	logger        zerolog.Logger
	clearOnReject bool
	observer      Observer
	group         singleflight.Group
}

// Refresh exchanges the stored refresh token for a new access token, stores and returns it.
// It fails with *sessionerr.SessionExpiredError when no refresh token is stored or the refresh is not successful.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	return r.do(ctx, "")
}

// RefreshExpired refreshes a session whose access token expired was rejected.
// If the store already holds a different access token, because a refresh completed
// after expired was read, that token is returned without a new request.
func (r *Refresher) RefreshExpired(ctx context.Context, expired string) (string, error) {
	return r.do(ctx, expired)
}

func (r *Refresher) do(ctx context.Context, expired string) (string, error) {
	// the shared call must outlive any single waiter
	detached := context.WithoutCancel(ctx)
	ch := r.group.DoChan(refreshKey, func() (interface{}, error) {
		return r.refresh(detached, expired)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return "", result.Err
		}
		return result.Val.(string), nil
	}
}

func (r *Refresher) refresh(ctx context.Context, expired string) (string, error) {
	pair, err := r.store.Get(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", r.fail("", &sessionerr.SessionExpiredError{Err: sessionerr.ErrNoRefreshToken})
		}
		return "", &sessionerr.SessionExpiredError{Err: fmt.Errorf("failed to read session: %w", err)}
	}
	if expired != "" && pair.AccessToken != expired {
		r.logger.Debug().Msg("access token already refreshed")
		return pair.AccessToken, nil
	}
	if pair.RefreshToken == "" {
		return "", r.fail("", &sessionerr.SessionExpiredError{Err: sessionerr.ErrNoRefreshToken})
	}

	r.notify(Event{Kind: Started, RefreshToken: pair.RefreshToken})
	r.logger.Debug().Str("url", r.refreshURL).Msg("refreshing access token")
	resp, err := jsonhttp.Post(ctx, r.httpClient, r.refreshURL, &request{RefreshToken: pair.RefreshToken})
	if err != nil {
		r.logger.Warn().Err(err).Str("url", r.refreshURL).Msg("refresh request failed")
		return "", r.fail(pair.RefreshToken, &sessionerr.SessionExpiredError{Err: err})
	}
	if !resp.OK() {
		r.logger.Info().Int("status", resp.StatusCode).Msg("refresh token rejected")
		if r.clearOnReject {
			r.clearRejected(ctx, pair.RefreshToken)
		}
		var cause error
		if msg := sessionerr.Message(resp.Body); msg != "" {
			cause = errors.New(msg)
		}
		return "", r.fail(pair.RefreshToken, &sessionerr.SessionExpiredError{StatusCode: resp.StatusCode, Err: cause})
	}
	var issued reply
	if err = resp.Decode(&issued); err != nil {
		return "", r.fail(pair.RefreshToken, &sessionerr.SessionExpiredError{StatusCode: resp.StatusCode, Err: err})
	}
	if issued.AccessToken == "" {
		return "", r.fail(pair.RefreshToken, &sessionerr.SessionExpiredError{StatusCode: resp.StatusCode, Err: errors.New("reply has no access token")})
	}
	accessToken, err := r.update(ctx, pair.RefreshToken, issued.AccessToken)
	if err != nil {
		return "", r.fail(pair.RefreshToken, err)
	}
	r.notify(Event{Kind: Succeeded, RefreshToken: pair.RefreshToken})
	r.logger.Info().Msg("access token refreshed")
	return accessToken, nil
}

// update stores accessToken unless the session was replaced while the request was in flight,
// in which case the newer session's access token is returned.
func (r *Refresher) update(ctx context.Context, refreshToken, accessToken string) (string, error) {
	if updater, ok := r.store.(store.AccessTokenUpdater); ok {
		updated, err := updater.UpdateAccessToken(ctx, refreshToken, accessToken)
		if err != nil {
			return "", &sessionerr.SessionExpiredError{Err: fmt.Errorf("failed to store access token: %w", err)}
		}
		if updated {
			return accessToken, nil
		}
		return r.current(ctx)
	}
	current, err := r.store.Get(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", &sessionerr.SessionExpiredError{Err: fmt.Errorf("failed to read session: %w", err)}
	}
	if current == nil || current.RefreshToken != refreshToken {
		return r.current(ctx)
	}
	if err = r.store.Set(ctx, &store.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}); err != nil {
		return "", &sessionerr.SessionExpiredError{Err: fmt.Errorf("failed to store access token: %w", err)}
	}
	return accessToken, nil
}

// current returns the access token of a session that replaced the refreshed one
func (r *Refresher) current(ctx context.Context) (string, error) {
	pair, err := r.store.Get(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// logged out while refreshing
			return "", &sessionerr.SessionExpiredError{Err: sessionerr.ErrNoRefreshToken}
		}
		return "", &sessionerr.SessionExpiredError{Err: fmt.Errorf("failed to read session: %w", err)}
	}
	r.logger.Debug().Msg("session replaced during refresh")
	return pair.AccessToken, nil
}

func (r *Refresher) clearRejected(ctx context.Context, refreshToken string) {
	current, err := r.store.Get(ctx)
	if err != nil || current.RefreshToken != refreshToken {
		return
	}
	if err = r.store.Clear(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("failed to clear rejected session")
	}
}

func (r *Refresher) fail(refreshToken string, err error) error {
	r.notify(Event{Kind: Failed, RefreshToken: refreshToken, Err: err})
	return err
}

func (r *Refresher) notify(event Event) {
	if r.observer != nil {
		r.observer(event)
	}
}

// New creates a refresher posting to refreshURL and updating aStore
func New(refreshURL string, aStore store.Store, options ...Option) *Refresher {
	ret := &Refresher{
		refreshURL:    refreshURL,
		store:         aStore,
		httpClient:    http.DefaultClient,
		logger:        zerolog.Nop(),
		clearOnReject: true,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}
