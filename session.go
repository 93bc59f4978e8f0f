package session

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/viant/session/auth"
	"github.com/viant/session/refresh"
	"github.com/viant/session/sessionerr"
	"github.com/viant/session/store"
	"github.com/viant/session/transport"
	"golang.org/x/oauth2"
	"io"
	"net/http"
	"net/url"
)

// maxResponseSize caps how much of a protected resource reply Fetch reads
const maxResponseSize = 32 << 20

// Session represents a single authenticated API session
type Session struct {
	config        *Config
	store         store.Store
	baseClient    *http.Client
	logger        zerolog.Logger
	clearOnReject bool

	auth       *auth.Client
	refresher  *refresh.Refresher
	transport  *transport.RoundTripper
	httpClient *http.Client
	state      *tracker
}

// New creates a session for config endpoints. A session already held by the store is resumed as Active.
func New(ctx context.Context, config *Config, options ...Option) (*Session, error) {
	if config == nil {
		return nil, errors.New("config was nil")
	}
	cfg := *config
	cfg.Init()
	ret := &Session{
		config:        &cfg,
		baseClient:    http.DefaultClient,
		logger:        zerolog.Nop(),
		clearOnReject: true,
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.store == nil {
		ret.store = store.NewMemory()
	}
	ret.state = &tracker{store: ret.store, logger: &ret.logger}

	ret.auth = auth.New(cfg.LoginURL(), ret.store,
		auth.WithHTTPClient(ret.baseClient),
		auth.WithLogger(ret.logger))
	ret.refresher = refresh.New(cfg.RefreshURL(), ret.store,
		refresh.WithHTTPClient(ret.baseClient),
		refresh.WithLogger(ret.logger),
		refresh.WithClearOnReject(ret.clearOnReject),
		refresh.WithObserver(ret.state.onRefresh))

	inner := ret.baseClient.Transport
	if inner == nil {
		inner = http.DefaultTransport
	}
	ret.transport = transport.New(ret.store, ret.refresher,
		transport.WithTransport(inner),
		transport.WithLogger(ret.logger))
	authorized := *ret.baseClient
	authorized.Transport = &gate{state: ret.state, next: ret.transport}
	ret.httpClient = &authorized

	if _, err := ret.store.Get(ctx); err == nil {
		ret.state.set(Active)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to resume session: %w", err)
	}
	return ret, nil
}

// Config returns session endpoints
func (s *Session) Config() *Config {
	return s.config
}

// Store returns token store
func (s *Session) Store() store.Store {
	return s.store
}

// State returns current lifecycle state
func (s *Session) State() State {
	return s.state.get()
}

// HTTPClient returns a client authorizing every request with the session token
func (s *Session) HTTPClient() *http.Client {
	return s.httpClient
}

// Login exchanges credentials for a token pair. On failure the previous state and stored session are kept.
func (s *Session) Login(ctx context.Context, credentials *auth.Credentials) (*store.TokenPair, error) {
	prev := s.state.set(LoggingIn)
	pair, err := s.auth.Login(ctx, credentials)
	if err != nil {
		s.state.set(prev)
		return nil, err
	}
	s.state.set(Active)
	return pair, nil
}

// Logout clears the stored session
func (s *Session) Logout(ctx context.Context) error {
	err := s.auth.Logout(ctx)
	s.state.set(LoggedOut)
	return err
}

// Refresh obtains a new access token with the stored refresh token
func (s *Session) Refresh(ctx context.Context) (string, error) {
	return s.refresher.Refresh(ctx)
}

// Resource fetches the configured protected resource
func (s *Session) Resource(ctx context.Context) (*Response, error) {
	return s.Get(ctx, s.config.ResourcePath)
}

// Get fetches path relative to the base URL
func (s *Session) Get(ctx context.Context, path string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.URL(path), nil)
	if err != nil {
		return nil, err
	}
	return s.Fetch(ctx, req)
}

// Fetch sends an authorized request. A 2xx reply is returned as Response; any other reply,
// including a 401 on the replayed request, is returned as *sessionerr.ResourceError.
func (s *Session) Fetch(ctx context.Context, req *http.Request) (*Response, error) {
	URL := req.URL.Redacted()
	resp, err := s.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, s.fetchError(ctx, req.Method, URL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &sessionerr.NetworkError{Op: req.Method, URL: URL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &sessionerr.ResourceError{StatusCode: resp.StatusCode, Message: sessionerr.Message(body), URL: URL}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// fetchError unwraps the client error; only transport failures are reported as NetworkError
func (s *Session) fetchError(ctx context.Context, method, URL string, err error) error {
	var expired *sessionerr.SessionExpiredError
	if errors.As(err, &expired) {
		return expired
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var netErr *sessionerr.NetworkError
	if errors.As(err, &netErr) {
		return netErr
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return fmt.Errorf("%s %s: %w", method, URL, err)
}

// TokenSource returns an oauth2 token source reading the stored session
func (s *Session) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, store: s.store}
}

type tokenSource struct {
	ctx   context.Context
	store store.Store
}

func (t *tokenSource) Token() (*oauth2.Token, error) {
	pair, err := t.store.Get(t.ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &sessionerr.SessionExpiredError{Err: sessionerr.ErrNoAccessToken}
		}
		return nil, err
	}
	return pair.Token(), nil
}

// gate rejects requests of an expired session until a new login
type gate struct {
	state *tracker
	next  http.RoundTripper
}

func (g *gate) RoundTrip(req *http.Request) (*http.Response, error) {
	if g.state.get() == Expired {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, &sessionerr.SessionExpiredError{Err: errors.New("session expired, login required")}
	}
	return g.next.RoundTrip(req)
}
