package session

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/session/auth"
	"github.com/viant/session/mock"
	"github.com/viant/session/sessionerr"
	"github.com/viant/session/store"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func issuePair(accessToken, refreshToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var credentials auth.Credentials
		_ = json.NewDecoder(r.Body).Decode(&credentials)
		if credentials.Username != "u" || credentials.Password != "p" {
			mock.WriteError(w, http.StatusUnauthorized, "wrong password")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"` + accessToken + `","refresh_token":"` + refreshToken + `"}`))
	}
}

func issueAccess(refreshToken, accessToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&request)
		if request.RefreshToken != refreshToken {
			mock.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"` + accessToken + `"}`))
	}
}

func accept(accessToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+accessToken {
			mock.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"x":1}`))
	}
}

func newSession(t *testing.T, server *mock.HTTPTestServer, options ...Option) *Session {
	aSession, err := New(context.Background(), &Config{BaseURL: server.URL}, options...)
	require.NoError(t, err)
	return aSession
}

func TestSession_LoginRefreshFetch(t *testing.T) {
	server, err := mock.NewHTTPTestServer(
		mock.WithLoginHandler(issuePair("A1", "R1")),
		mock.WithRefreshHandler(issueAccess("R1", "A2")),
		mock.WithResourceHandler(accept("A2")),
	)
	require.NoError(t, err)
	defer server.Close()

	ctx := context.Background()
	aSession := newSession(t, server)
	assert.Equal(t, LoggedOut, aSession.State())

	pair, err := aSession.Login(ctx, &auth.Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, &store.TokenPair{AccessToken: "A1", RefreshToken: "R1"}, pair)
	assert.Equal(t, Active, aSession.State())

	resp, err := aSession.Resource(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"x":1}`, string(resp.Body))
	var decoded struct {
		X int `json:"x"`
	}
	require.NoError(t, resp.Decode(&decoded))
	assert.Equal(t, 1, decoded.X)

	stored, err := aSession.Store().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, &store.TokenPair{AccessToken: "A2", RefreshToken: "R1"}, stored)
	assert.Equal(t, Active, aSession.State())
	assert.Equal(t, 1, server.RefreshCalls())
	assert.Equal(t, 2, server.ResourceCalls())
}

func TestSession_Login(t *testing.T) {
	var testCases = []struct {
		description string
		credentials *auth.Credentials
		expectErr   bool
		expectState State
	}{
		{
			description: "valid credentials",
			credentials: &auth.Credentials{Username: "u", Password: "p"},
			expectState: Active,
		},
		{
			description: "wrong password",
			credentials: &auth.Credentials{Username: "u", Password: "x"},
			expectErr:   true,
			expectState: LoggedOut,
		},
		{
			description: "unknown user",
			credentials: &auth.Credentials{Username: "nobody", Password: "p"},
			expectErr:   true,
			expectState: LoggedOut,
		},
	}

	for _, testCase := range testCases {
		server, err := mock.NewHTTPTestServer(mock.WithUser("u", "p"))
		require.NoError(t, err, testCase.description)
		ctx := context.Background()
		aSession := newSession(t, server)

		_, err = aSession.Login(ctx, testCase.credentials)
		if testCase.expectErr {
			assert.True(t, sessionerr.IsAuth(err), testCase.description)
			_, getErr := aSession.Store().Get(ctx)
			assert.ErrorIs(t, getErr, store.ErrNotFound, testCase.description)
		} else {
			assert.NoError(t, err, testCase.description)
		}
		assert.Equal(t, testCase.expectState, aSession.State(), testCase.description)
		server.Close()
	}
}

func TestSession_LoginUnreachable(t *testing.T) {
	server, err := mock.NewHTTPTestServer()
	require.NoError(t, err)
	aSession := newSession(t, server)
	server.Close()

	_, err = aSession.Login(context.Background(), &auth.Credentials{Username: "u", Password: "p"})
	assert.True(t, sessionerr.IsNetwork(err))
	assert.Equal(t, LoggedOut, aSession.State())
}

func TestSession_RetriesOnce(t *testing.T) {
	server, err := mock.NewHTTPTestServer(
		mock.WithLoginHandler(issuePair("A1", "R1")),
		mock.WithRefreshHandler(issueAccess("R1", "A2")),
		mock.WithResourceHandler(accept("never")),
	)
	require.NoError(t, err)
	defer server.Close()

	ctx := context.Background()
	aSession := newSession(t, server)
	_, err = aSession.Login(ctx, &auth.Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)

	_, err = aSession.Resource(ctx)
	require.Error(t, err)
	assert.True(t, sessionerr.IsResource(err))
	assert.Contains(t, err.Error(), "invalid token")
	assert.Equal(t, 2, server.ResourceCalls())
	assert.Equal(t, 1, server.RefreshCalls())
	assert.Equal(t, Active, aSession.State())
}

func TestSession_ResourceError(t *testing.T) {
	server, err := mock.NewHTTPTestServer(
		mock.WithLoginHandler(issuePair("A1", "R1")),
		mock.WithResourceHandler(func(w http.ResponseWriter, r *http.Request) {
			mock.WriteError(w, http.StatusNotFound, "no such resource")
		}),
	)
	require.NoError(t, err)
	defer server.Close()

	ctx := context.Background()
	aSession := newSession(t, server)
	_, err = aSession.Login(ctx, &auth.Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)

	_, err = aSession.Get(ctx, "/api/protected-resource")
	var resourceErr *sessionerr.ResourceError
	require.ErrorAs(t, err, &resourceErr)
	assert.Equal(t, http.StatusNotFound, resourceErr.StatusCode)
	assert.Equal(t, "no such resource", resourceErr.Message)
	assert.Equal(t, 0, server.RefreshCalls())
}

func TestSession_RefreshRejected(t *testing.T) {
	server, err := mock.NewHTTPTestServer(mock.WithUser("u", "p"))
	require.NoError(t, err)
	defer server.Close()

	ctx := context.Background()
	aSession := newSession(t, server)
	_, err = aSession.Login(ctx, &auth.Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)

	server.ExpireAccessTokens()
	server.RevokeRefreshTokens()
	_, err = aSession.Resource(ctx)
	assert.True(t, sessionerr.IsSessionExpired(err))
	assert.Equal(t, Expired, aSession.State())
	_, err = aSession.Store().Get(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	resourceCalls := server.ResourceCalls()
	_, err = aSession.Resource(ctx)
	assert.True(t, sessionerr.IsSessionExpired(err))
	assert.Equal(t, resourceCalls, server.ResourceCalls())

	_, err = aSession.Login(ctx, &auth.Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, Active, aSession.State())
	resp, err := aSession.Resource(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(resp.Body))
}

func TestSession_RefreshUnreachableKeepsTokens(t *testing.T) {
	server, err := mock.NewHTTPTestServer(
		mock.WithResourceHandler(accept("A2")),
	)
	require.NoError(t, err)
	defer server.Close()

	ctx := context.Background()
	aStore := store.NewMemory()
	require.NoError(t, aStore.Set(ctx, &store.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))
	aSession, err := New(ctx, &Config{BaseURL: server.URL, RefreshPath: "http://127.0.0.1:1/refresh"}, WithStore(aStore))
	require.NoError(t, err)

	_, err = aSession.Resource(ctx)
	assert.True(t, sessionerr.IsSessionExpired(err))
	assert.True(t, sessionerr.IsNetwork(err))
	assert.Equal(t, Expired, aSession.State())
	stored, err := aStore.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "R1", stored.RefreshToken)
}

func TestSession_ConcurrentExpiry(t *testing.T) {
	server, err := mock.NewHTTPTestServer(mock.WithUser("u", "p"))
	require.NoError(t, err)
	defer server.Close()

	ctx := context.Background()
	aSession := newSession(t, server)
	_, err = aSession.Login(ctx, &auth.Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)
	server.ExpireAccessTokens()

	const callers = 10
	var done sync.WaitGroup
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer done.Done()
			resp, err := aSession.Resource(ctx)
			if assert.NoError(t, err) {
				assert.JSONEq(t, `{"x":1}`, string(resp.Body))
			}
		}()
	}
	done.Wait()
	assert.Equal(t, 1, server.RefreshCalls())
	assert.Equal(t, Active, aSession.State())
}

func TestSession_CancelledWaiter(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	issue := issueAccess("R1", "A2")
	server, err := mock.NewHTTPTestServer(
		mock.WithResourceHandler(accept("A2")),
		mock.WithRefreshHandler(func(w http.ResponseWriter, r *http.Request) {
			close(entered)
			<-release
			issue(w, r)
		}),
	)
	require.NoError(t, err)
	defer server.Close()

	aStore := store.NewMemory()
	require.NoError(t, aStore.Set(context.Background(), &store.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))
	aSession, err := New(context.Background(), &Config{BaseURL: server.URL}, WithStore(aStore))
	require.NoError(t, err)
	assert.Equal(t, Active, aSession.State())

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		_, err := aSession.Resource(ctx)
		result <- err
	}()
	<-entered
	assert.Equal(t, Refreshing, aSession.State())
	cancel()
	assert.ErrorIs(t, <-result, context.Canceled)

	close(release)
	assert.Eventually(t, func() bool {
		pair, err := aStore.Get(context.Background())
		return err == nil && pair.AccessToken == "A2"
	}, 5*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return aSession.State() == Active
	}, 5*time.Second, 10*time.Millisecond)
	resp, err := aSession.Resource(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(resp.Body))
}

func TestSession_Logout(t *testing.T) {
	server, err := mock.NewHTTPTestServer(mock.WithUser("u", "p"))
	require.NoError(t, err)
	defer server.Close()

	ctx := context.Background()
	aSession := newSession(t, server)
	_, err = aSession.Login(ctx, &auth.Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)

	require.NoError(t, aSession.Logout(ctx))
	assert.Equal(t, LoggedOut, aSession.State())
	_, err = aSession.Resource(ctx)
	assert.True(t, sessionerr.IsSessionExpired(err))
	assert.ErrorIs(t, err, sessionerr.ErrNoAccessToken)
	assert.Equal(t, 0, server.ResourceCalls())
}

func TestSession_Resume(t *testing.T) {
	server, err := mock.NewHTTPTestServer(mock.WithResourceHandler(accept("A1")))
	require.NoError(t, err)
	defer server.Close()

	ctx := context.Background()
	aStore := store.NewMemory()
	require.NoError(t, aStore.Set(ctx, &store.TokenPair{AccessToken: "A1"}))
	aSession := newSession(t, server, WithStore(aStore))
	assert.Equal(t, Active, aSession.State())

	resp, err := aSession.Resource(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	token, err := aSession.TokenSource(ctx).Token()
	require.NoError(t, err)
	assert.Equal(t, "A1", token.AccessToken)
	assert.Equal(t, "Bearer", token.Type())
}

func TestSession_ExplicitRefresh(t *testing.T) {
	server, err := mock.NewHTTPTestServer(mock.WithRefreshHandler(issueAccess("R1", "A2")))
	require.NoError(t, err)
	defer server.Close()

	ctx := context.Background()
	aSession := newSession(t, server)
	_, err = aSession.Refresh(ctx)
	assert.True(t, sessionerr.IsSessionExpired(err))
	assert.ErrorIs(t, err, sessionerr.ErrNoRefreshToken)
	assert.Equal(t, 0, server.RefreshCalls())

	require.NoError(t, aSession.Store().Set(ctx, &store.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))
	accessToken, err := aSession.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A2", accessToken)
}

func TestSession_FetchPreservesRequest(t *testing.T) {
	var received struct {
		method string
		body   string
	}
	server, err := mock.NewHTTPTestServer(mock.WithResourceHandler(func(w http.ResponseWriter, r *http.Request) {
		var buf strings.Builder
		_, _ = io.Copy(&buf, r.Body)
		received.method = r.Method
		received.body = buf.String()
		w.WriteHeader(http.StatusCreated)
	}))
	require.NoError(t, err)
	defer server.Close()

	ctx := context.Background()
	aStore := store.NewMemory()
	require.NoError(t, aStore.Set(ctx, &store.TokenPair{AccessToken: "A1"}))
	aSession := newSession(t, server, WithStore(aStore))

	req, err := http.NewRequest(http.MethodPut, server.URL+mock.ResourcePath, strings.NewReader(`{"y":2}`))
	require.NoError(t, err)
	resp, err := aSession.Fetch(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, http.MethodPut, received.method)
	assert.Equal(t, `{"y":2}`, received.body)
}

func TestConfig_URL(t *testing.T) {
	var testCases = []struct {
		description string
		config      Config
		expect      [3]string
	}{
		{
			description: "defaults",
			config:      Config{BaseURL: "http://localhost:8080"},
			expect: [3]string{
				"http://localhost:8080/api/login",
				"http://localhost:8080/api/refresh-token",
				"http://localhost:8080/api/protected-resource",
			},
		},
		{
			description: "trailing slash",
			config:      Config{BaseURL: "http://localhost:8080/", LoginPath: "v1/login"},
			expect: [3]string{
				"http://localhost:8080/v1/login",
				"http://localhost:8080/api/refresh-token",
				"http://localhost:8080/api/protected-resource",
			},
		},
		{
			description: "absolute endpoint",
			config:      Config{BaseURL: "http://localhost:8080", RefreshPath: "https://auth.example.com/refresh"},
			expect: [3]string{
				"http://localhost:8080/api/login",
				"https://auth.example.com/refresh",
				"http://localhost:8080/api/protected-resource",
			},
		},
	}

	for _, testCase := range testCases {
		config := testCase.config
		config.Init()
		actual := [3]string{config.LoginURL(), config.RefreshURL(), config.ResourceURL()}
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "loggedOut", LoggedOut.String())
	assert.Equal(t, "refreshing", Refreshing.String())
	assert.Equal(t, "expired", Expired.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestSession_ReloginDuringFailingRefresh(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	server, err := mock.NewHTTPTestServer(
		mock.WithLoginHandler(issuePair("A9", "R9")),
		mock.WithResourceHandler(accept("A9")),
		mock.WithRefreshHandler(func(w http.ResponseWriter, r *http.Request) {
			close(entered)
			<-release
			mock.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		}),
	)
	require.NoError(t, err)
	defer server.Close()

	ctx := context.Background()
	aStore := store.NewMemory()
	require.NoError(t, aStore.Set(ctx, &store.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))
	aSession := newSession(t, server, WithStore(aStore))
	require.Equal(t, Active, aSession.State())

	result := make(chan error, 1)
	go func() {
		_, err := aSession.Resource(ctx)
		result <- err
	}()
	<-entered
	assert.Equal(t, Refreshing, aSession.State())
	_, err = aSession.Login(ctx, &auth.Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)
	close(release)
	assert.True(t, sessionerr.IsSessionExpired(<-result))

	assert.Equal(t, Active, aSession.State())
	stored, err := aStore.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, &store.TokenPair{AccessToken: "A9", RefreshToken: "R9"}, stored)
	resp, err := aSession.Resource(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(resp.Body))
	assert.Equal(t, 1, server.RefreshCalls())
}

// flakyStore fails Get while fail is set
type flakyStore struct {
	store.Store
	fail atomic.Bool
}

func (f *flakyStore) Get(ctx context.Context) (*store.TokenPair, error) {
	if f.fail.Load() {
		return nil, errors.New("disk unavailable")
	}
	return f.Store.Get(ctx)
}

func TestSession_StoreFailureIsNotNetwork(t *testing.T) {
	server, err := mock.NewHTTPTestServer(mock.WithResourceHandler(accept("A1")))
	require.NoError(t, err)
	defer server.Close()

	ctx := context.Background()
	aStore := &flakyStore{Store: store.NewMemory()}
	aSession := newSession(t, server, WithStore(aStore))
	aStore.fail.Store(true)

	_, err = aSession.Resource(ctx)
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk unavailable")
	assert.False(t, sessionerr.IsNetwork(err))
	assert.False(t, sessionerr.IsSessionExpired(err))
	assert.Equal(t, 0, server.ResourceCalls())
}
