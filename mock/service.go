package mock

import (
	"crypto/rand"
	"fmt"
	"github.com/viant/session/internal/collection"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	LoginPath    = "/api/login"
	RefreshPath  = "/api/refresh-token"
	ResourcePath = "/api/protected-resource"
)

// Service is a test server that simulates the session API
type Service struct {
	Secret    []byte
	AccessTTL time.Duration
	// Users maps username to password
	Users map[string]string
	// ResourceBody is returned by the protected resource to an authorized caller
	ResourceBody    []byte
	LoginHandler    func(w http.ResponseWriter, r *http.Request)
	RefreshHandler  func(w http.ResponseWriter, r *http.Request)
	ResourceHandler func(w http.ResponseWriter, r *http.Request)

	refreshTokens *collection.SyncMap[string, string]
	generation    atomic.Int64
	loginCalls    atomic.Int32
	refreshCalls  atomic.Int32
	resourceCalls atomic.Int32
}

type Option func(*Service)

// WithUser adds a user
func WithUser(username, password string) Option {
	return func(s *Service) {
		s.Users[username] = password
	}
}

// WithAccessTTL sets access token time to live
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.AccessTTL = ttl
	}
}

// WithResourceBody sets protected resource body
func WithResourceBody(body string) Option {
	return func(s *Service) {
		s.ResourceBody = []byte(body)
	}
}

// WithLoginHandler overrides login endpoint
func WithLoginHandler(handler http.HandlerFunc) Option {
	return func(s *Service) {
		s.LoginHandler = handler
	}
}

// WithRefreshHandler overrides refresh endpoint
func WithRefreshHandler(handler http.HandlerFunc) Option {
	return func(s *Service) {
		s.RefreshHandler = handler
	}
}

// WithResourceHandler overrides protected resource endpoint
func WithResourceHandler(handler http.HandlerFunc) Option {
	return func(s *Service) {
		s.ResourceHandler = handler
	}
}

// NewService creates a new mock session API service
func NewService(opts ...Option) (*Service, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate secret: %v", err)
	}
	service := &Service{
		Secret:        secret,
		AccessTTL:     time.Hour,
		Users:         map[string]string{},
		ResourceBody:  []byte(`{"x":1}`),
		refreshTokens: collection.NewSyncMap[string, string](),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// ExpireAccessTokens invalidates every access token issued so far
func (s *Service) ExpireAccessTokens() {
	s.generation.Add(1)
}

// RevokeRefreshTokens invalidates every refresh token issued so far
func (s *Service) RevokeRefreshTokens() {
	s.refreshTokens.Reset()
}

// LoginCalls returns number of login calls
func (s *Service) LoginCalls() int {
	return int(s.loginCalls.Load())
}

// RefreshCalls returns number of refresh calls
func (s *Service) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

// ResourceCalls returns number of protected resource calls
func (s *Service) ResourceCalls() int {
	return int(s.resourceCalls.Load())
}

// Register registers HTTP handlers for all mock endpoints onto the given ServeMux.
func (s *Service) Register(mux *http.ServeMux) {
	mux.Handle("/", &Handler{Service: s})
}

// Handler returns an http.Handler for all mock endpoints, suitable for any HTTP server.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}
