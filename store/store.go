package store

import (
	"context"
	"errors"
	"fmt"
	"golang.org/x/oauth2"
	"sync"
)

const (
	// AccessTokenKey is the default KV slot of the access token
	AccessTokenKey = "accessToken"
	// RefreshTokenKey is the default KV slot of the refresh token
	RefreshTokenKey = "refreshToken"
)

var (
	// ErrNotFound is returned by Get when no session is stored
	ErrNotFound = errors.New("session not found")
	// ErrEmptyAccessToken is returned by Set for a pair without an access token
	ErrEmptyAccessToken = errors.New("access token is empty")
)

// TokenPair represents a bearer access token with the refresh token it was issued with.
// Both values are opaque.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Clone returns a copy of the pair
func (p *TokenPair) Clone() *TokenPair {
	if p == nil {
		return nil
	}
	ret := *p
	return &ret
}

// Token returns the pair as a bearer oauth2 token
func (p *TokenPair) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
	}
}

// FromToken creates a pair from an oauth2 token
func FromToken(token *oauth2.Token) *TokenPair {
	if token == nil {
		return nil
	}
	return &TokenPair{AccessToken: token.AccessToken, RefreshToken: token.RefreshToken}
}

// Store persists the current session token pair. Implementations replace the
// whole pair at once: a Get never observes a pair mixed from two Set calls.
type Store interface {
	// Get returns a copy of the stored pair or ErrNotFound
	Get(ctx context.Context) (*TokenPair, error)
	// Set replaces the stored pair
	Set(ctx context.Context, pair *TokenPair) error
	// Clear removes the stored pair
	Clear(ctx context.Context) error
}

// AccessTokenUpdater is implemented by a Store able to replace the access token atomically,
// only while the stored refresh token is still refreshToken.
type AccessTokenUpdater interface {
	UpdateAccessToken(ctx context.Context, refreshToken, accessToken string) (bool, error)
}

// KV is a pluggable string key-value persistence layer.
// The in‑memory default is fine for CLI tools; swap with a file or remote backend for anything longer lived.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Batcher is implemented by a KV able to write several slots in one step
type Batcher interface {
	PutAll(ctx context.Context, values map[string]string) error
	DeleteAll(ctx context.Context, keys ...string) error
}

type Option func(*kvStore)

// WithKeys overrides the access and refresh token slot names
func WithKeys(accessTokenKey, refreshTokenKey string) Option {
	return func(s *kvStore) {
		s.accessTokenKey = accessTokenKey
		s.refreshTokenKey = refreshTokenKey
	}
}

type kvStore struct {
	mu              sync.RWMutex
	kv              KV
	accessTokenKey  string
	refreshTokenKey string
}

func (s *kvStore) Get(ctx context.Context) (*TokenPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accessToken, ok, err := s.kv.Get(ctx, s.accessTokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read %v: %w", s.accessTokenKey, err)
	}
	if !ok || accessToken == "" {
		return nil, ErrNotFound
	}
	refreshToken, _, err := s.kv.Get(ctx, s.refreshTokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read %v: %w", s.refreshTokenKey, err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *kvStore) Set(ctx context.Context, pair *TokenPair) error {
	if pair == nil || pair.AccessToken == "" {
		return ErrEmptyAccessToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(ctx, pair)
}

func (s *kvStore) UpdateAccessToken(ctx context.Context, refreshToken, accessToken string) (bool, error) {
	if accessToken == "" {
		return false, ErrEmptyAccessToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok, err := s.kv.Get(ctx, s.refreshTokenKey)
	if err != nil {
		return false, fmt.Errorf("failed to read %v: %w", s.refreshTokenKey, err)
	}
	if !ok || current != refreshToken {
		return false, nil
	}
	if err = s.set(ctx, &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *kvStore) set(ctx context.Context, pair *TokenPair) error {
	if batcher, ok := s.kv.(Batcher); ok {
		return batcher.PutAll(ctx, map[string]string{
			s.accessTokenKey:  pair.AccessToken,
			s.refreshTokenKey: pair.RefreshToken,
		})
	}
	prevAccessToken, hadAccessToken, err := s.kv.Get(ctx, s.accessTokenKey)
	if err != nil {
		return fmt.Errorf("failed to read %v: %w", s.accessTokenKey, err)
	}
	if err = s.kv.Put(ctx, s.accessTokenKey, pair.AccessToken); err != nil {
		return fmt.Errorf("failed to write %v: %w", s.accessTokenKey, err)
	}
	if err = s.kv.Put(ctx, s.refreshTokenKey, pair.RefreshToken); err != nil {
		s.restore(ctx, prevAccessToken, hadAccessToken)
		return fmt.Errorf("failed to write %v: %w", s.refreshTokenKey, err)
	}
	return nil
}

// restore puts back the access token of the previous pair; if that fails the slot is
// removed so the new access token is never paired with the old refresh token
func (s *kvStore) restore(ctx context.Context, accessToken string, ok bool) {
	if ok {
		if err := s.kv.Put(ctx, s.accessTokenKey, accessToken); err == nil {
			return
		}
	}
	_ = s.kv.Delete(ctx, s.accessTokenKey)
}

func (s *kvStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if batcher, ok := s.kv.(Batcher); ok {
		return batcher.DeleteAll(ctx, s.accessTokenKey, s.refreshTokenKey)
	}
	accessErr := s.kv.Delete(ctx, s.accessTokenKey)
	refreshErr := s.kv.Delete(ctx, s.refreshTokenKey)
	return errors.Join(accessErr, refreshErr)
}

// New creates a Store keeping the token pair in two slots of kv
func New(kv KV, options ...Option) Store {
	ret := &kvStore{
		kv:              kv,
		accessTokenKey:  AccessTokenKey,
		refreshTokenKey: RefreshTokenKey,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// NewMemory creates a Store backed by an in-memory KV
func NewMemory(options ...Option) Store {
	return New(NewMemoryKV(), options...)
}
