package sessionerr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoAccessToken is reported when a protected request is attempted without a stored access token
	ErrNoAccessToken = errors.New("access token not found, login required")
	// ErrNoRefreshToken is reported when a refresh is attempted without a stored refresh token
	ErrNoRefreshToken = errors.New("refresh token not found, login required")
)

// NetworkError represents a transport failure: the server could not be reached or the reply could not be read
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// AuthError represents a rejected login
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("login failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("login failed: %d %s", e.StatusCode, e.Message)
}

// SessionExpiredError represents a session that can not be recovered without a new login,
// either because the refresh token was rejected or because no token is stored.
type SessionExpiredError struct {
	// StatusCode is the refresh endpoint status, zero when no refresh response was received
	StatusCode int
	Err        error
}

func (e *SessionExpiredError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("session expired: %d: %v", e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("session expired: %v", e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("session expired: refresh rejected with %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return "session expired"
}

func (e *SessionExpiredError) Unwrap() error {
	return e.Err
}

// ResourceError represents a non success reply from a protected resource
type ResourceError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *ResourceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("resource %s failed: %d %s", e.URL, e.StatusCode, msg)
}

// IsSessionExpired returns true if err carries a SessionExpiredError
func IsSessionExpired(err error) bool {
	var expired *SessionExpiredError
	return errors.As(err, &expired)
}

// IsAuth returns true if err carries an AuthError
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsNetwork returns true if err carries a NetworkError
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsResource returns true if err carries a ResourceError
func IsResource(err error) bool {
	var resErr *ResourceError
	return errors.As(err, &resErr)
}
