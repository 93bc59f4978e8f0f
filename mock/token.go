package mock

import (
	"encoding/json"
	"github.com/google/uuid"
	"net/http"
	"strings"
)

// defaultLoginHandler handles login requests
func (s *Service) defaultLoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var request struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Username == "" {
		WriteError(w, http.StatusBadRequest, "request body is invalid")
		return
	}
	password, ok := s.Users[request.Username]
	if !ok {
		WriteError(w, http.StatusUnauthorized, "user not found")
		return
	}
	if password != request.Password {
		WriteError(w, http.StatusUnauthorized, "wrong password")
		return
	}
	accessToken, err := s.createAccessToken(request.Username)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	refreshToken := uuid.NewString()
	s.refreshTokens.Put(refreshToken, request.Username)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user": map[string]string{
			"username": request.Username,
		},
	})
}

// defaultRefreshHandler handles refresh token requests
func (s *Service) defaultRefreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var request struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.RefreshToken == "" {
		WriteError(w, http.StatusBadRequest, "request body is invalid")
		return
	}
	username, ok := s.refreshTokens.Get(request.RefreshToken)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	accessToken, err := s.createAccessToken(username)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

// defaultResourceHandler simulates the protected resource
func (s *Service) defaultResourceHandler(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		WriteError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	if _, err := s.validateAccessToken(parts[1]); err != nil {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
		WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.ResourceBody)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
