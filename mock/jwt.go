package mock

import (
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"time"
)

var errStaleToken = errors.New("token generation expired")

// createAccessToken creates a signed access token for username
func (s *Service) createAccessToken(username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": username,
		"jti": uuid.NewString(),
		"gen": s.generation.Load(),
		"exp": now.Add(s.AccessTTL).Unix(),
		"iat": now.Unix(),
		"typ": "access_token",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

// validateAccessToken returns token subject or an error if token is invalid, expired or from a previous generation
func (s *Service) validateAccessToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type %T", token.Claims)
	}
	generation, _ := claims["gen"].(float64)
	if int64(generation) != s.generation.Load() {
		return "", errStaleToken
	}
	return claims.GetSubject()
}
