// Package auth inspects bearer tokens handed out by the storefront backend.
// The backend owns signing keys, so tokens are decoded without verification
// and only their registered claims are consulted.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken marks a token that is not a decodable JWT.
var ErrOpaqueToken = errors.New("token is not a jwt")

// TokenInfo captures the claims the client state layer cares about.
type TokenInfo struct {
	Subject   string
	ExpiresAt *time.Time
}

var parser = jwt.NewParser()

// InspectToken decodes the token's registered claims without verifying its signature.
func InspectToken(token string) (TokenInfo, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return TokenInfo{}, fmt.Errorf("token is required")
	}
	if strings.Count(token, ".") != 2 {
		return TokenInfo{}, ErrOpaqueToken
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}

	info := TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time.UTC()
		info.ExpiresAt = &exp
	}
	return info, nil
}

// IsExpired reports whether a JWT's exp claim lies before now minus leeway.
// Opaque tokens and tokens without exp never count as expired.
func IsExpired(token string, now time.Time, leeway time.Duration) bool {
	info, err := InspectToken(token)
	if err != nil || info.ExpiresAt == nil {
		return false
	}
	return info.ExpiresAt.Before(now.Add(-leeway))
}
