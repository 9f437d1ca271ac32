// Package auth handles the client side of portal authentication: the
// login exchange, decoding identity claims out of the issued JWT, and
// the credential profile persisted between CLI invocations. Token
// signature verification stays server-side; the client holds no key.
package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoUserID means the token carried no usable identity claim.
var ErrNoUserID = errors.New("auth: token has no user id claim")

// Claims are the portal token claims the client cares about.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// DecodeToken extracts claims from a portal JWT without verifying the
// signature. A leading "Bearer " prefix is tolerated.
func DecodeToken(token string) (*Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, ErrNoUserID
	}
	return claims, nil
}
