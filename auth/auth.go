// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/danielhkuo/quorumvote/models"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "quorumvote"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingToken = errors.New("authorization header required")
)

// Capability is the verified identity of a caller: who they are and which
// roles they hold on which meetings. Admins may do anything.
type Capability struct {
	UserID string
	Admin  bool
	Roles  map[string][]models.Role
}

// HasRole reports whether the caller holds any of roles on the meeting.
func (c *Capability) HasRole(meetingID string, roles ...models.Role) bool {
	if c == nil {
		return false
	}
	if c.Admin {
		return true
	}
	for _, r := range c.Roles[meetingID] {
		if slices.Contains(roles, r) {
			return true
		}
	}
	return false
}

type claims struct {
	Admin bool                     `json:"admin,omitempty"`
	Roles map[string][]models.Role `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs a capability as an HS256 JWT valid for ttl.
func IssueToken(secret string, c Capability, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("token secret is empty")
	}
	if strings.TrimSpace(c.UserID) == "" {
		return "", fmt.Errorf("capability needs a user id")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Admin: c.Admin,
		Roles: c.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}

// ParseToken verifies a token and returns the capability it carries.
func ParseToken(secret, tokenString string) (*Capability, error) {
	var cl claims
	token, err := jwt.ParseWithClaims(tokenString, &cl, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || cl.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Capability{
		UserID: cl.Subject,
		Admin:  cl.Admin,
		Roles:  cl.Roles,
	}, nil
}

// FromBearer extracts and verifies the token of an Authorization header.
func FromBearer(secret, header string) (*Capability, error) {
	if header == "" {
		return nil, ErrMissingToken
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}
	return ParseToken(secret, strings.TrimSpace(token))
}

type contextKey struct{}

// WithCapability attaches a verified capability to ctx.
func WithCapability(ctx context.Context, c *Capability) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the capability attached by WithCapability.
func FromContext(ctx context.Context) (*Capability, bool) {
	c, ok := ctx.Value(contextKey{}).(*Capability)
	return c, ok && c != nil
}
