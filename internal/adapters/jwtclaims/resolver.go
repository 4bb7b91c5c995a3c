// Package jwtclaims recovers a display profile from the claims of an access
// token issued by the Afrigene API.
//
// Signatures are not verified: the portal never holds the signing key, and
// the recovered profile only drives display decisions. The API remains the
// authority on every data request.
package jwtclaims

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
	"github.com/DarwinOsingo/Afrigene/internal/ports"
)

var (
	// ErrExpired is returned for tokens whose exp claim has passed.
	ErrExpired = errors.New("jwtclaims: token expired")
	// ErrMissingClaims is returned when sub or email is absent.
	ErrMissingClaims = errors.New("jwtclaims: required claims missing")
	// ErrNotAccessToken is returned for refresh tokens.
	ErrNotAccessToken = errors.New("jwtclaims: not an access token")
)

// Resolver implements ports.ProfileResolver.
type Resolver struct {
	parser *jwt.Parser
	now    func() time.Time
}

var _ ports.ProfileResolver = (*Resolver)(nil)

// NewResolver returns a Resolver using the wall clock.
func NewResolver() *Resolver {
	return &Resolver{parser: jwt.NewParser(), now: time.Now}
}

// Resolve decodes sub, email and role from the token.
func (r *Resolver) Resolve(_ context.Context, accessToken string) (*domainauth.User, error) {
	raw := strings.TrimSpace(accessToken)
	if raw == "" {
		return nil, ErrMissingClaims
	}

	token, _, err := r.parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMissingClaims
	}

	if typ, _ := claims["type"].(string); typ == "refresh" {
		return nil, ErrNotAccessToken
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("read exp claim: %w", err)
	}
	if exp != nil && !r.now().Before(exp.Time) {
		return nil, ErrExpired
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || email == "" {
		return nil, ErrMissingClaims
	}

	return &domainauth.User{
		ID:       sub,
		Email:    email,
		Role:     domainauth.Role(role),
		IsActive: true,
	}, nil
}
