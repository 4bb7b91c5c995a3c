package ports

// Package ports defines interfaces (hexagonal ports) for session-related behavior.
// Implementations live in internal/adapters and internal/apiclient.

import (
	"context"

	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
)

// Authenticator exchanges credentials for tokens and a user profile.
// Implementations return *errors.AuthenticationError for rejected credentials.
type Authenticator interface {
	Login(ctx context.Context, creds domainauth.Credentials) (domainauth.LoginResult, error)
}

// ProfileResolver recovers a user profile from an access token alone.
// It is used after rehydration, when tokens are known but the profile is not.
type ProfileResolver interface {
	Resolve(ctx context.Context, accessToken string) (*domainauth.User, error)
}

// TokenSource yields the bearer token to attach to the next outgoing request.
// An empty string means no Authorization header is sent.
type TokenSource interface {
	AccessToken() string
}
