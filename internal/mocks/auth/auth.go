package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
	apperrors "github.com/DarwinOsingo/Afrigene/internal/errors"
	"github.com/DarwinOsingo/Afrigene/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Authenticator   = (*FakeAuthenticator)(nil)
	_ ports.ProfileResolver = (*StaticProfileResolver)(nil)
	_ ports.TokenSource     = StaticToken("")
)

// Account is one credential the fake accepts.
type Account struct {
	Password    string
	MFARequired bool
	User        domainauth.User
}

// FakeAuthenticator issues sequential tokens ("T1", "T2", ...) for known accounts
// and rejects everything else the way the API does.
//
// When Gate is non-nil every Login blocks after Started is signalled until a
// value arrives on Gate or ctx ends. Race tests use it to hold a login in flight.
type FakeAuthenticator struct {
	LoginFunc func(ctx context.Context, creds domainauth.Credentials) (domainauth.LoginResult, error)

	Accounts map[string]Account
	Gate     chan struct{}
	Started  chan string

	mu     sync.Mutex
	issued int
	calls  []domainauth.Credentials
}

// NewFakeAuthenticator returns a fake with the given accounts keyed by email.
func NewFakeAuthenticator(accounts map[string]Account) *FakeAuthenticator {
	return &FakeAuthenticator{Accounts: accounts}
}

func (f *FakeAuthenticator) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.LoginResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, creds)
	f.mu.Unlock()

	if f.Gate != nil {
		if f.Started != nil {
			f.Started <- creds.Email
		}
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return domainauth.LoginResult{}, ctx.Err()
		}
	}

	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, creds)
	}

	acct, ok := f.Accounts[creds.Email]
	if !ok || acct.Password != creds.Password {
		return domainauth.LoginResult{}, apperrors.NewAuthentication("Invalid email or password",
			&apperrors.APIError{Status: http.StatusUnauthorized, Detail: "Invalid email or password", Op: "login"})
	}
	if acct.MFARequired && creds.MFACode == "" {
		return domainauth.LoginResult{}, apperrors.NewAuthentication("MFA code required",
			&apperrors.APIError{Status: http.StatusForbidden, Detail: "MFA code required", Op: "login"})
	}

	f.mu.Lock()
	f.issued++
	n := f.issued
	f.mu.Unlock()

	return domainauth.LoginResult{
		Tokens: domainauth.Tokens{
			AccessToken:  fmt.Sprintf("T%d", n),
			RefreshToken: fmt.Sprintf("R%d", n),
			TokenType:    "bearer",
			ExpiresIn:    3600,
		},
		User: acct.User,
	}, nil
}

// Calls returns the credentials seen so far.
func (f *FakeAuthenticator) Calls() []domainauth.Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domainauth.Credentials, len(f.calls))
	copy(out, f.calls)
	return out
}

// StaticProfileResolver returns a fixed user or error.
type StaticProfileResolver struct {
	User *domainauth.User
	Err  error

	mu    sync.Mutex
	calls int
}

func (r *StaticProfileResolver) Resolve(_ context.Context, _ string) (*domainauth.User, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return r.User.Clone(), nil
}

// CallCount reports how many times Resolve ran.
func (r *StaticProfileResolver) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// StaticToken is a TokenSource that always returns itself.
type StaticToken string

func (s StaticToken) AccessToken() string { return string(s) }
