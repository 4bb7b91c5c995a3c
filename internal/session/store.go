// Package session owns the authenticated actor: bearer tokens, the user
// profile, and their durable persistence.
//
// A Store is the single writer for one session. Consumers receive the *Store
// (or a read-only view of it such as ports.TokenSource) explicitly; there is
// no package-level session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
	apperrors "github.com/DarwinOsingo/Afrigene/internal/errors"
	"github.com/DarwinOsingo/Afrigene/internal/observability/metrics"
	"github.com/DarwinOsingo/Afrigene/internal/observability/statsd"
	"github.com/DarwinOsingo/Afrigene/internal/ports"
)

// Fixed storage keys for the persisted tokens.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// MissingCredentialsMessage is returned when email or password is blank.
const MissingCredentialsMessage = "Email and password are required"

// ErrLoginSuperseded is returned by Login when a logout or a newer login
// happened while the call was in flight. The session is left as the later
// operation set it.
var ErrLoginSuperseded = errors.New("session: login superseded")

// Options configures a Store.
type Options struct {
	// Storage persists tokens. Required.
	Storage ports.KeyValueStorage
	// Auth performs the credential exchange. Required for Login.
	Auth ports.Authenticator
	// Profiles recovers a user from a rehydrated token. Optional.
	Profiles ports.ProfileResolver
	Logger   *slog.Logger
	Metrics  statsd.Sink
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Authenticated bool
	User          *domainauth.User
}

// Store holds the current session. It is safe for concurrent use.
type Store struct {
	storage  ports.KeyValueStorage
	auth     ports.Authenticator
	profiles ports.ProfileResolver
	logger   *slog.Logger
	metrics  statsd.Sink

	// persistMu orders storage writes; it is taken before mu, never after.
	persistMu sync.Mutex

	mu      sync.RWMutex
	access  string
	refresh string
	user    *domainauth.User

	// loginSeq numbers login attempts; logoutEpoch counts logouts. A login
	// applies only if both are unchanged when it completes.
	loginSeq    uint64
	logoutEpoch uint64
	inflight    int

	// profileTried is the token for which profile recovery was last attempted.
	profileTried string
}

var _ ports.TokenSource = (*Store)(nil)

// Open creates a Store and rehydrates it from storage. A persisted access
// token makes the session authenticated immediately, without revalidation;
// the user profile stays nil until recovered.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Storage == nil {
		return nil, errors.New("session: storage is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := opts.Metrics
	if sink == nil {
		sink = statsd.Nop{}
	}

	s := &Store{
		storage:  opts.Storage,
		auth:     opts.Auth,
		profiles: opts.Profiles,
		logger:   logger.With("component", "session"),
		metrics:  sink,
	}

	access, _, err := s.storage.Get(ctx, KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", KeyAccessToken, err)
	}
	refresh, _, err := s.storage.Get(ctx, KeyRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", KeyRefreshToken, err)
	}

	s.access = access
	if access != "" {
		s.refresh = refresh
		metrics.EmitSessionTransition(s.metrics, metrics.SessionMetric{
			Transition: "rehydrate",
			Result:     metrics.ResultSuccess,
		})
	}
	return s, nil
}

// Login exchanges credentials for tokens. On success the tokens are persisted
// and held in memory before Login returns, so the next request through a
// client bound to this Store carries the new token.
//
// On failure the prior session is untouched and the error is an
// *errors.AuthenticationError, except for ErrLoginSuperseded and storage
// failures.
func (s *Store) Login(ctx context.Context, creds domainauth.Credentials) (*domainauth.User, error) {
	started := time.Now()
	creds = creds.Normalize()
	if creds.Email == "" || creds.Password == "" {
		return nil, apperrors.NewAuthentication(MissingCredentialsMessage, nil)
	}
	if s.auth == nil {
		return nil, errors.New("session: no authenticator configured")
	}

	s.mu.Lock()
	s.loginSeq++
	s.inflight++
	seq, epoch := s.loginSeq, s.logoutEpoch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()

	res, err := s.auth.Login(ctx, creds)
	if err == nil && res.AccessToken == "" {
		err = apperrors.NewAuthentication("", errors.New("response carried no access token"))
	}
	if err != nil {
		authErr := asAuthenticationError(err)
		s.emitLogin(metrics.ResultError, started, authErr)
		s.logger.InfoContext(ctx, "login rejected", "error", err)
		return nil, authErr
	}

	user := res.User
	return s.apply(ctx, seq, epoch, res.Tokens, &user, started)
}

func (s *Store) apply(
	ctx context.Context,
	seq, epoch uint64,
	tokens domainauth.Tokens,
	user *domainauth.User,
	started time.Time,
) (*domainauth.User, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if !s.current(seq, epoch) {
		return nil, s.superseded(ctx, started)
	}
	if err := s.storage.Set(ctx, map[string]string{
		KeyAccessToken:  tokens.AccessToken,
		KeyRefreshToken: tokens.RefreshToken,
	}); err != nil {
		s.emitLogin(metrics.ResultError, started, err)
		return nil, fmt.Errorf("persist session tokens: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A logout that landed during the write deletes the keys once we
	// release persistMu.
	if seq != s.loginSeq || epoch != s.logoutEpoch {
		return nil, s.superseded(ctx, started)
	}

	s.access = tokens.AccessToken
	s.refresh = tokens.RefreshToken
	s.user = user.Clone()
	s.profileTried = ""

	s.emitLogin(metrics.ResultSuccess, started, nil)
	s.logger.InfoContext(ctx, "login succeeded", "role", string(user.Role))
	return user.Clone(), nil
}

// Logout clears the session from memory and storage. It is idempotent and
// makes no network call. Any login still in flight will not apply.
//
// Memory is cleared even if storage fails; the storage error is returned.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.logoutEpoch++
	was := s.access != ""
	s.access, s.refresh, s.user = "", "", nil
	s.profileTried = ""
	s.mu.Unlock()

	result := metrics.ResultSuccess
	if !was {
		result = metrics.ResultNoop
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if s.IsAuthenticated() {
		// A newer login already replaced the persisted tokens.
		metrics.EmitSessionTransition(s.metrics, metrics.SessionMetric{Transition: "logout", Result: result})
		return nil
	}
	if err := s.storage.Delete(ctx, KeyAccessToken, KeyRefreshToken); err != nil {
		metrics.EmitSessionTransition(s.metrics, metrics.SessionMetric{
			Transition: "logout", Result: metrics.ResultError, Err: err,
		})
		return fmt.Errorf("clear session tokens: %w", err)
	}

	metrics.EmitSessionTransition(s.metrics, metrics.SessionMetric{Transition: "logout", Result: result})
	return nil
}

// IsAuthenticated reports whether an access token is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access != ""
}

// User returns a copy of the profile, or nil when unknown.
func (s *Store) User() *domainauth.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// AccessToken returns the current bearer token, or "" when logged out.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

// RefreshToken returns the persisted refresh token, or "".
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// Snapshot returns authentication state and profile read under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Authenticated: s.access != "", User: s.user.Clone()}
}

func (s *Store) current(seq, epoch uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return seq == s.loginSeq && epoch == s.logoutEpoch
}

func (s *Store) superseded(ctx context.Context, started time.Time) error {
	s.emitLogin(metrics.ResultSuperseded, started, nil)
	s.logger.InfoContext(ctx, "discarding superseded login result")
	return ErrLoginSuperseded
}

// busy reports whether a login is in flight.
func (s *Store) busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// RecoverProfile tries once per token to fill in the user of a rehydrated
// session. It never fails the caller: it reports whether a profile is known
// afterwards. A result is discarded if the token changed meanwhile.
func (s *Store) RecoverProfile(ctx context.Context) bool {
	s.mu.Lock()
	token := s.access
	if token == "" || s.user != nil || s.profiles == nil || s.profileTried == token {
		known := s.user != nil
		s.mu.Unlock()
		return known
	}
	s.profileTried = token
	s.mu.Unlock()

	user, err := s.profiles.Resolve(ctx, token)
	if err != nil || user == nil {
		s.logger.DebugContext(ctx, "profile recovery failed", "error", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.access != token {
		return s.user != nil
	}
	if s.user == nil {
		s.user = user.Clone()
	}
	return true
}

func (s *Store) emitLogin(result string, started time.Time, err error) {
	metrics.EmitSessionTransition(s.metrics, metrics.SessionMetric{
		Transition: "login",
		Result:     result,
		Duration:   time.Since(started),
		Err:        err,
	})
}

func asAuthenticationError(err error) *apperrors.AuthenticationError {
	var authErr *apperrors.AuthenticationError
	if errors.As(err, &authErr) {
		return authErr
	}
	return apperrors.NewAuthentication("", err)
}
