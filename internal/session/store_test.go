package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/DarwinOsingo/Afrigene/internal/adapters/memstore"
	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
	apperrors "github.com/DarwinOsingo/Afrigene/internal/errors"
	"github.com/DarwinOsingo/Afrigene/internal/mocks"
	mockauth "github.com/DarwinOsingo/Afrigene/internal/mocks/auth"
)

var researcher = domainauth.User{ID: "u1", Email: "a@b.org", Role: domainauth.RoleResearcher}

func testAccounts() map[string]mockauth.Account {
	return map[string]mockauth.Account{
		"a@b.org": {Password: "p", User: researcher},
		"admin@b.org": {
			Password: "p",
			User:     domainauth.User{ID: "u2", Email: "admin@b.org", Role: domainauth.RoleLabAdmin},
		},
	}
}

func openStore(t *testing.T, storage *memstore.Storage, auth *mockauth.FakeAuthenticator) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{Storage: storage, Auth: auth})
	require.NoError(t, err)
	return s
}

func TestOpen_RequiresStorage(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	assert.Error(t, err)
}

func TestStore_LoginSuccess(t *testing.T) {
	storage := memstore.New()
	s := openStore(t, storage, mockauth.NewFakeAuthenticator(testAccounts()))
	ctx := context.Background()

	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())

	user, err := s.Login(ctx, domainauth.Credentials{Email: "a@b.org", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleResearcher, user.Role)

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "T1", s.AccessToken())
	assert.Equal(t, "R1", s.RefreshToken())
	require.NotNil(t, s.User())
	assert.Equal(t, domainauth.RoleResearcher, s.User().Role)

	access, ok, err := storage.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "T1", access)
	refresh, _, _ := storage.Get(ctx, KeyRefreshToken)
	assert.Equal(t, "R1", refresh)
}

func TestStore_LoginReturnsCopy(t *testing.T) {
	s := openStore(t, memstore.New(), mockauth.NewFakeAuthenticator(testAccounts()))

	user, err := s.Login(context.Background(), domainauth.Credentials{Email: "a@b.org", Password: "p"})
	require.NoError(t, err)
	user.Role = domainauth.RoleLabAdmin

	assert.Equal(t, domainauth.RoleResearcher, s.User().Role)
}

func TestStore_LoginFailureLeavesStateUntouched(t *testing.T) {
	storage := memstore.New()
	s := openStore(t, storage, mockauth.NewFakeAuthenticator(testAccounts()))
	ctx := context.Background()

	_, err := s.Login(ctx, domainauth.Credentials{Email: "a@b.org", Password: "p"})
	require.NoError(t, err)

	_, err = s.Login(ctx, domainauth.Credentials{Email: "admin@b.org", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthentication(err))
	assert.Equal(t, "Invalid email or password", err.Error())

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "T1", s.AccessToken())
	assert.Equal(t, domainauth.RoleResearcher, s.User().Role)
	access, _, _ := storage.Get(ctx, KeyAccessToken)
	assert.Equal(t, "T1", access)
}

func TestStore_LoginFailureFromLoggedOut(t *testing.T) {
	auth := mockauth.NewFakeAuthenticator(nil)
	auth.LoginFunc = func(context.Context, domainauth.Credentials) (domainauth.LoginResult, error) {
		return domainauth.LoginResult{}, apperrors.NewAuthentication("invalid credentials",
			&apperrors.APIError{Status: 401, Detail: "invalid credentials"})
	}
	storage := memstore.New()
	s := openStore(t, storage, auth)

	_, err := s.Login(context.Background(), domainauth.Credentials{Email: "a@b.org", Password: "p"})
	var authErr *apperrors.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "invalid credentials", authErr.Message)
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
	assert.Zero(t, storage.Len())
}

func TestStore_LoginGenericFailureMessage(t *testing.T) {
	auth := mockauth.NewFakeAuthenticator(nil)
	auth.LoginFunc = func(context.Context, domainauth.Credentials) (domainauth.LoginResult, error) {
		return domainauth.LoginResult{}, errors.New("boom")
	}
	s := openStore(t, memstore.New(), auth)

	_, err := s.Login(context.Background(), domainauth.Credentials{Email: "a@b.org", Password: "p"})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthentication(err))
	assert.Equal(t, apperrors.DefaultLoginMessage, err.Error())
}

func TestStore_LoginRejectsEmptyAccessToken(t *testing.T) {
	auth := mockauth.NewFakeAuthenticator(nil)
	auth.LoginFunc = func(context.Context, domainauth.Credentials) (domainauth.LoginResult, error) {
		return domainauth.LoginResult{User: researcher}, nil
	}
	s := openStore(t, memstore.New(), auth)

	_, err := s.Login(context.Background(), domainauth.Credentials{Email: "a@b.org", Password: "p"})
	assert.True(t, apperrors.IsAuthentication(err))
	assert.False(t, s.IsAuthenticated())
}

func TestStore_LoginRequiresEmailAndPassword(t *testing.T) {
	auth := mockauth.NewFakeAuthenticator(testAccounts())
	s := openStore(t, memstore.New(), auth)
	ctx := context.Background()

	for _, creds := range []domainauth.Credentials{
		{Email: "", Password: "p"},
		{Email: "   ", Password: "p"},
		{Email: "a@b.org", Password: ""},
	} {
		_, err := s.Login(ctx, creds)
		require.Error(t, err)
		assert.Equal(t, MissingCredentialsMessage, err.Error())
	}
	assert.Empty(t, auth.Calls(), "no network call for incomplete credentials")
}

func TestStore_LoginPassesMFACode(t *testing.T) {
	auth := mockauth.NewFakeAuthenticator(testAccounts())
	s := openStore(t, memstore.New(), auth)

	_, err := s.Login(context.Background(), domainauth.Credentials{Email: " a@b.org ", Password: "p", MFACode: "123456"})
	require.NoError(t, err)
	calls := auth.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "a@b.org", calls[0].Email)
	assert.Equal(t, "123456", calls[0].MFACode)
}

func TestStore_LogoutIsIdempotent(t *testing.T) {
	storage := memstore.New()
	s := openStore(t, storage, mockauth.NewFakeAuthenticator(testAccounts()))
	ctx := context.Background()

	_, err := s.Login(ctx, domainauth.Credentials{Email: "a@b.org", Password: "p"})
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx))
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
	assert.Empty(t, s.AccessToken())
	assert.Empty(t, s.RefreshToken())
	assert.Zero(t, storage.Len())

	require.NoError(t, s.Logout(ctx))
	assert.False(t, s.IsAuthenticated())
	assert.Zero(t, storage.Len())
}

func TestStore_AuthenticatedOnlyBetweenLoginAndLogout(t *testing.T) {
	s := openStore(t, memstore.New(), mockauth.NewFakeAuthenticator(testAccounts()))
	ctx := context.Background()

	for range 3 {
		assert.False(t, s.IsAuthenticated())
		_, err := s.Login(ctx, domainauth.Credentials{Email: "a@b.org", Password: "p"})
		require.NoError(t, err)
		assert.True(t, s.IsAuthenticated())
		require.NoError(t, s.Logout(ctx))
	}
	assert.False(t, s.IsAuthenticated())
}

func TestStore_RehydratesOptimistically(t *testing.T) {
	storage := memstore.New()
	ctx := context.Background()
	first := openStore(t, storage, mockauth.NewFakeAuthenticator(testAccounts()))
	_, err := first.Login(ctx, domainauth.Credentials{Email: "a@b.org", Password: "p"})
	require.NoError(t, err)

	second := openStore(t, storage, nil)
	assert.True(t, second.IsAuthenticated())
	assert.Equal(t, "T1", second.AccessToken())
	assert.Equal(t, "R1", second.RefreshToken())
	assert.Nil(t, second.User(), "profile is unknown until recovered")

	snap := second.Snapshot()
	assert.True(t, snap.Authenticated)
	assert.Nil(t, snap.User)
}

func TestStore_LogoutSupersedesInFlightLogin(t *testing.T) {
	storage := memstore.New()
	auth := mockauth.NewFakeAuthenticator(testAccounts())
	auth.Gate = make(chan struct{})
	auth.Started = make(chan string, 1)
	s := openStore(t, storage, auth)
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Login(ctx, domainauth.Credentials{Email: "a@b.org", Password: "p"})
		errCh <- err
	}()

	<-auth.Started
	require.NoError(t, s.Logout(ctx))
	close(auth.Gate)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrLoginSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("login did not complete")
	}

	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
	assert.Zero(t, storage.Len(), "cleared session must not be resurrected")
}

func TestStore_NewerLoginWins(t *testing.T) {
	storage := memstore.New()
	auth := mockauth.NewFakeAuthenticator(testAccounts())
	auth.Gate = make(chan struct{})
	auth.Started = make(chan string, 2)
	s := openStore(t, storage, auth)
	ctx := context.Background()

	slowErr := make(chan error, 1)
	go func() {
		_, err := s.Login(ctx, domainauth.Credentials{Email: "a@b.org", Password: "p"})
		slowErr <- err
	}()
	<-auth.Started

	fastErr := make(chan error, 1)
	go func() {
		_, err := s.Login(ctx, domainauth.Credentials{Email: "admin@b.org", Password: "p"})
		fastErr <- err
	}()
	<-auth.Started

	// Release the newer attempt first, then the older one.
	auth.Gate <- struct{}{}
	first := <-firstDone(slowErr, fastErr)
	auth.Gate <- struct{}{}
	second := <-firstDone(slowErr, fastErr)

	results := []error{first, second}
	superseded := 0
	for _, err := range results {
		if errors.Is(err, ErrLoginSuperseded) {
			superseded++
		} else {
			require.NoError(t, err)
		}
	}
	assert.Equal(t, 1, superseded, "exactly the older attempt is discarded")
	assert.Equal(t, domainauth.RoleLabAdmin, s.User().Role)
	access, _, _ := storage.Get(ctx, KeyAccessToken)
	assert.Equal(t, s.AccessToken(), access)
}

// firstDone returns a channel yielding whichever result arrives next.
func firstDone(a, b chan error) chan error {
	out := make(chan error, 1)
	go func() {
		select {
		case err := <-a:
			out <- err
		case err := <-b:
			out <- err
		}
	}()
	return out
}

func TestStore_PersistFailureKeepsPriorState(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mocks.NewMockKeyValueStorage(ctrl)
	storage.EXPECT().Get(gomock.Any(), KeyAccessToken).Return("OLD", true, nil)
	storage.EXPECT().Get(gomock.Any(), KeyRefreshToken).Return("OLDR", true, nil)
	storage.EXPECT().Set(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	s, err := Open(context.Background(), Options{Storage: storage, Auth: mockauth.NewFakeAuthenticator(testAccounts())})
	require.NoError(t, err)

	_, err = s.Login(context.Background(), domainauth.Credentials{Email: "a@b.org", Password: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist session tokens")
	assert.Equal(t, "OLD", s.AccessToken())
	assert.Nil(t, s.User())
}

func TestStore_OpenStorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mocks.NewMockKeyValueStorage(ctrl)
	storage.EXPECT().Get(gomock.Any(), KeyAccessToken).Return("", false, errors.New("redis down"))

	_, err := Open(context.Background(), Options{Storage: storage})
	assert.Error(t, err)
}

func TestStore_LogoutClearsMemoryEvenIfStorageFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mocks.NewMockKeyValueStorage(ctrl)
	storage.EXPECT().Get(gomock.Any(), KeyAccessToken).Return("T1", true, nil)
	storage.EXPECT().Get(gomock.Any(), KeyRefreshToken).Return("R1", true, nil)
	storage.EXPECT().Delete(gomock.Any(), KeyAccessToken, KeyRefreshToken).Return(errors.New("redis down"))

	s, err := Open(context.Background(), Options{Storage: storage})
	require.NoError(t, err)

	assert.Error(t, s.Logout(context.Background()))
	assert.False(t, s.IsAuthenticated())
}

func TestStore_ReadsDoNotWaitOnLogoutStorage(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mocks.NewMockKeyValueStorage(ctrl)
	storage.EXPECT().Get(gomock.Any(), KeyAccessToken).Return("T1", true, nil)
	storage.EXPECT().Get(gomock.Any(), KeyRefreshToken).Return("R1", true, nil)

	deleting := make(chan struct{})
	release := make(chan struct{})
	storage.EXPECT().Delete(gomock.Any(), KeyAccessToken, KeyRefreshToken).DoAndReturn(
		func(context.Context, ...string) error {
			close(deleting)
			<-release
			return nil
		})

	s, err := Open(context.Background(), Options{Storage: storage})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Logout(context.Background()) }()
	<-deleting

	read := make(chan Snapshot, 1)
	go func() { read <- s.Snapshot() }()
	select {
	case snap := <-read:
		assert.False(t, snap.Authenticated)
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot blocked behind the storage delete")
	}

	close(release)
	require.NoError(t, <-done)
}

func TestStore_LogoutKeepsTokensOfLaterLogin(t *testing.T) {
	storage := memstore.New()
	ctx := context.Background()
	require.NoError(t, storage.Set(ctx, map[string]string{KeyAccessToken: "T0", KeyRefreshToken: "R0"}))
	s := openStore(t, storage, mockauth.NewFakeAuthenticator(testAccounts()))

	// Hold the write lock so Logout clears memory but cannot reach storage
	// until the login below has persisted its tokens.
	s.persistMu.Lock()
	done := make(chan error, 1)
	go func() { done <- s.Logout(ctx) }()
	require.Eventually(t, func() bool { return !s.IsAuthenticated() }, 2*time.Second, 5*time.Millisecond)

	s.mu.Lock()
	s.access, s.refresh = "T9", "R9"
	s.mu.Unlock()
	require.NoError(t, storage.Set(ctx, map[string]string{KeyAccessToken: "T9", KeyRefreshToken: "R9"}))
	s.persistMu.Unlock()

	require.NoError(t, <-done)
	tok, ok, err := storage.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "T9", tok)
}

func TestStore_RecoverProfile(t *testing.T) {
	storage := memstore.New()
	ctx := context.Background()
	require.NoError(t, storage.Set(ctx, map[string]string{KeyAccessToken: "T1", KeyRefreshToken: "R1"}))

	resolver := &mockauth.StaticProfileResolver{User: &researcher}
	s, err := Open(ctx, Options{Storage: storage, Profiles: resolver})
	require.NoError(t, err)
	require.Nil(t, s.User())

	assert.True(t, s.RecoverProfile(ctx))
	assert.Equal(t, domainauth.RoleResearcher, s.User().Role)

	// Already known: no further resolution.
	assert.True(t, s.RecoverProfile(ctx))
	assert.Equal(t, 1, resolver.CallCount())
}

func TestStore_RecoverProfileFailureIsAttemptedOncePerToken(t *testing.T) {
	storage := memstore.New()
	ctx := context.Background()
	require.NoError(t, storage.Set(ctx, map[string]string{KeyAccessToken: "opaque"}))

	resolver := &mockauth.StaticProfileResolver{Err: errors.New("not a jwt")}
	s, err := Open(ctx, Options{Storage: storage, Profiles: resolver})
	require.NoError(t, err)

	assert.False(t, s.RecoverProfile(ctx))
	assert.False(t, s.RecoverProfile(ctx))
	assert.Equal(t, 1, resolver.CallCount())
	assert.True(t, s.IsAuthenticated(), "recovery failure never logs the session out")
}

func TestStore_RecoverProfileWithoutToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockProfileResolver(ctrl)

	s, err := Open(context.Background(), Options{Storage: memstore.New(), Profiles: resolver})
	require.NoError(t, err)
	assert.False(t, s.RecoverProfile(context.Background()))
}

func TestStore_RecoverProfileDiscardedAfterTokenChange(t *testing.T) {
	storage := memstore.New()
	ctx := context.Background()
	require.NoError(t, storage.Set(ctx, map[string]string{KeyAccessToken: "T0"}))

	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockProfileResolver(ctrl)

	var s *Store
	resolver.EXPECT().Resolve(gomock.Any(), "T0").DoAndReturn(
		func(ctx context.Context, _ string) (*domainauth.User, error) {
			// A logout lands while the profile is being resolved.
			require.NoError(t, s.Logout(ctx))
			return &researcher, nil
		})

	var err error
	s, err = Open(ctx, Options{Storage: storage, Profiles: resolver})
	require.NoError(t, err)

	assert.False(t, s.RecoverProfile(ctx))
	assert.Nil(t, s.User())
	assert.False(t, s.IsAuthenticated())
}
