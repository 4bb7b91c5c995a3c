package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/DarwinOsingo/Afrigene/internal/adapters/memstore"
	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
	"github.com/DarwinOsingo/Afrigene/internal/mocks"
	mockauth "github.com/DarwinOsingo/Afrigene/internal/mocks/auth"
	"github.com/DarwinOsingo/Afrigene/internal/view"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNewRegistry_RequiresStorage(t *testing.T) {
	_, err := NewRegistry(RegistryOptions{})
	assert.Error(t, err)
}

// signIn opens a store for a fresh id, logs in and adopts it.
func signIn(t *testing.T, reg *Registry, email string) (string, *Store) {
	t.Helper()
	ctx := context.Background()
	id, s, err := reg.Begin(ctx)
	require.NoError(t, err)
	_, err = s.Login(ctx, domainauth.Credentials{Email: email, Password: "p"})
	require.NoError(t, err)
	reg.Adopt(id, s)
	return id, s
}

func TestRegistry_SameStoreForSameID(t *testing.T) {
	reg, err := NewRegistry(RegistryOptions{
		Storage: memstore.NewProvider(),
		Auth:    mockauth.NewFakeAuthenticator(testAccounts()),
	})
	require.NoError(t, err)
	ctx := context.Background()

	id, signed := signIn(t, reg, "a@b.org")
	assert.True(t, ValidID(id))

	a, err := reg.Get(ctx, id)
	require.NoError(t, err)
	b, err := reg.Get(ctx, id)
	require.NoError(t, err)
	assert.Same(t, signed, a)
	assert.Same(t, a, b)

	otherID, other := signIn(t, reg, "admin@b.org")
	assert.NotEqual(t, id, otherID)
	assert.NotSame(t, a, other)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_UnknownIDsAreNotKept(t *testing.T) {
	reg, err := NewRegistry(RegistryOptions{Storage: memstore.NewProvider()})
	require.NoError(t, err)

	for range 500 {
		s, getErr := reg.Get(context.Background(), reg.NewID())
		assert.ErrorIs(t, getErr, ErrNoSession)
		assert.Nil(t, s)
	}
	assert.Zero(t, reg.Len())
}

func TestRegistry_BeginRegistersNothingUntilAdopted(t *testing.T) {
	reg, err := NewRegistry(RegistryOptions{
		Storage: memstore.NewProvider(),
		Auth:    mockauth.NewFakeAuthenticator(testAccounts()),
	})
	require.NoError(t, err)
	ctx := context.Background()

	id, s, err := reg.Begin(ctx)
	require.NoError(t, err)
	assert.True(t, ValidID(id))
	_, err = s.Login(ctx, domainauth.Credentials{Email: "a@b.org", Password: "wrong"})
	require.Error(t, err)
	assert.Zero(t, reg.Len())

	_, err = reg.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = s.Login(ctx, domainauth.Credentials{Email: "a@b.org", Password: "p"})
	require.NoError(t, err)
	reg.Adopt(id, s)
	got, err := reg.Get(ctx, id)
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestRegistry_OpensOnceUnderConcurrency(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := memstore.New()
	require.NoError(t, storage.Set(context.Background(), map[string]string{KeyAccessToken: "T1"}))
	provider := mocks.NewMockStorageProvider(ctrl)
	provider.EXPECT().For("sid").Return(storage).Times(1)

	reg, err := NewRegistry(RegistryOptions{Storage: provider})
	require.NoError(t, err)

	var wg sync.WaitGroup
	stores := make([]*Store, 16)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, getErr := reg.Get(context.Background(), "sid")
			assert.NoError(t, getErr)
			stores[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range stores {
		assert.Same(t, stores[0], s)
	}
}

func TestRegistry_SweepRehydratesFromStorage(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	reg, err := NewRegistry(RegistryOptions{
		Storage: memstore.NewProvider(),
		Auth:    mockauth.NewFakeAuthenticator(testAccounts()),
		IdleTTL: 10 * time.Minute,
		Now:     clock.Now,
	})
	require.NoError(t, err)
	ctx := context.Background()

	id, s := signIn(t, reg, "a@b.org")

	clock.Advance(5 * time.Minute)
	assert.Zero(t, reg.Sweep())

	clock.Advance(11 * time.Minute)
	assert.Equal(t, 1, reg.Sweep())
	assert.Zero(t, reg.Len())

	again, err := reg.Get(ctx, id)
	require.NoError(t, err)
	assert.NotSame(t, s, again)
	assert.True(t, again.IsAuthenticated())
	assert.Equal(t, "T1", again.AccessToken())
	assert.Nil(t, again.User())
}

func TestRegistry_SweepKeepsBusyStores(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	auth := mockauth.NewFakeAuthenticator(testAccounts())
	reg, err := NewRegistry(RegistryOptions{
		Storage: memstore.NewProvider(),
		Auth:    auth,
		IdleTTL: time.Minute,
		Now:     clock.Now,
	})
	require.NoError(t, err)

	_, s := signIn(t, reg, "a@b.org")
	auth.Gate = make(chan struct{})
	auth.Started = make(chan string, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Login(context.Background(), domainauth.Credentials{Email: "admin@b.org", Password: "p"})
	}()
	<-auth.Started

	clock.Advance(time.Hour)
	assert.Zero(t, reg.Sweep())

	close(auth.Gate)
	<-done
	assert.Equal(t, 1, reg.Sweep())
}

func TestRegistry_SweepDropsSignedOutStores(t *testing.T) {
	reg, err := NewRegistry(RegistryOptions{
		Storage: memstore.NewProvider(),
		Auth:    mockauth.NewFakeAuthenticator(testAccounts()),
	})
	require.NoError(t, err)

	_, s := signIn(t, reg, "a@b.org")
	signIn(t, reg, "admin@b.org")
	assert.Zero(t, reg.Sweep(), "idle eviction is off without a TTL")

	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_EvictionRunsHooks(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	reg, err := NewRegistry(RegistryOptions{
		Storage: memstore.NewProvider(),
		Auth:    mockauth.NewFakeAuthenticator(testAccounts()),
		IdleTTL: time.Minute,
		Now:     clock.Now,
	})
	require.NoError(t, err)

	tracker := view.NewTracker()
	reg.OnEvict(func(id string) { tracker.Forget(id + ":dashboard") })

	idle, _ := signIn(t, reg, "a@b.org")
	removed, _ := signIn(t, reg, "admin@b.org")
	tracker.Begin(idle + ":dashboard")
	tracker.Begin(removed + ":dashboard")
	require.Equal(t, 2, tracker.Len())

	reg.Remove(removed)
	assert.Equal(t, 1, tracker.Len())
	reg.Remove(removed)

	clock.Advance(time.Hour)
	assert.Equal(t, 1, reg.Sweep())
	assert.Zero(t, tracker.Len())
	assert.Zero(t, reg.Len())
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("../../etc/passwd"))
	assert.False(t, ValidID("6ba7b8109dad11d180b400c04fd430c8"))
}
