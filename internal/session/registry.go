package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/DarwinOsingo/Afrigene/internal/observability/statsd"
	"github.com/DarwinOsingo/Afrigene/internal/ports"
)

// ErrNoSession is returned by Registry.Get when the id has no persisted
// tokens. Nothing is kept in memory for such ids.
var ErrNoSession = errors.New("session: no session for id")

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Storage  ports.StorageProvider
	Auth     ports.Authenticator
	Profiles ports.ProfileResolver
	// IdleTTL evicts stores not used for this long. Zero disables idle
	// eviction; signed-out stores are still dropped by Sweep.
	IdleTTL time.Duration
	Logger  *slog.Logger
	Metrics statsd.Sink

	// Now is injectable for tests.
	Now func() time.Time
}

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Registry maps browser session ids to their Stores. Only signed-in
// sessions are held: an id is registered when a login on it succeeds
// (Adopt) or when Get rehydrates persisted tokens for it. Each id is opened
// at most once while it stays in memory. Eviction only drops the in-memory
// Store; persisted tokens remain and the next request rehydrates them.
type Registry struct {
	opts   RegistryOptions
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	onEvict []func(id string)
	opening singleflight.Group
}

// NewRegistry validates opts and returns an empty registry.
func NewRegistry(opts RegistryOptions) (*Registry, error) {
	if opts.Storage == nil {
		return nil, errors.New("session registry: storage provider is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		opts:    opts,
		logger:  logger.With("component", "session_registry"),
		entries: make(map[string]*entry),
	}, nil
}

// NewID returns a fresh opaque session id.
func (r *Registry) NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape NewID produces.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// OnEvict registers fn to run with the id of every store the registry
// drops, whether by Sweep or Remove. Hooks run outside the registry lock.
func (r *Registry) OnEvict(fn func(id string)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.onEvict = append(r.onEvict, fn)
	r.mu.Unlock()
}

// Get returns the signed-in Store for id, rehydrating it from storage on
// first use. It returns ErrNoSession when id has no persisted tokens.
func (r *Registry) Get(ctx context.Context, id string) (*Store, error) {
	if s := r.lookup(id); s != nil {
		return s, nil
	}

	v, err, _ := r.opening.Do(id, func() (any, error) {
		if s := r.lookup(id); s != nil {
			return s, nil
		}
		s, err := r.open(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}
		if !s.IsAuthenticated() {
			return nil, ErrNoSession
		}
		r.mu.Lock()
		r.entries[id] = &entry{store: s, lastSeen: r.opts.Now()}
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	store, _ := v.(*Store)
	return store, nil
}

// Begin mints a fresh id and opens an unregistered Store for it. The caller
// logs in on the Store and calls Adopt only once the login succeeds, so a
// failed or abandoned sign-in leaves nothing behind.
func (r *Registry) Begin(ctx context.Context) (string, *Store, error) {
	id := r.NewID()
	s, err := r.open(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return id, s, nil
}

// Adopt registers s under id, replacing any store already held for it.
func (r *Registry) Adopt(id string, s *Store) {
	r.mu.Lock()
	r.entries[id] = &entry{store: s, lastSeen: r.opts.Now()}
	r.mu.Unlock()
}

// Remove drops the store for id, if held, and runs the eviction hooks.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	_, ok := r.entries[id]
	delete(r.entries, id)
	hooks := r.onEvict
	r.mu.Unlock()
	if ok {
		runHooks(hooks, id)
	}
}

func (r *Registry) open(ctx context.Context, id string) (*Store, error) {
	return Open(ctx, Options{
		Storage:  r.opts.Storage.For(id),
		Auth:     r.opts.Auth,
		Profiles: r.opts.Profiles,
		Logger:   r.opts.Logger,
		Metrics:  r.opts.Metrics,
	})
}

func (r *Registry) lookup(id string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil
	}
	e.lastSeen = r.opts.Now()
	return e.store
}

// Len reports how many stores are held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops stores that were signed out or, when IdleTTL is set, idle for
// longer than IdleTTL, and returns how many were dropped. Stores with a
// login in flight are kept.
//
// Eviction does not reach handlers that already hold the *Store. If such a
// handler logs out on the evicted Store after a later request rehydrated a
// second Store for the same id, the persisted tokens are deleted but the
// second Store stays authenticated in memory until it is swept or removed.
func (r *Registry) Sweep() int {
	var cutoff time.Time
	if r.opts.IdleTTL > 0 {
		cutoff = r.opts.Now().Add(-r.opts.IdleTTL)
	}

	r.mu.Lock()
	var evicted []string
	for id, e := range r.entries {
		if e.store.busy() {
			continue
		}
		idle := r.opts.IdleTTL > 0 && e.lastSeen.Before(cutoff)
		if idle || !e.store.IsAuthenticated() {
			delete(r.entries, id)
			evicted = append(evicted, id)
		}
	}
	hooks := r.onEvict
	r.mu.Unlock()

	for _, id := range evicted {
		runHooks(hooks, id)
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.DebugContext(ctx, "evicted sessions", "count", n, "remaining", r.Len())
			}
		}
	}
}

func runHooks(hooks []func(id string), id string) {
	for _, fn := range hooks {
		fn(id)
	}
}
