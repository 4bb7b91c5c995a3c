// Package memstore provides process-local session token storage.
// Values do not survive a restart; it backs development mode and tests.
package memstore

import (
	"context"
	"sync"

	"github.com/DarwinOsingo/Afrigene/internal/ports"
)

// Storage is a map guarded by a mutex.
type Storage struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ ports.KeyValueStorage = (*Storage)(nil)

// New returns empty storage.
func New() *Storage {
	return &Storage{data: make(map[string]string)}
}

func (s *Storage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *Storage) Set(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.data[k] = v
	}
	return nil
}

func (s *Storage) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

// Len reports how many keys are stored.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Provider hands out one Storage per session id. A session's Storage is
// only created by its first Set and is dropped once Delete empties it, so
// looking up unknown ids allocates nothing.
type Provider struct {
	mu       sync.Mutex
	sessions map[string]*Storage
}

var _ ports.StorageProvider = (*Provider)(nil)

// NewProvider returns an empty provider.
func NewProvider() *Provider {
	return &Provider{sessions: make(map[string]*Storage)}
}

// For returns the storage for sessionID.
//
//nolint:ireturn // callers only need the port.
func (p *Provider) For(sessionID string) ports.KeyValueStorage {
	return &scoped{p: p, id: sessionID}
}

// Len reports how many sessions hold at least one key.
func (p *Provider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

type scoped struct {
	p  *Provider
	id string
}

func (s *scoped) Get(ctx context.Context, key string) (string, bool, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	st, ok := s.p.sessions[s.id]
	if !ok {
		return "", false, nil
	}
	return st.Get(ctx, key)
}

func (s *scoped) Set(ctx context.Context, values map[string]string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	st, ok := s.p.sessions[s.id]
	if !ok {
		st = New()
		s.p.sessions[s.id] = st
	}
	return st.Set(ctx, values)
}

func (s *scoped) Delete(ctx context.Context, keys ...string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	st, ok := s.p.sessions[s.id]
	if !ok {
		return nil
	}
	if err := st.Delete(ctx, keys...); err != nil {
		return err
	}
	if st.Len() == 0 {
		delete(s.p.sessions, s.id)
	}
	return nil
}
