package ports

import "context"

// KeyValueStorage is durable string storage scoped to one session.
// Keys are fixed names such as "access_token"; values are opaque.
type KeyValueStorage interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes all values together; either all are stored or none are.
	Set(ctx context.Context, values map[string]string) error
	// Delete removes the keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// StorageProvider hands out the storage scoped to one session id.
type StorageProvider interface {
	For(sessionID string) KeyValueStorage
}
