// Package filestore persists session tokens as small JSON documents on disk.
// The CLI keeps one file in the user's config directory; the portal keeps one
// file per browser session under a directory.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/DarwinOsingo/Afrigene/internal/ports"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

// File is KeyValueStorage over a single JSON object file.
// Writes go to a temp file that is renamed over the original.
type File struct {
	path string
	mu   sync.Mutex
}

var _ ports.KeyValueStorage = (*File)(nil)

// New returns storage at path. The file and its directory are created on first write.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.read()
	if err != nil {
		return err
	}
	for k, v := range values {
		data[k] = v
	}
	return f.write(data)
}

func (f *File) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.read()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := data[k]; ok {
			delete(data, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if len(data) == 0 {
		if rmErr := os.Remove(f.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", f.path, rmErr)
		}
		return nil
	}
	return f.write(data)
}

func (f *File) read() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	data := map[string]string{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return data, nil
}

func (f *File) write(data map[string]string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ErrInvalidSessionID is returned when a session id cannot be used as a file name.
var ErrInvalidSessionID = errors.New("filestore: invalid session id")

// Dir hands out one File per session id under a directory.
type Dir struct {
	root  string
	mu    sync.Mutex
	files map[string]*File
}

var _ ports.StorageProvider = (*Dir)(nil)

// NewDir returns a provider rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root, files: make(map[string]*File)}
}

// For returns the file storage for sessionID. Ids that are not plain tokens
// yield storage whose operations fail with ErrInvalidSessionID.
//
//nolint:ireturn // invalid ids map to a failing implementation.
func (d *Dir) For(sessionID string) ports.KeyValueStorage {
	if !sessionIDPattern.MatchString(sessionID) {
		return invalid{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.files[sessionID]
	if !ok {
		f = New(filepath.Join(d.root, sessionID+".json"))
		d.files[sessionID] = f
	}
	return f
}

type invalid struct{}

func (invalid) Get(context.Context, string) (string, bool, error) {
	return "", false, ErrInvalidSessionID
}
func (invalid) Set(context.Context, map[string]string) error { return ErrInvalidSessionID }
func (invalid) Delete(context.Context, ...string) error      { return ErrInvalidSessionID }
