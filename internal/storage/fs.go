package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

var keyRe = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// FS implements KV with one <key>.json file per key in a data directory.
type FS struct {
	root string // absolute path to data directory

	mu      sync.Mutex
	written map[string]string // key -> checksum of our own last write
}

// NewFS creates a new FS store rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs, written: make(map[string]string)}, nil
}

// Root returns the absolute data directory.
func (f *FS) Root() string { return f.root }

// pathFor maps a key to its file, rejecting anything that is not a plain key.
func (f *FS) pathFor(key string) (string, error) {
	if !keyRe.MatchString(key) {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	abs := filepath.Join(f.root, key+".json")
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: key escapes data root: %s", key)
	}
	return abs, nil
}

// KeyForPath returns the key stored at an absolute path inside the root, if any.
func (f *FS) KeyForPath(p string) (string, bool) {
	if filepath.Dir(p) != f.root || !strings.HasSuffix(p, ".json") {
		return "", false
	}
	key := strings.TrimSuffix(filepath.Base(p), ".json")
	if !keyRe.MatchString(key) {
		return "", false
	}
	return key, true
}

// Load reads the payload for key.
func (f *FS) Load(key string) ([]byte, bool, error) {
	abs, err := f.pathFor(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, true, nil
}

// Save atomically writes content: tmp file → fsync → rename.
func (f *FS) Save(key string, content []byte) error {
	abs, err := f.pathFor(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".cradle-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true

	f.mu.Lock()
	f.written[key] = digest(content)
	f.mu.Unlock()
	return nil
}

// Delete removes the file for key.
func (f *FS) Delete(key string) error {
	abs, err := f.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	f.mu.Lock()
	delete(f.written, key)
	f.mu.Unlock()
	return nil
}

// ExternallyModified reports whether the file for key differs from the last
// content this process wrote. A missing file counts as modified when we had
// written one.
func (f *FS) ExternallyModified(key string) bool {
	data, ok, err := f.Load(key)
	f.mu.Lock()
	last, wrote := f.written[key]
	f.mu.Unlock()
	if err != nil {
		return false
	}
	if !ok {
		return wrote
	}
	return digest(data) != last
}

// Acknowledge records the current on-disk content of key as seen, so the
// watcher does not report it again.
func (f *FS) Acknowledge(key string) {
	data, ok, err := f.Load(key)
	if err != nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !ok {
		delete(f.written, key)
		return
	}
	f.written[key] = digest(data)
}

var _ KV = (*FS)(nil)
