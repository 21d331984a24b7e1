package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/plexusml/plexus/internal/component"
	"github.com/plexusml/plexus/internal/fingerprint"
)

// WriteScope is a private staging area for one resource write. The caller
// writes arbitrary files into Dir, then either Commit publishes them
// atomically under a fingerprint or Discard drops them. Exactly one of the
// two must be called; both are safe to call again after that.
type WriteScope struct {
	store    *Store
	resource string
	dir      string

	release  *sync.Mutex
	finished sync.Once
}

// BeginWrite allocates a staging area for the named resource and takes the
// per-resource write lock, serializing concurrent writers of the same
// name. Writers of distinct names proceed independently.
func (s *Store) BeginWrite(resource string) (*WriteScope, error) {
	if resource == "" {
		return nil, fmt.Errorf("begin write: resource name must not be empty")
	}

	lock := s.resourceLock(resource)
	lock.Lock()

	dir, err := os.MkdirTemp(filepath.Join(s.root, stagingDir), resource+"-*")
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("allocating staging area for resource '%s': %w", resource, err)
	}

	return &WriteScope{store: s, resource: resource, dir: dir, release: lock}, nil
}

// Dir returns the staging directory.
func (w *WriteScope) Dir() string {
	return w.dir
}

// Resource returns the unpublished resource this scope writes.
func (w *WriteScope) Resource() component.Resource {
	return component.Resource{Name: w.resource}
}

// Commit atomically publishes the staged content at its final,
// fingerprint-addressed location and records the cache entry with the
// given output descriptor. If an entry for the fingerprint already exists
// the staged content is discarded and the existing entry wins: at most one
// artifact is ever produced per cache key.
func (w *WriteScope) Commit(key fingerprint.Key, output json.RawMessage) (component.Resource, error) {
	res := component.Resource{Name: w.resource, Fingerprint: string(key)}

	var commitErr error
	w.finished.Do(func() {
		defer w.release.Unlock()

		w.store.mu.Lock()
		_, exists := w.store.entries[key]
		w.store.mu.Unlock()
		if exists {
			_ = os.RemoveAll(w.dir)
			return
		}

		relDir := filepath.Join(resourcesDir, w.resource, key.Short())
		finalDir := filepath.Join(w.store.root, relDir)
		if err := os.MkdirAll(filepath.Dir(finalDir), 0o755); err != nil {
			_ = os.RemoveAll(w.dir)
			commitErr = &PublishError{Resource: w.resource, Err: err}
			return
		}
		// A leftover at the final path can only be debris from a crashed
		// rename that never reached the manifest; replace it.
		_ = os.RemoveAll(finalDir)
		if err := os.Rename(w.dir, finalDir); err != nil {
			_ = os.RemoveAll(w.dir)
			commitErr = &PublishError{Resource: w.resource, Err: err}
			return
		}

		w.store.mu.Lock()
		defer w.store.mu.Unlock()
		w.store.entries[key] = &Entry{
			Fingerprint: key,
			Resource:    w.resource,
			Dir:         relDir,
			Output:      output,
		}
		if err := w.store.saveManifestLocked(); err != nil {
			// Without a manifest entry the artifact is invisible; drop it
			// so the failed commit leaves no trace.
			delete(w.store.entries, key)
			_ = os.RemoveAll(finalDir)
			commitErr = &PublishError{Resource: w.resource, Err: err}
		}
	})

	if commitErr != nil {
		return component.Resource{}, commitErr
	}
	return res, nil
}

// Discard drops the staged content and releases the resource lock. It is
// the guaranteed-cleanup path for failures and cancellations and never
// makes anything visible.
func (w *WriteScope) Discard() {
	w.finished.Do(func() {
		defer w.release.Unlock()
		_ = os.RemoveAll(w.dir)
	})
}
