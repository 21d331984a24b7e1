package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/plexusml/plexus/internal/component"
	"github.com/plexusml/plexus/internal/fingerprint"
)

const (
	stagingDir   = "staging"
	resourcesDir = "resources"
	manifestName = "manifest.json"
)

// Entry is one committed cache record: the fingerprint it is addressed by,
// the resource (if the producing node declared one), where the artifact
// lives relative to the store root, and the node's serialized output
// descriptor. Entries are append-only and never mutated.
type Entry struct {
	Fingerprint fingerprint.Key `json:"fingerprint"`
	Resource    string          `json:"resource,omitempty"`
	Dir         string          `json:"dir,omitempty"`
	Output      json.RawMessage `json:"output,omitempty"`
}

// manifest is the durable on-disk index.
type manifest struct {
	Entries map[fingerprint.Key]*Entry `json:"entries"`
}

// Store is a filesystem-backed artifact store rooted at a single
// directory. It is safe for concurrent use within a process; across
// processes the atomic commit keeps independent runs from observing each
// other's half-written artifacts.
type Store struct {
	root string

	mu      sync.Mutex
	entries map[fingerprint.Key]*Entry
	locks   map[string]*sync.Mutex
}

// Open opens (or initializes) a store at root, reloads the manifest, and
// sweeps staging leftovers from interrupted runs.
func Open(root string) (*Store, error) {
	for _, dir := range []string{root, filepath.Join(root, stagingDir), filepath.Join(root, resourcesDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("initializing store at %s: %w", root, err)
		}
	}

	s := &Store{
		root:    root,
		entries: make(map[fingerprint.Key]*Entry),
		locks:   make(map[string]*sync.Mutex),
	}

	data, err := os.ReadFile(filepath.Join(root, manifestName))
	switch {
	case os.IsNotExist(err):
		// Fresh store.
	case err != nil:
		return nil, fmt.Errorf("reading store manifest: %w", err)
	default:
		var m manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing store manifest: %w", err)
		}
		if m.Entries != nil {
			s.entries = m.Entries
		}
	}

	// Anything still in staging was never committed and is safe to drop.
	leftovers, err := os.ReadDir(filepath.Join(root, stagingDir))
	if err != nil {
		return nil, fmt.Errorf("sweeping store staging area: %w", err)
	}
	for _, d := range leftovers {
		_ = os.RemoveAll(filepath.Join(root, stagingDir, d.Name()))
	}

	return s, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Exists reports whether a committed entry exists for the fingerprint.
// It is the cache-hit test and never reads artifact content.
func (s *Store) Exists(key fingerprint.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Entry returns the committed entry for a fingerprint.
func (s *Store) Entry(key fingerprint.Key) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok
}

// Entries returns all committed entries sorted by fingerprint.
func (s *Store) Entries() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fingerprint < out[j].Fingerprint })
	return out
}

// Read returns the directory holding the resource's committed content.
// Unpublished resources and evicted entries report ErrNotFound; callers
// recover by recomputing.
func (s *Store) Read(res component.Resource) (string, error) {
	if !res.Published() {
		return "", fmt.Errorf("resource '%s' is unpublished: %w", res.Name, ErrNotFound)
	}

	s.mu.Lock()
	entry, ok := s.entries[fingerprint.Key(res.Fingerprint)]
	s.mu.Unlock()
	if !ok || entry.Dir == "" {
		return "", fmt.Errorf("resource '%s' (fingerprint %s): %w", res.Name, fingerprint.Key(res.Fingerprint).Short(), ErrNotFound)
	}

	dir := filepath.Join(s.root, entry.Dir)
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("resource '%s' content missing at %s: %w", res.Name, entry.Dir, ErrNotFound)
	}
	return dir, nil
}

// PutEntry records a descriptor-only cache entry for a node that produced
// no resource. Existing entries win: the first successful computation for
// a fingerprint is authoritative.
func (s *Store) PutEntry(key fingerprint.Key, output json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[key]; exists {
		return nil
	}
	s.entries[key] = &Entry{Fingerprint: key, Output: output}
	return s.saveManifestLocked()
}

// resourceLock returns the mutex serializing writers of one resource name.
func (s *Store) resourceLock(resource string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[resource]
	if !ok {
		l = &sync.Mutex{}
		s.locks[resource] = l
	}
	return l
}

// saveManifestLocked atomically replaces the on-disk manifest. Callers
// hold s.mu.
func (s *Store) saveManifestLocked() error {
	data, err := json.MarshalIndent(&manifest{Entries: s.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling store manifest: %w", err)
	}

	path := filepath.Join(s.root, manifestName)
	tmp, err := os.CreateTemp(s.root, manifestName+".tmp.*")
	if err != nil {
		return fmt.Errorf("writing store manifest: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing store manifest: %w", err)
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing store manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing store manifest: %w", err)
	}
	return nil
}
