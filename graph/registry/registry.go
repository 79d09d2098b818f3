// Package registry provides immutable, semantic-versioned storage for
// workflow, node, edge, and tool specs, over a pluggable Storage backend
// (local filesystem or object store).
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Sentinel errors, in the teacher's graph/store idiom (errors.Is against
// a package-level var rather than a typed error hierarchy).
var (
	ErrNotFound         = errors.New("registry: entity not found")
	ErrVersionExists    = errors.New("registry: version already exists")
	ErrImmutableVersion = errors.New("registry: version is published and immutable")
	ErrBackendUnavailable = errors.New("registry: storage backend unavailable")
)

// EntityKind names one of the four spec families the registry manages.
type EntityKind string

const (
	KindWorkflow EntityKind = "workflows"
	KindNode     EntityKind = "nodes"
	KindEdge     EntityKind = "edges"
	KindTool     EntityKind = "tools"
)

// VersionRecord is one stored version of an entity's spec, alongside
// its publish state.
type VersionRecord struct {
	Version     string          `json:"version"`
	Spec        json.RawMessage `json:"spec"`
	CreatedAt   time.Time       `json:"created_at"`
	IsPublished bool            `json:"is_published"`
}

// Entry is the multi-version container for a single entity (one
// workflow, node, edge, or tool id), the unit a Storage backend
// persists as one record.
type Entry struct {
	ID       string                   `json:"id"`
	Versions map[string]VersionRecord `json:"versions"`
}

func newEntry(id string) *Entry {
	return &Entry{ID: id, Versions: make(map[string]VersionRecord)}
}

// latestVersion returns the highest semver version string in the
// entry, or "" if the entry has no versions.
func (e *Entry) latestVersion() string {
	var best *semver.Version
	var bestStr string
	for v := range e.Versions {
		sv, err := semver.NewVersion(v)
		if err != nil {
			continue
		}
		if best == nil || sv.GreaterThan(best) {
			best = sv
			bestStr = v
		}
	}
	return bestStr
}

// nextPatchVersion increments the patch component of the entry's
// latest version, starting at "1.0.0" for a brand-new entry.
func (e *Entry) nextPatchVersion() string {
	latest := e.latestVersion()
	if latest == "" {
		return "1.0.0"
	}
	sv, err := semver.NewVersion(latest)
	if err != nil {
		return "1.0.0"
	}
	return fmt.Sprintf("%d.%d.%d", sv.Major(), sv.Minor(), sv.Patch()+1)
}

// Storage is the CRUD contract a registry backend must satisfy for one
// EntityKind. Implementations must tolerate concurrent reads; writes
// are serialized per-entity by the Registry's mutex around its
// load-modify-store sequence, not by the backend itself; no backend
// here offers a compare-and-swap write.
type Storage interface {
	Load(ctx context.Context, kind EntityKind, id string) (*Entry, error)
	Store(ctx context.Context, kind EntityKind, entry *Entry) error
	Delete(ctx context.Context, kind EntityKind, id string) error
	List(ctx context.Context, kind EntityKind) ([]string, error)
}

// Registry is stateless over a Storage backend: every operation loads
// the current Entry, applies the requested mutation, and stores it
// back. Per-entity writes are serialized with an in-process mutex
// keyed by (kind, id) so two concurrent Save calls against the
// same id cannot race a lost update into the backend.
type Registry struct {
	storage Storage

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
}

// New constructs a Registry over the given Storage backend.
func New(storage Storage) *Registry {
	return &Registry{storage: storage, locks: make(map[string]*sync.Mutex)}
}

func (r *Registry) entityLock(kind EntityKind, id string) *sync.Mutex {
	key := string(kind) + "/" + id
	r.mu.Lock()
	defer r.mu.Unlock()
	lk, ok := r.locks[key]
	if !ok {
		lk = &sync.Mutex{}
		r.locks[key] = lk
	}
	return lk
}

// Save loads the existing entry (or starts a new one), determines the
// target version (explicit, or a patch-increment of the current
// latest), rejects the write if that version string already exists or
// is published, stamps CreatedAt, and stores the updated entry.
// Returns the version string actually written.
func (r *Registry) Save(ctx context.Context, kind EntityKind, id string, spec interface{}, version string) (string, error) {
	lk := r.entityLock(kind, id)
	lk.Lock()
	defer lk.Unlock()

	entry, err := r.storage.Load(ctx, kind, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}
	if entry == nil {
		entry = newEntry(id)
	}

	if version == "" {
		version = entry.nextPatchVersion()
	}
	if existing, ok := entry.Versions[version]; ok {
		if existing.IsPublished {
			return "", ErrImmutableVersion
		}
		return "", ErrVersionExists
	}

	raw, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("registry: marshal spec: %w", err)
	}

	entry.Versions[version] = VersionRecord{
		Version:   version,
		Spec:      raw,
		CreatedAt: time.Now(),
	}
	if err := r.storage.Store(ctx, kind, entry); err != nil {
		return "", err
	}
	return version, nil
}

// Get returns the spec bytes for the given version, or the
// semantically-latest version if version is "".
func (r *Registry) Get(ctx context.Context, kind EntityKind, id, version string) (json.RawMessage, string, error) {
	entry, err := r.storage.Load(ctx, kind, id)
	if err != nil {
		return nil, "", err
	}
	if version == "" {
		version = entry.latestVersion()
		if version == "" {
			return nil, "", ErrNotFound
		}
	}
	rec, ok := entry.Versions[version]
	if !ok {
		return nil, "", ErrNotFound
	}
	return rec.Spec, version, nil
}

// Publish flips a version's IsPublished flag to true. Once published,
// that version can never again be overwritten by Save.
func (r *Registry) Publish(ctx context.Context, kind EntityKind, id, version string) error {
	lk := r.entityLock(kind, id)
	lk.Lock()
	defer lk.Unlock()

	entry, err := r.storage.Load(ctx, kind, id)
	if err != nil {
		return err
	}
	rec, ok := entry.Versions[version]
	if !ok {
		return ErrNotFound
	}
	rec.IsPublished = true
	entry.Versions[version] = rec
	return r.storage.Store(ctx, kind, entry)
}

// Delete removes an entity entirely, all versions included.
func (r *Registry) Delete(ctx context.Context, kind EntityKind, id string) error {
	lk := r.entityLock(kind, id)
	lk.Lock()
	defer lk.Unlock()
	return r.storage.Delete(ctx, kind, id)
}

// List returns every entity id stored for the given kind.
func (r *Registry) List(ctx context.Context, kind EntityKind) ([]string, error) {
	return r.storage.List(ctx, kind)
}
