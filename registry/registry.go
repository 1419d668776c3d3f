// Package registry maps source identifiers to the single plugin instance serving them.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/comiknet/comiknet/manifest"
	"github.com/comiknet/comiknet/source"
)

var (
	ErrDuplicateSource = errors.New("source already registered")
	ErrDuplicateName   = errors.New("plugin name already registered")
)

// Record is a loaded plugin: its manifest and live instance.
//
// Calls into the instance go through Acquire so the instance cannot be torn down while a call is
// in flight.
type Record struct {
	Manifest *manifest.Manifest
	Instance any
	Dir      string

	guard  sync.RWMutex
	closed bool
}

// NewRecord bundles a manifest and instance.
func NewRecord(m *manifest.Manifest, instance any, dir string) *Record {
	return &Record{Manifest: m, Instance: instance, Dir: dir}
}

// Name returns the plugin name from the manifest.
func (r *Record) Name() string {
	return r.Manifest.Name
}

// Acquire pins the record for a call. It returns false once the record has been retired.
// Every successful Acquire must be paired with Release.
func (r *Record) Acquire() bool {
	r.guard.RLock()
	if r.closed {
		r.guard.RUnlock()
		return false
	}
	return true
}

// Release ends a call started with Acquire.
func (r *Record) Release() {
	r.guard.RUnlock()
}

// Retire waits for in-flight calls to drain and marks the record unusable.
// It reports false if the record was already retired.
func (r *Record) Retire() bool {
	r.guard.Lock()
	defer r.guard.Unlock()

	if r.closed {
		return false
	}
	r.closed = true
	return true
}

// Registry is safe for concurrent use. Writers are expected only during startup and teardown.
type Registry struct {
	mu      sync.RWMutex
	sources map[source.ID]*Record
	byName  map[string]*Record
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		sources: make(map[source.ID]*Record),
		byName:  make(map[string]*Record),
	}
}

// Resolve returns the record owning id.
func (r *Registry) Resolve(id source.ID) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.sources[id]
	return rec, ok
}

// Has reports whether id is currently registered.
func (r *Registry) Has(id source.ID) bool {
	_, ok := r.Resolve(id)
	return ok
}

// Lookup returns the record of the plugin called name.
func (r *Registry) Lookup(name string) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byName[name]
	return rec, ok
}

// Conflicts returns the ids among ids that are already owned by a registered plugin.
func (r *Registry) Conflicts(ids []source.ID) []source.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var taken []source.ID
	for _, id := range ids {
		if _, ok := r.sources[id]; ok {
			taken = append(taken, id)
		}
	}
	return taken
}

// Register inserts rec and reserves all of its sources at once.
// Nothing is inserted if any source or the plugin name is already taken.
func (r *Registry) Register(rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[rec.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, rec.Name())
	}

	for _, id := range rec.Manifest.Sources {
		if owner, ok := r.sources[id]; ok {
			return fmt.Errorf("%w: %s is owned by %s", ErrDuplicateSource, id, owner.Name())
		}
	}

	for _, id := range rec.Manifest.Sources {
		r.sources[id] = rec
	}
	r.byName[rec.Name()] = rec
	return nil
}

// Remove drops the plugin called name and frees its sources.
func (r *Registry) Remove(name string) (*Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byName[name]
	if !ok {
		return nil, false
	}

	for _, id := range rec.Manifest.Sources {
		if r.sources[id] == rec {
			delete(r.sources, id)
		}
	}
	delete(r.byName, name)
	return rec, true
}

// Sources returns every registered source id, sorted.
func (r *Registry) Sources() []source.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]source.ID, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Records returns every registered plugin, sorted by name.
func (r *Registry) Records() []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := make([]*Record, 0, len(r.byName))
	for _, rec := range r.byName {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name() < recs[j].Name() })
	return recs
}
