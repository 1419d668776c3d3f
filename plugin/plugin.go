// Package plugin holds the catalog of compiled-in plugin factories.
//
// Go plugins register a Factory under a stable entry id, usually from an init function. The
// lifecycle manager resolves the entry named by a manifest exactly once, when the plugin loads.
package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/comiknet/comiknet/manifest"
)

// Factory constructs a fresh plugin instance for the given manifest.
type Factory func(m *manifest.Manifest) (any, error)

// Catalog maps entry ids to factories.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Register adds a factory. Registering the same entry twice is a programming error.
func (c *Catalog) Register(entry string, f Factory) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.factories[entry]; exists {
		return fmt.Errorf("plugin entry %q already registered", entry)
	}
	c.factories[entry] = f
	return nil
}

// Lookup returns the factory registered for entry.
func (c *Catalog) Lookup(entry string) (Factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, ok := c.factories[entry]
	return f, ok
}

// Entries lists registered entry ids, sorted.
func (c *Catalog) Entries() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]string, 0, len(c.factories))
	for e := range c.factories {
		entries = append(entries, e)
	}
	sort.Strings(entries)
	return entries
}

var builtins = NewCatalog()

// Builtins returns the process-wide catalog that compiled-in plugins register into.
func Builtins() *Catalog {
	return builtins
}

// Register adds a factory to the built-in catalog and panics on duplicates.
func Register(entry string, f Factory) {
	if err := builtins.Register(entry, f); err != nil {
		panic(err)
	}
}
