// Package lifecycle discovers plugin directories, loads each plugin through a fixed sequence of
// checks and registers the survivors.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/comiknet/comiknet/capability"
	"github.com/comiknet/comiknet/constant"
	"github.com/comiknet/comiknet/filesystem"
	"github.com/comiknet/comiknet/log"
	"github.com/comiknet/comiknet/manifest"
	"github.com/comiknet/comiknet/plugin"
	"github.com/comiknet/comiknet/registry"
	"github.com/comiknet/comiknet/source"
	"github.com/comiknet/comiknet/version"
)

// Instantiator builds a plugin instance for a manifest whose runtime is not compiled in.
// dir is the absolute plugin directory.
type Instantiator func(ctx context.Context, m *manifest.Manifest, dir string) (any, error)

// Options configure a Manager.
type Options struct {
	// Dir is the directory scanned by LoadAll.
	Dir string

	// Protocol is the host protocol version. Defaults to constant.Protocol.
	Protocol string

	// Strict aborts LoadAll on the first rejected directory.
	Strict bool

	// ReservedPrefix marks directories that are never scanned. Defaults to constant.ReservedPrefix.
	ReservedPrefix string

	// Catalog resolves go runtime entries. Defaults to plugin.Builtins().
	Catalog *plugin.Catalog

	// Scripts instantiates lua runtime plugins. Lua plugins are rejected when nil.
	Scripts Instantiator
}

// Manager owns loading and unloading of plugins into a registry.
type Manager struct {
	options  Options
	registry *registry.Registry

	mu       sync.Mutex
	outcomes []Outcome
}

// New returns a manager that registers into reg.
func New(reg *registry.Registry, options Options) *Manager {
	if options.Protocol == "" {
		options.Protocol = constant.Protocol
	}
	if options.ReservedPrefix == "" {
		options.ReservedPrefix = constant.ReservedPrefix
	}
	if options.Catalog == nil {
		options.Catalog = plugin.Builtins()
	}

	return &Manager{options: options, registry: reg}
}

// LoadAll scans the plugin directory and loads every eligible subdirectory.
// Rejections are logged and skipped, except in strict mode where the first one is returned.
func (m *Manager) LoadAll(ctx context.Context) error {
	entries, err := filesystem.API().ReadDir(m.options.Dir)
	if err != nil {
		return fmt.Errorf("scan plugins in %s: %w", m.options.Dir, err)
	}

	m.mu.Lock()
	m.outcomes = nil
	m.mu.Unlock()

	var loaded int
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), m.options.ReservedPrefix) {
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if err := m.Load(ctx, entry.Name()); err != nil {
			if m.options.Strict {
				return err
			}
			continue
		}
		loaded++
	}

	log.Infof("loaded %d plugin(s) from %s", loaded, m.options.Dir)
	return nil
}

// Load processes a single plugin directory, given relative to the plugin root.
// The returned error is always a *RejectionError.
func (m *Manager) Load(ctx context.Context, dir string) error {
	outcome := m.load(ctx, dir)

	m.mu.Lock()
	m.outcomes = append(m.outcomes, outcome)
	m.mu.Unlock()

	logger := log.WithFields(log.Fields{"dir": dir, "plugin": outcome.Name})
	if outcome.Err != nil {
		logger.WithError(outcome.Err).Warn("plugin rejected")
		return outcome.Err
	}

	logger.Info("plugin registered")
	return nil
}

func (m *Manager) load(ctx context.Context, dir string) Outcome {
	outcome := Outcome{Dir: dir, State: Discovered}
	reject := func(err error) Outcome {
		outcome.Err = &RejectionError{Dir: dir, State: outcome.State, Err: err}
		outcome.State = Rejected
		return outcome
	}

	path := filepath.Join(m.options.Dir, dir)
	man, err := manifest.Load(filepath.Join(path, constant.ManifestFile))
	if err != nil {
		return reject(err)
	}
	outcome.Name = man.Name
	outcome.State = ManifestParsed

	if _, ok := m.registry.Lookup(man.Name); ok {
		return reject(fmt.Errorf("%w: %s", ErrAlreadyLoaded, man.Name))
	}

	compatible, err := version.Compatible(m.options.Protocol, man.Protocol)
	if err != nil {
		return reject(fmt.Errorf("%w: %w", ErrIncompatibleProtocol, err))
	}
	if !compatible {
		return reject(fmt.Errorf("%w: plugin targets %s, host implements %s", ErrIncompatibleProtocol, man.Protocol, m.options.Protocol))
	}
	outcome.State = VersionChecked

	if taken := m.registry.Conflicts(man.Sources); len(taken) > 0 {
		return reject(fmt.Errorf("%w: %s already registered", ErrSourceConflict, strings.Join(taken, ", ")))
	}
	outcome.State = SourcesReserved

	instance, err := m.instantiate(ctx, man, path)
	if err != nil {
		return reject(err)
	}
	outcome.State = Instantiated

	p := instance.(source.Plugin)
	if err := initialize(ctx, p); err != nil {
		return reject(err)
	}
	outcome.State = Initialized

	if err := m.registry.Register(registry.NewRecord(man, instance, path)); err != nil {
		// the plugin initialized, so it gets a chance to release what it acquired
		m.unload(ctx, man.Name, p)
		if errors.Is(err, registry.ErrDuplicateName) {
			return reject(fmt.Errorf("%w: %w", ErrAlreadyLoaded, err))
		}
		return reject(fmt.Errorf("%w: %w", ErrSourceConflict, err))
	}
	outcome.State = Registered

	return outcome
}

func (m *Manager) instantiate(ctx context.Context, man *manifest.Manifest, path string) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: constructor panicked: %v", ErrNotAPlugin, r)
		}
	}()

	switch man.Runtime {
	case constant.RuntimeLua:
		if m.options.Scripts == nil {
			return nil, fmt.Errorf("%w: no script runtime available", ErrNotAPlugin)
		}
		instance, err = m.options.Scripts(ctx, man, path)
	default:
		factory, ok := m.options.Catalog.Lookup(man.Entry)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotAPlugin, missingEntry(m.options.Catalog, man.Entry))
		}
		instance, err = factory(man)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAPlugin, err)
	}

	if _, ok := instance.(source.Plugin); !ok {
		return nil, fmt.Errorf("%w: %T has no lifecycle hooks", ErrNotAPlugin, instance)
	}

	if !capability.Supports(instance, capability.Listing) {
		return nil, fmt.Errorf("%w: %T does not implement listing", ErrNotAPlugin, instance)
	}

	return instance, nil
}

func initialize(ctx context.Context, p source.Plugin) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrInitializationFailed, r)
		}
	}()

	ok, err := p.OnLoad(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("%w: %w", ErrInitializationFailed, err)
	case !ok:
		return fmt.Errorf("%w: declined to load", ErrInitializationFailed)
	}
	return nil
}

// Unload removes the plugin called name and calls its unload hook once in-flight calls finish.
// Hook failures are logged and otherwise ignored.
func (m *Manager) Unload(ctx context.Context, name string) bool {
	rec, ok := m.registry.Remove(name)
	if !ok {
		return false
	}

	if !rec.Retire() {
		return true
	}

	m.unload(ctx, name, rec.Instance.(source.Plugin))
	return true
}

// UnloadAll unloads every registered plugin.
func (m *Manager) UnloadAll(ctx context.Context) {
	for _, rec := range m.registry.Records() {
		m.Unload(ctx, rec.Name())
	}
}

func (m *Manager) unload(ctx context.Context, name string, p source.Plugin) {
	logger := log.WithFields(log.Fields{"plugin": name})

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("unload hook panicked: %v", r)
		}
	}()

	if err := p.OnUnload(ctx); err != nil {
		logger.WithError(err).Warn("unload hook failed")
		return
	}
	logger.Debug("plugin unloaded")
}

// Outcomes returns the results of the most recent scan plus any explicit loads since.
func (m *Manager) Outcomes() []Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Outcome(nil), m.outcomes...)
}

// Protocol returns the host protocol version the manager checks plugins against.
func (m *Manager) Protocol() string {
	return m.options.Protocol
}

// missingEntry explains why a go runtime entry could not be resolved.
func missingEntry(catalog *plugin.Catalog, entry string) string {
	entries := catalog.Entries()
	if len(entries) == 0 {
		return fmt.Sprintf(
			"no go plugins are compiled in, so entry %q cannot be resolved; set runtime = %q or add %s for script plugins",
			entry, constant.RuntimeLua, constant.DefaultScript,
		)
	}
	return fmt.Sprintf("no go plugin named %q is compiled in (available: %s)", entry, strings.Join(entries, ", "))
}
