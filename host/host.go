// Package host assembles the plugin runtime: registry, lifecycle, dispatch, sessions and
// stored credentials, owned by one value constructed at startup.
package host

import (
	"context"
	"fmt"

	"github.com/comiknet/comiknet/account"
	"github.com/comiknet/comiknet/credential"
	"github.com/comiknet/comiknet/dispatch"
	"github.com/comiknet/comiknet/key"
	"github.com/comiknet/comiknet/lifecycle"
	"github.com/comiknet/comiknet/plugin"
	"github.com/comiknet/comiknet/plugin/script"
	"github.com/comiknet/comiknet/registry"
	"github.com/comiknet/comiknet/session"
	"github.com/comiknet/comiknet/where"
	"github.com/spf13/viper"
)

// Options configure a Host.
type Options struct {
	Dir            string
	Strict         bool
	ReservedPrefix string
	Concurrency    int

	// Catalog defaults to the built-in plugin catalog.
	Catalog *plugin.Catalog

	// Store defaults to the configured credential backend.
	Store credential.Store
}

// FromConfig reads options from the active configuration.
func FromConfig() Options {
	return Options{
		Dir:            where.Plugins(),
		Strict:         viper.GetBool(key.PluginsStrict),
		ReservedPrefix: viper.GetString(key.PluginsReservedPrefix),
		Concurrency:    viper.GetInt(key.PluginsSearchConcurrency),
	}
}

// Host is the running plugin runtime.
type Host struct {
	Registry   *registry.Registry
	Lifecycle  *lifecycle.Manager
	Dispatcher *dispatch.Dispatcher
	Sessions   *session.Aggregator
	Accounts   *account.Service

	store credential.Store
}

// New builds a host. Plugins are not loaded until Start.
func New(ctx context.Context, options Options) (*Host, error) {
	store := options.Store
	if store == nil {
		var err error
		if store, err = credential.Open(ctx); err != nil {
			return nil, fmt.Errorf("open credential store: %w", err)
		}
	}

	reg := registry.New()
	dispatcher := dispatch.New(reg, options.Concurrency)

	return &Host{
		Registry: reg,
		Lifecycle: lifecycle.New(reg, lifecycle.Options{
			Dir:            options.Dir,
			Strict:         options.Strict,
			ReservedPrefix: options.ReservedPrefix,
			Catalog:        options.Catalog,
			Scripts:        script.Load,
		}),
		Dispatcher: dispatcher,
		Sessions:   session.New(reg),
		Accounts:   account.New(dispatcher, store),
		store:      store,
	}, nil
}

// Start loads every plugin. In strict mode a rejected plugin aborts startup and unloads
// whatever was already loaded.
func (h *Host) Start(ctx context.Context) error {
	if err := h.Lifecycle.LoadAll(ctx); err != nil {
		h.Lifecycle.UnloadAll(ctx)
		return err
	}
	return nil
}

// Close unloads every plugin and releases the credential store.
func (h *Host) Close(ctx context.Context) error {
	h.Lifecycle.UnloadAll(ctx)
	return h.store.Close()
}

// Store returns the credential store in use.
func (h *Host) Store() credential.Store {
	return h.store
}
