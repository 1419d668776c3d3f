// Package source defines the content models exchanged with plugins and the capability
// interfaces a plugin instance may implement.
package source

import (
	"context"

	"github.com/samber/mo"
)

// ID identifies an upstream content provider. It is unique among currently registered plugins.
type ID = string

// Plugin is the lifecycle contract every plugin instance satisfies.
type Plugin interface {
	// OnLoad prepares the instance. Returning false or an error rejects the plugin.
	OnLoad(ctx context.Context) (bool, error)

	// OnUnload releases resources held by the instance. Only called after a successful OnLoad.
	OnUnload(ctx context.Context) error
}

// Lister is the mandatory content listing capability.
type Lister interface {
	Plugin

	// Search executes a query against the given source.
	Search(ctx context.Context, src ID, query string, extras ...string) ([]*Comic, error)

	// Album retrieves the full album of a comic on the given source.
	Album(ctx context.Context, src ID, id string) (*Album, error)
}

// AsyncLister is the suspending form of Lister. Results are delivered through futures.
type AsyncLister interface {
	Plugin

	SearchAsync(ctx context.Context, src ID, query string, extras ...string) *mo.Future[[]*Comic]
	AlbumAsync(ctx context.Context, src ID, id string) *mo.Future[*Album]
}

// Authenticator logs a user into a source. The returned cookies become that source's session state;
// keys with a nil value are dropped.
type Authenticator interface {
	Login(ctx context.Context, src ID, form map[string]string) (map[string]*string, error)
}

// AsyncAuthenticator is the suspending form of Authenticator.
type AsyncAuthenticator interface {
	LoginAsync(ctx context.Context, src ID, form map[string]string) *mo.Future[map[string]*string]
}

// FavoritesProvider lists the comics a logged in user marked as favorite.
type FavoritesProvider interface {
	Favorites(ctx context.Context, src ID, cookies map[string]string, page int) ([]*Comic, error)
}

// ImageShaper post-processes images served by a source, e.g. unscrambling sliced pages.
type ImageShaper interface {
	ShapeImage(ctx context.Context, src ID, img *Image) (*Image, error)
}
