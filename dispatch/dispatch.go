// Package dispatch routes calls to the plugin that owns a source.
//
// Every call resolves the source, checks the capability and invokes the plugin under the record's
// read guard, so a plugin is never unloaded in the middle of a call. There is no lock shared
// between sources.
package dispatch

import (
	"context"
	"fmt"
	"sort"

	"github.com/comiknet/comiknet/capability"
	"github.com/comiknet/comiknet/constant"
	"github.com/comiknet/comiknet/registry"
	"github.com/comiknet/comiknet/source"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/comiknet/comiknet/dispatch"

// Dispatcher invokes plugin capabilities by source id.
type Dispatcher struct {
	registry    *registry.Registry
	concurrency int
	tracer      trace.Tracer
}

// New returns a dispatcher over reg. concurrency bounds SearchAll fan-out; values below one
// mean unbounded.
func New(reg *registry.Registry, concurrency int) *Dispatcher {
	return &Dispatcher{
		registry:    reg,
		concurrency: concurrency,
		tracer:      otel.Tracer(tracerName),
	}
}

// Search runs query on src.
func (d *Dispatcher) Search(ctx context.Context, src source.ID, query string, extras ...string) ([]*source.Comic, error) {
	return invoke(ctx, d, src, capability.Listing, func(ctx context.Context, instance any) ([]*source.Comic, error) {
		if l, ok := instance.(source.Lister); ok {
			return l.Search(ctx, src, query, extras...)
		}
		return await(instance.(source.AsyncLister).SearchAsync(ctx, src, query, extras...))
	})
}

// Album fetches the album of comic id on src.
func (d *Dispatcher) Album(ctx context.Context, src source.ID, id string) (*source.Album, error) {
	return invoke(ctx, d, src, capability.Listing, func(ctx context.Context, instance any) (*source.Album, error) {
		if l, ok := instance.(source.Lister); ok {
			return l.Album(ctx, src, id)
		}
		return await(instance.(source.AsyncLister).AlbumAsync(ctx, src, id))
	})
}

// Login submits form to src and returns the cookies the source handed out.
func (d *Dispatcher) Login(ctx context.Context, src source.ID, form map[string]string) (map[string]*string, error) {
	return invoke(ctx, d, src, capability.Auth, func(ctx context.Context, instance any) (map[string]*string, error) {
		if a, ok := instance.(source.Authenticator); ok {
			return a.Login(ctx, src, form)
		}
		return await(instance.(source.AsyncAuthenticator).LoginAsync(ctx, src, form))
	})
}

// Favorites lists page of the user's favorites on src.
func (d *Dispatcher) Favorites(ctx context.Context, src source.ID, cookies map[string]string, page int) ([]*source.Comic, error) {
	return invoke(ctx, d, src, capability.Favorites, func(ctx context.Context, instance any) ([]*source.Comic, error) {
		return instance.(source.FavoritesProvider).Favorites(ctx, src, cookies, page)
	})
}

// ShapeImage lets src post-process img.
func (d *Dispatcher) ShapeImage(ctx context.Context, src source.ID, img *source.Image) (*source.Image, error) {
	return invoke(ctx, d, src, capability.Image, func(ctx context.Context, instance any) (*source.Image, error) {
		return instance.(source.ImageShaper).ShapeImage(ctx, src, img)
	})
}

// SearchResult is the outcome of a search on one source.
type SearchResult struct {
	Source source.ID
	Comics []*source.Comic
	Err    error
}

// SearchAll runs query on every registered source. A failing source does not affect the others;
// its error is reported in its result. Results are ordered by source id.
func (d *Dispatcher) SearchAll(ctx context.Context, query string, extras ...string) []SearchResult {
	ids := d.registry.Sources()
	results := make([]SearchResult, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}

	for i, id := range ids {
		g.Go(func() error {
			comics, err := d.Search(ctx, id, query, extras...)
			results[i] = SearchResult{Source: id, Comics: comics, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Capabilities returns the capabilities the plugin behind src currently exposes.
func (d *Dispatcher) Capabilities(src source.ID) (capability.Set, error) {
	rec, ok := d.registry.Resolve(src)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
	}
	return capability.Of(rec.Instance), nil
}

// LoginFields returns the form fields src expects for login, as declared by its plugin.
// It fails with ErrCapabilityUnsupported if the plugin cannot log in.
func (d *Dispatcher) LoginFields(src source.ID) ([]string, error) {
	rec, ok := d.registry.Resolve(src)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
	}

	if !capability.Supports(rec.Instance, capability.Auth) {
		return nil, fmt.Errorf("%w: %s on %s", ErrCapabilityUnsupported, capability.Auth, src)
	}

	fields, _ := rec.Manifest.Fields(capability.Auth)
	return append([]string{}, fields...), nil
}

// Sources returns every registered source id, sorted.
func (d *Dispatcher) Sources() []source.ID {
	return d.registry.Sources()
}

// SourcesWith returns the registered sources whose plugin exposes n.
func (d *Dispatcher) SourcesWith(n capability.Name) []source.ID {
	var ids []source.ID
	for _, rec := range d.registry.Records() {
		if capability.Supports(rec.Instance, n) {
			ids = append(ids, rec.Manifest.Sources...)
		}
	}
	sort.Strings(ids)
	return ids
}

// Protocol is the plugin protocol implemented by this host.
func (d *Dispatcher) Protocol() string {
	return constant.Protocol
}

func invoke[T any](ctx context.Context, d *Dispatcher, src source.ID, n capability.Name, call func(context.Context, any) (T, error)) (result T, err error) {
	rec, ok := d.registry.Resolve(src)
	if !ok {
		return result, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
	}

	if !rec.Acquire() {
		return result, fmt.Errorf("%w: %s is being unloaded", ErrSourceNotFound, src)
	}
	defer rec.Release()

	if !capability.Supports(rec.Instance, n) {
		return result, fmt.Errorf("%w: %s on %s", ErrCapabilityUnsupported, n, src)
	}

	ctx, span := d.tracer.Start(ctx, "dispatch."+string(n), trace.WithAttributes(
		attribute.String("comiknet.source", src),
		attribute.String("comiknet.plugin", rec.Name()),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
		if err != nil {
			err = &ExecutionError{Source: src, Capability: n, Err: err}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	return call(ctx, rec.Instance)
}
