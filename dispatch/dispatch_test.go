package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/comiknet/comiknet/capability"
	"github.com/comiknet/comiknet/manifest"
	"github.com/comiknet/comiknet/registry"
	"github.com/comiknet/comiknet/source"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

type hooks struct{}

func (hooks) OnLoad(context.Context) (bool, error) { return true, nil }
func (hooks) OnUnload(context.Context) error       { return nil }

// lister is a synchronous listing-only plugin.
type lister struct {
	hooks
	calls   atomic.Int32
	block   chan struct{}
	fail    error
	explode bool
}

func (l *lister) Search(_ context.Context, src source.ID, query string, _ ...string) ([]*source.Comic, error) {
	l.calls.Add(1)
	if l.block != nil {
		<-l.block
	}
	if l.explode {
		panic("scraper exploded")
	}
	if l.fail != nil {
		return nil, l.fail
	}
	return []*source.Comic{{ID: "1", Name: query, Source: src}}, nil
}

func (l *lister) Album(_ context.Context, src source.ID, id string) (*source.Album, error) {
	l.calls.Add(1)
	return &source.Album{Comic: source.Comic{ID: id, Source: src}}, nil
}

// asyncPlugin lists and logs in through futures.
type asyncPlugin struct {
	hooks
}

func (asyncPlugin) SearchAsync(_ context.Context, src source.ID, query string, _ ...string) *mo.Future[[]*source.Comic] {
	return mo.NewFuture(func(resolve func([]*source.Comic), reject func(error)) {
		time.Sleep(5 * time.Millisecond)
		resolve([]*source.Comic{{ID: "a", Name: query, Source: src}})
	})
}

func (asyncPlugin) AlbumAsync(_ context.Context, _ source.ID, _ string) *mo.Future[*source.Album] {
	return mo.NewFuture(func(resolve func(*source.Album), reject func(error)) {
		reject(errors.New("gone"))
	})
}

func (asyncPlugin) LoginAsync(_ context.Context, _ source.ID, form map[string]string) *mo.Future[map[string]*string] {
	return mo.NewFuture(func(resolve func(map[string]*string), reject func(error)) {
		token := "t-" + form["user"]
		resolve(map[string]*string{"token": &token, "stale": nil})
	})
}

// narrowed looks like an authenticator but withdraws the capability at runtime.
type narrowed struct {
	lister
	logins atomic.Int32
}

func (n *narrowed) Login(context.Context, source.ID, map[string]string) (map[string]*string, error) {
	n.logins.Add(1)
	return nil, nil
}

func (n *narrowed) Supports(c capability.Name) bool {
	return c != capability.Auth
}

func register(reg *registry.Registry, name string, instance any, fields []string, sources ...string) {
	m := &manifest.Manifest{Name: name, Version: "1.0.0", Protocol: "0.3", Sources: sources}
	if fields != nil {
		m.Capabilities = map[string][]string{string(capability.Auth): fields}
	}
	So(reg.Register(registry.NewRecord(m, instance, name)), ShouldBeNil)
}

func TestDispatch(t *testing.T) {
	Convey("Given a dispatcher over sync, async and narrowed plugins", t, func() {
		reg := registry.New()
		sync := &lister{}
		nar := &narrowed{}
		register(reg, "sync", sync, nil, "s1", "s2")
		register(reg, "async", asyncPlugin{}, []string{"user", "password"}, "a1")
		register(reg, "narrowed", nar, []string{"user"}, "n1")
		d := New(reg, 2)
		ctx := context.Background()

		Convey("A synchronous search should return the plugin's result", func() {
			comics, err := d.Search(ctx, "s2", "naruto")
			So(err, ShouldBeNil)
			So(comics, ShouldHaveLength, 1)
			So(comics[0].Source, ShouldEqual, "s2")
		})

		Convey("A suspending search should be awaited", func() {
			comics, err := d.Search(ctx, "a1", "onepiece")
			So(err, ShouldBeNil)
			So(comics[0].Name, ShouldEqual, "onepiece")
		})

		Convey("A rejected future should surface as an execution error", func() {
			_, err := d.Album(ctx, "a1", "x")
			So(errors.Is(err, ErrPluginExecution), ShouldBeTrue)

			var exec *ExecutionError
			So(errors.As(err, &exec), ShouldBeTrue)
			So(exec.Source, ShouldEqual, "a1")
			So(exec.Capability, ShouldEqual, capability.Listing)
		})

		Convey("An unknown source should not be found", func() {
			_, err := d.Search(ctx, "nope", "q")
			So(errors.Is(err, ErrSourceNotFound), ShouldBeTrue)
		})

		Convey("An unsupported capability should fail without invoking the plugin", func() {
			_, err := d.Login(ctx, "s1", map[string]string{})
			So(errors.Is(err, ErrCapabilityUnsupported), ShouldBeTrue)
			So(sync.calls.Load(), ShouldEqual, 0)

			_, err = d.Favorites(ctx, "a1", nil, 1)
			So(errors.Is(err, ErrCapabilityUnsupported), ShouldBeTrue)
		})

		Convey("A capability withdrawn at runtime should not be invoked", func() {
			_, err := d.Login(ctx, "n1", map[string]string{"user": "u"})
			So(errors.Is(err, ErrCapabilityUnsupported), ShouldBeTrue)
			So(nar.logins.Load(), ShouldEqual, 0)

			_, err = d.LoginFields("n1")
			So(errors.Is(err, ErrCapabilityUnsupported), ShouldBeTrue)
		})

		Convey("An asynchronous login should return the cookies", func() {
			cookies, err := d.Login(ctx, "a1", map[string]string{"user": "kim"})
			So(err, ShouldBeNil)
			So(*cookies["token"], ShouldEqual, "t-kim")
			So(cookies["stale"], ShouldBeNil)
		})

		Convey("Login fields should come from the manifest", func() {
			fields, err := d.LoginFields("a1")
			So(err, ShouldBeNil)
			So(fields, ShouldResemble, []string{"user", "password"})
		})

		Convey("Capabilities should be derived from the instance", func() {
			set, err := d.Capabilities("a1")
			So(err, ShouldBeNil)
			So(set.Names(), ShouldResemble, []capability.Name{capability.Auth, capability.Listing})

			set, err = d.Capabilities("n1")
			So(err, ShouldBeNil)
			So(set.Has(capability.Auth), ShouldBeFalse)

			So(d.SourcesWith(capability.Auth), ShouldResemble, []string{"a1"})
		})
	})
}

func TestFailures(t *testing.T) {
	Convey("Given a plugin that errors and one that panics", t, func() {
		reg := registry.New()
		register(reg, "failing", &lister{fail: errors.New("upstream 503")}, nil, "f")
		register(reg, "panicking", &lister{explode: true}, nil, "p")
		register(reg, "healthy", &lister{}, nil, "h")
		d := New(reg, 0)

		Convey("A plugin error should be wrapped with its source", func() {
			_, err := d.Search(context.Background(), "f", "q")
			So(errors.Is(err, ErrPluginExecution), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "upstream 503")
		})

		Convey("A panic should be recovered as an execution error", func() {
			_, err := d.Search(context.Background(), "p", "q")
			So(errors.Is(err, ErrPluginExecution), ShouldBeTrue)

			var panicked *PanicError
			So(errors.As(err, &panicked), ShouldBeTrue)
			So(panicked.Value, ShouldEqual, "scraper exploded")

			Convey("And the plugin should remain usable by others", func() {
				_, err := d.Search(context.Background(), "h", "q")
				So(err, ShouldBeNil)
			})
		})

		Convey("Searching everything should report per source", func() {
			results := d.SearchAll(context.Background(), "q")
			So(results, ShouldHaveLength, 3)
			So(results[0].Source, ShouldEqual, "f")
			So(results[0].Err, ShouldNotBeNil)
			So(results[1].Source, ShouldEqual, "h")
			So(results[1].Err, ShouldBeNil)
			So(results[1].Comics, ShouldHaveLength, 1)
			So(results[2].Source, ShouldEqual, "p")
			So(results[2].Err, ShouldNotBeNil)
		})
	})
}

func TestIndependence(t *testing.T) {
	Convey("Given a plugin whose call blocks indefinitely", t, func() {
		reg := registry.New()
		stuck := &lister{block: make(chan struct{})}
		register(reg, "stuck", stuck, nil, "slow")
		register(reg, "fast", &lister{}, nil, "quick")
		d := New(reg, 0)

		go func() { _, _ = d.Search(context.Background(), "slow", "q") }()
		defer close(stuck.block)

		Convey("A call on another source should still complete", func() {
			done := make(chan error, 1)
			go func() {
				_, err := d.Search(context.Background(), "quick", "q")
				done <- err
			}()

			select {
			case err := <-done:
				So(err, ShouldBeNil)
			case <-time.After(2 * time.Second):
				t.Fatal("dispatch serialized across sources")
			}
		})
	})
}

func TestUnloadWaitsForCalls(t *testing.T) {
	Convey("Given a call in flight on a plugin being unloaded", t, func() {
		reg := registry.New()
		stuck := &lister{block: make(chan struct{})}
		register(reg, "stuck", stuck, nil, "slow")
		d := New(reg, 0)

		finished := make(chan error, 1)
		go func() {
			_, err := d.Search(context.Background(), "slow", "q")
			finished <- err
		}()
		for stuck.calls.Load() == 0 {
			time.Sleep(time.Millisecond)
		}

		rec, _ := reg.Remove("stuck")
		retired := make(chan struct{})
		go func() {
			rec.Retire()
			close(retired)
		}()

		Convey("Retirement should complete only after the call returns", func() {
			select {
			case <-retired:
				t.Fatal("plugin retired mid-call")
			case <-time.After(50 * time.Millisecond):
			}

			close(stuck.block)
			So(<-finished, ShouldBeNil)
			<-retired

			_, err := d.Search(context.Background(), "slow", "q")
			So(errors.Is(err, ErrSourceNotFound), ShouldBeTrue)
		})
	})
}
