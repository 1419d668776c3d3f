package capability

import (
	"context"
	"testing"

	"github.com/comiknet/comiknet/source"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

type lister struct{}

func (lister) OnLoad(context.Context) (bool, error) { return true, nil }
func (lister) OnUnload(context.Context) error       { return nil }
func (lister) Search(context.Context, source.ID, string, ...string) ([]*source.Comic, error) {
	return nil, nil
}
func (lister) Album(context.Context, source.ID, string) (*source.Album, error) { return nil, nil }

type authLister struct{ lister }

func (authLister) Login(context.Context, source.ID, map[string]string) (map[string]*string, error) {
	return nil, nil
}

type asyncLister struct{}

func (asyncLister) OnLoad(context.Context) (bool, error) { return true, nil }
func (asyncLister) OnUnload(context.Context) error       { return nil }
func (asyncLister) SearchAsync(context.Context, source.ID, string, ...string) *mo.Future[[]*source.Comic] {
	return nil
}
func (asyncLister) AlbumAsync(context.Context, source.ID, string) *mo.Future[*source.Album] {
	return nil
}

type probed struct {
	authLister
	allow map[Name]bool
}

func (p probed) Supports(n Name) bool { return p.allow[n] }

func TestSupports(t *testing.T) {
	Convey("Given a plain lister", t, func() {
		set := Of(lister{})

		Convey("Only listing should be present", func() {
			So(set.Names(), ShouldResemble, []Name{Listing})
		})
	})

	Convey("Given a lister with a login method", t, func() {
		So(Supports(authLister{}, Auth), ShouldBeTrue)
		So(Supports(authLister{}, Image), ShouldBeFalse)
	})

	Convey("Given a suspending lister", t, func() {
		So(Supports(asyncLister{}, Listing), ShouldBeTrue)
	})

	Convey("Given something that is not a plugin", t, func() {
		So(Of(struct{}{}), ShouldBeEmpty)
	})

	Convey("Given a prober", t, func() {
		p := probed{allow: map[Name]bool{Listing: true, Image: true}}

		Convey("It should narrow the statically implemented set", func() {
			So(Supports(p, Auth), ShouldBeFalse)
			So(Supports(p, Listing), ShouldBeTrue)
		})

		Convey("It should not widen it", func() {
			So(Supports(p, Image), ShouldBeFalse)
		})
	})
}

func TestKnown(t *testing.T) {
	Convey("Known", t, func() {
		So(Known(Auth), ShouldBeTrue)
		So(Known("teleport"), ShouldBeFalse)
	})
}
