// Package capability negotiates which optional behaviors a plugin instance exposes.
//
// Negotiation is a type test against the interfaces in package source, refined by Prober for
// instances whose surface depends on runtime content (for example Lua scripts).
package capability

import (
	"sort"

	"github.com/comiknet/comiknet/source"
)

// Name identifies a capability in manifests and queries.
type Name string

const (
	Listing   Name = "listing"
	Auth      Name = "auth"
	Favorites Name = "favorites"
	Image     Name = "image"
)

// All lists every known capability, mandatory first.
var All = []Name{Listing, Auth, Favorites, Image}

// Known reports whether n is a capability the host understands.
func Known(n Name) bool {
	for _, k := range All {
		if k == n {
			return true
		}
	}
	return false
}

// Prober lets an instance withdraw capabilities its static type would otherwise advertise.
// It can only narrow the type test, never widen it.
type Prober interface {
	Supports(n Name) bool
}

// Supports reports whether instance currently implements n.
func Supports(instance any, n Name) bool {
	var implemented bool
	switch n {
	case Listing:
		_, sync := instance.(source.Lister)
		_, async := instance.(source.AsyncLister)
		implemented = sync || async
	case Auth:
		_, sync := instance.(source.Authenticator)
		_, async := instance.(source.AsyncAuthenticator)
		implemented = sync || async
	case Favorites:
		_, implemented = instance.(source.FavoritesProvider)
	case Image:
		_, implemented = instance.(source.ImageShaper)
	}

	if !implemented {
		return false
	}

	if p, ok := instance.(Prober); ok {
		return p.Supports(n)
	}
	return true
}

// Set is the derived collection of capabilities of one instance.
type Set map[Name]struct{}

// Of computes the capability set of instance. The result is never cached.
func Of(instance any) Set {
	set := make(Set)
	for _, n := range All {
		if Supports(instance, n) {
			set[n] = struct{}{}
		}
	}
	return set
}

// Has reports whether n is in the set.
func (s Set) Has(n Name) bool {
	_, ok := s[n]
	return ok
}

// Names returns the capabilities in the set, sorted.
func (s Set) Names() []Name {
	names := make([]Name, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
