// Package session carries per-source cookie state inside a single client-held value.
package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/comiknet/comiknet/key"
	"github.com/comiknet/comiknet/log"
	"github.com/comiknet/comiknet/source"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Jar maps each source to its cookies.
type Jar map[source.ID]map[string]string

// Sources lists the currently registered source ids.
type Sources interface {
	Sources() []source.ID
}

// Aggregator converts jars to and from their carrier string. It holds no state of its own
// beyond the view of registered sources.
type Aggregator struct {
	sources Sources
}

// New returns an aggregator that normalizes jars against sources.
func New(sources Sources) *Aggregator {
	return &Aggregator{sources: sources}
}

// CookieName is the name of the cookie carrying the serialized jar.
func CookieName() string {
	return viper.GetString(key.SessionCookieName)
}

// Serialize encodes jar for transport in a cookie.
func (a *Aggregator) Serialize(jar Jar) string {
	if jar == nil {
		jar = Jar{}
	}

	data, err := json.Marshal(jar)
	if err != nil {
		// a map of strings always marshals
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// Deserialize decodes a carrier string. Malformed input gives an empty jar. The result has an
// entry for every registered source and none for sources that are not registered.
func (a *Aggregator) Deserialize(s string) Jar {
	return a.normalize(decode(s))
}

func decode(s string) map[string]any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// plain JSON as written by older clients
	data := []byte(s)
	if !strings.HasPrefix(s, "{") {
		var err error
		if data, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "=")); err != nil {
			log.Warnf("discarding undecodable session cookie: %s", err)
			return nil
		}
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warnf("discarding malformed session cookie: %s", err)
		return nil
	}
	return raw
}

func (a *Aggregator) normalize(raw map[string]any) Jar {
	jar := make(Jar)
	for _, id := range a.sources.Sources() {
		jar[id] = entry(raw[id])
	}
	return jar
}

// entry accepts either an object of strings or a cookie header string.
func entry(v any) map[string]string {
	cookies := make(map[string]string)

	switch v := v.(type) {
	case map[string]any:
		for k, val := range v {
			if s, ok := val.(string); ok {
				cookies[k] = s
			}
		}
	case string:
		parsed, err := http.ParseCookie(v)
		if err != nil {
			return cookies
		}
		for _, c := range parsed {
			cookies[c.Name] = c.Value
		}
	}

	return cookies
}

// Set replaces the cookies of src, dropping keys whose value is nil.
func Set(jar Jar, src source.ID, kv map[string]*string) {
	jar[src] = lo.MapValues(lo.PickBy(kv, func(_ string, v *string) bool {
		return v != nil
	}), func(v *string, _ string) string {
		return *v
	})
}

// Get returns the cookies of src. The result is never nil.
func Get(jar Jar, src source.ID) map[string]string {
	if cookies, ok := jar[src]; ok && cookies != nil {
		return cookies
	}
	return map[string]string{}
}
